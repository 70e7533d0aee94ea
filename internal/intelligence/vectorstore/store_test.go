package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/tender-intel/pkg/errors"
)

func TestUpsertAndQuery_ReturnsNearestByScore(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	err := s.Upsert(ctx, "fragments", []Item{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0, 1}},
		{ID: "c", Vector: []float32{0.9, 0.1}},
	})
	assert.NoError(t, err)

	matches, err := s.Query(ctx, "fragments", []float32{1, 0}, 2, nil)
	assert.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
}

func TestUpsert_MixedDimensionsRejected(t *testing.T) {
	s := NewInMemoryStore()
	err := s.Upsert(context.Background(), "c1", []Item{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{1, 0, 0}},
	})
	assert.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeEmbeddingDimensionMismatch))
}

func TestQuery_FilterByMetadata(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, "c1", []Item{
		{ID: "a", Vector: []float32{1, 0}, Metadata: map[string]string{"section": "legal"}},
		{ID: "b", Vector: []float32{1, 0}, Metadata: map[string]string{"section": "economic"}},
	})

	matches, err := s.Query(ctx, "c1", []float32{1, 0}, 10, map[string]string{"section": "legal"})
	assert.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestDelete_ByIDPrefix(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, "c1", []Item{
		{ID: "run1#0", Vector: []float32{1}},
		{ID: "run1#1", Vector: []float32{1}},
		{ID: "run2#0", Vector: []float32{1}},
	})

	err := s.Delete(ctx, "c1", "run1#")
	assert.NoError(t, err)

	matches, _ := s.Query(ctx, "c1", []float32{1}, 10, nil)
	assert.Len(t, matches, 1)
	assert.Equal(t, "run2#0", matches[0].ID)
}

func TestListCollections(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	_ = s.Upsert(ctx, "fragments", []Item{{ID: "a", Vector: []float32{1}}})
	_ = s.Upsert(ctx, "documents", []Item{{ID: "b", Vector: []float32{1}}})

	names, err := s.ListCollections(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"documents", "fragments"}, names)
}
