package milvus

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/intelligence/vectorstore"
	"github.com/turtacn/tender-intel/pkg/errors"
	"github.com/turtacn/tender-intel/pkg/types/common"
)

const (
	fieldID           = "id"
	fieldText         = "text"
	fieldVector       = "vector"
	fieldMetadataJSON = "metadata_json"

	// overFetchFactor widens the Milvus search so that, after Go-side metadata
	// filtering removes non-matching rows, k results usually still remain.
	overFetchFactor = 4
)

// Store adapts a Milvus collection (VarChar-keyed, one fixed-dimension
// vector field plus a JSON metadata blob) to vectorstore.Store. Milvus
// collections are natively int64-keyed; the classifier and risk agents seed
// their corpora with caller-chosen string IDs (taxonomy section keys, risk
// category keys), so this adapter uses a VarChar primary key instead of the
// DocumentVectorSchema/FragmentVectorSchema int64 schemas in collection.go,
// which back a different, document-indexing use case.
//
// Metadata filtering is not pushed down into a Milvus boolean expression
// because the filter keys are caller-defined and not part of the fixed
// schema; instead each query over-fetches and filters the decoded metadata
// in Go, trading some recall headroom for not having to maintain a dynamic
// per-key column set.
type Store struct {
	searcher  *Searcher
	collector *CollectionManager
	logger    logging.Logger

	mu      sync.Mutex
	ensured map[string]int // collection name -> vector dimension already ensured
}

// NewStore constructs a Milvus-backed vectorstore.Store.
func NewStore(searcher *Searcher, collector *CollectionManager, logger logging.Logger) *Store {
	return &Store{
		searcher:  searcher,
		collector: collector,
		logger:    logger,
		ensured:   make(map[string]int),
	}
}

// NewStoreFromClient builds the Searcher/CollectionManager pair a Store
// needs directly from an already-connected Client, for callers (cmd/worker,
// cmd/apiserver) that only have the low-level client and don't need direct
// access to the intermediate collection/search wrappers.
func NewStoreFromClient(cli *Client, logger logging.Logger) *Store {
	cm := NewCollectionManager(cli, CollectionConfig{}, logger)
	searcher := NewSearcher(cli, cm, SearcherConfig{}, logger)
	return NewStore(searcher, cm, logger)
}

var _ vectorstore.Store = (*Store)(nil)

func varCharSchema(name string, dim int) common.CollectionSchema {
	fields := []*entity.Field{
		{Name: fieldID, DataType: entity.FieldTypeVarChar, PrimaryKey: true, AutoID: false, TypeParams: map[string]string{"max_length": "256"}},
		{Name: fieldText, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "8192"}},
		{Name: fieldMetadataJSON, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "8192"}},
		{Name: fieldVector, DataType: entity.FieldTypeFloatVector, TypeParams: map[string]string{"dim": strconv.Itoa(dim)}},
	}
	ifaces := make([]interface{}, len(fields))
	for i, f := range fields {
		ifaces[i] = f
	}
	return common.CollectionSchema{
		Name:        name,
		Description: "tender-intel vectorstore.Store collection",
		Fields:      ifaces,
	}
}

func (s *Store) ensureCollection(ctx context.Context, collection string, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if known, ok := s.ensured[collection]; ok {
		if known != dim {
			return errors.New(errors.CodeEmbeddingDimensionMismatch, "vector dimension does not match collection "+collection)
		}
		return nil
	}

	schema := varCharSchema(collection, dim)
	indexes := []common.IndexConfig{{FieldName: fieldVector, IndexType: "IVF_FLAT", MetricType: "COSINE"}}
	if err := s.collector.EnsureCollection(ctx, schema, indexes); err != nil {
		return err
	}
	s.ensured[collection] = dim
	return nil
}

// Upsert inserts or replaces items in collection, creating and loading the
// collection on first use with the dimension of items[0].Vector.
func (s *Store) Upsert(ctx context.Context, collection string, items []vectorstore.Item) error {
	if len(items) == 0 {
		return nil
	}
	dim := len(items[0].Vector)
	for _, it := range items {
		if len(it.Vector) != dim {
			return errors.New(errors.CodeEmbeddingDimensionMismatch, "mixed vector dimensions in one upsert batch")
		}
	}
	if err := s.ensureCollection(ctx, collection, dim); err != nil {
		return err
	}

	data := make([]map[string]interface{}, len(items))
	for i, it := range items {
		metaJSON, err := json.Marshal(it.Metadata)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to encode item metadata")
		}
		data[i] = map[string]interface{}{
			fieldID:           it.ID,
			fieldText:         it.Text,
			fieldMetadataJSON: string(metaJSON),
			fieldVector:       it.Vector,
		}
	}

	_, err := s.searcher.Upsert(ctx, InsertRequest{CollectionName: collection, Data: data})
	if err != nil {
		return err
	}
	s.logger.Info("upserted vectorstore items", logging.String("collection", collection), logging.Int("count", len(items)))
	return nil
}

// Query returns the k nearest items to vector by cosine similarity,
// optionally restricted by exact-match metadata filters.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, k int, filter map[string]string) ([]vectorstore.Match, error) {
	s.mu.Lock()
	_, known := s.ensured[collection]
	s.mu.Unlock()
	if !known {
		return nil, nil
	}

	fetchK := k * overFetchFactor
	if fetchK < k {
		fetchK = k
	}

	res, err := s.searcher.Search(ctx, VectorSearchRequest{
		CollectionName:  collection,
		VectorFieldName: fieldVector,
		Vectors:         [][]float32{vector},
		TopK:            fetchK,
		OutputFields:    []string{fieldID, fieldMetadataJSON},
		MetricType:      "COSINE",
	})
	if err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, nil
	}

	matches := make([]vectorstore.Match, 0, k)
	for _, hit := range res.Results[0] {
		id, _ := hit.Fields[fieldID].(string)

		metadata := map[string]string{}
		if raw, ok := hit.Fields[fieldMetadataJSON].(string); ok && raw != "" {
			_ = json.Unmarshal([]byte(raw), &metadata)
		}
		if !matchesFilter(metadata, filter) {
			continue
		}

		matches = append(matches, vectorstore.Match{
			ID:       id,
			Score:    float64(hit.Score),
			Metadata: metadata,
		})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}

// Delete removes every item in collection whose ID has the given prefix,
// using a LIKE expression over the VarChar primary key.
func (s *Store) Delete(ctx context.Context, collection string, idPrefix string) error {
	s.mu.Lock()
	_, known := s.ensured[collection]
	s.mu.Unlock()
	if !known {
		return nil
	}

	count, err := s.searcher.GetEntityCount(ctx, collection)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	expr := fieldID + ` like "` + idPrefix + `%"`
	if idPrefix == "" {
		expr = fieldID + ` like "%"`
	}
	if err := s.searcher.client.GetMilvusClient().Delete(ctx, collection, "", expr); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to delete vectorstore items by prefix")
	}
	return nil
}

// ListCollections returns the names of every collection this adapter has
// created or loaded so far in this process.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.ensured))
	for name := range s.ensured {
		names = append(names, name)
	}
	return names, nil
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
