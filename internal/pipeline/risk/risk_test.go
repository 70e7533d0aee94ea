package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/intelligence/embedding"
	"github.com/turtacn/tender-intel/internal/intelligence/vectorstore"
	"github.com/turtacn/tender-intel/internal/pipeline/taxonomy"
)

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	embedder := embedding.NewHashProvider("test", 32)
	store := vectorstore.NewInMemoryStore()
	agent := New(taxonomy.DefaultRiskCategories(), embedder, store)
	require.NoError(t, agent.SeedCorpus(context.Background()))
	return agent
}

func embedFragments(t *testing.T, embedder embedding.Provider, fragments []document.Fragment) []document.Fragment {
	t.Helper()
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	vecs, err := embedder.Embed(context.Background(), texts)
	require.NoError(t, err)
	for i := range fragments {
		fragments[i].Vector = vecs[i]
	}
	return fragments
}

func TestAssess_HighIndicatorDensityScoresLegalCategoryHigh(t *testing.T) {
	agent := newTestAgent(t)
	embedder := embedding.NewHashProvider("test", 32)
	fragments := embedFragments(t, embedder, []document.Fragment{
		{FragID: "f1", DocID: "d1", Text: "Existe responsabilidad ilimitada sin garantía de fiel cumplimiento ni jurisdicción especificada."},
	})

	assessment, err := agent.Assess(context.Background(), "d1", fragments)
	require.NoError(t, err)

	legal := assessment.CategoryRisks["legal"]
	assert.Greater(t, legal.IndicatorsDetected, 0)
	assert.Greater(t, legal.Score, 0.0)
}

func TestAssess_BenignTextScoresLow(t *testing.T) {
	agent := newTestAgent(t)
	embedder := embedding.NewHashProvider("test", 32)
	fragments := embedFragments(t, embedder, []document.Fragment{
		{FragID: "f1", DocID: "d1", Text: "El presente documento describe el alcance general del contrato."},
	})

	assessment, err := agent.Assess(context.Background(), "d1", fragments)
	require.NoError(t, err)
	assert.LessOrEqual(t, assessment.TotalScore, riskMediumCeiling)
}

func TestAssess_MatrixCountsSumToFiveCategories(t *testing.T) {
	agent := newTestAgent(t)
	embedder := embedding.NewHashProvider("test", 32)
	fragments := embedFragments(t, embedder, []document.Fragment{
		{FragID: "f1", DocID: "d1", Text: "texto neutro sin riesgos evidentes"},
	})

	assessment, err := agent.Assess(context.Background(), "d1", fragments)
	require.NoError(t, err)
	assert.Equal(t, 5, assessment.Matrix.Low+assessment.Matrix.Medium+assessment.Matrix.High)
}

func TestBucketLevel_Thresholds(t *testing.T) {
	assert.Equal(t, document.RiskLow, bucketLevel(10))
	assert.Equal(t, document.RiskMedium, bucketLevel(30))
	assert.Equal(t, document.RiskHigh, bucketLevel(60))
	assert.Equal(t, document.RiskVeryHigh, bucketLevel(90))
}

func TestMatchingMitigations_OnlyFiresOnTriggeredIndicators(t *testing.T) {
	cat := taxonomy.RiskCategory{
		Key: "technical",
		Templates: []taxonomy.MitigationTemplate{
			{Text: "review needed", TriggerIndicators: []string{"incompatibilidad técnica"}},
		},
	}
	assert.Empty(t, matchingMitigations(cat, []string{"otro indicador"}))
	assert.Equal(t, []string{"review needed"}, matchingMitigations(cat, []string{"incompatibilidad técnica"}))
}
