// Package risk implements the risk agent: per-category indicator and
// semantic scoring over a document's fragments, blended into an overall
// risk assessment with mitigations drawn from canned templates.
package risk

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/intelligence/embedding"
	"github.com/turtacn/tender-intel/internal/intelligence/vectorstore"
	"github.com/turtacn/tender-intel/internal/pipeline/taxonomy"
)

const (
	indicatorWeight = 10.0
	semanticWeight  = 60.0

	riskLowCeiling      = 25.0
	riskMediumCeiling   = 50.0
	riskHighCeiling     = 75.0

	topFragmentsForSemantic = 5

	indicatorCollection = "risk_indicators"
)

// criticalKeywords flags a category's top contributing fragment as a
// critical risk when it mentions legal or monetary exposure.
var criticalKeywords = []string{
	"garantía", "penalidad", "multa", "responsabilidad ilimitada",
	"presupuesto", "pago", "soles", "dólares", "indemnización",
}

// Agent is the risk agent.
type Agent struct {
	categories []taxonomy.RiskCategory
	embedder   embedding.Provider
	store      vectorstore.Store
}

// New constructs a risk Agent over the given categories.
func New(categories []taxonomy.RiskCategory, embedder embedding.Provider, store vectorstore.Store) *Agent {
	return &Agent{categories: categories, embedder: embedder, store: store}
}

// SeedCorpus embeds every category's indicator terms individually so
// Assess can query per-fragment semantic similarity against them. Must run
// once before Assess.
func (a *Agent) SeedCorpus(ctx context.Context) error {
	for _, cat := range a.categories {
		terms := make([]string, 0, len(cat.Indicators))
		for term := range cat.Indicators {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		vecs, err := a.embedder.Embed(ctx, terms)
		if err != nil {
			return err
		}
		items := make([]vectorstore.Item, len(terms))
		for i, term := range terms {
			items[i] = vectorstore.Item{
				ID:       cat.Key + "#" + term,
				Text:     term,
				Vector:   vecs[i],
				Metadata: map[string]string{"category": cat.Key},
			}
		}
		if err := a.store.Upsert(ctx, indicatorCollection, items); err != nil {
			return err
		}
	}
	return nil
}

// Assess scores every risk category over fragments and returns the combined
// RiskAssessment for docID.
func (a *Agent) Assess(ctx context.Context, docID string, fragments []document.Fragment) (*document.RiskAssessment, error) {
	fullLower := strings.ToLower(joinFragments(fragments))

	categoryRisks := make(map[string]document.CategoryRisk, len(a.categories))
	var weightedSum, weightSum float64
	matrix := document.RiskBucketCount{}
	var criticalRisks []string
	var mitigations []string

	for _, cat := range a.categories {
		indicatorScore, mentions := a.scoreIndicators(cat, fullLower)
		semanticScore, topFragmentText := a.scoreSemantic(ctx, cat, fragments)

		score := math.Min(100, indicatorWeight*indicatorScore+semanticWeight*semanticScore)
		level := bucketLevel(score)

		categoryRisks[cat.Key] = document.CategoryRisk{
			Score:              score,
			Level:              level,
			IndicatorsDetected: len(mentions),
			Mentions:           mentions,
			SemanticRisks:      nonEmpty(topFragmentText),
			Weight:             cat.Weight,
		}

		weightedSum += score * cat.Weight
		weightSum += cat.Weight
		countBucket(&matrix, level)

		if (level == document.RiskHigh || level == document.RiskVeryHigh) && containsAny(topFragmentText, criticalKeywords) {
			criticalRisks = append(criticalRisks, cat.Key+": "+truncate(topFragmentText, 140))
		}

		mitigations = append(mitigations, matchingMitigations(cat, mentions)...)
	}

	totalScore := 0.0
	if weightSum > 0 {
		totalScore = weightedSum / weightSum
	}

	return &document.RiskAssessment{
		DocID:         docID,
		CategoryRisks: categoryRisks,
		TotalScore:    totalScore,
		OverallLevel:  bucketLevel(totalScore),
		CriticalRisks: criticalRisks,
		Mitigations:   dedupe(mitigations),
		Matrix:        matrix,
	}, nil
}

func (a *Agent) scoreIndicators(cat taxonomy.RiskCategory, lowerText string) (float64, []string) {
	var score float64
	var mentions []string
	for term, severity := range cat.Indicators {
		occurrences := strings.Count(lowerText, strings.ToLower(term))
		if occurrences == 0 {
			continue
		}
		score += float64(severity) * math.Log1p(float64(occurrences))
		mentions = append(mentions, term)
	}
	sort.Strings(mentions)
	return score, mentions
}

func (a *Agent) scoreSemantic(ctx context.Context, cat taxonomy.RiskCategory, fragments []document.Fragment) (float64, string) {
	if a.store == nil {
		return 0, ""
	}
	type scored struct {
		score float64
		text  string
	}
	var best []scored
	for _, f := range fragments {
		if len(f.Vector) == 0 {
			continue
		}
		matches, err := a.store.Query(ctx, indicatorCollection, f.Vector, 1, map[string]string{"category": cat.Key})
		if err != nil || len(matches) == 0 {
			continue
		}
		best = append(best, scored{score: matches[0].Score, text: f.Text})
	}
	sort.Slice(best, func(i, j int) bool { return best[i].score > best[j].score })
	if len(best) > topFragmentsForSemantic {
		best = best[:topFragmentsForSemantic]
	}
	if len(best) == 0 {
		return 0, ""
	}
	var sum float64
	for _, b := range best {
		sum += b.score
	}
	return sum / float64(len(best)), best[0].text
}

func bucketLevel(score float64) document.RiskLevel {
	switch {
	case score < riskLowCeiling:
		return document.RiskLow
	case score < riskMediumCeiling:
		return document.RiskMedium
	case score < riskHighCeiling:
		return document.RiskHigh
	default:
		return document.RiskVeryHigh
	}
}

func countBucket(matrix *document.RiskBucketCount, level document.RiskLevel) {
	switch level {
	case document.RiskLow:
		matrix.Low++
	case document.RiskMedium:
		matrix.Medium++
	default:
		matrix.High++
	}
}

func matchingMitigations(cat taxonomy.RiskCategory, mentions []string) []string {
	mentionSet := make(map[string]bool, len(mentions))
	for _, m := range mentions {
		mentionSet[m] = true
	}
	var out []string
	for _, tmpl := range cat.Templates {
		for _, trigger := range tmpl.TriggerIndicators {
			if mentionSet[trigger] {
				out = append(out, tmpl.Text)
				break
			}
		}
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func joinFragments(fragments []document.Fragment) string {
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}
	return strings.Join(texts, "\n")
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
