// Package classifier assigns each fragment to one of a fixed 9-section
// taxonomy, combining a keyword pre-score with a semantic similarity score
// against each section's keyword-seed centroid.
package classifier

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
	// alphaKeywordWeight is the weight given to the keyword pre-score in the
	// combined classification score; the remainder goes to the semantic score.
	alphaKeywordWeight = 0.4
	// softmaxTemperature controls confidence sharpness across the 9 sections.
	softmaxTemperature = 0.5
	// unclassifiedThreshold is the minimum max-confidence required to accept
	// a section assignment rather than falling back to "unclassified".
	unclassifiedThreshold = 0.25
	// seedCollection is the vector-store collection holding each section's
	// keyword-seed centroid vector.
	seedCollection = "section_seeds"
)

// Agent classifies fragments against the configured taxonomy.
type Agent struct {
	sections []taxonomy.Section
	embedder embedding.Provider
	store    vectorstore.Store
}

// New constructs a classification Agent over the given taxonomy, using
// embedder to vectorize fragments/seeds and store to hold the seed
// centroids looked up during scoring.
func New(sections []taxonomy.Section, embedder embedding.Provider, store vectorstore.Store) *Agent {
	return &Agent{sections: sections, embedder: embedder, store: store}
}

// SeedCorpus precomputes and upserts one centroid vector per taxonomy
// section, derived from the mean embedding of that section's keyword seeds.
// Must run once before Classify calls that rely on semantic scoring.
func (a *Agent) SeedCorpus(ctx context.Context) error {
	items := make([]vectorstore.Item, 0, len(a.sections))
	for _, sec := range a.sections {
		vecs, err := a.embedder.Embed(ctx, sec.Keywords)
		if err != nil {
			return err
		}
		centroid := meanVector(vecs, a.embedder.Dimension())
		items = append(items, vectorstore.Item{
			ID:       sec.Key,
			Vector:   centroid,
			Metadata: map[string]string{"section": sec.Key},
		})
	}
	return a.store.Upsert(ctx, seedCollection, items)
}

// Classify scores and assigns each fragment to a section, embedding
// fragments that don't already carry a vector, and returns the updated
// fragments plus the per-document SectionAssignment aggregate.
func (a *Agent) Classify(ctx context.Context, docID string, fragments []document.Fragment) ([]document.Fragment, *document.SectionAssignment, error) {
	texts := make([]string, 0, len(fragments))
	missing := make([]int, 0, len(fragments))
	for i, f := range fragments {
		if len(f.Vector) == 0 {
			texts = append(texts, f.Text)
			missing = append(missing, i)
		}
	}
	if len(texts) > 0 {
		vecs, err := a.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, nil, err
		}
		for j, idx := range missing {
			fragments[idx].Vector = vecs[j]
		}
	}

	assignment := &document.SectionAssignment{
		DocID:    docID,
		Sections: make(map[string]document.SectionStats),
	}

	for i := range fragments {
		f := &fragments[i]
		scores := a.scoreFragment(ctx, *f)
		section, confidence := argmaxSoftmax(scores)

		f.AssignedSection = section
		f.AssignmentConfidence = confidence

		stats := assignment.Sections[section]
		stats.FragIDs = append(stats.FragIDs, f.FragID)
		stats.AggregateChars += len(f.Text)
		stats.TopKeywords = mergeTopKeywords(stats.TopKeywords, extractKeywords(f.Text, a.sectionByKey(section)))
		stats.Confidence = runningMean(stats.Confidence, len(stats.FragIDs), confidence)
		assignment.Sections[section] = stats
	}

	return fragments, assignment, nil
}

// scoreFragment computes the combined score for every section plus the
// implicit "unclassified" slot (always scored 0 before softmax).
func (a *Agent) scoreFragment(ctx context.Context, f document.Fragment) map[string]float64 {
	lowerText := strings.ToLower(f.Text)
	scores := make(map[string]float64, len(a.sections)+1)

	for _, sec := range a.sections {
		keywordScore := keywordPreScore(lowerText, sec.Keywords)
		semanticScore := a.semanticScore(ctx, sec.Key, f.Vector)
		scores[sec.Key] = alphaKeywordWeight*keywordScore + (1-alphaKeywordWeight)*semanticScore
	}
	scores[taxonomy.SectionUnclassified] = 0
	return scores
}

func (a *Agent) semanticScore(ctx context.Context, sectionKey string, vector []float32) float64 {
	if a.store == nil || len(vector) == 0 {
		return 0
	}
	matches, err := a.store.Query(ctx, seedCollection, vector, 1, map[string]string{"section": sectionKey})
	if err != nil || len(matches) == 0 {
		return 0
	}
	return matches[0].Score
}

// keywordPreScore is the normalized count of taxonomy keywords present in text.
func keywordPreScore(lowerText string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lowerText, strings.ToLower(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// argmaxSoftmax picks the highest-scoring section and its softmax
// confidence at softmaxTemperature; falls back to "unclassified" when the
// winning confidence is below unclassifiedThreshold.
func argmaxSoftmax(scores map[string]float64) (string, float64) {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var maxScore = math.Inf(-1)
	for _, k := range keys {
		if scores[k] > maxScore {
			maxScore = scores[k]
		}
	}

	var sumExp float64
	exps := make(map[string]float64, len(keys))
	for _, k := range keys {
		e := math.Exp((scores[k] - maxScore) / softmaxTemperature)
		exps[k] = e
		sumExp += e
	}

	best := keys[0]
	bestConf := 0.0
	for _, k := range keys {
		conf := exps[k] / sumExp
		if conf > bestConf {
			bestConf = conf
			best = k
		}
	}

	if best == taxonomy.SectionUnclassified || bestConf < unclassifiedThreshold {
		return taxonomy.SectionUnclassified, bestConf
	}
	return best, bestConf
}

func (a *Agent) sectionByKey(key string) taxonomy.Section {
	for _, s := range a.sections {
		if s.Key == key {
			return s
		}
	}
	return taxonomy.Section{}
}

// extractKeywords returns the section's configured keywords that actually
// appear in text, used to populate TopKeywords.
func extractKeywords(text string, sec taxonomy.Section) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range sec.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

func mergeTopKeywords(existing, found []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, k := range existing {
		seen[k] = true
	}
	for _, k := range found {
		if !seen[k] {
			existing = append(existing, k)
			seen[k] = true
		}
	}
	if len(existing) > 3 {
		existing = existing[:3]
	}
	return existing
}

func runningMean(mean float64, n int, next float64) float64 {
	if n <= 1 {
		return next
	}
	return mean + (next-mean)/float64(n)
}

func meanVector(vecs [][]float32, dim int) []float32 {
	out := make([]float32, dim)
	if len(vecs) == 0 {
		return out
	}
	for _, v := range vecs {
		for i, x := range v {
			if i < dim {
				out[i] += x
			}
		}
	}
	for i := range out {
		out[i] /= float32(len(vecs))
	}
	return out
}
