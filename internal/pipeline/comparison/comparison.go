// Package comparison implements the comparison agent: aligning N analysis
// artifacts for the same analysis level into a per-dimension differential.
package comparison

import (
	"sort"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/pkg/errors"
)

const minDocsForComparison = 2

// numericDimensions are read off an artifact's validation/risk summary data
// (carried in StageResult.Data by the orchestrator) and compared by
// min/max/mean/rank.
var numericDimensions = []string{"overall_score", "risk_score", "ruc_score"}

// categoricalDimensions are compared by mode across participants.
var categoricalDimensions = []string{"compliance_level", "risk_level", "validation_level"}

// DocumentView is the flattened set of summary fields the comparison agent
// reads from one participant's artifact.
type DocumentView struct {
	DocID            string
	RunID            string
	OverallScore     float64
	OverallScoreOK   bool
	RiskScore        float64
	RiskScoreOK      bool
	RUCScore         float64
	RUCScoreOK       bool
	ComplianceLevel  string
	RiskLevel        string
	ValidationLevel  string
	Sections         map[string][]string // sectionKey -> keywords present
}

// Agent builds Comparison records from a set of DocumentViews.
type Agent struct{}

// New constructs a comparison Agent.
func New() *Agent {
	return &Agent{}
}

// Compare aligns views (all must share the same analysis level, enforced by
// the caller) into a Comparison. Returns CodeComparisonInsufficientDocs if
// fewer than two views are given.
func (a *Agent) Compare(comparisonID string, level document.AnalysisLevel, views []DocumentView) (*document.Comparison, error) {
	if len(views) < minDocsForComparison {
		return nil, errors.New(errors.CodeComparisonInsufficientDocs, "comparison requires at least two documents")
	}

	perDoc := make(map[string]string, len(views))
	for _, v := range views {
		perDoc[v.DocID] = v.RunID
	}

	diffMatrix := make(map[string]document.DimensionDiff, len(numericDimensions)+len(categoricalDimensions)+len(allSectionKeys(views)))

	for _, dim := range numericDimensions {
		diffMatrix[dim] = a.compareNumeric(dim, views)
	}
	for _, dim := range categoricalDimensions {
		diffMatrix[dim] = a.compareCategorical(dim, views)
	}
	for _, sectionKey := range allSectionKeys(views) {
		diffMatrix[sectionKey] = a.compareSection(sectionKey, views)
	}

	return &document.Comparison{
		ComparisonID:  comparisonID,
		PerDoc:        perDoc,
		DiffMatrix:    diffMatrix,
		AnalysisLevel: level,
	}, nil
}

func (a *Agent) compareNumeric(dim string, views []DocumentView) document.DimensionDiff {
	var values []document.DimensionValue
	var present []float64

	for _, v := range views {
		val, ok := numericValue(dim, v)
		values = append(values, document.DimensionValue{DocID: v.DocID, Numeric: val, Available: ok})
		if ok {
			present = append(present, val)
		}
	}

	diff := document.DimensionDiff{Dimension: dim, PerDoc: values}
	if len(present) == 0 {
		return diff
	}

	min, max, sum := present[0], present[0], 0.0
	for _, p := range present {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
		sum += p
	}
	diff.Min = min
	diff.Max = max
	diff.Mean = sum / float64(len(present))
	diff.Rank = rankByNumeric(values)
	return diff
}

func (a *Agent) compareCategorical(dim string, views []DocumentView) document.DimensionDiff {
	var values []document.DimensionValue
	counts := make(map[string]int)

	for _, v := range views {
		cat, ok := categoricalValue(dim, v)
		values = append(values, document.DimensionValue{DocID: v.DocID, Category: cat, Available: ok})
		if ok {
			counts[cat]++
		}
	}

	return document.DimensionDiff{
		Dimension: dim,
		Mode:      mode(counts),
		PerDoc:    values,
	}
}

func (a *Agent) compareSection(sectionKey string, views []DocumentView) document.DimensionDiff {
	var values []document.DimensionValue
	unionKeywords := make(map[string]bool)

	for _, v := range views {
		keywords, ok := v.Sections[sectionKey]
		val := document.DimensionValue{DocID: v.DocID, Available: ok}
		if ok {
			val.Category = joinSorted(keywords)
			for _, kw := range keywords {
				unionKeywords[kw] = true
			}
		}
		values = append(values, val)
	}

	return document.DimensionDiff{
		Dimension: sectionKey,
		PerDoc:    values,
		Mode:      joinSorted(keysOf(unionKeywords)),
	}
}

func numericValue(dim string, v DocumentView) (float64, bool) {
	switch dim {
	case "overall_score":
		return v.OverallScore, v.OverallScoreOK
	case "risk_score":
		return v.RiskScore, v.RiskScoreOK
	case "ruc_score":
		return v.RUCScore, v.RUCScoreOK
	default:
		return 0, false
	}
}

func categoricalValue(dim string, v DocumentView) (string, bool) {
	switch dim {
	case "compliance_level":
		return v.ComplianceLevel, v.ComplianceLevel != ""
	case "risk_level":
		return v.RiskLevel, v.RiskLevel != ""
	case "validation_level":
		return v.ValidationLevel, v.ValidationLevel != ""
	default:
		return "", false
	}
}

// rankByNumeric orders docIDs by descending numeric value, ties broken by
// ascending docID; unavailable values sort last.
func rankByNumeric(values []document.DimensionValue) []string {
	ranked := make([]document.DimensionValue, len(values))
	copy(ranked, values)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Available != ranked[j].Available {
			return ranked[i].Available
		}
		if ranked[i].Numeric != ranked[j].Numeric {
			return ranked[i].Numeric > ranked[j].Numeric
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.DocID
	}
	return ids
}

func mode(counts map[string]int) string {
	var best string
	bestCount := -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			bestCount = counts[k]
			best = k
		}
	}
	return best
}

func allSectionKeys(views []DocumentView) []string {
	set := make(map[string]bool)
	for _, v := range views {
		for k := range v.Sections {
			set[k] = true
		}
	}
	return joinKeysSorted(set)
}

func joinKeysSorted(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func keysOf(set map[string]bool) []string {
	return joinKeysSorted(set)
}

func joinSorted(items []string) string {
	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)
	out := ""
	for i, s := range sorted {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
