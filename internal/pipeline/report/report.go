// Package report assembles a render-ready summary from an analysis
// artifact or comparison record. It performs no I/O and is agnostic to the
// eventual output format (JSON, HTML, PDF); format-specific emitters
// consume the Bundle this package produces.
package report

import (
	"fmt"
	"sort"

	"github.com/turtacn/tender-intel/internal/domain/document"
)

// StageSummary is one stage's render-ready breakdown.
type StageSummary struct {
	Stage  string   `json:"stage"`
	Status string   `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

// MetricRow is one labeled numeric or textual metric for display.
type MetricRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Bundle is the assembled, render-ready report for a single analysis run.
type Bundle struct {
	RunID             string         `json:"run_id"`
	DocID             string         `json:"doc_id"`
	ExecutiveSummary  string         `json:"executive_summary"`
	OverallStatus     string         `json:"overall_status"`
	Stages            []StageSummary `json:"stages"`
	Metrics           []MetricRow    `json:"metrics"`
	KeyFindings       []string       `json:"key_findings"`
	Recommendations   []string       `json:"recommendations"`
}

// ComparisonBundle is the assembled, render-ready report for a comparison
// across multiple documents.
type ComparisonBundle struct {
	ComparisonID string      `json:"comparison_id"`
	DocIDs       []string    `json:"doc_ids"`
	Metrics      []MetricRow `json:"metrics"`
}

// Assembler builds Bundles from pipeline output. It holds no state.
type Assembler struct{}

// New constructs a report Assembler.
func New() *Assembler {
	return &Assembler{}
}

// AssembleArtifact transforms a single-document analysis artifact into a
// render-ready Bundle.
func (a *Assembler) AssembleArtifact(artifact *document.AnalysisArtifact) *Bundle {
	stages := make([]StageSummary, 0, len(artifact.StageResults))
	stageNames := make([]string, 0, len(artifact.StageResults))
	for name := range artifact.StageResults {
		stageNames = append(stageNames, name)
	}
	sort.Strings(stageNames)
	for _, name := range stageNames {
		res := artifact.StageResults[name]
		stages = append(stages, StageSummary{
			Stage:  name,
			Status: string(res.Status),
			Errors: res.Errors,
		})
	}

	return &Bundle{
		RunID:            artifact.RunID,
		DocID:            artifact.DocID,
		ExecutiveSummary: summaryLine(artifact),
		OverallStatus:    string(artifact.OverallStatus),
		Stages:           stages,
		Metrics:          metricsFor(artifact),
		KeyFindings:      artifact.KeyFindings,
		Recommendations:  artifact.Recommendations,
	}
}

// AssembleComparison transforms a comparison record into a render-ready
// ComparisonBundle, flattening each dimension's summary statistic into a
// single metric row.
func (a *Assembler) AssembleComparison(cmp *document.Comparison) *ComparisonBundle {
	docIDs := make([]string, 0, len(cmp.PerDoc))
	for docID := range cmp.PerDoc {
		docIDs = append(docIDs, docID)
	}
	sort.Strings(docIDs)

	dims := make([]string, 0, len(cmp.DiffMatrix))
	for dim := range cmp.DiffMatrix {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	metrics := make([]MetricRow, 0, len(dims))
	for _, dim := range dims {
		diff := cmp.DiffMatrix[dim]
		var value string
		switch {
		case diff.Mode != "":
			value = diff.Mode
		case len(diff.Rank) > 0:
			value = fmt.Sprintf("min=%.2f max=%.2f mean=%.2f", diff.Min, diff.Max, diff.Mean)
		default:
			value = "n/a"
		}
		metrics = append(metrics, MetricRow{Label: dim, Value: value})
	}

	return &ComparisonBundle{
		ComparisonID: cmp.ComparisonID,
		DocIDs:       docIDs,
		Metrics:      metrics,
	}
}

func summaryLine(artifact *document.AnalysisArtifact) string {
	return fmt.Sprintf("Run %s finished %s for document %s", artifact.RunID, artifact.OverallStatus, artifact.DocID)
}

func metricsFor(artifact *document.AnalysisArtifact) []MetricRow {
	var metrics []MetricRow
	for _, name := range sortedStageNames(artifact) {
		res := artifact.StageResults[name]
		metrics = append(metrics, MetricRow{Label: name + "_status", Value: string(res.Status)})
	}
	return metrics
}

func sortedStageNames(artifact *document.AnalysisArtifact) []string {
	names := make([]string, 0, len(artifact.StageResults))
	for name := range artifact.StageResults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
