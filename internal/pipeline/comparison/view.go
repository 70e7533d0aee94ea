package comparison

import (
	"context"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/pkg/errors"
)

// BuildView assembles one document's comparison view from its persisted
// validation, risk, and RUC records plus section assignment. Shared by the
// HTTP comparison handler and the async comparison.graph.build worker stage
// so both surfaces derive a DocumentView identically.
func BuildView(ctx context.Context, repo document.Repository, docID string, level document.AnalysisLevel) (DocumentView, error) {
	runID := document.RunID(docID, level)
	view := DocumentView{DocID: docID, RunID: runID}

	artifact, err := repo.GetArtifact(ctx, runID)
	if err != nil {
		return view, err
	}
	if artifact == nil {
		return view, errors.NotFound("no analysis artifact found for " + runID)
	}

	if rec, err := repo.GetValidationRecord(ctx, runID); err != nil {
		return view, err
	} else if rec != nil {
		view.OverallScore = rec.OverallScore
		view.OverallScoreOK = true
		view.ComplianceLevel = string(rec.Level)
		view.ValidationLevel = string(rec.Level)
	}

	if assessment, err := repo.GetRiskAssessment(ctx, runID); err != nil {
		return view, err
	} else if assessment != nil {
		view.RiskScore = assessment.TotalScore
		view.RiskScoreOK = true
		view.RiskLevel = string(assessment.OverallLevel)
	}

	if rucRec, err := repo.GetRUCRecord(ctx, runID); err != nil {
		return view, err
	} else if rucRec != nil {
		view.RUCScore = rucRec.Score
		view.RUCScoreOK = true
	}

	if assignment, err := repo.GetSectionAssignment(ctx, runID); err != nil {
		return view, err
	} else if assignment != nil {
		view.Sections = make(map[string][]string, len(assignment.Sections))
		for key, stats := range assignment.Sections {
			view.Sections[key] = stats.TopKeywords
		}
	}

	return view, nil
}
