package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/pipeline/comparison"
)

// NewCompareCmd builds the `tenderctl compare` subcommand.
func NewCompareCmd() *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "compare <docID> <docID> [docID...]",
		Short: "Compare two or more already-analyzed documents at the same analysis level",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			analysisLevel := document.AnalysisLevel(level)
			if analysisLevel == "" {
				analysisLevel = document.LevelBasic
			}

			views := make([]comparison.DocumentView, 0, len(args))
			for _, docID := range args {
				view, err := buildDocumentView(cmd, cliCtx, docID, analysisLevel)
				if err != nil {
					return err
				}
				views = append(views, view)
			}

			comparisonID := compareFingerprint(args, analysisLevel)
			agent := comparison.New()
			cmp, err := agent.Compare(comparisonID, analysisLevel, views)
			if err != nil {
				return analysisError{err}
			}

			if err := cliCtx.Repo.SaveComparison(cmd.Context(), cmp); err != nil {
				return dependencyError{err}
			}

			return printResult(cmd, cliCtx, cmp)
		},
	}

	cmd.Flags().StringVar(&level, "level", string(document.LevelBasic), "analysis level (basic, comprehensive)")

	return cmd
}

func buildDocumentView(cmd *cobra.Command, cliCtx *CLIContext, docID string, level document.AnalysisLevel) (comparison.DocumentView, error) {
	runID := document.RunID(docID, level)
	view := comparison.DocumentView{DocID: docID, RunID: runID}

	artifact, err := cliCtx.Repo.GetArtifact(cmd.Context(), runID)
	if err != nil {
		return view, dependencyError{err}
	}
	if artifact == nil {
		return view, errUsage("no analysis artifact found for " + runID)
	}

	if rec, err := cliCtx.Repo.GetValidationRecord(cmd.Context(), runID); err != nil {
		return view, dependencyError{err}
	} else if rec != nil {
		view.OverallScore = rec.OverallScore
		view.OverallScoreOK = true
		view.ComplianceLevel = string(rec.Level)
		view.ValidationLevel = string(rec.Level)
	}

	if assessment, err := cliCtx.Repo.GetRiskAssessment(cmd.Context(), runID); err != nil {
		return view, dependencyError{err}
	} else if assessment != nil {
		view.RiskScore = assessment.TotalScore
		view.RiskScoreOK = true
		view.RiskLevel = string(assessment.OverallLevel)
	}

	if rucRec, err := cliCtx.Repo.GetRUCRecord(cmd.Context(), runID); err != nil {
		return view, dependencyError{err}
	} else if rucRec != nil {
		view.RUCScore = rucRec.Score
		view.RUCScoreOK = true
	}

	if assignment, err := cliCtx.Repo.GetSectionAssignment(cmd.Context(), runID); err != nil {
		return view, dependencyError{err}
	} else if assignment != nil {
		view.Sections = make(map[string][]string, len(assignment.Sections))
		for key, stats := range assignment.Sections {
			view.Sections[key] = stats.TopKeywords
		}
	}

	return view, nil
}

func compareFingerprint(docIDs []string, level document.AnalysisLevel) string {
	sorted := make([]string, len(docIDs))
	copy(sorted, docIDs)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, ",") + "|" + string(level)))
	return hex.EncodeToString(sum[:])
}
