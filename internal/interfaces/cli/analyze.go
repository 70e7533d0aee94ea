package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/pipeline/extractor"
)

// NewAnalyzeCmd builds the `tenderctl analyze` subcommand.
func NewAnalyzeCmd() *cobra.Command {
	var (
		docType      string
		level        string
		forceRebuild bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run the full analysis pipeline over a local document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return errUsage("read input file: " + err.Error())
			}
			if docType == "" {
				return errUsage("--doc-type is required")
			}

			analysisLevel := document.AnalysisLevel(level)
			if analysisLevel == "" {
				analysisLevel = document.LevelBasic
			}
			if analysisLevel != document.LevelBasic && analysisLevel != document.LevelComprehensive {
				return errUsage("--level must be basic or comprehensive")
			}

			orch, err := buildOrchestrator(cmd.Context(), cliCtx)
			if err != nil {
				return err
			}

			doc := &document.Document{
				DocID:        fingerprintDoc(docType, raw),
				Path:         args[0],
				DeclaredType: docType,
				DetectedType: docType,
			}
			if err := cliCtx.Repo.SaveDocument(cmd.Context(), doc); err != nil {
				return dependencyError{err}
			}

			artifact, err := orch.Run(cmd.Context(), doc, raw, extractor.TypeTXT, docType, analysisLevel, forceRebuild)
			if err != nil {
				return analysisError{err}
			}

			return printResult(cmd, cliCtx, artifact)
		},
	}

	cmd.Flags().StringVar(&docType, "doc-type", "", "declared document type (e.g. bases_tecnicas, tdr)")
	cmd.Flags().StringVar(&level, "level", string(document.LevelBasic), "analysis level (basic, comprehensive)")
	cmd.Flags().BoolVar(&forceRebuild, "force-rebuild", false, "ignore any cached artifact and re-run every stage")

	return cmd
}

// errUsage wraps a usage-related failure so Execute maps it to ExitUsageError.
func errUsage(msg string) error {
	return usageError{msg}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// analysisError tags pipeline-stage failures so Execute maps them to
// ExitAnalysisFailed rather than falling through to the generic default.
type analysisError struct{ err error }

func (e analysisError) Error() string { return e.err.Error() }
func (e analysisError) Unwrap() error { return e.err }
