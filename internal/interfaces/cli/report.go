package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/tender-intel/internal/pipeline/report"
)

// NewReportCmd builds the `tenderctl report` subcommand.
func NewReportCmd() *cobra.Command {
	var comparisonMode bool

	cmd := &cobra.Command{
		Use:   "report <runID|comparisonID>",
		Short: "Assemble a render-ready report bundle for a run or a comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			assembler := report.New()

			if comparisonMode {
				cmp, err := cliCtx.Repo.GetComparison(cmd.Context(), args[0])
				if err != nil {
					return dependencyError{err}
				}
				if cmp == nil {
					return errUsage("no comparison found for " + args[0])
				}
				return printResult(cmd, cliCtx, assembler.AssembleComparison(cmp))
			}

			artifact, err := cliCtx.Repo.GetArtifact(cmd.Context(), args[0])
			if err != nil {
				return dependencyError{err}
			}
			if artifact == nil {
				return errUsage("no analysis artifact found for " + args[0])
			}
			return printResult(cmd, cliCtx, assembler.AssembleArtifact(artifact))
		},
	}

	cmd.Flags().BoolVar(&comparisonMode, "comparison", false, "treat the argument as a comparisonID rather than a runID")

	return cmd
}
