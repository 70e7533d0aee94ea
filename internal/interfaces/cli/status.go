package cli

import (
	"github.com/spf13/cobra"
)

// NewStatusCmd builds the `tenderctl status` subcommand.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <runID>",
		Short: "Show the stage and progress of a previously submitted run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			orch, err := buildOrchestrator(cmd.Context(), cliCtx)
			if err != nil {
				return err
			}

			status, err := orch.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return errUsage(err.Error())
			}

			return printResult(cmd, cliCtx, status)
		},
	}

	return cmd
}
