package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func contextWithCLI(ctx context.Context, c *CLIContext) context.Context {
	return context.WithValue(ctx, cliContextKey{}, c)
}

func cliFromContext(ctx context.Context) (*CLIContext, bool) {
	c, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	return c, ok
}

// printResult writes data to stdout in the CLIContext's configured format.
func printResult(cmd *cobra.Command, cliCtx *CLIContext, data interface{}) error {
	if cliCtx != nil && cliCtx.Output == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", data)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
