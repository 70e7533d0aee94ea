// Command tenderctl is the standalone CLI adapter over the analysis
// pipeline, for operators running without the HTTP service.
package main

import (
	"os"

	"github.com/turtacn/tender-intel/internal/interfaces/cli"
)

func main() {
	os.Exit(cli.Execute())
}
