// Package cli implements tenderctl: a standalone command-line adapter over
// the analysis pipeline for operators running without the HTTP service —
// local document analysis, run-status polling, comparison, and report
// assembly, all persisted to a JSON-file repository rooted at --data-dir.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/tender-intel/internal/config"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/infrastructure/storage/localfs"
	"github.com/turtacn/tender-intel/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// Exit codes per the CLI contract: 0 success, 2 usage error, 3 configuration
// error, 4 analysis failed, 5 dependency unavailable.
const (
	ExitOK                  = 0
	ExitUsageError          = 2
	ExitConfigError         = 3
	ExitAnalysisFailed      = 4
	ExitDependencyUnavailable = 5
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	DataDir    string
	LogLevel   string
	Output     string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config *config.Config
	Logger logging.Logger
	Repo   *localfs.Repository
	Output string
}

// NewRootCommand creates the root cobra command with all global flags and
// subcommands mounted.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "tenderctl",
		Short:   "tenderctl — standalone tender document analysis CLI",
		Long:    "tenderctl runs the tender document analysis pipeline (extraction,\nclassification, validation, risk scoring, RUC checking, comparison,\nand reporting) against a local JSON repository, without the HTTP service.",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path")
	pf.StringVar(&opts.DataDir, "data-dir", "./tenderctl-data", "local repository root")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.Output, "output", "o", "json", "output format (json, text)")

	cmd.AddCommand(
		NewAnalyzeCmd(),
		NewStatusCmd(),
		NewCompareCmd(),
		NewReportCmd(),
	)

	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := initConfig(opts)
	if err != nil {
		return configError{err}
	}

	logger, err := initLogger(opts)
	if err != nil {
		return configError{err}
	}

	repo, err := localfs.New(opts.DataDir)
	if err != nil {
		return dependencyError{err}
	}

	cliCtx := &CLIContext{Config: cfg, Logger: logger, Repo: repo, Output: opts.Output}
	ctx := contextWithCLI(cmd.Context(), cliCtx)
	cmd.SetContext(ctx)

	return nil
}

func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.LoadFromFile(opts.ConfigPath)
	}
	return config.NewDefaultConfig(), nil
}

func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := logging.LevelInfo
	switch strings.ToLower(opts.LogLevel) {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.InvalidParam("command context is nil")
	}
	cliCtx, ok := cliFromContext(ctx)
	if !ok || cliCtx == nil {
		return nil, errors.InvalidParam("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// configError and dependencyError tag PersistentPreRunE failures with the
// exit code Execute should map them to, since cobra only ever hands back a
// bare error at that layer.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

type dependencyError struct{ err error }

func (e dependencyError) Error() string { return e.err.Error() }
func (e dependencyError) Unwrap() error { return e.err }

// Execute is the main entry point: it runs the command tree and returns the
// process exit code the CLI contract specifies.
func Execute() int {
	rootCmd := NewRootCommand()
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	var cfgErr configError
	if asConfigError(err, &cfgErr) {
		return ExitConfigError
	}
	var depErr dependencyError
	if asDependencyError(err, &depErr) {
		return ExitDependencyUnavailable
	}
	if _, ok := err.(usageError); ok {
		return ExitUsageError
	}
	if _, ok := err.(analysisError); ok {
		return ExitAnalysisFailed
	}
	if errors.IsValidation(err) {
		return ExitUsageError
	}
	switch errors.GetCode(err) {
	case errors.CodeStorageError, errors.CodeEmbeddingUnavailable, errors.CodeComparisonStageUnavailable:
		return ExitDependencyUnavailable
	}
	return ExitAnalysisFailed
}

func asConfigError(err error, target *configError) bool {
	if ce, ok := err.(configError); ok {
		*target = ce
		return true
	}
	return false
}

func asDependencyError(err error, target *dependencyError) bool {
	if de, ok := err.(dependencyError); ok {
		*target = de
		return true
	}
	return false
}
