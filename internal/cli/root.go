// Package cli implements the cobra command tree for ionbuild.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/logging"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return 1
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "ionbuild",
		Short: "Build, watch and serve a www/ browser application",
		Long: `ionbuild builds a browser application that lives under www/.

It bundles the scripts with esbuild, compiles the Sass entry point with
Dart Sass and adds vendor prefixes for the configured browsers, copies
the framework fonts, and serves the result on a local development
server. "ionbuild watch" does all of it and keeps rebuilding as sources
change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
	}

	// Global persistent flags.
	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .ionbuild.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")

	// Flag parsing errors return exit code 2.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	// Register subcommands.
	cmd.AddCommand(
		newWatchCommand(),
		newBuildCommand(),
		newServeCommand(),
		newSassCommand(),
		newFontsCommand(),
		newCleanCommand(),
		newConfigCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	return cmd
}
