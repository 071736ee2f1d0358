package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/ionbuild/internal/bundle"
	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/logging"
)

type buildOptions struct {
	minify      bool
	failOnError bool
}

func newBuildCommand() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle the app once",
		Long: `Build runs a single bundling pass over the configured entry points
and prints the build statistics.

Compilation errors are part of the statistics and do not change the
exit status. Pass --fail-on-error to exit with code 1 when the pass
reported errors, for example in CI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.minify, "minify", false, "minify the bundle (overrides bundle.minify)")
	cmd.Flags().BoolVar(&opts.failOnError, "fail-on-error", false, "exit with code 1 when the bundle has errors")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions) error {
	ctx := cmd.Context()
	cfg := *config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	if cmd.Flags().Changed("minify") {
		cfg.Bundle.Minify = opts.minify
	}

	var errCount int

	orch := newOrchestrator(cmd, &cfg, logger, bundle.WithPassHook(func(p bundle.Pass) {
		errCount = len(p.Errors)
	}))

	if err := orch.Compile(ctx, false, logging.StartTask(logger, "build")); err != nil {
		return err
	}

	if errCount > 0 && opts.failOnError {
		return &ExitError{Code: 1, Err: fmt.Errorf("bundle failed with %d error(s)", errCount)}
	}

	return nil
}
