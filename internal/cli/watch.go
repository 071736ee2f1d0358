package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/ionbuild/internal/bundle"
	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/logging"
	"github.com/hupe1980/ionbuild/internal/watch"
)

type watchOptions struct {
	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build the app and rebuild when sources change",
		Long: `Watch starts the development server, compiles the stylesheet, copies
the fonts and then bundles the app continuously.

Script sources are rebuilt by the bundler as they change. Sass sources
matching styles.watch (default www/app/**/*.scss) recompile the
stylesheet. Statistics are printed after every bundle pass. The command
runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	registerServerFlags(cmd)
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 100*time.Millisecond, "quiet period before recompiling styles")

	return cmd
}

func runWatch(cmd *cobra.Command, opts *watchOptions) error {
	ctx, stop := interruptContext(cmd)
	defer stop()

	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)
	srv := newServer(cfg, logger)

	pipeline, closeStyles, err := newStylePipeline(cmd, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeStyles()

	// Stylesheet and fonts are ready before the first bundle pass.
	pipeline.Run(ctx)

	if _, err := copyFonts(ctx, cfg, logger); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return serveHTTP(gctx, srv) })

	g.Go(func() error {
		watchOpts := watch.DefaultOptions()
		watchOpts.Name = "sass"
		watchOpts.Patterns = cfg.Styles.Watch
		watchOpts.Debounce = opts.debounce
		watchOpts.Logger = logger
		watchOpts.Out = cmd.ErrOrStderr()

		return watch.Run(gctx, watchOpts, func(runCtx context.Context, _ string) error {
			res, ok := pipeline.Run(runCtx)
			if !ok {
				return errors.New("stylesheet not written")
			}

			srv.Reload(res.Output)

			return nil
		})
	})

	g.Go(func() error {
		orch := newOrchestrator(cmd, cfg, logger, bundle.WithPassHook(func(p bundle.Pass) {
			if !p.Failed() {
				srv.Reload("bundle")
			}
		}))

		return orch.Compile(gctx, true, func() {
			logger.Info("first bundle pass complete, watching for changes",
				slog.String("url", srv.URL()))
		})
	})

	return g.Wait()
}
