package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/ionbuild/internal/assets"
	"github.com/hupe1980/ionbuild/internal/browsers"
	"github.com/hupe1980/ionbuild/internal/bundle"
	"github.com/hupe1980/ionbuild/internal/config"
	"github.com/hupe1980/ionbuild/internal/output"
	"github.com/hupe1980/ionbuild/internal/server"
	"github.com/hupe1980/ionbuild/internal/styles"
	"github.com/hupe1980/ionbuild/internal/term"
)

// Collaborator constructors, replaced in tests.
var (
	newBundler bundle.Factory = bundle.NewESBuild

	newTranspiler = func(binary string) (styles.Transpiler, error) {
		t, err := styles.NewDartSass(binary)
		if err != nil {
			return nil, err
		}

		return t, nil
	}

	serveHTTP = func(ctx context.Context, srv *server.Server) error {
		return srv.ListenAndServe(ctx)
	}
)

// interruptContext cancels on SIGINT/SIGTERM; long-running commands have no
// other stop operation.
func interruptContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func bundleConfig(cfg *config.Config) bundle.Config {
	return bundle.Config{
		EntryPoints: cfg.Bundle.EntryPoints,
		Outdir:      cfg.Bundle.Outdir,
		Sourcemap:   cfg.Bundle.Sourcemap,
		Minify:      cfg.Bundle.Minify,
		Define:      cfg.Bundle.Define,
	}
}

func newOrchestrator(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, opts ...bundle.Option) *bundle.Orchestrator {
	out := cmd.OutOrStdout()
	stats := bundle.NewStatsPrinter(out, bundle.StatsOptions{
		Color:   term.ColorEnabled(out, cfg.NoColor),
		Modules: cfg.Bundle.Modules,
		Exclude: cfg.Bundle.Exclude,
	})

	opts = append([]bundle.Option{
		bundle.WithFactory(newBundler),
		bundle.WithStats(stats),
		bundle.WithLogger(logger),
	}, opts...)

	return bundle.New(bundleConfig(cfg), opts...)
}

// newStylePipeline starts the Sass compiler and returns a pipeline plus the
// function that stops the compiler. w may be nil to write to the outdir.
func newStylePipeline(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, w output.Writer) (*styles.Pipeline, func(), error) {
	targets, err := browsers.Resolve(cfg.Styles.Browsers)
	if err != nil {
		return nil, nil, &ExitError{Code: 2, Err: fmt.Errorf("resolving browsers: %w", err)}
	}

	for _, q := range targets.Ignored {
		logger.Debug("ignoring browser query", slog.String("query", q))
	}

	t, err := newTranspiler(cfg.Styles.SassBinary)
	if err != nil {
		return nil, nil, err
	}

	p := styles.NewPipeline(t, styles.Options{
		Entry:        cfg.Styles.Entry,
		IncludePaths: cfg.Styles.IncludePaths,
		Outdir:       cfg.Styles.Outdir,
		Engines:      targets.Engines,
		Writer:       w,
		Logger:       logger,
		ErrOut:       cmd.ErrOrStderr(),
	})

	closeFn := func() {
		if err := t.Close(); err != nil {
			logger.Debug("stopping sass compiler", slog.String("error", err.Error()))
		}
	}

	return p, closeFn, nil
}

func copyFonts(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]string, error) {
	copied, err := assets.Copy(ctx, cfg.Fonts.Patterns, cfg.Fonts.Outdir)
	if err != nil {
		return nil, fmt.Errorf("copying fonts: %w", err)
	}

	logger.Info("fonts copied", slog.Int("files", len(copied)), slog.String("outdir", cfg.Fonts.Outdir))

	return copied, nil
}

func newServer(cfg *config.Config, logger *slog.Logger) *server.Server {
	return server.New(server.Options{
		Root:       cfg.Root,
		Port:       cfg.Port,
		LiveReload: cfg.LiveReload,
		Logger:     logger,
	})
}
