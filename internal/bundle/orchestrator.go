package bundle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Orchestrator unifies one-shot and continuous compilation behind a single
// entry point.
type Orchestrator struct {
	cfg        Config
	newBundler Factory
	stats      *StatsPrinter
	onPass     PassFunc
	logger     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFactory replaces the default esbuild factory.
func WithFactory(f Factory) Option {
	return func(o *Orchestrator) { o.newBundler = f }
}

// WithStats sets the printer used after every pass.
func WithStats(p *StatsPrinter) Option {
	return func(o *Orchestrator) { o.stats = p }
}

// WithPassHook registers a function that observes every pass after its
// statistics have been printed.
func WithPassHook(fn PassFunc) Option {
	return func(o *Orchestrator) { o.onPass = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New returns an Orchestrator for cfg. By default it uses esbuild and prints
// uncolored statistics to stdout.
func New(cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		newBundler: NewESBuild,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.stats == nil {
		o.stats = NewStatsPrinter(os.Stdout, StatsOptions{})
	}

	return o
}

// Compile builds a bundler and runs it. With watch false the bundler runs a
// single pass and Compile returns afterwards. With watch true the bundler
// recompiles on every source change until ctx is done.
//
// Statistics are printed after every pass. onFirstComplete, if non-nil, is
// called exactly once per Compile call, after the first pass, whether or not
// that pass reported errors. Compile only fails when the bundler cannot be
// created or started; compilation errors are part of the statistics.
func (o *Orchestrator) Compile(ctx context.Context, watch bool, onFirstComplete func()) error {
	b, err := o.newBundler(o.cfg)
	if err != nil {
		return fmt.Errorf("creating bundler: %w", err)
	}

	var (
		mu     sync.Mutex
		passes int
		first  sync.Once
	)

	handle := func(p Pass) {
		mu.Lock()
		passes++
		p.Number = passes
		o.stats.Print(p)
		mu.Unlock()

		o.logger.Debug("bundle pass complete",
			slog.Int("pass", p.Number),
			slog.Int("errors", len(p.Errors)),
			slog.Int("warnings", len(p.Warnings)),
		)

		if o.onPass != nil {
			o.onPass(p)
		}

		if onFirstComplete != nil {
			first.Do(onFirstComplete)
		}
	}

	if watch {
		o.logger.Debug("starting continuous compilation", slog.Any("entryPoints", o.cfg.EntryPoints))

		if err := b.Watch(ctx, handle); err != nil {
			return fmt.Errorf("watching bundle: %w", err)
		}

		return nil
	}

	if err := b.Run(ctx, handle); err != nil {
		return fmt.Errorf("running bundle: %w", err)
	}

	return nil
}

// Discard is a StatsPrinter that writes nowhere.
func Discard() *StatsPrinter {
	return NewStatsPrinter(io.Discard, StatsOptions{})
}
