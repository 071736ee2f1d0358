package styles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/hupe1980/ionbuild/internal/output"
)

// Options configures a Pipeline.
type Options struct {
	// Entry is the Sass entry point, e.g. www/app/app.scss.
	Entry string

	// IncludePaths are passed to the Sass compiler.
	IncludePaths []string

	// Outdir receives <entry-basename>.css.
	Outdir string

	// Engines drive vendor prefixing.
	Engines []api.Engine

	// Writer overrides the destination; nil writes to Outdir.
	Writer output.Writer

	Logger *slog.Logger

	// ErrOut receives compilation errors reported by Run.
	ErrOut io.Writer
}

// Result describes a successful pipeline pass.
type Result struct {
	Output   string
	Bytes    int
	Warnings []api.Message
}

// Pipeline compiles, prefixes and writes one stylesheet.
type Pipeline struct {
	transpiler Transpiler
	prefixer   *Prefixer
	opts       Options
}

// NewPipeline returns a Pipeline using t for Sass compilation.
func NewPipeline(t Transpiler, opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}

	return &Pipeline{
		transpiler: t,
		prefixer:   NewPrefixer(opts.Engines),
		opts:       opts,
	}
}

// OutputPath returns the stylesheet path derived from the entry name.
func (p *Pipeline) OutputPath() string {
	base := strings.TrimSuffix(filepath.Base(p.opts.Entry), filepath.Ext(p.opts.Entry))
	return filepath.Join(p.opts.Outdir, base+".css")
}

// Build runs the pipeline and returns the first error encountered.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	src, err := os.ReadFile(p.opts.Entry)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p.opts.Entry, err)
	}

	css, err := p.transpiler.Transpile(ctx, Request{
		Source:       string(src),
		Path:         p.opts.Entry,
		IncludePaths: p.opts.IncludePaths,
	})
	if err != nil {
		return nil, err
	}

	outPath := p.OutputPath()

	prefixed, warnings, err := p.prefixer.Process(css, filepath.Base(outPath))
	if err != nil {
		return nil, err
	}

	w := p.opts.Writer
	if w == nil {
		w = output.NewFileWriter(outPath, output.WithLogger(p.opts.Logger))
	}

	if err := w.Write([]byte(prefixed)); err != nil {
		return nil, err
	}

	return &Result{Output: outPath, Bytes: len(prefixed), Warnings: warnings}, nil
}

// Run is Build with task semantics: a failure is printed to ErrOut and
// logged, and the pass ends without an error so that a surrounding watch
// loop or task sequence keeps going. It reports whether the pass succeeded.
func (p *Pipeline) Run(ctx context.Context) (*Result, bool) {
	res, err := p.Build(ctx)
	if err != nil {
		fmt.Fprintln(p.opts.ErrOut, err.Error())
		p.opts.Logger.Debug("style pipeline ended with error", slog.String("entry", p.opts.Entry))

		return nil, false
	}

	for _, w := range res.Warnings {
		p.opts.Logger.Warn("stylesheet warning", slog.String("text", w.Text))
	}

	p.opts.Logger.Info("stylesheet written",
		slog.String("path", res.Output),
		slog.Int("bytes", res.Bytes),
	)

	return res, true
}
