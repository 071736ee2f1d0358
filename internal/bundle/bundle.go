package bundle

import (
	"context"
	"time"

	"github.com/evanw/esbuild/pkg/api"
)

// Config describes the entry points, output location and transformation
// rules for one bundle. It is read once per Compile call and never mutated.
type Config struct {
	EntryPoints []string
	Outdir      string
	Sourcemap   bool
	Minify      bool
	Define      map[string]string

	// Engines restricts output syntax to the listed engines. Empty means
	// esbuild's default (esnext).
	Engines []api.Engine

	// WorkingDir must be absolute when set. Empty means the process cwd.
	WorkingDir string
}

// Pass is the report of one bundler invocation.
type Pass struct {
	// Number is the 1-based index of the pass within a Compile call.
	Number   int
	Errors   []api.Message
	Warnings []api.Message
	// Metafile is esbuild's JSON metafile; empty when the pass failed early.
	Metafile string
	Duration time.Duration
}

// Failed reports whether the pass produced compilation errors.
func (p Pass) Failed() bool { return len(p.Errors) > 0 }

// PassFunc receives every completed pass.
type PassFunc func(Pass)

// Bundler runs compilations. Implementations invoke onPass once for every
// completed pass, including failed ones.
type Bundler interface {
	// Run performs exactly one pass and returns after onPass has been called.
	Run(ctx context.Context, onPass PassFunc) error

	// Watch performs an initial pass and then a new pass whenever a watched
	// source changes. It blocks until ctx is done.
	Watch(ctx context.Context, onPass PassFunc) error
}

// Factory constructs a Bundler from a Config.
type Factory func(cfg Config) (Bundler, error)
