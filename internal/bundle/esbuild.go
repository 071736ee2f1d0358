package bundle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/evanw/esbuild/pkg/api"
)

// assetLoaders copies referenced static assets next to the bundle.
var assetLoaders = map[string]api.Loader{
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".gif":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".ttf":   api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".eot":   api.LoaderFile,
	".html":  api.LoaderText,
}

// ESBuild is a Bundler backed by esbuild's Go API.
type ESBuild struct {
	options api.BuildOptions
}

// NewESBuild returns an esbuild Bundler for cfg.
func NewESBuild(cfg Config) (Bundler, error) {
	if len(cfg.EntryPoints) == 0 {
		return nil, errors.New("no entry points configured")
	}

	if cfg.Outdir == "" {
		return nil, errors.New("no output directory configured")
	}

	return &ESBuild{options: BuildOptions(cfg)}, nil
}

// BuildOptions translates cfg into esbuild build options.
func BuildOptions(cfg Config) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:   cfg.EntryPoints,
		Outdir:        cfg.Outdir,
		Bundle:        true,
		Write:         true,
		Metafile:      true,
		LogLevel:      api.LogLevelSilent,
		Define:        cfg.Define,
		Engines:       cfg.Engines,
		AbsWorkingDir: cfg.WorkingDir,
		Loader:        assetLoaders,
	}

	if cfg.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}

	if cfg.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	return opts
}

// Run performs a single rebuild. Cancelling ctx cancels the build in flight.
func (e *ESBuild) Run(ctx context.Context, onPass PassFunc) error {
	bctx, err := e.newContext(onPass)
	if err != nil {
		return err
	}
	defer bctx.Dispose()

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	bctx.Rebuild()

	return nil
}

// Watch starts esbuild's watch mode and blocks until ctx is done. esbuild
// owns the polling and debounce policy.
func (e *ESBuild) Watch(ctx context.Context, onPass PassFunc) error {
	bctx, err := e.newContext(onPass)
	if err != nil {
		return err
	}
	defer bctx.Dispose()

	if err := bctx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("starting watch mode: %w", err)
	}

	<-ctx.Done()

	return nil
}

func (e *ESBuild) newContext(onPass PassFunc) (api.BuildContext, error) {
	opts := e.options
	opts.Plugins = append(append([]api.Plugin(nil), opts.Plugins...), reportPlugin(onPass))

	bctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return nil, fmt.Errorf("creating build context: %s", joinMessages(ctxErr.Errors))
	}

	return bctx, nil
}

// reportPlugin turns every end-of-build notification into a Pass.
func reportPlugin(onPass PassFunc) api.Plugin {
	return api.Plugin{
		Name: "ionbuild-report",
		Setup: func(build api.PluginBuild) {
			var started atomic.Int64

			build.OnStart(func() (api.OnStartResult, error) {
				started.Store(time.Now().UnixNano())
				return api.OnStartResult{}, nil
			})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				onPass(Pass{
					Errors:   result.Errors,
					Warnings: result.Warnings,
					Metafile: result.Metafile,
					Duration: time.Since(time.Unix(0, started.Load())),
				})

				return api.OnEndResult{}, nil
			})
		},
	}
}

func joinMessages(msgs []api.Message) string {
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}

	return strings.Join(texts, "; ")
}
