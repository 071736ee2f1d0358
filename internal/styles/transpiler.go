package styles

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/bep/godartsass/v2"
)

// Request is one Sass compilation.
type Request struct {
	// Source is the Sass source text.
	Source string
	// Path locates the source; relative imports resolve against it.
	Path string
	// IncludePaths are extra directories searched by @import and @use.
	IncludePaths []string
}

// Transpiler compiles Sass to CSS.
type Transpiler interface {
	Transpile(ctx context.Context, req Request) (string, error)
	Close() error
}

// DartSass is a Transpiler backed by a long-running Dart Sass process.
type DartSass struct {
	mu sync.Mutex
	t  *godartsass.Transpiler
}

// NewDartSass starts the embedded Dart Sass compiler found at binary (a name
// on PATH or a path).
func NewDartSass(binary string) (*DartSass, error) {
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: binary,
	})
	if err != nil {
		return nil, fmt.Errorf("starting dart sass %q: %w", binary, err)
	}

	return &DartSass{t: t}, nil
}

// Transpile compiles req as SCSS with expanded output.
func (d *DartSass) Transpile(_ context.Context, req Request) (string, error) {
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", req.Path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.t.Execute(godartsass.Args{
		Source:       req.Source,
		URL:          fileURL(abs),
		IncludePaths: req.IncludePaths,
		SourceSyntax: godartsass.SourceSyntaxSCSS,
		OutputStyle:  godartsass.OutputStyleExpanded,
	})
	if err != nil {
		return "", fmt.Errorf("compiling %s: %w", req.Path, err)
	}

	return res.CSS, nil
}

// Close stops the Dart Sass process.
func (d *DartSass) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.t.Close()
}

func fileURL(abs string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}
