package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ionbuild/internal/bundle"
	"github.com/hupe1980/ionbuild/internal/server"
	"github.com/hupe1980/ionbuild/internal/styles"
)

// syncBuffer is a bytes.Buffer safe for the concurrent writers of watch.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644)) //nolint:gosec // test
}

// newProject lays out a www/ application with framework fonts and a stale
// build directory, and makes it the working directory.
func newProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "www", "index.html"), "<ion-app></ion-app>")
	writeFile(t, filepath.Join(dir, "www", "app", "app.js"), "console.log('app')")
	writeFile(t, filepath.Join(dir, "www", "app", "app.scss"), ".toolbar { user-select: none; }")
	writeFile(t, filepath.Join(dir, "node_modules", "ionic-framework", "fonts", "ionicons.ttf"), "ttf")
	writeFile(t, filepath.Join(dir, "node_modules", "ionic-framework", "fonts", "ionicons.woff"), "woff")
	writeFile(t, filepath.Join(dir, "www", "build", "js", "stale.js"), "old")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return dir
}

// ---------------------------------------------------------------------------
// Bundler stub
// ---------------------------------------------------------------------------

type stubBundler struct {
	passes  []bundle.Pass
	cfg     bundle.Config
	runs    atomic.Int32
	watches atomic.Int32
}

func (s *stubBundler) Run(_ context.Context, onPass bundle.PassFunc) error {
	s.runs.Add(1)
	onPass(s.passes[0])

	return nil
}

func (s *stubBundler) Watch(ctx context.Context, onPass bundle.PassFunc) error {
	s.watches.Add(1)

	for _, p := range s.passes {
		onPass(p)
	}

	<-ctx.Done()

	return nil
}

func useBundler(t *testing.T, passes ...bundle.Pass) *stubBundler {
	t.Helper()

	stub := &stubBundler{passes: passes}
	prev := newBundler
	newBundler = func(cfg bundle.Config) (bundle.Bundler, error) {
		stub.cfg = cfg
		return stub, nil
	}

	t.Cleanup(func() { newBundler = prev })

	return stub
}

// ---------------------------------------------------------------------------
// Transpiler stub
// ---------------------------------------------------------------------------

type stubTranspiler struct {
	css string
	err error
}

func (s stubTranspiler) Transpile(_ context.Context, _ styles.Request) (string, error) {
	return s.css, s.err
}

func (s stubTranspiler) Close() error { return nil }

func useTranspiler(t *testing.T, css string, err error) {
	t.Helper()

	prev := newTranspiler
	newTranspiler = func(string) (styles.Transpiler, error) {
		return stubTranspiler{css: css, err: err}, nil
	}

	t.Cleanup(func() { newTranspiler = prev })
}

func failTranspilerStart(t *testing.T) {
	t.Helper()

	prev := newTranspiler
	newTranspiler = func(binary string) (styles.Transpiler, error) {
		return nil, errors.New("starting " + binary + ": executable file not found")
	}

	t.Cleanup(func() { newTranspiler = prev })
}

// ---------------------------------------------------------------------------
// Server stub
// ---------------------------------------------------------------------------

type serveRecorder struct {
	mu    sync.Mutex
	addrs []string
}

func (r *serveRecorder) Addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.addrs...)
}

// useServe records the address the server would bind. With block set it
// waits for the command to be cancelled, like the real server.
func useServe(t *testing.T, block bool) *serveRecorder {
	t.Helper()

	rec := &serveRecorder{}
	prev := serveHTTP
	serveHTTP = func(ctx context.Context, srv *server.Server) error {
		rec.mu.Lock()
		rec.addrs = append(rec.addrs, srv.Address())
		rec.mu.Unlock()

		if block {
			<-ctx.Done()
		}

		return nil
	}

	t.Cleanup(func() { serveHTTP = prev })

	return rec
}
