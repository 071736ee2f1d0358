package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ionbuild/internal/logging"
)

func newRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>app</h1>"), 0o644))

	return root
}

// ---------------------------------------------------------------------------
// Addressing
// ---------------------------------------------------------------------------

func TestAddress(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"default host", Options{Port: 8100}, "localhost:8100"},
		{"custom port", Options{Port: 9000}, "localhost:9000"},
		{"custom host", Options{Host: "0.0.0.0", Port: 8100}, "0.0.0.0:8100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.opts).Address())
		})
	}
}

func TestAddr_NilBeforeListen(t *testing.T) {
	assert.Nil(t, New(Options{}).Addr())
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

func TestHandler_ServesRoot(t *testing.T) {
	s := New(Options{Root: newRoot(t), Logger: logging.Discard()})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>app</h1>")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Server"), "ionbuild/"))
}

func TestHandler_NotFound(t *testing.T) {
	s := New(Options{Root: newRoot(t), Logger: logging.Discard()})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.js", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_LiveReloadDisabled(t *testing.T) {
	root := newRoot(t)
	s := New(Options{Root: root, Logger: logging.Discard()})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LiveReloadScriptPath, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Reload is a no-op without the hub.
	s.Reload("app.js")
}

func TestHandler_LiveReloadScript(t *testing.T) {
	s := New(Options{Root: newRoot(t), LiveReload: true, Logger: logging.Discard()})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LiveReloadScriptPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), LiveReloadPath)
}

// ---------------------------------------------------------------------------
// Live reload
// ---------------------------------------------------------------------------

func TestReload_BroadcastsToClients(t *testing.T) {
	s := New(Options{Root: newRoot(t), LiveReload: true, Logger: logging.Discard()})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + LiveReloadPath

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return s.hub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.Reload("www/build/css/app.css")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg reloadMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "reload", msg.Command)
	assert.Equal(t, "www/build/css/app.css", msg.Reason)
}

func TestReload_ClientDisconnectRemoved(t *testing.T) {
	s := New(Options{Root: newRoot(t), LiveReload: true, Logger: logging.Discard()})

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+LiveReloadPath, nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.Eventually(t, func() bool { return s.hub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return s.hub.count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestListenAndServe_GracefulShutdown(t *testing.T) {
	s := New(Options{Root: newRoot(t), Host: "127.0.0.1", Port: 0, Logger: logging.Discard()})
	require.NoError(t, s.Listen())
	require.NotNil(t, s.Addr())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	var body []byte

	require.Eventually(t, func() bool {
		resp, err := http.Get(s.URL() + "/index.html")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		body, _ = io.ReadAll(resp.Body)

		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	assert.Contains(t, string(body), "app")

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServe_WithoutListen(t *testing.T) {
	err := New(Options{Logger: logging.Discard()}).Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not listening")
}

func TestListen_PortInUse(t *testing.T) {
	first := New(Options{Root: newRoot(t), Host: "127.0.0.1", Port: 0, Logger: logging.Discard()})
	require.NoError(t, first.Listen())

	tcp, ok := first.Addr().(*net.TCPAddr)
	require.True(t, ok)

	second := New(Options{Host: "127.0.0.1", Port: tcp.Port, Logger: logging.Discard()})

	err := second.Listen()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, first.Serve(ctx))
}
