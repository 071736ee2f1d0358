// Package server serves the application directory for local development and
// optionally pushes reload notifications to connected browsers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hupe1980/ionbuild/internal/version"
)

const (
	// LiveReloadPath is the websocket endpoint browsers connect to.
	LiveReloadPath = "/__livereload"
	// LiveReloadScriptPath serves the client script.
	LiveReloadScriptPath = "/__livereload.js"

	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	// Root is the directory served at "/".
	Root string
	// Host defaults to "localhost".
	Host string
	// Port 0 picks a free port.
	Port int
	// LiveReload mounts the reload endpoints.
	LiveReload bool
	Logger     *slog.Logger
}

// Server is a static file server for one directory.
type Server struct {
	opts Options
	hub  *hub

	mu sync.Mutex
	ln net.Listener
}

// New returns a Server; nothing is bound until Listen.
func New(opts Options) *Server {
	if opts.Host == "" {
		opts.Host = "localhost"
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{opts: opts}
	if opts.LiveReload {
		s.hub = newHub(opts.Logger)
	}

	return s
}

// Address is the host:port the server binds to.
func (s *Server) Address() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Handler returns the HTTP handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", noCache(http.FileServer(http.Dir(s.opts.Root))))

	if s.hub != nil {
		mux.Handle(LiveReloadPath, s.hub)
		mux.HandleFunc(LiveReloadScriptPath, serveScript)
	}

	return withServerHeader(s.logRequests(mux))
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.Address())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Address(), err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}

	return s.ln.Addr()
}

// URL returns the browsable base URL of the bound server.
func (s *Server) URL() string {
	if addr := s.Addr(); addr != nil {
		if tcp, ok := addr.(*net.TCPAddr); ok {
			return fmt.Sprintf("http://%s", net.JoinHostPort(s.opts.Host, strconv.Itoa(tcp.Port)))
		}
	}

	return "http://" + s.Address()
}

// Serve serves on the bound listener until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	if ln == nil {
		return errors.New("server is not listening")
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.opts.Logger.Info("serving", slog.String("root", s.opts.Root), slog.String("url", s.URL()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.closeAll()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	return nil
}

// ListenAndServe binds and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	return s.Serve(ctx)
}

// Reload tells connected browsers to reload. It is a no-op when live reload
// is disabled.
func (s *Server) Reload(reason string) {
	if s.hub == nil {
		return
	}

	s.hub.broadcast(reason)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.opts.Logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		next.ServeHTTP(w, r)
	})
}

func withServerHeader(next http.Handler) http.Handler {
	name := version.GetInfo().Short()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", name)
		next.ServeHTTP(w, r)
	})
}
