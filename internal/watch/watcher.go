package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/ionbuild/internal/globs"
)

// InitialTrigger is passed to RunFunc for the run performed at startup.
const InitialTrigger = "(initial)"

// RunFunc is called each time a matching change settles. trigger is the
// last changed path, or InitialTrigger.
type RunFunc func(ctx context.Context, trigger string) error

// Options configures the watch behaviour.
type Options struct {
	// Name labels status lines, e.g. "sass".
	Name string

	// Patterns select the files whose changes trigger a run.
	Patterns []string

	// Debounce is the quiet period before triggering a run.
	Debounce time.Duration

	// Initial runs the task once before waiting for changes.
	Initial bool

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Name:     "watch",
		Debounce: 100 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run starts the file watcher and blocks until the context is cancelled
// or a SIGINT/SIGTERM signal is received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if len(opts.Patterns) == 0 {
		return errors.New("no watch patterns configured")
	}

	set, err := globs.CompileAll(opts.Patterns)
	if err != nil {
		return fmt.Errorf("compiling watch patterns: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, base := range set.Bases() {
		if err := addRecursive(watcher, base); err != nil {
			return fmt.Errorf("watching %s: %w", base, err)
		}
	}

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "%s: watching %s (debounce=%s)\n",
		opts.Name, strings.Join(opts.Patterns, ", "), opts.Debounce)

	if opts.Initial {
		doRun(sigCtx, opts, runFn, InitialTrigger, 1)
	}

	debouncer := NewDebouncer(opts.Debounce, func(path string, events int) {
		doRun(sigCtx, opts, runFn, path, events)
	})
	debouncer.logger = opts.Logger
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			opts.Logger.Debug("watcher stopped", slog.String("name", opts.Name))
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			// New directories below a base are watched as they appear.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
					continue
				}
			}

			if !set.Match(event.Name) {
				continue
			}

			opts.Logger.Debug("change detected",
				slog.String("name", opts.Name),
				slog.String("path", event.Name),
				slog.String("op", event.Op.String()),
			)

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// doRun executes a single run and prints the status line. Errors are
// reported and never stop the watcher.
func doRun(ctx context.Context, opts Options, runFn RunFunc, trigger string, events int) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	label := trigger

	if events > 1 {
		label = fmt.Sprintf("%s (+%d more)", trigger, events-1)
	}

	err := runFn(ctx, trigger)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s: %s → ERROR: %v\n", start.Format("15:04:05"), opts.Name, label, err)
		return
	}

	fmt.Fprintf(opts.Out, "[%s] %s: %s → OK in %s\n", start.Format("15:04:05"), opts.Name, label, elapsed)
}

// addRecursive walks root and adds all directories to the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// Skip hidden directories (e.g., .git) and installed packages.
			if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
				return filepath.SkipDir
			}

			return watcher.Add(path)
		}

		return nil
	})
}

// isRelevant filters out events that never change file contents and editor
// scratch files.
func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	// Only care about write, create, remove, rename.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	// Ignore editor temporary files and hidden files.
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, "#") {
		return false
	}

	return true
}
