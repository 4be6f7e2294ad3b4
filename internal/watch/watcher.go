package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc renders the page once.
type RunFunc func(ctx context.Context) (Result, error)

// Result summarises one render for the status line.
type Result struct {
	Widgets int
	Bytes   int
	URL     string
}

// Options configures the watch behaviour.
type Options struct {
	// Files are the files whose changes trigger a render. Their parent
	// directories are watched so editors that replace files on save are
	// still seen.
	Files []string

	// Debounce is the quiet period before triggering a render.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Out receives user-facing status lines.
	Out io.Writer
}

// DefaultOptions returns the default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 300 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run renders once, then again after every relevant change, until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if len(opts.Files) == 0 {
		return errors.New("watch: no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	targets, err := addFiles(watcher, opts.Files)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", strings.Join(opts.Files, ", "), opts.Debounce)

	var runMu sync.Mutex
	render := func(trigger string) {
		runMu.Lock()
		defer runMu.Unlock()
		if sigCtx.Err() != nil {
			return
		}
		doRun(sigCtx, opts, runFn, trigger)
	}

	render("(initial)")

	debouncer := NewDebouncer(opts.Debounce, render)
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "shutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevant(event, targets) {
				continue
			}
			opts.Logger.Debug("file changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func doRun(ctx context.Context, opts Options, runFn RunFunc, trigger string) {
	now := time.Now().Format("15:04:05")

	result, err := runFn(ctx)
	if err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s -> ERROR: %v\n", now, trigger, err)
		return
	}
	fmt.Fprintf(opts.Out, "[%s] %s -> OK (%d widgets, %d bytes) %s\n",
		now, trigger, result.Widgets, result.Bytes, result.URL)
}

// addFiles watches the directory of every file and returns the set of
// absolute file paths that count as relevant.
func addFiles(watcher *fsnotify.Watcher, files []string) (map[string]struct{}, error) {
	targets := make(map[string]struct{}, len(files))
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", f, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("watching %q: %w", f, err)
		}
		targets[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, seen := dirs[dir]; seen {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %q: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}
	return targets, nil
}

func isRelevant(event fsnotify.Event, targets map[string]struct{}) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := targets[abs]
	return ok
}
