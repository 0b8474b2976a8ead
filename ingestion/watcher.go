package ingestion

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a Watcher waits after the last change before
// reloading. Editors often write a file in several steps.
const DefaultDebounce = 500 * time.Millisecond

// Ingester accepts a parsed knowledge file. *Pipeline satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, kf *KnowledgeFile) (*IngestResult, error)
}

// Watcher re-imports a knowledge file whenever it changes.
type Watcher struct {
	path     string
	ingester Ingester
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets a custom logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher starts watching path. The file's directory is watched so that
// editors which replace the file are still observed.
func NewWatcher(path string, ingester Ingester, opts ...WatcherOption) (*Watcher, error) {
	if ingester == nil {
		return nil, ErrIngesterRequired
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		ingester: ingester,
		watcher:  fw,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watcher", "path", abs)
	return w, nil
}

// Run reloads the file on every change until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	kf, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("error loading knowledge file", "err", err)
		return
	}
	result, err := w.ingester.Ingest(ctx, kf)
	if err != nil {
		w.logger.Error("error importing knowledge file", "err", err)
		return
	}
	w.logger.Info("reloaded knowledge file", "faqs", len(result.FAQs), "documents", len(result.Documents))
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
