// Package reload re-applies the configuration of a running relay when its
// file changes or the process is signalled.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/flemzord/dashgram/internal/config"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Reloader receives a freshly loaded, validated configuration.
type Reloader interface {
	Reload(cfg *config.Config) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(cfg *config.Config) error

// Reload implements Reloader.
func (f ReloaderFunc) Reload(cfg *config.Config) error { return f(cfg) }

// Watcher watches a configuration file for modifications.
type Watcher struct {
	path     string
	debounce time.Duration
	target   Reloader
	logger   *slog.Logger
}

// NewWatcher watches path on behalf of target.
func NewWatcher(path string, target Reloader, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		target:   target,
		logger:   logger.With("component", "reload"),
	}
}

// Run reloads after every burst of writes to the file and on every value
// received from trigger (typically SIGHUP), until ctx is done. The parent
// directory is watched so that editors replacing the file are noticed. A
// configuration that fails to load or validate is logged and the previous
// one stays in effect.
func (w *Watcher) Run(ctx context.Context, trigger <-chan os.Signal) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("reload: creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("reload: watching %s: %w", w.path, err)
	}

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			w.apply("signal")
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			settle = time.After(w.debounce)
		case <-settle:
			settle = nil
			w.apply("modified")
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Apply loads and validates the file, then hands it to the target.
func (w *Watcher) Apply() error {
	cfg, err := config.Load(w.path)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := w.target.Reload(cfg); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (w *Watcher) apply(reason string) {
	if err := w.Apply(); err != nil {
		w.logger.Error("configuration reload failed", "reason", reason, "path", w.path, "error", err)
		return
	}
	w.logger.Info("configuration reloaded", "reason", reason, "path", w.path)
}
