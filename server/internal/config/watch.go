package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path whenever it changes and hands each valid
// result to onChange. It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file itself, so a save that
// replaces the file by rename keeps being followed. A reload that fails to
// parse or validate is logged and skipped.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch %q: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("config: watch %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config: watch %q: %w", filepath.Dir(abs), err)
	}
	slog.Info("config: watching for changes", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			reload(abs, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "path", abs, "err", err)
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		slog.Warn("config: reload skipped, previous config stays active", "path", path, "err", err)
		return
	}
	slog.Info("config: reloaded", "path", path)
	onChange(cfg)
}
