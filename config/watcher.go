package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"go.viam.com/pid/logging"
)

// DefaultWatchDebounce is how long a config file has to stay quiet before it is re-read.
const DefaultWatchDebounce = 200 * time.Millisecond

// Watch re-reads the config file at filePath whenever it changes and passes every valid result
// to onChange. Invalid configs are logged and skipped. Watch blocks until ctx is done.
func Watch(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
	onChange func(*Config),
) error {
	return watch(ctx, filePath, DefaultWatchDebounce, logger, onChange)
}

func watch(
	ctx context.Context,
	filePath string,
	quiet time.Duration,
	logger logging.Logger,
	onChange func(*Config),
) error {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create config watcher")
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Debugw("failed to close config watcher", "error", err)
		}
	}()
	// Editors often replace the file instead of writing it, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filePath)
	}

	debounced := debounce.New(quiet)
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		cfg, err := Read(ctx, abs, logger)
		if err != nil {
			logger.Warnw("ignoring invalid config", "path", filePath, "error", err)
			return
		}
		logger.Infow("config changed", "path", filePath)
		onChange(cfg)
	}

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
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logger.Debugw("config file event", "op", event.Op.String())
				debounced(reload)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("config watcher error", "error", err)
		}
	}
}
