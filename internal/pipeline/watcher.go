package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/constants"
)

// WatchConfig configures the intake watcher.
type WatchConfig struct {
	Root        string        // intake directory, watched recursively
	InitialScan bool          // emit files already present at startup
	Debounce    time.Duration // coalesce write bursts while scanners upload
}

// Watch observes the intake directory and feeds every settled PDF into
// the processor for the given broker. Blocks until ctx is cancelled.
func (p *Processor) Watch(ctx context.Context, brokerID uuid.UUID, cfg WatchConfig) error {
	events, watchErrs, err := startWatcher(ctx, cfg, p.logger)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-events:
			if !ok {
				return nil
			}
			res, perr := p.ProcessFile(ctx, brokerID, path)
			if perr != nil {
				p.logger.Error("ingest failed", "path", path, "error", perr)
				continue
			}
			p.logger.Info("ingest done", "path", path, "status", res.Status)
		case werr, ok := <-watchErrs:
			if ok && werr != nil {
				p.logger.Error("watcher error", "error", werr)
			}
		}
	}
}

// startWatcher wires fsnotify over the intake root and returns a channel
// of candidate PDF paths. New subdirectories are picked up on the fly.
func startWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if cfg.Root == "" {
		return nil, nil, errors.New("watch root is required")
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	err = filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		if cfg.InitialScan && isPDF(path) {
			select {
			case evCh <- path:
			default:
				logger.Warn("initial scan queue full, skipping", "path", path)
			}
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer w.Close()

		// pending is only touched from this goroutine; the debounce timer
		// fires back into the select below instead of its own goroutine.
		var timer *time.Timer
		var timerC <-chan time.Time
		pending := map[string]struct{}{}

		flush := func() {
			for p := range pending {
				select {
				case evCh <- p:
				default:
				}
				delete(pending, p)
			}
			timerC = nil
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-timerC:
				flush()
			case e := <-w.Events:
				if e.Op.Has(fsnotify.Create) {
					// A new directory needs its own watch; for files the
					// add fails and that is fine.
					_ = w.Add(e.Name)
				}
				if isPDF(e.Name) && e.Op.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
					pending[e.Name] = struct{}{}
					if cfg.Debounce > 0 {
						if timer == nil {
							timer = time.NewTimer(cfg.Debounce)
						} else {
							if !timer.Stop() {
								select {
								case <-timer.C:
								default:
								}
							}
							timer.Reset(cfg.Debounce)
						}
						timerC = timer.C
					} else {
						flush()
					}
				}
			case werr := <-w.Errors:
				select {
				case errCh <- werr:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func isPDF(path string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
