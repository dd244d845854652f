package converter

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	logseqdomain "github.com/sleroq/logseq-to-notion/internal/domain/logseq"
	"github.com/sleroq/logseq-to-notion/internal/infra/logseqfs"
)

const watchDebounce = 500 * time.Millisecond

var watchedSubdirs = map[string]bool{
	"pages":                 true,
	"journals":              true,
	logseqdomain.AssetsDir: true,
}

// Watcher re-converts one collection into a fixed directory whenever its
// pages, journals or assets change.
type Watcher struct {
	Batch    Batch
	Dir      string
	NotesDir string
	// OnConvert is called after every conversion attempt.
	OnConvert func(Report, error)
}

// Watch converts once, then reconverts after every burst of changes until
// ctx is cancelled.
func (w Watcher) Watch(ctx context.Context) error {
	logger := w.Batch.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.convert(ctx, logger); err != nil && !isRecoverable(err) {
		return err
	}
	for sub := range watchedSubdirs {
		dir := filepath.Join(w.Dir, sub)
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			continue
		}
		if err := addDirsRecursive(fw, dir); err != nil {
			return err
		}
	}
	// Picks up pages/ or journals/ created after the watch started.
	if err := fw.Add(w.Dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", w.Dir), slog.String("output", w.NotesDir))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			timerCh = timer.C
			return
		}
		timer.Reset(watchDebounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			timer, timerCh = nil, nil
			if err := w.convert(ctx, logger); err != nil && !isRecoverable(err) {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			if filepath.Dir(ev.Name) == filepath.Clean(w.Dir) && !watchedSubdirs[filepath.Base(ev.Name)] {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w Watcher) convert(ctx context.Context, logger *slog.Logger) error {
	coll, err := logseqfs.ReadCollection(w.Dir)
	if err != nil {
		w.notify(Report{}, err)
		return err
	}
	report, err := w.Batch.converter(coll, w.NotesDir, false, logger).Run(ctx)
	if err != nil {
		logger.Error("watcher: conversion failed", slog.String("error", err.Error()))
	}
	w.notify(report, err)
	return err
}

func (w Watcher) notify(r Report, err error) {
	if w.OnConvert != nil {
		w.OnConvert(r, err)
	}
}

// isRecoverable reports whether a failed conversion may succeed after the
// next change, as when a note is mid-save.
func isRecoverable(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
