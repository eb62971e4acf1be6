// Package watcher reports changes to the files a render depends on. Bursts
// of writes, such as an editor saving through a temp file, are coalesced
// into one batch per debounce window.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/tmpltool/internal/logging"
)

// Op is the kind of change seen for a file.
type Op int

const (
	OpWritten Op = iota
	OpCreated
	OpRemoved
	OpRenamed
)

func (o Op) String() string {
	switch o {
	case OpWritten:
		return "written"
	case OpCreated:
		return "created"
	case OpRemoved:
		return "removed"
	case OpRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Change is the last operation seen for one file within a debounce window.
type Change struct {
	Path string
	Op   Op
}

// Handler receives each batch of changes, sorted by path.
type Handler func(changes []Change) error

// Watcher watches a fixed set of files. Files are watched through their
// parent directories so that replace-on-save keeps being noticed.
type Watcher struct {
	fsw       *fsnotify.Watcher
	files     map[string]bool
	debounce  time.Duration
	logger    logging.Logger
	closeOnce sync.Once
	closeErr  error
}

// New watches files, which must exist.
func New(files []string, debounce time.Duration, logger logging.Logger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool, len(files)),
		debounce: debounce,
		logger:   logger.WithComponent("watcher"),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", f, err)
		}
		if _, err := os.Stat(abs); err != nil {
			fsw.Close()
			return nil, err
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
		w.logger.Debug(context.Background(), "Watching directory", "path", dir)
	}
	return w, nil
}

// Files returns the absolute paths being watched, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Run calls handle with each debounced batch until ctx is done or the
// watcher is closed. A handler error is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]Op)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			op, relevant := w.classify(ev)
			if !relevant {
				continue
			}
			pending[w.key(ev.Name)] = op
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, err, "File watcher error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]Change, 0, len(pending))
			for path, op := range pending {
				batch = append(batch, Change{Path: path, Op: op})
			}
			sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
			clear(pending)

			if err := handle(batch); err != nil {
				w.logger.Error(ctx, err, "Change handler failed", "changes", len(batch))
			}
		}
	}
}

// Close releases the underlying watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { w.closeErr = w.fsw.Close() })
	return w.closeErr
}

func (w *Watcher) key(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		return name
	}
	return abs
}

func (w *Watcher) classify(ev fsnotify.Event) (Op, bool) {
	if !w.files[w.key(ev.Name)] {
		return 0, false
	}
	switch {
	case ev.Has(fsnotify.Remove):
		return OpRemoved, true
	case ev.Has(fsnotify.Rename):
		return OpRenamed, true
	case ev.Has(fsnotify.Create):
		return OpCreated, true
	case ev.Has(fsnotify.Write):
		return OpWritten, true
	default:
		// chmod only
		return 0, false
	}
}
