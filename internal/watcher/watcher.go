// Package watcher implements watch mode: it monitors the source directories
// for new media files and triggers a batch run once incoming files stop
// growing. Recorders and copy jobs write files incrementally, so a create
// event alone never triggers work.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"partcut/internal/config"
	"partcut/internal/logging"
)

// DefaultInterval is the poll interval for size-stability checks.
const DefaultInterval = 2 * time.Second

// stableTicks is how many consecutive unchanged polls a file needs before
// it counts as settled.
const stableTicks = 2

// Watcher monitors the configured source directories and runs batches.
type Watcher struct {
	Interval time.Duration

	// RunBatch is invoked once per settled wave of files. Production wires
	// it to a pipeline run; tests substitute a counter.
	RunBatch func(ctx context.Context)

	cfg *config.Config
	log *logging.Logger

	pending map[string]*fileState
}

type fileState struct {
	size   int64
	stable int
}

// New builds a Watcher for validated config.
func New(cfg *config.Config, log *logging.Logger, runBatch func(ctx context.Context)) *Watcher {
	return &Watcher{
		Interval: DefaultInterval,
		RunBatch: runBatch,
		cfg:      cfg,
		log:      log,
		pending:  make(map[string]*fileState),
	}
}

// Watch blocks until ctx is cancelled, running a batch whenever new files
// appear and settle. Directory roots are watched recursively; other root
// kinds (globs, list files) only see their initial batch.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	watched := 0
	for _, root := range w.cfg.Sources {
		fi, err := os.Stat(root)
		if err != nil || !fi.IsDir() {
			w.log.Warn("watch: skipping non-directory source %s", root)
			continue
		}
		if err := w.addTree(fsw, root); err != nil {
			return err
		}
		watched++
	}
	if watched == 0 {
		w.log.Warn("watch: no watchable sources, running once")
		w.RunBatch(ctx)
		return nil
	}

	// Initial batch picks up whatever already sits in the sources.
	w.RunBatch(ctx)
	w.log.Info("Watching %d source directories", watched)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch: %v", err)
		case <-ticker.C:
			if w.poll() {
				w.RunBatch(ctx)
			}
		}
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		delete(w.pending, ev.Name)
		return
	}
	if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := w.addTree(fsw, ev.Name); err != nil {
				w.log.Warn("watch: %v", err)
			}
		}
		return
	}
	if filepath.Base(ev.Name)[0] == '.' {
		return
	}
	if _, ok := w.pending[ev.Name]; !ok {
		w.log.Debug(w.cfg.Verbose, "watch: tracking %s", ev.Name)
		w.pending[ev.Name] = &fileState{size: -1}
	}
}

// poll re-stats every pending file and reports whether at least one file
// settled with none still growing. Triggering while anything is still being
// written would split a half-copied source.
func (w *Watcher) poll() bool {
	settled := 0
	for path, st := range w.pending {
		fi, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if fi.Size() != st.size {
			st.size = fi.Size()
			st.stable = 0
			continue
		}
		st.stable++
		if st.stable >= stableTicks {
			settled++
		}
	}
	if settled == 0 || settled < len(w.pending) {
		return false
	}
	w.log.Info("watch: %d file(s) settled, starting batch", settled)
	w.pending = make(map[string]*fileState)
	return true
}
