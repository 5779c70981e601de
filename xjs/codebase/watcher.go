package codebase

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/maruel/natural"
)

// DefaultWatchDelay coalesces the bursts of events editors produce when
// saving a file.
const DefaultWatchDelay = 100 * time.Millisecond

// FileWatcher keeps a Codebase in sync with the template files on disk.
// OnChange, when set, receives the paths that were rescanned or removed.
type FileWatcher struct {
	OnChange func(paths []string)

	codebase  *Codebase
	watcher   *fsnotify.Watcher
	debounced func(func())
	stopCh    chan struct{}
	doneCh    chan struct{}

	mu      sync.Mutex
	pending map[string]bool
}

func NewFileWatcher(c *Codebase, delay time.Duration) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		codebase:  c,
		watcher:   watcher,
		debounced: debounce.New(delay),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		pending:   make(map[string]bool),
	}, nil
}

// Start watches the project directories and returns once they are all
// registered.
func (w *FileWatcher) Start() error {
	if err := w.addTree(w.codebase.RootDir()); err != nil {
		close(w.doneCh)
		return err
	}
	go w.run()
	return nil
}

func (w *FileWatcher) Stop() error {
	close(w.stopCh)
	err := w.watcher.Close()
	<-w.doneCh
	return err
}

func (w *FileWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

func (w *FileWatcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warningf("watch: %s", err)
		}
	}
}

func (w *FileWatcher) handle(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			if !skipDir(filepath.Base(path)) {
				if err := w.addTree(path); err != nil {
					log.Warningf("watch %s: %s", path, err)
				}
			}
			return
		}
	}

	if !w.codebase.Project().Matches(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.codebase.RemoveFile(path)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if err := w.codebase.ScanFile(path); err != nil {
			w.codebase.RemoveFile(path)
		}
	default:
		return
	}

	w.mu.Lock()
	w.pending[path] = true
	w.mu.Unlock()
	w.debounced(w.flush)
}

func (w *FileWatcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	clear(w.pending)
	w.mu.Unlock()

	if len(paths) == 0 || w.OnChange == nil {
		return
	}
	sort.Slice(paths, func(i, j int) bool {
		return natural.Less(paths[i], paths[j])
	})
	w.OnChange(paths)
}
