// Package watcher provides directory watching with fsnotify and debouncing,
// used to auto-ingest image files dropped into configured directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches directories and invokes the ingest callback when image
// files appear or change. The backing index is append-only, so remove
// events are ignored apart from cancelling a pending debounce.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	onIngest   func(path string)
	debounce   time.Duration

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger // optional; when set, logs debug events
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output (directory changes, file
// events, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the write-settle delay before a file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher. onIngest is called for each new or rewritten file
// matching extensions (empty = all) under the given roots.
func New(roots []string, extensions []string, recursive bool, onIngest func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		roots:       roots,
		extensions:  extensions,
		recursive:   recursive,
		onIngest:    onIngest,
		debounce:    defaultDebounce,
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting",
			zap.Strings("roots", w.roots),
			zap.Strings("extensions", w.extensions),
			zap.Bool("recursive", w.recursive))
	}
	for _, root := range w.roots {
		if err := w.addRootLocked(root); err != nil {
			_ = w.watcher.Close()
			w.watcher = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		close(w.done)
		for path, t := range w.debounceMap {
			t.Stop()
			delete(w.debounceMap, path)
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}

// Directories returns a copy of the watched root directories.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// SyncExistingFiles ingests files already present under the watched roots.
// Called once after Start so images that predate the server are indexed.
func (w *Watcher) SyncExistingFiles() {
	w.mu.Lock()
	roots := append([]string(nil), w.roots...)
	w.mu.Unlock()
	for _, root := range roots {
		w.syncDirectory(root)
	}
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch ev.Op {
	case fsnotify.Create, fsnotify.Write:
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		if w.matchExtension(path) {
			w.debounceIngest(path)
		}
	case fsnotify.Remove, fsnotify.Rename:
		w.cancelDebounce(path)
	}
}

// handleNewDirectory adds a newly created directory to the watch list and
// ingests any files already inside it.
func (w *Watcher) handleNewDirectory(dirPath string) {
	w.mu.Lock()
	recursive := w.recursive
	watcher := w.watcher
	w.mu.Unlock()
	if watcher == nil || !recursive {
		return
	}
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if addErr := watcher.Add(path); addErr != nil && w.logger != nil {
				w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(addErr))
			}
		}
		return nil
	})
	w.syncDirectory(dirPath)
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(root, 0755); err != nil {
				return err
			}
		} else {
			return err
		}
	}
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) syncDirectory(root string) {
	w.mu.Lock()
	exts := append([]string(nil), w.extensions...)
	onIngest := w.onIngest
	logger := w.logger
	w.mu.Unlock()
	if logger != nil {
		logger.Debug("watcher syncing directory", zap.String("root", root))
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if matchExtension(path, exts) && onIngest != nil {
			onIngest(path)
		}
		return nil
	})
}

func (w *Watcher) debounceIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Debug("watcher ingesting file (debounced)", zap.String("path", path))
		}
		if w.onIngest != nil {
			w.onIngest(path)
		}
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

func (w *Watcher) matchExtension(path string) bool {
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
