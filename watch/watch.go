// Package watch applies a JSON file to an Engine whenever the file changes.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/reoring/recordsync"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Result is the outcome of applying the file once.
type Result struct {
	Path    string
	Records recordsync.Collection
	Err     error
}

// Options tunes a FileWatcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// FileWatcher watches one file. Its directory is watched rather than the
// file itself so atomic saves (write then rename) are seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	engine   *recordsync.Engine
	path     string
	debounce time.Duration
	log      *slog.Logger

	results chan Result
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewFileWatcher creates a watcher for path. It must be started with Start.
func NewFileWatcher(engine *recordsync.Engine, path string, o Options) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &FileWatcher{
		watcher:  w,
		engine:   engine,
		path:     abs,
		debounce: o.Debounce,
		log:      o.Logger,
		results:  make(chan Result, 16),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string { return fw.path }

// Start begins watching.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.running {
		return fmt.Errorf("watcher already running")
	}
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	fw.running = true
	fw.wg.Add(1)
	go fw.processEvents()
	return nil
}

// Stop ends watching and closes the Results and Errors channels. It blocks
// until the event loop has exited.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.mu.Unlock()

	close(fw.done)
	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	fw.wg.Wait()
	close(fw.results)
	close(fw.errors)
	return nil
}

// Results emits one Result per applied change.
func (fw *FileWatcher) Results() <-chan Result { return fw.results }

// Errors emits watcher failures.
func (fw *FileWatcher) Errors() <-chan error { return fw.errors }

// Sync reads the file and applies it now.
func (fw *FileWatcher) Sync() Result {
	data, err := os.ReadFile(fw.path)
	if err != nil {
		return Result{Path: fw.path, Err: fmt.Errorf("failed to read %s: %w", fw.path, err)}
	}
	c, err := fw.engine.ApplyText(string(data))
	if err != nil {
		fw.log.Info("file rejected", "path", fw.path, "error", err)
	} else {
		fw.log.Info("file applied", "path", fw.path, "records", len(c))
	}
	return Result{Path: fw.path, Records: c, Err: err}
}

func (fw *FileWatcher) processEvents() {
	defer fw.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			r := fw.Sync()
			select {
			case fw.results <- r:
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case fw.errors <- err:
			case <-fw.done:
				return
			}
		}
	}
}

func (fw *FileWatcher) relevant(e fsnotify.Event) bool {
	if filepath.Clean(e.Name) != fw.path {
		return false
	}
	return e.Has(fsnotify.Write) || e.Has(fsnotify.Create)
}
