// Package watch re-runs metadata conversion when the watched .meta files
// change. A debouncer folds editor save bursts into one rebuild; a reload
// server pushes the result to preview browsers over a websocket.
package watch

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher monitors directories holding metadata files and triggers a
// callback with the changed paths.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	dirs      []string
	patterns  []string
	ignored   []string
	onChange  func([]string) error
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewFileWatcher creates a watcher over the given directories. patterns are
// base-name globs ("*.meta"); an empty list matches everything. ignored
// globs are checked first.
func NewFileWatcher(dirs, patterns, ignored []string, onChange func([]string) error) (*FileWatcher, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no directories to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(100 * time.Millisecond),
		dirs:      dedupe(dirs),
		patterns:  patterns,
		ignored:   ignored,
		onChange:  onChange,
		stopChan:  make(chan struct{}),
	}

	fw.debouncer.SetCallback(func(files []string) {
		if err := fw.onChange(files); err != nil {
			log.Printf("[Watch] Error handling file changes: %v", err)
		}
	})

	return fw, nil
}

// Start begins watching the file system
func (fw *FileWatcher) Start() error {
	for _, dir := range fw.dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		log.Printf("[Watch] Watching directory: %s", dir)
	}

	fw.wg.Add(1)
	go fw.watch()

	return nil
}

// Stop stops the file watcher. Safe to call more than once.
func (fw *FileWatcher) Stop() error {
	fw.stopOnce.Do(func() { close(fw.stopChan) })
	fw.wg.Wait()
	fw.debouncer.Stop()
	return fw.watcher.Close()
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if fw.shouldIgnore(event.Name) {
				continue
			}

			// Only Write and Create matter; a removed metadata file fails
			// the next explicit run instead of racing the watcher.
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if fw.matchesPattern(event.Name) {
					log.Printf("[Watch] File changed: %s", event.Name)
					fw.debouncer.Add(event.Name)
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Watch] Error: %v", err)

		case <-fw.stopChan:
			return
		}
	}
}

// shouldIgnore checks if a file path should be ignored
func (fw *FileWatcher) shouldIgnore(path string) bool {
	baseName := filepath.Base(path)

	// Hidden files and editor droppings
	if strings.HasPrefix(baseName, ".") {
		return true
	}

	for _, pattern := range fw.ignored {
		if matched, _ := filepath.Match(pattern, baseName); matched {
			return true
		}
	}

	return false
}

// matchesPattern checks if a file matches any of the watch patterns
func (fw *FileWatcher) matchesPattern(path string) bool {
	if len(fw.patterns) == 0 {
		return true
	}

	for _, pattern := range fw.patterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}

	return false
}

// dedupe drops repeated directories while keeping first-seen order.
func dedupe(dirs []string) []string {
	seen := make(map[string]struct{}, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		clean := filepath.Clean(d)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Add adds a file to the debouncer
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, func() {
		d.flush()
	})
}

// flush triggers the callback with accumulated files
func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.files) == 0 {
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	sort.Strings(files)

	d.files = make(map[string]struct{})

	if d.callback != nil {
		d.callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop stops the debouncer
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.stopOnce.Do(func() { close(d.stopChan) })
}
