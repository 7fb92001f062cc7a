package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/swarmcom/swarm/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reporting a change.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches configuration files for changes and reports them through
// a callback. The directories of the files are watched so that editors
// replacing a file via rename are noticed.
type Watcher struct {
	files    map[string]struct{}
	onChange func(path string)
	debounce time.Duration

	fsw      *fsnotify.Watcher
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for files. onChange is called from the
// watcher goroutine with the path of the file that changed.
func NewWatcher(files []string, onChange func(path string)) *Watcher {
	w := &Watcher{
		files:    make(map[string]struct{}),
		onChange: onChange,
		debounce: DefaultDebounce,
		stop:     make(chan struct{}),
	}
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			w.files[abs] = struct{}{}
		}
	}
	return w
}

// SetDebounce changes the settle interval. Must be called before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching. It returns an error if no watch could be installed.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.watch()

	logging.Information("config watcher started", "files", len(w.files))
	return nil
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.fsw != nil {
			w.fsw.Close()
		}
		w.wg.Wait()
		logging.Information("config watcher stopped")
	})
}

// watch is the main loop translating file events into change callbacks.
func (w *Watcher) watch() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		changed string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := w.files[name]; !ok {
				continue
			}
			logging.Debug("config file event", "path", name, "op", event.Op.String())
			changed = name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			logging.Information("config file changed", "path", changed)
			if w.onChange != nil {
				w.onChange(changed)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warning("config watcher error", "error", err)
		}
	}
}
