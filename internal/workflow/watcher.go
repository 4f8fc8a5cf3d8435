package workflow

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces bursts of writes (editors often write a file several
// times per save).
const debounce = 100 * time.Millisecond

// Change reports that the watched file was written, replaced or removed.
type Change struct {
	Path    string
	Removed bool
}

// Watcher monitors a single workflow file. It watches the parent directory
// so that editors which save by rename are still observed.
type Watcher struct {
	Path    string
	Changes <-chan Change // Read-only external channel

	changes chan Change
	closing chan struct{} // closed by Stop; unblocks a pending send
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Path:    abs,
		Changes: ch,
		changes: ch,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. It does not wait for
// undelivered changes to be read.
func (w *Watcher) Stop() {
	close(w.closing)
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pendingSince time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pendingSince = time.Now()
			}

		case <-ticker.C:
			if !pendingSince.IsZero() && time.Since(pendingSince) >= debounce {
				if !w.emit() {
					return
				}
				pendingSince = time.Time{}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

// emit delivers one change, or gives up and returns false once Stop has
// been called.
func (w *Watcher) emit() bool {
	_, err := os.Stat(w.Path)
	select {
	case w.changes <- Change{Path: w.Path, Removed: os.IsNotExist(err)}:
		return true
	case <-w.closing:
		return false
	}
}
