package config

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a configuration file.
type Watcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// NewWatcher calls onChange whenever the file at path is written, created
// or replaced. The parent directory is watched, so editors that save by
// renaming a new file over the old one are noticed. onError receives
// watcher errors and may be nil. Both run on the watcher goroutine.
func NewWatcher(path string, onChange func(), onError func(error)) (*Watcher, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	cw := &Watcher{w: w, done: make(chan struct{})}
	go cw.run(filepath.Clean(path), onChange, onError)
	return cw, nil
}

func (cw *Watcher) run(path string, onChange func(), onError func(error)) {
	defer close(cw.done)
	for {
		select {
		case event, ok := <-cw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) == path && event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				onChange()
			}
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Close stops watching and waits for the watcher goroutine to exit.
func (cw *Watcher) Close() error {
	err := cw.w.Close()
	<-cw.done
	return err
}
