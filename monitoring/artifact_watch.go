package monitoring

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher flags the loaded bundle as stale when its files change on
// disk. It never reloads anything.
type ArtifactWatcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	stale    atomic.Bool
	onChange func(name string, at time.Time)
	logger   *zap.Logger
	done     chan struct{}
}

// WatchArtifacts watches dir for changes to the named files. An empty list
// watches every file in dir. onChange may be nil.
func WatchArtifacts(dir string, files []string, logger *zap.Logger, onChange func(name string, at time.Time)) (*ArtifactWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &ArtifactWatcher{
		watcher:  fw,
		files:    make(map[string]bool, len(files)),
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
	for _, f := range files {
		w.files[filepath.Base(f)] = true
	}
	go w.loop()
	return w, nil
}

func (w *ArtifactWatcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("artifact watcher error", zap.Error(err))
		}
	}
}

func (w *ArtifactWatcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(event.Name)
	if len(w.files) > 0 && !w.files[name] {
		return
	}

	w.stale.Store(true)
	w.logger.Warn("artifact changed on disk; restart to load it",
		zap.String("file", name), zap.String("op", event.Op.String()))
	if w.onChange != nil {
		w.onChange(name, time.Now().UTC())
	}
}

// Stale reports whether any watched artifact changed since startup.
func (w *ArtifactWatcher) Stale() bool {
	return w.stale.Load()
}

func (w *ArtifactWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
