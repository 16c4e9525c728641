package docload

import (
	"github.com/fsnotify/fsnotify"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/logger"
	"github.com/mstgnz/flatsql/store"
)

// Watcher reloads a document into its Store whenever the backing file
// changes on disk, publishing a new Database snapshot without affecting
// queries already in flight against the previous one.
type Watcher struct {
	path    string
	store   *store.Store
	log     *logger.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching path for writes and publishing reloaded
// snapshots into s. Callers that did not enable the hot-reload config
// flag never construct a Watcher at all — reload stays purely opt-in.
func Watch(path string, s *store.Store, log *logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, flaterr.New(flaterr.ErrTypeIO, "starting document watcher", err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, flaterr.New(flaterr.ErrTypeIO, "watching document "+path, err)
	}

	w := &Watcher{path: path, store: s, log: log, watcher: fw, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("document watcher error", map[string]interface{}{"error": err.Error()})
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	db, err := Load(w.path)
	if err != nil {
		w.log.Error("document reload failed, keeping previous snapshot", map[string]interface{}{
			"path":  w.path,
			"error": err.Error(),
		})
		return
	}
	w.store.Publish(db)
	w.log.Info("document reloaded", map[string]interface{}{"path": w.path, "database": db.Name})
}

// Close stops the watcher goroutine and releases the underlying fd.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
