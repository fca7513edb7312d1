package config

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/phase/engine/core"
)

// Watcher reloads a config file whenever it is written and publishes the
// result on Updates. Only the most recent valid config is kept if the
// consumer falls behind.
type Watcher struct {
	path     string
	fsnotify *fsnotify.Watcher
	updates  chan *Config
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// Watch starts watching path. The parent directory is watched rather than
// the file itself so that editors replacing the file are noticed too.
func Watch(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", path)
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating fsnotify watcher")
	}
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, errors.Wrapf(err, "watching %s", filepath.Dir(abs))
	}

	w := &Watcher{
		path:     abs,
		fsnotify: fsWatch,
		updates:  make(chan *Config, 1),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.start()
	return w, nil
}

// Updates delivers reloaded configurations. It is closed by Close.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

func (w *Watcher) Close() error {
	w.once.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
	return nil
}

func (w *Watcher) start() {
	defer w.wg.Done()
	w.run(w.fsnotify.Events, w.fsnotify.Errors, w.fsnotify)
}

// run consumes events until done is closed or either channel closes. Every
// exit releases notify and closes updates.
func (w *Watcher) run(events <-chan fsnotify.Event, errs <-chan error, notify io.Closer) {
	defer close(w.updates)
	defer notify.Close()
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogWarn("ignoring config reload: %s", err)
				continue
			}
			core.LogInfo("config %s reloaded", w.path)
			w.publish(cfg)

		case err, ok := <-errs:
			if !ok {
				return
			}
			core.LogError("config watcher: %s", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) publish(cfg *Config) {
	// drop a stale pending config, last write wins
	select {
	case <-w.updates:
	default:
	}
	w.updates <- cfg
}
