package texstream

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce groups bursts of file events (editors often write a file in
// several steps) into one invalidation.
const watchDebounce = 100 * time.Millisecond

// Watcher invalidates a System's cache when image files in a directory
// change, so the next request reloads them from disk.
//
// The watcher calls InvalidateAll from its own goroutine, which waits for the
// GPU goroutine to reclaim any earlier invalidation.
type Watcher struct {
	sys   *System
	watch *fsnotify.Watcher
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewWatcher starts watching dir on the host file system.
// dir is usually the same directory the System reads assets from.
func NewWatcher(sys *System, dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("texstream: watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("texstream: watch %s: %w", dir, err)
	}

	w := &Watcher{
		sys:   sys,
		watch: fw,
		done:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	slogger().Info("texstream: watching assets", "dir", dir)
	return w, nil
}

// run is the event loop.
func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watch.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slogger().Debug("texstream: asset changed", "name", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.sys.InvalidateAll()

		case err, ok := <-w.watch.Errors:
			if !ok {
				return
			}
			slogger().Warn("texstream: watcher error", "err", err)
		}
	}
}

// relevant reports whether event can change a cached texture.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.sys.Supported(event.Name)
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.watch.Close()
	})
	return err
}
