package definition

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/eradiate-pp/errors"
	"github.com/kbukum/eradiate-pp/logger"
	"github.com/kbukum/eradiate-pp/util"
)

// DefaultDebounce is how long a Watcher waits for further changes before
// reporting.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reports changes to definition files below a set of directories.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	log      *logger.Logger
}

// NewWatcher watches dirs and their subdirectories. Directories that do not
// exist are skipped; at least one must exist.
func NewWatcher(debounce time.Duration, dirs ...string) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Internal("creating file watcher", err)
	}
	w := &Watcher{fsw: fsw, debounce: debounce, log: logger.Get("definition")}

	watched := 0
	for _, dir := range dirs {
		n, err := w.addRecursive(dir)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		watched += n
	}
	if watched == 0 {
		fsw.Close()
		return nil, errors.InvalidInput("dirs", "no existing directory to watch").
			WithDetail("dirs", dirs)
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Internal("watching "+path, err)
		}
		n++
		return nil
	})
	return n, err
}

// Run calls fn with the sorted names of the definitions created, written,
// removed or renamed within each debounce window. It blocks until ctx is
// done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, fn func(names []string)) error {
	pending := make(map[string]struct{})
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
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if _, err := w.addRecursive(ev.Name); err != nil {
						w.log.Warn("cannot watch new directory", logger.ErrorFields("watch", err))
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name, ok := definitionName(ev.Name)
			if !ok {
				continue
			}
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", logger.ErrorFields("watch", err))

		case <-fire:
			names := util.SortedKeys(pending)
			clear(pending)
			timer, fire = nil, nil
			w.log.Debug("definitions changed", logger.Fields("names", names))
			fn(names)
		}
	}
}

// Close stops watching. A running Run returns.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func definitionName(path string) (string, bool) {
	base := filepath.Base(path)
	for _, ext := range []string{".yaml", ".yml"} {
		if name, ok := strings.CutSuffix(base, ext); ok && name != "" {
			return name, true
		}
	}
	return "", false
}
