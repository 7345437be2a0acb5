package host

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/annogen/errors"
	"github.com/teranos/annogen/logger"
)

// DefaultDebounce collapses bursts of writes (editors, git checkouts) into
// one rerun.
const DefaultDebounce = 300 * time.Millisecond

// RunFunc performs one generation run and returns the paths it wrote.
type RunFunc func(ctx context.Context) (written []string, err error)

// Watcher reruns generation when Go sources under a directory change.
type Watcher struct {
	root     string
	run      RunFunc
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu        sync.Mutex
	generated map[string]bool
	timer     *time.Timer
	trigger   chan struct{}
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a rerun.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher watches every package directory under root. Hidden
// directories, vendor, testdata and directories starting with an
// underscore are skipped, matching what the go command ignores.
func NewWatcher(root string, run RunFunc, opts ...WatchOption) (*Watcher, error) {
	if run == nil {
		return nil, errors.NewInvalidArgumentError("watcher requires a run function")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	w := &Watcher{
		root:      root,
		run:       run,
		watcher:   fw,
		debounce:  DefaultDebounce,
		generated: make(map[string]bool),
		trigger:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}

	if _, err := w.addTree(root); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", root)
	}
	return w, nil
}

// addTree watches dir and every package directory below it, and reports
// whether it found hand-written Go sources along the way.
func (w *Watcher) addTree(dir string) (sources bool, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if filepath.Ext(path) == ".go" && !w.isGenerated(path) {
				sources = true
			}
			return nil
		}
		if path != w.root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	return sources, err
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "vendor" || name == "testdata"
}

// Watch runs once, then reruns after every relevant change until ctx is
// done. Run errors are logged and do not stop watching.
func (w *Watcher) Watch(ctx context.Context) error {
	defer w.watcher.Close()
	log := logger.ComponentLogger("watch")

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if skipDir(filepath.Base(event.Name)) {
					continue
				}
				// files may land before the directory is watched
				sources, err := w.addTree(event.Name)
				if err != nil {
					log.Debugw("Failed to watch new directory",
						logger.FieldFile, event.Name,
						logger.FieldError, err.Error())
				}
				if sources {
					w.schedule()
				}
				continue
			}
			if !w.relevant(event) {
				continue
			}
			log.Debugw("Source changed",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("Watcher error", logger.FieldError, err.Error())

		case <-w.trigger:
			w.runOnce(ctx)
		}
	}
}

// relevant filters events down to edits of hand-written Go sources.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if filepath.Ext(event.Name) != ".go" {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return !w.isGenerated(event.Name)
}

func (w *Watcher) isGenerated(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generated[filepath.Clean(path)]
}

// schedule debounces rapid changes into a single rerun.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) runOnce(ctx context.Context) {
	start := time.Now()
	written, err := w.run(ctx)

	w.mu.Lock()
	for _, p := range written {
		w.generated[filepath.Clean(p)] = true
	}
	w.mu.Unlock()

	if err != nil {
		logger.Errorw("Generation run failed", logger.FieldError, err.Error())
		return
	}
	logger.Infow("Generation run finished",
		logger.FieldCount, len(written),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
}

// Close stops watching without waiting for Watch to return.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
