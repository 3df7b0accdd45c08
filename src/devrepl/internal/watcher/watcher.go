// Package watcher hot-patches scripted types when their source files change on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/uber/devrepl/src/devrepl/controller/hotpatch"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyManifest = "typespace.manifest"
	_configKeyWatch    = "typespace.watch"

	_scriptExt       = ".lua"
	_debounceTimeout = 200 * time.Millisecond
)

// Module watches the script directory of the type manifest.
var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(func(Watcher) {}),
)

// Watcher reports the directory being watched.
type Watcher interface {
	// Dir is the watched directory, or empty when watching is disabled.
	Dir() string
}

// Params are the inbound parameters of New.
type Params struct {
	fx.In

	Config    config.Provider
	FS        fs.DevreplFS
	HotPatch  hotpatch.Controller
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
}

type watcher struct {
	dir      string
	fs       fs.DevreplFS
	hotpatch hotpatch.Controller
	logger   *zap.SugaredLogger
	debounce time.Duration

	fsw    *fsnotify.Watcher
	closer chan struct{}
	done   chan struct{}

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer
	pending        sync.WaitGroup
}

// New creates a Watcher for the directory holding the type manifest. Watching starts on fx start
// when typespace.watch is set and a manifest is configured.
func New(p Params) (Watcher, error) {
	var enabled bool
	if err := p.Config.Get(_configKeyWatch).Populate(&enabled); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyWatch, err)
	}
	var manifest string
	if err := p.Config.Get(_configKeyManifest).Populate(&manifest); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyManifest, err)
	}

	w := &watcher{
		fs:             p.FS,
		hotpatch:       p.HotPatch,
		logger:         p.Logger,
		debounce:       _debounceTimeout,
		debounceTimers: make(map[string]*time.Timer),
	}
	if !enabled || manifest == "" {
		return w, nil
	}
	w.dir = filepath.Dir(manifest)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher for scripts: %w", err)
	}
	w.fsw = fsw

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := w.fsw.Add(w.dir); err != nil {
				w.fsw.Close()
				return fmt.Errorf("watching %s: %w", w.dir, err)
			}
			w.closer = make(chan struct{})
			w.done = make(chan struct{})
			go w.handleChanges()
			w.logger.Infow("watching type scripts", "dir", w.dir)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if w.closer == nil {
				return nil
			}
			close(w.closer)
			<-w.done
			w.pending.Wait()
			return nil
		},
	})
	return w, nil
}

func (w *watcher) Dir() string {
	return w.dir
}

func (w *watcher) handleChanges() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.handleDebounce(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("Failure in script change watcher: %v", err)

		case <-w.closer:
			w.debounceMu.Lock()
			for name, timer := range w.debounceTimers {
				if timer.Stop() {
					w.pending.Done()
				}
				delete(w.debounceTimers, name)
			}
			w.debounceMu.Unlock()

			if err := w.fsw.Close(); err != nil {
				w.logger.Warnf("Failed to close script change watcher: %v", err)
			}
			return
		}
	}
}

// handleDebounce coalesces bursts of events for one file into a single reload.
func (w *watcher) handleDebounce(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, _scriptExt) {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[event.Name]; exists {
		if timer.Stop() {
			w.pending.Done()
		}
	}

	w.pending.Add(1)
	w.debounceTimers[event.Name] = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		w.debounceMu.Lock()
		delete(w.debounceTimers, event.Name)
		w.debounceMu.Unlock()

		w.reload(event.Name)
	})
}

// reload submits the current content of path to the hot-patch engine.
func (w *watcher) reload(path string) *entity.HotPatchResult {
	src, err := w.fs.ReadFile(path)
	if err != nil {
		w.logger.Warnw("reading changed script", "path", path, zap.Error(err))
		return nil
	}

	res := w.hotpatch.HotPatch(context.Background(), string(src))
	if res.Success {
		w.logger.Infow("script hot-patched", "path", path, "types", res.Updated, "skipped", res.Skipped)
	} else {
		w.logger.Warnw("script hot-patch failed", "path", path, "error", res.Error, "skipped", res.Skipped)
	}
	return res
}
