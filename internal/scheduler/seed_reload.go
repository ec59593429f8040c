package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/bookmarko/internal/debounce"
	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/sources"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
)

// pathLoader is a loader backed by a single file that can be watched.
type pathLoader interface {
	Path() string
}

// SeedReloader merges a seed file into the store: once on start, then on
// every tick, manual trigger or (when watching) file change.
type SeedReloader struct {
	loader        sources.Loader
	store         store.Adapter
	root          string
	logger        logger.Logger
	interval      time.Duration
	watch         bool
	debouncer     *debounce.Debouncer
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger <-chan struct{}

	reloadMu sync.Mutex
}

// NewSeedReloader creates a new seed reloader. A zero interval disables
// periodic reloads.
func NewSeedReloader(
	loader sources.Loader,
	st store.Adapter,
	root string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *SeedReloader {
	return &SeedReloader{
		loader:        loader,
		store:         st,
		root:          root,
		logger:        log.With(logger.String("source", loader.Name())),
		interval:      interval,
		debouncer:     debounce.New(debounce.DefaultDelay),
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Watch enables file watching; write bursts are coalesced with delay.
// Only loaders reading a single file can be watched.
func (sr *SeedReloader) Watch(delay time.Duration) error {
	if _, ok := sr.loader.(pathLoader); !ok {
		return fmt.Errorf("%s loader has no file to watch", sr.loader.Name())
	}
	sr.watch = true
	sr.debouncer = debounce.New(delay)
	return nil
}

// Start begins the periodic reload process
func (sr *SeedReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := sr.Reload(ctx); err != nil {
		return fmt.Errorf("initial seed reload failed: %w", err)
	}

	var watcher *fsnotify.Watcher
	if sr.watch {
		w, err := sr.newWatcher()
		if err != nil {
			return err
		}
		watcher = w
	}

	go func() {
		defer sr.debouncer.Stop()

		var events <-chan fsnotify.Event
		var watchErrs <-chan error
		if watcher != nil {
			defer func() { _ = watcher.Close() }()
			events, watchErrs = watcher.Events, watcher.Errors
		}

		var tick <-chan time.Time
		if sr.interval > 0 {
			ticker := time.NewTicker(sr.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				sr.reloadAndLog(ctx)
			case <-sr.manualTrigger:
				sr.logger.Info("🔄 manual seed reload triggered")
				sr.reloadAndLog(ctx)
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if sr.relevant(ev) {
					sr.debouncer.Trigger(func() { sr.reloadAndLog(ctx) })
				}
			case err, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
					continue
				}
				sr.logger.Warn("seed file watch error", logger.Error(err))
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (sr *SeedReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
}

// Reload loads the seed and merges what is missing into the store.
func (sr *SeedReloader) Reload(ctx context.Context) error {
	sr.reloadMu.Lock()
	defer sr.reloadMu.Unlock()

	name := sr.loader.Name()
	sr.logger.Info("reloading seed")

	seed, err := sr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load %s seed: %w", name, err)
	}

	stats, err := sources.Merge(ctx, sr.store, sr.root, seed)
	if err != nil {
		return fmt.Errorf("failed to merge %s seed: %w", name, err)
	}

	if stats.Columns > 0 || stats.Bookmarks > 0 {
		sr.logger.Info("✅ seed merged",
			logger.Int("columns_created", stats.Columns),
			logger.Int("bookmarks_created", stats.Bookmarks))
	} else {
		sr.logger.Debug("seed already up to date", logger.Int("bookmarks", seed.Count()))
	}

	return nil
}

func (sr *SeedReloader) reloadAndLog(ctx context.Context) {
	if err := sr.Reload(ctx); err != nil {
		sr.logger.Error("❌ failed to reload seed", logger.Error(err))
	}
}

// newWatcher watches the parent directory, editors usually replace the file
// instead of writing it in place.
func (sr *SeedReloader) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(sr.path())
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	sr.logger.Info("👀 watching seed file", logger.String("path", sr.path()))
	return w, nil
}

func (sr *SeedReloader) path() string {
	return filepath.Clean(sr.loader.(pathLoader).Path())
}

func (sr *SeedReloader) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != sr.path() {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
