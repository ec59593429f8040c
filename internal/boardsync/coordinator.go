// Package boardsync keeps the board model in step with the bookmark store.
//
// The Coordinator is the only owner of the model. Store change events,
// full resyncs, drops and local recolors all mutate it under one mutex,
// each running to completion before the next starts.
package boardsync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MrSnakeDoc/bookmarko/internal/board"
	"github.com/MrSnakeDoc/bookmarko/internal/domain"
	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
	"github.com/MrSnakeDoc/bookmarko/internal/validation"
)

// Options configure a Coordinator.
type Options struct {
	// Root is the watched folder id. Defaults to the bookmark bar.
	Root string
	// Colors feeds newly observed ids. Defaults to domain.RandomColor.
	Colors domain.ColorSource
	// Reconcile selects the event handling policy.
	Reconcile board.Options
}

// DefaultOptions watches the bookmark bar with the invariant-preserving
// reconciler.
func DefaultOptions() Options {
	return Options{
		Root:      store.BookmarkBarID,
		Colors:    domain.RandomColor,
		Reconcile: board.DefaultOptions(),
	}
}

// Coordinator owns the board model.
type Coordinator struct {
	store store.Adapter
	rec   *board.Reconciler
	root  string
	valid *validation.Validator
	log   logger.Logger

	resyncCh chan struct{}
	running  atomic.Bool

	mu      sync.Mutex
	model   *board.Model
	ready   bool
	pending map[string]string // dropped id -> parent the store move will report

	subsMu  sync.Mutex
	subs    map[int]Listener
	nextSub int
}

// New creates a coordinator. The model stays empty until the first Resync.
func New(st store.Adapter, v *validation.Validator, log logger.Logger, opts Options) *Coordinator {
	if opts.Root == "" {
		opts.Root = store.BookmarkBarID
	}
	if v == nil {
		v = validation.New()
	}
	return &Coordinator{
		store:    st,
		rec:      board.NewReconciler(opts.Root, opts.Colors, opts.Reconcile),
		root:     opts.Root,
		valid:    v,
		log:      log,
		resyncCh: make(chan struct{}, 1),
		model:    board.NewModel(),
		pending:  make(map[string]string),
		subs:     make(map[int]Listener),
	}
}

// Root returns the watched folder id.
func (c *Coordinator) Root() string { return c.root }

// Ready reports whether the model has been loaded at least once.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Snapshot returns a deep copy of the model.
func (c *Coordinator) Snapshot() *board.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Clone()
}

// View returns the filtered board for query.
func (c *Coordinator) View(query string) board.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return board.Filter(c.model, query)
}

// Resync rebuilds the model from the store. Colors of known ids are kept.
func (c *Coordinator) Resync(ctx context.Context) error {
	tree, err := c.store.GetSubTree(ctx, c.root)
	if err != nil {
		c.log.Error("❌ Board resync failed", logger.String("root", c.root), logger.Error(err))
		return fmt.Errorf("failed to read watched root %s: %w", c.root, err)
	}

	c.mu.Lock()
	c.model = board.FlattenKeepingColors(tree, c.model, c.rec.Colors)
	c.ready = true
	clear(c.pending)
	cols, marks := len(c.model.Columns), len(c.model.Bookmarks)
	c.publishLocked()
	c.mu.Unlock()

	c.log.Info("🔄 Board resynced",
		logger.Int("columns", cols),
		logger.Int("bookmarks", marks),
	)
	return nil
}

// RequestResync asks the running event loop for a full resync. Requests
// made while one is already queued are merged.
func (c *Coordinator) RequestResync() {
	select {
	case c.resyncCh <- struct{}{}:
	default:
	}
}

// Run subscribes to the store, loads the model and applies change events
// one at a time until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	events, err := c.store.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to store events: %w", err)
	}
	if err := c.Resync(ctx); err != nil {
		return err
	}
	c.running.Store(true)
	defer c.running.Store(false)

	c.log.Info("👂 Listening for bookmark changes", logger.String("root", c.root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.resyncCh:
			_ = c.Resync(ctx)
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("store event stream closed")
			}
			c.Apply(ctx, ev)
		}
	}
}

// Apply handles one store change event.
func (c *Coordinator) Apply(ctx context.Context, ev store.Event) board.Outcome {
	c.mu.Lock()
	if ev.Kind == store.EventMoved && c.confirmLocked(ev) {
		c.mu.Unlock()
		c.log.Debug("Drop confirmed by store", logger.String("event", ev.String()))
		return board.Outcome{}
	}
	out := c.rec.Apply(c.model, ev)
	if out.Changed {
		c.publishLocked()
	}
	c.mu.Unlock()

	switch {
	case out.Miss:
		c.log.Debug("Event outside the board", logger.String("event", ev.String()))
	case len(out.Dropped) > 0:
		c.log.Debug("Bookmarks left the board",
			logger.String("event", ev.String()),
			logger.Strings("ids", out.Dropped),
		)
	}

	if out.Fetch != "" {
		c.fetch(ctx, out.Fetch)
	}
	if out.Realign != "" {
		c.realign(ctx, out.Realign)
	}
	if out.Resync {
		_ = c.Resync(ctx)
	}
	return out
}

// confirmLocked reports whether ev is the store echo of a local drop.
func (c *Coordinator) confirmLocked(ev store.Event) bool {
	parent, ok := c.pending[ev.ID]
	if !ok {
		return false
	}
	delete(c.pending, ev.ID)
	return parent == ev.ParentID
}

// fetch reads a node that moved into scope and adopts it.
func (c *Coordinator) fetch(ctx context.Context, id string) {
	node, err := c.store.GetSubTree(ctx, id)
	if err != nil {
		c.log.Warn("Failed to fetch node moved into board", logger.String("id", id), logger.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if out := c.rec.Adopt(c.model, node); out.Changed {
		c.publishLocked()
	}
}

// realign orders a column like its folder's links in the store.
func (c *Coordinator) realign(ctx context.Context, id string) {
	folder, err := c.store.GetSubTree(ctx, id)
	if err != nil {
		c.log.Warn("Failed to read column for realign", logger.String("id", id), logger.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if out := c.rec.Realign(c.model, folder); out.Changed {
		c.publishLocked()
	}
}

// CheckDrift compares the store with the model and resyncs when their
// column and bookmark layouts differ. It reports whether a drift was found.
func (c *Coordinator) CheckDrift(ctx context.Context) (bool, error) {
	tree, err := c.store.GetSubTree(ctx, c.root)
	if err != nil {
		return false, fmt.Errorf("failed to read watched root %s: %w", c.root, err)
	}

	c.mu.Lock()
	want := board.ShapeOf(tree)
	got := c.model.Shape()
	orphans := len(c.model.Orphans())
	c.mu.Unlock()

	if want.Equal(got) && orphans == 0 {
		return false, nil
	}

	c.log.Warn("⚠️ Board drifted from store, resyncing",
		logger.Int("store_columns", len(want)),
		logger.Int("board_columns", len(got)),
		logger.Int("orphans", orphans),
	)
	// Resync from the event loop when it runs so no event is applied to
	// a model that a concurrent resync is about to replace.
	if c.running.Load() {
		c.RequestResync()
		return true, nil
	}
	if err := c.Resync(ctx); err != nil {
		return true, err
	}
	return true, nil
}
