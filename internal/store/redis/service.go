package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
)

// maxTxAttempts bounds the retries of a write that lost a race with
// another writer.
const maxTxAttempts = 16

// record is the persisted form of a node. Children live in their own list.
type record struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
}

func (r *record) isFolder() bool { return r.URL == "" }

// reader is what tree reads need; both the client and a watched
// transaction provide it.
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// Store is a bookmark store backed by Redis. Change events are published
// on ChannelEvents so every process sharing the database sees them.
//
// Every write is an optimistic transaction: it watches KeyVersion, reads
// what it needs, then commits its changes together with a version bump.
// A write that raced with another process is retried from the start.
type Store struct {
	client *redis.Client
	log    logger.Logger
	// mu serializes the writes of this process so they do not retry
	// against each other.
	mu sync.Mutex
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		log:    log,
	}
}

var _ store.Adapter = (*Store)(nil)

// Init creates the permanent root folders when they are missing.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.client.Exists(ctx, NodeKey(store.RootID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check root: %w", err)
	}
	if exists == 1 {
		return nil
	}

	roots := []*record{
		{ID: store.RootID},
		{ID: store.BookmarkBarID, ParentID: store.RootID, Title: "Bookmarks bar"},
		{ID: store.OtherBookmarks, ParentID: store.RootID, Title: "Other bookmarks"},
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range roots {
			if err := setRecord(ctx, pipe, r); err != nil {
				return err
			}
		}
		writeChildren(ctx, pipe, store.RootID, []string{store.BookmarkBarID, store.OtherBookmarks})
		// Ids 0-2 are reserved; INCR hands out 3 next
		pipe.SetNX(ctx, KeySequence, 2, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to init roots: %w", err)
	}
	return nil
}

// GetTree retrieves the full hierarchy from Redis
func (s *Store) GetTree(ctx context.Context) (*store.Node, error) {
	return s.GetSubTree(ctx, store.RootID)
}

// GetSubTree retrieves the hierarchy rooted at id
func (s *Store) GetSubTree(ctx context.Context, id string) (*store.Node, error) {
	r, err := getRecord(ctx, s.client, id)
	if err != nil {
		return nil, err
	}
	return build(ctx, s.client, r, true)
}

// Get retrieves a single node from Redis by ID
func (s *Store) Get(ctx context.Context, id string) (*store.Node, error) {
	r, err := getRecord(ctx, s.client, id)
	if err != nil {
		return nil, err
	}
	return build(ctx, s.client, r, false)
}

// Create stores a new folder or link
func (s *Store) Create(ctx context.Context, details store.CreateDetails) (*store.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if details.ParentID == store.RootID {
		return nil, fmt.Errorf("create under root: %w", store.ErrInvalid)
	}

	var node *store.Node
	err := s.write(ctx, func(tx *redis.Tx) error {
		parent, err := getRecord(ctx, tx, details.ParentID)
		if err != nil {
			return fmt.Errorf("create under %q: %w", details.ParentID, err)
		}
		if !parent.isFolder() {
			return fmt.Errorf("create under link %q: %w", details.ParentID, store.ErrInvalid)
		}

		seq, err := tx.Incr(ctx, KeySequence).Result()
		if err != nil {
			return fmt.Errorf("failed to allocate id: %w", err)
		}
		r := &record{
			ID:       strconv.FormatInt(seq, 10),
			ParentID: parent.ID,
			Title:    details.Title,
			URL:      details.URL,
		}

		siblings, err := children(ctx, tx, parent.ID)
		if err != nil {
			return err
		}
		siblings = insertAt(siblings, r.ID, details.Index)

		if err := commit(ctx, tx, func(pipe redis.Pipeliner) error {
			if err := setRecord(ctx, pipe, r); err != nil {
				return err
			}
			writeChildren(ctx, pipe, parent.ID, siblings)
			return nil
		}); err != nil {
			return err
		}
		node = toNode(r, indexOf(siblings, r.ID))
		return nil
	})
	if err != nil {
		return nil, wrapWrite("save node", err)
	}

	s.publish(ctx, store.Created(node))
	return node, nil
}

// Update changes title and/or url of a node
func (s *Store) Update(ctx context.Context, id string, changes store.Changes) (*store.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if isPermanent(id) {
		return nil, fmt.Errorf("update permanent node %s: %w", id, store.ErrInvalid)
	}

	var r *record
	err := s.write(ctx, func(tx *redis.Tx) error {
		var err error
		if r, err = getRecord(ctx, tx, id); err != nil {
			return err
		}
		if changes.URL != nil && (r.isFolder() || *changes.URL == "") {
			return fmt.Errorf("invalid url change on %s: %w", id, store.ErrInvalid)
		}
		if changes.Title != nil {
			r.Title = *changes.Title
		}
		if changes.URL != nil {
			r.URL = *changes.URL
		}
		return commit(ctx, tx, func(pipe redis.Pipeliner) error {
			return setRecord(ctx, pipe, r)
		})
	})
	if err != nil {
		return nil, wrapWrite("save node", err)
	}

	node, err := build(ctx, s.client, r, false)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, store.Changed(node))
	return node, nil
}

// Remove deletes a link or an empty folder
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.remove(ctx, id, false)
}

// RemoveTree deletes a node and its subtree
func (s *Store) RemoveTree(ctx context.Context, id string) error {
	return s.remove(ctx, id, true)
}

func (s *Store) remove(ctx context.Context, id string, recursive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if isPermanent(id) {
		return fmt.Errorf("remove permanent node %s: %w", id, store.ErrInvalid)
	}

	var (
		node     *store.Node
		parentID string
		index    int
	)
	err := s.write(ctx, func(tx *redis.Tx) error {
		r, err := getRecord(ctx, tx, id)
		if err != nil {
			return err
		}
		if node, err = build(ctx, tx, r, true); err != nil {
			return err
		}
		if !recursive && len(node.Children) > 0 {
			return fmt.Errorf("remove %s: %w", id, store.ErrNotEmpty)
		}

		siblings, err := children(ctx, tx, r.ParentID)
		if err != nil {
			return err
		}
		parentID = r.ParentID
		index = indexOf(siblings, id)
		siblings = removeID(siblings, id)

		return commit(ctx, tx, func(pipe redis.Pipeliner) error {
			deleteSubtree(ctx, pipe, node)
			writeChildren(ctx, pipe, parentID, siblings)
			return nil
		})
	})
	if err != nil {
		return wrapWrite("delete node", err)
	}

	s.publish(ctx, store.Removed(node, parentID, index))
	return nil
}

// Move re-parents and/or reorders a node
func (s *Store) Move(ctx context.Context, id string, dest store.Destination) (*store.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if isPermanent(id) {
		return nil, fmt.Errorf("move permanent node %s: %w", id, store.ErrInvalid)
	}

	var (
		r               *record
		oldParentID     string
		oldIndex, index int
	)
	err := s.write(ctx, func(tx *redis.Tx) error {
		var err error
		if r, err = getRecord(ctx, tx, id); err != nil {
			return err
		}

		parentID := dest.ParentID
		if parentID == "" {
			parentID = r.ParentID
		}
		if parentID == store.RootID {
			return fmt.Errorf("move %s under root: %w", id, store.ErrInvalid)
		}
		newParent, err := getRecord(ctx, tx, parentID)
		if err != nil {
			return fmt.Errorf("move %s under %q: %w", id, parentID, err)
		}
		if !newParent.isFolder() {
			return fmt.Errorf("move %s under link %q: %w", id, parentID, store.ErrInvalid)
		}
		if inside, err := isAncestor(ctx, tx, id, parentID); err != nil {
			return err
		} else if inside {
			return fmt.Errorf("move %s under its own descendant %s: %w", id, parentID, store.ErrInvalid)
		}

		oldSiblings, err := children(ctx, tx, r.ParentID)
		if err != nil {
			return err
		}
		oldIndex = indexOf(oldSiblings, id)
		oldSiblings = removeID(oldSiblings, id)

		newSiblings := oldSiblings
		if parentID != r.ParentID {
			if newSiblings, err = children(ctx, tx, parentID); err != nil {
				return err
			}
		}
		newSiblings = insertAt(newSiblings, id, dest.Index)

		oldParentID = r.ParentID
		r.ParentID = parentID
		index = indexOf(newSiblings, id)

		return commit(ctx, tx, func(pipe redis.Pipeliner) error {
			if err := setRecord(ctx, pipe, r); err != nil {
				return err
			}
			if oldParentID != parentID {
				writeChildren(ctx, pipe, oldParentID, oldSiblings)
			}
			writeChildren(ctx, pipe, parentID, newSiblings)
			return nil
		})
	})
	if err != nil {
		return nil, wrapWrite("move node", err)
	}

	s.publish(ctx, store.Moved(id, oldParentID, oldIndex, r.ParentID, index))
	return toNode(r, index), nil
}

// write runs fn as an optimistic transaction on KeyVersion, retrying when
// another writer committed first.
func (s *Store) write(ctx context.Context, fn func(tx *redis.Tx) error) error {
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, fn, KeyVersion)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.log.Debug("redis write raced with another writer, retrying", logger.Int("attempt", attempt))
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxTxAttempts, redis.TxFailedErr)
}

// commit applies the queued writes and bumps KeyVersion atomically. It
// fails with redis.TxFailedErr when KeyVersion changed since WATCH.
func commit(ctx context.Context, tx *redis.Tx, queue func(redis.Pipeliner) error) error {
	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := queue(pipe); err != nil {
			return err
		}
		pipe.Incr(ctx, KeyVersion)
		return nil
	})
	return err
}

// wrapWrite keeps store sentinel errors recognizable and labels the rest.
func wrapWrite(action string, err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalid) || errors.Is(err, store.ErrNotEmpty) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// Subscribe listens on the events channel until ctx is done.
func (s *Store) Subscribe(ctx context.Context) (<-chan store.Event, error) {
	pubsub := s.client.Subscribe(ctx, ChannelEvents)
	// Wait for confirmation so no event published after return is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	out := make(chan store.Event, store.DefaultEventBuffer)
	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev store.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					// Foreign payload on our channel
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// publish announces a committed change. A lost event is logged, not
// returned: the write itself succeeded and subscribers catch up on their
// next full read.
func (s *Store) publish(ctx context.Context, ev store.Event) {
	data, err := json.Marshal(ev)
	if err == nil {
		err = s.client.Publish(ctx, ChannelEvents, data).Err()
	}
	if err != nil {
		s.log.Warn("⚠️ failed to publish store event",
			logger.String("event", ev.String()),
			logger.Error(err))
	}
}

func getRecord(ctx context.Context, c reader, id string) (*record, error) {
	data, err := c.Get(ctx, NodeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("node %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return &r, nil
}

func children(ctx context.Context, c reader, id string) ([]string, error) {
	ids, err := c.LRange(ctx, ChildrenKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get children of %s: %w", id, err)
	}
	return ids, nil
}

func build(ctx context.Context, c reader, r *record, withChildren bool) (*store.Node, error) {
	index := 0
	if r.ParentID != "" {
		siblings, err := children(ctx, c, r.ParentID)
		if err != nil {
			return nil, err
		}
		index = indexOf(siblings, r.ID)
	}
	if !withChildren {
		return toNode(r, index), nil
	}
	return buildChildren(ctx, c, r, index)
}

// buildChildren builds r and its subtree; index is r's position in its parent.
func buildChildren(ctx context.Context, c reader, r *record, index int) (*store.Node, error) {
	n := toNode(r, index)
	if !r.isFolder() {
		return n, nil
	}
	ids, err := children(ctx, c, r.ID)
	if err != nil {
		return nil, err
	}
	n.Children = make([]*store.Node, 0, len(ids))
	for i, cid := range ids {
		cr, err := getRecord(ctx, c, cid)
		if err != nil {
			continue
		}
		child, err := buildChildren(ctx, c, cr, i)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func isAncestor(ctx context.Context, c reader, ancestor, target string) (bool, error) {
	for cur := target; cur != ""; {
		if cur == ancestor {
			return true, nil
		}
		r, err := getRecord(ctx, c, cur)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		cur = r.ParentID
	}
	return false, nil
}

func setRecord(ctx context.Context, c redis.Cmdable, r *record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal node %s: %w", r.ID, err)
	}
	return c.Set(ctx, NodeKey(r.ID), data, 0).Err()
}

func writeChildren(ctx context.Context, pipe redis.Pipeliner, id string, ids []string) {
	pipe.Del(ctx, ChildrenKey(id))
	if len(ids) == 0 {
		return
	}
	values := make([]interface{}, len(ids))
	for i, v := range ids {
		values[i] = v
	}
	pipe.RPush(ctx, ChildrenKey(id), values...)
}

func deleteSubtree(ctx context.Context, pipe redis.Pipeliner, n *store.Node) {
	for _, c := range n.Children {
		deleteSubtree(ctx, pipe, c)
	}
	pipe.Del(ctx, NodeKey(n.ID), ChildrenKey(n.ID))
}

func toNode(r *record, index int) *store.Node {
	return &store.Node{
		ID:       r.ID,
		ParentID: r.ParentID,
		Index:    index,
		Title:    r.Title,
		URL:      r.URL,
	}
}

func isPermanent(id string) bool {
	return id == store.RootID || id == store.BookmarkBarID || id == store.OtherBookmarks
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertAt(ids []string, id string, at *int) []string {
	index := store.Position(at, len(ids))
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	return append(out, ids[index:]...)
}
