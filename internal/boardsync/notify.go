package boardsync

import "github.com/MrSnakeDoc/bookmarko/internal/board"

// NoticeLevel classifies a user-facing notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a short message for the user, shown as a toast.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Update is delivered to listeners. Exactly one of Model and Notice is set.
// Model is a copy of the coordinator's model shared by all listeners of the
// same update; listeners may keep it but must not modify it.
type Update struct {
	Model  *board.Model `json:"model,omitempty"`
	Notice *Notice      `json:"notice,omitempty"`
}

// Listener receives updates in mutation order. It runs while the
// coordinator is locked and must not call back into it; hand the update
// off to another goroutine instead.
type Listener func(Update)

// Subscribe registers fn and returns a function that unregisters it.
func (c *Coordinator) Subscribe(fn Listener) func() {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

// Subscribers returns the number of registered listeners.
func (c *Coordinator) Subscribers() int {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	return len(c.subs)
}

// publishLocked sends a copy of the model to every listener. c.mu is held.
func (c *Coordinator) publishLocked() {
	c.broadcast(Update{Model: c.model.Clone()})
}

func (c *Coordinator) notify(level NoticeLevel, msg string) {
	c.broadcast(Update{Notice: &Notice{Level: level, Message: msg}})
}

func (c *Coordinator) broadcast(u Update) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, fn := range c.subs {
		fn(u)
	}
}
