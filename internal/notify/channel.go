package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays visible after the latest Show.
const DefaultTTL = 3 * time.Second

// State is the observable content of the notification slot.
type State struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
	Visible bool   `json:"visible"`
}

// Channel is a single-slot notification holder. A new Show replaces the
// current notification and restarts its expiry; it never queues.
//
// Subscribers are called synchronously, in change order. A callback may read
// Current, Subscribe or cancel its own subscription, but must not call Show,
// Dispatch or Hide on the same channel.
type Channel struct {
	ttl time.Duration

	// changeMu serializes state changes together with their delivery. It is
	// always acquired before mu, never after.
	changeMu sync.Mutex

	mu     sync.Mutex
	state  State
	gen    uint64
	timer  *time.Timer
	subs   map[uint64]func(State)
	nextID uint64
	closed bool
}

// NewChannel returns a channel whose notifications expire after ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewChannel(ttl time.Duration) *Channel {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Channel{
		ttl:   ttl,
		state: State{Kind: KindSuccess},
		subs:  make(map[uint64]func(State)),
	}
}

// Show makes msg the visible notification and (re)starts the expiry timer.
func (c *Channel) Show(msg string, kind Kind) {
	if kind == "" {
		kind = KindSuccess
	}
	c.changeMu.Lock()
	defer c.changeMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.state = State{Message: msg, Kind: kind, Visible: true}
	c.timer = time.AfterFunc(c.ttl, func() { c.expire(gen) })
	snap, subs := c.snapshotLocked()
	c.mu.Unlock()

	deliver(subs, snap)
}

// Dispatch shows n unless it is the zero Notice.
func (c *Channel) Dispatch(n Notice) {
	if n.IsZero() {
		return
	}
	c.Show(n.Message, n.Kind)
}

// Hide clears the visible notification immediately.
func (c *Channel) Hide() { c.hide(0, false) }

// expire hides the notification only if no Show happened since the timer
// for generation gen was armed.
func (c *Channel) expire(gen uint64) { c.hide(gen, true) }

func (c *Channel) hide(gen uint64, onlyGen bool) {
	c.changeMu.Lock()
	defer c.changeMu.Unlock()

	c.mu.Lock()
	if onlyGen && gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	if !c.state.Visible {
		c.mu.Unlock()
		return
	}
	c.state.Visible = false
	snap, subs := c.snapshotLocked()
	c.mu.Unlock()

	deliver(subs, snap)
}

// snapshotLocked must be called with mu held.
func (c *Channel) snapshotLocked() (State, []func(State)) {
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return c.state, subs
}

func deliver(subs []func(State), st State) {
	for _, fn := range subs {
		fn(st)
	}
}

// Current returns the current slot content.
func (c *Channel) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for every subsequent change. The returned func
// removes the subscription.
func (c *Channel) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close stops any pending expiry. Later Show calls are ignored.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
