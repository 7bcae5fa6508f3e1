package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-backend/internal/catalog"
	"storefront-backend/internal/notify"
	"storefront-backend/internal/persist"
)

// ErrInvalidID is returned for session ids that are not UUIDs.
var ErrInvalidID = errors.New("session: invalid session id")

// NotificationSink receives every visible notification raised in any session.
type NotificationSink interface {
	Notify(sessionID string, st notify.State)
}

// Options configures a Manager. Store and Sink are optional. A zero
// CatalogTTL keeps a loaded catalog until it is invalidated; a zero
// IdleTimeout never evicts sessions.
type Options struct {
	Catalog         catalog.Source
	CatalogTTL      time.Duration
	Store           persist.Store
	Sink            NotificationSink
	NotificationTTL time.Duration
	IdleTimeout     time.Duration
	Logger          *zap.Logger
}

// Manager is the registry of live sessions. Sessions idle for longer than
// IdleTimeout are evicted; evicted sessions and sessions lost in a restart
// are rebuilt from their persisted snapshots on next use.
type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session

	stop      chan struct{}
	closeOnce sync.Once
	sweeper   sync.WaitGroup
}

// NewManager returns a Manager and, when IdleTimeout is set, starts its
// eviction sweeper. Close stops it.
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := &Manager{opts: opts, sessions: make(map[string]*Session), stop: make(chan struct{})}
	if opts.IdleTimeout > 0 {
		m.sweeper.Add(1)
		go m.sweep()
	}
	return m
}

func (m *Manager) sweep() {
	defer m.sweeper.Done()
	interval := m.opts.IdleTimeout / 2
	if interval <= 0 {
		interval = m.opts.IdleTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			if n := m.evictIdle(now); n > 0 {
				m.opts.Logger.Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// evictIdle drops every session unused for longer than IdleTimeout at now.
func (m *Manager) evictIdle(now time.Time) int {
	var idle []string
	m.mu.RLock()
	for id, s := range m.sessions {
		if s.idleSince(now) > m.opts.IdleTimeout {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()
	for _, id := range idle {
		m.Drop(id)
	}
	return len(idle)
}

// Create starts a fresh session with a new id.
func (m *Manager) Create(ctx context.Context) *Session {
	s := m.build(uuid.NewString())
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.opts.Logger.Info("session created", zap.String("session_id", s.ID))
	return s
}

// Get returns the live session for id, hydrating it from the store when it
// is not in memory.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.touch(time.Now())
		return s, nil
	}

	fresh := m.build(id)
	fresh.hydrate(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		fresh.Close()
		s.touch(time.Now())
		return s, nil
	}
	m.sessions[id] = fresh
	return fresh, nil
}

// Drop tears down a live session. Persisted snapshots are kept.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len reports how many sessions are live in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Invalidate marks the catalog of every live session stale, so each reloads
// it on its next View.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.MarkCatalogStale()
	}
	return nil
}

// Close stops the sweeper and tears down every live session.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.stop) })
	m.sweeper.Wait()

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

func (m *Manager) build(id string) *Session {
	ch := notify.NewChannel(m.opts.NotificationTTL)
	if sink := m.opts.Sink; sink != nil {
		ch.Subscribe(func(st notify.State) {
			if st.Visible {
				sink.Notify(id, st)
			}
		})
	}
	return newSession(id, m.opts, ch)
}
