package editor

import (
	"context"
	"sync"
	"time"

	"github.com/caffeineduck/codecollab/interp"
	"go.uber.org/zap"
)

// Manager owns one Session per user, loading it from the Store on first
// use, autosaving it while open and closing it after a period of
// inactivity.
type Manager struct {
	store    Store
	interp   *interp.Interpreter
	logger   *zap.Logger
	interval time.Duration
	idleTTL  time.Duration
	runDelay time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	cancel context.CancelFunc
	done   chan struct{}
}

type entry struct {
	session  *Session
	saver    *Autosaver
	lastUsed time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithAutosaveInterval sets how often open sessions are saved.
func WithAutosaveInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.interval = d
	}
}

// WithIdleTTL sets how long an unused session stays open. Zero keeps
// sessions open until Shutdown.
func WithIdleTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.idleTTL = d
	}
}

// WithSessionRunDelay sets the artificial run delay of new sessions.
func WithSessionRunDelay(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.runDelay = d
	}
}

// NewManager returns a Manager and starts its idle sweeper.
func NewManager(store Store, in *interp.Interpreter, logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in == nil {
		in = interp.New()
	}
	m := &Manager{
		store:    store,
		interp:   in,
		logger:   logger,
		interval: DefaultAutosaveInterval,
		idleTTL:  30 * time.Minute,
		entries:  make(map[string]*entry),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.sweepLoop(ctx)
	return m
}

// Get returns user's open session, loading it from the store if needed.
func (m *Manager) Get(ctx context.Context, user string) *Session {
	m.mu.Lock()
	if e, ok := m.entries[user]; ok {
		e.lastUsed = time.Now()
		m.mu.Unlock()
		return e.session
	}
	m.mu.Unlock()

	repo := NewRepository(m.store, StateKey(user), m.logger)
	st := repo.Load(ctx)
	session := NewSession(st, WithInterpreter(m.interp), WithRunDelay(m.runDelay))

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[user]; ok {
		e.lastUsed = time.Now()
		return e.session
	}

	saver := NewAutosaver(repo, session.State, m.interval, m.logger)
	if !m.closed {
		saver.Start(context.Background())
	}
	m.entries[user] = &entry{session: session, saver: saver, lastUsed: time.Now()}
	m.logger.Debug("editor session opened", zap.String("key", repo.Key()))
	return session
}

// Flush saves user's open session now. It is a no-op if none is open.
func (m *Manager) Flush(ctx context.Context, user string) error {
	m.mu.Lock()
	e, ok := m.entries[user]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return e.saver.Flush(ctx)
}

// Close saves and closes user's session. It reports whether one was open.
func (m *Manager) Close(user string) bool {
	m.mu.Lock()
	e, ok := m.entries[user]
	delete(m.entries, user)
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.stopEntry(user, e)
	return true
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Shutdown stops the sweeper and saves and closes every session.
func (m *Manager) Shutdown() {
	m.cancel()
	<-m.done

	m.mu.Lock()
	m.closed = true
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for user, e := range entries {
		m.stopEntry(user, e)
	}
}

func (m *Manager) stopEntry(user string, e *entry) {
	if err := e.saver.Stop(); err != nil {
		m.logger.Warn("final save failed", zap.String("user", user), zap.Error(err))
	}
}

func (m *Manager) sweepLoop(ctx context.Context) {
	defer close(m.done)
	if m.idleTTL <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(m.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

// sweep closes sessions idle for longer than the TTL.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	idle := make(map[string]*entry)
	for user, e := range m.entries {
		if now.Sub(e.lastUsed) > m.idleTTL {
			idle[user] = e
			delete(m.entries, user)
		}
	}
	m.mu.Unlock()

	for user, e := range idle {
		m.stopEntry(user, e)
		m.logger.Debug("editor session expired", zap.String("user", user))
	}
}
