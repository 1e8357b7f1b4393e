package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"dutchblitz/internal/app"
	"dutchblitz/internal/domain"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// ErrUnknownSession is returned for ids the manager does not hold.
var ErrUnknownSession = errors.New("unknown session")

// DefaultIdleTimeout is how long a session may stay without players before
// the manager removes it.
const DefaultIdleTimeout = 2 * time.Minute

// Info describes a running session for discovery.
type Info struct {
	ID    string              `json:"id"`
	Label domain.LabelPayload `json:"label"`
}

// Manager owns the running actors of a standalone server.
type Manager struct {
	svc    *app.Service
	logger runtime.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	idleTimeout time.Duration

	mu     sync.RWMutex
	actors map[string]*Actor
}

// Option configures a Manager.
type Option func(*Manager)

// WithIdleTimeout sets how long an empty session survives. Zero keeps empty
// sessions until they are removed explicitly.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}

func NewManager(ctx context.Context, svc *app.Service, logger runtime.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(ctx)
	m := &Manager{
		svc:         svc,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		idleTimeout: DefaultIdleTimeout,
		actors:      make(map[string]*Actor),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.idleTimeout > 0 {
		m.wg.Add(1)
		go m.evictLoop()
	}
	return m
}

// Create starts a new session actor.
func (m *Manager) Create() *Actor {
	a := NewActor(uuid.NewString(), m.svc, m.logger)

	m.mu.Lock()
	m.actors[a.ID()] = a
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := a.Run(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.WithField("session", a.ID()).Error("session stopped: %v", err)
		}
	}()
	m.logger.WithField("session", a.ID()).Info("session created")
	return a
}

func (m *Manager) Get(id string) (*Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return a, nil
}

// QuickMatch returns the open waiting session with the most players, creating
// one when none has a free seat.
func (m *Manager) QuickMatch() *Actor {
	var best *Actor
	bestPlayers := -1
	for _, info := range m.List() {
		l := info.Label
		if l.Open == 0 || l.Status != string(domain.StatusWaiting) {
			continue
		}
		if l.Players > bestPlayers {
			a, err := m.Get(info.ID)
			if err != nil {
				continue
			}
			best, bestPlayers = a, l.Players
		}
	}
	if best != nil {
		return best
	}
	return m.Create()
}

// List returns every session ordered by id.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.actors))
	for id, a := range m.actors {
		out = append(out, Info{ID: id, Label: a.Label()})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Remove stops and forgets a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	a, ok := m.actors[id]
	delete(m.actors, id)
	m.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	a.Stop()
	return nil
}

// Close stops every session and waits for their goroutines.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) evictLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(max(m.idleTimeout/4, 10*time.Millisecond))
	defer ticker.Stop()

	emptySince := make(map[string]time.Time)
	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			m.evictIdle(now, emptySince)
		}
	}
}

// evictIdle removes sessions that have been without players for at least the
// idle timeout. emptySince carries the first sweep each session was seen empty.
func (m *Manager) evictIdle(now time.Time, emptySince map[string]time.Time) {
	live := make(map[string]bool)
	for _, info := range m.List() {
		live[info.ID] = true
		if info.Label.Players > 0 {
			delete(emptySince, info.ID)
			continue
		}
		since, ok := emptySince[info.ID]
		if !ok {
			emptySince[info.ID] = now
			continue
		}
		if now.Sub(since) < m.idleTimeout {
			continue
		}
		delete(emptySince, info.ID)
		if err := m.Remove(info.ID); err == nil {
			m.logger.WithField("session", info.ID).Info("idle session removed")
		}
	}
	for id := range emptySince {
		if !live[id] {
			delete(emptySince, id)
		}
	}
}
