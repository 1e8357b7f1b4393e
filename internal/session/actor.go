// Package session runs each game session on its own goroutine. Intents from
// all players funnel through one FIFO queue, so the engine only ever sees one
// intent at a time.
package session

import (
	"context"
	"errors"
	"sync"

	"dutchblitz/internal/app"
	"dutchblitz/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// ErrClosed is returned for requests made after the actor stopped.
var ErrClosed = errors.New("session closed")

// Update is pushed to subscribers after every accepted request.
type Update struct {
	Snapshot app.Snapshot
	Events   []app.Event
}

// EventsFor returns the events addressed to playerID.
func (u Update) EventsFor(playerID string) []app.Event {
	var out []app.Event
	for _, ev := range u.Events {
		if ev.For(playerID) {
			out = append(out, ev)
		}
	}
	return out
}

type result struct {
	events []app.Event
	err    error
	snap   app.Snapshot
}

type request struct {
	apply  func(g *domain.Session) ([]app.Event, error)
	reply  chan result
	silent bool // read-only, no broadcast
}

// Actor owns one domain.Session. Only the Run goroutine touches it.
type Actor struct {
	id     string
	svc    *app.Service
	game   *domain.Session
	queue  *requestQueue
	logger runtime.Logger

	mu    sync.RWMutex
	subs  map[string]chan Update
	label domain.LabelPayload
}

// NewActor creates an actor for an empty waiting session. Call Run to start it.
func NewActor(id string, svc *app.Service, logger runtime.Logger) *Actor {
	g := svc.NewSession()
	return &Actor{
		id:     id,
		svc:    svc,
		game:   g,
		queue:  newRequestQueue(),
		logger: logger.WithField("session", id),
		subs:   make(map[string]chan Update),
		label:  domain.ComputeLabel(g),
	}
}

func (a *Actor) ID() string { return a.id }

// Label returns the discovery label as of the last processed request.
func (a *Actor) Label() domain.LabelPayload {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.label
}

// Run processes requests until ctx is done. Pending requests are then
// answered with ErrClosed.
func (a *Actor) Run(ctx context.Context) error {
	defer a.closeSubscribers()
	for {
		if r, ok := a.queue.TryDequeue(); ok {
			a.process(r)
			continue
		}
		select {
		case <-ctx.Done():
			a.queue.Close()
			a.drain()
			return ctx.Err()
		case _, open := <-a.queue.Wait():
			if !open && a.queue.Len() == 0 {
				return nil
			}
		}
	}
}

// Stop closes the queue; Run returns once the backlog is processed.
func (a *Actor) Stop() {
	a.queue.Close()
}

// Submit applies an intent and waits for the outcome.
func (a *Actor) Submit(ctx context.Context, in app.Intent) ([]app.Event, error) {
	res, err := a.call(ctx, &request{apply: func(g *domain.Session) ([]app.Event, error) {
		return a.svc.Apply(g, in)
	}})
	if err != nil {
		return nil, err
	}
	if res.err != nil {
		a.logger.WithFields(map[string]interface{}{
			"player": in.PlayerID,
			"intent": string(in.Kind),
			"kind":   app.Kind(res.err),
		}).Warn("intent rejected: %v", res.err)
	}
	return res.events, res.err
}

// Join seats playerID.
func (a *Actor) Join(ctx context.Context, playerID string) ([]app.Event, error) {
	res, err := a.call(ctx, &request{apply: func(g *domain.Session) ([]app.Event, error) {
		return a.svc.Join(g, playerID)
	}})
	if err != nil {
		return nil, err
	}
	return res.events, res.err
}

// Leave removes playerID and their personal cards.
func (a *Actor) Leave(ctx context.Context, playerID string) ([]app.Event, error) {
	res, err := a.call(ctx, &request{apply: func(g *domain.Session) ([]app.Event, error) {
		return a.svc.Leave(g, playerID)
	}})
	if err != nil {
		return nil, err
	}
	return res.events, res.err
}

// Snapshot returns the current state, ordered after every earlier request.
func (a *Actor) Snapshot(ctx context.Context) (app.Snapshot, error) {
	res, err := a.call(ctx, &request{silent: true, apply: func(*domain.Session) ([]app.Event, error) {
		return nil, nil
	}})
	if err != nil {
		return app.Snapshot{}, err
	}
	return res.snap, res.err
}

// Subscribe registers a buffered update channel under id. The returned
// function unsubscribes. Slow subscribers miss updates rather than stall the
// session.
func (a *Actor) Subscribe(id string, buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	a.mu.Lock()
	if old, ok := a.subs[id]; ok {
		close(old)
	}
	a.subs[id] = ch
	a.mu.Unlock()

	return ch, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if cur, ok := a.subs[id]; ok && cur == ch {
			delete(a.subs, id)
			close(ch)
		}
	}
}

func (a *Actor) call(ctx context.Context, r *request) (result, error) {
	r.reply = make(chan result, 1)
	if !a.queue.Enqueue(r) {
		return result{}, ErrClosed
	}
	select {
	case res := <-r.reply:
		return res, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (a *Actor) process(r *request) {
	events, err := r.apply(a.game)
	snap := app.BuildSnapshot(a.game)
	if err == nil && !r.silent {
		a.publish(Update{Snapshot: snap, Events: events})
	}
	r.reply <- result{events: events, err: err, snap: snap}
}

func (a *Actor) publish(u Update) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.label = domain.ComputeLabel(a.game)
	for id, ch := range a.subs {
		select {
		case ch <- u:
		default:
			a.logger.WithField("subscriber", id).Warn("subscriber channel full, update dropped")
		}
	}
}

func (a *Actor) drain() {
	for {
		r, ok := a.queue.TryDequeue()
		if !ok {
			return
		}
		r.reply <- result{err: ErrClosed}
	}
}

func (a *Actor) closeSubscribers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
}
