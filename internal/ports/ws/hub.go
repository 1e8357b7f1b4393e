// Package ws serves game sessions to browser clients over websockets,
// outside of Nakama. Each connection plays one player in one session actor.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dutchblitz/internal/app"
	"dutchblitz/internal/session"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
	"nhooyr.io/websocket"
)

// Message types.
const (
	TypeIntent  = "intent"
	TypePing    = "ping"
	TypePong    = "pong"
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeEvent   = "event"
	TypeError   = "error"
)

const (
	sendBuffer   = 64
	leaveTimeout = 5 * time.Second
)

// Msg is the wire envelope: T is the message type, M its payload.
type Msg struct {
	T string          `json:"t"`
	M json.RawMessage `json:"m,omitempty"`
}

// Welcome is sent once the player is seated.
type Welcome struct {
	Session  string `json:"session"`
	PlayerID string `json:"playerId"`
}

// EventView carries one app event.
type EventView struct {
	Kind    app.EventKind `json:"kind"`
	Payload any           `json:"payload"`
}

// ErrorView reports a rejected or unreadable message to its sender only.
type ErrorView struct {
	Intent  string `json:"intent,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Hub connects websocket clients to session actors.
type Hub struct {
	sessions     *session.Manager
	logger       runtime.Logger
	origins      []string
	PingInterval time.Duration
}

// NewHub creates a hub. origins lists the accepted Origin host patterns;
// same-host requests are always accepted.
func NewHub(sessions *session.Manager, logger runtime.Logger, origins []string) *Hub {
	return &Hub{
		sessions:     sessions,
		logger:       logger,
		origins:      origins,
		PingInterval: 15 * time.Second,
	}
}

// Sessions returns the manager behind the hub.
func (h *Hub) Sessions() *session.Manager { return h.sessions }

type client struct {
	id       string
	playerID string
	actor    *session.Actor
	conn     *websocket.Conn
	send     chan []byte
	logger   runtime.Logger
}

// ServeWS upgrades the request and plays playerID in actor until either side
// hangs up. The player leaves the session when the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, actor *session.Actor, playerID string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn("websocket accept failed: %v", err)
		return
	}

	c := &client{
		id:       uuid.NewString(),
		playerID: playerID,
		actor:    actor,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
	c.logger = h.logger.WithFields(map[string]interface{}{
		"session": actor.ID(),
		"player":  playerID,
		"client":  c.id,
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before joining so the join broadcast reaches this client too.
	updates, unsubscribe := actor.Subscribe(c.id, sendBuffer)
	defer unsubscribe()

	if _, err := actor.Join(ctx, playerID); err != nil {
		c.logger.Warn("join rejected: %v", err)
		c.writeNow(ctx, TypeError, ErrorView{Intent: "join", Kind: app.Kind(err), Message: err.Error()})
		_ = conn.Close(websocket.StatusPolicyViolation, "join rejected")
		return
	}
	defer func() {
		leaveCtx, leaveCancel := context.WithTimeout(context.Background(), leaveTimeout)
		defer leaveCancel()
		if _, err := actor.Leave(leaveCtx, playerID); err != nil && !errors.Is(err, session.ErrClosed) {
			c.logger.Warn("leave failed: %v", err)
		}
	}()
	c.logger.Info("client connected")

	c.queue(TypeWelcome, Welcome{Session: actor.ID(), PlayerID: playerID})

	go c.writeLoop(ctx, cancel, updates, h.PingInterval)
	c.readLoop(ctx)

	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	c.logger.Info("client disconnected")
}

// writeLoop is the only goroutine writing session traffic to the connection.
func (c *client) writeLoop(ctx context.Context, cancel context.CancelFunc, updates <-chan session.Update, interval time.Duration) {
	defer cancel()
	ping := time.NewTicker(interval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				_ = c.conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			if err := c.writeUpdate(ctx, u); err != nil {
				return
			}
		case <-ping.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func (c *client) writeUpdate(ctx context.Context, u session.Update) error {
	for _, ev := range u.EventsFor(c.playerID) {
		b, err := encode(TypeEvent, EventView{Kind: ev.Kind, Payload: ev.Payload})
		if err != nil {
			c.logger.Error("failed to marshal event %s: %v", ev.Kind, err)
			continue
		}
		if err := c.conn.Write(ctx, websocket.MessageText, b); err != nil {
			return err
		}
	}
	b, err := encode(TypeState, u.Snapshot)
	if err != nil {
		c.logger.Error("failed to marshal snapshot: %v", err)
		return nil
	}
	return c.conn.Write(ctx, websocket.MessageText, b)
}

func (c *client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var m Msg
		if err := json.Unmarshal(data, &m); err != nil {
			c.queue(TypeError, ErrorView{Kind: app.Kind(app.ErrMalformedIntent), Message: "invalid envelope"})
			continue
		}

		switch m.T {
		case TypeIntent:
			if !c.submit(ctx, m.M) {
				return
			}
		case TypePing:
			c.queue(TypePong, nil)
		case TypePong:
			// ignore
		default:
			c.queue(TypeError, ErrorView{Kind: app.Kind(app.ErrMalformedIntent), Message: "unknown message type " + m.T})
		}
	}
}

// submit forwards one intent. It returns false once the session is gone.
func (c *client) submit(ctx context.Context, payload json.RawMessage) bool {
	var in app.Intent
	if err := json.Unmarshal(payload, &in); err != nil || in.Kind == "" {
		c.queue(TypeError, ErrorView{Kind: app.Kind(app.ErrMalformedIntent), Message: "intent needs a type"})
		return true
	}
	in.PlayerID = c.playerID

	_, err := c.actor.Submit(ctx, in)
	switch {
	case err == nil:
		return true
	case errors.Is(err, session.ErrClosed), errors.Is(err, context.Canceled):
		return false
	default:
		c.queue(TypeError, ErrorView{Intent: string(in.Kind), Kind: app.Kind(err), Message: err.Error()})
		return true
	}
}

// queue hands a message to the writer, dropping it when the client is too slow.
func (c *client) queue(t string, payload any) {
	b, err := encode(t, payload)
	if err != nil {
		c.logger.Error("failed to marshal %s: %v", t, err)
		return
	}
	select {
	case c.send <- b:
	default:
		c.logger.Warn("send buffer full, dropped %s", t)
	}
}

// writeNow writes before the writer goroutine exists.
func (c *client) writeNow(ctx context.Context, t string, payload any) {
	b, err := encode(t, payload)
	if err != nil {
		return
	}
	_ = c.conn.Write(ctx, websocket.MessageText, b)
}

func encode(t string, payload any) ([]byte, error) {
	msg := Msg{T: t}
	if payload != nil {
		m, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.M = m
	}
	return json.Marshal(msg)
}
