package app

import "dutchblitz/internal/domain"

// EventKind identifies emitted domain events for transport dispatch.
type EventKind string

const (
	EventPlayerJoined  EventKind = "player_joined"
	EventPlayerLeft    EventKind = "player_left"
	EventGameStarted   EventKind = "game_started"
	EventCardPlaced    EventKind = "card_placed"
	EventPileCompleted EventKind = "pile_completed"
	EventGameWon       EventKind = "game_won"
	EventGameRestarted EventKind = "game_restarted"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player IDs; empty means broadcast
}

// For reports whether playerID should receive the event.
func (e Event) For(playerID string) bool {
	if len(e.Recipients) == 0 {
		return true
	}
	for _, id := range e.Recipients {
		if id == playerID {
			return true
		}
	}
	return false
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
	Seat     int    `json:"seat"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type GameStartedPayload struct {
	Players []string `json:"players"`
}

// CardPlacedPayload is also the acting player's place result.
type CardPlacedPayload struct {
	PlayerID   string `json:"playerId"`
	CardID     string `json:"cardId"`
	Target     string `json:"target"`
	ScoreDelta int    `json:"scoreDelta"`
}

type PileCompletedPayload struct {
	PileID   string       `json:"pileId"`
	Color    domain.Color `json:"color"`
	PlayerID string       `json:"playerId"`
	Removed  []string     `json:"removed"`
}

type GameWonPayload struct {
	Winner string         `json:"winner"`
	Scores map[string]int `json:"scores"`
}

type GameRestartedPayload struct {
	PlayerID string `json:"playerId"`
	Forced   bool   `json:"forced"`
}
