package app

import "dutchblitz/internal/domain"

// CardView is the outbound form of a card. Value and color are withheld
// while the card is face-down.
type CardView struct {
	ID       string  `json:"id"`
	Owner    string  `json:"owner"`
	Known    bool    `json:"known"`
	Value    int     `json:"value,omitempty"`
	Color    string  `json:"color,omitempty"`
	FaceUp   bool    `json:"faceUp"`
	Location string  `json:"location"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// PlayerView is the outbound form of a player. Visible holds "" for empty slots.
type PlayerView struct {
	ID         string                      `json:"id"`
	Seat       int                         `json:"seat"`
	X          float64                     `json:"x"`
	Y          float64                     `json:"y"`
	Score      int                         `json:"score"`
	HeldCardID string                      `json:"heldCardId,omitempty"`
	HeldOrigin string                      `json:"heldOrigin,omitempty"`
	Blitz      []string                    `json:"blitz"`
	Reserve    []string                    `json:"reserve"`
	Visible    [domain.VisibleSlots]string `json:"visible"`
	Recycle    []string                    `json:"recycle"`
}

// PileView is the outbound form of a foundation pile.
type PileView struct {
	ID    string   `json:"id"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Color string   `json:"color,omitempty"`
	Cards []string `json:"cards"`
}

// Snapshot is the full session state broadcast after every processed intent.
type Snapshot struct {
	Status      string       `json:"status"`
	Winner      string       `json:"winner,omitempty"`
	Players     []PlayerView `json:"players"`
	Foundations []PileView   `json:"foundations"`
	Cards       []CardView   `json:"cards"`
}

// BuildSnapshot renders the session for transport. Players are ordered by seat.
func BuildSnapshot(g *domain.Session) Snapshot {
	snap := Snapshot{
		Status:      string(g.Status),
		Winner:      g.Winner,
		Players:     make([]PlayerView, 0, len(g.Players)),
		Foundations: make([]PileView, 0, len(g.Foundations)),
		Cards:       make([]CardView, 0, len(g.Cards)),
	}

	for _, p := range g.SeatOrder() {
		pv := PlayerView{
			ID:      p.ID,
			Seat:    p.Seat,
			X:       p.Position.X,
			Y:       p.Position.Y,
			Score:   p.Score,
			Blitz:   ids(p.Blitz),
			Reserve: ids(p.Reserve),
			Recycle: ids(p.Recycle),
		}
		for i, c := range p.Visible {
			if c != nil {
				pv.Visible[i] = c.ID
				snap.Cards = append(snap.Cards, cardView(c, string(domain.SourceVisible)))
			}
		}
		if p.Held != nil {
			pv.HeldCardID = p.Held.ID
			pv.HeldOrigin = string(p.Origin.Source)
			snap.Cards = append(snap.Cards, cardView(p.Held, "held"))
		}
		snap.Cards = appendViews(snap.Cards, p.Blitz, string(domain.SourceBlitz))
		snap.Cards = appendViews(snap.Cards, p.Reserve, string(domain.SourceReserve))
		snap.Cards = appendViews(snap.Cards, p.Recycle, string(domain.SourceRecycle))
		snap.Players = append(snap.Players, pv)
	}

	for _, f := range g.Foundations {
		snap.Foundations = append(snap.Foundations, PileView{
			ID:    f.ID(),
			X:     f.Position.X,
			Y:     f.Position.Y,
			Color: string(f.Color),
			Cards: ids(f.Stack),
		})
		snap.Cards = appendViews(snap.Cards, f.Stack, "foundation")
	}
	return snap
}

func cardView(c *domain.Card, location string) CardView {
	v := CardView{
		ID:       c.ID,
		Owner:    c.Owner,
		Known:    c.FaceUp,
		FaceUp:   c.FaceUp,
		Location: location,
		X:        c.Position.X,
		Y:        c.Position.Y,
	}
	if c.FaceUp {
		v.Value = c.Value
		v.Color = string(c.Color)
	}
	return v
}

func appendViews(dst []CardView, cards []*domain.Card, location string) []CardView {
	for _, c := range cards {
		dst = append(dst, cardView(c, location))
	}
	return dst
}

func ids(cards []*domain.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}
