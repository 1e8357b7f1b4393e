package domain

// LowestAvailableSeat returns the first free seat index (0-based), or -1 if the table is full.
func LowestAvailableSeat(seats []string) int {
	for i, playerID := range seats {
		if playerID == "" {
			return i
		}
	}
	return -1
}

// OpenSeats counts the empty seats.
func OpenSeats(seats []string) int {
	n := 0
	for _, playerID := range seats {
		if playerID == "" {
			n++
		}
	}
	return n
}

// LabelPayload holds the values advertised for session discovery.
type LabelPayload struct {
	Open    int    `json:"open"`
	Game    string `json:"game"`
	Status  string `json:"status"`
	Players int    `json:"players"`
}

// ComputeLabel derives the advertised label from session state.
func ComputeLabel(s *Session) LabelPayload {
	return LabelPayload{
		Open:    OpenSeats(s.Seats),
		Game:    "dutchblitz",
		Status:  string(s.Status),
		Players: len(s.Players),
	}
}

// TopCard returns the last card of a stack, or nil when it is empty.
func TopCard(stack []*Card) *Card {
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// Holder returns the id of the player currently holding cardID, if any.
func Holder(s *Session, cardID string) (string, bool) {
	for id, p := range s.Players {
		if p.Held != nil && p.Held.ID == cardID {
			return id, true
		}
	}
	return "", false
}

// FirstEmptySlot returns the lowest empty visible slot, or -1.
func (p *Player) FirstEmptySlot() int {
	for i, c := range p.Visible {
		if c == nil {
			return i
		}
	}
	return -1
}

// VisibleCount returns the number of occupied visible slots.
func (p *Player) VisibleCount() int {
	n := 0
	for _, c := range p.Visible {
		if c != nil {
			n++
		}
	}
	return n
}

// Cards returns every card the player owns outside the foundations, held card included.
func (p *Player) Cards() []*Card {
	out := make([]*Card, 0, DeckSize)
	out = append(out, p.Blitz...)
	out = append(out, p.Reserve...)
	for _, c := range p.Visible {
		if c != nil {
			out = append(out, c)
		}
	}
	out = append(out, p.Recycle...)
	if p.Held != nil {
		out = append(out, p.Held)
	}
	return out
}

// SeatOrder returns the seated players ordered by seat index.
func (s *Session) SeatOrder() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, id := range s.Seats {
		if id == "" {
			continue
		}
		if p, ok := s.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
