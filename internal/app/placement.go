package app

import (
	"dutchblitz/internal/domain"
)

// Pickup detaches one of the player's own cards from its collection and
// records where it came from.
func (s *Service) Pickup(g *domain.Session, playerID, cardID string) ([]Event, error) {
	if err := requirePlaying(g); err != nil {
		return nil, err
	}
	p, err := playerOf(g, playerID)
	if err != nil {
		return nil, err
	}
	if p.Held != nil {
		return nil, reject(ErrInvalidState, "player %s already holds %s", playerID, p.Held.ID)
	}
	card, ok := g.Cards[cardID]
	if !ok {
		return nil, reject(ErrNotFound, "card %s", cardID)
	}
	if card.Owner != playerID {
		return nil, reject(ErrOwnershipViolation, "card %s belongs to %s", cardID, card.Owner)
	}
	if holder, held := domain.Holder(g, cardID); held {
		return nil, reject(ErrOwnershipViolation, "card %s is held by %s", cardID, holder)
	}
	src, slot, ok := locate(p, card)
	if !ok {
		return nil, reject(ErrSourceIneligible, "card %s is not on top of a personal pile", cardID)
	}
	// The reserve top is face-down by definition and is the one exception.
	if src != domain.SourceReserve && !card.FaceUp {
		return nil, reject(ErrSourceIneligible, "card %s is face-down", cardID)
	}

	origin := domain.Origin{Source: src, Slot: slot, FaceUp: card.FaceUp, Point: p.Position}
	switch src {
	case domain.SourceBlitz:
		p.Blitz = p.Blitz[:len(p.Blitz)-1]
		origin.Revealed = reveal(p.Blitz)
	case domain.SourceVisible:
		p.Visible[slot] = nil
	case domain.SourceRecycle:
		p.Recycle = p.Recycle[:len(p.Recycle)-1]
	case domain.SourceReserve:
		p.Reserve = p.Reserve[:len(p.Reserve)-1]
	}
	card.FaceUp = true
	p.Held = card
	p.Origin = origin
	domain.ArrangePlayer(p)
	return nil, nil
}

// Place drops the held card on target.
func (s *Service) Place(g *domain.Session, playerID string, target domain.Target) ([]Event, error) {
	if err := requirePlaying(g); err != nil {
		return nil, err
	}
	p, err := playerOf(g, playerID)
	if err != nil {
		return nil, err
	}
	if p.Held == nil {
		return nil, reject(ErrInvalidState, "player %s holds no card", playerID)
	}

	switch target.Kind {
	case domain.TargetFoundation:
		return s.placeOnFoundation(g, p, target.Pile)
	case domain.TargetVisibleSlot:
		if err := ownTarget(p, target); err != nil {
			return nil, err
		}
		return s.placeInSlot(p, target.Slot)
	case domain.TargetNearestSlot:
		if err := ownTarget(p, target); err != nil {
			return nil, err
		}
		slot := nearestEmptySlot(p)
		if slot < 0 {
			return nil, reject(ErrSlotConflict, "no empty visible slot")
		}
		return s.placeInSlot(p, slot)
	case domain.TargetRecycle:
		if err := ownTarget(p, target); err != nil {
			return nil, err
		}
		return s.placeOnRecycle(p)
	case domain.TargetBlitz:
		if err := ownTarget(p, target); err != nil {
			return nil, err
		}
		return s.placeOnBlitz(p)
	}
	return nil, reject(ErrNotFound, "target %q", target.ID())
}

// Cancel returns the held card to where it was picked up from.
func (s *Service) Cancel(g *domain.Session, playerID string) ([]Event, error) {
	p, err := playerOf(g, playerID)
	if err != nil {
		return nil, err
	}
	if p.Held == nil {
		return nil, reject(ErrInvalidState, "player %s holds no card", playerID)
	}
	if !domain.WithinRadius(p.Position, p.Origin.Point, s.tuning.CancelRadius) {
		return nil, reject(ErrProximityViolation, "too far from pickup point")
	}

	card, o := p.Held, p.Origin
	card.FaceUp = o.FaceUp
	switch o.Source {
	case domain.SourceBlitz:
		if top := domain.TopCard(p.Blitz); top != nil && o.Revealed {
			top.FaceUp = false
		}
		p.Blitz = append(p.Blitz, card)
	case domain.SourceRecycle:
		p.Recycle = append(p.Recycle, card)
	case domain.SourceVisible:
		slot := o.Slot
		if p.Visible[slot] != nil {
			slot = p.FirstEmptySlot()
		}
		if slot >= 0 {
			p.Visible[slot] = card
		} else {
			card.FaceUp = false
			p.Reserve = append(p.Reserve, card)
		}
	default:
		p.Reserve = append(p.Reserve, card)
	}
	release(p)
	domain.ArrangePlayer(p)
	return nil, nil
}

func (s *Service) placeOnFoundation(g *domain.Session, p *domain.Player, index int) ([]Event, error) {
	if index < 0 || index >= len(g.Foundations) {
		return nil, reject(ErrNotFound, "foundation %d", index)
	}
	f := g.Foundations[index]
	if !domain.WithinRadius(p.Position, f.Position, s.tuning.FoundationRadius) {
		return nil, reject(ErrProximityViolation, "too far from %s", f.ID())
	}
	card := p.Held
	if !domain.IsLegalFoundationMove(card, f) {
		return nil, reject(ErrRuleViolation, "%s %d cannot go on %s", card.Color, card.Value, f.ID())
	}

	card.FaceUp = true
	if len(f.Stack) == 0 {
		f.Color = card.Color
	}
	f.Stack = append(f.Stack, card)
	p.Score++
	release(p)
	domain.ArrangeFoundation(f)
	domain.ArrangePlayer(p)

	events := []Event{placed(p.ID, card.ID, f.ID(), 1)}
	if card.Value == domain.MaxValue {
		color := f.Color
		removed := domain.CompletePile(g, f)
		events = append(events, Event{
			Kind:    EventPileCompleted,
			Payload: PileCompletedPayload{PileID: f.ID(), Color: color, PlayerID: p.ID, Removed: removed},
		})
	}
	if domain.HasWon(p) {
		events = append(events, finish(g, p.ID))
	}
	return events, nil
}

func (s *Service) placeInSlot(p *domain.Player, slot int) ([]Event, error) {
	if slot < 0 || slot >= domain.VisibleSlots {
		return nil, reject(ErrNotFound, "visible slot %d", slot)
	}
	if !domain.WithinRadius(p.Position, p.Layout.Visible[slot], s.tuning.VisibleSlotRadius) {
		return nil, reject(ErrProximityViolation, "too far from visible slot %d", slot)
	}
	if p.Visible[slot] != nil {
		return nil, reject(ErrSlotConflict, "visible slot %d holds %s", slot, p.Visible[slot].ID)
	}

	card := p.Held
	card.FaceUp = true
	p.Visible[slot] = card
	release(p)
	domain.ArrangePlayer(p)
	return []Event{placed(p.ID, card.ID, domain.VisibleSlotTarget(p.ID, slot).ID(), 0)}, nil
}

func (s *Service) placeOnRecycle(p *domain.Player) ([]Event, error) {
	if !domain.WithinRadius(p.Position, p.Layout.Recycle, s.tuning.RecycleRadius) {
		return nil, reject(ErrProximityViolation, "too far from recycle indicator")
	}
	if src := p.Origin.Source; src != domain.SourceReserve && src != domain.SourceRecycle {
		return nil, reject(ErrSourceIneligible, "only reserve or recycle cards return to the indicator, card came from %s", src)
	}

	if top := domain.TopCard(p.Recycle); top != nil {
		top.FaceUp = false
	}
	card := p.Held
	card.FaceUp = true
	p.Recycle = append(p.Recycle, card)
	release(p)
	domain.ArrangePlayer(p)
	return []Event{placed(p.ID, card.ID, domain.RecycleTarget(p.ID).ID(), 0)}, nil
}

func (s *Service) placeOnBlitz(p *domain.Player) ([]Event, error) {
	if !domain.WithinRadius(p.Position, p.Layout.Blitz, s.tuning.BlitzRadius) {
		return nil, reject(ErrProximityViolation, "too far from blitz stack")
	}
	if p.Origin.Source != domain.SourceBlitz {
		return nil, reject(ErrSourceIneligible, "only blitz cards return to the blitz stack, card came from %s", p.Origin.Source)
	}

	if top := domain.TopCard(p.Blitz); top != nil && p.Origin.Revealed {
		top.FaceUp = false
	}
	card := p.Held
	card.FaceUp = true
	p.Blitz = append(p.Blitz, card)
	release(p)
	domain.ArrangePlayer(p)
	return []Event{placed(p.ID, card.ID, domain.BlitzTarget(p.ID).ID(), 0)}, nil
}

func finish(g *domain.Session, winner string) Event {
	g.Status = domain.StatusFinished
	g.Winner = winner
	return Event{
		Kind:    EventGameWon,
		Payload: GameWonPayload{Winner: winner, Scores: domain.FinalizeScores(g)},
	}
}

func placed(playerID, cardID, target string, delta int) Event {
	return Event{
		Kind:       EventCardPlaced,
		Payload:    CardPlacedPayload{PlayerID: playerID, CardID: cardID, Target: target, ScoreDelta: delta},
		Recipients: []string{playerID},
	}
}

// locate finds the pickable position of card among the player's piles.
func locate(p *domain.Player, card *domain.Card) (domain.Source, int, bool) {
	if domain.TopCard(p.Blitz) == card {
		return domain.SourceBlitz, 0, true
	}
	for i, c := range p.Visible {
		if c == card {
			return domain.SourceVisible, i, true
		}
	}
	if domain.TopCard(p.Recycle) == card {
		return domain.SourceRecycle, 0, true
	}
	if domain.TopCard(p.Reserve) == card {
		return domain.SourceReserve, 0, true
	}
	return "", 0, false
}

// reveal turns the new top of stack face-up and reports whether it flipped.
func reveal(stack []*domain.Card) bool {
	top := domain.TopCard(stack)
	if top == nil || top.FaceUp {
		return false
	}
	top.FaceUp = true
	return true
}

func release(p *domain.Player) {
	p.Held = nil
	p.Origin = domain.Origin{}
}

func ownTarget(p *domain.Player, t domain.Target) error {
	if t.Player != p.ID {
		return reject(ErrOwnershipViolation, "%s belongs to %s", t.ID(), t.Player)
	}
	return nil
}

func nearestEmptySlot(p *domain.Player) int {
	best, bestDist := -1, 0.0
	for i, c := range p.Visible {
		if c != nil {
			continue
		}
		d := domain.DistanceSq(p.Position, p.Layout.Visible[i])
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
