package app

import "dutchblitz/internal/domain"

// Cycle sends all but the most recently revealed visible card back to the
// reserve and refills the row from the front of the reserve.
func (s *Service) Cycle(g *domain.Session, playerID string) ([]Event, error) {
	if err := requirePlaying(g); err != nil {
		return nil, err
	}
	p, err := playerOf(g, playerID)
	if err != nil {
		return nil, err
	}
	visible := p.VisibleCount()
	if visible <= 1 && len(p.Reserve) == 0 {
		return nil, reject(ErrSourceIneligible, "nothing to cycle")
	}
	if visible == domain.VisibleSlots && len(p.Reserve) == 0 && len(p.Recycle) == 0 {
		return nil, reject(ErrSourceIneligible, "visible row is full and there are no spare cards")
	}

	cycleVisible(p, 1)
	domain.ArrangePlayer(p)
	return nil, nil
}

// DrawFromReserve fills empty visible slots from the reserve. With no empty
// slot to fill it turns over a fresh trio on the recycle indicator, which
// requires standing at the indicator.
func (s *Service) DrawFromReserve(g *domain.Session, playerID string) ([]Event, error) {
	if err := requirePlaying(g); err != nil {
		return nil, err
	}
	p, err := playerOf(g, playerID)
	if err != nil {
		return nil, err
	}

	if p.FirstEmptySlot() >= 0 && len(p.Reserve) > 0 {
		fillVisible(p)
		domain.ArrangePlayer(p)
		return nil, nil
	}

	if !domain.WithinRadius(p.Position, p.Layout.Recycle, s.tuning.RecycleRadius) {
		return nil, reject(ErrProximityViolation, "too far from recycle indicator")
	}
	if len(p.Reserve) == 0 && len(p.Recycle) == 0 {
		return nil, reject(ErrSourceIneligible, "reserve and recycle indicator are empty")
	}

	for _, c := range p.Recycle {
		c.FaceUp = false
		p.Reserve = append(p.Reserve, c)
	}
	n := min(domain.RecycleDraw, len(p.Reserve))
	p.Recycle = append([]*domain.Card(nil), p.Reserve[:n]...)
	p.Reserve = append([]*domain.Card(nil), p.Reserve[n:]...)
	for i, c := range p.Recycle {
		c.FaceUp = i == n-1
	}
	domain.ArrangePlayer(p)
	return nil, nil
}

// cycleVisible keeps the highest occupied slot, recycles the rest reversed
// and refills. passes bounds the extra recycling rounds when the reserve runs dry.
func cycleVisible(p *domain.Player, passes int) {
	var row []*domain.Card
	for _, c := range p.Visible {
		if c != nil {
			row = append(row, c)
		}
	}
	p.Visible = [domain.VisibleSlots]*domain.Card{}
	if len(row) > 0 {
		for i := len(row) - 2; i >= 0; i-- {
			row[i].FaceUp = false
			p.Reserve = append(p.Reserve, row[i])
		}
		p.Visible[0] = row[len(row)-1]
	}
	fillVisible(p)

	if passes > 0 && len(p.Reserve) == 0 && p.VisibleCount() > 1 && p.VisibleCount() < domain.VisibleSlots {
		cycleVisible(p, passes-1)
	}
}

// fillVisible fills empty slots left to right from the front of the reserve.
func fillVisible(p *domain.Player) {
	for i := range p.Visible {
		if p.Visible[i] != nil || len(p.Reserve) == 0 {
			continue
		}
		c := p.Reserve[0]
		p.Reserve = p.Reserve[1:]
		c.FaceUp = true
		p.Visible[i] = c
	}
}
