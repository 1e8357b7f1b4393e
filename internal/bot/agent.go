// Package bot plans intents for computer-controlled players. Agents only read
// the session; their intents go through the same service as human ones.
package bot

import (
	"math/rand"

	"dutchblitz/internal/app"
	"dutchblitz/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID     string
	tuning domain.Tuning
	rng    *rand.Rand
	// CycleChance is the probability of cycling the visible row instead of
	// turning a new trio when nothing is playable.
	CycleChance float64
}

func NewAgent(id string, tuning domain.Tuning, rng *rand.Rand) *Agent {
	return &Agent{ID: id, tuning: tuning, rng: rng, CycleChance: 0.25}
}

// Next returns the agent's next intent, or false when it has nothing to do.
func (a *Agent) Next(g *domain.Session) (app.Intent, bool) {
	p, ok := g.Players[a.ID]
	if !ok || g.Status != domain.StatusPlaying {
		return app.Intent{}, false
	}
	if p.Held != nil {
		return a.placeHeld(g, p), true
	}
	if card := a.playable(g, p); card != nil {
		return app.Intent{Kind: app.IntentPickup, PlayerID: a.ID, CardID: card.ID}, true
	}
	return a.dig(p)
}

// placeHeld walks the held card to a pile that accepts it, or back to where
// it was picked up when none does anymore.
func (a *Agent) placeHeld(g *domain.Session, p *domain.Player) app.Intent {
	if f := legalPile(g, p.Held); f != nil {
		if !domain.WithinRadius(p.Position, f.Position, a.tuning.FoundationRadius) {
			return a.moveTo(f.Position)
		}
		return app.Intent{Kind: app.IntentPlace, PlayerID: a.ID, PileID: f.ID()}
	}
	if !domain.WithinRadius(p.Position, p.Origin.Point, a.tuning.CancelRadius) {
		return a.moveTo(p.Origin.Point)
	}
	return app.Intent{Kind: app.IntentCancel, PlayerID: a.ID}
}

// playable picks a face-up card that some foundation accepts, blitz first.
func (a *Agent) playable(g *domain.Session, p *domain.Player) *domain.Card {
	candidates := []*domain.Card{domain.TopCard(p.Blitz)}
	candidates = append(candidates, p.Visible[:]...)
	candidates = append(candidates, domain.TopCard(p.Recycle))
	for _, c := range candidates {
		if c != nil && c.FaceUp && legalPile(g, c) != nil {
			return c
		}
	}
	return nil
}

// dig turns over new cards when nothing is playable.
func (a *Agent) dig(p *domain.Player) (app.Intent, bool) {
	if p.FirstEmptySlot() >= 0 && len(p.Reserve) > 0 {
		return app.Intent{Kind: app.IntentDrawFromReserve, PlayerID: a.ID}, true
	}
	spare := len(p.Reserve) > 0 || len(p.Recycle) > 0
	if !spare {
		return app.Intent{}, false
	}
	if p.VisibleCount() > 1 && a.rng.Float64() < a.CycleChance {
		return app.Intent{Kind: app.IntentCycle, PlayerID: a.ID}, true
	}
	if !domain.WithinRadius(p.Position, p.Layout.Recycle, a.tuning.RecycleRadius) {
		return a.moveTo(p.Layout.Recycle), true
	}
	return app.Intent{Kind: app.IntentDrawFromReserve, PlayerID: a.ID}, true
}

func (a *Agent) moveTo(at domain.Point) app.Intent {
	return app.Intent{Kind: app.IntentMove, PlayerID: a.ID, X: at.X, Y: at.Y}
}

// legalPile returns the first foundation that accepts c.
func legalPile(g *domain.Session, c *domain.Card) *domain.FoundationPile {
	for _, f := range g.Foundations {
		if domain.IsLegalFoundationMove(c, f) {
			return f
		}
	}
	return nil
}
