package app

import (
	"fmt"

	"dutchblitz/internal/domain"
)

// Intent is a single player request. PlayerID is filled in by the transport
// from the authenticated sender, never from the payload.
type Intent struct {
	Kind     IntentKind `json:"type"`
	PlayerID string     `json:"-"`
	X        float64    `json:"x,omitempty"`
	Y        float64    `json:"y,omitempty"`
	CardID   string     `json:"cardId,omitempty"`
	PileID   string     `json:"pileId,omitempty"`
	Slot     *int       `json:"slot,omitempty"`
}

// Target resolves the placement destination of a place-style intent:
// an explicit pile id first, then an explicit visible slot, else the nearest
// empty visible slot.
func (in Intent) Target() (domain.Target, error) {
	switch {
	case in.PileID != "":
		t, err := domain.ParseTarget(in.PileID)
		if err != nil {
			return domain.Target{}, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return t, nil
	case in.Slot != nil:
		return domain.VisibleSlotTarget(in.PlayerID, *in.Slot), nil
	}
	return domain.NearestSlotTarget(in.PlayerID), nil
}

// Apply dispatches an intent to the matching operation.
func (s *Service) Apply(g *domain.Session, in Intent) ([]Event, error) {
	switch in.Kind {
	case IntentMove:
		return s.Move(g, in.PlayerID, in.X, in.Y)
	case IntentPickup:
		return s.Pickup(g, in.PlayerID, in.CardID)
	case IntentPlace, IntentPlacePost:
		if in.Kind == IntentPlacePost {
			in.PileID = ""
		}
		t, err := in.Target()
		if err != nil {
			return nil, err
		}
		return s.Place(g, in.PlayerID, t)
	case IntentDrop:
		if in.PileID == "" {
			return nil, reject(ErrMalformedIntent, "drop without pileId")
		}
		t, err := in.Target()
		if err != nil {
			return nil, err
		}
		return s.Place(g, in.PlayerID, t)
	case IntentCancel:
		return s.Cancel(g, in.PlayerID)
	case IntentCycle:
		return s.Cycle(g, in.PlayerID)
	case IntentDrawFromReserve, IntentDrawWood:
		return s.DrawFromReserve(g, in.PlayerID)
	case IntentRestart:
		return s.Restart(g, in.PlayerID, false)
	case IntentForceRestart:
		if !s.tuning.AllowForceRestart {
			return nil, reject(ErrInvalidState, "force restart requires dev mode")
		}
		return s.Restart(g, in.PlayerID, true)
	}
	return nil, reject(ErrMalformedIntent, "unknown intent %q", in.Kind)
}
