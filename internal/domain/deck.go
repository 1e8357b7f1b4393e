package domain

import (
	"fmt"
	"math/rand"
)

// CardID derives the unique id of a card from its owner, color and value.
func CardID(owner string, color Color, value int) string {
	return fmt.Sprintf("%s_%s_%d", owner, color, value)
}

// NewDeck returns an ordered 40-card deck for owner, all face-down.
func NewDeck(owner string) []*Card {
	deck := make([]*Card, 0, DeckSize)
	for _, c := range Colors {
		for v := 1; v <= MaxValue; v++ {
			deck = append(deck, &Card{ID: CardID(owner, c, v), Value: v, Color: c, Owner: owner})
		}
	}
	return deck
}

// ShuffleDeck returns a Fisher-Yates shuffled copy of deck drawn from rng.
func ShuffleDeck(deck []*Card, rng *rand.Rand) []*Card {
	out := make([]*Card, len(deck))
	copy(out, deck)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// GenerateDeck returns a freshly shuffled deck for owner.
func GenerateDeck(owner string, rng *rand.Rand) []*Card {
	return ShuffleDeck(NewDeck(owner), rng)
}

// Deal splits a shuffled deck into the player's personal piles:
// the first cards form the blitz stack, the next fill the visible row
// and the rest become the face-down reserve.
func Deal(p *Player, deck []*Card, blitzFaceUp bool) {
	p.Blitz = append([]*Card(nil), deck[:BlitzSize]...)
	for _, c := range p.Blitz {
		c.FaceUp = blitzFaceUp
	}
	if top := TopCard(p.Blitz); top != nil {
		top.FaceUp = true
	}

	rest := deck[BlitzSize:]
	p.Visible = [VisibleSlots]*Card{}
	for i := 0; i < VisibleSlots && len(rest) > 0; i++ {
		rest[0].FaceUp = true
		p.Visible[i] = rest[0]
		rest = rest[1:]
	}

	p.Reserve = append([]*Card(nil), rest...)
	for _, c := range p.Reserve {
		c.FaceUp = false
	}
	p.Recycle = nil
}
