package domain

// IsLegalFoundationMove reports whether card may be placed on pile.
// An empty pile only accepts a 1; otherwise the card must continue the
// pile's color with the next value.
func IsLegalFoundationMove(card *Card, pile *FoundationPile) bool {
	top := TopCard(pile.Stack)
	if top == nil {
		return card.Value == 1
	}
	if pile.Color != "" && card.Color != pile.Color {
		return false
	}
	return card.Value == top.Value+1
}

// HasWon reports whether the player has emptied their blitz stack.
func HasWon(p *Player) bool {
	return len(p.Blitz) == 0
}
