package domain

// CompletePile removes a finished pile's cards from play and resets it.
// It returns the ids of the removed cards.
func CompletePile(s *Session, f *FoundationPile) []string {
	removed := make([]string, 0, len(f.Stack))
	for _, c := range f.Stack {
		delete(s.Cards, c.ID)
		removed = append(removed, c.ID)
	}
	f.Stack = nil
	f.Color = ""
	return removed
}

// FinalScore is a player's running score less the blitz penalty.
func FinalScore(p *Player) int {
	return p.Score - BlitzPenalty*len(p.Blitz)
}

// FinalizeScores applies the end-of-game penalty to every player and returns
// the resulting scores keyed by player id.
func FinalizeScores(s *Session) map[string]int {
	scores := make(map[string]int, len(s.Players))
	for id, p := range s.Players {
		p.Score = FinalScore(p)
		scores[id] = p.Score
	}
	return scores
}
