package domain

const (
	// DeckSize is the number of cards in a personal deck.
	DeckSize = 40
	// MaxValue is the highest card value; landing it completes a foundation pile.
	MaxValue = 10
	// BlitzSize is the number of cards dealt to the blitz stack.
	BlitzSize = 10
	// VisibleSlots is the fixed width of the visible row.
	VisibleSlots = 3
	// RecycleDraw is how many reserve cards an indicator draw turns over.
	RecycleDraw = 3
	// BlitzPenalty is subtracted from the final score for each card left in the blitz stack.
	BlitzPenalty = 2
)

// Tuning groups the table geometry and action radii. All distances are in table units.
type Tuning struct {
	MaxPlayers        int
	FoundationCount   int
	MinPlayersToStart int

	FoundationSpacing float64
	RingRadius        float64 // player spawn ring
	PileRadius        float64 // personal pile ring
	OutwardOffset     float64
	VisibleSpacing    float64
	RightmostOffset   float64 // gap between blitz anchor and rightmost visible slot
	RecycleOffset     float64 // recycle indicator distance below the visible row

	FoundationRadius  float64
	VisibleSlotRadius float64
	BlitzRadius       float64
	RecycleRadius     float64
	CancelRadius      float64

	// BlitzFaceUp deals the whole blitz stack face-up; otherwise only its top is revealed.
	BlitzFaceUp bool
	// AllowForceRestart lets any seated player restart a game still in progress.
	AllowForceRestart bool
}

// DefaultTuning returns the standard eight-seat table.
func DefaultTuning() Tuning {
	return Tuning{
		MaxPlayers:        8,
		FoundationCount:   4,
		MinPlayersToStart: 2,
		FoundationSpacing: 5,
		RingRadius:        15,
		PileRadius:        20,
		OutwardOffset:     4,
		VisibleSpacing:    3,
		RightmostOffset:   2.6,
		RecycleOffset:     4,
		FoundationRadius:  2.0,
		VisibleSlotRadius: 2.0,
		BlitzRadius:       2.0,
		RecycleRadius:     2.0,
		CancelRadius:      1.5,
		BlitzFaceUp:       true,
	}
}
