package domain

// Status represents the lifecycle stage of a Blitz session.
type Status string

const (
	// StatusWaiting is the pre-game state while players gather.
	StatusWaiting Status = "waiting"
	// StatusPlaying is the active real-time game state.
	StatusPlaying Status = "playing"
	// StatusFinished is the state after a player has emptied their blitz stack.
	StatusFinished Status = "finished"
)

// Color is one of the four card colors of a personal deck.
type Color string

const (
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
)

// Colors lists the deck colors in generation order.
var Colors = [4]Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

// Point is a position on the table plane.
type Point struct {
	X float64
	Y float64
}

// Card is a single card of a player's personal deck.
type Card struct {
	ID       string
	Value    int // 1..10
	Color    Color
	Owner    string // immutable after creation
	FaceUp   bool
	Position Point // rendering hint, recomputed from the owner's layout
}

// Source names the personal collection a held card was taken from.
type Source string

const (
	SourceBlitz   Source = "blitz"
	SourceVisible Source = "visible"
	SourceReserve Source = "reserve"
	SourceRecycle Source = "recycle"
)

// Origin records where a held card came from at pickup time.
type Origin struct {
	Source Source
	Slot   int  // visible row slot, only meaningful for SourceVisible
	FaceUp bool // face of the card before it was picked up
	// Revealed is true when pickup flipped the card underneath face-up.
	Revealed bool
	Point    Point // player position at pickup
}

// Player holds state for a participant in the session.
type Player struct {
	ID       string
	Seat     int // 0-based seat index
	Position Point
	Layout   Layout

	Held   *Card
	Origin Origin

	Blitz   []*Card // top is last
	Reserve []*Card // top is last, face-down
	Visible [VisibleSlots]*Card
	Recycle []*Card // top is last, only the top is face-up

	Score int
}

// FoundationPile is a shared pile built from 1 to 10 in a single color.
type FoundationPile struct {
	Index    int
	Position Point
	Color    Color // empty until the first card lands
	Stack    []*Card
}

// ID returns the pile's target id.
func (f *FoundationPile) ID() string {
	return FoundationTarget(f.Index).ID()
}

// Session holds the authoritative state for one game.
type Session struct {
	Status Status
	Winner string

	Players map[string]*Player // playerId -> player
	Seats   []string           // seat index => playerId or ""

	Cards       map[string]*Card // every card still in play
	Foundations []*FoundationPile
}

// NewSession creates an empty waiting session laid out for the given tuning.
func NewSession(t Tuning) *Session {
	s := &Session{
		Status:      StatusWaiting,
		Players:     make(map[string]*Player),
		Seats:       make([]string, t.MaxPlayers),
		Cards:       make(map[string]*Card),
		Foundations: make([]*FoundationPile, t.FoundationCount),
	}
	for i := range s.Foundations {
		s.Foundations[i] = &FoundationPile{Index: i, Position: FoundationPosition(i, t)}
	}
	return s
}
