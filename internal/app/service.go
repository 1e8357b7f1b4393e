package app

import (
	"math"
	"math/rand"
	"time"

	"dutchblitz/internal/domain"
)

// Service contains Blitz use-cases operating on domain state. It holds no
// session state of its own; callers serialize access to each Session.
type Service struct {
	rng    *rand.Rand
	tuning domain.Tuning
}

// NewService constructs a Service with provided rng or a time-seeded default.
// A zero Tuning selects domain.DefaultTuning.
func NewService(rng *rand.Rand, tuning domain.Tuning) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if tuning.MaxPlayers <= 0 {
		tuning = domain.DefaultTuning()
	}
	return &Service{rng: rng, tuning: tuning}
}

// Tuning returns the geometry and radii the service validates against.
func (s *Service) Tuning() domain.Tuning {
	return s.tuning
}

// NewSession creates an empty waiting session.
func (s *Service) NewSession() *domain.Session {
	return domain.NewSession(s.tuning)
}

// Join seats a new player, deals their deck and starts the game once enough
// players are present.
func (s *Service) Join(g *domain.Session, playerID string) ([]Event, error) {
	if playerID == "" {
		return nil, reject(ErrMalformedIntent, "empty player id")
	}
	if _, ok := g.Players[playerID]; ok {
		return nil, reject(ErrInvalidState, "player %s already joined", playerID)
	}
	seat := domain.LowestAvailableSeat(g.Seats)
	if seat < 0 {
		return nil, reject(ErrInvalidState, "session full (%d seats)", len(g.Seats))
	}
	// Ids derive from owner+color+value, so a returning player must wait
	// until their old foundation cards are cleared.
	for _, c := range g.Cards {
		if c.Owner == playerID {
			return nil, reject(ErrInvalidState, "cards of a previous seat of %s are still in play", playerID)
		}
	}

	layout := domain.ComputeLayout(seat, s.tuning)
	p := &domain.Player{ID: playerID, Seat: seat, Position: layout.Spawn, Layout: layout}
	s.deal(g, p)
	g.Seats[seat] = playerID
	g.Players[playerID] = p

	events := []Event{{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{PlayerID: playerID, Seat: seat},
	}}
	if g.Status == domain.StatusWaiting && len(g.Players) >= s.tuning.MinPlayersToStart {
		g.Status = domain.StatusPlaying
		events = append(events, Event{
			Kind:    EventGameStarted,
			Payload: GameStartedPayload{Players: seatedIDs(g)},
		})
	}
	return events, nil
}

// Leave removes a player and every card they own outside the foundations.
func (s *Service) Leave(g *domain.Session, playerID string) ([]Event, error) {
	p, err := playerOf(g, playerID)
	if err != nil {
		return nil, err
	}
	for _, c := range p.Cards() {
		delete(g.Cards, c.ID)
	}
	g.Seats[p.Seat] = ""
	delete(g.Players, playerID)

	if len(g.Players) == 0 {
		resetTable(g)
		g.Status = domain.StatusWaiting
		g.Winner = ""
	}
	return []Event{{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{PlayerID: playerID}}}, nil
}

// Move updates the server-authoritative position of a player.
func (s *Service) Move(g *domain.Session, playerID string, x, y float64) ([]Event, error) {
	p, err := playerOf(g, playerID)
	if err != nil {
		return nil, err
	}
	if !finite(x) || !finite(y) {
		return nil, reject(ErrMalformedIntent, "non-finite position (%v, %v)", x, y)
	}
	p.Position = domain.Point{X: x, Y: y}
	if p.Held != nil {
		p.Held.Position = p.Position
	}
	return nil, nil
}

// Restart redeals every seated player and clears the foundations.
// Unless force is set it is only accepted once the game has finished.
func (s *Service) Restart(g *domain.Session, playerID string, force bool) ([]Event, error) {
	if _, err := playerOf(g, playerID); err != nil {
		return nil, err
	}
	if !force && g.Status != domain.StatusFinished {
		return nil, reject(ErrInvalidState, "restart requires a finished game, status is %s", g.Status)
	}

	resetTable(g)
	g.Cards = make(map[string]*domain.Card)
	for _, p := range g.SeatOrder() {
		p.Layout = domain.ComputeLayout(p.Seat, s.tuning)
		s.deal(g, p)
	}
	g.Status = domain.StatusPlaying
	g.Winner = ""

	return []Event{{
		Kind:    EventGameRestarted,
		Payload: GameRestartedPayload{PlayerID: playerID, Forced: force},
	}}, nil
}

func (s *Service) deal(g *domain.Session, p *domain.Player) {
	deck := domain.GenerateDeck(p.ID, s.rng)
	domain.Deal(p, deck, s.tuning.BlitzFaceUp)
	for _, c := range deck {
		g.Cards[c.ID] = c
	}
	p.Held = nil
	p.Origin = domain.Origin{}
	p.Score = 0
	domain.ArrangePlayer(p)
}

func resetTable(g *domain.Session) {
	for _, f := range g.Foundations {
		for _, c := range f.Stack {
			delete(g.Cards, c.ID)
		}
		f.Stack = nil
		f.Color = ""
	}
}

func playerOf(g *domain.Session, playerID string) (*domain.Player, error) {
	p, ok := g.Players[playerID]
	if !ok {
		return nil, reject(ErrNotFound, "player %s", playerID)
	}
	return p, nil
}

func requirePlaying(g *domain.Session) error {
	if g.Status != domain.StatusPlaying {
		return reject(ErrInvalidState, "game is %s", g.Status)
	}
	return nil
}

func seatedIDs(g *domain.Session) []string {
	players := g.SeatOrder()
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
