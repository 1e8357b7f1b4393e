package domain

import "math"

// Stack offsets used when fanning cards for rendering.
const (
	blitzStackStep   = 0.1
	reserveStackStep = 0.05
	pileStackStep    = 0.1
)

// Layout is the cached set of anchor points for one seat. The same points are
// used for rendering hints and proximity checks.
type Layout struct {
	Spawn   Point
	Blitz   Point
	Visible [VisibleSlots]Point
	Recycle Point
	Reserve Point
}

// SeatAngle returns the angle of a seat around the table center.
func SeatAngle(seat int, t Tuning) float64 {
	n := t.MaxPlayers
	if n <= 0 {
		n = 1
	}
	return float64(seat%n) * 2 * math.Pi / float64(n)
}

// ComputeLayout derives the anchors for a seat.
//
// Top-down the personal area reads [slot 0][slot 1][slot 2] [blitz], with the
// recycle indicator centered under the visible row and the reserve beside it.
func ComputeLayout(seat int, t Tuning) Layout {
	angle := SeatAngle(seat, t)
	cos, sin := math.Cos(angle), math.Sin(angle)

	var l Layout
	l.Spawn = Point{X: cos * t.RingRadius, Y: sin * t.RingRadius}
	l.Blitz = Point{X: cos * (t.PileRadius + t.OutwardOffset), Y: sin * (t.PileRadius + t.OutwardOffset)}

	rightMost := l.Blitz.X - t.RightmostOffset
	leftMost := rightMost - t.VisibleSpacing*float64(VisibleSlots-1)
	for i := range l.Visible {
		l.Visible[i] = Point{X: leftMost + float64(i)*t.VisibleSpacing, Y: l.Blitz.Y}
	}

	rowCenter := (leftMost + rightMost) / 2
	l.Recycle = Point{X: rowCenter, Y: l.Blitz.Y + t.RecycleOffset}
	l.Reserve = Point{X: rowCenter - t.VisibleSpacing, Y: l.Recycle.Y}
	return l
}

// FoundationPosition centers the foundation piles on the x axis.
func FoundationPosition(index int, t Tuning) Point {
	mid := float64(t.FoundationCount-1) / 2
	return Point{X: (float64(index) - mid) * t.FoundationSpacing}
}

// ArrangePlayer refreshes the position of every card the player owns.
func ArrangePlayer(p *Player) {
	l := p.Layout
	for i, c := range p.Blitz {
		c.Position = Point{X: l.Blitz.X, Y: l.Blitz.Y + blitzStackStep*float64(i)}
	}
	for i, c := range p.Visible {
		if c != nil {
			c.Position = l.Visible[i]
		}
	}
	for i, c := range p.Reserve {
		c.Position = Point{X: l.Reserve.X, Y: l.Reserve.Y + reserveStackStep*float64(i)}
	}
	for i, c := range p.Recycle {
		c.Position = Point{X: l.Recycle.X, Y: l.Recycle.Y + reserveStackStep*float64(i)}
	}
	if p.Held != nil {
		p.Held.Position = p.Position
	}
}

// ArrangeFoundation refreshes the position of the cards on a pile.
func ArrangeFoundation(f *FoundationPile) {
	for i, c := range f.Stack {
		c.Position = Point{X: f.Position.X, Y: f.Position.Y + pileStackStep*float64(i)}
	}
}
