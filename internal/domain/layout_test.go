package domain

import (
	"math"
	"testing"
)

func near(a, b Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestWithinRadiusBoundary(t *testing.T) {
	origin := Point{}
	if !WithinRadius(origin, Point{X: 3, Y: 4}, 5) {
		t.Fatalf("distance equal to radius must be within")
	}
	if WithinRadius(origin, Point{X: 3, Y: 4.001}, 5) {
		t.Fatalf("distance above radius must be outside")
	}
	if got := DistanceSq(Point{X: 1, Y: 1}, Point{X: -2, Y: 5}); got != 25 {
		t.Fatalf("DistanceSq() = %v, want 25", got)
	}
}

func TestComputeLayoutSeatZero(t *testing.T) {
	l := ComputeLayout(0, DefaultTuning())

	checks := []struct {
		name      string
		got, want Point
	}{
		{"spawn", l.Spawn, Point{X: 15}},
		{"blitz", l.Blitz, Point{X: 24}},
		{"slot 0", l.Visible[0], Point{X: 15.4}},
		{"slot 1", l.Visible[1], Point{X: 18.4}},
		{"slot 2", l.Visible[2], Point{X: 21.4}},
		{"recycle", l.Recycle, Point{X: 18.4, Y: 4}},
		{"reserve", l.Reserve, Point{X: 15.4, Y: 4}},
	}
	for _, c := range checks {
		if !near(c.got, c.want) {
			t.Errorf("%s = %+v, want %+v", c.name, c.got, c.want)
		}
	}
}

func TestComputeLayoutRotatesWithSeat(t *testing.T) {
	tn := DefaultTuning()
	l := ComputeLayout(2, tn) // a quarter turn with eight seats
	if !near(l.Spawn, Point{Y: tn.RingRadius}) {
		t.Fatalf("spawn = %+v, want (0, %v)", l.Spawn, tn.RingRadius)
	}
	if d := math.Sqrt(DistanceSq(Point{}, l.Blitz)); math.Abs(d-(tn.PileRadius+tn.OutwardOffset)) > 1e-9 {
		t.Fatalf("blitz distance = %v", d)
	}
	if ComputeLayout(2+tn.MaxPlayers, tn) != l {
		t.Fatalf("seat index does not wrap at MaxPlayers")
	}
}

func TestFoundationPosition(t *testing.T) {
	tn := DefaultTuning()
	want := []float64{-7.5, -2.5, 2.5, 7.5}
	for i, x := range want {
		if got := FoundationPosition(i, tn); got != (Point{X: x}) {
			t.Errorf("FoundationPosition(%d) = %+v, want x=%v", i, got, x)
		}
	}
}

func TestArrangePlayer(t *testing.T) {
	p := &Player{Layout: ComputeLayout(0, DefaultTuning()), Position: Point{X: 1, Y: 2}}
	p.Blitz = []*Card{{ID: "b0"}, {ID: "b1"}}
	p.Visible[1] = &Card{ID: "v1"}
	p.Reserve = []*Card{{ID: "r0"}, {ID: "r1"}}
	p.Held = &Card{ID: "h"}
	ArrangePlayer(p)

	if !near(p.Blitz[1].Position, Point{X: p.Layout.Blitz.X, Y: p.Layout.Blitz.Y + 0.1}) {
		t.Errorf("blitz[1] = %+v", p.Blitz[1].Position)
	}
	if p.Visible[1].Position != p.Layout.Visible[1] {
		t.Errorf("visible[1] = %+v", p.Visible[1].Position)
	}
	if !near(p.Reserve[1].Position, Point{X: p.Layout.Reserve.X, Y: p.Layout.Reserve.Y + 0.05}) {
		t.Errorf("reserve[1] = %+v", p.Reserve[1].Position)
	}
	if p.Held.Position != p.Position {
		t.Errorf("held card must follow the player, got %+v", p.Held.Position)
	}
}
