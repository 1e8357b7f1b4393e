package domain

// WithinRadius reports whether a and b are at most radius apart.
// Compares squared distances; the boundary is inclusive.
func WithinRadius(a, b Point, radius float64) bool {
	return DistanceSq(a, b) <= radius*radius
}

// DistanceSq returns the squared distance between a and b.
func DistanceSq(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
