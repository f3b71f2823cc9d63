// Package physics provides distance, hit-test and broad-phase helpers for the
// normalized playfield.
package physics

import "math"

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// Within reports whether (px, py) lies strictly inside the circle of the given
// radius around (cx, cy). A point exactly on the boundary is a miss.
func Within(px, py, cx, cy, radius float64) bool {
	if radius <= 0 {
		return false
	}
	return DistanceSquared(px, py, cx, cy) < radius*radius
}

// Normalize returns the unit vector of (dx, dy). ok is false for a zero vector.
func Normalize(dx, dy float64) (ux, uy float64, ok bool) {
	mag := math.Sqrt(dx*dx + dy*dy)
	if mag == 0 || math.IsNaN(mag) {
		return 0, 0, false
	}
	return dx / mag, dy / mag, true
}

// InBounds reports whether (x, y) lies inside [lo, hi] on both axes.
func InBounds(x, y, lo, hi float64) bool {
	return x >= lo && x <= hi && y >= lo && y <= hi
}
