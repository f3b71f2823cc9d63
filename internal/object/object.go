// Package object defines the playfield entities: enemies, particles and
// power-ups, plus the theme tables that decide what spawns.
package object

import (
	"image/color"
	"math"
	"math/rand/v2"
	"time"

	"github.com/tomz197/nosecondbest/internal/draw"
	"github.com/tomz197/nosecondbest/internal/loop/config"
)

// Point is a position in the unit square.
type Point struct {
	X, Y float64
}

// Valid reports whether both coordinates are finite numbers.
func (p Point) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Rand is the random source behind every spawn, burst and motion draw.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// GlobalRand draws from the math/rand/v2 package source.
type GlobalRand struct{}

func (GlobalRand) Float64() float64 { return rand.Float64() }
func (GlobalRand) IntN(n int) int   { return rand.IntN(n) }

// Between returns a uniform value in [lo, hi).
func Between(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// MotionContext carries the per-frame inputs for entity motion.
type MotionContext struct {
	DT     float64       // Seconds since the previous frame
	T      time.Duration // Match time
	Rand   Rand
	Tuning *config.Tuning
}

// DrawContext provides drawing resources for entities.
type DrawContext struct {
	Canvas *draw.Canvas
	T      time.Duration // Match time, drives animation
}

// at maps a unit-square position onto the canvas.
func (ctx DrawContext) at(x, y float64) draw.Point {
	return ctx.Canvas.FromUnit(x, y)
}

// radius converts a normalized size into logical canvas units along x.
func (ctx DrawContext) radius(size float64) float64 {
	return size * ctx.Canvas.LogicalWidth()
}

// hex builds an opaque color from a 0xRRGGBB literal.
func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// ShouldRenderBlink returns true if an entity with remaining protection
// time should be rendered this frame (for blinking effect).
// Returns true always if remainingTime <= 0.
func ShouldRenderBlink(remainingTime float64, frequency float64) bool {
	if remainingTime <= 0 {
		return true
	}
	phase := int(remainingTime * frequency)
	return phase%2 != 0
}
