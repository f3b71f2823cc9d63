package object

import (
	"image/color"
	"math"
	"sync"

	"github.com/tomz197/nosecondbest/internal/draw"
)

// particlePool is a sync.Pool for reusing Particle objects to reduce allocations.
var particlePool = sync.Pool{
	New: func() any {
		return &Particle{}
	},
}

// White is the burst color of an area clear.
var White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Particle is a short-lived cosmetic spark. It never collides.
type Particle struct {
	X, Y   float64 // Position
	VX, VY float64 // Velocity, units per second
	Life   float64 // 1 at birth, removed at 0
	Size   float64
	Color  color.RGBA
}

// NewParticle creates a single particle from the pool.
func NewParticle(x, y, vx, vy, size float64, c color.RGBA) *Particle {
	p := particlePool.Get().(*Particle)
	p.X = x
	p.Y = y
	p.VX = vx
	p.VY = vy
	p.Life = 1
	p.Size = size
	p.Color = c
	return p
}

// Release returns the particle to the pool for reuse.
// Should be called when the particle is removed from the game.
func (p *Particle) Release() {
	particlePool.Put(p)
}

// BurstSpec describes a radial burst.
type BurstSpec struct {
	Count              int
	SpeedMin, SpeedMax float64
	SpeedScale         float64 // 1 for kills, 2 for area clears
	Color              color.RGBA
}

// Burst appends Count particles at evenly spaced angles around (x, y).
func Burst(dst []*Particle, x, y float64, spec BurstSpec, r Rand) []*Particle {
	scale := spec.SpeedScale
	if scale == 0 {
		scale = 1
	}
	for i := 0; i < spec.Count; i++ {
		angle := float64(i) / float64(spec.Count) * 2 * math.Pi
		spd := Between(r, spec.SpeedMin, spec.SpeedMax) * scale
		size := Between(r, 0.01, 0.02)
		dst = append(dst, NewParticle(x, y, math.Cos(angle)*spd, math.Sin(angle)*spd, size, spec.Color))
	}
	return dst
}

// Update integrates and decays the particle. Returns true once it is spent.
func (p *Particle) Update(dt, decay float64) bool {
	p.X += p.VX * dt
	p.Y += p.VY * dt
	p.Life -= decay * dt
	return p.Life <= 0
}

// Alpha is the draw opacity, proportional to the remaining life.
func (p *Particle) Alpha() float64 {
	return math.Max(0, math.Min(1, p.Life))
}

// Draw renders the particle. Faint particles shrink to a single dim ember.
func (p *Particle) Draw(ctx DrawContext) {
	a := p.Alpha()
	if a < 0.15 {
		return
	}
	col := draw.RGB(p.Color)
	pos := ctx.at(p.X, p.Y)
	if a < 0.5 {
		ctx.Canvas.SetFloat(pos.X, pos.Y, draw.Dim(col))
		return
	}
	ctx.Canvas.FillCircle(pos, ctx.radius(p.Size/2), col)
}
