package object

import (
	"image/color"
	"math"
	"time"

	"github.com/tomz197/nosecondbest/internal/draw"
)

// Behavior decides how an enemy picks its heading at spawn.
type Behavior uint8

const (
	Wanderer Behavior = iota // Drifts toward the center with lateral wobble
	Seeker                   // Heads straight for its target face
)

func (b Behavior) String() string {
	if b == Seeker {
		return "seeker"
	}
	return "wanderer"
}

// SeekMode chooses a Behavior for a freshly spawned enemy.
type SeekMode uint8

const (
	SeekNever  SeekMode = iota
	SeekAlways
	SeekRamp // Chance grows with difficulty
)

// MotionRule is the per-frame movement applied on top of the velocity.
type MotionRule uint8

const (
	MotionDrift     MotionRule = iota // Linear, wanderers add sinusoidal wobble
	MotionSteady                      // Linear only
	MotionDartPause                   // Random bursts of speed and freezes
)

// Kind is the closed set of enemy variants across all themes.
type Kind uint8

const (
	KindAltcoin Kind = iota
	KindBeetle
	KindFly
	KindWasp
	KindWalker
	KindRunner
	KindCrawler
	KindJumper
	kindCount
)

// Profile fixes the speed, seek mode, motion and look of a Kind.
type Profile struct {
	Name      string
	SpeedMult float64
	Seek      SeekMode
	Motion    MotionRule
	Color     color.RGBA
}

var profiles = [kindCount]Profile{
	KindAltcoin: {Name: "altcoin", SpeedMult: 1.0, Seek: SeekRamp, Motion: MotionDrift, Color: hex(0x627eea)},
	KindBeetle:  {Name: "beetle", SpeedMult: 0.9, Seek: SeekRamp, Motion: MotionDrift, Color: hex(0x7c4a1e)},
	KindFly:     {Name: "fly", SpeedMult: 1.2, Seek: SeekNever, Motion: MotionDrift, Color: hex(0x6b7280)},
	KindWasp:    {Name: "wasp", SpeedMult: 1.4, Seek: SeekAlways, Motion: MotionDrift, Color: hex(0xfacc15)},
	KindWalker:  {Name: "walker", SpeedMult: 0.3, Seek: SeekAlways, Motion: MotionSteady, Color: hex(0x65a30d)},
	KindRunner:  {Name: "runner", SpeedMult: 0.5, Seek: SeekAlways, Motion: MotionSteady, Color: hex(0xb91c1c)},
	KindCrawler: {Name: "crawler", SpeedMult: 1.0, Seek: SeekNever, Motion: MotionDartPause, Color: hex(0x7e22ce)},
	KindJumper:  {Name: "jumper", SpeedMult: 1.5, Seek: SeekAlways, Motion: MotionDartPause, Color: hex(0x1f2937)},
}

// Profile returns the static profile for k.
func (k Kind) Profile() Profile {
	if k >= kindCount {
		return profiles[KindAltcoin]
	}
	return profiles[k]
}

func (k Kind) String() string {
	return k.Profile().Name
}

// Enemy is a hostile entity heading for the players.
type Enemy struct {
	ID         uint64
	X, Y       float64 // Position
	VX, VY     float64 // Velocity, units per second
	Size       float64
	Behavior   Behavior
	Kind       Kind
	Speed      float64
	WobbleSeed float64 // Phase offset for the wobble
	AnimSeed   float64 // Phase offset for the draw animation
	CreatedAt  time.Duration
	Target     int    // Index of the player this enemy is after
	Label      string // Ticker for altcoins, empty otherwise
	Color      color.RGBA
}

// Advance moves the enemy by one frame according to its kind's motion rule.
func (e *Enemy) Advance(ctx MotionContext) {
	t := ctx.Tuning
	mult := 1.0

	switch e.Kind.Profile().Motion {
	case MotionDartPause:
		switch {
		case ctx.Rand.Float64() < t.DartChance:
			mult = t.DartMult
		case t.PausePhase.Duration > 0 && (ctx.T/t.PausePhase.Duration)%2 == 1 && ctx.Rand.Float64() < t.PauseChance:
			mult = 0
		}
	}

	e.X += e.VX * mult * ctx.DT
	e.Y += e.VY * mult * ctx.DT

	if e.Behavior == Wanderer && e.Kind.Profile().Motion == MotionDrift {
		w := math.Sin(ctx.T.Seconds()*t.WobbleFreq+e.WobbleSeed) * t.WobbleAmp * ctx.DT
		e.X += w
		e.Y += w
	}
}

// Draw renders the enemy as a filled disc with a kind-specific accent.
func (e *Enemy) Draw(ctx DrawContext) {
	c := ctx.Canvas
	center := ctx.at(e.X, e.Y)
	r := ctx.radius(e.Size / 2)
	col := draw.RGB(e.Color)

	switch e.Kind {
	case KindWalker, KindRunner:
		// Square-ish body with a sway
		sway := math.Sin(ctx.T.Seconds()*4+e.AnimSeed) * r * 0.3
		pts := c.BorrowPoints(4)
		pts[0] = draw.Point{X: center.X - r + sway, Y: center.Y - r}
		pts[1] = draw.Point{X: center.X + r + sway, Y: center.Y - r}
		pts[2] = draw.Point{X: center.X + r, Y: center.Y + r}
		pts[3] = draw.Point{X: center.X - r, Y: center.Y + r}
		c.DrawPolygon(pts, true, col)
	case KindCrawler, KindJumper:
		c.FillCircle(center, r*0.7, col)
		// Legs
		for i := 0; i < 4; i++ {
			a := float64(i)*math.Pi/3 - math.Pi/2 + math.Sin(ctx.T.Seconds()*10+e.AnimSeed)*0.2
			dx := math.Cos(a) * r * 1.4
			dy := math.Sin(a) * r * 1.4
			c.DrawLine(center, draw.Point{X: center.X + dx, Y: center.Y + dy}, col)
			c.DrawLine(center, draw.Point{X: center.X - dx, Y: center.Y + dy}, col)
		}
	default:
		c.FillCircle(center, r, col)
		if e.Behavior == Seeker {
			c.DrawRing(center, r*1.3, draw.Dim(col))
		}
	}
}
