package object

import (
	"image/color"
	"math"
	"time"

	"github.com/tomz197/nosecondbest/internal/draw"
)

// PowerUpKind is the closed set of collectables.
type PowerUpKind uint8

const (
	PowerUpBomb PowerUpKind = iota // Touched by a gesture: clears the field
	PowerUpCoin                    // Eaten with the mouth: bonus and clear
)

func (k PowerUpKind) String() string {
	if k == PowerUpCoin {
		return "coin"
	}
	return "bomb"
}

var (
	bombColor = hex(0xf59e0b)
	coinColor = hex(0xf7931a)
)

// Color is the display color of the collectable.
func (k PowerUpKind) Color() color.RGBA {
	if k == PowerUpCoin {
		return coinColor
	}
	return bombColor
}

// PowerUp drifts across the field until collected or gone.
type PowerUp struct {
	ID     uint64
	X, Y   float64
	VX, VY float64 // Units per second
	Size   float64
	Kind   PowerUpKind
	Life   float64 // Seconds alive, drives the pulse
	BornAt time.Duration
}

// Advance drifts the power-up and applies the vertical bob.
func (p *PowerUp) Advance(ctx MotionContext) {
	p.X += p.VX * ctx.DT
	p.Y += p.VY*ctx.DT + math.Sin(ctx.T.Seconds()*3)*ctx.Tuning.PowerUpBob*ctx.DT
	p.Life += ctx.DT
}

// Gone reports whether the power-up drifted fully off the right edge.
func (p *PowerUp) Gone(maxX float64) bool {
	return p.X > maxX
}

// Draw renders a pulsing orb. It blinks while leaving the field.
func (p *PowerUp) Draw(ctx DrawContext) {
	if p.X > 1 && !ShouldRenderBlink(p.X-1, 40) {
		return
	}
	center := ctx.at(p.X, p.Y)
	pulse := 1 + math.Sin(p.Life*6)*0.1
	r := ctx.radius(p.Size/2) * pulse
	col := draw.RGB(p.Kind.Color())
	ctx.Canvas.FillCircle(center, r, col)
	ctx.Canvas.DrawRing(center, r*1.4, draw.Dim(col))
}
