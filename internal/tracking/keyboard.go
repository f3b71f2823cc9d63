package tracking

import (
	"math"
	"time"

	"github.com/tomz197/nosecondbest/internal/input"
	"github.com/tomz197/nosecondbest/internal/object"
)

// Keyboard movement speeds in units per second.
const (
	ReticleSpeed = 1.2
	FaceSpeed    = 0.8
)

// Keyboard stands in for a camera in the terminal builds. The reticle plays
// the gesture tip and only counts while the hand is raised. Faces sit on a
// fixed row; the first one is steerable, the second one is parked on the
// right in two-player mode.
type Keyboard struct {
	Reticle object.Point
	Raised  bool

	faces []object.Point
}

// FaceRow is the y coordinate of simulated faces.
const FaceRow = 0.6

// NewKeyboard creates a source with one face per player.
func NewKeyboard(players int) *Keyboard {
	k := &Keyboard{Reticle: object.Point{X: 0.5, Y: 0.3}, Raised: true}
	k.SetPlayers(players)
	return k
}

// SetPlayers resets the faces for the given player count.
func (k *Keyboard) SetPlayers(players int) {
	switch {
	case players >= 2:
		k.faces = []object.Point{{X: 0.25, Y: FaceRow}, {X: 0.75, Y: FaceRow}}
	default:
		k.faces = []object.Point{{X: 0.5, Y: FaceRow}}
	}
}

// Update applies one frame of keyboard input. 'h' toggles the raised hand.
func (k *Keyboard) Update(in input.Input, dt time.Duration) {
	s := dt.Seconds()
	if in.Left {
		k.Reticle.X -= ReticleSpeed * s
	}
	if in.Right {
		k.Reticle.X += ReticleSpeed * s
	}
	if in.Up {
		k.Reticle.Y -= ReticleSpeed * s
	}
	if in.Down {
		k.Reticle.Y += ReticleSpeed * s
	}
	k.Reticle.X = clamp01(k.Reticle.X)
	k.Reticle.Y = clamp01(k.Reticle.Y)

	if in.Tapped('h') {
		k.Raised = !k.Raised
	}

	f := &k.faces[0]
	if in.FaceLeft {
		f.X -= FaceSpeed * s
	}
	if in.FaceRight {
		f.X += FaceSpeed * s
	}
	f.X = clamp01(f.X)
}

// Detect implements Source.
func (k *Keyboard) Detect(now time.Time) Frame {
	f := Frame{At: now, Faces: append([]object.Point(nil), k.faces...)}
	if k.Raised {
		f.Gestures = []object.Point{k.Reticle}
	}
	return Normalize(f, false)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
