package sim

import (
	"time"

	"github.com/tomz197/nosecondbest/internal/object"
)

// Snapshot is a copy of the match state for renderers and the capture
// pipeline. It shares no memory with the controller.
type Snapshot struct {
	MatchID    string
	Status     Status
	Mode       Mode
	Theme      object.Theme
	Score      int
	Lives      []int
	MaxLives   int
	Elapsed    time.Duration
	Difficulty float64
	ShowHelp   bool // No gesture seen yet this match
	Enemies    []object.Enemy
	PowerUps   []object.PowerUp
	Particles  []object.Particle
	Faces      []object.Point
	Gestures   []object.Point
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		MatchID:    c.matchID,
		Status:     c.status,
		Mode:       c.mode,
		Theme:      c.theme,
		Score:      c.score,
		Lives:      c.Lives(),
		MaxLives:   c.tun.MaxLives,
		Elapsed:    c.elapsed,
		Difficulty: c.difficulty,
		ShowHelp:   c.inMatch() && !c.gestureSeen,
		Enemies:    make([]object.Enemy, len(c.enemies)),
		PowerUps:   make([]object.PowerUp, len(c.powerUps)),
		Particles:  make([]object.Particle, len(c.particles)),
		Faces:      append([]object.Point(nil), c.faces...),
		Gestures:   append([]object.Point(nil), c.gestures...),
	}
	for i, e := range c.enemies {
		s.Enemies[i] = *e
	}
	for i, p := range c.powerUps {
		s.PowerUps[i] = *p
	}
	for i, p := range c.particles {
		s.Particles[i] = *p
	}
	return s
}

// Draw renders the snapshot's entities. Particles go first so enemies stay
// on top.
func (s *Snapshot) Draw(ctx object.DrawContext) {
	for i := range s.Particles {
		s.Particles[i].Draw(ctx)
	}
	for i := range s.PowerUps {
		s.PowerUps[i].Draw(ctx)
	}
	for i := range s.Enemies {
		s.Enemies[i].Draw(ctx)
	}
}
