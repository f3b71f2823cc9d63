package server

import (
	"fmt"
	"image/color"

	"github.com/tomz197/nosecondbest/internal/loop/sim"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/protocol"
	"github.com/tomz197/nosecondbest/internal/tracking"
)

// stateMessage converts a snapshot into the wire form sent to the browser.
func stateMessage(snap *sim.Snapshot, highScore int) protocol.State {
	st := protocol.State{
		Status:     snap.Status.String(),
		Mode:       snap.Mode.String(),
		Theme:      snap.Theme.String(),
		Score:      snap.Score,
		Lives:      snap.Lives,
		MaxLives:   snap.MaxLives,
		ElapsedMs:  snap.Elapsed.Milliseconds(),
		Difficulty: snap.Difficulty,
		ShowHelp:   snap.ShowHelp,
		HighScore:  highScore,
		Enemies:    make([]protocol.EnemySnapshot, len(snap.Enemies)),
	}
	for i, e := range snap.Enemies {
		st.Enemies[i] = protocol.EnemySnapshot{
			ID:     e.ID,
			Kind:   e.Kind.String(),
			X:      e.X,
			Y:      e.Y,
			Size:   e.Size,
			Seeker: e.Behavior == object.Seeker,
			Label:  e.Label,
			Color:  hexColor(e.Color),
		}
	}
	for _, p := range snap.PowerUps {
		st.PowerUps = append(st.PowerUps, protocol.PowerUpSnapshot{
			ID:   p.ID,
			Kind: p.Kind.String(),
			X:    p.X,
			Y:    p.Y,
			Size: p.Size,
		})
	}
	for i := range snap.Particles {
		p := &snap.Particles[i]
		st.Particles = append(st.Particles, protocol.ParticleSnapshot{
			X:     p.X,
			Y:     p.Y,
			Size:  p.Size,
			Alpha: p.Alpha(),
			Color: hexColor(p.Color),
		})
	}
	return st
}

// gameOverMessage converts the end-of-match event.
func gameOverMessage(ev sim.GameOverEvent, best int, improved bool) protocol.GameOver {
	shots := ev.Screenshots
	if shots == nil {
		shots = [][]byte{}
	}
	return protocol.GameOver{
		MatchID:     ev.MatchID,
		Score:       ev.Score,
		Lives:       ev.Lives,
		Reason:      ev.Reason.String(),
		DurationMs:  ev.Duration.Milliseconds(),
		HighScore:   best,
		NewBest:     improved,
		Screenshots: shots,
	}
}

// trackingFrame converts wire points into a tracking frame. Points arrive in
// display space, so no mirroring happens here.
func trackingFrame(t protocol.Track) tracking.Frame {
	return tracking.Frame{
		Faces:    points(t.Faces),
		Gestures: points(t.Gestures),
	}
}

func points(in []protocol.Point) []object.Point {
	if len(in) == 0 {
		return nil
	}
	out := make([]object.Point, len(in))
	for i, p := range in {
		out[i] = object.Point{X: p.X, Y: p.Y}
	}
	return out
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
