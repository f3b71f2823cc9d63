package audio

import "fmt"

// Cue is a one-shot sound effect requested by the game.
type Cue uint8

const (
	CueBlast     Cue = iota // Enemy destroyed by a gesture
	CuePowerUp              // Power-up collected
	CueBite                 // Life lost
	CueMilestone            // Score milestone crossed
	cueCount
)

var cueNames = [cueCount]string{
	CueBlast:     "blast",
	CuePowerUp:   "powerup",
	CueBite:      "bite",
	CueMilestone: "milestone",
}

func (c Cue) String() string {
	if c >= cueCount {
		return fmt.Sprintf("cue(%d)", c)
	}
	return cueNames[c]
}

// Cues lists every cue.
func Cues() []Cue {
	out := make([]Cue, 0, cueCount)
	for c := Cue(0); c < cueCount; c++ {
		out = append(out, c)
	}
	return out
}
