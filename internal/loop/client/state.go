package client

import (
	"time"

	"github.com/tomz197/nosecondbest/internal/input"
	"github.com/tomz197/nosecondbest/internal/loop/sim"
)

// ClientState holds what the terminal needs between frames that the match
// controller does not own.
type ClientState struct {
	Input   input.Input
	Running bool
	delta   time.Duration

	prevStatus  sim.Status
	prevMode    sim.Mode
	shutdown    bool    // Server is shutting down
	wasShutdown bool
	shutdownFor float64 // Seconds left on the shutdown screen
	isInactive  bool
	wasInactive bool

	biteFlash float64 // Seconds left to blink the lives row
	lastLives []int

	lastGame  *sim.GameOverEvent
	saved     []string // Screenshot files written for lastGame
	highScore int
	newBest   bool
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Running:    true,
		prevStatus: sim.StatusIdle,
	}
}
