package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomz197/nosecondbest/internal/highscore"
	"github.com/tomz197/nosecondbest/internal/loop/sim"
)

var _ sim.Listener = (*Client)(nil)

// BlinkFrequency is how fast the lives row flashes after a bite.
const BlinkFrequency = 8.0

// ScoreChanged implements sim.Listener. The HUD reads the score from the
// snapshot, so nothing is cached here.
func (c *Client) ScoreChanged(int) {}

// LivesChanged implements sim.Listener and starts the bite flash when any
// player lost a life.
func (c *Client) LivesChanged(lives []int) {
	prev := c.state.lastLives
	if len(prev) == len(lives) {
		for i := range lives {
			if lives[i] < prev[i] {
				c.state.biteFlash = 1
				break
			}
		}
	}
	c.state.lastLives = append(c.state.lastLives[:0], lives...)
}

// GameOver implements sim.Listener: it records the high score and writes the
// screenshots to disk.
func (c *Client) GameOver(ev sim.GameOverEvent) {
	c.state.lastGame = &ev

	if c.scores != nil {
		best, improved, err := c.scores.Record(highscore.Variant(ev.Mode.String(), ev.Theme.String()), ev.Score)
		if err != nil {
			c.log.Warn("high score not saved", "err", err)
		}
		c.state.highScore = best
		c.state.newBest = improved && ev.Score > 0
	}

	if c.shotDir == "" || len(ev.Screenshots) == 0 {
		return
	}
	paths, err := saveScreenshots(c.shotDir, ev.MatchID, ev.Screenshots)
	if err != nil {
		c.log.Warn("screenshots not saved", "err", err)
	}
	c.state.saved = paths
	c.log.Info("screenshots saved", "match", ev.MatchID, "count", len(paths))
}

// saveScreenshots writes shots as <dir>/<match>-<n>.jpg and returns the paths
// written before the first failure.
func saveScreenshots(dir, matchID string, shots [][]byte) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	paths := make([]string, 0, len(shots))
	for i, shot := range shots {
		p := filepath.Join(dir, fmt.Sprintf("%s-%d.jpg", matchID, i+1))
		if err := os.WriteFile(p, shot, 0o644); err != nil {
			return paths, fmt.Errorf("write screenshot: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
