package sim

import (
	"image/color"
	"time"

	"github.com/tomz197/nosecondbest/internal/audio"
	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/physics"
)

var biteColor = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}

func (c *Controller) updateParticles(ctx object.MotionContext) {
	kept := c.particles[:0]
	for _, p := range c.particles {
		if p.Update(ctx.DT, c.tun.ParticleDecay) {
			p.Release()
			continue
		}
		kept = append(kept, p)
	}
	clear(c.particles[len(kept):])
	c.particles = kept
}

// resolvePowerUps runs before the enemy pass so an area clear wins over
// direct hits in the same frame.
func (c *Controller) resolvePowerUps(ctx object.MotionContext) {
	kept := c.powerUps[:0]
	for _, p := range c.powerUps {
		p.Advance(ctx)
		if c.collect(p) {
			continue
		}
		if p.Gone(config.BoundsMax) {
			continue
		}
		kept = append(kept, p)
	}
	clear(c.powerUps[len(kept):])
	c.powerUps = kept
}

// collect applies the power-up effect if a player reached it.
func (c *Controller) collect(p *object.PowerUp) bool {
	switch p.Kind {
	case object.PowerUpBomb:
		reach := p.Size + c.tun.GestureHitRadius
		for _, g := range c.gestures {
			if physics.Within(g.X, g.Y, p.X, p.Y, reach) {
				c.clearField()
				c.healAll()
				c.sound.Cue(audio.CuePowerUp)
				return true
			}
		}
	case object.PowerUpCoin:
		for i, f := range c.faces {
			player := c.playerForFace(i)
			if player < 0 || c.lives[player] <= 0 {
				continue
			}
			if physics.Within(f.X, f.Y+c.tun.MouthOffset, p.X, p.Y, c.tun.CoinEatRadius) {
				c.clearField()
				c.addScore(c.tun.CoinBonus)
				c.heal(player)
				c.sound.Cue(audio.CuePowerUp)
				return true
			}
		}
	}
	return false
}

// clearField destroys every enemy for ClearScorePerHit points each.
func (c *Controller) clearField() {
	spec := object.BurstSpec{
		Count:      c.tun.ClearParticles,
		SpeedMin:   c.tun.ParticleSpeedMin,
		SpeedMax:   c.tun.ParticleSpeedMax,
		SpeedScale: 2,
		Color:      object.White,
	}
	for _, e := range c.enemies {
		c.particles = object.Burst(c.particles, e.X, e.Y, spec, c.rng)
	}
	c.addScore(c.tun.ClearScorePerHit * len(c.enemies))
	clear(c.enemies)
	c.enemies = c.enemies[:0]
}

// resolveEnemies moves every enemy and applies kill, bite and bounds rules.
// It returns true when a bite ended the match.
func (c *Controller) resolveEnemies(now time.Time, ctx object.MotionContext) bool {
	c.grid.Clear()
	for i, g := range c.gestures {
		c.grid.Insert(g.X, g.Y, i)
	}
	gesturePos := func(i int) (float64, float64) {
		return c.gestures[i].X, c.gestures[i].Y
	}

	kept := c.enemies[:0]
	for idx, e := range c.enemies {
		e.Advance(ctx)

		if _, hit := c.grid.First(e.X, e.Y, e.Size/2+c.tun.GestureHitRadius, gesturePos); hit {
			c.kill(e)
			continue
		}

		if player, bit := c.biteVictim(e); bit {
			c.lives[player]--
			c.livesDirty = true
			c.sound.Cue(audio.CueBite)
			c.particles = object.Burst(c.particles, e.X, e.Y, object.BurstSpec{
				Count:    c.tun.ParticleCount,
				SpeedMin: c.tun.ParticleSpeedMin,
				SpeedMax: c.tun.ParticleSpeedMax,
				Color:    biteColor,
			}, c.rng)

			if c.lives[player] == 0 {
				rest := c.enemies[idx+1:]
				c.enemies = append(kept, rest...)
				c.endMatch(now, ReasonLivesExhausted)
				return true
			}
			continue
		}

		if !physics.InBounds(e.X, e.Y, config.BoundsMin, config.BoundsMax) {
			continue
		}
		kept = append(kept, e)
	}
	clear(c.enemies[len(kept):])
	c.enemies = kept
	return false
}

func (c *Controller) kill(e *object.Enemy) {
	c.particles = object.Burst(c.particles, e.X, e.Y, object.BurstSpec{
		Count:    c.tun.ParticleCount,
		SpeedMin: c.tun.ParticleSpeedMin,
		SpeedMax: c.tun.ParticleSpeedMax,
		Color:    e.Color,
	}, c.rng)
	c.addScore(1)
	c.sound.Cue(audio.CueBlast)
}

// biteVictim returns the player an enemy bites this frame, if any. In
// two-player mode the enemy checks its target's face first and falls back to
// the nearest tracked face when the target is not visible.
func (c *Controller) biteVictim(e *object.Enemy) (int, bool) {
	r := c.tun.FaceHitRadius

	if c.mode != TwoPlayer {
		if c.lives[0] <= 0 {
			return 0, false
		}
		for _, f := range c.faces {
			if physics.Within(f.X, f.Y, e.X, e.Y, r) {
				return 0, true
			}
		}
		return 0, false
	}

	if e.Target < len(c.faces) {
		f := c.faces[e.Target]
		if physics.Within(f.X, f.Y, e.X, e.Y, r) && c.lives[e.Target] > 0 {
			return e.Target, true
		}
		return 0, false
	}

	best, bestD := -1, r*r
	for i, f := range c.faces {
		player := c.playerForFace(i)
		if player < 0 || c.lives[player] <= 0 {
			continue
		}
		if d := physics.DistanceSquared(f.X, f.Y, e.X, e.Y); d < bestD {
			best, bestD = player, d
		}
	}
	return best, best >= 0
}

// playerForFace maps a face index onto a player index, or -1 when the mode
// has fewer players than tracked faces.
func (c *Controller) playerForFace(i int) int {
	if c.mode != TwoPlayer {
		return 0
	}
	if i < len(c.lives) {
		return i
	}
	return -1
}

func (c *Controller) addScore(n int) {
	if n <= 0 {
		return
	}
	c.score += n
	c.scoreDirty = true
	if every := c.tun.MilestoneEvery; every > 0 {
		if m := c.score / every; m > c.lastMilestone {
			c.lastMilestone = m
			c.sound.Cue(audio.CueMilestone)
		}
	}
}

func (c *Controller) heal(player int) {
	if c.lives[player] < c.tun.MaxLives {
		c.lives[player]++
		c.livesDirty = true
	}
}

func (c *Controller) healAll() {
	for i := range c.lives {
		c.heal(i)
	}
}
