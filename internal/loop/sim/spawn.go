package sim

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/physics"
)

func newDefaultRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>17|1))
}

// DifficultyFactor is elapsed play time over the ramp duration, saturating at 1.
func DifficultyFactor(elapsed, ramp time.Duration) float64 {
	if ramp <= 0 || elapsed >= ramp {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(ramp)
}

// SpawnInterval interpolates the enemy spawn interval between its start and
// floor values, then applies the mode and theme multipliers.
func SpawnInterval(tun *config.Tuning, df float64, mode Mode, theme object.Theme) time.Duration {
	df = math.Max(0, math.Min(1, df))
	start := float64(tun.SpawnIntervalStart.Duration)
	floor := float64(tun.SpawnIntervalMin.Duration)
	iv := start - (start-floor)*df
	if mode == TwoPlayer {
		iv *= tun.TwoPlayerMult
	}
	iv *= theme.IntervalMult(tun)
	return time.Duration(iv)
}

func (c *Controller) maybeSpawnEnemy(now time.Time) {
	if now.Sub(c.lastSpawn) <= SpawnInterval(&c.tun, c.difficulty, c.mode, c.theme) {
		return
	}
	c.lastSpawn = now
	c.enemies = append(c.enemies, c.newEnemy())
}

func (c *Controller) newEnemy() *object.Enemy {
	tun := &c.tun
	kind := c.theme.PickKind(c.rng.Float64())
	prof := kind.Profile()
	x, y := c.edgePosition()
	target := c.pickTarget()

	behavior := object.Wanderer
	switch prof.Seek {
	case object.SeekAlways:
		behavior = object.Seeker
	case object.SeekRamp:
		if c.rng.Float64() < tun.SeekChanceBase+c.difficulty*tun.SeekChanceRamp {
			behavior = object.Seeker
		}
	}

	speed := tun.EnemySpeed * (1 + c.difficulty) * prof.SpeedMult
	var vx, vy float64
	if behavior == object.Seeker {
		goal := c.targetAnchor(target)
		ux, uy, ok := physics.Normalize(goal.X-x, goal.Y-y)
		if !ok {
			ux, uy, _ = physics.Normalize(0.5-x, 0.5-y)
		}
		vx, vy = ux*speed, uy*speed
	} else {
		ux, uy, _ := physics.Normalize(0.5-x, 0.5-y)
		vx = ux*speed + object.Between(c.rng, -tun.WanderJitter, tun.WanderJitter)
		vy = uy*speed + object.Between(c.rng, -tun.WanderJitter, tun.WanderJitter)
	}

	label, col := object.Dress(kind, c.rng)
	c.nextID++
	return &object.Enemy{
		ID:         c.nextID,
		X:          x,
		Y:          y,
		VX:         vx,
		VY:         vy,
		Size:       tun.EnemySize,
		Behavior:   behavior,
		Kind:       kind,
		Speed:      speed,
		WobbleSeed: c.rng.Float64() * 2 * math.Pi,
		AnimSeed:   c.rng.Float64() * 2 * math.Pi,
		CreatedAt:  c.elapsed,
		Target:     target,
		Label:      label,
		Color:      col,
	}
}

// edgePosition picks a spawn point just outside the visible field.
func (c *Controller) edgePosition() (x, y float64) {
	lo, hi := -config.SpawnEdge, 1+config.SpawnEdge

	if bias := c.theme.TopEdgeChance(&c.tun); bias > 0 {
		if c.rng.Float64() < bias {
			return c.rng.Float64(), lo
		}
		x = lo
		if c.rng.Float64() < 0.5 {
			x = hi
		}
		return x, c.rng.Float64() * 0.5
	}

	switch c.rng.IntN(4) {
	case 0:
		return c.rng.Float64(), lo
	case 1:
		return hi, c.rng.Float64()
	case 2:
		return c.rng.Float64(), hi
	default:
		return lo, c.rng.Float64()
	}
}

// pickTarget assigns a player uniformly among those still alive.
func (c *Controller) pickTarget() int {
	if len(c.lives) < 2 {
		return 0
	}
	alive := make([]int, 0, len(c.lives))
	for i, l := range c.lives {
		if l > 0 {
			alive = append(alive, i)
		}
	}
	if len(alive) == 0 {
		return 0
	}
	return alive[c.rng.IntN(len(alive))]
}

// targetAnchor is the face a seeker aims at, or the field center when that
// face is not tracked.
func (c *Controller) targetAnchor(target int) object.Point {
	if target < len(c.faces) {
		return c.faces[target]
	}
	return object.Point{X: 0.5, Y: 0.5}
}

func (c *Controller) maybeSpawnPowerUp() {
	tun := &c.tun
	if c.rng.Float64() >= tun.PowerUpChance {
		return
	}
	kind := object.PowerUpBomb
	if c.rng.Float64() < tun.CoinChance {
		kind = object.PowerUpCoin
	}
	c.nextID++
	c.powerUps = append(c.powerUps, &object.PowerUp{
		ID:     c.nextID,
		X:      -config.SpawnEdge,
		Y:      0.2 + c.rng.Float64()*0.6,
		VX:     tun.PowerUpDrift,
		VY:     math.Sin(c.elapsed.Seconds()) * tun.PowerUpSway,
		Size:   tun.PowerUpSize,
		Kind:   kind,
		BornAt: c.elapsed,
	})
}
