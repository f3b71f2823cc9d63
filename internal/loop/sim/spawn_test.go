package sim

import (
	"math"
	"testing"
	"time"

	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/tracking"
)

func TestDifficultyFactor(t *testing.T) {
	ramp := time.Minute
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0},
		{-time.Second, 0},
		{30 * time.Second, 0.5},
		{time.Minute, 1},
		{10 * time.Minute, 1},
	}
	for _, tt := range tests {
		if got := DifficultyFactor(tt.elapsed, ramp); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DifficultyFactor(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

func TestSpawnInterval(t *testing.T) {
	tun := config.Default()
	ms := time.Millisecond
	tests := []struct {
		name  string
		df    float64
		mode  Mode
		theme object.Theme
		want  time.Duration
	}{
		{"start", 0, OnePlayer, object.ThemeAltcoins, 1500 * ms},
		{"floor", 1, OnePlayer, object.ThemeAltcoins, 400 * ms},
		{"halfway", 0.5, OnePlayer, object.ThemeBugs, 950 * ms},
		{"clamped", 3, OnePlayer, object.ThemeZombies, 400 * ms},
		{"two players", 0, TwoPlayer, object.ThemeAltcoins, 1050 * ms},
		{"spiders", 0, OnePlayer, object.ThemeSpiders, 1050 * ms},
		{"two players spiders", 1, TwoPlayer, object.ThemeSpiders, 196 * ms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpawnInterval(&tun, tt.df, tt.mode, tt.theme)
			if diff := got - tt.want; diff < -time.Microsecond || diff > time.Microsecond {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpawnCadence(t *testing.T) {
	h := newHarness(t, func() config.Tuning {
		tun := config.Default()
		tun.PowerUpChance = 0
		return tun
	}(), OnePlayer)

	h.c.Advance(h.at(1400*time.Millisecond), tracking.Frame{})
	if len(h.c.enemies) != 0 {
		t.Fatalf("spawned before the interval elapsed")
	}
	h.c.Advance(h.at(1500*time.Millisecond), tracking.Frame{})
	if len(h.c.enemies) != 1 {
		t.Fatalf("enemies = %d, want 1", len(h.c.enemies))
	}
	e := h.c.enemies[0]
	if e.ID == 0 || e.Size != h.c.tun.EnemySize {
		t.Errorf("enemy not initialized: %+v", e)
	}
	if e.X < -config.SpawnEdge-1e-9 || e.X > 1+config.SpawnEdge+1e-9 {
		t.Errorf("spawn x = %v outside the spawn ring", e.X)
	}
}

func TestSeekerAimsAtTargetFace(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.c.theme = object.ThemeZombies
	h.c.faces = pts(0.8, 0.5)

	e := h.c.newEnemy()
	if e.Behavior != object.Seeker {
		t.Fatalf("zombies always seek, got %s", e.Behavior)
	}
	// All draws are zero: top edge at (0, -0.1).
	wantX, wantY := 0.8-e.X, 0.5-e.Y
	if cross := e.VX*wantY - e.VY*wantX; math.Abs(cross) > 1e-9 {
		t.Fatalf("velocity (%v,%v) is not aimed at the face", e.VX, e.VY)
	}
	if e.VX <= 0 || e.VY <= 0 {
		t.Fatalf("velocity (%v,%v) points away from the face", e.VX, e.VY)
	}
	if got := math.Hypot(e.VX, e.VY); math.Abs(got-e.Speed) > 1e-9 {
		t.Errorf("speed = %v, want %v", got, e.Speed)
	}
}

func TestSeekerWithoutFaceAimsAtCenter(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.c.theme = object.ThemeZombies

	e := h.c.newEnemy()
	wantX, wantY := 0.5-e.X, 0.5-e.Y
	if cross := e.VX*wantY - e.VY*wantX; math.Abs(cross) > 1e-9 {
		t.Fatalf("velocity (%v,%v) is not aimed at the center", e.VX, e.VY)
	}
}

func TestEnemySpeedScalesWithDifficulty(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.c.theme = object.ThemeZombies // walkers, speed mult 0.3

	slow := h.c.newEnemy()
	h.c.difficulty = 1
	fast := h.c.newEnemy()

	if want := h.c.tun.EnemySpeed * 0.3; math.Abs(slow.Speed-want) > 1e-9 {
		t.Errorf("df=0 speed = %v, want %v", slow.Speed, want)
	}
	if math.Abs(fast.Speed-2*slow.Speed) > 1e-9 {
		t.Errorf("df=1 speed = %v, want %v", fast.Speed, 2*slow.Speed)
	}
}

func TestSpiderSpawnsFavorTopEdge(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.c.theme = object.ThemeSpiders

	h.c.rng = &scriptedRand{vals: []float64{0.1, 0.4}}
	x, y := h.c.edgePosition()
	if y != -config.SpawnEdge || x != 0.4 {
		t.Fatalf("top spawn = (%v,%v), want (0.4,%v)", x, y, -config.SpawnEdge)
	}

	h.c.rng = &scriptedRand{vals: []float64{0.9, 0.2, 0.8}}
	x, y = h.c.edgePosition()
	if x != 1+config.SpawnEdge {
		t.Fatalf("side spawn x = %v, want right edge", x)
	}
	if y < 0 || y >= 0.5 {
		t.Fatalf("side spawn y = %v, want upper half", y)
	}
}

func TestTwoPlayerTargetsSkipDeadPlayers(t *testing.T) {
	h := newHarness(t, quietTuning(), TwoPlayer)
	h.c.lives = []int{0, 2}
	for _, v := range []float64{0, 0.3, 0.99} {
		h.c.rng = &scriptedRand{vals: []float64{v}}
		if got := h.c.pickTarget(); got != 1 {
			t.Fatalf("pickTarget = %d, want 1 (player 0 is out)", got)
		}
	}

	h.c.lives = []int{3, 3}
	h.c.rng = &scriptedRand{vals: []float64{0.75}}
	if got := h.c.pickTarget(); got != 1 {
		t.Fatalf("pickTarget = %d, want 1", got)
	}
}

func TestPowerUpSpawn(t *testing.T) {
	tun := quietTuning()
	tun.PowerUpChance = 1
	h := newHarness(t, tun, OnePlayer)

	h.c.rng = &scriptedRand{vals: []float64{0, 0.1, 0.5}}
	h.c.maybeSpawnPowerUp()
	if len(h.c.powerUps) != 1 {
		t.Fatalf("powerups = %d, want 1", len(h.c.powerUps))
	}
	p := h.c.powerUps[0]
	if p.Kind != object.PowerUpCoin {
		t.Errorf("kind = %s, want coin", p.Kind)
	}
	if p.X != -config.SpawnEdge || math.Abs(p.Y-0.5) > 1e-9 || p.VX != tun.PowerUpDrift {
		t.Errorf("unexpected spawn %+v", p)
	}
}
