package sim

import (
	"math"
	"testing"
	"time"

	"github.com/tomz197/nosecondbest/internal/audio"
	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/tracking"
)

// scriptedRand replays a fixed list of draws, repeating the last one.
type scriptedRand struct {
	vals []float64
	i    int
}

func (s *scriptedRand) Float64() float64 {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[min(s.i, len(s.vals)-1)]
	s.i++
	return v
}

func (s *scriptedRand) IntN(n int) int {
	return int(s.Float64() * float64(n))
}

type recorder struct {
	scores []int
	lives  [][]int
	overs  []GameOverEvent
}

func (r *recorder) ScoreChanged(score int)    { r.scores = append(r.scores, score) }
func (r *recorder) LivesChanged(lives []int)  { r.lives = append(r.lives, lives) }
func (r *recorder) GameOver(ev GameOverEvent) { r.overs = append(r.overs, ev) }

func (r *recorder) lastLives() []int {
	if len(r.lives) == 0 {
		return nil
	}
	return r.lives[len(r.lives)-1]
}

type soundLog struct {
	cues   []audio.Cue
	starts int
	stops  int
}

func (s *soundLog) Cue(c audio.Cue) { s.cues = append(s.cues, c) }
func (s *soundLog) StartMusic()     { s.starts++ }
func (s *soundLog) StopMusic()      { s.stops++ }

func (s *soundLog) count(c audio.Cue) int {
	n := 0
	for _, got := range s.cues {
		if got == c {
			n++
		}
	}
	return n
}

type fakeCapture struct {
	regular int
	final   int
	resets  int
	status  []Status
}

func (f *fakeCapture) Capture(snap *Snapshot, final bool) {
	if final {
		f.final++
	} else {
		f.regular++
	}
	f.status = append(f.status, snap.Status)
}

func (f *fakeCapture) Screenshots() [][]byte {
	out := make([][]byte, 0, f.regular+f.final)
	for i := 0; i < min(3, f.regular+f.final); i++ {
		out = append(out, []byte{byte(i)})
	}
	return out
}

func (f *fakeCapture) Reset() { f.resets++ }

// quietTuning disables random spawns so tests place entities by hand.
func quietTuning() config.Tuning {
	t := config.Default()
	t.PowerUpChance = 0
	t.SpawnIntervalStart = config.D(time.Hour)
	t.SpawnIntervalMin = config.D(time.Hour)
	return t
}

type harness struct {
	c     *Controller
	rec   *recorder
	sound *soundLog
	cap   *fakeCapture
	t0    time.Time
}

func newHarness(t *testing.T, tun config.Tuning, mode Mode) *harness {
	t.Helper()
	h := &harness{
		rec:   &recorder{},
		sound: &soundLog{},
		cap:   &fakeCapture{},
		t0:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	h.c = NewController(Options{
		Tuning:   tun,
		Mode:     mode,
		Rand:     &scriptedRand{},
		Sound:    h.sound,
		Capture:  h.cap,
		Listener: h.rec,
	})
	h.c.Start(h.t0)
	return h
}

func (h *harness) at(d time.Duration) time.Time {
	return h.t0.Add(d)
}

// still places a motionless enemy.
func (h *harness) still(x, y float64) *object.Enemy {
	e := &object.Enemy{X: x, Y: y, Size: h.c.tun.EnemySize, Kind: object.KindWalker, Behavior: object.Seeker}
	h.c.enemies = append(h.c.enemies, e)
	return e
}

func pts(xy ...float64) []object.Point {
	out := make([]object.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, object.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestStartResetsMatch(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	if h.c.Status() != StatusPlaying {
		t.Fatalf("status = %s, want playing", h.c.Status())
	}
	if got := h.rec.lastLives(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("initial lives = %v, want [3]", got)
	}
	if h.sound.starts != 1 {
		t.Errorf("music starts = %d, want 1", h.sound.starts)
	}
	if h.cap.resets != 1 {
		t.Errorf("capture resets = %d, want 1", h.cap.resets)
	}
	if h.c.MatchID() == "" {
		t.Errorf("expected a match id")
	}

	// Starting again while playing is a no-op.
	id := h.c.MatchID()
	h.c.Start(h.at(time.Second))
	if h.c.MatchID() != id || h.sound.starts != 1 {
		t.Errorf("Start while playing must not restart")
	}
}

func TestGestureHitBoundaryIsStrict(t *testing.T) {
	tun := quietTuning()
	tun.EnemySize = 0.25
	tun.GestureHitRadius = 0.125

	h := newHarness(t, tun, OnePlayer)
	h.still(0.5, 0.5)

	// Exactly size/2 + radius away: miss.
	h.c.Advance(h.at(16*time.Millisecond), tracking.Frame{Gestures: pts(0.75, 0.5)})
	if h.c.Score() != 0 || len(h.c.enemies) != 1 {
		t.Fatalf("boundary gesture must miss: score=%d enemies=%d", h.c.Score(), len(h.c.enemies))
	}

	h.c.Advance(h.at(32*time.Millisecond), tracking.Frame{Gestures: pts(0.74, 0.5)})
	if h.c.Score() != 1 || len(h.c.enemies) != 0 {
		t.Fatalf("gesture inside reach must kill: score=%d enemies=%d", h.c.Score(), len(h.c.enemies))
	}
	if h.sound.count(audio.CueBlast) != 1 {
		t.Errorf("blast cues = %d, want 1", h.sound.count(audio.CueBlast))
	}
	if len(h.c.particles) != tun.ParticleCount {
		t.Errorf("particles = %d, want %d", len(h.c.particles), tun.ParticleCount)
	}
}

func TestKillWinsOverBite(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.still(0.5, 0.5)

	h.c.Advance(h.at(16*time.Millisecond), tracking.Frame{
		Faces:    pts(0.5, 0.55),
		Gestures: pts(0.52, 0.5),
	})
	if h.c.Score() != 1 {
		t.Fatalf("score = %d, want 1", h.c.Score())
	}
	if got := h.c.Lives(); got[0] != 3 {
		t.Fatalf("lives = %v, want [3]", got)
	}
}

func TestOneGestureKillsEveryEnemyInReach(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.still(0.5, 0.5)
	h.still(0.52, 0.5)

	h.c.Advance(h.at(16*time.Millisecond), tracking.Frame{Gestures: pts(0.51, 0.5, 0.9, 0.9)})
	if h.c.Score() != 2 {
		t.Fatalf("score = %d, want 2 (one per enemy)", h.c.Score())
	}
}

func TestThreeBitesEndTheMatch(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	face := pts(0.5, 0.5)

	for i := 1; i <= 3; i++ {
		h.still(0.55, 0.5)
		h.c.Advance(h.at(time.Duration(i)*16*time.Millisecond), tracking.Frame{Faces: face})
	}

	if h.c.Status() != StatusGameOver {
		t.Fatalf("status = %s, want gameover", h.c.Status())
	}
	if got := h.rec.lastLives(); len(got) != 1 || got[0] != 0 {
		t.Fatalf("final lives = %v, want [0]", got)
	}
	if len(h.rec.overs) != 1 {
		t.Fatalf("game over events = %d, want 1", len(h.rec.overs))
	}
	ev := h.rec.overs[0]
	if ev.Reason != ReasonLivesExhausted {
		t.Errorf("reason = %s, want lives_exhausted", ev.Reason)
	}
	if h.cap.final != 1 || len(ev.Screenshots) == 0 {
		t.Errorf("expected a final capture in the event, final=%d shots=%d", h.cap.final, len(ev.Screenshots))
	}
	if h.cap.status[len(h.cap.status)-1] != StatusGameOver {
		t.Errorf("final capture should see the game over status")
	}
	if h.sound.count(audio.CueBite) != 3 {
		t.Errorf("bite cues = %d, want 3", h.sound.count(audio.CueBite))
	}
	if h.sound.stops != 1 {
		t.Errorf("music stops = %d, want 1", h.sound.stops)
	}

	// Further frames and signals change nothing.
	h.still(0.55, 0.5)
	h.c.Advance(h.at(time.Second), tracking.Frame{Faces: face})
	h.c.Disengage(h.at(time.Second))
	if len(h.rec.overs) != 1 {
		t.Fatalf("game over must fire once, got %d", len(h.rec.overs))
	}
}

func TestTwoPlayerBiteUsesTargetThenNearest(t *testing.T) {
	h := newHarness(t, quietTuning(), TwoPlayer)
	both := pts(0.3, 0.5, 0.7, 0.5)

	// Aimed at player 2 but drifting past player 1: no bite while the
	// target is tracked.
	e := h.still(0.35, 0.5)
	e.Target = 1
	h.c.Advance(h.at(16*time.Millisecond), tracking.Frame{Faces: both})
	if got := h.c.Lives(); got[0] != 3 || got[1] != 3 {
		t.Fatalf("lives = %v, want [3 3]", got)
	}
	if len(h.c.enemies) != 1 {
		t.Fatalf("enemies = %d, want 1", len(h.c.enemies))
	}

	// The target face is gone, so the nearest living face is bitten.
	h.c.Advance(h.at(32*time.Millisecond), tracking.Frame{Faces: pts(0.3, 0.5)})
	if got := h.c.Lives(); got[0] != 2 || got[1] != 3 {
		t.Fatalf("lives = %v, want [2 3]", got)
	}

	e = h.still(0.65, 0.5)
	e.Target = 1
	h.c.Advance(h.at(48*time.Millisecond), tracking.Frame{Faces: both})
	if got := h.c.Lives(); got[0] != 2 || got[1] != 2 {
		t.Fatalf("lives = %v, want [2 2]", got)
	}
	if h.sound.count(audio.CueBite) != 2 {
		t.Errorf("bite cues = %d, want 2", h.sound.count(audio.CueBite))
	}
}

func TestBiteStopsFrameProcessing(t *testing.T) {
	tun := quietTuning()
	tun.MaxLives = 1
	h := newHarness(t, tun, OnePlayer)
	h.still(0.55, 0.5)
	h.still(0.9, 0.9) // would be killed by the gesture if processing continued

	h.c.Advance(h.at(16*time.Millisecond), tracking.Frame{Faces: pts(0.5, 0.5), Gestures: pts(0.9, 0.9)})
	if h.c.Status() != StatusGameOver {
		t.Fatalf("status = %s, want gameover", h.c.Status())
	}
	if h.c.Score() != 0 {
		t.Fatalf("score = %d, enemies after the fatal bite must not be processed", h.c.Score())
	}
	if len(h.c.enemies) != 1 {
		t.Fatalf("unprocessed enemies should remain for the final frame, got %d", len(h.c.enemies))
	}
}

func TestBombClearsFieldForTwoPointsEach(t *testing.T) {
	h := newHarness(t, quietTuning(), TwoPlayer)
	h.c.lives = []int{1, 3}

	for i := 0; i < 4; i++ {
		h.still(0.1+float64(i)*0.05, 0.1)
	}
	// This one is also within direct gesture reach; the clear takes it first.
	h.still(0.3, 0.7)
	h.c.powerUps = append(h.c.powerUps, &object.PowerUp{X: 0.3, Y: 0.7, Size: 0.08, Kind: object.PowerUpBomb})

	h.c.Advance(h.at(16*time.Millisecond), tracking.Frame{Gestures: pts(0.31, 0.7)})

	if h.c.Score() != 10 {
		t.Fatalf("score = %d, want 2*5", h.c.Score())
	}
	if len(h.c.enemies) != 0 || len(h.c.powerUps) != 0 {
		t.Fatalf("field not cleared: enemies=%d powerups=%d", len(h.c.enemies), len(h.c.powerUps))
	}
	if got := h.c.Lives(); got[0] != 2 || got[1] != 3 {
		t.Fatalf("lives = %v, want [2 3] (heal capped at max)", got)
	}
	if len(h.c.particles) != 5*h.c.tun.ClearParticles {
		t.Errorf("particles = %d, want %d", len(h.c.particles), 5*h.c.tun.ClearParticles)
	}
	if h.sound.count(audio.CuePowerUp) != 1 {
		t.Errorf("powerup cues = %d, want 1", h.sound.count(audio.CuePowerUp))
	}
}

func TestCoinIsEatenAtTheMouth(t *testing.T) {
	tun := quietTuning()
	h := newHarness(t, tun, OnePlayer)
	h.c.lives = []int{2}
	h.still(0.1, 0.1)
	h.c.powerUps = append(h.c.powerUps, &object.PowerUp{X: 0.5, Y: 0.5 + tun.MouthOffset, Size: 0.08, Kind: object.PowerUpCoin})

	// A gesture on the coin does nothing.
	h.c.Advance(h.at(16*time.Millisecond), tracking.Frame{Gestures: pts(0.5, 0.54)})
	if len(h.c.powerUps) != 1 {
		t.Fatalf("coin must not be collected by a gesture")
	}

	h.c.Advance(h.at(32*time.Millisecond), tracking.Frame{Faces: pts(0.5, 0.5), Gestures: pts(0.9, 0.1)})
	if len(h.c.powerUps) != 0 {
		t.Fatalf("coin should be eaten")
	}
	if want := tun.CoinBonus + tun.ClearScorePerHit; h.c.Score() != want {
		t.Fatalf("score = %d, want %d", h.c.Score(), want)
	}
	if got := h.c.Lives(); got[0] != 3 {
		t.Fatalf("lives = %v, want [3]", got)
	}
}

func TestLivesStayWithinBounds(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	for i := 0; i < 5; i++ {
		h.c.healAll()
	}
	if got := h.c.Lives(); got[0] != 3 {
		t.Fatalf("lives = %v, want capped at 3", got)
	}
	h.c.lives[0] = 0
	h.still(0.5, 0.5)
	if _, bit := h.c.biteVictim(h.c.enemies[0]); bit {
		t.Fatalf("a player with no lives cannot be bitten")
	}
}

func TestEnemiesStayInsideExtendedBounds(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	e := h.still(1.19, 0.5)
	e.Kind = object.KindWasp
	e.VX = 1

	h.c.Advance(h.at(16*time.Millisecond), tracking.Frame{})
	if len(h.c.enemies) != 0 {
		t.Fatalf("enemy at x=%v should have been removed", e.X)
	}
}

func TestPauseResumeDoesNotTripTrackingLoss(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	hand := tracking.Frame{Gestures: pts(0.9, 0.9)}

	for d := 100 * time.Millisecond; d <= 5*time.Second; d += 100 * time.Millisecond {
		h.c.Advance(h.at(d), hand)
	}
	h.c.Pause(h.at(5 * time.Second))
	if h.c.Status() != StatusPaused {
		t.Fatalf("status = %s, want paused", h.c.Status())
	}

	// Frames while paused are ignored.
	h.c.Advance(h.at(30*time.Second), tracking.Frame{})

	h.c.Resume(h.at(65 * time.Second))
	h.c.Advance(h.at(65*time.Second+16*time.Millisecond), tracking.Frame{})
	if h.c.Status() != StatusPlaying {
		t.Fatalf("resume after a long pause must not end the match")
	}
	if got := h.c.Snapshot().Elapsed; got > 6*time.Second {
		t.Errorf("elapsed = %v, paused time must not count", got)
	}

	// Losing the hand after resuming still times out.
	h.c.Advance(h.at(65*time.Second+1600*time.Millisecond), tracking.Frame{})
	if h.c.Status() != StatusGameOver {
		t.Fatalf("status = %s, want gameover after gesture loss", h.c.Status())
	}
	if h.rec.overs[0].Reason != ReasonTrackingLost {
		t.Errorf("reason = %s, want tracking_lost", h.rec.overs[0].Reason)
	}
	if h.sound.starts != 2 || h.sound.stops != 2 {
		t.Errorf("music starts/stops = %d/%d, want 2/2", h.sound.starts, h.sound.stops)
	}
}

func TestTrackingLossRespectsStartGrace(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.c.Advance(h.at(500*time.Millisecond), tracking.Frame{Gestures: pts(0.5, 0.5)})

	h.c.Advance(h.at(2500*time.Millisecond), tracking.Frame{})
	if h.c.Status() != StatusPlaying {
		t.Fatalf("loss inside the start grace must not end the match")
	}

	h.c.Advance(h.at(3100*time.Millisecond), tracking.Frame{})
	if h.c.Status() != StatusGameOver {
		t.Fatalf("status = %s, want gameover", h.c.Status())
	}
}

func TestNeverGesturedShowsHelp(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	for d := time.Second; d <= 20*time.Second; d += time.Second {
		h.c.Advance(h.at(d), tracking.Frame{Faces: pts(0.5, 0.5)})
	}
	if h.c.Status() != StatusPlaying {
		t.Fatalf("a player who never gestured must not be timed out")
	}
	if !h.c.Snapshot().ShowHelp {
		t.Fatalf("expected the help prompt")
	}

	h.c.Advance(h.at(21*time.Second), tracking.Frame{Gestures: pts(0.5, 0.5)})
	if h.c.Snapshot().ShowHelp {
		t.Fatalf("help prompt should hide after the first gesture")
	}
}

func TestDisengageFiresOnce(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.c.Pause(h.at(time.Second))
	h.c.Disengage(h.at(2 * time.Second))
	h.c.Disengage(h.at(3 * time.Second))

	if len(h.rec.overs) != 1 {
		t.Fatalf("game over events = %d, want 1", len(h.rec.overs))
	}
	if h.rec.overs[0].Reason != ReasonDisengaged {
		t.Errorf("reason = %s, want disengaged", h.rec.overs[0].Reason)
	}

	// A fresh match can disengage again.
	h.c.Start(h.at(4 * time.Second))
	h.c.Disengage(h.at(5 * time.Second))
	if len(h.rec.overs) != 2 {
		t.Fatalf("game over events = %d, want 2", len(h.rec.overs))
	}
}

func TestCaptureCadence(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	for d := time.Second; d <= 20*time.Second; d += time.Second {
		h.c.Advance(h.at(d), tracking.Frame{Gestures: pts(0.5, 0.5)})
	}
	if h.cap.regular != 2 {
		t.Fatalf("periodic captures = %d, want 2 (at 8s and 16s)", h.cap.regular)
	}
	h.c.Disengage(h.at(21 * time.Second))
	if h.cap.final != 1 {
		t.Fatalf("final captures = %d, want 1", h.cap.final)
	}
}

func TestMilestoneCue(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.c.addScore(24)
	if h.sound.count(audio.CueMilestone) != 0 {
		t.Fatalf("no milestone before 25")
	}
	h.c.addScore(2)
	h.c.addScore(2)
	if h.sound.count(audio.CueMilestone) != 1 {
		t.Fatalf("milestone cues = %d, want 1", h.sound.count(audio.CueMilestone))
	}
}

func TestSetModeIgnoredDuringMatch(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.c.SetMode(TwoPlayer)
	if h.c.Mode() != OnePlayer {
		t.Fatalf("mode changed mid-match")
	}
	h.c.Disengage(h.at(time.Second))
	h.c.SetMode(TwoPlayer)
	h.c.SetTheme(object.ThemeZombies)
	if h.c.Mode() != TwoPlayer || h.c.Theme() != object.ThemeZombies {
		t.Fatalf("mode/theme should change between matches")
	}
	if got := h.c.Lives(); len(got) != 2 {
		t.Fatalf("lives = %v, want two counters", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t, quietTuning(), OnePlayer)
	h.still(0.5, 0.5)
	snap := h.c.Snapshot()
	snap.Enemies[0].X = 0.9
	snap.Lives[0] = 0
	if h.c.enemies[0].X != 0.5 || h.c.lives[0] != 3 {
		t.Fatalf("snapshot must not alias controller state")
	}
	if math.IsNaN(snap.Difficulty) {
		t.Fatalf("difficulty should be a number")
	}
}
