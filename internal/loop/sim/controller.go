// Package sim runs one match: spawning, motion, collisions, lives and the
// game-over transition. All mutation happens inside Controller methods called
// from a single goroutine.
package sim

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	uuid "github.com/satori/go.uuid"

	"github.com/tomz197/nosecondbest/internal/audio"
	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/object"
	"github.com/tomz197/nosecondbest/internal/physics"
	"github.com/tomz197/nosecondbest/internal/tracking"
)

// Status is the match phase.
type Status uint8

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusPaused
	StatusGameOver
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusGameOver:
		return "gameover"
	default:
		return "idle"
	}
}

// Mode is the number of players sharing the camera.
type Mode uint8

const (
	OnePlayer Mode = iota
	TwoPlayer
)

// Players returns how many life counters the mode tracks.
func (m Mode) Players() int {
	if m == TwoPlayer {
		return 2
	}
	return 1
}

func (m Mode) String() string {
	if m == TwoPlayer {
		return "2p"
	}
	return "1p"
}

// ParseMode accepts "1p" or "2p".
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "1p", "1":
		return OnePlayer, nil
	case "2p", "2":
		return TwoPlayer, nil
	}
	return OnePlayer, fmt.Errorf("unknown mode %q", name)
}

// Reason explains why a match ended.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonLivesExhausted
	ReasonTrackingLost
	ReasonDisengaged
)

func (r Reason) String() string {
	switch r {
	case ReasonLivesExhausted:
		return "lives_exhausted"
	case ReasonTrackingLost:
		return "tracking_lost"
	case ReasonDisengaged:
		return "disengaged"
	default:
		return "none"
	}
}

// GameOverEvent is emitted exactly once per match.
type GameOverEvent struct {
	MatchID     string
	Mode        Mode
	Theme       object.Theme
	Score       int
	Lives       []int
	Reason      Reason
	Duration    time.Duration
	Screenshots [][]byte
}

// Listener receives state changes for the presentation layer.
type Listener interface {
	ScoreChanged(score int)
	LivesChanged(lives []int)
	GameOver(ev GameOverEvent)
}

// Sound receives fire-and-forget audio requests.
type Sound interface {
	Cue(c audio.Cue)
	StartMusic()
	StopMusic()
}

// Capturer turns snapshots into stored screenshots.
type Capturer interface {
	// Capture composites snap. final captures always land in the buffer.
	Capture(snap *Snapshot, final bool)
	Screenshots() [][]byte
	Reset()
}

// Options configures a Controller. Nil collaborators are replaced by no-ops.
type Options struct {
	Tuning   config.Tuning
	Mode     Mode
	Theme    object.Theme
	Rand     object.Rand
	Sound    Sound
	Capture  Capturer
	Listener Listener
	Logger   *log.Logger
}

// Controller owns the state of one match at a time.
// It is not safe for concurrent use.
type Controller struct {
	tun      config.Tuning
	mode     Mode
	theme    object.Theme
	rng      object.Rand
	sound    Sound
	capture  Capturer
	listener Listener
	log      *log.Logger

	status      Status
	matchID     string
	matchStart  time.Time
	lastFrame   time.Time
	lastSpawn   time.Time
	lastCapture time.Time
	pausedAt    time.Time
	lastGesture time.Time
	gestureSeen bool
	disengaged  bool
	elapsed     time.Duration
	difficulty  float64

	score         int
	lives         []int
	lastMilestone int
	scoreDirty    bool
	livesDirty    bool

	enemies   []*object.Enemy
	powerUps  []*object.PowerUp
	particles []*object.Particle
	faces     []object.Point
	gestures  []object.Point
	nextID    uint64
	grid      *physics.PointGrid
}

// NewController creates an idle controller.
func NewController(opts Options) *Controller {
	c := &Controller{
		tun:      opts.Tuning,
		mode:     opts.Mode,
		theme:    opts.Theme,
		rng:      opts.Rand,
		sound:    opts.Sound,
		capture:  opts.Capture,
		listener: opts.Listener,
		log:      opts.Logger,
	}
	if c.tun.MaxLives == 0 {
		c.tun = config.Default()
	}
	if c.sound == nil {
		c.sound = nopSound{}
	}
	if c.listener == nil {
		c.listener = nopListener{}
	}
	if c.log == nil {
		c.log = log.New(io.Discard)
	}
	if c.rng == nil {
		c.rng = newDefaultRand()
	}

	cell := max(0.2, c.tun.EnemySize/2+c.tun.GestureHitRadius)
	c.grid = physics.NewPointGrid(config.BoundsMin, config.BoundsMax, cell)
	c.lives = fullLives(c.mode, c.tun.MaxLives)
	return c
}

// Status returns the current match phase.
func (c *Controller) Status() Status {
	return c.status
}

// Score returns the current score.
func (c *Controller) Score() int {
	return c.score
}

// Lives returns a copy of the per-player lives.
func (c *Controller) Lives() []int {
	return append([]int(nil), c.lives...)
}

// MatchID identifies the current or most recent match.
func (c *Controller) MatchID() string {
	return c.matchID
}

// Mode returns the configured player mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Theme returns the configured theme.
func (c *Controller) Theme() object.Theme {
	return c.theme
}

// SetMode changes the player mode. Ignored while a match is in progress.
func (c *Controller) SetMode(m Mode) {
	if c.inMatch() {
		return
	}
	c.mode = m
	c.lives = fullLives(m, c.tun.MaxLives)
}

// SetTheme changes the theme. Ignored while a match is in progress.
func (c *Controller) SetTheme(t object.Theme) {
	if c.inMatch() {
		return
	}
	c.theme = t
}

func (c *Controller) inMatch() bool {
	return c.status == StatusPlaying || c.status == StatusPaused
}

// Start begins a fresh match from Idle or GameOver, or resumes a paused one.
func (c *Controller) Start(now time.Time) {
	switch c.status {
	case StatusPlaying:
		return
	case StatusPaused:
		c.Resume(now)
		return
	}

	c.reset(now)
	c.status = StatusPlaying
	c.sound.StartMusic()
	c.log.Info("match started", "match", c.matchID, "mode", c.mode, "theme", c.theme)
	c.flushEvents()
}

// reset clears all match state and sets every clock baseline to now.
func (c *Controller) reset(now time.Time) {
	for _, p := range c.particles {
		p.Release()
	}
	clear(c.enemies)
	clear(c.powerUps)
	clear(c.particles)
	c.enemies = c.enemies[:0]
	c.powerUps = c.powerUps[:0]
	c.particles = c.particles[:0]
	c.faces = c.faces[:0]
	c.gestures = c.gestures[:0]

	c.matchID = uuid.NewV4().String()
	c.matchStart = now
	c.lastFrame = now
	c.lastSpawn = now
	c.lastCapture = now
	c.lastGesture = time.Time{}
	c.gestureSeen = false
	c.disengaged = false
	c.elapsed = 0
	c.difficulty = 0

	c.score = 0
	c.lastMilestone = 0
	c.lives = fullLives(c.mode, c.tun.MaxLives)
	c.scoreDirty = true
	c.livesDirty = true

	if c.capture != nil {
		c.capture.Reset()
	}
}

// Pause freezes the match. Only valid while playing.
func (c *Controller) Pause(now time.Time) {
	if c.status != StatusPlaying {
		return
	}
	c.status = StatusPaused
	c.pausedAt = now
	c.sound.StopMusic()
	c.log.Debug("match paused", "match", c.matchID)
}

// Resume continues a paused match. Every timer baseline is shifted so the
// paused wall-clock time does not count toward spawns, captures or tracking
// loss.
func (c *Controller) Resume(now time.Time) {
	if c.status != StatusPaused {
		return
	}
	shift := now.Sub(c.pausedAt)
	if shift < 0 {
		shift = 0
	}
	c.matchStart = c.matchStart.Add(shift)
	c.lastSpawn = c.lastSpawn.Add(shift)
	c.lastCapture = c.lastCapture.Add(shift)
	c.lastFrame = now
	if c.gestureSeen {
		c.lastGesture = now
	}
	c.status = StatusPlaying
	c.sound.StartMusic()
	c.log.Debug("match resumed", "match", c.matchID, "paused", shift)
}

// TogglePause pauses a running match or resumes a paused one.
func (c *Controller) TogglePause(now time.Time) {
	switch c.status {
	case StatusPlaying:
		c.Pause(now)
	case StatusPaused:
		c.Resume(now)
	}
}

// Disengage ends the match on an explicit signal from the presentation
// layer. It fires at most once per match.
func (c *Controller) Disengage(now time.Time) {
	if !c.inMatch() || c.disengaged {
		return
	}
	c.disengaged = true
	c.endMatch(now, ReasonDisengaged)
}

// Advance runs one display frame. It does nothing unless the match is
// playing.
func (c *Controller) Advance(now time.Time, frame tracking.Frame) {
	if c.status != StatusPlaying {
		return
	}

	dt := now.Sub(c.lastFrame)
	if dt < 0 {
		dt = 0
	} else if dt > config.MaxFrameDelta {
		dt = config.MaxFrameDelta
	}
	c.lastFrame = now

	c.faces = append(c.faces[:0], frame.Faces...)
	c.gestures = append(c.gestures[:0], frame.Gestures...)
	if len(c.gestures) > 0 {
		c.gestureSeen = true
		c.lastGesture = now
	}

	c.elapsed = now.Sub(c.matchStart)
	if c.trackingLost(now) {
		c.endMatch(now, ReasonTrackingLost)
		return
	}
	c.difficulty = DifficultyFactor(c.elapsed, c.tun.RampDuration.Duration)

	ctx := object.MotionContext{
		DT:     dt.Seconds(),
		T:      c.elapsed,
		Rand:   c.rng,
		Tuning: &c.tun,
	}

	c.maybeSpawnEnemy(now)
	c.maybeSpawnPowerUp()
	c.updateParticles(ctx)
	c.resolvePowerUps(ctx)
	if c.resolveEnemies(now, ctx) {
		return
	}

	c.maybeCapture(now)
	c.flushEvents()
}

// trackingLost reports whether gestures have been missing for too long.
// Players that never gestured are not timed out; they get a help prompt.
func (c *Controller) trackingLost(now time.Time) bool {
	if !c.gestureSeen || c.elapsed <= c.tun.StartGrace.Duration {
		return false
	}
	return now.Sub(c.lastGesture) > c.tun.GestureLossGrace.Duration
}

func (c *Controller) maybeCapture(now time.Time) {
	if c.capture == nil || now.Sub(c.lastCapture) < c.tun.CaptureEvery.Duration {
		return
	}
	c.lastCapture = now
	snap := c.Snapshot()
	c.capture.Capture(&snap, false)
}

// endMatch performs the one-way transition to GameOver.
func (c *Controller) endMatch(now time.Time, reason Reason) {
	if !c.inMatch() {
		return
	}
	if c.status == StatusPlaying {
		c.elapsed = now.Sub(c.matchStart)
	}
	c.status = StatusGameOver

	var shots [][]byte
	if c.capture != nil {
		snap := c.Snapshot()
		c.capture.Capture(&snap, true)
		shots = c.capture.Screenshots()
	}

	c.flushEvents()
	c.listener.GameOver(GameOverEvent{
		MatchID:     c.matchID,
		Mode:        c.mode,
		Theme:       c.theme,
		Score:       c.score,
		Lives:       c.Lives(),
		Reason:      reason,
		Duration:    c.elapsed,
		Screenshots: shots,
	})
	c.sound.StopMusic()
	c.matchStart = time.Time{}

	c.log.Info("match over", "match", c.matchID, "reason", reason, "score", c.score, "screenshots", len(shots))
}

// flushEvents reports score and lives changes accumulated this frame.
func (c *Controller) flushEvents() {
	if c.scoreDirty {
		c.scoreDirty = false
		c.listener.ScoreChanged(c.score)
	}
	if c.livesDirty {
		c.livesDirty = false
		c.listener.LivesChanged(c.Lives())
	}
}

func fullLives(m Mode, maxLives int) []int {
	lives := make([]int, m.Players())
	for i := range lives {
		lives[i] = maxLives
	}
	return lives
}

type nopSound struct{}

func (nopSound) Cue(audio.Cue) {}
func (nopSound) StartMusic()   {}
func (nopSound) StopMusic()    {}

type nopListener struct{}

func (nopListener) ScoreChanged(int)       {}
func (nopListener) LivesChanged([]int)     {}
func (nopListener) GameOver(GameOverEvent) {}
