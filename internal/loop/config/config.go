// Package config centralizes all tunable game parameters.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Playfield - every position and size is normalized to the unit square.
// Enemies outside the extended bounds are removed.
const (
	BoundsMin = -0.2
	BoundsMax = 1.2
	SpawnEdge = 0.1 // Spawn distance outside the visible field
)

// Frame timing
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
	BroadcastHz           = 20
	MaxFrameDelta         = 100 * time.Millisecond // Clamp for dt after stalls
)

// Terminal rendering
const (
	ViewWidth     = 160 // Logical viewport width
	ViewHeight    = 90  // Logical viewport height (in sub-pixels)
	MaxTermWidth  = 200
	MaxTermHeight = 60
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Tuning holds every gameplay knob. Velocities are expressed per second.
// The TOML keys match the field names in snake case.
type Tuning struct {
	MaxLives int `toml:"max_lives"`

	GestureHitRadius float64 `toml:"gesture_hit_radius"`
	FaceHitRadius    float64 `toml:"face_hit_radius"`
	CoinEatRadius    float64 `toml:"coin_eat_radius"`
	MouthOffset      float64 `toml:"mouth_offset"`       // Mouth sits below the face anchor

	EnemySize      float64  `toml:"enemy_size"`
	EnemySpeed     float64  `toml:"enemy_speed"`      // Base units per second
	WanderJitter   float64  `toml:"wander_jitter"`    // Max random velocity added to wanderers
	WobbleAmp      float64  `toml:"wobble_amp"`       // Units per second
	WobbleFreq     float64  `toml:"wobble_freq"`      // Radians per second
	DartChance     float64  `toml:"dart_chance"`      // Per frame
	DartMult       float64  `toml:"dart_mult"`
	PauseChance    float64  `toml:"pause_chance"`     // Per frame, during the pause phase
	PausePhase     Duration `toml:"pause_phase"`
	SpiderTopBias  float64  `toml:"spider_top_bias"`
	SeekChanceBase float64  `toml:"seek_chance_base"` // Ramping seek chance at df=0
	SeekChanceRamp float64  `toml:"seek_chance_ramp"` // Added at df=1

	SpawnIntervalStart Duration `toml:"spawn_interval_start"`
	SpawnIntervalMin   Duration `toml:"spawn_interval_min"`
	RampDuration       Duration `toml:"ramp_duration"`
	TwoPlayerMult      float64  `toml:"two_player_mult"`
	SpiderMult         float64  `toml:"spider_mult"`

	PowerUpChance    float64 `toml:"powerup_chance"`      // Per frame
	PowerUpSize      float64 `toml:"powerup_size"`
	PowerUpDrift     float64 `toml:"powerup_drift"`       // Units per second
	PowerUpSway      float64 `toml:"powerup_sway"`        // Vertical speed amplitude
	PowerUpBob       float64 `toml:"powerup_bob"`         // Extra vertical bob amplitude
	CoinChance       float64 `toml:"coin_chance"`         // Share of power-ups that are coins
	CoinBonus        int     `toml:"coin_bonus"`
	ClearScorePerHit int     `toml:"clear_score_per_hit"`

	ParticleCount    int     `toml:"particle_count"`
	ClearParticles   int     `toml:"clear_particles"`
	ParticleSpeedMin float64 `toml:"particle_speed_min"`
	ParticleSpeedMax float64 `toml:"particle_speed_max"`
	ParticleDecay    float64 `toml:"particle_decay"`     // Life lost per second

	GestureLossGrace Duration `toml:"gesture_loss_grace"`
	StartGrace       Duration `toml:"start_grace"`
	MilestoneEvery   int      `toml:"milestone_every"`

	CaptureEvery    Duration `toml:"capture_every"`
	CaptureCapacity int      `toml:"capture_capacity"`
	ReplaceChance   float64  `toml:"replace_chance"`
	JPEGQuality     int      `toml:"jpeg_quality"`

	TempoBPM     float64  `toml:"tempo_bpm"`
	Lookahead    Duration `toml:"lookahead"`
	ScheduleTick Duration `toml:"schedule_tick"`
	FirstNote    Duration `toml:"first_note"`
	ArpChance    float64  `toml:"arp_chance"`
}

// Duration wraps time.Duration so TOML files can use strings like "1.5s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// D is shorthand for building a Duration literal.
func D(v time.Duration) Duration {
	return Duration{v}
}

// Default returns the stock tuning. Per-frame values from the browser build
// were multiplied by 60 to become per-second rates.
func Default() Tuning {
	return Tuning{
		MaxLives: 3,

		GestureHitRadius: 0.08,
		FaceHitRadius:    0.15,
		CoinEatRadius:    0.1,
		MouthOffset:      0.04,

		EnemySize:      0.05,
		EnemySpeed:     0.18,
		WanderJitter:   0.06,
		WobbleAmp:      0.12,
		WobbleFreq:     5,
		DartChance:     0.08,
		DartMult:       4,
		PauseChance:    0.6,
		PausePhase:     D(750 * time.Millisecond),
		SpiderTopBias:  0.6,
		SeekChanceBase: 0.2,
		SeekChanceRamp: 0.5,

		SpawnIntervalStart: D(1500 * time.Millisecond),
		SpawnIntervalMin:   D(400 * time.Millisecond),
		RampDuration:       D(60 * time.Second),
		TwoPlayerMult:      0.7,
		SpiderMult:         0.7,

		PowerUpChance:    0.008,
		PowerUpSize:      0.08,
		PowerUpDrift:     0.12,
		PowerUpSway:      0.06,
		PowerUpBob:       0.03,
		CoinChance:       0.3,
		CoinBonus:        5,
		ClearScorePerHit: 2,

		ParticleCount:    8,
		ClearParticles:   6,
		ParticleSpeedMin: 0.3,
		ParticleSpeedMax: 0.9,
		ParticleDecay:    3,

		GestureLossGrace: D(1500 * time.Millisecond),
		StartGrace:       D(3 * time.Second),
		MilestoneEvery:   25,

		CaptureEvery:    D(8 * time.Second),
		CaptureCapacity: 3,
		ReplaceChance:   0.5,
		JPEGQuality:     80,

		TempoBPM:     220,
		Lookahead:    D(100 * time.Millisecond),
		ScheduleTick: D(25 * time.Millisecond),
		FirstNote:    D(50 * time.Millisecond),
		ArpChance:    0.6,
	}
}

// ErrInvalidTuning is returned by Validate for out-of-range values.
var ErrInvalidTuning = errors.New("invalid tuning")

// Validate checks the values the simulation relies on.
func (t Tuning) Validate() error {
	switch {
	case t.MaxLives < 1:
		return fmt.Errorf("%w: max_lives must be >= 1", ErrInvalidTuning)
	case t.GestureHitRadius <= 0 || t.FaceHitRadius <= 0:
		return fmt.Errorf("%w: hit radii must be positive", ErrInvalidTuning)
	case t.SpawnIntervalMin.Duration <= 0 || t.SpawnIntervalStart.Duration < t.SpawnIntervalMin.Duration:
		return fmt.Errorf("%w: spawn interval start must be >= min > 0", ErrInvalidTuning)
	case t.RampDuration.Duration <= 0:
		return fmt.Errorf("%w: ramp_duration must be positive", ErrInvalidTuning)
	case t.CaptureCapacity < 1:
		return fmt.Errorf("%w: capture_capacity must be >= 1", ErrInvalidTuning)
	case t.JPEGQuality < 1 || t.JPEGQuality > 100:
		return fmt.Errorf("%w: jpeg_quality must be in 1..100", ErrInvalidTuning)
	case t.TempoBPM <= 0:
		return fmt.Errorf("%w: tempo_bpm must be positive", ErrInvalidTuning)
	case t.ScheduleTick.Duration <= 0 || t.Lookahead.Duration < t.ScheduleTick.Duration:
		return fmt.Errorf("%w: lookahead must cover at least one schedule tick", ErrInvalidTuning)
	}
	return nil
}
