package audio

import (
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/object"
)

// Service plays cues and the background beat on a timeline. It is safe to
// call from the frame loop; all work is queued, never rendered inline.
type Service struct {
	tl    *Timeline
	sched *Scheduler
	bank  *Bank
	muted atomic.Bool
	log   *log.Logger
}

// NewService wires a scheduler and a cue bank to tl. The timeline is the
// audio clock, so it must be attached to an output for time to advance;
// until then cues and notes are dropped.
func NewService(tl *Timeline, bank *Bank, r object.Rand, tun config.Tuning, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if bank == nil {
		bank = NewBank(tl.Rate(), logger)
	}
	return &Service{
		tl:    tl,
		sched: NewScheduler(tl, tl, nil, r, tun),
		bank:  bank,
		log:   logger,
	}
}

// Cue plays a one-shot effect unless muted.
func (s *Service) Cue(c Cue) {
	if s.muted.Load() {
		return
	}
	s.tl.Play(s.bank.Streamer(c))
}

// StartMusic starts the background beat.
func (s *Service) StartMusic() {
	s.sched.Start()
}

// StopMusic stops the background beat.
func (s *Service) StopMusic() {
	s.sched.Stop()
}

// MusicPlaying reports whether the beat scheduler runs.
func (s *Service) MusicPlaying() bool {
	return s.sched.IsRunning()
}

// SetMuted silences cues and music without stopping the scheduler.
func (s *Service) SetMuted(m bool) {
	s.muted.Store(m)
	s.sched.SetMuted(m)
	if m {
		s.tl.Clear()
	}
	s.log.Debug("audio mute", "muted", m)
}

// ToggleMute flips the mute flag and returns the new state.
func (s *Service) ToggleMute() bool {
	m := !s.muted.Load()
	s.SetMuted(m)
	return m
}

// Muted reports the mute flag.
func (s *Service) Muted() bool {
	return s.muted.Load()
}
