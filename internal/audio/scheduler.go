package audio

import (
	"sync"
	"time"

	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/object"
)

// Clock reports audio time in seconds.
type Clock interface {
	Now() float64
}

// Stopper cancels a pending timer. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// AfterFunc arms a one-shot timer.
type AfterFunc func(d time.Duration, f func()) Stopper

// RealAfterFunc wraps time.AfterFunc.
func RealAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// NoteSink receives notes with their onset in audio time.
type NoteSink interface {
	Schedule(at float64, n Note)
}

// StepsPerBar is the length of the bass sequence in sixteenth notes.
const StepsPerBar = 16

// BassLine holds the bass frequency per sixteenth step, 0 for a rest.
var BassLine = [StepsPerBar]float64{
	110, 0, 110, 0, 110, 0, 130.81, 0, // A2 A2 A2 C3
	98, 0, 98, 0, 98, 0, 87.31, 0, // G2 G2 G2 F2
}

// ArpNotes is the pool for the sparse high voice.
var ArpNotes = []float64{440, 523.25, 659.25, 783.99, 880}

// Voices of the background beat.
var (
	bassVoice = Note{Wave: WaveSquare, Gain: 0.08, Dur: 120 * time.Millisecond}
	arpVoice  = Note{Wave: WaveTriangle, Gain: 0.04, Dur: 100 * time.Millisecond}
)

// Scheduler drives the background beat with a lookahead loop: every tick it
// queues all sixteenth notes whose onset falls before now+lookahead.
type Scheduler struct {
	clock     Clock
	sink      NoteSink
	after     AfterFunc
	rng       object.Rand
	step      time.Duration
	lookahead float64
	interval  time.Duration
	firstNote float64
	arpChance float64

	mu      sync.Mutex
	running bool
	muted   bool
	gen     uint64
	timer   Stopper
	beat    int
	next    float64
}

// NewScheduler creates a stopped scheduler. A nil after uses real timers
// and a nil r the package source.
func NewScheduler(clock Clock, sink NoteSink, after AfterFunc, r object.Rand, tun config.Tuning) *Scheduler {
	if after == nil {
		after = RealAfterFunc
	}
	if r == nil {
		r = object.GlobalRand{}
	}
	return &Scheduler{
		clock:     clock,
		sink:      sink,
		after:     after,
		rng:       r,
		step:      SixteenthNote(tun.TempoBPM),
		lookahead: tun.Lookahead.Seconds(),
		interval:  tun.ScheduleTick.Duration,
		firstNote: tun.FirstNote.Seconds(),
		arpChance: tun.ArpChance,
	}
}

// SixteenthNote returns the duration of one sixteenth at bpm.
func SixteenthNote(bpm float64) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / bpm / 4)
}

// Start begins the beat from step zero. Starting a running scheduler does
// nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.step <= 0 {
		return
	}
	s.running = true
	s.gen++
	s.beat = 0
	s.next = s.clock.Now() + s.firstNote
	s.scheduleLocked(s.gen)
}

// Stop cancels the pending timer. Stopping a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// IsRunning reports whether the beat is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetMuted silences note output. The sequence keeps advancing so unmuting
// picks up in time.
func (s *Scheduler) SetMuted(m bool) {
	s.mu.Lock()
	s.muted = m
	s.mu.Unlock()
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || gen != s.gen {
		return
	}
	s.scheduleLocked(gen)
}

func (s *Scheduler) scheduleLocked(gen uint64) {
	horizon := s.clock.Now() + s.lookahead
	for s.next < horizon {
		if !s.muted {
			s.emit(s.beat, s.next)
		}
		s.next += s.step.Seconds()
		s.beat = (s.beat + 1) % StepsPerBar
	}
	s.timer = s.after(s.interval, func() { s.tick(gen) })
}

func (s *Scheduler) emit(beat int, at float64) {
	if f := BassLine[beat]; f > 0 {
		n := bassVoice
		n.Freq = f
		s.sink.Schedule(at, n)
	}
	if beat%4 == 0 && s.rng.Float64() < s.arpChance {
		n := arpVoice
		n.Freq = ArpNotes[s.rng.IntN(len(ArpNotes))]
		s.sink.Schedule(at, n)
	}
}
