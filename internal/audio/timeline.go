package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

// DefaultSampleRate is used by every sink.
const DefaultSampleRate = beep.SampleRate(44100)

type pending struct {
	start int
	s     beep.Streamer
}

// Timeline is an endless streamer that mixes voices at sample-accurate
// offsets. Its clock is the number of samples pulled by the output device,
// which makes it the audio clock for the music scheduler. Voices added while
// no output is attached are dropped, since nothing would ever drain them.
type Timeline struct {
	rate     beep.SampleRate
	attached atomic.Bool

	mu      sync.Mutex
	pos     int
	voices  []pending
	scratch [][2]float64
}

// NewTimeline creates a silent timeline.
func NewTimeline(rate beep.SampleRate) *Timeline {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Timeline{rate: rate}
}

// Attached reports whether an output device pulls from the timeline.
func (t *Timeline) Attached() bool {
	return t.attached.Load()
}

func (t *Timeline) attach() { t.attached.Store(true) }

// detach marks the timeline idle and drops queued voices.
func (t *Timeline) detach() {
	t.attached.Store(false)
	t.Clear()
}

// Rate returns the sample rate.
func (t *Timeline) Rate() beep.SampleRate {
	return t.rate
}

// Now returns the audio clock in seconds.
func (t *Timeline) Now() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.pos) / float64(t.rate)
}

// Schedule implements NoteSink.
func (t *Timeline) Schedule(at float64, n Note) {
	t.Add(at, n.Streamer(t.rate))
}

// Add starts s at audio time at (seconds). Times in the past start
// immediately.
func (t *Timeline) Add(at float64, s beep.Streamer) {
	if !t.Attached() {
		return
	}
	start := t.rate.N(time.Duration(at * float64(time.Second)))
	t.mu.Lock()
	defer t.mu.Unlock()
	if start < t.pos {
		start = t.pos
	}
	t.voices = append(t.voices, pending{start: start, s: s})
}

// Play starts s as soon as possible.
func (t *Timeline) Play(s beep.Streamer) {
	if !t.Attached() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.voices = append(t.voices, pending{start: t.pos, s: s})
}

// Pending returns the number of voices not yet finished.
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.voices)
}

// Clear drops every voice.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.voices)
	t.voices = t.voices[:0]
}

// Stream mixes all voices that overlap the requested window. It always
// fills samples, emitting silence when nothing plays.
func (t *Timeline) Stream(samples [][2]float64) (n int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n = len(samples)
	clear(samples)
	if cap(t.scratch) < n {
		t.scratch = make([][2]float64, n)
	}
	end := t.pos + n

	kept := t.voices[:0]
	for _, v := range t.voices {
		if v.start >= end {
			kept = append(kept, v)
			continue
		}
		off := max(0, v.start-t.pos)
		buf := t.scratch[:n-off]
		m, more := v.s.Stream(buf)
		for i := 0; i < m; i++ {
			samples[off+i][0] += buf[i][0]
			samples[off+i][1] += buf[i][1]
		}
		if more && m == len(buf) {
			kept = append(kept, v)
		}
	}
	clear(t.voices[len(kept):])
	t.voices = kept
	t.pos = end
	return n, true
}

// Err implements beep.Streamer.
func (t *Timeline) Err() error {
	return nil
}
