package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Wave defines oscillator wave shapes.
type Wave uint8

const (
	WaveSine Wave = iota
	WaveSquare
	WaveTriangle
	WaveSaw
)

// Curve is the shape of a parameter ramp.
type Curve uint8

const (
	CurveExp Curve = iota
	CurveLinear
)

// Breakpoint pins a frequency at an offset from the note start.
type Breakpoint struct {
	At   time.Duration
	Freq float64
}

// Note is one synthesized tone. Gain decays from Gain to silence over Dur
// following GainCurve; the pitch follows Sweep when set, else stays at Freq.
type Note struct {
	Wave       Wave
	Freq       float64
	Sweep      []Breakpoint
	SweepCurve Curve
	Gain       float64
	GainCurve  Curve
	Dur        time.Duration
}

// silenceFloor is where exponential gain ramps end.
const silenceFloor = 0.001

// attack avoids a click at note onset.
const attack = 2 * time.Millisecond

// Streamer renders the note at the given sample rate.
func (n Note) Streamer(rate beep.SampleRate) beep.Streamer {
	return &voice{note: n, rate: rate, total: rate.N(n.Dur), attack: rate.N(attack)}
}

// voice generates a single note.
type voice struct {
	note   Note
	rate   beep.SampleRate
	phase  float64
	pos    int
	total  int
	attack int
}

func (v *voice) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if v.pos >= v.total {
			return i, i > 0
		}
		t := float64(v.pos) / float64(v.rate)
		progress := float64(v.pos) / float64(v.total)

		val := waveAt(v.note.Wave, v.phase) * v.gainAt(progress)
		if v.pos < v.attack {
			val *= float64(v.pos) / float64(v.attack)
		}
		samples[i][0] = val
		samples[i][1] = val

		v.phase += v.freqAt(t) / float64(v.rate)
		v.phase -= math.Floor(v.phase)
		v.pos++
	}
	return len(samples), true
}

func (v *voice) Err() error { return nil }

func (v *voice) gainAt(progress float64) float64 {
	g := v.note.Gain
	if g <= 0 {
		return 0
	}
	if v.note.GainCurve == CurveLinear {
		return g * (1 - progress)
	}
	return g * math.Pow(silenceFloor/g, progress)
}

func (v *voice) freqAt(t float64) float64 {
	sw := v.note.Sweep
	if len(sw) == 0 {
		return v.note.Freq
	}
	if t <= sw[0].At.Seconds() {
		return sw[0].Freq
	}
	for i := 1; i < len(sw); i++ {
		a, b := sw[i-1], sw[i]
		end := b.At.Seconds()
		if t > end {
			continue
		}
		start := a.At.Seconds()
		k := (t - start) / (end - start)
		if v.note.SweepCurve == CurveLinear {
			return a.Freq + (b.Freq-a.Freq)*k
		}
		return a.Freq * math.Pow(b.Freq/a.Freq, k)
	}
	return sw[len(sw)-1].Freq
}

func waveAt(w Wave, phase float64) float64 {
	switch w {
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveTriangle:
		return 1 - 4*math.Abs(phase-0.5)
	case WaveSaw:
		return 2 * (phase - 0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// newVolume wraps s in a volume effect. math.Log2(0) is -Inf, so zero
// volume becomes silent.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
