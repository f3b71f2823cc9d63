package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"
)

// ErrDecode is returned when a sampled cue cannot be decoded.
var ErrDecode = errors.New("decode cue sample")

// Bank returns a streamer per cue: a decoded sample when one was loaded,
// otherwise a synthesized tone.
type Bank struct {
	rate    beep.SampleRate
	samples map[Cue]*beep.Buffer
	log     *log.Logger
}

// NewBank creates a bank with only synthesized cues.
func NewBank(rate beep.SampleRate, logger *log.Logger) *Bank {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bank{rate: rate, samples: make(map[Cue]*beep.Buffer), log: logger}
}

// LoadWAV decodes a WAV sample for c, resampling to the bank rate.
func (b *Bank) LoadWAV(c Cue, r io.Reader) error {
	s, format, err := wav.Decode(r)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrDecode, c, err)
	}
	defer s.Close()

	var src beep.Streamer = s
	if format.SampleRate != b.rate {
		src = beep.Resample(4, format.SampleRate, b.rate, s)
	}
	buf := beep.NewBuffer(beep.Format{SampleRate: b.rate, NumChannels: 2, Precision: 2})
	buf.Append(src)
	if buf.Len() == 0 {
		return fmt.Errorf("%w %s: empty sample", ErrDecode, c)
	}
	b.samples[c] = buf
	return nil
}

// LoadDir loads <dir>/<cue>.wav for every cue. Missing files are skipped;
// broken ones are logged and keep their synthesized fallback.
func (b *Bank) LoadDir(dir string) {
	for _, c := range Cues() {
		path := filepath.Join(dir, c.String()+".wav")
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		if err := b.LoadWAV(c, f); err != nil {
			b.log.Warn("using synthesized cue", "cue", c, "err", err)
		}
		f.Close()
	}
}

// Sampled reports whether c plays a loaded sample.
func (b *Bank) Sampled(c Cue) bool {
	_, ok := b.samples[c]
	return ok
}

// Streamer returns a fresh streamer for c.
func (b *Bank) Streamer(c Cue) beep.Streamer {
	if buf, ok := b.samples[c]; ok {
		return buf.Streamer(0, buf.Len())
	}
	return Synth(c, b.rate)
}

// Synth builds the synthesized version of a cue.
func Synth(c Cue, rate beep.SampleRate) beep.Streamer {
	ms := time.Millisecond
	switch c {
	case CueBlast:
		return Note{
			Wave:  WaveTriangle,
			Sweep: []Breakpoint{{0, 800}, {100 * ms, 100}},
			Gain:  0.08,
			Dur:   100 * ms,
		}.Streamer(rate)
	case CuePowerUp:
		return Note{
			Wave:       WaveSquare,
			Sweep:      []Breakpoint{{0, 440}, {100 * ms, 880}, {300 * ms, 1760}},
			SweepCurve: CurveLinear,
			Gain:       0.1,
			GainCurve:  CurveLinear,
			Dur:        400 * ms,
		}.Streamer(rate)
	case CueBite:
		return Note{
			Wave:      WaveSaw,
			Sweep:     []Breakpoint{{0, 150}, {300 * ms, 50}},
			Gain:      0.3,
			GainCurve: CurveLinear,
			Dur:       300 * ms,
		}.Streamer(rate)
	case CueMilestone:
		return milestoneChime(rate)
	}
	return beep.Silence(0)
}

// milestoneChime is a two-note square chime (B5, E6) over a soft sine
// undertone.
func milestoneChime(rate beep.SampleRate) beep.Streamer {
	ms := time.Millisecond
	n1 := Note{Wave: WaveSquare, Freq: 987.77, Gain: 0.06, Dur: 90 * ms}
	n2 := Note{Wave: WaveSquare, Freq: 1318.51, Gain: 0.06, Dur: 220 * ms}
	chime := beep.Seq(n1.Streamer(rate), n2.Streamer(rate))

	sine, err := generators.SineTone(rate, 659.25)
	if err != nil {
		return chime
	}
	under := beep.Take(rate.N(310*ms), sine)
	return beep.Mix(chime, newVolume(under, 0.03))
}
