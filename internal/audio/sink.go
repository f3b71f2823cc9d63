package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/hajimehoshi/oto/v2"
)

// Output backends.
const (
	BackendSpeaker = "speaker"
	BackendOto     = "oto"
	BackendNone    = "none"
)

// Output is an audio device playing a timeline.
type Output interface {
	Close() error
}

// Open attaches tl to the named backend.
func Open(backend string, tl *Timeline) (Output, error) {
	switch backend {
	case BackendSpeaker, "":
		return OpenSpeaker(tl)
	case BackendOto:
		return OpenOto(tl)
	case BackendNone:
		tl.detach()
		return nopOutput{}, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", backend)
}

type nopOutput struct{}

func (nopOutput) Close() error { return nil }

type speakerOutput struct {
	tl *Timeline
}

// OpenSpeaker plays tl through beep's speaker.
func OpenSpeaker(tl *Timeline) (Output, error) {
	rate := tl.Rate()
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	tl.attach()
	speaker.Play(tl)
	return speakerOutput{tl: tl}, nil
}

func (o speakerOutput) Close() error {
	speaker.Clear()
	speaker.Close()
	o.tl.detach()
	return nil
}

type otoOutput struct {
	tl     *Timeline
	ctx    *oto.Context
	player oto.Player
}

// OpenOto plays tl through an oto context using float32 PCM.
func OpenOto(tl *Timeline) (Output, error) {
	ctx, ready, err := oto.NewContext(int(tl.Rate()), 2, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("init oto: %w", err)
	}
	<-ready
	tl.attach()
	player := ctx.NewPlayer(NewPCMReader(tl))
	player.Play()
	return &otoOutput{tl: tl, ctx: ctx, player: player}, nil
}

func (o *otoOutput) Close() error {
	err := o.player.Close()
	o.tl.detach()
	return err
}

// PCMReader renders a streamer as interleaved stereo float32 little endian
// frames.
type PCMReader struct {
	src beep.Streamer
	buf [][2]float64
}

// NewPCMReader wraps src.
func NewPCMReader(src beep.Streamer) *PCMReader {
	return &PCMReader{src: src}
}

// Read implements io.Reader. It never returns io.EOF; drained sources
// produce silence.
func (r *PCMReader) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([][2]float64, frames)
	}
	buf := r.buf[:frames]
	n, _ := r.src.Stream(buf)
	for i := n; i < frames; i++ {
		buf[i] = [2]float64{}
	}
	for i, s := range buf {
		putStereoF32LR(p, i, softClip(s[0]), softClip(s[1]))
	}
	return frames * 8, nil
}

// putStereoF32LR writes independent left/right samples in [-1,1].
func putStereoF32LR(buf []byte, i int, left, right float64) {
	lv := math.Float32bits(float32(left))
	rv := math.Float32bits(float32(right))
	buf[i*8] = byte(lv)
	buf[i*8+1] = byte(lv >> 8)
	buf[i*8+2] = byte(lv >> 16)
	buf[i*8+3] = byte(lv >> 24)
	buf[i*8+4] = byte(rv)
	buf[i*8+5] = byte(rv >> 8)
	buf[i*8+6] = byte(rv >> 16)
	buf[i*8+7] = byte(rv >> 24)
}

func softClip(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
