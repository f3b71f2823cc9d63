package capture

import (
	"bytes"
	"image"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tomz197/nosecondbest/internal/loop/config"
	"github.com/tomz197/nosecondbest/internal/loop/sim"
	"github.com/tomz197/nosecondbest/internal/object"
)

// Camera supplies the most recent camera frame. Image returns nil when no
// frame is available.
type Camera interface {
	Image() image.Image
}

// BlankCamera never has a frame; screenshots show the overlay on a plain
// background. The terminal builds use it.
type BlankCamera struct{}

// Image implements Camera.
func (BlankCamera) Image() image.Image { return nil }

// Pipeline implements sim.Capturer: it composites, encodes and buffers a
// screenshot per capture request. Failed encodes are skipped.
type Pipeline struct {
	cam  Camera
	comp *Compositor
	log  *log.Logger

	mu  sync.Mutex
	buf *Buffer
}

var _ sim.Capturer = (*Pipeline)(nil)

// NewPipeline builds a pipeline sized from the tuning table.
func NewPipeline(cam Camera, tun config.Tuning, r object.Rand, logger *log.Logger) *Pipeline {
	if cam == nil {
		cam = BlankCamera{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{
		cam:  cam,
		comp: NewCompositor(DefaultWidth, DefaultHeight, tun.JPEGQuality),
		log:  logger,
		buf:  NewBuffer(tun.CaptureCapacity, tun.ReplaceChance, r),
	}
}

// Capture implements sim.Capturer.
func (p *Pipeline) Capture(snap *sim.Snapshot, final bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	img := p.comp.Compose(p.cam.Image(), snap)
	var b bytes.Buffer
	if err := p.comp.Encode(&b, img); err != nil {
		p.log.Debug("screenshot skipped", "err", err)
		return
	}
	kept := p.buf.Add(b.Bytes(), final)
	p.log.Debug("screenshot", "final", final, "kept", kept, "total", p.buf.Total())
}

// Screenshots implements sim.Capturer.
func (p *Pipeline) Screenshots() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Shots()
}

// Reset implements sim.Capturer.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf.Reset()
}

// Total returns the number of screenshots taken this match.
func (p *Pipeline) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Total()
}
