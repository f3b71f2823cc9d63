package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/tomz197/nosecondbest/internal/loop/sim"
)

// Default output size.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Watermark is stamped on every screenshot.
const Watermark = "NO SECOND BEST"

var (
	background = color.RGBA{R: 0x0b, G: 0x0b, B: 0x14, A: 0xff}
	scoreColor = color.RGBA{R: 0xf7, G: 0x93, B: 0x1a, A: 0xff}
	markColor  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xb0}
	boxColor   = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x99}
	faceColor  = color.NRGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0x80}
)

// Compositor renders a camera frame plus the match overlay into one image.
// It is not safe for concurrent use.
type Compositor struct {
	Width   int
	Height  int
	Mirror  bool // Flip the camera frame to match the displayed view
	Quality int  // JPEG quality, 1..100

	z *vector.Rasterizer
}

// NewCompositor returns a compositor for w x h output.
func NewCompositor(w, h, quality int) *Compositor {
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
	}
	return &Compositor{Width: w, Height: h, Mirror: true, Quality: quality}
}

// Compose draws cam (may be nil) and the overlay of snap.
func (c *Compositor) Compose(cam image.Image, snap *sim.Snapshot) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	if cam != nil && !cam.Bounds().Empty() {
		draw.ApproxBiLinear.Transform(dst, c.cameraTransform(cam.Bounds()), cam, cam.Bounds(), draw.Src, nil)
	}

	c.overlay(dst, snap)
	c.decorate(dst, snap)
	return dst
}

// cameraTransform maps camera pixels onto the output, flipping x when
// mirroring.
func (c *Compositor) cameraTransform(src image.Rectangle) f64.Aff3 {
	sx := float64(c.Width) / float64(src.Dx())
	sy := float64(c.Height) / float64(src.Dy())
	minX, minY := float64(src.Min.X), float64(src.Min.Y)
	if c.Mirror {
		return f64.Aff3{
			-sx, 0, float64(c.Width) + sx*minX,
			0, sy, -sy * minY,
		}
	}
	return f64.Aff3{
		sx, 0, -sx * minX,
		0, sy, -sy * minY,
	}
}

// Encode writes img as JPEG.
func (c *Compositor) Encode(w io.Writer, img image.Image) error {
	q := c.Quality
	if q < 1 || q > 100 {
		q = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: q}); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return nil
}

func (c *Compositor) overlay(dst *image.RGBA, snap *sim.Snapshot) {
	if snap == nil {
		return
	}
	w := float64(c.Width)
	h := float64(c.Height)

	for _, f := range snap.Faces {
		c.ring(dst, f.X*w, f.Y*h, 0.15*w, 3, faceColor)
	}
	for _, p := range snap.Particles {
		a := p.Alpha()
		if a <= 0 {
			continue
		}
		col := color.NRGBA{R: p.Color.R, G: p.Color.G, B: p.Color.B, A: uint8(a * 255)}
		c.disc(dst, p.X*w, p.Y*h, p.Size/2*w, col)
	}
	for _, p := range snap.PowerUps {
		c.disc(dst, p.X*w, p.Y*h, p.Size/2*w, p.Kind.Color())
	}
	for _, e := range snap.Enemies {
		c.disc(dst, e.X*w, e.Y*h, e.Size/2*w, e.Color)
	}
}

// decorate adds the bottom vignette, the score box and the watermark.
func (c *Compositor) decorate(dst *image.RGBA, snap *sim.Snapshot) {
	start := c.Height * 7 / 10
	span := c.Height - start
	for y := start; y < c.Height; y++ {
		a := uint8(float64(y-start+1) / float64(span) * 0xc0)
		row := image.Rect(0, y, c.Width, y+1)
		draw.Draw(dst, row, image.NewUniform(color.NRGBA{A: a}), image.Point{}, draw.Over)
	}

	face := basicfont.Face7x13
	margin := 12
	base := c.Height - margin

	if snap != nil {
		score := fmt.Sprintf("SCORE %d", snap.Score)
		tw := font.MeasureString(face, score).Ceil()
		box := image.Rect(margin-6, base-face.Ascent-6, margin+tw+6, base+face.Descent+4)
		draw.Draw(dst, box, image.NewUniform(boxColor), image.Point{}, draw.Over)
		text(dst, face, score, margin, base, scoreColor)
	}

	mark := Watermark
	if snap != nil {
		mark += " // " + strings.ToUpper(snap.Theme.String())
	}
	mw := font.MeasureString(face, mark).Ceil()
	text(dst, face, mark, c.Width-margin-mw, base, markColor)
}

func text(dst *image.RGBA, face font.Face, s string, x, y int, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

const discSegments = 24

func (c *Compositor) rasterizer() *vector.Rasterizer {
	if c.z == nil {
		c.z = vector.NewRasterizer(c.Width, c.Height)
	} else {
		c.z.Reset(c.Width, c.Height)
	}
	return c.z
}

func (c *Compositor) disc(dst *image.RGBA, cx, cy, r float64, col color.Color) {
	if r < 0.5 {
		r = 0.5
	}
	z := c.rasterizer()
	circlePath(z, cx, cy, r)
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

// ring strokes a circle outline of the given width using an inner path
// wound the other way.
func (c *Compositor) ring(dst *image.RGBA, cx, cy, r, width float64, col color.Color) {
	z := c.rasterizer()
	circlePath(z, cx, cy, r)
	inner := math.Max(0, r-width)
	for i := discSegments; i >= 0; i-- {
		a := float64(i) / discSegments * 2 * math.Pi
		x := float32(cx + math.Cos(a)*inner)
		y := float32(cy + math.Sin(a)*inner)
		if i == discSegments {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

func circlePath(z *vector.Rasterizer, cx, cy, r float64) {
	for i := 0; i <= discSegments; i++ {
		a := float64(i) / discSegments * 2 * math.Pi
		x := float32(cx + math.Cos(a)*r)
		y := float32(cy + math.Sin(a)*r)
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}
