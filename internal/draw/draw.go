package draw

import (
	"image/color"
	"strconv"
)

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Shade characters from lightest to darkest.
// Used for meters and faded text in the HUD.
var Shades = []rune{' ', '░', '▒', '▓', '█'}

// ShadeLevel returns a shade character for a value between 0.0 (empty) and 1.0 (solid).
func ShadeLevel(intensity float64) rune {
	if intensity <= 0 {
		return Shades[0]
	}
	if intensity >= 1 {
		return Shades[len(Shades)-1]
	}
	idx := int(intensity * float64(len(Shades)-1))
	return Shades[idx]
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockEmpty     = ' '
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// Color is an xterm-256 palette index. The zero value means "no pixel";
// palette entry 0 (black) is never produced by RGB.
type Color uint8

// None marks an unset canvas pixel.
const None Color = 0

// RGB maps an arbitrary color onto the 6x6x6 cube of the xterm-256 palette.
// Fully transparent colors map to None.
func RGB(c color.Color) Color {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return None
	}
	// Undo premultiplication before quantizing.
	r = r * 0xffff / a
	g = g * 0xffff / a
	b = b * 0xffff / a
	q := func(v uint32) int {
		return int((v*5 + 0x7fff) / 0xffff)
	}
	return Color(16 + 36*q(r) + 6*q(g) + q(b))
}

// Dim returns a darker shade of c by dropping one step on every cube axis.
func Dim(c Color) Color {
	if c < 16 || c > 231 {
		return c
	}
	v := int(c) - 16
	r, g, b := v/36, (v/6)%6, v%6
	dec := func(x int) int {
		if x > 0 {
			return x - 1
		}
		return 0
	}
	return Color(16 + 36*dec(r) + 6*dec(g) + dec(b))
}

// appendFg appends an SGR foreground sequence for c.
func appendFg(buf []byte, c Color) []byte {
	buf = append(buf, "\033[38;5;"...)
	buf = strconv.AppendInt(buf, int64(c), 10)
	return append(buf, 'm')
}

// appendBg appends an SGR background sequence for c.
func appendBg(buf []byte, c Color) []byte {
	buf = append(buf, "\033[48;5;"...)
	buf = strconv.AppendInt(buf, int64(c), 10)
	return append(buf, 'm')
}

// ResetStyle clears all SGR attributes.
const ResetStyle = "\033[0m"
