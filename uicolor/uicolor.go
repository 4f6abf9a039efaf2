// Package uicolor is the colour value exchanged with user interface code:
// one colour held in the model it was picked in (RGB, HSV, HCY or BT.601
// YCbCr) and converted on demand.
package uicolor

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"
	"strconv"
)

// Model names the components a Color holds.
type Model int

const (
	RGB Model = iota
	HSV
	HCY
	YCbCr
)

func (m Model) String() string {
	switch m {
	case RGB:
		return "RGB"
	case HSV:
		return "HSV"
	case HCY:
		return "HCY"
	case YCbCr:
		return "YCbCr"
	}
	return "Model(" + strconv.Itoa(int(m)) + ")"
}

// Color is a colour in one of the models. Hues are in [0, 1). Other
// components are in [0, 1] except Cb and Cr, which are in [-0.5, 0.5].
type Color struct {
	Model   Model
	X, Y, Z float64
}

// NewRGB returns an RGB colour.
func NewRGB(r, g, b float64) Color { return Color{RGB, r, g, b} }

// NewHSV returns an HSV colour.
func NewHSV(h, s, v float64) Color { return Color{HSV, h, s, v} }

// NewHCY returns a hue, relative chroma, luma colour.
func NewHCY(h, c, y float64) Color { return Color{HCY, h, c, y} }

// NewYCbCr returns a BT.601 YCbCr colour.
func NewYCbCr(y, cb, cr float64) Color { return Color{YCbCr, y, cb, cr} }

func (c Color) String() string {
	return fmt.Sprintf("%v(%.4f, %.4f, %.4f)", c.Model, c.X, c.Y, c.Z)
}

// RGB returns the red, green and blue components. YCbCr colours may lie
// outside the RGB gamut.
func (c Color) RGB() (r, g, b float64) {
	switch c.Model {
	case HSV:
		return hsvToRGB(c.X, c.Y, c.Z)
	case HCY:
		return hcyToRGB(c.X, c.Y, c.Z)
	case YCbCr:
		return ycbcrToRGB(c.X, c.Y, c.Z)
	}
	return c.X, c.Y, c.Z
}

// HSV returns hue, saturation and value. An HCY colour keeps its hue.
func (c Color) HSV() (h, s, v float64) {
	switch c.Model {
	case HSV:
		return c.X, c.Y, c.Z
	case HCY:
		_, s, v = rgbToHSV(c.RGB())
		return c.X, s, v
	}
	return rgbToHSV(c.RGB())
}

// Luma is the perceptual brightness.
func (c Color) Luma() float64 {
	switch c.Model {
	case HCY:
		return c.Z
	case YCbCr:
		return c.X
	}
	r, g, b := c.RGB()
	return 0.299*r + 0.587*g + 0.114*b
}

// To converts c to model m.
func (c Color) To(m Model) Color {
	if c.Model == m {
		return c
	}
	switch m {
	case HSV:
		h, s, v := c.HSV()
		return NewHSV(h, s, v)
	case HCY:
		h, ch, y := rgbToHCY(c.RGB())
		if c.Model == HSV {
			h = c.X
		}
		return NewHCY(h, ch, y)
	case YCbCr:
		y, cb, cr := rgbToYCbCr(c.RGB())
		return NewYCbCr(y, cb, cr)
	}
	r, g, b := c.RGB()
	return NewRGB(r, g, b)
}

// Greyscale returns the grey of the same luma.
func (c Color) Greyscale() Color {
	l := c.Luma()
	return NewRGB(l, l, l)
}

// Contrasting returns a grey whose luma is shifted by k, wrapping at 1.
func (c Color) Contrasting(k float64) Color {
	l := math.Mod(c.Luma()+k, 1)
	return NewRGB(l, l, l)
}

func to8(v float64) uint8 {
	return uint8(max(0, min(v, 1)) * 0xff)
}

// Equal reports whether both colours give the same 8-bit RGB triple.
func (c Color) Equal(o Color) bool {
	r1, g1, b1 := c.RGB()
	r2, g2, b2 := o.RGB()
	return to8(r1) == to8(r2) && to8(g1) == to8(g2) && to8(b1) == to8(b2)
}

// Hex formats c as #rrggbb.
func (c Color) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", to8(r), to8(g), to8(b))
}

// ParseHex reads #rgb, #rrggbb or #rrrrggggbbbb, with "#", "0x" or no
// prefix.
func ParseHex(s string) (Color, error) {
	digits := s
	switch {
	case len(s) > 0 && s[0] == '#':
		digits = s[1:]
	case len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X'):
		digits = s[2:]
	}
	var n int
	switch len(digits) {
	case 3, 6, 12:
		n = len(digits) / 3
	default:
		return Color{}, fmt.Errorf("uicolor: invalid hex colour %q", s)
	}
	full := float64(uint64(1)<<(4*n) - 1)
	var rgb [3]float64
	for i := range rgb {
		v, err := strconv.ParseUint(digits[i*n:(i+1)*n], 16, 16)
		if err != nil {
			return Color{}, fmt.Errorf("uicolor: invalid hex colour %q: %w", s, err)
		}
		rgb[i] = float64(v) / full
	}
	return NewRGB(rgb[0], rgb[1], rgb[2]), nil
}

// FromDragData reads the 8-byte application/x-color format: four 16-bit
// samples R, G, B, A in native byte order. Alpha is ignored.
func FromDragData(data [8]byte) Color {
	var v [3]float64
	for i := range v {
		v[i] = float64(binary.NativeEndian.Uint16(data[2*i:])) / 0xffff
	}
	return NewRGB(v[0], v[1], v[2])
}

// DragData encodes c in the application/x-color format with full alpha.
func (c Color) DragData() [8]byte {
	var out [8]byte
	r, g, b := c.RGB()
	for i, v := range []float64{r, g, b} {
		binary.NativeEndian.PutUint16(out[2*i:], uint16(max(0, min(v, 1))*0xffff))
	}
	binary.NativeEndian.PutUint16(out[6:], 0xffff)
	return out
}

// NRGBA returns c as an opaque 8-bit colour.
func (c Color) NRGBA() color.NRGBA {
	r, g, b := c.RGB()
	return color.NRGBA{R: to8(r), G: to8(g), B: to8(b), A: 0xff}
}

// FromColor converts any colour to RGB, dropping alpha.
func FromColor(c color.Color) Color {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return NewRGB(float64(n.R)/0xffff, float64(n.G)/0xffff, float64(n.B)/0xffff)
}

// hueDelta is the signed shortest distance from hue a to hue b.
func hueDelta(a, b float64) float64 {
	a, b = wrapHue(a), wrapHue(b)
	d := b - a
	for _, alt := range []float64{-(a + 1 - b), b + 1 - a} {
		if math.Abs(alt) < math.Abs(d) {
			d = alt
		}
	}
	return d
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	return h
}

// Interpolate returns steps colours from c to o inclusive, computed in
// the model of c. Hues take the shorter way round. Fewer than two steps
// give nil.
func (c Color) Interpolate(o Color, steps int) []Color {
	if steps < 2 {
		return nil
	}
	o = o.To(c.Model)
	var dh float64
	hue := c.Model == HSV || c.Model == HCY
	if hue {
		dh = hueDelta(c.X, o.X)
	}
	out := make([]Color, steps)
	for i := range out {
		p := float64(i) / float64(steps-1)
		n := Color{
			Model: c.Model,
			X:     c.X + (o.X-c.X)*p,
			Y:     c.Y + (o.Y-c.Y)*p,
			Z:     c.Z + (o.Z-c.Z)*p,
		}
		if hue {
			n.X = wrapHue(c.X + dh*p)
		}
		out[i] = n
	}
	return out
}
