// Package viewport maps the canvas onto the screen and redraws parts of it.
package viewport

import (
	"image"
	"math"

	"tilecanvas/tiledsurface"

	"github.com/paulmach/orb"
	"golang.org/x/image/math/f64"
)

// Default zoom limits.
const (
	ZoomMin = 1 / 5.0
	ZoomMax = 5.0
)

// Transform places the canvas (model) on the screen (device):
// translation, then rotation, then scale, then an optional horizontal
// mirror.
type Transform struct {
	TranslationX, TranslationY float64
	Rotation                   float64
	Scale                      float64
	Mirrored                   bool

	ZoomMin, ZoomMax float64

	// not yet applied part of a pixel aligned translation
	subpixelX, subpixelY float64
}

// NewTransform returns the identity transform with the default zoom limits.
func NewTransform() Transform {
	return Transform{Scale: 1, ZoomMin: ZoomMin, ZoomMax: ZoomMax}
}

// IsTranslationOnly reports whether t neither rotates, scales nor mirrors.
func (t *Transform) IsTranslationOnly() bool {
	return t.Rotation == 0 && t.Scale == 1 && !t.Mirrored
}

// Matrix maps model coordinates to device coordinates.
func (t *Transform) Matrix() f64.Aff3 {
	sin, cos := math.Sincos(t.Rotation)
	m := f64.Aff3{
		t.Scale * cos, -t.Scale * sin, t.TranslationX,
		t.Scale * sin, t.Scale * cos, t.TranslationY,
	}
	if t.Mirrored {
		m[0], m[1] = -m[0], -m[1]
	}
	return m
}

// LevelMatrix maps the pixels of the given mipmap level to device
// coordinates.
func (t *Transform) LevelMatrix(level int) f64.Aff3 {
	m := t.Matrix()
	f := math.Ldexp(1, level)
	m[0], m[1], m[3], m[4] = m[0]*f, m[1]*f, m[3]*f, m[4]*f
	return m
}

func apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

func invert(m f64.Aff3) f64.Aff3 {
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 {
		return f64.Aff3{1, 0, -m[2], 0, 1, -m[5]}
	}
	a, b, d, e := m[4]/det, -m[1]/det, -m[3]/det, m[0]/det
	return f64.Aff3{
		a, b, -(a*m[2] + b*m[5]),
		d, e, -(d*m[2] + e*m[5]),
	}
}

// ModelToDevice maps a canvas point to the screen.
func (t *Transform) ModelToDevice(x, y float64) (float64, float64) {
	return apply(t.Matrix(), x, y)
}

// DeviceToModel maps a screen point to the canvas.
func (t *Transform) DeviceToModel(x, y float64) (float64, float64) {
	return apply(invert(t.Matrix()), x, y)
}

// MipmapLevel picks the mipmap level that gives about one source pixel per
// device pixel at the given scale.
func MipmapLevel(scale float64) int {
	if scale <= 0 {
		return tiledsurface.MaxMipmapLevel
	}
	level := int(math.Ceil(math.Log2(1 / scale)))
	return max(0, min(level, tiledsurface.MaxMipmapLevel))
}

// alignTranslation rounds the translation to whole pixels while it is the
// only part of the transform, carrying the remainder over to later scrolls.
func (t *Transform) alignTranslation() {
	if !t.IsTranslationOnly() {
		t.subpixelX, t.subpixelY = 0, 0
		return
	}
	x := t.TranslationX + t.subpixelX
	y := t.TranslationY + t.subpixelY
	t.TranslationX, t.TranslationY = math.Round(x), math.Round(y)
	t.subpixelX, t.subpixelY = x-t.TranslationX, y-t.TranslationY
}

// Scroll moves the view by (dx, dy) device pixels.
func (t *Transform) Scroll(dx, dy float64) {
	t.TranslationX -= dx
	t.TranslationY -= dy
	t.alignTranslation()
}

// rotozoom applies f while keeping the model point under device point
// (cx, cy) in place.
func (t *Transform) rotozoom(cx, cy float64, f func()) {
	mx, my := t.DeviceToModel(cx, cy)
	f()
	lo, hi := t.ZoomMin, t.ZoomMax
	if lo <= 0 {
		lo = ZoomMin
	}
	if hi <= 0 {
		hi = ZoomMax
	}
	t.Scale = max(lo, min(t.Scale, hi))
	nx, ny := t.ModelToDevice(mx, my)
	t.TranslationX += cx - nx
	t.TranslationY += cy - ny

	t.Rotation = math.Mod(t.Rotation, 2*math.Pi)
	if t.Rotation < 0 {
		t.Rotation += 2 * math.Pi
	}
	if t.IsTranslationOnly() {
		t.TranslationX = math.Trunc(t.TranslationX)
		t.TranslationY = math.Trunc(t.TranslationY)
	}
	t.alignTranslation()
}

// Zoom multiplies the scale by step around device point (cx, cy).
func (t *Transform) Zoom(step, cx, cy float64) {
	t.rotozoom(cx, cy, func() { t.Scale *= step })
}

// SetZoom sets the scale around device point (cx, cy).
func (t *Transform) SetZoom(zoom, cx, cy float64) {
	t.rotozoom(cx, cy, func() { t.Scale = zoom })
}

// Rotate adds angle (radians) to the rotation around (cx, cy).
func (t *Transform) Rotate(angle, cx, cy float64) {
	t.rotozoom(cx, cy, func() { t.Rotation += angle })
}

// SetRotation sets the rotation around (cx, cy).
func (t *Transform) SetRotation(angle, cx, cy float64) {
	t.rotozoom(cx, cy, func() { t.Rotation = angle })
}

// Mirror toggles the horizontal mirror around (cx, cy).
func (t *Transform) Mirror(cx, cy float64) {
	t.rotozoom(cx, cy, func() { t.Mirrored = !t.Mirrored })
}

// SetMirrored sets the horizontal mirror around (cx, cy).
func (t *Transform) SetMirrored(mirrored bool, cx, cy float64) {
	t.rotozoom(cx, cy, func() { t.Mirrored = mirrored })
}

// RecenterOn moves the view so the centre of bbox (model pixels) is shown
// in the middle of a w x h device area.
func (t *Transform) RecenterOn(bbox image.Rectangle, w, h int) {
	cx := float64(bbox.Min.X+bbox.Max.X) / 2
	cy := float64(bbox.Min.Y+bbox.Max.Y) / 2
	dx, dy := t.ModelToDevice(cx, cy)
	t.TranslationX += float64(w)/2 - dx
	t.TranslationY += float64(h)/2 - dy
}

// deviceBound returns the bound of the given points mapped through m.
func deviceBound(m f64.Aff3, pts ...orb.Point) orb.Bound {
	mp := make(orb.MultiPoint, len(pts))
	for i, p := range pts {
		x, y := apply(m, p[0], p[1])
		mp[i] = orb.Point{x, y}
	}
	return mp.Bound()
}

// outerRect is the smallest integer rectangle containing b.
func outerRect(b orb.Bound) image.Rectangle {
	return image.Rect(
		int(math.Floor(b.Min[0])), int(math.Floor(b.Min[1])),
		int(math.Ceil(b.Max[0])), int(math.Ceil(b.Max[1])),
	)
}

// CanvasModifiedArea returns the device rectangle to redraw after the model
// rectangle r changed.
func CanvasModifiedArea(r image.Rectangle, t Transform) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	m := t.Matrix()
	if t.IsTranslationOnly() {
		x, y := apply(m, float64(r.Min.X), float64(r.Min.Y))
		return r.Sub(r.Min).Add(image.Pt(int(math.Floor(x)), int(math.Floor(y))))
	}
	x0, y0 := float64(r.Min.X), float64(r.Min.Y)
	x1, y1 := float64(r.Max.X), float64(r.Max.Y)
	return outerRect(deviceBound(m, orb.Point{x0, y0}, orb.Point{x1, y0}, orb.Point{x0, y1}, orb.Point{x1, y1}))
}
