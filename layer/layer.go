// Package layer adds opacity, visibility and stroke bookkeeping to a tiled
// surface and merges layers into each other.
package layer

import (
	"tilecanvas/internal/logx"
	"tilecanvas/pixbuf"
	"tilecanvas/pixops"
	"tilecanvas/tiledsurface"
)

// Layer is one paintable surface of a document. The layer owns its
// surface exclusively.
type Layer struct {
	Name    string
	Surface *tiledsurface.Surface
	Opacity float64
	Visible bool
	Locked  bool
	Strokes []*StrokeInfo

	// share of the original pixels already moved out by MergeStep
	merged float64
}

// New returns an empty, visible and fully opaque layer.
func New(name string) *Layer {
	return &Layer{
		Name:    name,
		Surface: tiledsurface.New(),
		Opacity: 1,
		Visible: true,
	}
}

// EffectiveOpacity is the opacity used for compositing: zero when the
// layer is hidden.
func (l *Layer) EffectiveOpacity() float64 {
	if !l.Visible {
		return 0
	}
	return l.Opacity
}

// SetOpacity stores o clamped to [0, 1].
func (l *Layer) SetOpacity(o float64) {
	l.Opacity = max(0, min(o, 1))
}

// Clear drops all pixels and strokes.
func (l *Layer) Clear() {
	l.Strokes = nil
	l.merged = 0
	l.Surface.Clear()
}

// LoadFromPixbuf replaces the layer content with the pixels of p.
func (l *Layer) LoadFromPixbuf(p *pixbuf.Surface, cs pixops.Colorspace) {
	l.Clear()
	l.Surface.LoadFromPixbuf(p, cs)
}

// Snapshot captures pixels, strokes and opacity of a layer.
type Snapshot struct {
	strokes []*StrokeInfo
	surface *tiledsurface.Snapshot
	opacity float64
}

// ID identifies the captured surface state.
func (sn *Snapshot) ID() string {
	return sn.surface.ID
}

// SaveSnapshot captures the current state. Snapshots are never modified.
func (l *Layer) SaveSnapshot() *Snapshot {
	return &Snapshot{
		strokes: append([]*StrokeInfo(nil), l.Strokes...),
		surface: l.Surface.SaveSnapshot(),
		opacity: l.Opacity,
	}
}

// LoadSnapshot restores a state captured with SaveSnapshot.
func (l *Layer) LoadSnapshot(sn *Snapshot) {
	l.Strokes = append([]*StrokeInfo(nil), sn.strokes...)
	l.Surface.LoadSnapshot(sn.surface)
	l.Opacity = sn.opacity
	l.merged = 0
}

// bakeOpacity folds the effective opacity of l into its pixels.
func (l *Layer) bakeOpacity() {
	o := l.EffectiveOpacity()
	if o < 1 {
		for _, c := range l.Surface.Tiles() {
			pixops.ScaleTile(l.Surface.TileForWrite(c.X, c.Y), o)
		}
	}
	l.Opacity = 1
}

// MergeInto composites src over dst, modifying only dst. The opacity of dst
// is baked into its pixels first and reset to 1. Strokes of src are
// appended to dst.
func MergeInto(src, dst *Layer) {
	if src == dst {
		return
	}
	dst.Strokes = append(dst.Strokes, src.Strokes...)
	dst.bakeOpacity()
	opacity := src.EffectiveOpacity()
	for _, c := range src.Surface.Tiles() {
		t, _ := src.Surface.Tile(c.X, c.Y)
		pixops.CompositeOver(dst.Surface.TileForWrite(c.X, c.Y), t, opacity)
	}
	logx.WithComponent("layer").Debugf("merged %q into %q", src.Name, dst.Name)
}

// MergeStep moves the share step (of the original src pixels) from src
// into dst, modifying both. src over dst looks the same before and after
// every call, and steps adding up to 1 end in the same pixels as MergeInto:
// src is left empty and its strokes move to dst.
func MergeStep(src, dst *Layer, step float64) {
	if src == dst || step <= 0 {
		return
	}
	if src.merged == 0 {
		dst.bakeOpacity()
	}
	rest := 1 - src.merged
	t := min(step/rest, 1)
	last := t >= 1-1e-9 || rest-step <= 1e-9

	opacity := src.EffectiveOpacity()
	for _, c := range src.Surface.Tiles() {
		s, _ := src.Surface.Tile(c.X, c.Y)
		d := dst.Surface.TileForWrite(c.X, c.Y)
		if last {
			pixops.CompositeOver(d, s, opacity)
			continue
		}
		pixops.CompositeFraction(d, s, opacity, t)
		pixops.ScaleTile(src.Surface.TileForWrite(c.X, c.Y), 1-t)
	}

	if !last {
		src.merged += step
		return
	}
	dst.Strokes = append(dst.Strokes, src.Strokes...)
	src.Strokes = nil
	src.Surface.Clear()
	src.merged = 0
	logx.WithComponent("layer").Debugf("step merge of %q into %q complete", src.Name, dst.Name)
}

// TileSource provides the tiles of a backdrop such as a background.
type TileSource interface {
	BlitTileInto(dst *pixops.Tile, tx, ty, level int)
}

// SeparateFromBackground turns pixels that were painted flat onto bg back
// into translucent paint: each pixel is flattened over bg and then gets
// the least alpha that reproduces that colour when composited over bg.
func (l *Layer) SeparateFromBackground(bg TileSource) {
	var b pixops.Tile
	for _, c := range l.Surface.Tiles() {
		bg.BlitTileInto(&b, c.X, c.Y, 0)
		t := l.Surface.TileForWrite(c.X, c.Y)
		pixops.RGBAToFlat(t, &b)
		for i := 3; i < len(t); i += 4 {
			t[i] = 0
		}
		pixops.FlatToRGBA(t, &b)
	}
}

// Flatten composites the colour of every pixel over bg, keeping alpha.
// It undoes SeparateFromBackground.
func (l *Layer) Flatten(bg TileSource) {
	var b pixops.Tile
	for _, c := range l.Surface.Tiles() {
		bg.BlitTileInto(&b, c.X, c.Y, 0)
		pixops.RGBAToFlat(l.Surface.TileForWrite(c.X, c.Y), &b)
	}
}
