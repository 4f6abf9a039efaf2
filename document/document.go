// Package document holds a stack of layers over a background and
// composites them tile by tile.
package document

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"tilecanvas/background"
	"tilecanvas/internal/logx"
	"tilecanvas/layer"
	"tilecanvas/pixbuf"
	"tilecanvas/pixops"
)

var (
	ErrNoLayerBelow  = errors.New("no layer below the current layer")
	ErrLastLayer     = errors.New("cannot remove the last layer")
	ErrLayerIndex    = errors.New("layer index out of range")
	ErrLayerNotFound = errors.New("layer not in document")
)

// Document is an ordered layer stack, bottom first, drawn over a
// background. A document always has at least one layer.
type Document struct {
	Layers     []*layer.Layer
	Current    int
	Background *background.Background
	// Colorspace of 8-bit pixels read from and written for this document
	Colorspace pixops.Colorspace
}

// New creates a document with one empty layer. A nil background is
// replaced by plain white.
func New(bg *background.Background) *Document {
	if bg == nil {
		bg = background.FromRGB(255, 255, 255)
	}
	return &Document{
		Layers:     []*layer.Layer{layer.New("")},
		Background: bg,
	}
}

// Layer returns the current layer.
func (d *Document) Layer() *layer.Layer {
	return d.Layers[d.Current]
}

// Index returns the position of l in the stack.
func (d *Document) Index(l *layer.Layer) (int, error) {
	for i, x := range d.Layers {
		if x == l {
			return i, nil
		}
	}
	return 0, ErrLayerNotFound
}

// SelectLayer makes layer i current.
func (d *Document) SelectLayer(i int) error {
	if i < 0 || i >= len(d.Layers) {
		return fmt.Errorf("select layer %d: %w", i, ErrLayerIndex)
	}
	d.Current = i
	return nil
}

// AddLayer inserts a new empty layer at position i and makes it current.
func (d *Document) AddLayer(i int, name string) (*layer.Layer, error) {
	if i < 0 || i > len(d.Layers) {
		return nil, fmt.Errorf("add layer at %d: %w", i, ErrLayerIndex)
	}
	l := layer.New(name)
	d.Layers = slices.Insert(d.Layers, i, l)
	d.Current = i
	return l, nil
}

// RemoveLayer removes the current layer and selects the one below it.
func (d *Document) RemoveLayer() error {
	if len(d.Layers) == 1 {
		return ErrLastLayer
	}
	d.Layers = slices.Delete(d.Layers, d.Current, d.Current+1)
	d.Current = max(0, d.Current-1)
	return nil
}

// MoveLayer moves layer from to position to. The moved layer stays current
// if it was.
func (d *Document) MoveLayer(from, to int) error {
	if from < 0 || from >= len(d.Layers) || to < 0 || to >= len(d.Layers) {
		return fmt.Errorf("move layer %d to %d: %w", from, to, ErrLayerIndex)
	}
	cur := d.Layer()
	l := d.Layers[from]
	d.Layers = slices.Delete(d.Layers, from, from+1)
	d.Layers = slices.Insert(d.Layers, to, l)
	d.Current, _ = d.Index(cur)
	return nil
}

// DuplicateLayer inserts a copy of layer i above it.
func (d *Document) DuplicateLayer(i int, name string) (*layer.Layer, error) {
	if i < 0 || i >= len(d.Layers) {
		return nil, fmt.Errorf("duplicate layer %d: %w", i, ErrLayerIndex)
	}
	src := d.Layers[i]
	l := layer.New(name)
	l.LoadSnapshot(src.SaveSnapshot())
	l.Visible = src.Visible
	l.Locked = src.Locked
	d.Layers = slices.Insert(d.Layers, i+1, l)
	if d.Current > i {
		d.Current++
	}
	return l, nil
}

// MergeLayerDown merges the current layer into the one below, removes it
// and selects the merged layer.
func (d *Document) MergeLayerDown() error {
	if d.Current == 0 {
		return ErrNoLayerBelow
	}
	src, dst := d.Layer(), d.Layers[d.Current-1]
	layer.MergeInto(src, dst)
	if err := d.RemoveLayer(); err != nil {
		return err
	}
	logx.WithComponent("document").Debugf("merged layer %d down, %d layers left", d.Current+1, len(d.Layers))
	return nil
}

// PickLayer selects the topmost visible, unlocked layer with noticeable
// coverage around pixel (x, y), or the bottom layer if there is none.
func (d *Document) PickLayer(x, y int) int {
	for i := len(d.Layers) - 1; i >= 0; i-- {
		l := d.Layers[i]
		if l.Locked || !l.Visible {
			continue
		}
		if l.Surface.GetAlpha(x, y, 5)*l.EffectiveOpacity() > 0.1 {
			d.Current = i
			return i
		}
	}
	d.Current = 0
	return 0
}

// ImportLayer adds a layer above the current one holding the pixels of p.
// With separate, the pixels are taken as painted flat onto the background
// and made translucent.
func (d *Document) ImportLayer(name string, p *pixbuf.Surface, separate bool) (*layer.Layer, error) {
	l, err := d.AddLayer(d.Current+1, name)
	if err != nil {
		return nil, err
	}
	l.LoadFromPixbuf(p, d.Colorspace)
	if separate {
		if bg := d.background(); bg != nil {
			l.SeparateFromBackground(bg)
		}
	}
	return l, nil
}

// BBox is the union of the bounding boxes of all layers.
func (d *Document) BBox() image.Rectangle {
	var r image.Rectangle
	for _, l := range d.Layers {
		r = r.Union(l.Surface.BBox())
	}
	return r
}

// BlitTileInto composites tile (tx, ty) of the given mipmap level from
// layers, bottom first, over bg into dst. A nil bg starts from transparent.
func BlitTileInto(dst *pixops.Tile, tx, ty, level int, layers []*layer.Layer, bg layer.TileSource) {
	if bg != nil {
		bg.BlitTileInto(dst, tx, ty, level)
	} else {
		dst.Clear()
	}
	for _, l := range layers {
		l.Surface.CompositeTileOver(dst, tx, ty, level, l.EffectiveOpacity())
	}
}

// BlitTileInto composites all layers of the document over its background.
func (d *Document) BlitTileInto(dst *pixops.Tile, tx, ty, level int) {
	BlitTileInto(dst, tx, ty, level, d.Layers, d.background())
}

func (d *Document) background() layer.TileSource {
	if d.Background == nil {
		return nil
	}
	return d.Background
}

// BlitTileInto8 writes the flattened tile (tx, ty) as 8-bit pixels. With
// alpha the background is left out.
func (d *Document) BlitTileInto8(dst pixops.Tile8, hasAlpha bool, tx, ty, level int, cs pixops.Colorspace) {
	var t pixops.Tile
	var bg layer.TileSource
	if !hasAlpha {
		bg = d.background()
	}
	BlitTileInto(&t, tx, ty, level, d.Layers, bg)
	pixops.ConvertLinearToRGBA8(dst, &t, hasAlpha, cs)
}
