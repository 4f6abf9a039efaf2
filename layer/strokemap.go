package layer

import (
	"tilecanvas/pixops"
	"tilecanvas/tiledsurface"
)

const maskSize = pixops.TileSize * pixops.TileSize

// StrokeInfo remembers which pixels a stroke visibly changed, so a picker
// can find the stroke, and its brush, under the cursor.
type StrokeInfo struct {
	BrushSettings string
	masks         map[pixops.Coord][]uint8
}

// NewStrokeInfo compares the surface before and after a stroke. Tiles the
// stroke did not write are still shared between both snapshots and are
// skipped without comparing pixels.
func NewStrokeInfo(brushSettings string, before, after *tiledsurface.Snapshot) *StrokeInfo {
	var empty pixops.Tile
	si := &StrokeInfo{
		BrushSettings: brushSettings,
		masks:         make(map[pixops.Coord][]uint8),
	}
	for _, c := range after.Coords() {
		a, _ := after.Tile(c)
		b, ok := before.Tile(c)
		if ok && a == b {
			continue
		}
		if !ok {
			b = &empty
		}
		mask := make([]uint8, maskSize)
		pixops.PerceptualChange(b, a, mask)
		for _, m := range mask {
			if m != 0 {
				si.masks[c] = mask
				break
			}
		}
	}
	return si
}

// Tiles is the number of tiles the stroke touched.
func (si *StrokeInfo) Tiles() int {
	return len(si.masks)
}

// TouchesPixel reports whether the stroke visibly changed pixel (x, y).
func (si *StrokeInfo) TouchesPixel(x, y int) bool {
	c := pixops.CoordOf(x, y)
	mask, ok := si.masks[c]
	if !ok {
		return false
	}
	return mask[(y-c.Y*pixops.TileSize)*pixops.TileSize+x-c.X*pixops.TileSize] != 0
}

// AddStroke records a stroke painted since before was taken.
func (l *Layer) AddStroke(brushSettings string, before *Snapshot) {
	after := l.Surface.SaveSnapshot()
	l.Strokes = append(l.Strokes, NewStrokeInfo(brushSettings, before.surface, after))
}

// StrokeInfoAt returns the topmost stroke covering pixel (x, y), or nil.
func (l *Layer) StrokeInfoAt(x, y int) *StrokeInfo {
	for i := len(l.Strokes) - 1; i >= 0; i-- {
		if l.Strokes[i].TouchesPixel(x, y) {
			return l.Strokes[i]
		}
	}
	return nil
}

func (si *StrokeInfo) translate(dtx, dty int) {
	masks := make(map[pixops.Coord][]uint8, len(si.masks))
	for c, m := range si.masks {
		masks[pixops.Coord{X: c.X + dtx, Y: c.Y + dty}] = m
	}
	si.masks = masks
}

// Translate moves the layer by whole tiles, stroke map included.
func (l *Layer) Translate(dtx, dty int) {
	l.Surface.Translate(dtx, dty)
	for _, si := range l.Strokes {
		si.translate(dtx, dty)
	}
}
