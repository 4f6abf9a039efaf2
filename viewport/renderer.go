package viewport

import (
	"image"
	"math"

	"tilecanvas/background"
	"tilecanvas/document"
	"tilecanvas/internal/logx"
	"tilecanvas/layer"
	"tilecanvas/pixbuf"
	"tilecanvas/pixops"

	"github.com/paulmach/orb"
	"golang.org/x/image/draw"
)

// DefaultPixelize is the scale above which pixels are drawn as blocks
// instead of being interpolated.
const DefaultPixelize = 1.5

const N = pixops.TileSize

// Options select what a Renderer shows.
type Options struct {
	// CurrentLayerSolo shows the current layer alone over a neutral
	// background.
	CurrentLayerSolo bool
	// HideLayersAbove leaves out the layers above the current one.
	HideLayersAbove bool
	// Overlay is drawn directly above the current layer.
	Overlay *layer.Layer
	// Pixelize overrides DefaultPixelize when positive.
	Pixelize   float64
	Colorspace pixops.Colorspace
}

// Renderer draws a document into device pixels.
type Renderer struct {
	Doc *document.Document
	Options

	neutral *background.Background
}

// Stats describes one Repaint call.
type Stats struct {
	Level int
	// candidate tiles covering the model area
	Candidates int
	// tiles that survived culling, in rendering order
	Rendered []pixops.Coord
}

// NewRenderer returns a renderer for doc with default options.
func NewRenderer(doc *document.Document) *Renderer {
	return &Renderer{Doc: doc}
}

// Close releases the neutral background, if one was made.
func (r *Renderer) Close() {
	if r.neutral != nil {
		r.neutral.Close()
		r.neutral = nil
	}
}

// Layers returns the layers to draw, bottom first, and the background
// below them.
func (r *Renderer) Layers() ([]*layer.Layer, layer.TileSource) {
	d := r.Doc
	if r.CurrentLayerSolo {
		if r.neutral == nil {
			r.neutral = background.FromRGB(128, 128, 128)
		}
		out := []*layer.Layer{d.Layer()}
		if r.Overlay != nil {
			out = append(out, r.Overlay)
		}
		return out, r.neutral
	}

	top := len(d.Layers)
	if r.HideLayersAbove {
		top = d.Current + 1
	}
	var out []*layer.Layer
	for i, l := range d.Layers[:top] {
		if l.Visible {
			out = append(out, l)
		}
		if i == d.Current && r.Overlay != nil {
			out = append(out, r.Overlay)
		}
	}
	var bg layer.TileSource
	if d.Background != nil {
		bg = d.Background
	}
	return out, bg
}

func (r *Renderer) pixelize() float64 {
	if r.Pixelize > 0 {
		return r.Pixelize
	}
	return DefaultPixelize
}

func overlapsAny(b image.Rectangle, clip []image.Rectangle) bool {
	for _, c := range clip {
		if b.Overlaps(c) {
			return true
		}
	}
	return false
}

// Repaint redraws deviceBBox of dst, limited to the clip rectangles (all
// of deviceBBox when clip is empty), for the view t.
func (r *Renderer) Repaint(dst *image.RGBA, deviceBBox image.Rectangle, clip []image.Rectangle, t Transform) Stats {
	deviceBBox = deviceBBox.Intersect(dst.Bounds())
	var rects []image.Rectangle
	if len(clip) == 0 {
		rects = []image.Rectangle{deviceBBox}
	} else {
		for _, c := range clip {
			if c = c.Intersect(deviceBBox); !c.Empty() {
				rects = append(rects, c)
			}
		}
	}

	level := MipmapLevel(t.Scale)
	stats := Stats{Level: level}
	if len(rects) == 0 {
		return stats
	}

	m := t.LevelMatrix(level)
	inv := invert(m)
	translationOnly := t.IsTranslationOnly()

	x0, y0 := float64(deviceBBox.Min.X), float64(deviceBBox.Min.Y)
	x1, y1 := float64(deviceBBox.Max.X), float64(deviceBBox.Max.Y)
	mb := deviceBound(inv, orb.Point{x0, y0}, orb.Point{x1, y0}, orb.Point{x0, y1}, orb.Point{x1, y1})
	if !translationOnly {
		mb = mb.Pad(1)
	}
	model := outerRect(mb)
	surface := pixbuf.New(model.Min.X, model.Min.Y, model.Dx()+1, model.Dy()+1, true)

	layers, bg := r.Layers()
	var scratch pixops.Tile
	for _, c := range surface.Tiles() {
		stats.Candidates++
		var b image.Rectangle
		if translationOnly {
			// same rounding as the blit below
			x, y := apply(m, float64(c.X*N), float64(c.Y*N))
			bx, by := int(math.Round(x)), int(math.Round(y))
			b = image.Rect(bx, by, bx+N, by+N)
		} else {
			// one pixel guard band for interpolation
			left, top := float64(c.X*N-1), float64(c.Y*N-1)
			right, bottom := float64((c.X+1)*N), float64((c.Y+1)*N)
			b = outerRect(deviceBound(m,
				orb.Point{left, top}, orb.Point{right, top},
				orb.Point{left, bottom}, orb.Point{right, bottom}))
		}
		if !overlapsAny(b, rects) {
			continue
		}
		document.BlitTileInto(&scratch, c.X, c.Y, level, layers, bg)
		dst8, _ := surface.TileMemory(c.X, c.Y)
		pixops.ConvertLinearToRGBA8(dst8, &scratch, true, r.Colorspace)
		stats.Rendered = append(stats.Rendered, c)
	}

	src := surface.Image()
	if translationOnly {
		x, y := apply(m, float64(surface.X), float64(surface.Y))
		off := image.Pt(int(math.Round(x))-surface.X, int(math.Round(y))-surface.Y)
		for _, c := range rects {
			dr := src.Bounds().Add(off).Intersect(c)
			if dr.Empty() {
				continue
			}
			draw.Draw(dst, dr, src, dr.Min.Sub(off), draw.Src)
		}
	} else {
		var interp draw.Interpolator = draw.ApproxBiLinear
		if t.Scale > r.pixelize() {
			interp = draw.NearestNeighbor
		}
		for _, c := range rects {
			interp.Transform(dst.SubImage(c).(*image.RGBA), m, src, src.Bounds(), draw.Src, nil)
		}
	}

	logx.WithComponent("viewport").Debugf("repaint %v level %d: %d of %d tiles",
		deviceBBox, level, len(stats.Rendered), stats.Candidates)
	return stats
}
