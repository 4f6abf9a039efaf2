package viewport

import (
	"image"
	"image/color"
	"math"
	"slices"
	"testing"

	"tilecanvas/background"
	"tilecanvas/document"
	"tilecanvas/layer"
	"tilecanvas/pixops"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMipmapLevel(t *testing.T) {
	tests := []struct {
		scale float64
		want  int
	}{
		{5, 0},
		{1, 0},
		{0.5, 1},
		{0.3, 2},
		{0.2, 3},
		{0.01, 4},
		{0, 4},
	}
	for _, tt := range tests {
		if got := MipmapLevel(tt.scale); got != tt.want {
			t.Errorf("MipmapLevel(%v) = %d, want %d", tt.scale, got, tt.want)
		}
	}
}

func TestTransformRoundTrip(t *testing.T) {
	tr := NewTransform()
	tr.TranslationX, tr.TranslationY = 30, -12
	tr.Rotation = 0.7
	tr.Scale = 1.7
	tr.Mirrored = true
	for _, p := range [][2]float64{{0, 0}, {13.5, -200}, {1e4, 3}} {
		dx, dy := tr.ModelToDevice(p[0], p[1])
		mx, my := tr.DeviceToModel(dx, dy)
		if !near(mx, p[0]) || !near(my, p[1]) {
			t.Errorf("%v -> (%v, %v) -> (%v, %v)", p, dx, dy, mx, my)
		}
	}
}

func TestMirrorFlipsHorizontally(t *testing.T) {
	tr := NewTransform()
	tr.Mirrored = true
	if x, y := tr.ModelToDevice(10, 4); x != -10 || y != 4 {
		t.Errorf("mirrored (10, 4) = (%v, %v)", x, y)
	}
}

func TestZoomKeepsPointUnderCursor(t *testing.T) {
	tr := NewTransform()
	tr.TranslationX = 7
	mx, my := tr.DeviceToModel(100, 50)
	tr.Zoom(2, 100, 50)
	if tr.Scale != 2 {
		t.Fatalf("scale = %v", tr.Scale)
	}
	if x, y := tr.ModelToDevice(mx, my); !near(x, 100) || !near(y, 50) {
		t.Errorf("point moved to (%v, %v)", x, y)
	}

	tr.SetZoom(100, 0, 0)
	if tr.Scale != ZoomMax {
		t.Errorf("zoom not clamped: %v", tr.Scale)
	}
	tr.SetZoom(0.001, 0, 0)
	if tr.Scale != ZoomMin {
		t.Errorf("zoom not clamped: %v", tr.Scale)
	}
}

func TestRotationWraps(t *testing.T) {
	tr := NewTransform()
	tr.Rotate(-math.Pi/2, 0, 0)
	if !near(tr.Rotation, 3*math.Pi/2) {
		t.Errorf("rotation = %v", tr.Rotation)
	}
	tr.Rotate(math.Pi/2, 0, 0)
	if tr.Rotation != 0 && !near(tr.Rotation, 2*math.Pi) {
		t.Errorf("rotation = %v", tr.Rotation)
	}
}

func TestScrollCarriesSubpixels(t *testing.T) {
	tr := NewTransform()
	tr.Scroll(0.4, 0)
	if tr.TranslationX != 0 {
		t.Fatalf("first scroll translation = %v", tr.TranslationX)
	}
	tr.Scroll(0.4, 0)
	if tr.TranslationX != -1 {
		t.Errorf("second scroll translation = %v, want -1", tr.TranslationX)
	}
}

func TestRecenterOn(t *testing.T) {
	tr := NewTransform()
	tr.Scale = 2
	tr.RecenterOn(image.Rect(0, 0, 100, 50), 400, 300)
	if x, y := tr.ModelToDevice(50, 25); !near(x, 200) || !near(y, 150) {
		t.Errorf("centre shown at (%v, %v)", x, y)
	}
}

func TestCanvasModifiedArea(t *testing.T) {
	tr := NewTransform()
	tr.TranslationX, tr.TranslationY = 10, 5
	if got, want := CanvasModifiedArea(image.Rect(0, 0, 64, 64), tr), image.Rect(10, 5, 74, 69); got != want {
		t.Errorf("translated area = %v, want %v", got, want)
	}

	tr = NewTransform()
	tr.Scale = 2
	if got, want := CanvasModifiedArea(image.Rect(0, 0, 64, 64), tr), image.Rect(0, 0, 128, 128); got != want {
		t.Errorf("scaled area = %v, want %v", got, want)
	}
	if got := CanvasModifiedArea(image.Rectangle{}, tr); !got.Empty() {
		t.Errorf("empty area = %v", got)
	}
}

// newDoc returns a white document whose single layer has opaque red tiles
// at the given coordinates.
func newDoc(t *testing.T, tiles ...pixops.Coord) *document.Document {
	d := document.New(background.FromRGB(255, 255, 255))
	t.Cleanup(d.Background.Close)
	for _, c := range tiles {
		d.Layer().Surface.TileForWrite(c.X, c.Y).Fill(pixops.One, 0, 0, pixops.One)
	}
	return d
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func checkPixels(t *testing.T, dst *image.RGBA, want map[image.Point]color.RGBA) {
	t.Helper()
	for p, c := range want {
		if got := dst.RGBAAt(p.X, p.Y); got != c {
			t.Errorf("pixel %v = %v, want %v", p, got, c)
		}
	}
}

func TestRepaintTranslated(t *testing.T) {
	r := NewRenderer(newDoc(t, pixops.Coord{}))
	r.Colorspace = pixops.Linear
	tr := NewTransform()
	tr.TranslationX, tr.TranslationY = 10, 5

	dst := image.NewRGBA(image.Rect(0, 0, 100, 80))
	stats := r.Repaint(dst, dst.Bounds(), nil, tr)
	if stats.Level != 0 || len(stats.Rendered) == 0 {
		t.Fatalf("stats = %+v", stats)
	}
	checkPixels(t, dst, map[image.Point]color.RGBA{
		{10, 5}:  red,
		{73, 68}: red,
		{74, 5}:  white,
		{9, 5}:   white,
		{0, 0}:   white,
		{99, 79}: white,
	})
}

func TestRepaintSubpixelTranslation(t *testing.T) {
	r := NewRenderer(newDoc(t, pixops.Coord{}))
	r.Colorspace = pixops.Linear
	tr := NewTransform()
	tr.TranslationX = 0.6

	// tile 0 lands on [1, 65) once the offset is rounded
	dst := image.NewRGBA(image.Rect(0, 0, 100, 10))
	clip := []image.Rectangle{image.Rect(64, 0, 65, 1)}
	stats := r.Repaint(dst, dst.Bounds(), clip, tr)
	if !slices.Contains(stats.Rendered, pixops.Coord{}) {
		t.Errorf("tile 0 culled: %+v", stats)
	}
	if slices.Contains(stats.Rendered, pixops.Coord{X: 1}) {
		t.Errorf("tile 1 rendered: %+v", stats)
	}
	checkPixels(t, dst, map[image.Point]color.RGBA{
		{64, 0}: red,
		{63, 0}: {},
	})
}

func TestRepaintCullsAgainstClip(t *testing.T) {
	r := NewRenderer(newDoc(t))
	tr := NewTransform()
	tr.TranslationX, tr.TranslationY = 13, -7

	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	clip := []image.Rectangle{
		image.Rect(20, 30, 120, 50),
		image.Rect(20, 50, 40, 130),
	}
	stats := r.Repaint(dst, image.Rect(20, 30, 120, 130), clip, tr)

	for ty := -2; ty <= 4; ty++ {
		for tx := -2; tx <= 4; tx++ {
			c := pixops.Coord{X: tx, Y: ty}
			dev := image.Rect(tx*N+13, ty*N-7, tx*N+13+N, ty*N-7+N)
			want := dev.Overlaps(clip[0]) || dev.Overlaps(clip[1])
			if got := slices.Contains(stats.Rendered, c); got != want {
				t.Errorf("tile %v rendered = %v, want %v", c, got, want)
			}
		}
	}
	if len(stats.Rendered) >= stats.Candidates {
		t.Errorf("nothing culled: %d of %d", len(stats.Rendered), stats.Candidates)
	}

	// outside the clip the destination is untouched
	if got := dst.RGBAAt(100, 100); got != (color.RGBA{}) {
		t.Errorf("pixel outside clip = %v", got)
	}
	if got := dst.RGBAAt(30, 100); got != white {
		t.Errorf("pixel inside clip = %v", got)
	}
}

func TestRepaintPixelizedZoom(t *testing.T) {
	r := NewRenderer(newDoc(t, pixops.Coord{}))
	r.Colorspace = pixops.Linear
	tr := NewTransform()
	tr.Scale = 2

	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	r.Repaint(dst, dst.Bounds(), nil, tr)
	checkPixels(t, dst, map[image.Point]color.RGBA{
		{1, 1}:     red,
		{127, 127}: red,
		{128, 10}:  white,
		{140, 140}: white,
	})
}

func TestRepaintUsesMipmap(t *testing.T) {
	r := NewRenderer(newDoc(t,
		pixops.Coord{X: 0, Y: 0}, pixops.Coord{X: 1, Y: 0},
		pixops.Coord{X: 0, Y: 1}, pixops.Coord{X: 1, Y: 1}))
	r.Colorspace = pixops.Linear
	tr := NewTransform()
	tr.Scale = 0.5

	dst := image.NewRGBA(image.Rect(0, 0, 120, 120))
	stats := r.Repaint(dst, dst.Bounds(), nil, tr)
	if stats.Level != 1 {
		t.Fatalf("level = %d, want 1", stats.Level)
	}
	for _, p := range []image.Point{{10, 10}, {32, 32}, {60, 5}} {
		if c := dst.RGBAAt(p.X, p.Y); c.R < 250 || c.G > 5 || c.A != 255 {
			t.Errorf("pixel %v = %v, want red", p, c)
		}
	}
	for _, p := range []image.Point{{80, 80}, {100, 10}} {
		if c := dst.RGBAAt(p.X, p.Y); c.G < 250 || c.B < 250 {
			t.Errorf("pixel %v = %v, want white", p, c)
		}
	}
}

func TestLayerSelection(t *testing.T) {
	d := document.New(nil)
	t.Cleanup(d.Background.Close)
	bottom := d.Layer()
	mid, _ := d.AddLayer(1, "mid")
	top, _ := d.AddLayer(2, "top")
	hidden, _ := d.AddLayer(3, "hidden")
	hidden.Visible = false
	d.SelectLayer(1)

	overlay := layer.New("overlay")
	r := NewRenderer(d)
	defer r.Close()

	layers, bg := r.Layers()
	if !slices.Equal(layers, []*layer.Layer{bottom, mid, top}) || bg == nil {
		t.Errorf("default selection = %v", names(layers))
	}

	r.Overlay = overlay
	layers, _ = r.Layers()
	if !slices.Equal(layers, []*layer.Layer{bottom, mid, overlay, top}) {
		t.Errorf("with overlay = %v", names(layers))
	}

	r.HideLayersAbove = true
	layers, _ = r.Layers()
	if !slices.Equal(layers, []*layer.Layer{bottom, mid, overlay}) {
		t.Errorf("hiding layers above = %v", names(layers))
	}

	r.CurrentLayerSolo = true
	layers, bg = r.Layers()
	if !slices.Equal(layers, []*layer.Layer{mid, overlay}) {
		t.Errorf("solo = %v", names(layers))
	}
	if bg == nil || bg == layer.TileSource(d.Background) {
		t.Error("solo should draw over a neutral background")
	}
}

func names(ls []*layer.Layer) []string {
	var out []string
	for _, l := range ls {
		out = append(out, l.Name)
	}
	return out
}
