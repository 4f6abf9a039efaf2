package pixbuf

import (
	"image"
	"image/color"
	"testing"

	"tilecanvas/pixops"
)

func TestNewEnlargesToTiles(t *testing.T) {
	tests := []struct {
		name          string
		x, y, w, h    int
		enlarged      image.Rectangle
		wantTileCount int
	}{
		{"aligned", 0, 0, N, N, image.Rect(0, 0, N, N), 1},
		{"inside one tile", 3, 5, 10, 10, image.Rect(0, 0, N, N), 1},
		{"straddling", N - 1, N - 1, 2, 2, image.Rect(0, 0, 2*N, 2*N), 4},
		{"negative", -10, -N - 1, 20, 2, image.Rect(-N, -2*N, N, 0), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.x, tt.y, tt.w, tt.h, true)
			if got := s.EnlargedBounds(); got != tt.enlarged {
				t.Errorf("enlarged = %v, want %v", got, tt.enlarged)
			}
			if got := len(s.Tiles()); got != tt.wantTileCount {
				t.Errorf("tiles = %d, want %d", got, tt.wantTileCount)
			}
			if got := s.Image().Bounds(); got != image.Rect(tt.x, tt.y, tt.x+tt.w, tt.y+tt.h) {
				t.Errorf("view = %v", got)
			}
		})
	}
}

func TestTileMemoryAliasesImage(t *testing.T) {
	s := New(-5, -5, 100, 100, true)
	tm, ok := s.TileMemory(0, 0)
	if !ok {
		t.Fatal("tile (0, 0) missing")
	}
	o := tm.PixOffset(1, 2)
	tm.Pix[o], tm.Pix[o+3] = 200, 255

	got := s.Image().NRGBAAt(1, 2)
	if got.R != 200 || got.A != 255 {
		t.Errorf("image pixel = %v, want R=200 A=255", got)
	}
	if _, ok := s.TileMemory(5, 5); ok {
		t.Error("tile outside the surface reported present")
	}
}

func TestFromImageDropsTransparentTiles(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2*N, N))
	img.SetNRGBA(N+3, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	s := FromImage(img, true)
	if got := s.Tiles(); len(got) != 1 || got[0] != (pixops.Coord{X: 1, Y: 0}) {
		t.Errorf("tiles = %v, want [{1 0}]", got)
	}
}

func TestFromImageWithoutAlphaIsOpaque(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, N, N))
	s := FromImage(img, false)
	if a := s.Image().NRGBAAt(7, 7).A; a != 255 {
		t.Errorf("alpha = %d, want 255", a)
	}
}

func TestFromRGB(t *testing.T) {
	data := make([]uint8, 3*N*N)
	for i := range data {
		data[i] = 128
	}
	s, err := FromRGB(data, N, N, 3)
	if err != nil {
		t.Fatal(err)
	}
	var lin pixops.Tile
	if !s.BlitTileInto(&lin, 0, 0, pixops.Linear) {
		t.Fatal("tile missing")
	}
	r, _, _, a := lin.At(0, 0)
	if a != pixops.One || r != uint16((128*pixops.One+127)/255) {
		t.Errorf("got r=%d a=%d", r, a)
	}
	if got := s.Bytes(3); len(got) != len(data) || got[0] != 128 {
		t.Errorf("Bytes(3) did not round trip")
	}

	if _, err := FromRGB(data, N, N, 2); err == nil {
		t.Error("expected error for 2 channels")
	}
	if _, err := FromRGB(data[:10], N, N, 3); err == nil {
		t.Error("expected error for short buffer")
	}
}

type solidSource struct {
	calls int
}

func (s *solidSource) BlitTileInto8(dst pixops.Tile8, alpha bool, tx, ty, level int, cs pixops.Colorspace) {
	s.calls++
	var t pixops.Tile
	t.Fill(pixops.One, 0, 0, pixops.One)
	pixops.ConvertLinearToRGBA8(dst, &t, alpha, cs)
}

func (s *solidSource) BBox() image.Rectangle { return image.Rect(0, 0, 2*N, N) }

func TestRender(t *testing.T) {
	src := &solidSource{}
	feedbacks := 0
	s, err := Render(src, image.Rectangle{}, true, 0, pixops.SRGB, func() error {
		feedbacks++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("blits = %d, want 2", src.calls)
	}
	if feedbacks != 1 {
		t.Errorf("feedback calls = %d, want 1", feedbacks)
	}
	if got := s.Image().NRGBAAt(N+1, 1); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
}
