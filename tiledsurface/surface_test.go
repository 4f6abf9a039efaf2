package tiledsurface

import (
	"image"
	"image/color"
	"testing"

	"tilecanvas/internal/parallel"
	"tilecanvas/pixbuf"
	"tilecanvas/pixops"
)

func fill(s *Surface, tx, ty int, r, g, b, a uint16) {
	s.TileForWrite(tx, ty).Fill(r, g, b, a)
}

func TestClearIsIdempotent(t *testing.T) {
	s := New()
	fill(s, 0, 0, 1, 2, 3, 4)
	fill(s, -3, 7, 1, 2, 3, 4)
	s.SaveSnapshot()
	_ = s.Level(MaxMipmapLevel)

	for i := 0; i < 2; i++ {
		s.Clear()
		if got := s.Tiles(); len(got) != 0 {
			t.Fatalf("pass %d: tiles = %v, want none", i, got)
		}
		for level := 1; level <= MaxMipmapLevel; level++ {
			if n := s.Level(level).Len(); n != 0 {
				t.Errorf("pass %d: level %d has %d tiles", i, level, n)
			}
		}
	}
}

func TestBBox(t *testing.T) {
	s := New()
	if !s.BBox().Empty() {
		t.Errorf("empty surface bbox = %v", s.BBox())
	}
	fill(s, -1, 0, 0, 0, 0, 1)
	fill(s, 2, 3, 0, 0, 0, 1)
	if got, want := s.BBox(), image.Rect(-N, 0, 3*N, 4*N); got != want {
		t.Errorf("bbox = %v, want %v", got, want)
	}
}

func TestTilesSorted(t *testing.T) {
	s := New()
	for _, c := range []Coord{{X: 2, Y: 1}, {X: -1, Y: 1}, {X: 5, Y: -2}} {
		s.TileForWrite(c.X, c.Y)
	}
	want := []Coord{{X: 5, Y: -2}, {X: -1, Y: 1}, {X: 2, Y: 1}}
	got := s.Tiles()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tiles = %v, want %v", got, want)
		}
	}
}

func TestMipmapSolidColour(t *testing.T) {
	const r, g, b, a = 1000, 20000, 3, pixops.One
	s := New()
	for _, c := range []Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}} {
		fill(s, c.X, c.Y, r, g, b, a)
	}
	tile, ok := s.Level(1).Tile(0, 0)
	if !ok {
		t.Fatal("level 1 tile missing")
	}
	for y := 0; y < N; y++ {
		for x := 0; x < N; x++ {
			gr, gg, gb, ga := tile.At(x, y)
			if gr != r || gg != g || gb != b || ga != a {
				t.Fatalf("pixel (%d, %d) = %d %d %d %d", x, y, gr, gg, gb, ga)
			}
		}
	}
}

func TestMipmapQuarterPlacement(t *testing.T) {
	s := New()
	fill(s, -1, -1, pixops.One, 0, 0, pixops.One)

	l1 := s.Level(1)
	if got := l1.Tiles(); len(got) != 1 || got[0] != (Coord{X: -1, Y: -1}) {
		t.Fatalf("level 1 tiles = %v, want [{-1 -1}]", got)
	}
	tile, _ := l1.Tile(-1, -1)
	if _, _, _, a := tile.At(N-1, N-1); a != pixops.One {
		t.Errorf("bottom-right quarter alpha = %d, want %d", a, pixops.One)
	}
	if _, _, _, a := tile.At(0, 0); a != 0 {
		t.Errorf("top-left quarter alpha = %d, want 0", a)
	}
	if got := s.Level(MaxMipmapLevel).Tiles(); len(got) != 1 || got[0] != (Coord{X: -1, Y: -1}) {
		t.Errorf("level %d tiles = %v", MaxMipmapLevel, got)
	}
}

func TestMipmapFollowsEdits(t *testing.T) {
	s := New()
	fill(s, 0, 0, 0, 0, 0, pixops.One)
	if tile, _ := s.Level(2).Tile(0, 0); tile == nil {
		t.Fatal("level 2 tile missing")
	}

	fill(s, 0, 0, pixops.One, pixops.One, pixops.One, pixops.One)
	tile, _ := s.Level(2).Tile(0, 0)
	if r, _, _, _ := tile.At(0, 0); r != pixops.One {
		t.Errorf("level 2 not refreshed, r = %d", r)
	}

	s.RemoveTile(0, 0)
	for level := 1; level <= MaxMipmapLevel; level++ {
		if n := s.Level(level).Len(); n != 0 {
			t.Errorf("level %d keeps %d tiles after removal", level, n)
		}
	}
}

func TestParallelRegenerationMatchesSerial(t *testing.T) {
	pool := parallel.Start(4)
	defer pool.Wait(true)

	serial, par := New(), New()
	par.SetPool(pool)
	for ty := -5; ty < 7; ty++ {
		for tx := -3; tx < 9; tx++ {
			v := uint16((tx*31 + ty*17) & 0x3fff)
			fill(serial, tx, ty, v, v/2, v/3, pixops.One/2+v)
			fill(par, tx, ty, v, v/2, v/3, pixops.One/2+v)
		}
	}
	for level := 1; level <= MaxMipmapLevel; level++ {
		a, b := serial.Level(level), par.Level(level)
		if a.Len() != b.Len() {
			t.Fatalf("level %d: %d tiles serial, %d parallel", level, a.Len(), b.Len())
		}
		for _, c := range a.Tiles() {
			ta, _ := a.Tile(c.X, c.Y)
			tb, ok := b.Tile(c.X, c.Y)
			if !ok || *ta != *tb {
				t.Fatalf("level %d tile %v differs", level, c)
			}
		}
	}
}

func TestLevelClamps(t *testing.T) {
	s := New()
	if got := s.Level(99).MipmapLevel(); got != MaxMipmapLevel {
		t.Errorf("Level(99) = %d, want %d", got, MaxMipmapLevel)
	}
	if got := s.Level(-2).MipmapLevel(); got != 0 {
		t.Errorf("Level(-2) = %d, want 0", got)
	}
}

func TestBlitMissingTile(t *testing.T) {
	s := New()
	var dst pixops.Tile
	dst.Fill(1, 1, 1, 1)
	s.BlitTileInto(&dst, 3, 3, 0)
	if !dst.IsTransparent() {
		t.Error("missing tile not blitted as transparent")
	}

	d8 := pixops.NewTile8()
	d8.Pix[0] = 9
	s.BlitTileInto8(d8, true, 3, 3, 0, pixops.SRGB)
	if d8.Pix[0] != 0 || d8.Pix[3] != 0 {
		t.Errorf("8-bit blit of missing tile = %v", d8.Pix[:4])
	}
}

func TestCompositeTileOver(t *testing.T) {
	s := New()
	fill(s, 0, 0, pixops.One, 0, 0, pixops.One)
	var dst pixops.Tile
	s.CompositeTileOver(&dst, 0, 0, 0, 0)
	if !dst.IsTransparent() {
		t.Error("opacity 0 changed dst")
	}
	s.CompositeTileOver(&dst, 0, 0, 0, 1)
	if r, _, _, a := dst.At(5, 5); r != pixops.One || a != pixops.One {
		t.Errorf("got r=%d a=%d", r, a)
	}
}

func TestTranslate(t *testing.T) {
	s := New()
	fill(s, 0, 0, 0, 0, 0, pixops.One)
	_ = s.Level(1)
	s.Translate(3, -2)
	if got := s.Tiles(); len(got) != 1 || got[0] != (Coord{X: 3, Y: -2}) {
		t.Fatalf("tiles = %v", got)
	}
	if got := s.Level(1).Tiles(); len(got) != 1 || got[0] != (Coord{X: 1, Y: -1}) {
		t.Errorf("level 1 tiles = %v, want [{1 -1}]", got)
	}
}

func TestGetAlpha(t *testing.T) {
	s := New()
	fill(s, 0, 0, 0, 0, 0, pixops.One)
	tests := []struct {
		x, y, r int
		want    float64
	}{
		{10, 10, 2, 1},
		{-10, 10, 2, 0},
		{0, 10, 1, 2.0 / 3},
	}
	for _, tt := range tests {
		got := s.GetAlpha(tt.x, tt.y, tt.r)
		if d := got - tt.want; d > 1e-9 || d < -1e-9 {
			t.Errorf("GetAlpha(%d, %d, %d) = %v, want %v", tt.x, tt.y, tt.r, got, tt.want)
		}
	}
}

func TestLoadFromPixbuf(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, N+1, 1))
	img.SetNRGBA(N, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	p := pixbuf.FromImage(img, true)

	s := New()
	s.LoadFromPixbuf(p, pixops.SRGB)
	if got := s.Tiles(); len(got) != 1 || got[0] != (Coord{X: 1, Y: 0}) {
		t.Fatalf("tiles = %v, want [{1 0}]", got)
	}
	tile, _ := s.Tile(1, 0)
	if r, _, _, a := tile.At(0, 0); r != pixops.One || a != pixops.One {
		t.Errorf("pixel = r %d a %d", r, a)
	}
}
