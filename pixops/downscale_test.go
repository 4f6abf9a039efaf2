package pixops

import "testing"

func TestDownscaleSolidColourIsInvariant(t *testing.T) {
	for _, v := range []uint16{0, 1, 1001, 12345, One} {
		var src, dst Tile
		src.Fill(v, v/2, v/3, v)
		children := [4]*Tile{&src, &src, &src, &src}
		if !DownscaleInto(&dst, children) {
			t.Fatal("DownscaleInto reported no children")
		}
		if dst != src {
			t.Errorf("solid %d: downscaled tile differs", v)
		}
	}
}

func TestDownscaleAverages(t *testing.T) {
	var src, dst Tile
	src.Set(0, 0, 4, 4, 4, 4)
	src.Set(1, 0, 8, 8, 8, 8)
	src.Set(0, 1, 0, 0, 0, 0)
	src.Set(1, 1, 4, 4, 4, 4)
	Downscale(&dst, &src, TileSize/2, 0)
	if r, _, _, _ := dst.At(TileSize/2, 0); r != 4 {
		t.Errorf("got %d, want 4", r)
	}
	if r, _, _, _ := dst.At(0, 0); r != 0 {
		t.Errorf("pixel outside the target quarter was written: %d", r)
	}
}

func TestDownscaleIntoMissingChildren(t *testing.T) {
	var child, dst Tile
	child.Fill(One, One, One, One)
	dst.Fill(7, 7, 7, 7)

	if DownscaleInto(&dst, [4]*Tile{}) {
		t.Error("no children should report false")
	}
	DownscaleInto(&dst, [4]*Tile{nil, nil, nil, &child})
	if _, _, _, a := dst.At(0, 0); a != 0 {
		t.Errorf("missing child quarter alpha = %d, want 0", a)
	}
	if _, _, _, a := dst.At(TileSize-1, TileSize-1); a != One {
		t.Errorf("present child quarter alpha = %d, want %d", a, One)
	}
}

func TestCoordParentChildren(t *testing.T) {
	tests := []struct {
		c      Coord
		parent Coord
	}{
		{Coord{0, 0}, Coord{0, 0}},
		{Coord{3, 2}, Coord{1, 1}},
		{Coord{-1, -1}, Coord{-1, -1}},
		{Coord{-3, 4}, Coord{-2, 2}},
	}
	for _, tt := range tests {
		if got := tt.c.Parent(); got != tt.parent {
			t.Errorf("%v.Parent() = %v, want %v", tt.c, got, tt.parent)
		}
		found := false
		for _, ch := range tt.parent.Children() {
			if ch == tt.c {
				found = true
			}
		}
		if !found {
			t.Errorf("%v is not a child of %v", tt.c, tt.parent)
		}
	}
}

func TestTileOf(t *testing.T) {
	tests := []struct{ p, want int }{
		{0, 0}, {63, 0}, {64, 1}, {-1, -1}, {-64, -1}, {-65, -2},
	}
	for _, tt := range tests {
		if got := TileOf(tt.p); got != tt.want {
			t.Errorf("TileOf(%d) = %d, want %d", tt.p, got, tt.want)
		}
	}
}
