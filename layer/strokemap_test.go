package layer

import (
	"testing"

	"tilecanvas/pixops"
)

func TestStrokeInfoAt(t *testing.T) {
	l := New("ink")
	l.Surface.TileForWrite(4, 4).Fill(0, 0, 0, pixops.One)

	before := l.SaveSnapshot()
	tile := l.Surface.TileForWrite(0, -1)
	for x := 0; x < 8; x++ {
		tile.Set(x, 3, 0, 0, pixops.One, pixops.One)
	}
	l.AddStroke("round", before)

	si := l.StrokeInfoAt(2, 3-pixops.TileSize)
	if si == nil || si.BrushSettings != "round" {
		t.Fatalf("stroke at painted pixel = %v", si)
	}
	if si.Tiles() != 1 {
		t.Errorf("stroke touches %d tiles, want 1", si.Tiles())
	}
	if l.StrokeInfoAt(20, 3-pixops.TileSize) != nil {
		t.Error("stroke found at unpainted pixel")
	}
	if l.StrokeInfoAt(4*pixops.TileSize, 4*pixops.TileSize) != nil {
		t.Error("stroke found on a tile it did not write")
	}
}

func TestTranslateMovesStrokes(t *testing.T) {
	const N = pixops.TileSize
	l := New("ink")
	before := l.SaveSnapshot()
	l.Surface.TileForWrite(0, 0).Set(5, 5, pixops.One, 0, 0, pixops.One)
	l.AddStroke("round", before)

	l.Translate(2, -1)
	if l.StrokeInfoAt(5, 5) != nil {
		t.Error("stroke still found at its old position")
	}
	if si := l.StrokeInfoAt(2*N+5, 5-N); si == nil || si.BrushSettings != "round" {
		t.Errorf("stroke at new position = %v", si)
	}
	if _, ok := l.Surface.Tile(2, -1); !ok {
		t.Error("pixels not moved")
	}
}
