package tiledsurface

import (
	"fmt"
	"sync/atomic"

	"tilecanvas/internal/logx"
	"tilecanvas/pixops"

	"github.com/teris-io/shortid"
)

var snapshotSeq atomic.Uint64

// Snapshot is an immutable copy of the level 0 tiles of a surface. Tiles
// are shared with the surface until either side writes them.
type Snapshot struct {
	ID    string
	tiles map[Coord]*pixops.Tile
}

// Len is the number of tiles held by the snapshot.
func (sn *Snapshot) Len() int {
	return len(sn.tiles)
}

func newSnapshotID() string {
	id, err := shortid.Generate()
	if err != nil {
		logx.WithComponent("tiledsurface").Warnf("generate snapshot id: %s", err)
		return fmt.Sprintf("snapshot-%d", snapshotSeq.Add(1))
	}
	return id
}

// SaveSnapshot captures the current tiles. It does not copy pixel data.
func (s *Surface) SaveSnapshot() *Snapshot {
	sn := &Snapshot{
		ID:    newSnapshotID(),
		tiles: make(map[Coord]*pixops.Tile, len(s.tiles)),
	}
	for c, t := range s.tiles {
		sn.tiles[c] = t
		s.shared[c] = struct{}{}
	}
	return sn
}

// LoadSnapshot replaces the tiles of s with the ones captured in sn.
func (s *Surface) LoadSnapshot(sn *Snapshot) {
	for c := range s.tiles {
		s.markDirty(c)
	}
	s.tiles = make(map[Coord]*pixops.Tile, len(sn.tiles))
	s.shared = make(set, len(sn.tiles))
	for c, t := range sn.tiles {
		s.tiles[c] = t
		s.shared[c] = struct{}{}
		s.markDirty(c)
	}
}

// Copy returns an independent surface with the same pixels. No pixel data
// is copied until one of the two surfaces is written.
func (s *Surface) Copy() *Surface {
	c := New()
	c.SetPool(s.pool)
	c.LoadSnapshot(s.SaveSnapshot())
	return c
}

// Tile returns the captured tile at c. It must not be modified.
func (sn *Snapshot) Tile(c Coord) (*pixops.Tile, bool) {
	t, ok := sn.tiles[c]
	return t, ok
}

// Coords lists the captured tile coordinates, sorted by row then column.
func (sn *Snapshot) Coords() []Coord {
	out := make([]Coord, 0, len(sn.tiles))
	for c := range sn.tiles {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}
