// Package tiledsurface is the sparse tile store behind layers, together with
// its mipmap pyramid.
//
// A Surface maps tile coordinates to tiles. An absent tile is transparent.
// Every surface owns a chain of MaxMipmapLevel half resolution surfaces
// that are brought up to date lazily, the first time a coarser level is
// read after level 0 changed.
package tiledsurface

import (
	"cmp"
	"image"
	"slices"

	"tilecanvas/internal/logx"
	"tilecanvas/internal/parallel"
	"tilecanvas/pixbuf"
	"tilecanvas/pixops"
)

// MaxMipmapLevel is the coarsest mipmap level kept for a surface.
const MaxMipmapLevel = 4

// N is the tile edge length in pixels.
const N = pixops.TileSize

type Coord = pixops.Coord

// transparent is read only.
var transparent pixops.Tile

type set map[Coord]struct{}

// Surface is one level of a tile pyramid. Only the level 0 surface
// returned by New accepts writes.
type Surface struct {
	tiles map[Coord]*pixops.Tile
	// tiles also referenced by a snapshot; cloned before the next write
	shared set
	// coordinates changed since the next level was last refreshed
	dirty set

	mipmapLevel int
	mipmap      *Surface
	pool        *parallel.Pool
}

// New creates an empty surface and its mipmap chain.
func New() *Surface {
	return newLevel(0)
}

func newLevel(level int) *Surface {
	s := &Surface{
		tiles:       make(map[Coord]*pixops.Tile),
		shared:      make(set),
		dirty:       make(set),
		mipmapLevel: level,
	}
	if level < MaxMipmapLevel {
		s.mipmap = newLevel(level + 1)
	}
	return s
}

// SetPool makes mipmap regeneration spread over the workers of p. A nil
// pool regenerates on the calling goroutine.
func (s *Surface) SetPool(p *parallel.Pool) {
	for l := s; l != nil; l = l.mipmap {
		l.pool = p
	}
}

// MipmapLevel is the level of s in its pyramid.
func (s *Surface) MipmapLevel() int {
	return s.mipmapLevel
}

// Tile returns the tile at (tx, ty) for reading. The tile must not be
// modified or kept across a call that writes to s.
func (s *Surface) Tile(tx, ty int) (*pixops.Tile, bool) {
	t, ok := s.tiles[Coord{X: tx, Y: ty}]
	return t, ok
}

// TileForWrite returns the tile at (tx, ty) for writing, allocating a
// transparent one if needed. A tile still shared with a snapshot is copied
// first. The coarser levels are marked stale.
func (s *Surface) TileForWrite(tx, ty int) *pixops.Tile {
	c := Coord{X: tx, Y: ty}
	t, ok := s.tiles[c]
	switch {
	case !ok:
		t = new(pixops.Tile)
		s.tiles[c] = t
	case hasKey(s.shared, c):
		t = t.Clone()
		s.tiles[c] = t
		delete(s.shared, c)
	}
	s.markDirty(c)
	return t
}

// RemoveTile drops the tile at (tx, ty).
func (s *Surface) RemoveTile(tx, ty int) {
	c := Coord{X: tx, Y: ty}
	if _, ok := s.tiles[c]; !ok {
		return
	}
	delete(s.tiles, c)
	delete(s.shared, c)
	s.markDirty(c)
}

func (s *Surface) markDirty(c Coord) {
	if s.mipmap != nil {
		s.dirty[c] = struct{}{}
	}
}

func hasKey(m set, c Coord) bool {
	_, ok := m[c]
	return ok
}

// Tiles lists the present tile coordinates, sorted by row then column.
func (s *Surface) Tiles() []Coord {
	out := make([]Coord, 0, len(s.tiles))
	for c := range s.tiles {
		out = append(out, c)
	}
	sortCoords(out)
	return out
}

func sortCoords(cs []Coord) {
	slices.SortFunc(cs, func(a, b Coord) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
}

// Len is the number of present tiles.
func (s *Surface) Len() int {
	return len(s.tiles)
}

// BBox is the pixel rectangle covering every present tile, empty if there
// are none.
func (s *Surface) BBox() image.Rectangle {
	var r image.Rectangle
	for c := range s.tiles {
		r = r.Union(image.Rect(c.X*N, c.Y*N, (c.X+1)*N, (c.Y+1)*N))
	}
	return r
}

// Clear drops every tile on every level.
func (s *Surface) Clear() {
	for l := s; l != nil; l = l.mipmap {
		l.tiles = make(map[Coord]*pixops.Tile)
		l.shared = make(set)
		l.dirty = make(set)
	}
}

// Level returns the surface of the given mipmap level, refreshing stale
// tiles first. Out of range levels are clamped. The returned surface is
// for reading only.
func (s *Surface) Level(level int) *Surface {
	if level > MaxMipmapLevel {
		logx.WithComponent("tiledsurface").Warnf("mipmap level %d clamped to %d", level, MaxMipmapLevel)
	}
	level = clampLevel(level)
	l := s
	for l.mipmapLevel < level && l.mipmap != nil {
		l.refreshMipmap()
		l = l.mipmap
	}
	return l
}

func clampLevel(level int) int {
	return max(0, min(level, MaxMipmapLevel))
}

// refreshMipmap rebuilds the parents of the dirty tiles of s in the next
// level. The parents are computed from s without touching either map,
// then stored one by one.
func (s *Surface) refreshMipmap() {
	if s.mipmap == nil || len(s.dirty) == 0 {
		return
	}
	ps := make(set, len(s.dirty))
	for c := range s.dirty {
		ps[c.Parent()] = struct{}{}
	}
	parents := make([]Coord, 0, len(ps))
	for p := range ps {
		parents = append(parents, p)
	}
	sortCoords(parents)

	results := make([]*pixops.Tile, len(parents))
	build := func(i int) {
		var children [4]*pixops.Tile
		for j, c := range parents[i].Children() {
			children[j] = s.tiles[c]
		}
		t := new(pixops.Tile)
		if pixops.DownscaleInto(t, children) {
			results[i] = t
		}
	}
	if s.pool != nil && s.pool.Workers() > 1 && len(parents) > 1 {
		s.pool.Each(len(parents), build)
	} else {
		for i := range parents {
			build(i)
		}
	}

	next := s.mipmap
	removed := 0
	for i, p := range parents {
		if results[i] == nil {
			if _, ok := next.tiles[p]; ok {
				delete(next.tiles, p)
				removed++
			}
		} else {
			next.tiles[p] = results[i]
		}
		next.markDirty(p)
	}
	s.dirty = make(set)

	logx.WithComponent("tiledsurface").WithField("level", next.mipmapLevel).
		Debugf("regenerated %d mipmap tiles, removed %d", len(parents)-removed, removed)
}

// BlitTileInto copies tile (tx, ty) of the given mipmap level into dst.
// Missing tiles come out transparent.
func (s *Surface) BlitTileInto(dst *pixops.Tile, tx, ty, level int) {
	if t, ok := s.Level(level).Tile(tx, ty); ok {
		pixops.CopyTile(dst, t)
		return
	}
	dst.Clear()
}

// CompositeTileOver composites tile (tx, ty) of the given level over dst.
func (s *Surface) CompositeTileOver(dst *pixops.Tile, tx, ty, level int, opacity float64) {
	if opacity <= 0 {
		return
	}
	if t, ok := s.Level(level).Tile(tx, ty); ok {
		pixops.CompositeOver(dst, t, opacity)
	}
}

// BlitTileInto8 writes tile (tx, ty) of the given level as 8-bit pixels.
func (s *Surface) BlitTileInto8(dst pixops.Tile8, hasAlpha bool, tx, ty, level int, cs pixops.Colorspace) {
	t, ok := s.Level(level).Tile(tx, ty)
	if !ok {
		t = &transparent
	}
	pixops.ConvertLinearToRGBA8(dst, t, hasAlpha, cs)
}

// LoadFromPixbuf writes the tiles of p into s, expanding samples from
// colourspace cs. Tiles of s that p does not cover are kept.
func (s *Surface) LoadFromPixbuf(p *pixbuf.Surface, cs pixops.Colorspace) {
	for _, c := range p.Tiles() {
		p.BlitTileInto(s.TileForWrite(c.X, c.Y), c.X, c.Y, cs)
	}
}

// Translate moves every tile by (dtx, dty) tiles.
func (s *Surface) Translate(dtx, dty int) {
	if dtx == 0 && dty == 0 {
		return
	}
	tiles := make(map[Coord]*pixops.Tile, len(s.tiles))
	shared := make(set, len(s.shared))
	for c, t := range s.tiles {
		s.markDirty(c)
		n := Coord{X: c.X + dtx, Y: c.Y + dty}
		tiles[n] = t
		if hasKey(s.shared, c) {
			shared[n] = struct{}{}
		}
		s.markDirty(n)
	}
	s.tiles = tiles
	s.shared = shared
}

// GetAlpha returns the mean coverage, in [0, 1], of the square of side
// 2*radius+1 centred on pixel (x, y).
func (s *Surface) GetAlpha(x, y, radius int) float64 {
	radius = max(radius, 0)
	var sum float64
	for py := y - radius; py <= y+radius; py++ {
		for px := x - radius; px <= x+radius; px++ {
			t, ok := s.tiles[pixops.CoordOf(px, py)]
			if !ok {
				continue
			}
			_, _, _, a := t.At(px-pixops.TileOf(px)*N, py-pixops.TileOf(py)*N)
			sum += float64(a)
		}
	}
	side := float64(2*radius + 1)
	return min(sum/(side*side*pixops.One), 1)
}
