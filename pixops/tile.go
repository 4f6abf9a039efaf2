// Package pixops holds the per-tile pixel operations: the tile layout, the
// 8-bit bridge, downscaling for mipmaps and the compositing kernels.
//
// Tiles store 15-bit fixed point linear light with premultiplied alpha:
// One (1<<15) is full coverage or full intensity.
package pixops

// TileSize is the edge length N of a square tile in pixels.
const TileSize = 64

// One is the fixed point value of 1.0.
const One = 1 << 15

// Tile is a TileSize x TileSize block of RGBA samples.
type Tile [TileSize * TileSize * 4]uint16

// Coord is the position of a tile in the infinite tile grid.
type Coord struct {
	X, Y int
}

// TileOf returns the tile index holding pixel coordinate p, rounding
// toward negative infinity.
func TileOf(p int) int {
	if p >= 0 {
		return p / TileSize
	}
	return -((-p + TileSize - 1) / TileSize)
}

// CoordOf returns the coordinate of the tile holding pixel (x, y).
func CoordOf(x, y int) Coord {
	return Coord{TileOf(x), TileOf(y)}
}

// Parent is the tile one mipmap level up that covers c.
func (c Coord) Parent() Coord {
	return Coord{c.X >> 1, c.Y >> 1}
}

// Children are the four tiles one mipmap level down covered by c, in
// row-major order.
func (c Coord) Children() [4]Coord {
	x, y := 2*c.X, 2*c.Y
	return [4]Coord{{x, y}, {x + 1, y}, {x, y + 1}, {x + 1, y + 1}}
}

// Clone returns a copy of t.
func (t *Tile) Clone() *Tile {
	c := *t
	return &c
}

// Clear sets every sample to zero.
func (t *Tile) Clear() {
	*t = Tile{}
}

// Fill sets every pixel to the given premultiplied value.
func (t *Tile) Fill(r, g, b, a uint16) {
	for i := 0; i < len(t); i += 4 {
		t[i+0] = r
		t[i+1] = g
		t[i+2] = b
		t[i+3] = a
	}
}

// At returns the samples of pixel (x, y) inside the tile.
func (t *Tile) At(x, y int) (r, g, b, a uint16) {
	i := (y*TileSize + x) * 4
	return t[i], t[i+1], t[i+2], t[i+3]
}

// Set stores the samples of pixel (x, y) inside the tile.
func (t *Tile) Set(x, y int, r, g, b, a uint16) {
	i := (y*TileSize + x) * 4
	t[i], t[i+1], t[i+2], t[i+3] = r, g, b, a
}

// IsTransparent reports whether every pixel has zero alpha.
func (t *Tile) IsTransparent() bool {
	for i := 3; i < len(t); i += 4 {
		if t[i] != 0 {
			return false
		}
	}
	return true
}

// CopyTile copies src into dst. No conversion is involved.
func CopyTile(dst, src *Tile) {
	*dst = *src
}

// Tile8 is a TileSize x TileSize window of 8-bit RGBA (or RGBU) pixels
// inside a larger buffer.
type Tile8 struct {
	Pix    []uint8
	Stride int
}

// NewTile8 allocates a standalone 8-bit tile.
func NewTile8() Tile8 {
	return Tile8{
		Pix:    make([]uint8, TileSize*TileSize*4),
		Stride: TileSize * 4,
	}
}

// PixOffset returns the index of the first byte of pixel (x, y).
func (t Tile8) PixOffset(x, y int) int {
	return y*t.Stride + x*4
}

// Clear zeroes the window.
func (t Tile8) Clear() {
	for y := 0; y < TileSize; y++ {
		row := t.Pix[y*t.Stride : y*t.Stride+TileSize*4]
		clear(row)
	}
}
