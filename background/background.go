// Package background provides the periodic pattern drawn below all layers.
//
// A background is a small grid of opaque tiles repeated in both directions.
// Its mipmap chain is built eagerly when the background is created.
package background

import (
	"image"

	"tilecanvas/internal/logx"
	"tilecanvas/pixbuf"
	"tilecanvas/pixops"
	"tilecanvas/tiledsurface"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/image/draw"
)

const N = pixops.TileSize

// Background is a tw x th grid of tiles repeated over the whole plane.
type Background struct {
	tw, th int
	// levels[k] holds the tw*th tiles of mipmap level k, row-major
	levels [tiledsurface.MaxMipmapLevel + 1][]*pixops.Tile
	cache  *ristretto.Cache[uint64, []uint8]
}

// FromImage builds a background from gamma encoded 8-bit pixels. The image
// size must be a multiple of the tile size; alpha is ignored.
func FromImage(img image.Image) (*Background, error) {
	b := img.Bounds()
	if err := pixops.CheckTileMultiple("background", b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	p := pixbuf.New(0, 0, b.Dx(), b.Dy(), false)
	dst := p.EnlargedImage()
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	bg := newBackground(b.Dx()/N, b.Dy()/N)
	for ty := 0; ty < bg.th; ty++ {
		for tx := 0; tx < bg.tw; tx++ {
			t := new(pixops.Tile)
			p.BlitTileInto(t, tx, ty, pixops.SRGB)
			bg.levels[0][ty*bg.tw+tx] = t
		}
	}
	bg.buildMipmaps()
	return bg, nil
}

// FromRGB builds a one tile background of a solid colour. The components
// are taken as linear intensities, 255 being full.
func FromRGB(r, g, b uint8) *Background {
	bg := newBackground(1, 1)
	t := new(pixops.Tile)
	t.Fill(linear8(r), linear8(g), linear8(b), pixops.One)
	bg.levels[0][0] = t
	bg.buildMipmaps()
	return bg
}

func linear8(v uint8) uint16 {
	return uint16(uint32(v) * pixops.One / 255)
}

// FromLinear builds a background from w*h row-major RGBA samples that are
// already linear fixed point. The fourth channel is ignored.
func FromLinear(pix []uint16, w, h int) (*Background, error) {
	if err := pixops.CheckTileMultiple("background", w, h); err != nil {
		return nil, err
	}
	if len(pix) < w*h*4 {
		return nil, &pixops.ConfigurationError{What: "background samples", Width: w, Height: h}
	}
	bg := newBackground(w/N, h/N)
	for ty := 0; ty < bg.th; ty++ {
		for tx := 0; tx < bg.tw; tx++ {
			t := new(pixops.Tile)
			for y := 0; y < N; y++ {
				row := pix[((ty*N+y)*w+tx*N)*4:]
				for x := 0; x < N; x++ {
					p := row[x*4:]
					t.Set(x, y, p[0], p[1], p[2], pixops.One)
				}
			}
			bg.levels[0][ty*bg.tw+tx] = t
		}
	}
	bg.buildMipmaps()
	return bg, nil
}

// FromTiles builds a tw x th background from level 0 tiles in row-major
// order. The tiles are copied.
func FromTiles(tw, th int, tiles []*pixops.Tile) (*Background, error) {
	if tw <= 0 || th <= 0 || len(tiles) != tw*th {
		return nil, &pixops.ConfigurationError{What: "background tiles", Width: tw * N, Height: th * N}
	}
	bg := newBackground(tw, th)
	for i, t := range tiles {
		bg.levels[0][i] = t.Clone()
	}
	bg.buildMipmaps()
	return bg, nil
}

func newBackground(tw, th int) *Background {
	bg := &Background{tw: tw, th: th}
	for k := range bg.levels {
		bg.levels[k] = make([]*pixops.Tile, tw*th)
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []uint8]{
		NumCounters: 1000,
		MaxCost:     4 << 20,
		BufferItems: 64,
	})
	if err != nil {
		logx.WithComponent("background").Warnf("8-bit tile cache disabled: %s", err)
	} else {
		bg.cache = cache
	}
	return bg
}

// buildMipmaps fills every level above 0. Each level keeps the tile grid
// of level 0; tile (tx, ty) of level k+1 is made from the 2x2 block of
// wrapped level k tiles starting at (2tx, 2ty).
func (bg *Background) buildMipmaps() {
	for k := 1; k < len(bg.levels); k++ {
		for ty := 0; ty < bg.th; ty++ {
			for tx := 0; tx < bg.tw; tx++ {
				t := new(pixops.Tile)
				var children [4]*pixops.Tile
				for i, c := range (pixops.Coord{X: tx, Y: ty}).Children() {
					children[i] = bg.TileAt(c.X, c.Y, k-1)
				}
				pixops.DownscaleInto(t, children)
				bg.levels[k][ty*bg.tw+tx] = t
			}
		}
	}
	logx.WithComponent("background").Debugf("built %dx%d tile background", bg.tw, bg.th)
}

// Close releases the conversion cache.
func (bg *Background) Close() {
	if bg.cache != nil {
		bg.cache.Close()
	}
}

// Size is the pattern size in tiles.
func (bg *Background) Size() (tw, th int) {
	return bg.tw, bg.th
}

// SingleTile reports whether the pattern is one tile.
func (bg *Background) SingleTile() bool {
	return bg.tw == 1 && bg.th == 1
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Tile returns the level 0 tile shown at (tx, ty). It must not be modified.
func (bg *Background) Tile(tx, ty int) *pixops.Tile {
	return bg.TileAt(tx, ty, 0)
}

// TileAt returns the tile shown at (tx, ty) of the given mipmap level.
// Levels out of range are clamped.
func (bg *Background) TileAt(tx, ty, level int) *pixops.Tile {
	level = max(0, min(level, tiledsurface.MaxMipmapLevel))
	return bg.levels[level][mod(ty, bg.th)*bg.tw+mod(tx, bg.tw)]
}

// BlitTileInto copies the tile shown at (tx, ty) into dst.
func (bg *Background) BlitTileInto(dst *pixops.Tile, tx, ty, level int) {
	pixops.CopyTile(dst, bg.TileAt(tx, ty, level))
}

func (bg *Background) cacheKey(hasAlpha bool, tx, ty, level int, cs pixops.Colorspace) uint64 {
	k := uint64(mod(ty, bg.th))<<32 | uint64(mod(tx, bg.tw))<<8 | uint64(level)<<2 | uint64(cs)<<1
	if hasAlpha {
		k |= 1
	}
	return k
}

// BlitTileInto8 writes the tile shown at (tx, ty) as 8-bit pixels.
// Conversions are cached since the pattern never changes.
func (bg *Background) BlitTileInto8(dst pixops.Tile8, hasAlpha bool, tx, ty, level int, cs pixops.Colorspace) {
	level = max(0, min(level, tiledsurface.MaxMipmapLevel))
	if bg.cache == nil {
		pixops.ConvertLinearToRGBA8(dst, bg.TileAt(tx, ty, level), hasAlpha, cs)
		return
	}
	key := bg.cacheKey(hasAlpha, tx, ty, level, cs)
	buf, ok := bg.cache.Get(key)
	if !ok {
		t8 := pixops.NewTile8()
		pixops.ConvertLinearToRGBA8(t8, bg.TileAt(tx, ty, level), hasAlpha, cs)
		buf = t8.Pix
		bg.cache.Set(key, buf, int64(len(buf)))
	}
	for y := 0; y < N; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+N*4], buf[y*N*4:(y+1)*N*4])
	}
}

// PatternBBox is the pixel rectangle of one period of the pattern.
func (bg *Background) PatternBBox() image.Rectangle {
	return image.Rect(0, 0, bg.tw*N, bg.th*N)
}

// BBox is the same as PatternBBox, so a background can be rendered on its own.
func (bg *Background) BBox() image.Rectangle {
	return bg.PatternBBox()
}
