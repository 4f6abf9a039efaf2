// Package pixbuf keeps flat 8-bit RGBA pixels in a buffer enlarged to tile
// boundaries, so the same memory can be read as whole tiles and as one
// image of the originally requested size.
package pixbuf

import (
	"fmt"
	"image"

	"tilecanvas/pixops"

	"golang.org/x/image/draw"
)

const N = pixops.TileSize

// Surface is an 8-bit RGBA (or RGBU when HasAlpha is false) buffer. The
// backing array covers whole tiles; X, Y, W, H is the view the caller
// asked for. Colour is gamma encoded and not premultiplied.
type Surface struct {
	X, Y, W, H int
	HasAlpha   bool

	// enlarged area, tile aligned
	ex, ey, ew, eh int
	pix            []uint8
	tiles          []pixops.Coord
	present        map[pixops.Coord]struct{}
}

// New allocates a surface covering the w x h pixels at (x, y). Surfaces
// with alpha start transparent, surfaces without alpha start opaque black.
func New(x, y, w, h int, alpha bool) *Surface {
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("pixbuf: invalid size %dx%d", w, h))
	}
	tx0, ty0 := pixops.TileOf(x), pixops.TileOf(y)
	tx1, ty1 := pixops.TileOf(x+w-1), pixops.TileOf(y+h-1)

	s := &Surface{
		X: x, Y: y, W: w, H: h,
		HasAlpha: alpha,
		ex:       tx0 * N,
		ey:       ty0 * N,
		ew:       (tx1 - tx0 + 1) * N,
		eh:       (ty1 - ty0 + 1) * N,
		present:  make(map[pixops.Coord]struct{}),
	}
	s.pix = make([]uint8, s.ew*s.eh*4)
	if !alpha {
		for i := 3; i < len(s.pix); i += 4 {
			s.pix[i] = 0xff
		}
	}
	for ty := ty0; ty <= ty1; ty++ {
		for tx := tx0; tx <= tx1; tx++ {
			c := pixops.Coord{X: tx, Y: ty}
			s.tiles = append(s.tiles, c)
			s.present[c] = struct{}{}
		}
	}
	return s
}

// Tiles lists the tiles backing the surface in row-major order.
func (s *Surface) Tiles() []pixops.Coord {
	return s.tiles
}

// EnlargedBounds is the tile aligned area covered by the backing buffer.
func (s *Surface) EnlargedBounds() image.Rectangle {
	return image.Rect(s.ex, s.ey, s.ex+s.ew, s.ey+s.eh)
}

// TileMemory returns the 8-bit window of tile (tx, ty). The window aliases
// the surface memory.
func (s *Surface) TileMemory(tx, ty int) (pixops.Tile8, bool) {
	if _, ok := s.present[pixops.Coord{X: tx, Y: ty}]; !ok {
		return pixops.Tile8{}, false
	}
	stride := s.ew * 4
	off := (ty*N-s.ey)*stride + (tx*N-s.ex)*4
	return pixops.Tile8{Pix: s.pix[off:], Stride: stride}, true
}

// Image returns the requested view as an image sharing the surface memory.
// Its bounds are the pixel coordinates X, Y, X+W, Y+H.
func (s *Surface) Image() *image.NRGBA {
	return s.EnlargedImage().SubImage(image.Rect(s.X, s.Y, s.X+s.W, s.Y+s.H)).(*image.NRGBA)
}

// EnlargedImage returns the whole backing buffer as an image.
func (s *Surface) EnlargedImage() *image.NRGBA {
	return &image.NRGBA{
		Pix:    s.pix,
		Stride: s.ew * 4,
		Rect:   s.EnlargedBounds(),
	}
}

// BlitTileInto expands tile (tx, ty) to linear premultiplied samples. It
// reports false if the surface has no such tile.
func (s *Surface) BlitTileInto(dst *pixops.Tile, tx, ty int, cs pixops.Colorspace) bool {
	src, ok := s.TileMemory(tx, ty)
	if !ok {
		return false
	}
	pixops.ConvertRGBA8ToLinear(dst, src, s.HasAlpha, cs)
	return true
}

// dropTransparent forgets tiles whose alpha is zero everywhere. Used for
// read-only surfaces created from image data.
func (s *Surface) dropTransparent() {
	kept := s.tiles[:0]
	for _, c := range s.tiles {
		t, _ := s.TileMemory(c.X, c.Y)
		if tile8Transparent(t) {
			delete(s.present, c)
			continue
		}
		kept = append(kept, c)
	}
	s.tiles = kept
}

func tile8Transparent(t pixops.Tile8) bool {
	for y := 0; y < N; y++ {
		row := t.Pix[y*t.Stride : y*t.Stride+N*4]
		for x := 3; x < len(row); x += 4 {
			if row[x] != 0 {
				return false
			}
		}
	}
	return true
}

// FromImage copies img into a new surface placed at img.Bounds(). With
// alpha, tiles that end up fully transparent are dropped.
func FromImage(img image.Image, alpha bool) *Surface {
	b := img.Bounds()
	s := New(b.Min.X, b.Min.Y, b.Dx(), b.Dy(), alpha)
	dst := s.EnlargedImage()
	if alpha {
		draw.Draw(dst, b, img, b.Min, draw.Src)
		s.dropTransparent()
		return s
	}
	// RGBU: keep the alpha byte at 255 whatever the source says
	draw.Draw(dst, b, img, b.Min, draw.Src)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := dst.PixOffset(b.Min.X, y)
		row := dst.Pix[off : off+b.Dx()*4]
		for i := 3; i < len(row); i += 4 {
			row[i] = 0xff
		}
	}
	return s
}

// FromRGB wraps a flat row-major buffer of 3 (RGB) or 4 (RGBA) channels.
func FromRGB(data []uint8, w, h, channels int) (*Surface, error) {
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("pixbuf: unsupported channel count %d", channels)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("pixbuf: invalid size %dx%d", w, h)
	}
	if len(data) < w*h*channels {
		return nil, fmt.Errorf("pixbuf: buffer holds %d bytes, need %d", len(data), w*h*channels)
	}
	alpha := channels == 4
	s := New(0, 0, w, h, alpha)
	stride := s.ew * 4
	for y := 0; y < h; y++ {
		src := data[y*w*channels:]
		dst := s.pix[y*stride:]
		for x := 0; x < w; x++ {
			copy(dst[x*4:x*4+3], src[x*channels:x*channels+3])
			if alpha {
				dst[x*4+3] = src[x*channels+3]
			}
		}
	}
	if alpha {
		s.dropTransparent()
	}
	return s, nil
}

// Bytes returns the requested view as a flat buffer with the given number
// of channels (3 or 4).
func (s *Surface) Bytes(channels int) []uint8 {
	out := make([]uint8, 0, s.W*s.H*channels)
	img := s.Image()
	for y := s.Y; y < s.Y+s.H; y++ {
		off := img.PixOffset(s.X, y)
		row := img.Pix[off : off+s.W*4]
		for x := 0; x < s.W; x++ {
			out = append(out, row[x*4:x*4+channels]...)
		}
	}
	return out
}
