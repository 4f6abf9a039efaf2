package pixbuf

import (
	"image"

	"tilecanvas/pixops"
)

// TilesPerCallback throttles feedback callbacks during rendering and saving.
const TilesPerCallback = 256

// Source is anything that can write one of its tiles as 8-bit pixels.
type Source interface {
	BlitTileInto8(dst pixops.Tile8, hasAlpha bool, tx, ty, mipmapLevel int, cs pixops.Colorspace)
	BBox() image.Rectangle
}

// Render draws rect of src at the given mipmap level into a new surface,
// encoding samples in colourspace cs.
// An empty rect renders the source's bounding box. feedback, if set, is
// called every TilesPerCallback tiles; an error stops rendering and is
// returned.
func Render(src Source, rect image.Rectangle, alpha bool, mipmapLevel int, cs pixops.Colorspace, feedback func() error) (*Surface, error) {
	if rect.Empty() {
		rect = src.BBox()
	}
	if rect.Empty() {
		rect = image.Rect(0, 0, N, N)
	}
	s := New(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy(), alpha)
	for n, c := range s.Tiles() {
		if feedback != nil && n%TilesPerCallback == 0 {
			if err := feedback(); err != nil {
				return nil, err
			}
		}
		dst, _ := s.TileMemory(c.X, c.Y)
		src.BlitTileInto8(dst, alpha, c.X, c.Y, mipmapLevel, cs)
	}
	return s, nil
}
