package export

import (
	"image"
	"math"

	"tilecanvas/pixbuf"
	"tilecanvas/tiledsurface"

	"golang.org/x/image/draw"
)

// RenderAsPixbuf renders rect of src at the given mipmap level into an
// 8-bit surface. rect is in pixels of that level.
func RenderAsPixbuf(src pixbuf.Source, rect image.Rectangle, level int, opts Options) (*pixbuf.Surface, error) {
	return pixbuf.Render(src, rect, opts.Alpha, level, opts.Colorspace, opts.Feedback)
}

// thumbnailLevel is the coarsest mipmap level that still has at least
// 1/scale source pixels per thumbnail pixel.
func thumbnailLevel(scale float64) int {
	if scale >= 1 {
		return 0
	}
	level := int(math.Floor(math.Log2(1 / scale)))
	return max(0, min(level, tiledsurface.MaxMipmapLevel))
}

func floorDiv(a, b int) int {
	if a >= 0 {
		return a / b
	}
	return -((-a + b - 1) / b)
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}

// Thumbnail renders rect of src (its bounding box when empty) scaled to fit
// in maxW x maxH, keeping the aspect ratio. Small areas are not enlarged.
func Thumbnail(src pixbuf.Source, rect image.Rectangle, maxW, maxH int, opts Options) (*image.NRGBA, error) {
	if rect.Empty() {
		rect = src.BBox()
	}
	if rect.Empty() {
		rect = image.Rect(0, 0, N, N)
	}
	scale := min(float64(maxW)/float64(rect.Dx()), float64(maxH)/float64(rect.Dy()), 1)
	w := max(1, int(math.Round(float64(rect.Dx())*scale)))
	h := max(1, int(math.Round(float64(rect.Dy())*scale)))

	level := thumbnailLevel(scale)
	f := 1 << level
	lr := image.Rect(
		floorDiv(rect.Min.X, f), floorDiv(rect.Min.Y, f),
		ceilDiv(rect.Max.X, f), ceilDiv(rect.Max.Y, f),
	)
	p, err := RenderAsPixbuf(src, lr, level, opts)
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), p.Image(), p.Image().Bounds(), draw.Src, nil)
	return dst, nil
}
