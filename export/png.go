// Package export writes rendered canvases to PNG files one band of tiles
// at a time.
package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tilecanvas/internal/logx"
	"tilecanvas/pixbuf"
	"tilecanvas/pixops"
)

const N = pixops.TileSize

// Options control SavePNG and RenderAsPixbuf.
type Options struct {
	// Alpha keeps transparency; without it the output is opaque RGB.
	Alpha bool
	// SingleTilePattern renders the first band once and repeats it, for
	// sources whose content is the same everywhere.
	SingleTilePattern bool
	// Feedback is called every TilesPerCallback tiles. An error aborts.
	Feedback func() error
	// TilesPerCallback defaults to pixbuf.TilesPerCallback.
	TilesPerCallback int
	Colorspace       pixops.Colorspace
	Compression      png.CompressionLevel
}

func (o *Options) tilesPerCallback() int {
	if o.TilesPerCallback > 0 {
		return o.TilesPerCallback
	}
	return pixbuf.TilesPerCallback
}

// checkRegion resolves an empty rect to the source bounding box and
// rejects regions that do not start and end on tile boundaries.
func checkRegion(src pixbuf.Source, rect image.Rectangle) (image.Rectangle, error) {
	if rect.Empty() {
		rect = src.BBox()
	}
	if rect.Min.X%N != 0 || rect.Min.Y%N != 0 || rect.Dx()%N != 0 || rect.Dy()%N != 0 {
		return rect, &pixops.InvalidRegionError{X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy()}
	}
	if rect.Empty() {
		rect = image.Rect(0, 0, N, N)
	}
	return rect, nil
}

var encoderBuffers bufferPool

type bufferPool struct {
	p sync.Pool
}

func (b *bufferPool) Get() *png.EncoderBuffer {
	buf, _ := b.p.Get().(*png.EncoderBuffer)
	return buf
}

func (b *bufferPool) Put(buf *png.EncoderBuffer) {
	b.p.Put(buf)
}

// SavePNG renders rect of src (the source bounding box when rect is
// empty) and writes it to filename. The file appears only when the whole
// image was written; on error or cancellation nothing is left behind.
func SavePNG(ctx context.Context, filename string, src pixbuf.Source, rect image.Rectangle, opts Options) error {
	rect, err := checkRegion(src, rect)
	if err != nil {
		return err
	}
	log := logx.WithComponent("export")
	log.Infof("saving %s (%dx%d)", filename, rect.Dx(), rect.Dy())
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(filename), os.ModePerm); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	done := false
	defer func() {
		if !done {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	img := newBandImage(ctx, src, rect, &opts)
	enc := png.Encoder{CompressionLevel: opts.Compression, BufferPool: &encoderBuffers}
	w := &abortWriter{w: tmp, img: img}
	if err := enc.Encode(w, img); err != nil {
		if img.err != nil {
			err = img.err
		}
		return fmt.Errorf("save %s: %w", filename, err)
	}
	if img.err != nil {
		return fmt.Errorf("save %s: %w", filename, img.err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		os.Remove(tmp.Name())
		done = true
		return fmt.Errorf("save %s: %w", filename, err)
	}
	done = true
	log.Infof("saved %s in %v, %d tiles", filename, time.Since(start).Round(time.Millisecond), img.tiles)
	return nil
}

// abortWriter stops the encoder at its next write once rendering failed.
type abortWriter struct {
	w   *os.File
	img *bandImage
}

func (a *abortWriter) Write(p []byte) (int, error) {
	if a.img.err != nil {
		return 0, a.img.err
	}
	return a.w.Write(p)
}

// bandImage is an image.Image that renders one band of N rows into a
// reused buffer whenever a pixel of the next band is asked for. The PNG
// encoder reads pixels top to bottom, so every band is rendered once.
type bandImage struct {
	ctx  context.Context
	src  pixbuf.Source
	rect image.Rectangle
	opts *Options

	band     *image.NRGBA
	bandRow  int // tile row held in band, or rect.Min.Y/N - 1
	rendered bool
	tiles    int
	err      error
}

func newBandImage(ctx context.Context, src pixbuf.Source, rect image.Rectangle, opts *Options) *bandImage {
	stride := rect.Dx() * 4
	return &bandImage{
		ctx:  ctx,
		src:  src,
		rect: rect,
		opts: opts,
		band: &image.NRGBA{
			Pix:    make([]uint8, stride*N),
			Stride: stride,
		},
		bandRow: rect.Min.Y/N - 1,
	}
}

func (b *bandImage) ColorModel() color.Model { return color.NRGBAModel }

func (b *bandImage) Bounds() image.Rectangle { return b.rect }

// Opaque lets the encoder pick RGB without scanning the image.
func (b *bandImage) Opaque() bool { return !b.opts.Alpha }

func (b *bandImage) At(x, y int) color.Color {
	if b.err != nil {
		return color.NRGBA{}
	}
	if ty := pixops.TileOf(y); ty != b.bandRow {
		b.renderBand(ty)
		if b.err != nil {
			return color.NRGBA{}
		}
	}
	return b.band.NRGBAAt(x, y)
}

func (b *bandImage) renderBand(ty int) {
	b.band.Rect = image.Rect(b.rect.Min.X, ty*N, b.rect.Max.X, (ty+1)*N)
	b.bandRow = ty
	if b.opts.SingleTilePattern && b.rendered {
		return
	}
	if err := b.ctx.Err(); err != nil {
		b.err = err
		return
	}
	per := b.opts.tilesPerCallback()
	for x := b.rect.Min.X; x < b.rect.Max.X; x += N {
		if b.opts.Feedback != nil && b.tiles%per == 0 {
			if err := b.opts.Feedback(); err != nil {
				b.err = err
				return
			}
		}
		off := (x - b.rect.Min.X) * 4
		dst := pixops.Tile8{Pix: b.band.Pix[off:], Stride: b.band.Stride}
		b.src.BlitTileInto8(dst, b.opts.Alpha, pixops.TileOf(x), ty, 0, b.opts.Colorspace)
		b.tiles++
	}
	b.rendered = true
	logx.WithComponent("export").Debugf("band %d rendered, %d tiles so far", ty, b.tiles)
}
