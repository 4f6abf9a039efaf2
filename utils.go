package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tilecanvas/archive"
	"tilecanvas/background"
	"tilecanvas/document"
	"tilecanvas/export"
	"tilecanvas/internal/parallel"
	"tilecanvas/pixops"
	"tilecanvas/uicolor"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// writePNG writes img next to path and renames it into place.
func writePNG(path string, img image.Image, level png.CompressionLevel) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}

func pngCompression(name string) png.CompressionLevel {
	switch strings.ToLower(name) {
	case CompressionNone:
		return png.NoCompression
	case CompressionSpeed:
		return png.BestSpeed
	case CompressionBest:
		return png.BestCompression
	}
	return png.DefaultCompression
}

// newBackground builds the background configured for new documents. An
// image takes precedence over a colour.
func newBackground() (*background.Background, error) {
	if conf.Background.Image != "" {
		img, err := loadImage(conf.Background.Image)
		if err != nil {
			return nil, err
		}
		return background.FromImage(img)
	}
	c, err := uicolor.ParseHex(conf.Background.Color)
	if err != nil {
		return nil, fmt.Errorf("background colour: %w", err)
	}
	// hex colours are gamma encoded, so go through the sRGB import
	img := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(c.NRGBA()), image.Point{}, draw.Src)
	return background.FromImage(img)
}

func openDocument(ctx context.Context, path string) (*document.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	a, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Load(ctx)
}

// attachPool spreads the mipmap regeneration of doc's layers over
// conf.Task.MipmapWorkers workers. The returned function stops them.
func attachPool(doc *document.Document) func() {
	pool := parallel.Start(conf.Task.MipmapWorkers)
	for _, l := range doc.Layers {
		l.Surface.SetPool(pool)
	}
	return func() {
		for _, l := range doc.Layers {
			l.Surface.SetPool(nil)
		}
		pool.Wait(true)
	}
}

func saveDocument(ctx context.Context, path string, doc *document.Document) error {
	a, err := archive.Open(path)
	if err != nil {
		return err
	}
	if err := a.Save(ctx, doc); err != nil {
		a.Close()
		return err
	}
	return a.Close()
}

func exportOptions() export.Options {
	return export.Options{
		TilesPerCallback: conf.Export.TilesPerCallback,
		Colorspace:       pixops.ParseColorspace(conf.Export.Colorspace),
		Compression:      pngCompression(conf.Export.Compression),
	}
}

// listArchives returns the archives directly inside dir, sorted by name.
func listArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != "."+ArchiveExt {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// parseRect reads "x,y,w,h". An empty string gives the empty rectangle.
func parseRect(s string) (image.Rectangle, error) {
	if s == "" {
		return image.Rectangle{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rect %q: want x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("rect %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] < 0 || v[3] < 0 {
		return image.Rectangle{}, fmt.Errorf("rect %q: negative size", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// levelRect maps a rectangle of full size pixels to the smallest one
// covering it at a mipmap level.
func levelRect(r image.Rectangle, level int) image.Rectangle {
	return image.Rect(r.Min.X>>level, r.Min.Y>>level, -(-r.Max.X >> level), -(-r.Max.Y >> level))
}
