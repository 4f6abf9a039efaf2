package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"tilecanvas/background"
	"tilecanvas/document"
	"tilecanvas/export"
	"tilecanvas/pixbuf"
	"tilecanvas/pixops"
	"tilecanvas/tiledsurface"
	"tilecanvas/viewport"

	"github.com/alecthomas/kong"
	pb "gopkg.in/cheggaaa/pb.v1"
)

type ImportCmd struct {
	Archive    string   `arg:"" help:"Archive to create or extend" type:"path"`
	Images     []string `arg:"" help:"Images to import, bottom first" type:"existingfile"`
	Separate   bool     `help:"Treat the images as painted onto the background and make them translucent"`
	Background string   `help:"Replace the background with this image" type:"existingfile"`
}

func (c *ImportCmd) Run(se *SafeExit) error {
	ctx := se.Context()
	doc, created, err := openOrCreate(ctx, c.Archive)
	if err != nil {
		return err
	}
	defer func() { doc.Background.Close() }()

	if c.Background != "" {
		img, err := loadImage(c.Background)
		if err != nil {
			return err
		}
		bg, err := background.FromImage(img)
		if err != nil {
			return err
		}
		doc.Background.Close()
		doc.Background = bg
	}

	for _, path := range c.Images {
		img, err := loadImage(path)
		if err != nil {
			return err
		}
		l, err := doc.ImportLayer(baseName(path), pixbuf.FromImage(img, true), c.Separate)
		if err != nil {
			return err
		}
		log.Infof("imported %s, %d tiles", path, len(l.Surface.Tiles()))
	}
	if created && len(c.Images) > 0 {
		// drop the empty layer of the new document
		cur := doc.Layer()
		doc.SelectLayer(0)
		doc.RemoveLayer()
		i, _ := doc.Index(cur)
		doc.SelectLayer(i)
	}
	return saveDocument(ctx, c.Archive, doc)
}

func openOrCreate(ctx context.Context, path string) (*document.Document, bool, error) {
	if _, err := os.Stat(path); err == nil {
		doc, err := openDocument(ctx, path)
		return doc, false, err
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}
	bg, err := newBackground()
	if err != nil {
		return nil, false, err
	}
	doc := document.New(bg)
	doc.Colorspace = pixops.ParseColorspace(conf.Export.Colorspace)
	return doc, true, nil
}

type ExportCmd struct {
	Archive    string `arg:"" help:"Archive to export" type:"existingfile"`
	Out        string `short:"o" help:"Output PNG, derived from the archive name when empty"`
	Alpha      bool   `help:"Keep transparency"`
	Rect       string `help:"Region as x,y,w,h in pixels of the level, tile aligned. Default is the bounding box"`
	Level      int    `help:"Mipmap level" default:"0"`
	Background bool   `help:"Export the background alone"`
}

func (c *ExportCmd) Validate(kctx *kong.Context) error {
	if c.Level < 0 || c.Level > tiledsurface.MaxMipmapLevel {
		return fmt.Errorf("level %d out of range [0, %d]", c.Level, tiledsurface.MaxMipmapLevel)
	}
	if _, err := parseRect(c.Rect); err != nil {
		return err
	}
	return nil
}

func (c *ExportCmd) Run(se *SafeExit) error {
	ctx := se.Context()
	doc, err := openDocument(ctx, c.Archive)
	if err != nil {
		return err
	}
	defer doc.Background.Close()
	defer attachPool(doc)()

	out := c.Out
	if out == "" {
		out = filepath.Join(conf.Output.Directory, OutputTemplate(conf.Output.Template).FileName(baseName(c.Archive), c.Level, PNG))
	}
	rect, _ := parseRect(c.Rect)

	var src pixbuf.Source = doc
	opts := exportOptions()
	opts.Alpha = c.Alpha
	if c.Background {
		src = doc.Background
		opts.SingleTilePattern = doc.Background.SingleTile()
	}
	if rect.Empty() {
		rect = levelRect(src.BBox(), c.Level)
	}

	tiles := max(1, (rect.Dx()/TileSize)*(rect.Dy()/TileSize))
	bar := pb.New(tiles).Prefix(filepath.Base(out) + " : ")
	bar.SetRefreshRate(time.Second)
	bar.Start()
	step := opts.TilesPerCallback
	if step <= 0 {
		step = pixbuf.TilesPerCallback
	}
	first := true
	opts.Feedback = func() error {
		if !first {
			bar.Add(step)
		}
		first = false
		return ctx.Err()
	}

	start := time.Now()
	if c.Level == 0 {
		err = export.SavePNG(ctx, out, src, rect, opts)
	} else {
		var p *pixbuf.Surface
		if p, err = export.RenderAsPixbuf(src, rect, c.Level, opts); err == nil {
			err = writePNG(out, p.Image(), opts.Compression)
		}
	}
	if err != nil {
		bar.Finish()
		return err
	}
	bar.Set(tiles)
	bar.FinishPrint(fmt.Sprintf("%s written in %.3fs", out, time.Since(start).Seconds()))
	return nil
}

type RenderCmd struct {
	Archive   string  `arg:"" help:"Archive to render" type:"existingfile"`
	Out       string  `short:"o" help:"Output PNG" required:""`
	Width     int     `help:"View width, from the config when 0"`
	Height    int     `help:"View height, from the config when 0"`
	Scale     float64 `help:"Zoom factor" default:"1"`
	Rotate    float64 `help:"Rotation in degrees" default:"0"`
	Mirror    bool    `help:"Mirror the view horizontally"`
	Layer     int     `help:"Current layer index, the stored one when negative" default:"-1"`
	Solo      bool    `help:"Show the current layer alone"`
	HideAbove bool    `help:"Hide the layers above the current one"`
	Pixelize  float64 `help:"Zoom from which pixels are drawn as squares, from the config when 0"`
}

func (c *RenderCmd) Validate(kctx *kong.Context) error {
	if c.Scale < ZoomMin || c.Scale > ZoomMax {
		return fmt.Errorf("scale %v out of range [%v, %v]", c.Scale, ZoomMin, ZoomMax)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("negative view size")
	}
	return nil
}

func (c *RenderCmd) Run(se *SafeExit) error {
	doc, err := openDocument(se.Context(), c.Archive)
	if err != nil {
		return err
	}
	defer doc.Background.Close()
	defer attachPool(doc)()
	if c.Layer >= 0 {
		if err := doc.SelectLayer(c.Layer); err != nil {
			return err
		}
	}

	w, h := c.Width, c.Height
	if w == 0 {
		w = conf.View.Width
	}
	if h == 0 {
		h = conf.View.Height
	}

	bbox := doc.BBox()
	if bbox.Empty() {
		bbox = image.Rect(0, 0, TileSize, TileSize)
	}
	t := viewport.NewTransform()
	t.RecenterOn(bbox, w, h)
	cx, cy := float64(w)/2, float64(h)/2
	t.SetZoom(c.Scale, cx, cy)
	t.SetRotation(c.Rotate*math.Pi/180, cx, cy)
	if c.Mirror {
		t.SetMirrored(true, cx, cy)
	}

	r := viewport.NewRenderer(doc)
	defer r.Close()
	r.CurrentLayerSolo = c.Solo
	r.HideLayersAbove = c.HideAbove
	r.Colorspace = pixops.ParseColorspace(conf.Export.Colorspace)
	r.Pixelize = c.Pixelize
	if r.Pixelize == 0 {
		r.Pixelize = conf.View.Pixelize
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	stats := r.Repaint(dst, dst.Bounds(), nil, t)
	log.Infof("rendered %d of %d tiles at level %d", len(stats.Rendered), stats.Candidates, stats.Level)
	return writePNG(c.Out, dst, pngCompression(conf.Export.Compression))
}

type ThumbCmd struct {
	Archive string `arg:"" help:"Archive" type:"existingfile"`
	Out     string `short:"o" help:"Output PNG, derived from the archive name when empty"`
	Size    int    `help:"Maximum edge, from the config when 0"`
}

func (c *ThumbCmd) Run(se *SafeExit) error {
	doc, err := openDocument(se.Context(), c.Archive)
	if err != nil {
		return err
	}
	defer doc.Background.Close()
	defer attachPool(doc)()

	size := c.Size
	if size <= 0 {
		size = conf.Export.ThumbSize
	}
	out := c.Out
	if out == "" {
		out = filepath.Join(conf.Output.Directory, OutputTemplate(conf.Output.Template).FileName(baseName(c.Archive), 0, ThumbExt))
	}
	opts := exportOptions()
	img, err := export.Thumbnail(doc, image.Rectangle{}, size, size, opts)
	if err != nil {
		return err
	}
	return writePNG(out, img, opts.Compression)
}

type BatchCmd struct {
	Dir     string `arg:"" help:"Directory of archives" type:"existingdir"`
	Out     string `short:"o" help:"Output directory, from the config when empty"`
	Workers int    `short:"w" help:"Parallel exports, from the config when 0"`
	Levels  []int  `help:"Extra mipmap levels to export"`
	Thumb   bool   `help:"Write thumbnails too"`
	Alpha   bool   `help:"Keep transparency"`
	Resume  bool   `help:"Skip archives finished by an earlier run"`
}

func (c *BatchCmd) Run(se *SafeExit) error {
	files, err := listArchives(c.Dir)
	if err != nil {
		return err
	}
	workers := c.Workers
	if workers <= 0 {
		workers = conf.Task.Workers
	}
	task := NewTask(filepath.Base(c.Dir), files, workers)
	if task == nil {
		log.Infof("no archives in %s", c.Dir)
		return nil
	}
	if c.Out != "" {
		task.OutDir = c.Out
	}
	task.Levels = c.Levels
	task.Alpha = c.Alpha
	if c.Thumb {
		task.Thumbnail = conf.Export.ThumbSize
	}

	var journal *BreakPoint
	if c.Resume {
		if err := InitBreakPoint(task.Name); err != nil {
			return err
		}
		journal = BreakPointInst
	}
	return task.Run(se.Context(), journal)
}
