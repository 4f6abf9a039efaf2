package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"tilecanvas/document"
	"tilecanvas/pixops"

	"github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log = logrus.New()
	log.SetOutput(io.Discard)
	conf = &Conf{}
	conf.Output.Template = "{name}.{ext}"
	conf.Export.Colorspace = "srgb"
	conf.Background.Color = "#ffffff"
	os.Exit(m.Run())
}

func TestOutputTemplate(t *testing.T) {
	tests := []struct {
		tmpl OutputTemplate
		want string
	}{
		{"", "cat.png"},
		{"{name}.{ext}", "cat.png"},
		{"{name}-{level}.{ext}", "cat-2.png"},
		{"out/{level}/{name}.{ext}", "out/2/cat.png"},
	}
	for _, tt := range tests {
		if got := tt.tmpl.FileName("cat", 2, PNG); got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.tmpl, got, tt.want)
		}
	}
}

func TestParseRect(t *testing.T) {
	r, err := parseRect("64, -128,128,64")
	if err != nil {
		t.Fatal(err)
	}
	if want := image.Rect(64, -128, 192, -64); r != want {
		t.Errorf("got %v, want %v", r, want)
	}
	if r, err := parseRect(""); err != nil || !r.Empty() {
		t.Errorf("empty: %v %v", r, err)
	}
	for _, bad := range []string{"1,2,3", "a,b,c,d", "0,0,-64,64"} {
		if _, err := parseRect(bad); err == nil {
			t.Errorf("parseRect(%q) accepted", bad)
		}
	}
}

func TestLevelRect(t *testing.T) {
	got := levelRect(image.Rect(-64, -64, 129, 64), 1)
	if want := image.Rect(-32, -32, 65, 32); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBreakPoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "batch.log")
	b, err := OpenBreakPoint(path)
	if err != nil {
		t.Fatal(err)
	}
	b.SetSuccessed("a.tca")
	b.SetSuccessed("b.tca")
	if !b.IsSuccessed("a.tca") || b.IsSuccessed("c.tca") {
		t.Error("wrong membership before reopen")
	}
	b.BreakPointSafeFun()
	b.SetSuccessed("c.tca")

	b, err = OpenBreakPoint(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.BreakPointSafeFun()
	for name, want := range map[string]bool{"a.tca": true, "b.tca": true, "c.tca": false} {
		if got := b.IsSuccessed(name); got != want {
			t.Errorf("IsSuccessed(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestUnwritableDirectory(t *testing.T) {
	// a regular file where a directory is expected
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := writePNG(filepath.Join(file, "sub", "x.png"), img, png.DefaultCompression); err == nil {
		t.Error("writePNG under a file succeeded")
	}
	if _, err := OpenBreakPoint(filepath.Join(file, "sub", "batch.log")); err == nil {
		t.Error("OpenBreakPoint under a file succeeded")
	}
}

func writeArchive(t *testing.T, path string) {
	t.Helper()
	doc := document.New(nil)
	tile := doc.Layer().Surface.TileForWrite(0, 0)
	for i := 0; i < len(tile); i += 4 {
		tile[i], tile[i+3] = pixops.One, pixops.One
	}
	if err := saveDocument(context.Background(), path, doc); err != nil {
		t.Fatal(err)
	}
}

func TestTask(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "one.tca"))
	writeArchive(t, filepath.Join(dir, "two.tca"))
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	files, err := listArchives(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("archives = %v", files)
	}

	journal, err := OpenBreakPoint(filepath.Join(dir, "journal.log"))
	if err != nil {
		t.Fatal(err)
	}
	journal.SetSuccessed("two.tca")

	task := NewTask("test", files, 2)
	task.OutDir = filepath.Join(dir, "out")
	task.Thumbnail = 16
	if err := task.Run(context.Background(), journal); err != nil {
		t.Fatal(err)
	}
	journal.BreakPointSafeFun()
	if task.Done != 1 || task.Failed != 0 {
		t.Errorf("done %d, failed %d", task.Done, task.Failed)
	}

	img, err := loadImage(filepath.Join(task.OutDir, "one.png"))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b != image.Rect(0, 0, 64, 64) {
		t.Errorf("bounds = %v", b)
	}
	if c := color.NRGBAModel.Convert(img.At(10, 10)).(color.NRGBA); c != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v", c)
	}
	if _, err := os.Stat(filepath.Join(task.OutDir, "one.thumb.png")); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(filepath.Join(task.OutDir, "two.png")); !os.IsNotExist(err) {
		t.Errorf("journaled archive exported again: %v", err)
	}
}

func TestParseFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.tca")
	os.WriteFile(path, nil, 0o644)

	cli, kctx, err := parseFlags([]string{"-l", "debug", "thumb", path, "--size", "32"})
	if err != nil {
		t.Fatal(err)
	}
	if kctx.Selected().Name != "thumb" {
		t.Errorf("command = %q", kctx.Selected().Name)
	}
	if cli.LogLevel != "debug" || cli.Thumb.Archive != path || cli.Thumb.Size != 32 {
		t.Errorf("parsed %+v", cli)
	}
	if _, _, err := parseFlags([]string{"render", path, "-o", "x.png", "--scale", "9"}); err == nil {
		t.Error("scale out of range accepted")
	}
}
