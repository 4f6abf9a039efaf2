package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"tilecanvas/export"

	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// Task exports a set of archives with a bounded number of workers.
type Task struct {
	ID        string
	Name      string
	Files     []string
	OutDir    string
	Template  OutputTemplate
	Levels    []int
	Thumbnail int
	Alpha     bool
	Options   export.Options
	Bar       *pb.ProgressBar
	Done      int64
	Failed    int64
	journal   *BreakPoint
	fileWG    sync.WaitGroup
	workers   chan struct{}
}

// NewTask creates a batch task. It returns nil when there is nothing to do.
func NewTask(name string, files []string, workers int) *Task {
	if len(files) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	id, _ := shortid.Generate()
	return &Task{
		ID:       id,
		Name:     name,
		Files:    files,
		OutDir:   conf.Output.Directory,
		Template: OutputTemplate(conf.Output.Template),
		Options:  exportOptions(),
		workers:  make(chan struct{}, workers),
	}
}

// Run exports every file not yet recorded in the journal. It stops
// starting new files once ctx is done and waits for the running ones.
func (task *Task) Run(ctx context.Context, journal *BreakPoint) error {
	start := time.Now()
	task.journal = journal
	log.Infof("task %s(%s): %d archives", task.Name, task.ID, len(task.Files))

	task.Bar = pb.New(len(task.Files)).Prefix(fmt.Sprintf("%s : ", task.Name))
	task.Bar.SetRefreshRate(time.Second)
	task.Bar.Start()

loop:
	for _, file := range task.Files {
		if journal != nil && journal.IsSuccessed(filepath.Base(file)) {
			log.Debugf("%s already exported, skipping", file)
			task.Bar.Increment()
			continue
		}
		select {
		case task.workers <- struct{}{}:
			task.fileWG.Add(1)
			go task.exporter(ctx, file)
		case <-ctx.Done():
			log.Infof("task %s got canceled", task.Name)
			break loop
		}
	}
	task.fileWG.Wait()
	task.Bar.FinishPrint(fmt.Sprintf("task %s finished in %.3fs, %d exported, %d failed",
		task.ID, time.Since(start).Seconds(), task.Done, task.Failed))

	if err := ctx.Err(); err != nil {
		return err
	}
	if task.Failed > 0 {
		return fmt.Errorf("%d of %d archives failed", task.Failed, len(task.Files))
	}
	return nil
}

func (task *Task) exporter(ctx context.Context, file string) {
	defer func() {
		task.Bar.Increment()
		task.fileWG.Done()
		<-task.workers
	}()

	start := time.Now()
	if err := task.exportFile(ctx, file); err != nil {
		atomic.AddInt64(&task.Failed, 1)
		log.Errorf("export %s error, details: %s", file, err)
		return
	}
	atomic.AddInt64(&task.Done, 1)
	if task.journal != nil {
		task.journal.SetSuccessed(filepath.Base(file))
	}
	log.Debugf("exported %s, %dms", file, time.Since(start).Milliseconds())
}

func (task *Task) exportFile(ctx context.Context, file string) error {
	doc, err := openDocument(ctx, file)
	if err != nil {
		return err
	}
	defer doc.Background.Close()

	name := baseName(file)
	opts := task.Options
	opts.Alpha = task.Alpha
	opts.Feedback = ctx.Err

	out := filepath.Join(task.OutDir, task.Template.FileName(name, 0, PNG))
	if err := export.SavePNG(ctx, out, doc, doc.BBox(), opts); err != nil {
		return err
	}

	for _, level := range task.Levels {
		if level <= 0 {
			continue
		}
		p, err := export.RenderAsPixbuf(doc, levelRect(doc.BBox(), level), level, opts)
		if err != nil {
			return err
		}
		out := filepath.Join(task.OutDir, task.Template.FileName(name, level, PNG))
		if err := writePNG(out, p.Image(), opts.Compression); err != nil {
			return err
		}
	}

	if task.Thumbnail > 0 {
		img, err := export.Thumbnail(doc, doc.BBox(), task.Thumbnail, task.Thumbnail, opts)
		if err != nil {
			return err
		}
		out := filepath.Join(task.OutDir, task.Template.FileName(name, 0, ThumbExt))
		if err := writePNG(out, img, opts.Compression); err != nil {
			return err
		}
	}
	return nil
}
