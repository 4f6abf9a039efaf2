package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var BreakPointInst *BreakPoint

// InitBreakPoint opens the journal of the batch called name. Archives
// recorded there are skipped when the batch is run again.
func InitBreakPoint(name string) error {
	b, err := OpenBreakPoint(filepath.Join(conf.BreakPoint.SaveFilePath, name+".log"))
	if err != nil {
		return err
	}
	BreakPointInst = b
	SafeExitInst.Register(BreakPointInst.BreakPointSafeFun)
	return nil
}

func OpenBreakPoint(path string) (*BreakPoint, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("create break point dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open break point file: %w", err)
	}

	b := &BreakPoint{
		file:       file,
		saveChan:   make(chan string, 16),
		successMap: getBackPoint(file),
	}
	b.wg.Add(1)
	go b.Start()
	return b, nil
}

func getBackPoint(file *os.File) map[string]struct{} {
	res := make(map[string]struct{})
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			res[line] = struct{}{}
		}
	}
	return res
}

// BreakPoint records the names of finished archives.
type BreakPoint struct {
	file       *os.File
	saveChan   chan string
	successMap map[string]struct{}
	mu         sync.Mutex
	isClose    bool
	wg         sync.WaitGroup
}

func (b *BreakPoint) IsSuccessed(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.successMap[name]
	return ok
}

func (b *BreakPoint) SetSuccessed(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClose {
		return
	}
	b.successMap[name] = struct{}{}
	b.saveChan <- name
}

func (b *BreakPoint) Start() {
	defer b.wg.Done()
	for name := range b.saveChan {
		if _, err := b.file.WriteString(name + "\n"); err != nil {
			log.Warnf("write break point %s error, details: %s", name, err)
		}
	}
}

// BreakPointSafeFun flushes pending records and closes the file.
func (b *BreakPoint) BreakPointSafeFun() {
	b.mu.Lock()
	if b.isClose {
		b.mu.Unlock()
		return
	}
	b.isClose = true
	close(b.saveChan)
	b.mu.Unlock()

	b.wg.Wait()
	b.file.Close()
	log.Debugf("break point %s closed", b.file.Name())
}
