// Package parallel runs independent per-tile jobs on a fixed set of workers.
package parallel

import (
	"runtime"
	"sync"
)

type (
	WorkerFunc func(func())
	WaitFunc   func(done bool)
	CancelFunc func()
)

// Pool hands functions to workers. With a single worker Do runs the
// function inline and Wait returns immediately.
type Pool struct {
	wg      sync.WaitGroup
	pending sync.WaitGroup
	workers int
	Do      WorkerFunc
	Wait    WaitFunc
	Cancel  CancelFunc
}

// Start creates a pool. numWorkers < 1 selects GOMAXPROCS.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	pool := &Pool{
		workers: numWorkers,
		Do: func(f func()) {
			f()
		},
		Wait:   func(bool) {},
		Cancel: func() {},
	}

	if numWorkers > 1 {
		workChan := make(chan func(), numWorkers)

		for range numWorkers {
			pool.wg.Go(func() {
				for {
					f, ok := <-workChan
					if !ok {
						return
					}
					f()
					pool.pending.Done()
				}
			})
		}

		pool.Do = func(f func()) {
			pool.pending.Add(1)
			workChan <- f
		}

		// Wait(false) is a barrier: it returns once every submitted
		// function has finished and leaves the workers running.
		pool.Wait = func(done bool) {
			pool.pending.Wait()
			if done {
				pool.Cancel()
				pool.wg.Wait()
			}
		}
		pool.Cancel = sync.OnceFunc(func() { close(workChan) })
	}

	return pool
}

// Workers reports the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

// Each calls fn(i) for every i in [0, n) and returns when all calls are done.
// Callers must make sure distinct indexes touch distinct data.
func (p *Pool) Each(n int, fn func(i int)) {
	for i := range n {
		p.Do(func() { fn(i) })
	}
	p.Wait(false)
}
