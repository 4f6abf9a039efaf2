package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var SafeExitInst *SafeExit

func InitSafeExit() {
	ctx, cancel := context.WithCancel(context.Background())
	SafeExitInst = &SafeExit{ctx: ctx, cancel: cancel}
	go SafeExitInst.ListenSignal()
}

// SafeExit runs registered cleanups on the first termination signal and
// cancels the shared context. A second signal exits at once.
type SafeExit struct {
	ctx    context.Context
	cancel context.CancelFunc
	funcs  []func()
	mu     sync.Mutex
	once   sync.Once
}

// Context is cancelled when a termination signal arrives.
func (s *SafeExit) Context() context.Context {
	return s.ctx
}

func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funcs = append(s.funcs, f)
}

// Shutdown runs the cleanups in reverse registration order. Only the first
// call has an effect.
func (s *SafeExit) Shutdown() {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.funcs) - 1; i >= 0; i-- {
			s.funcs[i]()
		}
	})
}

func (s *SafeExit) ListenSignal() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	first := true
	for sig := range sigs {
		if !first {
			fmt.Fprintf(os.Stderr, "got signal %v again, exiting\n", sig)
			os.Exit(1)
		}
		first = false
		fmt.Fprintf(os.Stderr, "got signal %v, stopping, please wait\n", sig)
		s.cancel()
	}
}
