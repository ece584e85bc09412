package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned when work is submitted to, or was pending on, a
// sequencer that has been torn down. Results for a stopped owner must be
// discarded.
var ErrStopped = errors.New("sequencer stopped")

// Sequencer is the single owner of a controller's state. All mutations run
// one at a time on its loop goroutine, so controller state needs no locks.
// Network calls happen outside the loop; their results come back through Do
// and are applied only while the sequencer is alive.
type Sequencer struct {
	name    string
	inbox   chan task
	done    chan struct{}
	stop    sync.Once
	wg      sync.WaitGroup
	alive   atomic.Bool
	applied atomic.Uint64
}

type task struct {
	fn       func()
	finished chan struct{}
}

// NewSequencer creates and starts a sequencer. inboxSize bounds the number
// of queued mutations.
func NewSequencer(name string, inboxSize int) *Sequencer {
	if inboxSize <= 0 {
		inboxSize = 64
	}
	s := &Sequencer{
		name:  name,
		inbox: make(chan task, inboxSize),
		done:  make(chan struct{}),
	}
	s.alive.Store(true)
	s.wg.Add(1)
	go s.run()
	return s
}

// Do runs fn on the loop and waits for it to finish. It returns ErrStopped
// if the sequencer is (or becomes) stopped before fn runs, and ctx.Err() if
// ctx ends first. A fn that was accepted still runs even if ctx ends while
// waiting.
func (s *Sequencer) Do(ctx context.Context, fn func()) error {
	if !s.alive.Load() {
		return ErrStopped
	}

	t := task{fn: fn, finished: make(chan struct{})}
	select {
	case s.inbox <- t:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-t.finished:
		return nil
	case <-s.done:
		// The loop may have exited with t still queued.
		select {
		case <-t.finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Alive reports whether results may still be applied.
func (s *Sequencer) Alive() bool {
	return s.alive.Load()
}

// Applied returns how many tasks have run. Useful for diagnostics.
func (s *Sequencer) Applied() uint64 {
	return s.applied.Load()
}

// Stop tears the loop down and waits for the running task, if any.
// Queued tasks are dropped.
func (s *Sequencer) Stop() {
	s.stop.Do(func() {
		s.alive.Store(false)
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Sequencer) run() {
	defer s.wg.Done()
	slog.Debug("Sequencer started", slog.String("owner", s.name))

	for {
		select {
		case <-s.done:
			slog.Debug("Sequencer stopping", slog.String("owner", s.name))
			return
		case t := <-s.inbox:
			s.exec(t)
		}
	}
}

func (s *Sequencer) exec(t task) {
	defer close(t.finished)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED",
				slog.String("owner", s.name),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	t.fn()
	s.applied.Add(1)
}
