// Package workers provides long-lived worker goroutines that run a bound
// function on demand and report back when it returns.
//
// A Slot is driven by exactly one controller goroutine: Submit binds and
// starts a function, Rerun starts the bound function again and Join blocks
// until the current invocation has returned. A panic inside the bound
// function is recovered on the worker and re-raised by Join on the
// controller.
package workers

import (
	"errors"
	"fmt"
)

// ErrClosed is raised when a closed slot is asked to run.
var ErrClosed = errors.New("worker slot is closed")

// ErrNothingBound is raised by Rerun before any Submit.
var ErrNothingBound = errors.New("worker slot has no bound function")

// Slot is a single long-lived worker goroutine.
type Slot struct {
	id     int
	fn     func()
	run    chan struct{}
	done   chan any
	busy   bool
	closed bool
	runs   int
}

// NewSlot starts the worker goroutine of slot id.
func NewSlot(id int) *Slot {
	s := &Slot{
		id:   id,
		run:  make(chan struct{}),
		done: make(chan any, 1),
	}
	go s.loop()
	return s
}

func (s *Slot) loop() {
	for range s.run {
		s.done <- s.invoke()
	}
}

func (s *Slot) invoke() (recovered any) {
	defer func() {
		recovered = recover()
	}()
	s.fn()
	return nil
}

// ID returns the slot index.
func (s *Slot) ID() int {
	return s.id
}

// Runs returns how many invocations the slot has started.
func (s *Slot) Runs() int {
	return s.runs
}

// Submit binds fn and starts it. A still running invocation is joined first.
func (s *Slot) Submit(fn func()) {
	if fn == nil {
		panic(fmt.Errorf("worker %d: %w", s.id, ErrNothingBound))
	}
	s.Join()
	s.fn = fn
	s.start()
}

// Rerun starts the bound function again.
func (s *Slot) Rerun() {
	if s.fn == nil {
		panic(fmt.Errorf("worker %d: %w", s.id, ErrNothingBound))
	}
	s.Join()
	s.start()
}

func (s *Slot) start() {
	if s.closed {
		panic(fmt.Errorf("worker %d: %w", s.id, ErrClosed))
	}
	s.busy = true
	s.runs++
	s.run <- struct{}{}
}

// Join blocks until the running invocation returns. It is a no-op when the
// slot is idle.
func (s *Slot) Join() {
	if !s.busy {
		return
	}
	p := <-s.done
	s.busy = false
	if p != nil {
		panic(p)
	}
}

// Close joins the slot and stops its goroutine. Close is idempotent.
func (s *Slot) Close() {
	if s.closed {
		return
	}
	defer func() {
		s.closed = true
		close(s.run)
	}()
	s.Join()
}
