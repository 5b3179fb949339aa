package workers

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestSlotSubmitAndJoin(t *testing.T) {
	s := NewSlot(0)
	defer s.Close()

	var calls int32
	s.Submit(func() { atomic.AddInt32(&calls, 1) })
	s.Join()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("Expected 1 call, got %d", got)
	}
	if s.Runs() != 1 {
		t.Errorf("Expected 1 run, got %d", s.Runs())
	}
}

func TestSlotRerun(t *testing.T) {
	s := NewSlot(3)
	defer s.Close()

	counter := 0
	s.Submit(func() { counter++ })
	s.Join()
	for i := 0; i < 4; i++ {
		s.Rerun()
		s.Join()
	}

	if counter != 5 {
		t.Fatalf("Expected 5 invocations, got %d", counter)
	}
	if s.ID() != 3 {
		t.Errorf("Expected ID 3, got %d", s.ID())
	}
}

func TestSlotJoinIdle(t *testing.T) {
	s := NewSlot(0)
	defer s.Close()
	// nothing submitted, must not block
	s.Join()
}

func TestSlotRerunWithoutSubmitPanics(t *testing.T) {
	s := NewSlot(1)
	defer s.Close()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNothingBound) {
			t.Fatalf("Expected ErrNothingBound panic, got %v", r)
		}
	}()
	s.Rerun()
}

func TestSlotPanicSurfacesOnJoin(t *testing.T) {
	s := NewSlot(0)
	defer s.Close()

	s.Submit(func() { panic("boom") })

	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("Expected panic 'boom' on join, got %v", r)
		}
		// the slot stays usable after a recovered panic
		ran := false
		s.Submit(func() { ran = true })
		s.Join()
		if !ran {
			t.Error("Expected slot to run again after panic")
		}
	}()
	s.Join()
}

func TestSlotClosedPanics(t *testing.T) {
	s := NewSlot(0)
	s.Submit(func() {})
	s.Close()
	s.Close()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrClosed) {
			t.Fatalf("Expected ErrClosed panic, got %v", r)
		}
	}()
	s.Rerun()
}

func TestPoolRunsSlotsConcurrently(t *testing.T) {
	const n = 4
	p := NewPool(n)
	defer p.Close()

	if p.Size() != n {
		t.Fatalf("Expected size %d, got %d", n, p.Size())
	}

	// every slot waits for all others to start: only completes if they run in parallel
	var started int32
	release := make(chan struct{})
	for i := 0; i < n; i++ {
		p.Slot(i).Submit(func() {
			if atomic.AddInt32(&started, 1) == n {
				close(release)
			}
			<-release
		})
	}
	p.JoinAll()

	if got := atomic.LoadInt32(&started); got != n {
		t.Fatalf("Expected %d started slots, got %d", n, got)
	}
}

func TestPoolJoinAllReRaisesFirstPanic(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	var finished int32
	p.Slot(0).Submit(func() { atomic.AddInt32(&finished, 1) })
	p.Slot(1).Submit(func() { panic("slot 1") })
	p.Slot(2).Submit(func() { atomic.AddInt32(&finished, 1) })

	defer func() {
		if r := recover(); r != "slot 1" {
			t.Fatalf("Expected panic from slot 1, got %v", r)
		}
		if got := atomic.LoadInt32(&finished); got != 2 {
			t.Errorf("Expected the other slots to be joined, got %d finished", got)
		}
	}()
	p.JoinAll()
}
