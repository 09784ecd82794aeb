package scheduler

import (
	"testing"

	"mos/pcb"
)

func TestDispatch_FIFOOrder(t *testing.T) {
	s := New(DefaultQuantum)
	a := pcb.New(1, 10, 10)
	b := pcb.New(2, 10, 10)
	s.Enqueue(a)
	s.Enqueue(b)

	p, ok := s.Dispatch()
	if !ok || p != a {
		t.Fatalf("Dispatch() = %v, want first-enqueued job a", p)
	}
	if s.Current() != a {
		t.Errorf("Current() = %v, want a", s.Current())
	}

	_, ok = s.Dispatch()
	if !ok {
		t.Fatalf("Dispatch() on queue with one entry left failed")
	}
}

func TestDispatch_EmptyQueue(t *testing.T) {
	s := New(DefaultQuantum)
	if _, ok := s.Dispatch(); ok {
		t.Errorf("Dispatch() on empty queue returned ok = true")
	}
}

func TestPreempt_RotatesCurrentToTail(t *testing.T) {
	s := New(DefaultQuantum)
	a := pcb.New(1, 10, 10)
	b := pcb.New(2, 10, 10)
	s.Enqueue(a)
	s.Dispatch()
	s.Enqueue(b)

	next, ok := s.Preempt()
	if !ok || next != b {
		t.Fatalf("Preempt() = (%v, %v), want (b, true)", next, ok)
	}

	next, ok = s.Preempt()
	if !ok || next != a {
		t.Fatalf("Preempt() after rotation = (%v, %v), want (a, true)", next, ok)
	}
}

func TestPreempt_NoOpWhenQueueEmpty(t *testing.T) {
	s := New(DefaultQuantum)
	a := pcb.New(1, 10, 10)
	s.Enqueue(a)
	s.Dispatch()

	next, ok := s.Preempt()
	if ok {
		t.Errorf("Preempt() on solitary job returned ok = true")
	}
	if next != a {
		t.Errorf("Preempt() changed current to %v, want a unchanged", next)
	}
}

func TestAtQuantumBoundary(t *testing.T) {
	s := New(10)
	tests := []struct {
		tick int
		want bool
	}{
		{0, true},
		{5, false},
		{10, true},
		{20, true},
		{21, false},
	}
	for _, tt := range tests {
		if got := s.AtQuantumBoundary(tt.tick); got != tt.want {
			t.Errorf("AtQuantumBoundary(%d) = %v, want %v", tt.tick, got, tt.want)
		}
	}
}

func TestRetire_ClearsCurrentWithoutRequeue(t *testing.T) {
	s := New(DefaultQuantum)
	a := pcb.New(1, 10, 10)
	s.Enqueue(a)
	s.Dispatch()

	s.Retire()

	if s.Current() != nil {
		t.Errorf("Retire() left Current() = %v, want nil", s.Current())
	}
	if !s.Empty() {
		t.Errorf("Retire() left ready queue non-empty")
	}
}
