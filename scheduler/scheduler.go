package scheduler

import "mos/pcb"

/*
Scheduler is a FIFO ready queue with quantum-driven preemption (§4.G).
Grounded on the teacher's currentPCB/readyQueue split in system.go and
on other_examples' resched.go for the shape of a reschedule operation,
but simplified to plain FIFO: this simulator has no priority field to
sort by, only arrival order.
*/

// DefaultQuantum is the number of ticks between preemption checks.
const DefaultQuantum = 10

// Scheduler holds the ready queue and the currently running PCB.
type Scheduler struct {
	Quantum int
	ready   []*pcb.PCB
	current *pcb.PCB
}

// New returns a Scheduler with the given quantum.
func New(quantum int) *Scheduler {
	return &Scheduler{Quantum: quantum}
}

// Enqueue appends p to the tail of the ready queue.
func (s *Scheduler) Enqueue(p *pcb.PCB) {
	s.ready = append(s.ready, p)
}

// Current returns the PCB the executor is currently running, or nil.
func (s *Scheduler) Current() *pcb.PCB {
	return s.current
}

// Dispatch pops the head of the ready queue and makes it current. ok is
// false if the ready queue is empty.
func (s *Scheduler) Dispatch() (p *pcb.PCB, ok bool) {
	if len(s.ready) == 0 {
		return nil, false
	}
	p = s.ready[0]
	s.ready = s.ready[1:]
	s.current = p
	return p, true
}

// Retire drops the current PCB without re-enqueuing it, for use after
// termination.
func (s *Scheduler) Retire() {
	s.current = nil
}

// AtQuantumBoundary reports whether tick lands on a quantum boundary.
func (s *Scheduler) AtQuantumBoundary(tick int) bool {
	return s.Quantum > 0 && tick%s.Quantum == 0
}

// Preempt enqueues the current PCB at the tail and dequeues the new
// head as current, per §4.G. It is a no-op (the running job keeps
// going) if the ready queue is empty. ok reports whether a switch
// happened.
func (s *Scheduler) Preempt() (next *pcb.PCB, ok bool) {
	if len(s.ready) == 0 {
		return s.current, false
	}
	old := s.current
	s.ready = append(s.ready, old)
	next, _ = s.Dispatch()
	return next, true
}

// Empty reports whether the ready queue has no waiting jobs.
func (s *Scheduler) Empty() bool {
	return len(s.ready) == 0
}
