package pcb

import "mos/memory"

/*
Process control block: the per-job descriptor, grounded on the
original source's PCB struct and on other_examples' jbecerra0 pcb.go
(a state enum with a String() method, a small constructor).
*/

// State is the lifecycle state of a job.
type State int

const (
	Ready State = iota
	Running
	Blocked
	Terminated
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	case Terminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Reason is a job termination reason code (§7).
type Reason int

const (
	NoErr Reason = iota
	OutOfData
	LineLimit
	TimeLimit
	OpCodeErr
	OperandErr
	InvalidPage
)

func (r Reason) String() string {
	switch r {
	case NoErr:
		return "Normal termination"
	case OutOfData:
		return "Out of data"
	case LineLimit:
		return "Line limit exceeded"
	case TimeLimit:
		return "Time limit exceeded"
	case OpCodeErr:
		return "Invalid operation code"
	case OperandErr:
		return "Invalid operand"
	case InvalidPage:
		return "Invalid page access"
	default:
		return "Unknown termination reason"
	}
}

// Context is the CPU snapshot saved across a block/restore cycle.
type Context struct {
	IC int
	R  memory.Word
	C  bool
}

// noIC is the sentinel meaning "never run" (§4.C).
const noIC = -1

// PCB is the per-job descriptor.
type PCB struct {
	PID int
	TTL int
	TLL int
	TTC int
	LLC int

	PageTable memory.PageTable
	PTR       int // word address of the page-table frame, or -1 if unset

	DataCards []string

	Terminated bool
	Context    Context
	State      State

	// PendingReason is set by a handler that raises a TERM cause for a
	// specific reason (out of data, line limit) before the TERM
	// handler itself runs and consumes it. NoErr by default, which is
	// the reason for H and for the explicit terminate syscall.
	PendingReason Reason

	// TerminationReason is the reason Terminate was finally called
	// with; only meaningful once Terminated is true.
	TerminationReason Reason
}

// New returns a freshly loaded PCB, ready to be attached to its page
// table and data cards by the loader.
func New(pid, ttl, tll int) *PCB {
	return &PCB{
		PID:       pid,
		TTL:       ttl,
		TLL:       tll,
		PageTable: memory.NewPageTable(),
		PTR:       -1,
		State:     Ready,
		Context:   Context{IC: noIC},
	}
}

// SaveContext snapshots the running CPU state into the PCB and marks it
// blocked, as required by §4.C.
func (p *PCB) SaveContext(ic int, r memory.Word, c bool) {
	p.Context = Context{IC: ic, R: r, C: c}
	p.State = Blocked
}

// RestoreContext marks the PCB running and returns the CPU state to
// resume with. A PCB that has never run (IC still at the sentinel)
// resumes at IC = 0 rather than at the sentinel itself. Used when the
// same job picks back up after a quantum preemption or an interrupt
// handler returns control to it: its saved IC is genuinely where it
// left off.
func (p *PCB) RestoreContext() (ic int, r memory.Word, c bool) {
	p.State = Running
	ic = p.Context.IC
	if ic == noIC {
		ic = 0
	}
	return ic, p.Context.R, p.Context.C
}

// Start marks p running and forces IC to 0, discarding any IC a prior
// quantum preemption saved. The scheduler's post-termination reselection
// (§4.F step g) always starts the next job from scratch, unconditionally
// — the original zeroes cpu.IC the same way at every termination
// handoff (MOS_Phase_3.cpp:561), regardless of whether that job had
// already run and been preempted before.
func (p *PCB) Start() (ic int, r memory.Word, c bool) {
	p.State = Running
	p.Context.IC = 0
	return 0, p.Context.R, p.Context.C
}

// PopDataCard removes and returns the front data card. ok is false if
// none remain.
func (p *PCB) PopDataCard() (card string, ok bool) {
	if len(p.DataCards) == 0 {
		return "", false
	}
	card = p.DataCards[0]
	p.DataCards = p.DataCards[1:]
	return card, true
}

// Terminate runs the resource-release algorithm of §4.F: release the
// page-table frame, release every valid page-table entry's frame,
// clear data cards, and mark the PCB terminated. The final reason is
// recorded in TerminationReason; nothing is returned.
func (p *PCB) Terminate(reason Reason, mem *memory.Memory) {
	if p.PTR != -1 {
		frame := p.PTR / memory.PageSize
		mem.ReleaseFrame(frame)
	}

	for i := range p.PageTable {
		if p.PageTable[i].Valid {
			mem.ReleaseFrame(p.PageTable[i].Frame)
			p.PageTable[i].Valid = false
		}
	}

	p.DataCards = nil
	p.Terminated = true
	p.State = Terminated
	p.TerminationReason = reason
}
