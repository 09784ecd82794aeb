package interrupts

import "mos/psw"

/**
 * Separate package mainly so that the priority table stays a pure-data
 * lookup instead of a vector of bound handler closures: the dispatcher
 * matches a pending Cause against this table and leaves calling the
 * right handler to the system package.
 */

// Namespace identifies which of the CPU's three cause fields a Cause
// came from.
type Namespace int

const (
	Syscall Namespace = iota
	Program
	Timer
)

func (n Namespace) String() string {
	switch n {
	case Syscall:
		return "SI"
	case Program:
		return "PI"
	case Timer:
		return "TI"
	default:
		return "?"
	}
}

// Cause is one entry of the interrupt vector table: a (namespace, code)
// pair paired with its dispatch priority. Higher Priority wins.
type Cause struct {
	Namespace Namespace
	Code      int
	Priority  int
}

// Priority classes, high to low: Timer > PageFault > Program > Syscall.
const (
	PriorityTimer     = 3
	PriorityPageFault = 2
	PriorityProgram   = 1
	PrioritySyscall   = 0
)

// Vector is the interrupt vector table, in the fixed order ties are
// broken by.
var Vector = []Cause{
	{Timer, psw.TITimeout, PriorityTimer},
	{Program, psw.PIPageFault, PriorityPageFault},
	{Program, psw.PIOpErr, PriorityProgram},
	{Program, psw.PIOperandErr, PriorityProgram},
	{Syscall, psw.SIRead, PrioritySyscall},
	{Syscall, psw.SIWrite, PrioritySyscall},
	{Syscall, psw.SITerm, PrioritySyscall},
}

// Pending returns every Cause in the vector table whose code is
// currently set on w.
func Pending(w *psw.Word) []Cause {
	var pending []Cause
	for _, c := range Vector {
		if matches(c, w) {
			pending = append(pending, c)
		}
	}
	return pending
}

// Dispatch picks the highest-priority pending cause, ties broken by
// vector-table order. ok is false if nothing is pending.
func Dispatch(w *psw.Word) (Cause, bool) {
	var best Cause
	found := false
	for _, c := range Vector {
		if !matches(c, w) {
			continue
		}
		if !found || c.Priority > best.Priority {
			best = c
			found = true
		}
	}
	return best, found
}

func matches(c Cause, w *psw.Word) bool {
	switch c.Namespace {
	case Timer:
		return w.TI() == c.Code
	case Program:
		return w.PI() == c.Code
	case Syscall:
		return w.SI() == c.Code
	default:
		return false
	}
}

// Clear resets the cause field the given Cause was dispatched from, but
// only if the handler left it untouched: a handler is allowed to
// overwrite its own cause field with a different code (the read and
// write handlers do this to escalate into a TERM), and that new code
// must survive to be picked up on the next dispatch rather than being
// wiped out here.
func Clear(c Cause, w *psw.Word) {
	switch c.Namespace {
	case Timer:
		if w.TI() == c.Code {
			w.SetTI(psw.TINone)
		}
	case Program:
		if w.PI() == c.Code {
			w.SetPI(psw.PINone)
		}
	case Syscall:
		if w.SI() == c.Code {
			w.SetSI(psw.SINone)
		}
	}
}
