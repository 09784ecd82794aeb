package cpu

import (
	"strconv"

	"mos/memory"
	"mos/psw"
)

/*
CPU holds the per-job execution state the original keeps directly on
its MOS object: the condition/cause word, the instruction register,
the instruction counter, the data register and the last-mapped real
address. One CPU is shared by whichever job is currently running;
Restore/Save on the PCB swap IC/R/C across a block.
*/
type CPU struct {
	psw.Word
	IR string
	IC int
	R  memory.Word
	RA int
}

// Decoded is the result of splitting a trimmed instruction string into
// its opcode and operand, per §4.I's decode table.
type Decoded struct {
	Op      string
	Operand string
	Addr    int
	HasAddr bool
}

// Decode splits ir (already trimmed of trailing nulls/spaces) into an
// opcode and operand. H is checked before the length floor since it is
// the one valid zero-operand opcode; anything else shorter than three
// characters can't hold a two-character opcode plus an operand digit
// and is an opcode error. A present but non-numeric operand is reported
// separately from an unrecognized opcode: one is an operand error, the
// other an opcode error.
func Decode(ir string) (d Decoded, opErr bool, operandErr bool) {
	if ir == "H" {
		return Decoded{Op: "H"}, false, false
	}
	if len(ir) < 3 {
		return Decoded{}, true, false
	}

	op := ir[:2]
	operand := ir[2:]

	switch op {
	case "GD", "PD", "LR", "SR", "CR", "BT":
		n, err := strconv.Atoi(operand)
		if err != nil {
			return Decoded{Op: op, Operand: operand}, false, true
		}
		return Decoded{Op: op, Operand: operand, Addr: n, HasAddr: true}, false, false
	default:
		return Decoded{}, true, false
	}
}

// Outcome tells the executor what to do once Execute returns.
type Outcome int

const (
	// Continue means the instruction ran (or raised a cause); the
	// executor should fall through to its end-of-cycle dispatch check.
	Continue Outcome = iota
	// TerminateNow means the opcode itself was invalid: the original
	// terminates directly here rather than waiting for dispatch.
	TerminateNow
)

// Execute runs one decoded instruction against pt/mem. GD and PD only
// arm their syscall cause (SI); the read and write handlers that
// actually move data live in the system package, since they also
// touch the PCB's data-card queue and line counters.
func Execute(c *CPU, pt *memory.PageTable, mem *memory.Memory, d Decoded) Outcome {
	switch d.Op {
	case "H":
		c.SetSI(psw.SITerm)
		return Continue

	case "GD":
		// RA is left as the raw virtual base address; the read handler
		// maps each word offset itself as it writes successive cards.
		c.RA = d.Addr
		c.SetSI(psw.SIRead)
		return Continue

	case "PD":
		ra, fault, ok := memory.Translate(pt, d.Addr)
		if !ok {
			c.SetPI(fault)
			return Continue
		}
		c.RA = ra
		c.SetSI(psw.SIWrite)
		return Continue

	case "LR", "SR", "CR", "BT":
		ra, fault, ok := memory.Translate(pt, d.Addr)
		if !ok {
			c.SetPI(fault)
			return Continue
		}
		switch d.Op {
		case "LR":
			c.R = mem.ReadWord(ra)
		case "SR":
			mem.WriteWord(ra, c.R)
		case "CR":
			c.SetC(c.R == mem.ReadWord(ra))
		case "BT":
			if c.C() {
				c.IC = d.Addr
			}
		}
		return Continue

	default:
		c.SetPI(psw.PIOpErr)
		return TerminateNow
	}
}

// FetchResult carries what one fetch step produced, ready for Decode.
type FetchResult struct {
	IR   string
	Next int
}

// Fetch maps IC through pt, reads the word there, trims it to an
// instruction string and returns IC+1 as the next instruction counter.
// ok is false on a translation failure, and the returned int is then
// the PI cause memory.Translate reported; Fetch sets no cause itself,
// so raising it is left to the caller.
func Fetch(pt *memory.PageTable, mem *memory.Memory, ic int) (FetchResult, int, bool) {
	ra, fault, ok := memory.Translate(pt, ic)
	if !ok {
		return FetchResult{}, fault, false
	}
	word := mem.ReadWord(ra)
	return FetchResult{IR: word.String(), Next: ic + 1}, psw.PINone, true
}
