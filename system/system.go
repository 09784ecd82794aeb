package system

import (
	"fmt"
	"log"

	"mos/console"
	"mos/cpu"
	"mos/interrupts"
	"mos/loader"
	"mos/memory"
	"mos/pcb"
	"mos/psw"
	"mos/scheduler"
)

/*
System is the simulator's top-level aggregate, replacing the teacher's
global unibus/console/log trio with one struct every operation takes
explicitly, per the single-owner redesign this spec calls for. Run and
step follow the teacher's Run/run/step split; the interrupt-queue draining
in step() is replaced by a single interrupts.Dispatch call, since this
CPU has three scalar cause fields instead of a priority queue.
*/

// MaxTimer bounds the global tick before the whole batch halts (§4.I).
const MaxTimer = 1_000_000

// System is the simulator aggregate: memory, scheduler, console and
// logger, wired together for one batch run.
type System struct {
	Mem     *memory.Memory
	Sched   *scheduler.Scheduler
	Console console.Sink
	Log     *log.Logger

	// MaxTimer overrides the package MaxTimer default; New sets it, but
	// callers needing a shorter or longer ceiling (e.g. the -maxtimer
	// flag) may change it before calling Run.
	MaxTimer int

	tick    int
	running bool
}

// New returns a System ready to load and run a batch.
func New(quantum int, out console.Sink, log *log.Logger) *System {
	return &System{
		Mem:      memory.New(),
		Sched:    scheduler.New(quantum),
		Console:  out,
		Log:      log,
		MaxTimer: MaxTimer,
		running:  true,
	}
}

// LoadBatch parses control cards and enqueues every job in arrival
// order.
func (sys *System) LoadBatch(lines []string) error {
	jobs, err := loader.Load(lines, sys.Mem)
	if err != nil {
		return fmt.Errorf("system: load batch: %w", err)
	}
	for _, p := range jobs {
		sys.Sched.Enqueue(p)
	}
	return nil
}

// Run drives the executor until the batch is exhausted or the global
// tick reaches MaxTimer (§4.I).
func (sys *System) Run() {
	var c cpu.CPU

	for sys.running && sys.tick < sys.MaxTimer {
		current := sys.Sched.Current()
		if current == nil {
			p, ok := sys.Sched.Dispatch()
			if !ok {
				sys.Log.Printf("no more processes to execute")
				sys.running = false
				break
			}
			current = p
			ic, r, cflag := current.Start()
			c = cpu.CPU{IC: ic, R: r}
			c.SetC(cflag)
			sys.Log.Printf("starting execution of process %d", current.PID)
		}

		sys.step(&c, current)
	}

	if sys.tick >= sys.MaxTimer {
		sys.Log.Printf("system halted: maximum time limit reached")
	}
}

// cycleOutcome tells step what happened during fetch/decode/execute.
type cycleOutcome int

const (
	// cycleRan means the instruction executed (or raised a cause); the
	// caller falls through to the tick/TTC increment and dispatch.
	cycleRan cycleOutcome = iota
	// cycleTerminated means the opcode itself was invalid: the original
	// terminates directly here rather than waiting for dispatch.
	cycleTerminated
	// cycleStopped means fetch ran off the end of the job's code — IC
	// pointed at an unmapped page, or at a word nothing ever wrote —
	// and the job has nothing left to execute. This is not a job
	// error: the scheduler moves on without a termination reason.
	cycleStopped
)

// step runs one instruction cycle for p (§4.I): the time-limit check,
// fetch/decode/execute, the tick/TTC bookkeeping, interrupt dispatch,
// and quantum preemption.
func (sys *System) step(c *cpu.CPU, p *pcb.PCB) {
	if p.TTC >= p.TTL {
		// Bare "terminate" in the decode table (§4.I) means immediate,
		// unlike H's "terminate on dispatch": no instruction ran this
		// cycle, so TTC and the global tick are left untouched.
		sys.terminate(p, pcb.TimeLimit)
		sys.Sched.Retire()
		return
	}

	switch sys.fetchDecodeExecute(c, p) {
	case cycleTerminated:
		sys.Sched.Retire()
		return
	case cycleStopped:
		sys.stop(p)
		sys.Sched.Retire()
		return
	}

	p.TTC++
	sys.tick++

	if t, ok := sys.Console.(console.Tracer); ok {
		t.Tick(p.PID, c.IC, p.TTC, p.LLC, c.GetFlags())
	}

	if cause, ok := interrupts.Dispatch(&c.Word); ok {
		sys.dispatch(c, p, cause)
	}

	if p.Terminated {
		sys.Sched.Retire()
		return
	}

	if sys.Sched.AtQuantumBoundary(sys.tick) && !sys.Sched.Empty() {
		sys.preempt(c, p)
	}
}

// fetchDecodeExecute runs the fetch/decode/execute portion of one
// cycle.
func (sys *System) fetchDecodeExecute(c *cpu.CPU, p *pcb.PCB) cycleOutcome {
	fr, _, ok := cpu.Fetch(&p.PageTable, sys.Mem, c.IC)
	if !ok || fr.IR == "" {
		return cycleStopped
	}
	c.IR = fr.IR
	c.IC = fr.Next

	d, opErr, operandErr := cpu.Decode(c.IR)
	switch {
	case opErr:
		sys.terminate(p, pcb.OpCodeErr)
		return cycleTerminated
	case operandErr:
		c.SetPI(psw.PIOperandErr)
	default:
		if cpu.Execute(c, &p.PageTable, sys.Mem, d) == cpu.TerminateNow {
			sys.terminate(p, pcb.OpCodeErr)
			return cycleTerminated
		}
	}
	return cycleRan
}

// dispatch runs the vector-table algorithm of §4.E: save context,
// invoke the matching handler, clear the serviced cause (unless the
// handler itself overwrote it), and restore context if the job
// survived.
func (sys *System) dispatch(c *cpu.CPU, p *pcb.PCB, cause interrupts.Cause) {
	p.SaveContext(c.IC, c.R, c.C())

	sys.handle(c, p, cause)

	interrupts.Clear(cause, &c.Word)

	if !p.Terminated {
		ic, r, cflag := p.RestoreContext()
		c.IC = ic
		c.R = r
		c.SetC(cflag)
	}
}

func (sys *System) handle(c *cpu.CPU, p *pcb.PCB, cause interrupts.Cause) {
	switch cause.Namespace {
	case interrupts.Syscall:
		switch cause.Code {
		case psw.SIRead:
			sys.handleRead(c, p)
		case psw.SIWrite:
			sys.handleWrite(c, p)
		case psw.SITerm:
			reason := p.PendingReason
			sys.terminate(p, reason)
		}
	case interrupts.Program:
		switch cause.Code {
		case psw.PIOpErr:
			sys.terminate(p, pcb.OpCodeErr)
		case psw.PIOperandErr:
			sys.terminate(p, pcb.OperandErr)
		case psw.PIPageFault:
			sys.terminate(p, pcb.InvalidPage)
		}
	case interrupts.Timer:
		sys.terminate(p, pcb.TimeLimit)
	}
}

// handleRead implements the READ syscall (§4.F). RA is the raw
// virtual base address GD armed; each WORD_SIZE-character chunk of
// the popped card is mapped and written independently.
func (sys *System) handleRead(c *cpu.CPU, p *pcb.PCB) {
	card, ok := p.PopDataCard()
	if !ok {
		c.SetSI(psw.SITerm)
		p.PendingReason = pcb.OutOfData
		return
	}

	for start := 0; start < len(card); start += memory.WordSize {
		end := start + memory.WordSize
		if end > len(card) {
			end = len(card)
		}

		i := start / memory.WordSize
		ra, fault, ok := memory.Translate(&p.PageTable, c.RA+i)
		if !ok {
			c.SetPI(fault)
			return
		}
		sys.Mem.WriteWord(ra, memory.NewWord(card[start:end]))
	}
}

// handleWrite implements the WRITE syscall (§4.F). RA already holds
// the mapped real address, set by PD's Execute step.
func (sys *System) handleWrite(c *cpu.CPU, p *pcb.PCB) {
	p.LLC++
	if p.LLC > p.TLL {
		c.SetSI(psw.SITerm)
		p.PendingReason = pcb.LineLimit
		return
	}
	word := sys.Mem.ReadWord(c.RA)
	sys.Console.WriteConsole(word.String() + "\n")
}

// terminate runs §4.F's termination algorithm: emit and flush the
// reason block, release resources, and end the run if no job is left
// waiting. Selecting the next job is left to Run, once the caller has
// retired p.
func (sys *System) terminate(p *pcb.PCB, reason pcb.Reason) {
	block := fmt.Sprintf("\n\nProcess %d terminated: %s\nTTC: %d, LLC: %d\n",
		p.PID, reason.String(), p.TTC, p.LLC)
	sys.Console.WriteConsole(block)
	if f, ok := sys.Console.(interface{ Flush() error }); ok {
		f.Flush()
	}

	p.Terminate(reason, sys.Mem)

	if sys.Sched.Empty() {
		sys.running = false
	}
}

// stop retires p without a termination block (§8's zero-instruction
// boundary case): its frames are released exactly as a real
// termination would release them, but nothing is written to the
// console, since the job didn't fail — it simply had no more code to
// run.
func (sys *System) stop(p *pcb.PCB) {
	p.Terminate(pcb.NoErr, sys.Mem)
	if sys.Sched.Empty() {
		sys.running = false
	}
}

// preempt implements §4.G: save the running job's context, rotate it
// to the tail of the ready queue, and restore the new head. Callers
// only invoke this when the ready queue is known nonempty, so a
// switch always happens.
func (sys *System) preempt(c *cpu.CPU, p *pcb.PCB) {
	p.SaveContext(c.IC, c.R, c.C())

	next, _ := sys.Sched.Preempt()

	ic, r, cflag := next.RestoreContext()
	c.IC = ic
	c.R = r
	c.SetC(cflag)
}
