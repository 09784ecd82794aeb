package loader

import (
	"fmt"
	"strconv"
	"strings"

	"mos/memory"
	"mos/pcb"
)

/*
Loader parses the control-card batch format of §6: $AMJ header cards,
program text, a $DTA marker, data cards, and a $END trailer. Grounded
on the original source's loadJobs/loadProgramIntoMemory, adapted to
return PCBs for the scheduler to enqueue rather than pushing into a
package-level queue directly.

The source computes instructionsPerPage as PAGE_SIZE/WORD_SIZE (2) and
packs that many instructions into the front of each 10-word frame.
That value conflates a character count with a word count: it packs
instruction i into page (i/2) at offset (i%2), while every
other address in this system (IC on fetch, and every GD/PD/LR/SR/CR
operand) is translated as a plain word index (page = VA/PAGE_SIZE).
For any program with more than two instructions the two schemes
disagree about where instruction 2 lives, and worse, a short program's
own natural echo target (the first word of its second page) lands on
top of an instruction the packed scheme placed there. loadProgram
instead places one instruction per word — consistent with how every
address is translated everywhere else — and always reserves at least
two pages of virtual address space per job, so a short program still
has mapped scratch words immediately past its own code for GD/PD/LR
operands to target instead of faulting.
*/

// ErrFrameExhausted is returned when no free frame remains for a
// page-table or a program page. The original throws here; loader
// failures are batch-fatal per the propagation policy.
var ErrFrameExhausted = fmt.Errorf("loader: frame exhausted")

// Load reads every control-card job out of lines and returns the PCBs
// in arrival order, ready for the scheduler to enqueue at $END. mem
// receives the program text; failure to allocate a frame aborts the
// whole batch.
func Load(lines []string, mem *memory.Memory) ([]*pcb.PCB, error) {
	var jobs []*pcb.PCB

	var current *pcb.PCB
	var programLines []string
	readingData := false

	flush := func() error {
		if current == nil || len(programLines) == 0 {
			return nil
		}
		if err := loadProgram(current, programLines, mem); err != nil {
			return err
		}
		programLines = nil
		return nil
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "$AMJ"):
			job, err := parseAMJ(line, mem)
			if err != nil {
				return nil, err
			}
			current = job
			programLines = nil
			readingData = false

		case strings.HasPrefix(line, "$DTA"):
			readingData = true
			if err := flush(); err != nil {
				return nil, err
			}

		case strings.HasPrefix(line, "$END"):
			readingData = false
			if current != nil {
				jobs = append(jobs, current)
			}
			current = nil

		case readingData && current != nil:
			current.DataCards = append(current.DataCards, line)

		case current != nil:
			programLines = append(programLines, line)
		}
	}

	return jobs, nil
}

// parseAMJ parses a "$AMJppppttttllll" header card (pid, TTL, TLL, each
// four decimal digits) and allocates the PCB's page-table frame.
func parseAMJ(line string, mem *memory.Memory) (*pcb.PCB, error) {
	body := strings.TrimPrefix(line, "$AMJ")
	if len(body) < 12 {
		return nil, fmt.Errorf("loader: malformed $AMJ card %q", line)
	}

	pid, err := strconv.Atoi(body[0:4])
	if err != nil {
		return nil, fmt.Errorf("loader: bad pid in %q: %w", line, err)
	}
	ttl, err := strconv.Atoi(body[4:8])
	if err != nil {
		return nil, fmt.Errorf("loader: bad TTL in %q: %w", line, err)
	}
	tll, err := strconv.Atoi(body[8:12])
	if err != nil {
		return nil, fmt.Errorf("loader: bad TLL in %q: %w", line, err)
	}

	frame, ok := mem.AllocateFrame()
	if !ok {
		return nil, ErrFrameExhausted
	}

	p := pcb.New(pid, ttl, tll)
	p.PTR = frame * memory.PageSize
	mem.LockFrame(frame)
	return p, nil
}

// minProgramPages is the smallest number of pages loadProgram will
// reserve for a job, even one with fewer instructions than a single
// page holds: it guarantees every job has mapped scratch words just
// past its own code for operand addresses like the canonical "echo to
// VA 10" pattern.
const minProgramPages = 2

// loadProgram trims, filters and paginates program text into p's page
// table, one instruction per word.
func loadProgram(p *pcb.PCB, rawLines []string, mem *memory.Memory) error {
	var instructions []string
	for _, l := range rawLines {
		l = strings.TrimSpace(l)
		if l != "" {
			instructions = append(instructions, l)
		}
	}

	pagesNeeded := (len(instructions) + memory.PageSize - 1) / memory.PageSize
	if pagesNeeded < minProgramPages {
		pagesNeeded = minProgramPages
	}

	for page := 0; page < pagesNeeded && page < memory.FrameCount; page++ {
		frame, ok := mem.AllocateFrame()
		if !ok {
			return ErrFrameExhausted
		}
		p.PageTable[page] = memory.PageTableEntry{Frame: frame, Valid: true}

		start := page * memory.PageSize
		end := start + memory.PageSize
		if end > len(instructions) {
			end = len(instructions)
		}
		for i := start; i < end; i++ {
			ra := frame*memory.PageSize + (i - start)
			mem.WriteWord(ra, memory.NewWord(instructions[i]))
		}
	}

	return nil
}
