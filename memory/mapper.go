package memory

import "mos/psw"

// PageTableEntry maps one virtual page to a physical frame.
type PageTableEntry struct {
	Frame int
	Valid bool
}

// PageTable is one PCB's page table: one entry per frame slot.
type PageTable [FrameCount]PageTableEntry

// NewPageTable returns a page table with every entry invalid.
func NewPageTable() PageTable {
	var pt PageTable
	for i := range pt {
		pt[i] = PageTableEntry{Frame: -1, Valid: false}
	}
	return pt
}

// Translate maps virtual address va to a real address through pt,
// following the decision order of §4.B exactly. On failure it returns
// the program-error cause the caller should raise (psw.PIOperandErr or
// psw.PIPageFault) instead of panicking, per the spec's explicit
// result-value discipline.
func Translate(pt *PageTable, va int) (ra int, fault int, ok bool) {
	if va < 0 || va >= MemSize {
		return 0, psw.PIOperandErr, false
	}

	page := va / PageSize
	offset := va % PageSize

	if page >= FrameCount {
		return 0, psw.PIPageFault, false
	}

	entry := pt[page]
	if !entry.Valid {
		return 0, psw.PIPageFault, false
	}

	frame := entry.Frame
	if frame < 0 || frame >= FrameCount {
		return 0, psw.PIPageFault, false
	}

	ra = frame*PageSize + offset
	if ra < 0 || ra >= MemSize {
		return 0, psw.PIOperandErr, false
	}

	return ra, psw.PINone, true
}
