package cpu

import (
	"testing"

	"mos/memory"
	"mos/psw"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name          string
		ir            string
		wantOp        string
		wantAddr      int
		wantHasAddr   bool
		wantOpErr     bool
		wantOperandEr bool
	}{
		{"halt has no operand", "H", "H", 0, false, false, false},
		{"load with address", "LR10", "LR", 10, true, false, false},
		{"branch with address", "BT5", "BT", 5, true, false, false},
		{"non-numeric operand", "LRxx", "LR", 0, false, false, true},
		{"unrecognized opcode", "XY10", "", 0, false, true, false},
		{"too short for an opcode", "LR", "", 0, false, true, false},
		{"empty string", "", "", 0, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, opErr, operandErr := Decode(tt.ir)
			if opErr != tt.wantOpErr || operandErr != tt.wantOperandEr {
				t.Fatalf("Decode(%q) = (opErr=%v, operandErr=%v), want (%v, %v)",
					tt.ir, opErr, operandErr, tt.wantOpErr, tt.wantOperandEr)
			}
			if opErr || operandErr {
				return
			}
			if d.Op != tt.wantOp || d.Addr != tt.wantAddr || d.HasAddr != tt.wantHasAddr {
				t.Errorf("Decode(%q) = %+v, want Op=%q Addr=%d HasAddr=%v",
					tt.ir, d, tt.wantOp, tt.wantAddr, tt.wantHasAddr)
			}
		})
	}
}

func mappedPageTable() *memory.PageTable {
	pt := memory.NewPageTable()
	pt[0] = memory.PageTableEntry{Frame: 0, Valid: true}
	return &pt
}

func TestExecute_Halt(t *testing.T) {
	var c CPU
	pt := mappedPageTable()
	mem := memory.New()

	if got := Execute(&c, pt, mem, Decoded{Op: "H"}); got != Continue {
		t.Fatalf("Execute(H) = %v, want Continue", got)
	}
	if c.SI() != psw.SITerm {
		t.Errorf("Execute(H) SI = %d, want %d", c.SI(), psw.SITerm)
	}
}

func TestExecute_GD_ArmsReadWithoutMapping(t *testing.T) {
	var c CPU
	pt := mappedPageTable()
	mem := memory.New()

	Execute(&c, pt, mem, Decoded{Op: "GD", Addr: 3, HasAddr: true})

	if c.SI() != psw.SIRead {
		t.Errorf("Execute(GD) SI = %d, want %d", c.SI(), psw.SIRead)
	}
	if c.RA != 3 {
		t.Errorf("Execute(GD) RA = %d, want raw virtual address 3", c.RA)
	}
}

func TestExecute_PD_MapsAddressBeforeArmingWrite(t *testing.T) {
	var c CPU
	pt := mappedPageTable()
	mem := memory.New()

	Execute(&c, pt, mem, Decoded{Op: "PD", Addr: 3, HasAddr: true})

	if c.SI() != psw.SIWrite {
		t.Errorf("Execute(PD) SI = %d, want %d", c.SI(), psw.SIWrite)
	}
	if c.RA != 3 {
		t.Errorf("Execute(PD) RA = %d, want mapped real address 3", c.RA)
	}
}

func TestExecute_PD_UnmappedOperandPropagatesFaultWithoutArming(t *testing.T) {
	var c CPU
	pt := memory.NewPageTable()
	mem := memory.New()

	Execute(&c, &pt, mem, Decoded{Op: "PD", Addr: 50, HasAddr: true})

	if c.SI() != psw.SINone {
		t.Errorf("Execute(PD) SI = %d, want unset on translation failure", c.SI())
	}
	if c.PI() != psw.PIPageFault {
		t.Errorf("Execute(PD) PI = %d, want %d", c.PI(), psw.PIPageFault)
	}
}

func TestExecute_LoadStoreRoundTrip(t *testing.T) {
	var c CPU
	pt := mappedPageTable()
	mem := memory.New()
	mem.WriteWord(5, memory.NewWord("HI"))

	Execute(&c, pt, mem, Decoded{Op: "LR", Addr: 5, HasAddr: true})
	if c.R.String() != "HI" {
		t.Fatalf("Execute(LR) R = %q, want HI", c.R.String())
	}

	c.R = memory.NewWord("BYE")
	Execute(&c, pt, mem, Decoded{Op: "SR", Addr: 5, HasAddr: true})
	if got := mem.ReadWord(5).String(); got != "BYE" {
		t.Errorf("Execute(SR) wrote %q, want BYE", got)
	}
}

func TestExecute_CompareAndBranch(t *testing.T) {
	var c CPU
	pt := mappedPageTable()
	mem := memory.New()
	mem.WriteWord(5, memory.NewWord("HI"))

	c.R = memory.NewWord("NO")
	Execute(&c, pt, mem, Decoded{Op: "CR", Addr: 5, HasAddr: true})
	if c.C() {
		t.Fatalf("Execute(CR) C = true, want false for mismatched words")
	}

	c.IC = 99
	Execute(&c, pt, mem, Decoded{Op: "BT", Addr: 7, HasAddr: true})
	if c.IC != 99 {
		t.Errorf("Execute(BT) with C false jumped: IC = %d, want unchanged 99", c.IC)
	}

	c.R = memory.NewWord("HI")
	Execute(&c, pt, mem, Decoded{Op: "CR", Addr: 5, HasAddr: true})
	if !c.C() {
		t.Fatalf("Execute(CR) C = false, want true for matching words")
	}

	Execute(&c, pt, mem, Decoded{Op: "BT", Addr: 7, HasAddr: true})
	if c.IC != 7 {
		t.Errorf("Execute(BT) with C true IC = %d, want 7", c.IC)
	}
}

func TestExecute_UnmappedOperandPropagatesFault(t *testing.T) {
	var c CPU
	pt := memory.NewPageTable()
	mem := memory.New()

	got := Execute(&c, &pt, mem, Decoded{Op: "LR", Addr: 50, HasAddr: true})
	if got != Continue {
		t.Fatalf("Execute(LR) with bad operand = %v, want Continue", got)
	}
	if c.PI() != psw.PIPageFault {
		t.Errorf("Execute(LR) PI = %d, want %d", c.PI(), psw.PIPageFault)
	}
}

func TestFetch(t *testing.T) {
	pt := mappedPageTable()
	mem := memory.New()
	mem.WriteWord(0, memory.NewWord("H"))

	res, fault, ok := Fetch(pt, mem, 0)
	if !ok {
		t.Fatalf("Fetch() ok = false, fault = %d", fault)
	}
	if res.IR != "H" {
		t.Errorf("Fetch() IR = %q, want H", res.IR)
	}
	if res.Next != 1 {
		t.Errorf("Fetch() Next = %d, want 1", res.Next)
	}
}

func TestFetch_UnmappedAddressFails(t *testing.T) {
	pt := memory.NewPageTable()
	mem := memory.New()

	_, fault, ok := Fetch(&pt, mem, 5)
	if ok {
		t.Fatalf("Fetch() ok = true for unmapped page")
	}
	if fault != psw.PIPageFault {
		t.Errorf("Fetch() fault = %d, want %d", fault, psw.PIPageFault)
	}
}
