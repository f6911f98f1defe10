package asm

import (
	"testing"

	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/isa"
)

func TestPendingLabelConsumedOnce(t *testing.T) {
	p := NewProgram()
	if err := p.SetPendingLabel("start"); err != nil {
		t.Fatalf("SetPendingLabel: %v", err)
	}
	ib := NewInstructionBuilder(isa.NOP, 1)
	ins, err := ib.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p.Add(ins)
	if ins.Label != "start" {
		t.Errorf("got label %q, want start", ins.Label)
	}

	ib2 := NewInstructionBuilder(isa.NOP, 2)
	ins2, _ := ib2.Build()
	p.Add(ins2)
	if ins2.Label != "" {
		t.Errorf("second instruction should not inherit the label, got %q", ins2.Label)
	}
}

func TestTwoLabelsOneCommandErrors(t *testing.T) {
	p := NewProgram()
	if err := p.SetPendingLabel("a"); err != nil {
		t.Fatalf("SetPendingLabel: %v", err)
	}
	if err := p.SetPendingLabel("b"); err == nil {
		t.Error("expected error for two labels on the same command")
	}
}

func TestAllocRAMAdvancesCursor(t *testing.T) {
	p := NewProgram()
	a1, err := p.AllocRAM(1, 1)
	if err != nil {
		t.Fatalf("AllocRAM: %v", err)
	}
	a2, err := p.AllocRAM(2, 2)
	if err != nil {
		t.Fatalf("AllocRAM: %v", err)
	}
	if a1 != 0 || a2 != 1 {
		t.Errorf("got %d,%d want 0,1", a1, a2)
	}
	if p.RAMCursor() != 3 {
		t.Errorf("RAMCursor() = %d, want 3", p.RAMCursor())
	}
}

func TestDorgAfterDataAllocatedFails(t *testing.T) {
	p := NewProgram()
	if _, err := p.AllocRAM(1, 1); err != nil {
		t.Fatalf("AllocRAM: %v", err)
	}
	if err := p.SwitchToVonNeumann(0x8000, 2); err == nil {
		t.Error("expected error switching to Von Neumann after Harvard RAM already allocated")
	}
}

func TestDorgTwiceFails(t *testing.T) {
	p := NewProgram()
	if err := p.SwitchToVonNeumann(0x8000, 1); err != nil {
		t.Fatalf("SwitchToVonNeumann: %v", err)
	}
	if err := p.SwitchToVonNeumann(0x9000, 2); err == nil {
		t.Error("expected error on second .dorg")
	}
}

func TestAllocRAMInvalidAfterVonNeumann(t *testing.T) {
	p := NewProgram()
	if err := p.SwitchToVonNeumann(0x8000, 1); err != nil {
		t.Fatalf("SwitchToVonNeumann: %v", err)
	}
	if _, err := p.AllocRAM(1, 2); err == nil {
		t.Error("expected error reserving Harvard RAM in Von Neumann mode")
	}
}

func TestQueueHarvardData(t *testing.T) {
	p := NewProgram()
	addr, err := p.QueueHarvardData(expr.Constant{Value: 7}, 1)
	if err != nil {
		t.Fatalf("QueueHarvardData: %v", err)
	}
	if addr != 0 {
		t.Errorf("got addr %d, want 0", addr)
	}
	data := p.HarvardData()
	if len(data) != 1 || data[0].Addr != 0 {
		t.Fatalf("got %+v", data)
	}
}

func TestAttachSameLineComment(t *testing.T) {
	p := NewProgram()
	ib := NewInstructionBuilder(isa.NOP, 1)
	ins, _ := ib.Build()
	p.Add(ins)
	p.AttachSameLineComment("trailing note")
	if ins.Comment != "trailing note" {
		t.Errorf("got %q", ins.Comment)
	}
}
