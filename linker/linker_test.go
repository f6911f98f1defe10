package linker

import (
	"testing"

	"github.com/lookbusy1344/hasm16/asm"
	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/isa"
)

func build(t *testing.T, op isa.Opcode, lineNum int, setup func(ib *asm.InstructionBuilder) error) *asm.Instruction {
	t.Helper()
	ib := asm.NewInstructionBuilder(op, lineNum)
	if setup != nil {
		if err := setup(ib); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	ins, err := ib.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ins
}

func TestSimpleMoveLinks(t *testing.T) {
	prog := asm.NewProgram()
	ins := build(t, isa.MOV, 1, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.R0); err != nil {
			return err
		}
		return ib.Source(isa.R1)
	})
	prog.Add(ins)

	if err := Link(prog); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if ins.Addr != 0 {
		t.Errorf("got addr %d, want 0", ins.Addr)
	}
}

func TestSelfJumpOptimizesToShortForm(t *testing.T) {
	prog := asm.NewProgram()
	if err := prog.SetPendingLabel("end"); err != nil {
		t.Fatalf("SetPendingLabel: %v", err)
	}
	ins := build(t, isa.JMP, 1, func(ib *asm.InstructionBuilder) error {
		return ib.Constant(expr.Identifier{Name: "end"})
	})
	prog.Add(ins)

	if err := Link(prog); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if ins.Opcode != isa.JMPs {
		t.Errorf("got opcode %s, want JMPs", ins.Opcode)
	}
	v, err := ins.Const.Eval(prog.Ctx)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v != 0 {
		t.Errorf("target should resolve to this instruction's own address (0), got %d", v)
	}
}

func TestShortFormOptimizationIdempotent(t *testing.T) {
	prog := asm.NewProgram()
	ins := build(t, isa.LDI, 1, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.R0); err != nil {
			return err
		}
		return ib.Constant(expr.Constant{Value: 3})
	})
	prog.Add(ins)

	if err := Link(prog); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if ins.Opcode != isa.LDIs {
		t.Fatalf("got opcode %s, want LDIs", ins.Opcode)
	}
	shortFormPass(prog)
	if ins.Opcode != isa.LDIs {
		t.Errorf("re-running shortFormPass changed the opcode to %s", ins.Opcode)
	}
}

func TestShortFormLeavesOutOfRangeConstantLong(t *testing.T) {
	prog := asm.NewProgram()
	ins := build(t, isa.LDI, 1, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.R0); err != nil {
			return err
		}
		return ib.Constant(expr.Constant{Value: 16})
	})
	prog.Add(ins)

	if err := Link(prog); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if ins.Opcode != isa.LDI {
		t.Errorf("constant 16 is out of short-form range, opcode should stay LDI, got %s", ins.Opcode)
	}
}

func TestCaseInsensitiveLabelClashFails(t *testing.T) {
	prog := asm.NewProgram()

	if err := prog.SetPendingLabel("L1"); err != nil {
		t.Fatalf("SetPendingLabel: %v", err)
	}
	ins1 := build(t, isa.MOV, 1, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.R0); err != nil {
			return err
		}
		return ib.Source(isa.R1)
	})
	prog.Add(ins1)

	if err := prog.SetPendingLabel("l1"); err != nil {
		t.Fatalf("SetPendingLabel: %v", err)
	}
	ins2 := build(t, isa.MOV, 2, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.R0); err != nil {
			return err
		}
		return ib.Source(isa.R1)
	})
	prog.Add(ins2)

	if err := Link(prog); err == nil {
		t.Error("expected error: L1 and l1 bind to different addresses case-insensitively")
	}
}

func TestOrgCannotMoveBackward(t *testing.T) {
	prog := asm.NewProgram()
	prog.AddPendingOrigin(10)
	ins1 := build(t, isa.NOP, 1, nil)
	prog.Add(ins1)

	prog.AddPendingOrigin(5)
	ins2 := build(t, isa.NOP, 2, nil)
	prog.Add(ins2)

	if err := Link(prog); err == nil {
		t.Error("expected error: .org cannot move the address backward")
	}
}

func TestVonNeumannDataExactHex(t *testing.T) {
	prog := asm.NewProgram()
	if err := prog.SwitchToVonNeumann(0x8000, 1); err != nil {
		t.Fatalf("SwitchToVonNeumann: %v", err)
	}
	if err := prog.SetPendingLabel("text"); err != nil {
		t.Fatalf("SetPendingLabel: %v", err)
	}
	for _, v := range []int64{'A', 'A', 0} {
		prog.AddData(&asm.DataWord{Line: asm.Line{Number: 2}, Value: expr.Constant{Value: v}})
	}
	ldi := build(t, isa.LDI, 3, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.R0); err != nil {
			return err
		}
		return ib.Constant(expr.Identifier{Name: "text"})
	})
	prog.Add(ldi)

	if err := Link(prog); err != nil {
		t.Fatalf("Link: %v", err)
	}

	// text resolves to address 0, so the short-form pass turns LDI R0,text
	// into the one-word LDIs R0,0.
	words := make([]uint16, 0, 4)
	for _, u := range prog.Units {
		switch v := u.(type) {
		case *asm.DataWord:
			w, err := v.Encode(prog.Ctx)
			if err != nil {
				t.Fatalf("DataWord.Encode: %v", err)
			}
			words = append(words, w)
		case *asm.Instruction:
			enc, err := v.Encode(prog.Ctx)
			if err != nil {
				t.Fatalf("Instruction.Encode: %v", err)
			}
			words = append(words, enc...)
		}
	}
	if len(words) != 4 {
		t.Fatalf("got %d words, want 4 (3 data + 1 for LDIs)", len(words))
	}
	if words[0] != 0x41 || words[1] != 0x41 || words[2] != 0 {
		t.Errorf("data words = %#x %#x %#x, want 0x41 0x41 0x0", words[0], words[1], words[2])
	}
	if words[3] != 0xa00 {
		t.Errorf("LDIs R0,text word = %#x, want 0xa00", words[3])
	}
}

func TestQueuedHarvardDataMaterializes(t *testing.T) {
	prog := asm.NewProgram()
	addr, err := prog.QueueHarvardData(expr.Constant{Value: 99}, 1)
	if err != nil {
		t.Fatalf("QueueHarvardData: %v", err)
	}
	if err := Link(prog); err != nil {
		t.Fatalf("Link: %v", err)
	}
	var sawLDI, sawSTS bool
	for _, u := range prog.Units {
		ins, ok := u.(*asm.Instruction)
		if !ok {
			continue
		}
		switch ins.Opcode {
		case isa.LDI, isa.LDIs:
			sawLDI = true
		case isa.STS, isa.STSs:
			sawSTS = true
			v, err := ins.Const.Eval(prog.Ctx)
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if v != addr {
				t.Errorf("STS target = %d, want %d", v, addr)
			}
		}
	}
	if !sawLDI || !sawSTS {
		t.Error("expected generated LDI/STS pair for queued Harvard data")
	}
}
