package asm

import (
	"testing"

	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/isa"
)

func TestBuilderDestSource(t *testing.T) {
	ib := NewInstructionBuilder(isa.MOV, 1)
	if err := ib.Dest(isa.R0); err != nil {
		t.Fatalf("Dest: %v", err)
	}
	if err := ib.Source(isa.R1); err != nil {
		t.Fatalf("Source: %v", err)
	}
	ins, err := ib.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ins.Opcode != isa.MOV || ins.Dest != isa.R0 || ins.Source != isa.R1 {
		t.Errorf("got %+v", ins)
	}
}

func TestBuilderMissingOperand(t *testing.T) {
	ib := NewInstructionBuilder(isa.MOV, 1)
	if err := ib.Dest(isa.R0); err != nil {
		t.Fatalf("Dest: %v", err)
	}
	if _, err := ib.Build(); err == nil {
		t.Error("expected error for missing source register")
	}
}

func TestBuilderDoubleAssignment(t *testing.T) {
	ib := NewInstructionBuilder(isa.MOV, 1)
	if err := ib.Dest(isa.R0); err != nil {
		t.Fatalf("Dest: %v", err)
	}
	if err := ib.Dest(isa.R1); err == nil {
		t.Error("expected error setting destination twice")
	}
}

func TestBuilderNegateConstant(t *testing.T) {
	ib := NewInstructionBuilder(isa.LDD, 1)
	if err := ib.Constant(expr.Constant{Value: 4}); err != nil {
		t.Fatalf("Constant: %v", err)
	}
	if err := ib.NegateConstant(); err != nil {
		t.Fatalf("NegateConstant: %v", err)
	}
	v, err := ib.constant.Eval(nil)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v != -4 {
		t.Errorf("got %d, want -4", v)
	}
}

func TestInstructionSize(t *testing.T) {
	ib := NewInstructionBuilder(isa.LDI, 1)
	_ = ib.Dest(isa.R0)
	_ = ib.Constant(expr.Constant{Value: 5})
	ins, err := ib.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ins.Size() != 2 {
		t.Errorf("LDI size = %d, want 2 (two-word immediate)", ins.Size())
	}

	ib2 := NewInstructionBuilder(isa.MOV, 1)
	_ = ib2.Dest(isa.R0)
	_ = ib2.Source(isa.R1)
	ins2, err := ib2.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ins2.Size() != 1 {
		t.Errorf("MOV size = %d, want 1", ins2.Size())
	}
}

func TestShapeRequirementsNothing(t *testing.T) {
	ib := NewInstructionBuilder(isa.NOP, 1)
	if _, err := ib.Build(); err != nil {
		t.Errorf("NOP with no operands should build cleanly: %v", err)
	}
}
