// Package asm holds the assembler's core instruction model: the
// InstructionBuilder that mnemonic-argument grammars drive, the encoded
// Instruction and DataWord units the program is built from, and the
// encoding rules that turn a resolved instruction into machine words.
package asm

import (
	"fmt"

	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/isa"
)

// Line carries source provenance, attached to every emitted unit.
type Line struct {
	Number    int
	Label     string
	Macro     string
	Comment   string
	HasOrigin bool
	Origin    int64
}

// Instruction is a single assembled opcode with its resolved or
// unresolved operands. Size is 1 word, except for two-word immediate
// encodings (ALUBImReg), which are 2.
type Instruction struct {
	Line
	Opcode Opcode
	Dest   isa.Register
	Source isa.Register
	Const  expr.Expr
	HasDest,
	HasSource,
	HasConst bool

	// Addr is set by the linker's address pass.
	Addr int64
}

// Opcode is re-exported so callers of this package don't need to import
// isa solely to name an opcode.
type Opcode = isa.Opcode

// Size returns the instruction's word count given its currently selected
// opcode.
func (ins *Instruction) Size() int64 {
	if ins.Opcode.IsTwoWord() {
		return 2
	}
	return 1
}

// DataWord is a single raw 16-bit value, used only once the program has
// switched to Von-Neumann mode via .dorg.
type DataWord struct {
	Line
	Value expr.Expr
	Addr  int64
}

// Unit is either an *Instruction or a *DataWord.
type Unit interface {
	unit()
}

func (*Instruction) unit() {}
func (*DataWord) unit()    {}

// InstructionBuilder accumulates operands for one instruction as a
// mnemonic-argument grammar walks the token stream, then produces the
// finished Instruction. It mirrors the reference assembler's fluent
// builder, including its exact validation wording.
type InstructionBuilder struct {
	opcode    isa.Opcode
	lineNum   int
	dest      isa.Register
	hasDest   bool
	source    isa.Register
	hasSource bool
	constant  expr.Expr
	hasConst  bool
}

// NewInstructionBuilder starts building an instruction for opcode at the
// given source line.
func NewInstructionBuilder(opcode isa.Opcode, lineNum int) *InstructionBuilder {
	return &InstructionBuilder{opcode: opcode, lineNum: lineNum}
}

// Dest sets the destination register. Setting it twice is an error.
func (ib *InstructionBuilder) Dest(r isa.Register) error {
	if ib.hasDest {
		return fmt.Errorf("line %d: destination register already set", ib.lineNum)
	}
	ib.dest, ib.hasDest = r, true
	return nil
}

// Source sets the source register. Setting it twice is an error.
func (ib *InstructionBuilder) Source(r isa.Register) error {
	if ib.hasSource {
		return fmt.Errorf("line %d: source register already set", ib.lineNum)
	}
	ib.source, ib.hasSource = r, true
	return nil
}

// Constant sets the constant operand. Setting it twice is an error.
func (ib *InstructionBuilder) Constant(e expr.Expr) error {
	if ib.hasConst {
		return fmt.Errorf("line %d: constant already set", ib.lineNum)
	}
	ib.constant, ib.hasConst = e, true
	return nil
}

// NegateConstant wraps whatever constant has been set in expr.Neg; used
// by the Rd-[const] argument form.
func (ib *InstructionBuilder) NegateConstant() error {
	if !ib.hasConst {
		return fmt.Errorf("line %d: no constant to negate", ib.lineNum)
	}
	ib.constant = expr.Neg{X: ib.constant}
	return nil
}

// Build finishes the instruction, validating that the operands present
// match what the opcode's argument shape requires.
func (ib *InstructionBuilder) Build() (*Instruction, error) {
	shape := ib.opcode.Info().Shape
	needDest, needSource, needConst := shapeRequirements(shape)

	if needDest != ib.hasDest {
		return nil, fmt.Errorf("line %d: %s requires a destination register: %v", ib.lineNum, ib.opcode, needDest)
	}
	if needSource != ib.hasSource {
		return nil, fmt.Errorf("line %d: %s requires a source register: %v", ib.lineNum, ib.opcode, needSource)
	}
	if needConst != ib.hasConst {
		return nil, fmt.Errorf("line %d: %s requires a constant: %v", ib.lineNum, ib.opcode, needConst)
	}

	return &Instruction{
		Line:      Line{Number: ib.lineNum},
		Opcode:    ib.opcode,
		Dest:      ib.dest,
		HasDest:   ib.hasDest,
		Source:    ib.source,
		HasSource: ib.hasSource,
		Const:     ib.constant,
		HasConst:  ib.hasConst,
	}, nil
}

func shapeRequirements(shape isa.ArgShape) (needDest, needSource, needConst bool) {
	switch shape {
	case isa.ShapeNothing:
		return false, false, false
	case isa.ShapeDestSource:
		return true, true, false
	case isa.ShapeDest:
		return true, false, false
	case isa.ShapeSource:
		return false, true, false
	case isa.ShapeDestConst:
		return true, false, true
	case isa.ShapeConstSource:
		return false, true, true
	case isa.ShapeBDestSource:
		return true, true, false
	case isa.ShapeDestBSource:
		return true, true, false
	case isa.ShapeConst:
		return false, false, true
	case isa.ShapeBDestBConstSource:
		return true, true, true
	case isa.ShapeDestBSourceBConst:
		return true, true, true
	default:
		return false, false, false
	}
}
