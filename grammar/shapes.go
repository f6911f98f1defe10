// Package grammar defines the mnemonic-argument shapes each opcode is
// parsed and formatted with, built compositionally from a handful of
// primitives (register, bracketed constant, offset-register) rather than
// one parser function per opcode.
package grammar

import (
	"fmt"

	"github.com/lookbusy1344/hasm16/asm"
	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/isa"
)

// Operands is the minimal surface a shape needs from the token stream.
// The parser package implements this directly over its lexer, so this
// package never needs to know about token types.
type Operands interface {
	ExpectRegister() (isa.Register, error)
	ExpectLBracket() error
	ExpectRBracket() error
	ExpectComma() error
	// TakeSign consumes a leading '+' or '-' before a bracketed constant
	// in the Rd+[const]/Rd-[const] forms, reporting whether the
	// constant should be negated.
	TakeSign() (negate bool, err error)
	ParseExpr() (expr.Expr, error)
	ExpectEnd() error
}

// Shape parses and formats one opcode's argument grammar.
type Shape interface {
	Parse(ops Operands, ib *asm.InstructionBuilder) error
	Format(ins *asm.Instruction) string
}

// ForOpcode returns the shape registered for op's argument grammar.
func ForOpcode(op isa.Opcode) Shape {
	return byShape[op.Info().Shape]
}

var byShape = map[isa.ArgShape]Shape{
	isa.ShapeNothing:               nothingShape{},
	isa.ShapeDestSource:            destSourceShape{},
	isa.ShapeDest:                  destShape{},
	isa.ShapeSource:                sourceShape{},
	isa.ShapeDestConst:             destConstShape{},
	isa.ShapeConstSource:           constSourceShape{},
	isa.ShapeBDestSource:           bDestSourceShape{},
	isa.ShapeDestBSource:           destBSourceShape{},
	isa.ShapeConst:                 constShape{},
	isa.ShapeBDestBConstSource:     bDestBConstSourceShape{},
	isa.ShapeDestBSourceBConst:     destBSourceBConstShape{},
}

// nothingShape: no operands, e.g. NOP, BRK.
type nothingShape struct{}

func (nothingShape) Parse(ops Operands, ib *asm.InstructionBuilder) error { return ops.ExpectEnd() }
func (nothingShape) Format(ins *asm.Instruction) string                  { return "" }

// destSourceShape: Rd,Rs.
type destSourceShape struct{}

func (destSourceShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	rd, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Dest(rd); err != nil {
		return err
	}
	if err := ops.ExpectComma(); err != nil {
		return err
	}
	rs, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Source(rs); err != nil {
		return err
	}
	return ops.ExpectEnd()
}

func (destSourceShape) Format(ins *asm.Instruction) string {
	return fmt.Sprintf("%s,%s", ins.Dest, ins.Source)
}

// destShape: Rd.
type destShape struct{}

func (destShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	rd, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Dest(rd); err != nil {
		return err
	}
	return ops.ExpectEnd()
}

func (destShape) Format(ins *asm.Instruction) string { return ins.Dest.String() }

// sourceShape: Rs.
type sourceShape struct{}

func (sourceShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	rs, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Source(rs); err != nil {
		return err
	}
	return ops.ExpectEnd()
}

func (sourceShape) Format(ins *asm.Instruction) string { return ins.Source.String() }

// destConstShape: Rd,[const]. The brackets are the grammar's notation
// for a constant operand: the source syntax takes a bare expression and
// Format prints none, the same as constShape's branch-target form.
type destConstShape struct{}

func (destConstShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	rd, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Dest(rd); err != nil {
		return err
	}
	if err := ops.ExpectComma(); err != nil {
		return err
	}
	e, err := ops.ParseExpr()
	if err != nil {
		return err
	}
	if err := ib.Constant(e); err != nil {
		return err
	}
	return ops.ExpectEnd()
}

func (destConstShape) Format(ins *asm.Instruction) string {
	return fmt.Sprintf("%s,%s", ins.Dest, ins.Const)
}

// constSourceShape: [const],Rs — e.g. STS addr,Rs / OUT port,Rs.
type constSourceShape struct{}

func (constSourceShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	e, err := ops.ParseExpr()
	if err != nil {
		return err
	}
	if err := ib.Constant(e); err != nil {
		return err
	}
	if err := ops.ExpectComma(); err != nil {
		return err
	}
	rs, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Source(rs); err != nil {
		return err
	}
	return ops.ExpectEnd()
}

func (constSourceShape) Format(ins *asm.Instruction) string {
	return fmt.Sprintf("%s,%s", ins.Const, ins.Source)
}

// bDestSourceShape: [Rd],Rs — e.g. ST [Rd],Rs.
type bDestSourceShape struct{}

func (bDestSourceShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	if err := ops.ExpectLBracket(); err != nil {
		return err
	}
	rd, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Dest(rd); err != nil {
		return err
	}
	if err := ops.ExpectRBracket(); err != nil {
		return err
	}
	if err := ops.ExpectComma(); err != nil {
		return err
	}
	rs, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Source(rs); err != nil {
		return err
	}
	return ops.ExpectEnd()
}

func (bDestSourceShape) Format(ins *asm.Instruction) string {
	return fmt.Sprintf("[%s],%s", ins.Dest, ins.Source)
}

// destBSourceShape: Rd,[Rs] — e.g. LD Rd,[Rs].
type destBSourceShape struct{}

func (destBSourceShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	rd, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Dest(rd); err != nil {
		return err
	}
	if err := ops.ExpectComma(); err != nil {
		return err
	}
	if err := ops.ExpectLBracket(); err != nil {
		return err
	}
	rs, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Source(rs); err != nil {
		return err
	}
	return allOf(ops.ExpectRBracket, ops.ExpectEnd)
}

func (destBSourceShape) Format(ins *asm.Instruction) string {
	return fmt.Sprintf("%s,[%s]", ins.Dest, ins.Source)
}

// constShape: [const] — branch targets and JMP.
type constShape struct{}

func (constShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	e, err := ops.ParseExpr()
	if err != nil {
		return err
	}
	if err := ib.Constant(e); err != nil {
		return err
	}
	return ops.ExpectEnd()
}

func (constShape) Format(ins *asm.Instruction) string { return ins.Const.String() }

// bDestBConstSourceShape: [Rd+[const]],Rs — e.g. STD [Rd+off],Rs.
type bDestBConstSourceShape struct{}

func (bDestBConstSourceShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	if err := ops.ExpectLBracket(); err != nil {
		return err
	}
	rd, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Dest(rd); err != nil {
		return err
	}
	if err := parseSignedConst(ops, ib); err != nil {
		return err
	}
	if err := ops.ExpectRBracket(); err != nil {
		return err
	}
	if err := ops.ExpectComma(); err != nil {
		return err
	}
	rs, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Source(rs); err != nil {
		return err
	}
	return ops.ExpectEnd()
}

func (bDestBConstSourceShape) Format(ins *asm.Instruction) string {
	return fmt.Sprintf("[%s+%s],%s", ins.Dest, ins.Const, ins.Source)
}

// destBSourceBConstShape: Rd,[Rs+[const]] — e.g. LDD Rd,[Rs+off].
type destBSourceBConstShape struct{}

func (destBSourceBConstShape) Parse(ops Operands, ib *asm.InstructionBuilder) error {
	rd, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Dest(rd); err != nil {
		return err
	}
	if err := ops.ExpectComma(); err != nil {
		return err
	}
	if err := ops.ExpectLBracket(); err != nil {
		return err
	}
	rs, err := ops.ExpectRegister()
	if err != nil {
		return err
	}
	if err := ib.Source(rs); err != nil {
		return err
	}
	if err := parseSignedConst(ops, ib); err != nil {
		return err
	}
	return allOf(ops.ExpectRBracket, ops.ExpectEnd)
}

func (destBSourceBConstShape) Format(ins *asm.Instruction) string {
	return fmt.Sprintf("%s,[%s+%s]", ins.Dest, ins.Source, ins.Const)
}

// parseSignedConst parses the "+[const]" or "-[const]" suffix used by the
// offset-addressing shapes: '-' negates the parsed expression.
func parseSignedConst(ops Operands, ib *asm.InstructionBuilder) error {
	negate, err := ops.TakeSign()
	if err != nil {
		return err
	}
	if err := ops.ExpectLBracket(); err != nil {
		return err
	}
	e, err := ops.ParseExpr()
	if err != nil {
		return err
	}
	if err := ops.ExpectRBracket(); err != nil {
		return err
	}
	if err := ib.Constant(e); err != nil {
		return err
	}
	if negate {
		return ib.NegateConstant()
	}
	return nil
}

func allOf(fns ...func() error) error {
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
