package parser

import (
	"github.com/lookbusy1344/hasm16/asm"
	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/isa"
)

// macroExpander parses a macro invocation's operands (the mnemonic token
// has already been consumed) and emits the expansion's instructions into
// p.Program.
type macroExpander func(p *Parser, lineNum int) error

// macroTable is the fixed set of pseudo-instructions the assembler
// recognizes, each expanding to a short, hardwired instruction sequence.
// There is no user-authored macro definition syntax: every entry here is
// part of the instruction set as the programmer sees it.
var macroTable = map[string]macroExpander{
	"INC":    expandInc,
	"DEC":    expandDec,
	"PUSH":   expandPush,
	"POP":    expandPop,
	"CALL":   expandCall,
	"_SCALL": expandSCall,
	"SCALL":  expandSCall,
	"RET":    expandRet,
	"ENTER":  expandEnter,
	"LEAVE":  expandLeave,
	"ENTERI": expandEnteri,
	"LEAVEI": expandLeavei,
}

// emitMacroInstr builds one instruction and adds it to the program. Only
// the first instruction of a macro expansion (first == true) carries the
// macro's description, per the one-Macro-string-per-Line model.
func (p *Parser) emitMacroInstr(name string, first bool, lineNum int, op isa.Opcode, setup func(ib *asm.InstructionBuilder) error) error {
	ib := asm.NewInstructionBuilder(op, lineNum)
	if err := setup(ib); err != nil {
		return p.lineErr(ErrorInstructionBuild, err.Error())
	}
	ins, err := ib.Build()
	if err != nil {
		return p.lineErr(ErrorInstructionBuild, err.Error())
	}
	if first {
		if err := p.Program.SetPendingMacroDescription(name); err != nil {
			return p.lineErr(ErrorSyntax, err.Error())
		}
	}
	p.Program.Add(ins)
	return nil
}

func withDest(r isa.Register) func(ib *asm.InstructionBuilder) error {
	return func(ib *asm.InstructionBuilder) error { return ib.Dest(r) }
}

func withDestSource(d, s isa.Register) func(ib *asm.InstructionBuilder) error {
	return func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(d); err != nil {
			return err
		}
		return ib.Source(s)
	}
}

func withDestConst(d isa.Register, c expr.Expr) func(ib *asm.InstructionBuilder) error {
	return func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(d); err != nil {
			return err
		}
		return ib.Constant(c)
	}
}

func withConstSource(c expr.Expr, s isa.Register) func(ib *asm.InstructionBuilder) error {
	return func(ib *asm.InstructionBuilder) error {
		if err := ib.Source(s); err != nil {
			return err
		}
		return ib.Constant(c)
	}
}

func withSource(r isa.Register) func(ib *asm.InstructionBuilder) error {
	return func(ib *asm.InstructionBuilder) error { return ib.Source(r) }
}

func one(v int64) expr.Expr { return expr.Constant{Value: v} }

// expandInc: "INC Rd" -> ADDIs Rd,1.
func expandInc(p *Parser, lineNum int) error {
	rd, err := p.ExpectRegister()
	if err != nil {
		return err
	}
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	return p.emitMacroInstr("INC", true, lineNum, isa.ADDIs, withDestConst(rd, one(1)))
}

// expandDec: "DEC Rd" -> SUBIs Rd,1.
func expandDec(p *Parser, lineNum int) error {
	rd, err := p.ExpectRegister()
	if err != nil {
		return err
	}
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	return p.emitMacroInstr("DEC", true, lineNum, isa.SUBIs, withDestConst(rd, one(1)))
}

// expandPush: "PUSH Rs" -> SUBIs SP,1 ; ST [SP],Rs.
func expandPush(p *Parser, lineNum int) error {
	rs, err := p.ExpectRegister()
	if err != nil {
		return err
	}
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	if err := p.emitMacroInstr("PUSH", true, lineNum, isa.SUBIs, withDestConst(isa.SP, one(1))); err != nil {
		return err
	}
	return p.emitMacroInstr("PUSH", false, lineNum, isa.ST, withDestSource(isa.SP, rs))
}

// expandPop: "POP Rd" -> LD Rd,[SP] ; ADDIs SP,1.
func expandPop(p *Parser, lineNum int) error {
	rd, err := p.ExpectRegister()
	if err != nil {
		return err
	}
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	if err := p.emitMacroInstr("POP", true, lineNum, isa.LD, withDestSource(rd, isa.SP)); err != nil {
		return err
	}
	return p.emitMacroInstr("POP", false, lineNum, isa.ADDIs, withDestConst(isa.SP, one(1)))
}

// expandCall: "CALL target" -> SUBIs SP,1 ; LDI RA,_SKIP2_ADDR_ ; ST [SP],RA ; JMP target.
// _SKIP2_ADDR_ resolves to the address of the instruction after the JMP
// below: the return address.
func expandCall(p *Parser, lineNum int) error {
	target, err := p.ParseExpr()
	if err != nil {
		return err
	}
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	if err := p.emitMacroInstr("CALL", true, lineNum, isa.SUBIs, withDestConst(isa.SP, one(1))); err != nil {
		return err
	}
	if err := p.emitMacroInstr("CALL", false, lineNum, isa.LDI, withDestConst(isa.RA, expr.Identifier{Name: "_SKIP2_ADDR_"})); err != nil {
		return err
	}
	if err := p.emitMacroInstr("CALL", false, lineNum, isa.ST, withDestSource(isa.SP, isa.RA)); err != nil {
		return err
	}
	return p.emitMacroInstr("CALL", false, lineNum, isa.JMP, func(ib *asm.InstructionBuilder) error {
		return ib.Constant(target)
	})
}

// expandSCall: "_SCALL target" (alias SCALL) -> PUSH RA ; RCALL RA,target ; POP RA.
func expandSCall(p *Parser, lineNum int) error {
	target, err := p.ParseExpr()
	if err != nil {
		return err
	}
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	if err := p.emitMacroInstr("_SCALL", true, lineNum, isa.SUBIs, withDestConst(isa.SP, one(1))); err != nil {
		return err
	}
	if err := p.emitMacroInstr("_SCALL", false, lineNum, isa.ST, withDestSource(isa.SP, isa.RA)); err != nil {
		return err
	}
	if err := p.emitMacroInstr("_SCALL", false, lineNum, isa.RCALL, withDestConst(isa.RA, target)); err != nil {
		return err
	}
	if err := p.emitMacroInstr("_SCALL", false, lineNum, isa.LD, withDestSource(isa.RA, isa.SP)); err != nil {
		return err
	}
	return p.emitMacroInstr("_SCALL", false, lineNum, isa.ADDIs, withDestConst(isa.SP, one(1)))
}

// expandRet: "RET" -> POP RA ; RRET RA. "RET N" -> LD RA,[SP] ; ADDI SP,N+1 ; RRET RA.
func expandRet(p *Parser, lineNum int) error {
	switch p.cur.Type {
	case TokenComment, TokenNewline, TokenEOF:
		if err := p.emitMacroInstr("RET", true, lineNum, isa.LD, withDestSource(isa.RA, isa.SP)); err != nil {
			return err
		}
		if err := p.emitMacroInstr("RET", false, lineNum, isa.ADDIs, withDestConst(isa.SP, one(1))); err != nil {
			return err
		}
		return p.emitMacroInstr("RET", false, lineNum, isa.RRET, withSource(isa.RA))

	default:
		n, err := p.ParseExpr()
		if err != nil {
			return err
		}
		if err := p.ExpectEnd(); err != nil {
			return err
		}
		offset := expr.Binary{Left: n, Op: expr.OpAdd, Right: one(1)}
		if err := p.emitMacroInstr("RET", true, lineNum, isa.LD, withDestSource(isa.RA, isa.SP)); err != nil {
			return err
		}
		if err := p.emitMacroInstr("RET", false, lineNum, isa.ADDI, withDestConst(isa.SP, offset)); err != nil {
			return err
		}
		return p.emitMacroInstr("RET", false, lineNum, isa.RRET, withSource(isa.RA))
	}
}

// expandEnter: "ENTER N" -> PUSH BP ; MOV BP,SP ; SUBI SP,N (SUBI omitted
// when N is the literal constant 0).
func expandEnter(p *Parser, lineNum int) error {
	n, err := p.ParseExpr()
	if err != nil {
		return err
	}
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	if err := p.emitMacroInstr("ENTER", true, lineNum, isa.SUBIs, withDestConst(isa.SP, one(1))); err != nil {
		return err
	}
	if err := p.emitMacroInstr("ENTER", false, lineNum, isa.ST, withDestSource(isa.SP, isa.BP)); err != nil {
		return err
	}
	if err := p.emitMacroInstr("ENTER", false, lineNum, isa.MOV, withDestSource(isa.BP, isa.SP)); err != nil {
		return err
	}
	if c, ok := n.(expr.Constant); ok && c.Value == 0 {
		return nil
	}
	return p.emitMacroInstr("ENTER", false, lineNum, isa.SUBI, withDestConst(isa.SP, n))
}

// expandLeave: "LEAVE" -> MOV SP,BP ; POP BP.
func expandLeave(p *Parser, lineNum int) error {
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	if err := p.emitMacroInstr("LEAVE", true, lineNum, isa.MOV, withDestSource(isa.SP, isa.BP)); err != nil {
		return err
	}
	if err := p.emitMacroInstr("LEAVE", false, lineNum, isa.LD, withDestSource(isa.BP, isa.SP)); err != nil {
		return err
	}
	return p.emitMacroInstr("LEAVE", false, lineNum, isa.ADDIs, withDestConst(isa.SP, one(1)))
}

// expandEnteri: "ENTERI" -> STD [SP-1],R0 ; IN R0,0 ; STD [SP-2],R0 ; SUBIs SP,2.
// Saves R0 and the flags register around an interrupt handler.
func expandEnteri(p *Parser, lineNum int) error {
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	neg1 := expr.Neg{X: one(1)}
	neg2 := expr.Neg{X: one(2)}
	if err := p.emitMacroInstr("ENTERI", true, lineNum, isa.STD, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.SP); err != nil {
			return err
		}
		if err := ib.Constant(neg1); err != nil {
			return err
		}
		return ib.Source(isa.R0)
	}); err != nil {
		return err
	}
	if err := p.emitMacroInstr("ENTERI", false, lineNum, isa.IN, withDestConst(isa.R0, one(0))); err != nil {
		return err
	}
	if err := p.emitMacroInstr("ENTERI", false, lineNum, isa.STD, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.SP); err != nil {
			return err
		}
		if err := ib.Constant(neg2); err != nil {
			return err
		}
		return ib.Source(isa.R0)
	}); err != nil {
		return err
	}
	return p.emitMacroInstr("ENTERI", false, lineNum, isa.SUBIs, withDestConst(isa.SP, one(2)))
}

// expandLeavei: "LEAVEI" -> ADDIs SP,2 ; LDD R0,[SP-2] ; OUT 0,R0 ; LDD R0,[SP-1].
// Mirror of ENTERI: restores the flags register, then R0.
func expandLeavei(p *Parser, lineNum int) error {
	if err := p.ExpectEnd(); err != nil {
		return err
	}
	neg1 := expr.Neg{X: one(1)}
	neg2 := expr.Neg{X: one(2)}
	if err := p.emitMacroInstr("LEAVEI", true, lineNum, isa.ADDIs, withDestConst(isa.SP, one(2))); err != nil {
		return err
	}
	if err := p.emitMacroInstr("LEAVEI", false, lineNum, isa.LDD, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.R0); err != nil {
			return err
		}
		if err := ib.Source(isa.SP); err != nil {
			return err
		}
		return ib.Constant(neg2)
	}); err != nil {
		return err
	}
	if err := p.emitMacroInstr("LEAVEI", false, lineNum, isa.OUT, withConstSource(one(0), isa.R0)); err != nil {
		return err
	}
	return p.emitMacroInstr("LEAVEI", false, lineNum, isa.LDD, func(ib *asm.InstructionBuilder) error {
		if err := ib.Dest(isa.R0); err != nil {
			return err
		}
		if err := ib.Source(isa.SP); err != nil {
			return err
		}
		return ib.Constant(neg1)
	})
}
