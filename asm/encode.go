package asm

import (
	"fmt"

	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/isa"
)

// Encode resolves ins.Const (if any) against ctx and returns the
// instruction's machine words in emission order. A two-word immediate
// encoding emits its constant word first, then its opcode word.
func (ins *Instruction) Encode(ctx *expr.Context) ([]uint16, error) {
	info := ins.Opcode.Info()

	var c int64
	if ins.HasConst {
		var err error
		c, err = ins.Const.Eval(ctx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ins.Number, err)
		}
	}

	rd := uint16(ins.Dest)
	rs := uint16(ins.Source)
	opcodeByte := uint16(ins.Opcode) << 8

	switch info.Flags.ALUBSel {
	case isa.ALUBInstrSourceAndDest:
		offset := c - ins.Addr - 1
		if offset < -128 || offset > 127 {
			return nil, fmt.Errorf("line %d: branch target out of range", ins.Number)
		}
		return []uint16{opcodeByte | (uint16(offset) & 0xFF)}, nil

	case isa.ALUBInstrSource:
		if c < 0 || c > 15 {
			return nil, fmt.Errorf("line %d: short constant too large", ins.Number)
		}
		return []uint16{opcodeByte | (rd << 4) | (uint16(c) & 0xF)}, nil

	case isa.ALUBInstrDest:
		if c < 0 || c > 15 {
			return nil, fmt.Errorf("line %d: short constant too large", ins.Number)
		}
		return []uint16{opcodeByte | ((uint16(c) & 0xF) << 4) | rs}, nil

	case isa.ALUBImReg:
		constWord := uint16(c&0x7FFF) | 0x8000
		var low uint16
		switch info.Flags.ImmExtMode {
		case isa.ImmExtend:
			if c < -16384 || c > 16383 {
				return nil, fmt.Errorf("line %d: constant out of range for extended immediate", ins.Number)
			}
			low = (rd << 4) | rs
		case isa.ImmSrc0:
			if c < -32768 || c > 65535 {
				return nil, fmt.Errorf("line %d: constant out of range", ins.Number)
			}
			low = (rd << 4) | constBit(c)
		case isa.ImmDest0:
			if c < -32768 || c > 65535 {
				return nil, fmt.Errorf("line %d: constant out of range", ins.Number)
			}
			low = (constBit(c) << 4) | rs
		default:
			return nil, fmt.Errorf("line %d: unhandled immediate extension mode", ins.Number)
		}
		return []uint16{constWord, opcodeByte | low}, nil

	default:
		return []uint16{opcodeByte | (rd << 4) | rs}, nil
	}
}

// constBit extracts the top bit of a 16-bit constant, used by the
// src0/dest0 immediate-extension modes to record which register nibble
// the constant's high bit belongs in.
func constBit(c int64) uint16 {
	return uint16(c>>15) & 1
}

// Encode resolves the data word's value against ctx and returns its
// single machine word.
func (d *DataWord) Encode(ctx *expr.Context) (uint16, error) {
	v, err := d.Value.Eval(ctx)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", d.Number, err)
	}
	return uint16(v) & 0xFFFF, nil
}
