// Package isa describes the target processor: registers, opcodes, and the
// control-word encoding each opcode drives through the datapath.
package isa

import (
	"fmt"
	"strings"
)

// Register is one of the 16 general-purpose or special-purpose registers.
// Its numeric value is exactly its 4-bit encoding in an instruction word.
type Register int

const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	BP // frame pointer
	SP // stack pointer
	RA // return address
)

var registerNames = map[Register]string{
	R0: "R0", R1: "R1", R2: "R2", R3: "R3", R4: "R4", R5: "R5", R6: "R6",
	R7: "R7", R8: "R8", R9: "R9", R10: "R10", R11: "R11", R12: "R12",
	BP: "BP", SP: "SP", RA: "RA",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Register(%d)", int(r))
}

// ParseRegister parses a register name, case-insensitively.
func ParseRegister(s string) (Register, bool) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range registerNames {
		if name == upper {
			return r, true
		}
	}
	return 0, false
}
