// Package emit renders a linked *asm.Program into its output artifacts:
// the "v2.0 raw" hex image, a human-readable listing, an address-to-line
// map, and (for the --control-words diagnostic) the static opcode table's
// packed control words.
package emit

import (
	"fmt"
	"io"

	"github.com/lookbusy1344/hasm16/asm"
	"github.com/lookbusy1344/hasm16/isa"
)

// Hex writes the program's machine code in "v2.0 raw" format: the
// header, then every word from address 0 through the highest address
// used, one per line, lowercase hex, gaps filled with 0.
func Hex(w io.Writer, prog *asm.Program) error {
	words, maxAddr, err := collectWords(prog)
	if err != nil {
		return err
	}
	return writeRaw(w, words, maxAddr)
}

// ControlWords writes the static opcode table's packed control words, one
// per opcode in declaration order, in the same "v2.0 raw" format as Hex.
func ControlWords(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "v2.0 raw"); err != nil {
		return err
	}
	for _, info := range isa.Table {
		if _, err := fmt.Fprintf(w, "%x\n", info.Flags.Pack()); err != nil {
			return err
		}
	}
	return nil
}

// collectWords walks the program's units, encoding each into a sparse
// address->word map, and returns the highest address written.
func collectWords(prog *asm.Program) (map[int64]uint16, int64, error) {
	words := make(map[int64]uint16)
	var maxAddr int64

	for _, u := range prog.Units {
		switch v := u.(type) {
		case *asm.Instruction:
			encoded, err := v.Encode(prog.Ctx)
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: %w", v.Number, err)
			}
			for i, word := range encoded {
				addr := v.Addr + int64(i)
				words[addr] = word
				if addr > maxAddr {
					maxAddr = addr
				}
			}
		case *asm.DataWord:
			word, err := v.Encode(prog.Ctx)
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: %w", v.Number, err)
			}
			words[v.Addr] = word
			if v.Addr > maxAddr {
				maxAddr = v.Addr
			}
		}
	}
	return words, maxAddr, nil
}

func writeRaw(w io.Writer, words map[int64]uint16, maxAddr int64) error {
	if _, err := fmt.Fprintln(w, "v2.0 raw"); err != nil {
		return err
	}
	if len(words) == 0 {
		return nil
	}
	for addr := int64(0); addr <= maxAddr; addr++ {
		if _, err := fmt.Fprintf(w, "%x\n", words[addr]); err != nil {
			return err
		}
	}
	return nil
}

