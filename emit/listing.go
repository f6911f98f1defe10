package emit

import (
	"fmt"
	"io"

	"github.com/lookbusy1344/hasm16/asm"
	"github.com/lookbusy1344/hasm16/grammar"
)

// Listing writes a human-readable assembly listing: one line per unit,
// with its resolved address, encoded words, label, mnemonic, formatted
// operands, macro description, and comment.
func Listing(w io.Writer, prog *asm.Program) error {
	for _, u := range prog.Units {
		switch v := u.(type) {
		case *asm.Instruction:
			if err := writeInstructionLine(w, prog, v); err != nil {
				return err
			}
		case *asm.DataWord:
			if err := writeDataLine(w, prog, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeInstructionLine(w io.Writer, prog *asm.Program, ins *asm.Instruction) error {
	encoded, err := ins.Encode(prog.Ctx)
	if err != nil {
		return fmt.Errorf("line %d: %w", ins.Number, err)
	}
	code := hexWords(encoded)
	shape := grammar.ForOpcode(ins.Opcode)
	args := shape.Format(ins)

	_, err = fmt.Fprintf(w, "%04x  %-9s  %-8s  %-6s %-20s%s\n",
		ins.Addr, code, ins.Label, ins.Opcode.String(), args, trailer(ins.Macro, ins.Comment))
	return err
}

func writeDataLine(w io.Writer, prog *asm.Program, d *asm.DataWord) error {
	word, err := d.Encode(prog.Ctx)
	if err != nil {
		return fmt.Errorf("line %d: %w", d.Number, err)
	}
	_, err = fmt.Fprintf(w, "%04x  %04x       %-8s  %-6s %-20s%s\n",
		d.Addr, word, d.Label, ".data", "", trailer(d.Macro, d.Comment))
	return err
}

func hexWords(words []uint16) string {
	switch len(words) {
	case 1:
		return fmt.Sprintf("%04x", words[0])
	case 2:
		return fmt.Sprintf("%04x %04x", words[0], words[1])
	default:
		return ""
	}
}

func trailer(macro, comment string) string {
	s := ""
	if macro != "" {
		s += "  ; " + macro
	}
	if comment != "" {
		s += "  ; " + comment
	}
	return s
}
