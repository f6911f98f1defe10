// Package linker resolves a Program's label addresses and applies the
// short-form and short-jump optimizations to a fixed point before
// machine code is emitted.
package linker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lookbusy1344/hasm16/asm"
	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/isa"
)

// Link runs the full optimize-and-link pipeline: materializing queued
// Harvard-mode data initializers, an address pass, a short-form pass,
// the fixed-point short-jump loop, and a final address pass so every
// label in prog.Ctx holds its terminal value.
func Link(prog *asm.Program) error {
	if err := materializeHarvardData(prog); err != nil {
		return err
	}

	if err := addressPass(prog); err != nil {
		return err
	}

	shortFormPass(prog)

	for {
		if err := addressPass(prog); err != nil {
			return err
		}
		changed, err := jumpPass(prog)
		if err != nil {
			return err
		}
		if !changed {
			break
		}
	}

	return addressPass(prog)
}

// addressPass walks the program in order, applying explicit origins,
// assigning each unit's address, and registering labels in the symbol
// table. It also threads lookahead addresses into the context so
// _ADDR_/_NEXT_ADDR_/_SKIP_ADDR_/_SKIP2_ADDR_ resolve while later units
// in the same pass are still being addressed.
func addressPass(prog *asm.Program) error {
	var addr int64
	last := int64(-1)
	seen := make(map[string]int64)

	for i, u := range prog.Units {
		switch v := u.(type) {
		case *asm.Instruction:
			var err error
			addr, err = applyOrigin(addr, last, v.Origin, v.HasOrigin, v.Number)
			if err != nil {
				return err
			}
			v.Addr = addr
			if err := registerLabel(prog, seen, v.Label, addr, v.Number); err != nil {
				return err
			}
			setLookahead(prog.Ctx, prog.Units, i, addr)
			last = addr
			addr += v.Size()

		case *asm.DataWord:
			var err error
			addr, err = applyOrigin(addr, last, v.Origin, v.HasOrigin, v.Number)
			if err != nil {
				return err
			}
			v.Addr = addr
			if err := registerLabel(prog, seen, v.Label, addr, v.Number); err != nil {
				return err
			}
			last = addr
			addr++
		}
	}
	return nil
}

func applyOrigin(cursor, last, origin int64, explicit bool, lineNum int) (int64, error) {
	if !explicit {
		return cursor, nil
	}
	if origin < cursor && origin != last {
		return 0, fmt.Errorf("line %d: .org cannot move the address backward", lineNum)
	}
	return origin, nil
}

// registerLabel binds label to addr for this pass. seen catches two
// case-insensitively identical labels bound to different addresses
// within the same pass (scenario: "L1:" and "l1:" on different lines);
// across passes the same label legitimately moves as instructions
// resize, so SetIdentifier always overwrites rather than erroring.
func registerLabel(prog *asm.Program, seen map[string]int64, label string, addr int64, lineNum int) error {
	if label == "" {
		return nil
	}
	key := strings.ToLower(label)
	if prior, ok := seen[key]; ok && prior != addr {
		return fmt.Errorf("line %d: label %q already defined at a different address", lineNum, label)
	}
	seen[key] = addr
	prog.Ctx.SetIdentifier(label, addr)
	return nil
}

// setLookahead exposes the addresses of up to the next 3 instructions
// (this one, +1, +2) to the context, needed by CALL's use of
// _SKIP2_ADDR_ to compute its own return address before later
// instructions have been sized in this pass.
func setLookahead(ctx *expr.Context, units []asm.Unit, i int, addr int64) {
	ctx.CurrentAddr = addr
	next := make([]int64, 0, 3)
	cursor := addr
	for j := i; j < len(units) && len(next) < 3; j++ {
		switch v := units[j].(type) {
		case *asm.Instruction:
			cursor += v.Size()
		case *asm.DataWord:
			cursor++
		}
		next = append(next, cursor)
	}
	ctx.NextAddrs = next
}

// shortFormPass swaps each long-form immediate opcode with a resolvable,
// in-range constant to its short-form counterpart. Unresolved constants
// are left as-is; final emission still validates them.
func shortFormPass(prog *asm.Program) {
	for _, u := range prog.Units {
		ins, ok := u.(*asm.Instruction)
		if !ok || !ins.HasConst {
			continue
		}
		short, ok := isa.Short[ins.Opcode]
		if !ok {
			continue
		}
		v, err := ins.Const.Eval(prog.Ctx)
		if err != nil || v < 0 || v > 15 {
			continue
		}
		ins.Opcode = short
	}
}

// jumpPass scans for JMP instructions whose branch offset now fits a
// signed 8-bit short jump and swaps them to JMPs. Returns whether any
// instruction changed, so the caller can iterate to a fixed point.
func jumpPass(prog *asm.Program) (bool, error) {
	changed := false
	for _, u := range prog.Units {
		ins, ok := u.(*asm.Instruction)
		if !ok || ins.Opcode != isa.JMP {
			continue
		}
		target, err := ins.Const.Eval(prog.Ctx)
		if err != nil {
			continue
		}
		offset := target - ins.Addr - 1
		if offset >= -128 && offset <= 127 {
			ins.Opcode = isa.JMPs
			changed = true
		}
	}
	return changed, nil
}

// materializeHarvardData converts queued Harvard-mode RAM initializers
// into LDI/STS instruction pairs, appended after the program's last
// user instruction in ascending RAM-address order. Each generated
// instruction carries line 0 and no label: the .data label already
// resolved to the RAM address during AllocRAM, not to the address of
// the generated code.
func materializeHarvardData(prog *asm.Program) error {
	data := prog.HarvardData()
	if len(data) == 0 {
		return nil
	}

	sorted := append([]asm.DataValue(nil), data...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Addr < sorted[j].Addr })

	for _, d := range sorted {
		ldiBuilder := asm.NewInstructionBuilder(isa.LDI, 0)
		if err := ldiBuilder.Dest(isa.R0); err != nil {
			return fmt.Errorf("generating Harvard data initializer: %w", err)
		}
		if err := ldiBuilder.Constant(d.Value); err != nil {
			return fmt.Errorf("generating Harvard data initializer: %w", err)
		}
		ldi, err := ldiBuilder.Build()
		if err != nil {
			return fmt.Errorf("generating Harvard data initializer: %w", err)
		}

		stsBuilder := asm.NewInstructionBuilder(isa.STS, 0)
		if err := stsBuilder.Source(isa.R0); err != nil {
			return fmt.Errorf("generating Harvard data initializer: %w", err)
		}
		if err := stsBuilder.Constant(constAddr(d.Addr)); err != nil {
			return fmt.Errorf("generating Harvard data initializer: %w", err)
		}
		sts, err := stsBuilder.Build()
		if err != nil {
			return fmt.Errorf("generating Harvard data initializer: %w", err)
		}

		prog.Units = append(prog.Units, ldi, sts)
	}
	return nil
}

func constAddr(addr int64) expr.Expr { return expr.Constant{Value: addr} }
