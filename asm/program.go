package asm

import (
	"fmt"

	"github.com/lookbusy1344/hasm16/expr"
)

// Mode is the program's addressing mode: Harvard (separate code/data
// spaces, the default) or Von Neumann (switched to by .dorg, one-way).
type Mode int

const (
	Harvard Mode = iota
	VonNeumann
)

// pendingState is the single-slot latch for a label, macro description,
// and explicit origin, plus the accumulating comment buffer, that the
// next emitted unit consumes. Kept as an unexported struct (rather than
// raw mutable fields on Program) so "clear after consumption" is
// enforced in one place.
type pendingState struct {
	label     string
	hasLabel  bool
	macro     string
	hasMacro  bool
	comment   string
	origin    int64
	hasOrigin bool
}

func (p *pendingState) setLabel(name string) error {
	if p.hasLabel {
		return fmt.Errorf("two labels for the same command")
	}
	p.label, p.hasLabel = name, true
	return nil
}

func (p *pendingState) setMacro(desc string) error {
	if p.hasMacro {
		return fmt.Errorf("two macro descriptions for the same command")
	}
	p.macro, p.hasMacro = desc, true
	return nil
}

func (p *pendingState) addComment(text string) {
	if p.comment == "" {
		p.comment = text
		return
	}
	p.comment += "\n" + text
}

func (p *pendingState) setOrigin(addr int64) {
	p.origin, p.hasOrigin = addr, true
}

// consume copies the latch into line and clears it, including any
// pending explicit origin.
func (p *pendingState) consume(line *Line) {
	if p.hasLabel {
		line.Label = p.label
	}
	if p.hasMacro {
		line.Macro = p.macro
	}
	line.Comment = p.comment
	if p.hasOrigin {
		line.Origin = p.origin
		line.HasOrigin = true
	}
	p.label, p.hasLabel = "", false
	p.macro, p.hasMacro = "", false
	p.comment = ""
	p.hasOrigin = false
}

// DataValue is one queued Harvard-mode RAM initializer: the RAM address
// it will live at, and the expression producing its value.
type DataValue struct {
	Addr  int64
	Value expr.Expr
	Line  int
}

// Program accumulates the assembled units (instructions and data words)
// plus the symbol table they resolve against.
type Program struct {
	Units []Unit
	Ctx   *expr.Context

	pending pendingState

	mode     Mode
	ramNext  int64
	dataSeen bool

	// harvardData queues .data initializers awaiting link-time LDI/STS
	// code generation (Harvard mode only). .word/.long/.words only
	// reserve RAM and queue nothing.
	harvardData []DataValue
}

// NewProgram creates an empty program starting in Harvard mode.
func NewProgram() *Program {
	return &Program{Ctx: expr.NewContext()}
}

// SetPendingLabel latches a label for the next emitted unit.
func (p *Program) SetPendingLabel(name string) error { return p.pending.setLabel(name) }

// SetPendingMacroDescription latches a macro description for the next
// emitted unit.
func (p *Program) SetPendingMacroDescription(desc string) error { return p.pending.setMacro(desc) }

// AddPendingComment appends to the comment that will attach to the next
// emitted unit.
func (p *Program) AddPendingComment(text string) { p.pending.addComment(text) }

// AddPendingOrigin latches an explicit origin address for the next
// emitted unit.
func (p *Program) AddPendingOrigin(addr int64) { p.pending.setOrigin(addr) }

// AttachSameLineComment appends text to the most recently emitted unit's
// comment, used for a comment trailing an instruction on the same line.
func (p *Program) AttachSameLineComment(text string) {
	if len(p.Units) == 0 {
		return
	}
	switch u := p.Units[len(p.Units)-1].(type) {
	case *Instruction:
		u.Comment = joinComment(u.Comment, text)
	case *DataWord:
		u.Comment = joinComment(u.Comment, text)
	}
}

func joinComment(existing, add string) string {
	if existing == "" {
		return add
	}
	return existing + "\n" + add
}

// Add appends an instruction, consuming any pending label, macro
// description, comment, and explicit origin; the linker's address pass
// reads the origin from the instruction's Line.
func (p *Program) Add(ins *Instruction) {
	p.pending.consume(&ins.Line)
	p.Units = append(p.Units, ins)
}

// AddData appends a data word, consuming pending label/macro/comment.
func (p *Program) AddData(d *DataWord) {
	p.pending.consume(&d.Line)
	p.Units = append(p.Units, d)
}

// Mode reports the program's current addressing mode.
func (p *Program) Mode() Mode { return p.mode }

// SwitchToVonNeumann switches the program into Von Neumann mode at ramStart.
// It is one-way and rejects the switch if Harvard RAM has already been
// allocated via .word/.long/.words/.data.
func (p *Program) SwitchToVonNeumann(ramStart int64, lineNum int) error {
	if p.mode == VonNeumann {
		return fmt.Errorf("line %d: .dorg after .dorg", lineNum)
	}
	if p.dataSeen {
		return fmt.Errorf("line %d: .dorg after data already allocated in Harvard mode", lineNum)
	}
	p.mode = VonNeumann
	p.ramNext = ramStart
	return nil
}

// AllocRAM reserves n words of Harvard-mode RAM starting at the current
// cursor, returning the starting address. Invalid once in Von Neumann
// mode.
func (p *Program) AllocRAM(n int64, lineNum int) (int64, error) {
	if p.mode == VonNeumann {
		return 0, fmt.Errorf("line %d: RAM reservation directive invalid in Von Neumann mode", lineNum)
	}
	addr := p.ramNext
	p.ramNext += n
	p.dataSeen = true
	return addr, nil
}

// QueueHarvardData reserves one RAM word for value and queues it for
// link-time LDI/STS initializer generation.
func (p *Program) QueueHarvardData(value expr.Expr, lineNum int) (int64, error) {
	addr, err := p.AllocRAM(1, lineNum)
	if err != nil {
		return 0, err
	}
	p.harvardData = append(p.harvardData, DataValue{Addr: addr, Value: value, Line: lineNum})
	return addr, nil
}

// RAMCursor returns the current Harvard-mode RAM allocation cursor.
func (p *Program) RAMCursor() int64 { return p.ramNext }

// HarvardData returns the queued Harvard-mode RAM initializers.
func (p *Program) HarvardData() []DataValue { return p.harvardData }
