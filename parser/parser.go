// Package parser turns assembly source text into an *asm.Program:
// tokenizing, expanding directives and the fixed macro set, parsing
// instruction operands per their opcode's argument grammar, and
// recursively pulling in .include'd files.
package parser

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/hasm16/asm"
	"github.com/lookbusy1344/hasm16/expr"
	"github.com/lookbusy1344/hasm16/grammar"
	"github.com/lookbusy1344/hasm16/isa"
)

// Parser recursive-descends over one file's token stream, emitting into
// a shared *asm.Program. A fresh Parser is created for each .include'd
// file, but all of them share the same Program and includeGuard so
// labels, RAM allocation, and cycle detection stay global to the
// assembly.
type Parser struct {
	lex      *Lexer
	cur      Token
	filename string
	baseDir  string

	Program *asm.Program

	// aliases maps a lowercased .reg alias name to the register it
	// stands for. A sub-parser created for .include starts with a copy
	// of its parent's aliases (lexical-scope inheritance: aliases
	// defined inside the included file do not leak back out).
	aliases map[string]isa.Register

	includes *includeGuard
}

// NewParser creates a root parser over source, with filename used in
// diagnostics and baseDir as the base for resolving .include paths.
func NewParser(source, filename, baseDir string) *Parser {
	p := &Parser{
		lex:      NewLexer(source, filename),
		filename: filename,
		baseDir:  baseDir,
		Program:  asm.NewProgram(),
		aliases:  make(map[string]isa.Register),
		includes: newIncludeGuard(),
	}
	p.advance()
	return p
}

func (p *Parser) advance() { p.cur = p.lex.NextToken() }

// Errors returns the lexical warnings/errors accumulated while parsing.
func (p *Parser) Errors() *ErrorList { return p.lex.Errors() }

// Parse tokenizes and assembles the entire file (and any files it
// .include's) into p.Program.
func (p *Parser) Parse() error {
	for p.cur.Type != TokenEOF {
		if err := p.parseLine(); err != nil {
			return err
		}
	}
	if errs := p.lex.Errors(); errs.HasErrors() {
		return errs.Errors[0]
	}
	return nil
}

func (p *Parser) parseLine() error {
	switch p.cur.Type {
	case TokenNewline:
		p.advance()
		return nil

	case TokenComment:
		p.Program.AddPendingComment(commentText(p.cur.Literal))
		p.advance()
		return p.expectLineEnd()

	case TokenLabelDef:
		name := p.cur.Literal
		p.advance()
		if err := p.Program.SetPendingLabel(name); err != nil {
			return p.lineErr(ErrorSyntax, err.Error())
		}
		return nil

	case TokenDirective:
		return p.parseDirective()

	case TokenIdentifier:
		return p.parseMnemonicLine()

	default:
		return p.lineErr(ErrorSyntax, fmt.Sprintf("unexpected token %s", p.cur.Type))
	}
}

// expectLineEnd consumes an optional trailing comment (attaching it to
// the most recently emitted unit) and then a newline or EOF.
func (p *Parser) expectLineEnd() error {
	if p.cur.Type == TokenComment {
		p.Program.AttachSameLineComment(commentText(p.cur.Literal))
		p.advance()
	}
	if p.cur.Type == TokenNewline {
		p.advance()
		return nil
	}
	if p.cur.Type == TokenEOF {
		return nil
	}
	return p.lineErr(ErrorSyntax, fmt.Sprintf("unexpected token %s after statement", p.cur.Type))
}

// commentText strips the leading ';' and surrounding blanks from a line
// comment token; block comments are kept as written.
func commentText(lit string) string {
	if strings.HasPrefix(lit, ";") {
		return strings.TrimSpace(lit[1:])
	}
	return lit
}

func (p *Parser) lineErr(kind ErrorKind, msg string) error {
	return NewError(p.cur.Pos, kind, msg)
}

// --- registers ----------------------------------------------------------

func (p *Parser) resolveRegister(name string) (isa.Register, bool) {
	if r, ok := p.aliases[strings.ToLower(name)]; ok {
		return r, true
	}
	return isa.ParseRegister(name)
}

// ExpectRegister implements grammar.Operands.
func (p *Parser) ExpectRegister() (isa.Register, error) {
	if p.cur.Type != TokenIdentifier {
		return 0, p.errorf(ErrorInstructionBuild, "expected register, found %s", p.cur.Type)
	}
	r, ok := p.resolveRegister(p.cur.Literal)
	if !ok {
		return 0, p.errorf(ErrorInstructionBuild, "unknown register %q", p.cur.Literal)
	}
	p.advance()
	return r, nil
}

// ExpectLBracket implements grammar.Operands.
func (p *Parser) ExpectLBracket() error {
	if p.cur.Type != TokenLBracket {
		return p.errorf(ErrorInstructionBuild, "expected '['")
	}
	p.advance()
	return nil
}

// ExpectRBracket implements grammar.Operands.
func (p *Parser) ExpectRBracket() error {
	if p.cur.Type != TokenRBracket {
		return p.errorf(ErrorInstructionBuild, "expected ']'")
	}
	p.advance()
	return nil
}

// ExpectComma implements grammar.Operands.
func (p *Parser) ExpectComma() error {
	if p.cur.Type != TokenComma {
		return p.errorf(ErrorInstructionBuild, "expected ','")
	}
	p.advance()
	return nil
}

// TakeSign implements grammar.Operands.
func (p *Parser) TakeSign() (bool, error) {
	switch p.cur.Type {
	case TokenPlus:
		p.advance()
		return false, nil
	case TokenMinus:
		p.advance()
		return true, nil
	default:
		return false, p.errorf(ErrorInstructionBuild, "expected '+' or '-'")
	}
}

// ExpectEnd implements grammar.Operands: the instruction's operands must
// be followed by a comment, newline, or EOF.
func (p *Parser) ExpectEnd() error {
	switch p.cur.Type {
	case TokenComment, TokenNewline, TokenEOF:
		return nil
	default:
		return p.errorf(ErrorInstructionBuild, "unexpected extra token %s", p.cur.Type)
	}
}

// var _ grammar.Operands ensures Parser keeps satisfying the interface
// grammar.Shape.Parse is driven through.
var _ grammar.Operands = (*Parser)(nil)

// --- instructions and macros ---------------------------------------------

func (p *Parser) parseMnemonicLine() error {
	name := p.cur.Literal
	lineNum := p.cur.Pos.Line

	if expander, ok := macroTable[strings.ToUpper(name)]; ok {
		p.advance()
		return expander(p, lineNum)
	}

	op, ok := isa.Lookup(name)
	if !ok {
		return p.lineErr(ErrorSyntax, fmt.Sprintf("unknown mnemonic %q", name))
	}
	p.advance()

	ins, err := p.parseInstruction(op, lineNum)
	if err != nil {
		return err
	}
	p.Program.Add(ins)
	return p.expectLineEnd()
}

// parseInstruction parses one opcode's operands per its argument shape
// and returns the built instruction.
func (p *Parser) parseInstruction(op isa.Opcode, lineNum int) (*asm.Instruction, error) {
	ib := asm.NewInstructionBuilder(op, lineNum)
	shape := grammar.ForOpcode(op)
	if err := shape.Parse(p, ib); err != nil {
		return nil, err
	}
	return ib.Build()
}

// --- directives -----------------------------------------------------------

func (p *Parser) parseDirective() error {
	name := strings.ToLower(p.cur.Literal)
	lineNum := p.cur.Pos.Line
	p.advance()

	var err error
	switch name {
	case ".reg":
		err = p.parseRegDirective()
	case ".word":
		err = p.parseWordDirective(lineNum)
	case ".long":
		err = p.parseLongDirective(lineNum)
	case ".words":
		err = p.parseWordsDirective(lineNum)
	case ".const":
		err = p.parseConstDirective()
	case ".org":
		err = p.parseOrgDirective()
	case ".dorg":
		err = p.parseDorgDirective(lineNum)
	case ".data":
		err = p.parseDataDirective(lineNum)
	case ".include":
		err = p.parseIncludeDirective(lineNum)
	default:
		return p.lineErr(ErrorSyntax, fmt.Sprintf("unknown directive %q", name))
	}
	if err != nil {
		return err
	}
	return p.expectLineEnd()
}

func (p *Parser) expectIdentifier() (string, error) {
	if p.cur.Type != TokenIdentifier {
		return "", p.errorf(ErrorSyntax, "expected identifier")
	}
	name := p.cur.Literal
	p.advance()
	return name, nil
}

// parseRegDirective: ".reg alias register" binds alias to an existing
// register (or a previously defined alias), case-insensitively.
func (p *Parser) parseRegDirective() error {
	alias, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	regName, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	r, ok := p.resolveRegister(regName)
	if !ok {
		return p.lineErr(ErrorSyntax, fmt.Sprintf("unknown register %q", regName))
	}
	p.aliases[strings.ToLower(alias)] = r
	return nil
}

func (p *Parser) parseWordDirective(lineNum int) error {
	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	addr, err := p.Program.AllocRAM(1, lineNum)
	if err != nil {
		return p.lineErr(ErrorSyntax, err.Error())
	}
	if err := p.Program.Ctx.AddIdentifier(name, addr); err != nil {
		return p.lineErr(ErrorSyntax, err.Error())
	}
	return nil
}

func (p *Parser) parseLongDirective(lineNum int) error {
	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	addr, err := p.Program.AllocRAM(2, lineNum)
	if err != nil {
		return p.lineErr(ErrorSyntax, err.Error())
	}
	if err := p.Program.Ctx.AddIdentifier(name, addr); err != nil {
		return p.lineErr(ErrorSyntax, err.Error())
	}
	return nil
}

func (p *Parser) parseWordsDirective(lineNum int) error {
	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	countExpr, err := p.ParseExpr()
	if err != nil {
		return err
	}
	n, err := countExpr.Eval(p.Program.Ctx)
	if err != nil {
		return p.lineErr(ErrorEncoding, err.Error())
	}
	if n < 0 {
		return p.lineErr(ErrorEncoding, ".words count must be non-negative")
	}
	addr, err := p.Program.AllocRAM(n, lineNum)
	if err != nil {
		return p.lineErr(ErrorSyntax, err.Error())
	}
	if err := p.Program.Ctx.AddIdentifier(name, addr); err != nil {
		return p.lineErr(ErrorSyntax, err.Error())
	}
	return nil
}

func (p *Parser) parseConstDirective() error {
	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	e, err := p.ParseExpr()
	if err != nil {
		return err
	}
	v, err := e.Eval(p.Program.Ctx)
	if err != nil {
		return p.lineErr(ErrorEncoding, err.Error())
	}
	if err := p.Program.Ctx.AddIdentifier(name, v); err != nil {
		return p.lineErr(ErrorSyntax, err.Error())
	}
	return nil
}

func (p *Parser) parseOrgDirective() error {
	e, err := p.ParseExpr()
	if err != nil {
		return err
	}
	v, err := e.Eval(p.Program.Ctx)
	if err != nil {
		return p.lineErr(ErrorEncoding, err.Error())
	}
	p.Program.AddPendingOrigin(v)
	return nil
}

func (p *Parser) parseDorgDirective(lineNum int) error {
	e, err := p.ParseExpr()
	if err != nil {
		return err
	}
	v, err := e.Eval(p.Program.Ctx)
	if err != nil {
		return p.lineErr(ErrorEncoding, err.Error())
	}
	if err := p.Program.SwitchToVonNeumann(v, lineNum); err != nil {
		return p.lineErr(ErrorEncoding, err.Error())
	}
	return nil
}

// parseDataDirective handles ".data label value(,value)*". In Harvard
// mode each value is queued for link-time LDI/STS initializer
// generation (one RAM word each) and the label is bound directly to the
// RAM address of the first value, the same way .word/.long/.words bind
// their label; in Von Neumann mode each value is emitted directly as a
// DataWord into program memory and the label rides the pending-label
// latch onto the first DataWord, like any other unit. A string literal
// value expands to one entry per code point, with no implicit
// terminator.
func (p *Parser) parseDataDirective(lineNum int) error {
	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}

	vonNeumann := p.Program.Mode() == asm.VonNeumann
	if vonNeumann {
		if err := p.Program.SetPendingLabel(name); err != nil {
			return p.lineErr(ErrorSyntax, err.Error())
		}
	}

	bound := false
	first := true
	for {
		if !first {
			if p.cur.Type != TokenComma {
				break
			}
			p.advance()
		}
		first = false

		values, err := p.parseDataValue()
		if err != nil {
			return err
		}
		for _, v := range values {
			if vonNeumann {
				p.Program.AddData(&asm.DataWord{Line: asm.Line{Number: lineNum}, Value: v})
				continue
			}
			addr, err := p.Program.QueueHarvardData(v, lineNum)
			if err != nil {
				return p.lineErr(ErrorSyntax, err.Error())
			}
			if !bound {
				if err := p.Program.Ctx.AddIdentifier(name, addr); err != nil {
					return p.lineErr(ErrorSyntax, err.Error())
				}
				bound = true
			}
		}
	}
	if !vonNeumann && !bound {
		return p.lineErr(ErrorSyntax, ".data requires at least one value")
	}
	return nil
}

// parseDataValue parses one .data value: a string literal expands to
// one expr.Constant per code point; anything else is a single constant
// expression.
func (p *Parser) parseDataValue() ([]expr.Expr, error) {
	if p.cur.Type == TokenString {
		text := ProcessEscapeSequences(p.cur.Literal)
		p.advance()
		values := make([]expr.Expr, 0, len(text))
		for _, r := range text {
			values = append(values, expr.Constant{Value: int64(r)})
		}
		return values, nil
	}
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return []expr.Expr{e}, nil
}

func (p *Parser) parseIncludeDirective(lineNum int) error {
	if p.cur.Type != TokenString {
		return p.errorf(ErrorSyntax, "expected a quoted filename after .include")
	}
	filename := p.cur.Literal
	p.advance()
	return p.includeFile(filename, lineNum)
}
