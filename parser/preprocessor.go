package parser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lookbusy1344/hasm16/isa"
)

// includeGuard tracks the chain of files currently being parsed, shared
// across every recursive sub-parser spawned by .include, so a cycle is
// caught regardless of how deep it is nested.
type includeGuard struct {
	stack []string
}

func newIncludeGuard() *includeGuard {
	return &includeGuard{stack: make([]string, 0, 4)}
}

// push records absPath as being parsed, returning an error if it is
// already on the stack (a circular include) or the stack would exceed
// MaxIncludeDepth.
func (g *includeGuard) push(absPath string, lineNum int) error {
	for _, seen := range g.stack {
		if seen == absPath {
			return fmt.Errorf("line %d: circular include of %s", lineNum, absPath)
		}
	}
	if len(g.stack) >= MaxIncludeDepth {
		return fmt.Errorf("line %d: include nesting exceeds %d levels", lineNum, MaxIncludeDepth)
	}
	g.stack = append(g.stack, absPath)
	return nil
}

func (g *includeGuard) pop() {
	g.stack = g.stack[:len(g.stack)-1]
}

// includeFile parses filename (resolved relative to p.baseDir) as a
// nested file, folding its units into the same Program. The sub-parser
// shares this parser's Program and includeGuard, and starts with a copy
// of its current register aliases — inherited, but not leaked back.
func (p *Parser) includeFile(filename string, lineNum int) error {
	absPath, err := filepath.Abs(filepath.Join(p.baseDir, filename))
	if err != nil {
		return p.lineErr(ErrorFileIO, fmt.Sprintf("resolving include path %q: %v", filename, err))
	}

	if err := p.includes.push(absPath, lineNum); err != nil {
		return p.lineErr(ErrorCircularInclude, err.Error())
	}
	defer p.includes.pop()

	content, err := os.ReadFile(absPath) // #nosec G304 -- assembler-controlled include path
	if err != nil {
		return p.lineErr(ErrorFileIO, fmt.Sprintf("reading include %q: %v", filename, err))
	}

	sub := &Parser{
		lex:      NewLexer(string(content), absPath),
		filename: absPath,
		baseDir:  filepath.Dir(absPath),
		Program:  p.Program,
		aliases:  copyAliases(p.aliases),
		includes: p.includes,
	}
	sub.advance()
	return sub.Parse()
}

func copyAliases(src map[string]isa.Register) map[string]isa.Register {
	dst := make(map[string]isa.Register, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
