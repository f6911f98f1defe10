package parser

import (
	"os"
	"path/filepath"

	"github.com/lookbusy1344/hasm16/asm"
)

// ParseFileOptions configures top-level file parsing.
type ParseFileOptions struct {
	// Defines seeds the program's symbol table before parsing begins,
	// populated from the CLI's --define KEY=VALUE flags.
	Defines map[string]int64
}

// DefaultParseFileOptions returns the default options for parsing.
func DefaultParseFileOptions() ParseFileOptions {
	return ParseFileOptions{}
}

// ParseFile reads and assembles a source file, following any .include
// directives it contains, into a single *asm.Program. Returns the
// parser alongside the program so callers can inspect lexer warnings.
func ParseFile(filePath string, opts ParseFileOptions) (*asm.Program, *Parser, error) {
	content, err := os.ReadFile(filePath) // #nosec G304 -- user-provided assembly file path
	if err != nil {
		return nil, nil, NewError(Position{Filename: filePath}, ErrorFileIO, err.Error())
	}

	filename := filepath.Base(filePath)
	baseDir := filepath.Dir(filePath)

	p := NewParser(string(content), filename, baseDir)
	for name, value := range opts.Defines {
		if err := p.Program.Ctx.AddIdentifier(name, value); err != nil {
			return nil, p, NewError(Position{Filename: filename}, ErrorSyntax, err.Error())
		}
	}

	if err := p.Parse(); err != nil {
		return nil, p, err
	}
	return p.Program, p, nil
}

// ParseFileSimple is a convenience wrapper that uses default options.
func ParseFileSimple(filePath string) (*asm.Program, *Parser, error) {
	return ParseFile(filePath, DefaultParseFileOptions())
}
