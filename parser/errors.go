package parser

import (
	"fmt"
	"strings"
)

// Position represents a location in the source file.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// ErrorKind categorizes a fatal assembly error into the kinds the
// pipeline can raise: malformed syntax or an unknown directive/include
// failure, an instruction whose operands don't match its opcode's
// grammar, or an expression/encoding failure discovered once constants
// are evaluated.
type ErrorKind int

const (
	ErrorSyntax ErrorKind = iota
	ErrorInstructionBuild
	ErrorEncoding
	ErrorCircularInclude
	ErrorFileIO
)

// Error represents a fatal parse or assembly error with position
// information. Line numbers propagate once set and are never
// overwritten by an outer caller (first assignment wins).
type Error struct {
	Pos     Position
	Message string
	Context string // the source line the error occurred on, if known
	Kind    ErrorKind
	lineSet bool
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: error: %s\n", e.Pos, e.Message))
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf("    %s\n", e.Context))
	}
	return sb.String()
}

// NewError creates a new parse error.
func NewError(pos Position, kind ErrorKind, message string) *Error {
	return &Error{Pos: pos, Message: message, Kind: kind, lineSet: pos.Line != 0}
}

// NewErrorWithContext creates a new parse error carrying the offending
// source line for display.
func NewErrorWithContext(pos Position, kind ErrorKind, message, context string) *Error {
	return &Error{Pos: pos, Message: message, Context: context, Kind: kind, lineSet: pos.Line != 0}
}

// SetLineNumber assigns a line number if one hasn't already been set by
// an earlier (more specific) caller.
func (e *Error) SetLineNumber(line int) {
	if e.lineSet {
		return
	}
	e.Pos.Line = line
	e.lineSet = true
}

// Warning represents a non-fatal diagnostic (e.g. an unresolved
// short-form candidate left in long form).
type Warning struct {
	Pos     Position
	Message string
}

func (w *Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Pos, w.Message)
}

// ErrorList collects errors and warnings encountered while parsing.
// Assembly is first-error-aborts: callers stop at the first Error, but
// warnings accumulate for a trailing report.
type ErrorList struct {
	Errors   []*Error
	Warnings []*Warning
}

func (el *ErrorList) AddError(err *Error)     { el.Errors = append(el.Errors, err) }
func (el *ErrorList) AddWarning(w *Warning)   { el.Warnings = append(el.Warnings, w) }
func (el *ErrorList) HasErrors() bool         { return len(el.Errors) > 0 }

func (el *ErrorList) Error() string {
	var sb strings.Builder
	for _, err := range el.Errors {
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (el *ErrorList) PrintWarnings() string {
	if len(el.Warnings) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, w := range el.Warnings {
		sb.WriteString(w.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
