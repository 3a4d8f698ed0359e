// Package diag defines the structured diagnostics shared by the lexer,
// parser, code generator, semantic pass and virtual machine (spec.md §7).
//
// Diagnostics are accumulated (lexical and syntax errors, warnings, and the
// semantic errors the code generator collects before aborting) or returned
// as a single terminal error (runtime errors halt the VM). Keeping one shape for all of them lets the CLI
// render any phase's failures the same way.
package diag

import "fmt"

// Category classifies a Diagnostic per spec.md §7.
type Category int

const (
	// Lexical covers illegal characters and malformed tokens.
	Lexical Category = iota
	// Syntax covers unexpected/missing tokens, recovered via panic mode.
	Syntax
	// Semantic covers duplicate definitions, undefined identifiers, wrong
	// kind for context, and arity mismatches.
	Semantic
	// Runtime covers division by zero, stack overflow, bad instruction
	// fields, and malformed input.
	Runtime
	// Warning covers the parser's declaration-order and const-separator
	// notices and every finding of the optional semantic pass (unused
	// variables and the like); none of them are fatal.
	Warning
)

// String renders the category the way the CLI labels it.
func (c Category) String() string {
	switch c {
	case Lexical:
		return "lexical error"
	case Syntax:
		return "syntax error"
	case Semantic:
		return "semantic error"
	case Runtime:
		return "runtime error"
	case Warning:
		return "warning"
	default:
		return "error"
	}
}

// Diagnostic is a single reported condition, with enough position
// information to point a user at the offending source or instruction.
type Diagnostic struct {
	Category Category
	Message  string
	Line     int // source line, when known; 0 otherwise
	Column   int // source column, when known; 0 otherwise
	PC       int // faulting instruction index; only meaningful for Runtime diagnostics
}

// Error implements the error interface so a Diagnostic can be returned
// directly as an error, as vm.Machine.Run does.
func (d Diagnostic) Error() string {
	if d.Category == Runtime {
		return fmt.Sprintf("%s at P=%d: %s", d.Category, d.PC, d.Message)
	}
	if d.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %s", d.Category, d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Category, d.Message)
}

// NewRuntime builds a Runtime diagnostic at the given faulting program
// counter.
func NewRuntime(pc int, format string, args ...any) Diagnostic {
	return Diagnostic{Category: Runtime, Message: fmt.Sprintf(format, args...), PC: pc}
}

// NewSemantic builds a Semantic diagnostic at the given source position.
func NewSemantic(line, column int, format string, args ...any) Diagnostic {
	return Diagnostic{Category: Semantic, Message: fmt.Sprintf(format, args...), Line: line, Column: column, PC: -1}
}

// Logger is the narrow logging surface internal packages depend on, so that
// core compiler/VM code never imports a concrete logging library directly.
// cmd/plzero supplies a logrus-backed implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything; used by tests and by library callers that
// don't want log output.
type NopLogger struct{}

// Debugf implements Logger.
func (NopLogger) Debugf(string, ...any) {}

// Warnf implements Logger.
func (NopLogger) Warnf(string, ...any) {}

// Errorf implements Logger.
func (NopLogger) Errorf(string, ...any) {}
