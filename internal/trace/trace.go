// Package trace renders tokens, AST dumps, instruction vectors, diagnostics
// and VM step traces for the CLI (spec.md §6 lists these as external
// collaborators: useful for a human, irrelevant to the compiler's own
// correctness). Every renderer except Dump takes a noColor flag and degrades
// to plain text when it is set, the way the teacher's REPL does for its own
// syntax highlighting.
package trace

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pl0lang/plzero/internal/ast"
	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/token"
	"github.com/pl0lang/plzero/internal/vm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))
	opcodeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Bold(true)
	literalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C"))
	registerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#BD93F9"))
	lexicalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	syntaxStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8700"))
	semanticStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	runtimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
)

// apply renders text in style unless noColor suppresses it, the same escape
// hatch as the teacher's applyStyle.
func apply(noColor bool, style lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

// Title renders a section banner for --ast and --instructions output (e.g. "AST", "INSTRUCTIONS").
func Title(noColor bool, label string) string {
	return apply(noColor, titleStyle, label)
}

// Tokens renders one line per token, the form `--ast`-adjacent debugging
// needs when diagnosing lexer output directly.
func Tokens(noColor bool, tokens []token.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		style := keywordStyle
		switch t.Type {
		case token.INTEGER:
			style = literalStyle
		case token.IDENTIFIER:
			style = lipgloss.NewStyle()
		}
		fmt.Fprintf(&b, "%4d:%-3d %-12s %s\n", t.Line, t.Column, t.Type, apply(noColor, style, t.Literal))
	}
	return b.String()
}

// AST renders a program's tree using its own String() form, with the root
// banner highlighted.
func AST(noColor bool, prog *ast.Program) string {
	var b strings.Builder
	b.WriteString(apply(noColor, titleStyle, "PROGRAM "+prog.Name))
	b.WriteString("\n")
	b.WriteString(prog.Block.String())
	return b.String()
}

// Instructions renders the flat instruction vector as `index f l a`, the
// same columns as the --dump text form (spec.md §6 "Persisted formats").
func Instructions(noColor bool, code []vm.Instruction) string {
	var b strings.Builder
	for i, in := range code {
		op := apply(noColor, opcodeStyle, in.F.String())
		if in.F == vm.OPR {
			fmt.Fprintf(&b, "%4d\t%s\t%d\t%s\n", i, op, in.L, apply(noColor, opcodeStyle, vm.OprCode(in.A).String()))
		} else {
			fmt.Fprintf(&b, "%4d\t%s\t%d\t%d\n", i, op, in.L, in.A)
		}
	}
	return b.String()
}

// Dump renders the instruction vector in the canonical `index f l a` text
// form spec.md §6 mandates for --dump, never colourised regardless of
// noColor (it is meant to be read back, not displayed).
func Dump(code []vm.Instruction) string {
	var b strings.Builder
	for i, in := range code {
		fmt.Fprintf(&b, "%d %s %d %d\n", i, in.F, in.L, in.A)
	}
	return b.String()
}

// Step renders one VM trace line: P, the instruction, B, T and the live
// stack prefix, matching spec.md §6's --trace column set. It is the function
// wired into vm.Machine.Trace.
func Step(noColor bool, p int, instr vm.Instruction, b, t int, stackPrefix []int) string {
	cells := make([]string, len(stackPrefix))
	for i, v := range stackPrefix {
		cells[i] = strconv.Itoa(v)
	}
	regs := apply(noColor, registerStyle, fmt.Sprintf("B=%d T=%d", b, t))
	return fmt.Sprintf("P=%-4d %-14s %s  stack=[%s]", p, apply(noColor, opcodeStyle, instr.String()), regs, strings.Join(cells, " "))
}

// Diagnostic renders a single diagnostic colour-coded by category.
func Diagnostic(noColor bool, d diag.Diagnostic) string {
	var style lipgloss.Style
	switch d.Category {
	case diag.Lexical:
		style = lexicalStyle
	case diag.Syntax:
		style = syntaxStyle
	case diag.Semantic:
		style = semanticStyle
	case diag.Runtime:
		style = runtimeStyle
	case diag.Warning:
		style = warningStyle
	default:
		style = lipgloss.NewStyle()
	}
	return apply(noColor, style, d.Error())
}

// Diagnostics renders a full diagnostic list, one per line.
func Diagnostics(noColor bool, diags []diag.Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(Diagnostic(noColor, d))
		b.WriteString("\n")
	}
	return b.String()
}
