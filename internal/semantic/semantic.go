// Package semantic implements the optional pre-pass sketched in spec.md
// §4.3: unused-variable detection, Levenshtein-distance "did-you-mean"
// suggestions, static constant folding, and arity checking. It runs against
// its own, independently-built symbol table and never touches the
// instruction vector the code generator produces — every finding here is a
// warning, and none of them change what Generate emits.
package semantic

import (
	"fmt"

	"github.com/pl0lang/plzero/internal/ast"
	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/symtab"
	"github.com/pl0lang/plzero/internal/token"
)

// Analyzer walks an AST collecting warnings with no effect on codegen.
type Analyzer struct {
	symbols  *symtab.Table
	names    []string // every name defined anywhere, for did-you-mean suggestions
	warnings []diag.Diagnostic
}

// Analyze runs the full optional pre-pass over prog and returns every
// finding, in the order encountered.
func Analyze(prog *ast.Program) []diag.Diagnostic {
	a := &Analyzer{symbols: symtab.New()}
	a.symbols.EnterScope()
	a.block(prog.Block)
	a.symbols.ExitScope()
	return a.warnings
}

func (a *Analyzer) warnf(line, col int, format string, args ...any) {
	a.warnings = append(a.warnings, diag.Diagnostic{
		Category: diag.Warning,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

func (a *Analyzer) block(b *ast.Block) {
	for _, c := range b.Consts {
		if _, err := a.symbols.DefineConst(c.Name, c.Value); err == nil {
			a.names = append(a.names, c.Name)
		}
	}
	for _, v := range b.Vars {
		if _, err := a.symbols.DefineVar(v.Name); err == nil {
			a.names = append(a.names, v.Name)
		}
	}
	for _, p := range b.Procedures {
		if _, err := a.symbols.DefineProc(p.Name, len(p.Params)); err == nil {
			a.names = append(a.names, p.Name)
		}
		a.procedure(p)
	}
	a.compound(b.Body)
	a.reportUnused()
}

func (a *Analyzer) procedure(p *ast.ProcedureDecl) {
	a.symbols.EnterScope()
	for _, param := range p.Params {
		if _, err := a.symbols.DefineVar(param); err == nil {
			a.names = append(a.names, param)
		}
	}
	a.block(p.Block)
	a.symbols.ExitScope()
}

// reportUnused flags every VAR in the scope being left that was never
// looked up with markReferenced=true (spec.md §4.3: "per scope, on
// exit_scope"). It runs before ExitScope pops the scope's symbol list.
func (a *Analyzer) reportUnused() {
	for _, sym := range a.symbols.Symbols() {
		if sym.Kind == symtab.Var && !sym.Referenced {
			a.warnf(0, 0, "variable %q is declared but never used", sym.Name)
		}
	}
}

func (a *Analyzer) compound(c *ast.Compound) {
	for _, s := range c.Statements {
		a.statement(s)
	}
}

func (a *Analyzer) statement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Assign:
		a.expression(n.Value)
		if sym, ok := a.resolve(n.Target.Name, n.Target.Token, false); ok && sym.Kind != symtab.Var {
			a.warnf(n.Token.Line, n.Token.Column, "cannot assign to %s %q", sym.Kind, n.Target.Name)
		}

	case *ast.If:
		a.checkCondition(n.Condition)
		a.statement(n.Consequence)
		if n.Alternative != nil {
			a.statement(n.Alternative)
		}

	case *ast.While:
		a.checkCondition(n.Condition)
		a.statement(n.Body)

	case *ast.Call:
		if sym, ok := a.resolve(n.Name, n.CallSite, true); ok {
			if sym.Kind != symtab.Proc {
				a.warnf(n.CallSite.Line, n.CallSite.Column, "cannot call %s %q", sym.Kind, n.Name)
			} else if len(n.Args) != sym.ParamCount {
				a.warnf(n.CallSite.Line, n.CallSite.Column, "procedure %q expects %d argument(s), got %d", n.Name, sym.ParamCount, len(n.Args))
			}
		}
		for _, arg := range n.Args {
			a.expression(arg)
		}

	case *ast.Read:
		for _, v := range n.Vars {
			if sym, ok := a.resolve(v.Name, v.Token, false); ok && sym.Kind != symtab.Var {
				a.warnf(v.Token.Line, v.Token.Column, "cannot read into %s %q", sym.Kind, v.Name)
			}
		}

	case *ast.Write:
		for _, e := range n.Exprs {
			a.expression(e)
		}

	case *ast.Compound:
		a.compound(n)

	case *ast.NoOp:
	}
}

// checkCondition folds a condition's operands (when every leaf is a
// constant) and warns when the result is statically true or false. Since
// conditions share the BinOp/UnaryOp nodes with arithmetic expressions, this
// is just fold with a different interpretation of the result.
func (a *Analyzer) checkCondition(e ast.Expression) {
	a.expression(e)
	if v, ok := a.fold(e); ok {
		if v == 0 {
			a.warnf(0, 0, "condition is statically false")
		} else {
			a.warnf(0, 0, "condition is statically true")
		}
	}
}

func (a *Analyzer) expression(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Var:
		a.resolve(n.Name, n.Token, true)
	case *ast.UnaryOp:
		a.expression(n.Operand)
	case *ast.BinOp:
		a.expression(n.Left)
		a.expression(n.Right)
		if n.Operator == "/" {
			if rhs, ok := a.fold(n.Right); ok && rhs == 0 {
				a.warnf(n.Token.Line, n.Token.Column, "division by zero in a constant expression")
			}
		}
	case *ast.Num:
	}
}

// resolve looks a name up and, on failure, reports it with a
// Levenshtein-distance "did you mean" suggestion when one is close enough.
func (a *Analyzer) resolve(name string, tok token.Token, markReferenced bool) (*symtab.Symbol, bool) {
	sym, _, ok := a.symbols.Lookup(name, markReferenced)
	if ok {
		return sym, true
	}
	if best, dist := closest(name, a.names); best != "" && dist <= 2 {
		a.warnf(tok.Line, tok.Column, "undefined identifier %q (did you mean %q?)", name, best)
	} else {
		a.warnf(tok.Line, tok.Column, "undefined identifier %q", name)
	}
	return nil, false
}

// fold evaluates e to a constant value, succeeding only when every leaf is
// a literal or a reference to a CONST symbol.
func (a *Analyzer) fold(e ast.Expression) (int, bool) {
	switch n := e.(type) {
	case *ast.Num:
		return n.Value, true

	case *ast.Var:
		sym, _, ok := a.symbols.Lookup(n.Name, false)
		if !ok || sym.Kind != symtab.Const {
			return 0, false
		}
		return sym.Value, true

	case *ast.UnaryOp:
		v, ok := a.fold(n.Operand)
		if !ok {
			return 0, false
		}
		switch n.Operator {
		case "-":
			return -v, true
		case "odd":
			return v & 1, true
		default:
			return 0, false
		}

	case *ast.BinOp:
		l, lok := a.fold(n.Left)
		r, rok := a.fold(n.Right)
		if !lok || !rok {
			return 0, false
		}
		switch n.Operator {
		case "+":
			return l + r, true
		case "-":
			return l - r, true
		case "*":
			return l * r, true
		case "/":
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case "=":
			return boolToInt(l == r), true
		case "#":
			return boolToInt(l != r), true
		case "<":
			return boolToInt(l < r), true
		case "<=":
			return boolToInt(l <= r), true
		case ">":
			return boolToInt(l > r), true
		case ">=":
			return boolToInt(l >= r), true
		default:
			return 0, false
		}

	default:
		return 0, false
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// closest returns the candidate in names with the smallest Levenshtein
// distance to target, and that distance. Ties keep the first candidate
// found, matching declaration order.
func closest(target string, names []string) (string, int) {
	best := ""
	bestDist := -1
	for _, n := range names {
		d := levenshtein(target, n)
		if bestDist == -1 || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, bestDist
}

// levenshtein computes the classic edit distance between a and b with two
// rolling rows, grounded on the corpus's symbol_table's
// did-you-mean suggestion helper.
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
