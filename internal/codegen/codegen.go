// Package codegen lowers a PL/0 AST into a flat vector of instructions for
// the stack machine (spec.md §4.3). The generator is a single tree walk: it
// emits instructions in source order, using emit/patch to backpatch forward
// references (jump targets and procedure entry points) once they become
// known, and runs the symbol-table lookups that the checks in §4.3 require.
package codegen

import (
	"fmt"

	"github.com/pl0lang/plzero/internal/ast"
	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/symtab"
	"github.com/pl0lang/plzero/internal/vm"
)

// Generator walks an AST and produces an instruction vector.
type Generator struct {
	instructions []vm.Instruction
	symbols      *symtab.Table
	errors       []diag.Diagnostic
}

// New creates a Generator with an empty symbol table.
func New() *Generator {
	return &Generator{symbols: symtab.New()}
}

// emit appends an instruction and returns its index, the handle a later
// patch call uses to backpatch its address field.
func (g *Generator) emit(f vm.OpCode, l, a int) int {
	idx := len(g.instructions)
	g.instructions = append(g.instructions, vm.Instruction{F: f, L: l, A: a})
	return idx
}

// patch rewrites the address field of a previously emitted instruction.
// Invariant (spec.md §8, #1): this is the only way an emitted instruction's
// fields ever change.
func (g *Generator) patch(idx, a int) {
	g.instructions[idx].A = a
}

func (g *Generator) codeLen() int { return len(g.instructions) }

func (g *Generator) errorf(line, col int, format string, args ...any) {
	g.errors = append(g.errors, diag.NewSemantic(line, col, format, args...))
}

// Generate compiles a full program. It returns the instruction vector and
// any semantic errors found; per spec.md §7, code generation aborts (the
// instruction vector is not meaningful) if any semantic error occurred.
func Generate(prog *ast.Program) ([]vm.Instruction, []diag.Diagnostic) {
	g := New()
	g.symbols.EnterScope()
	g.block(prog.Block)
	g.symbols.ExitScope()
	if len(g.errors) > 0 {
		return nil, g.errors
	}
	return g.instructions, nil
}

// block lowers one block per the generator table in spec.md §4.3:
// a leading JMP over nested procedure bodies, then declarations, then the
// patched jump, frame allocation, the body, and a return.
func (g *Generator) block(b *ast.Block) {
	jmpIdx := g.emit(vm.JMP, 0, 0)

	for _, c := range b.Consts {
		if _, err := g.symbols.DefineConst(c.Name, c.Value); err != nil {
			g.errorf(c.Token.Line, c.Token.Column, "%v", err)
		}
	}
	for _, v := range b.Vars {
		if _, err := g.symbols.DefineVar(v.Name); err != nil {
			g.errorf(v.Token.Line, v.Token.Column, "%v", err)
		}
	}
	for _, p := range b.Procedures {
		sym, err := g.symbols.DefineProc(p.Name, len(p.Params))
		if err != nil {
			g.errorf(p.Token.Line, p.Token.Column, "%v", err)
			continue
		}
		sym.Addr = g.codeLen()
		g.procedure(p)
	}

	g.patch(jmpIdx, g.codeLen())
	g.emit(vm.INT, 0, g.symbols.FrameSize())
	g.compound(b.Body)
	g.emit(vm.OPR, 0, int(vm.RET))
}

// procedure lowers a nested procedure: its parameters become VARs at
// offsets 3, 4, ... in a fresh scope, ahead of the block's own locals.
func (g *Generator) procedure(p *ast.ProcedureDecl) {
	g.symbols.EnterScope()
	for _, param := range p.Params {
		if _, err := g.symbols.DefineVar(param); err != nil {
			g.errorf(p.Token.Line, p.Token.Column, "%v", err)
		}
	}
	g.block(p.Block)
	g.symbols.ExitScope()
}

func (g *Generator) compound(c *ast.Compound) {
	for _, stmt := range c.Statements {
		g.statement(stmt)
	}
}

// statement lowers one statement per the emission table in spec.md §4.3.
func (g *Generator) statement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Assign:
		g.expression(n.Value)
		sym, delta, ok := g.symbols.Lookup(n.Target.Name, false)
		if !ok {
			g.errorf(n.Token.Line, n.Token.Column, "undefined identifier %q", n.Target.Name)
			return
		}
		if sym.Kind != symtab.Var {
			g.errorf(n.Token.Line, n.Token.Column, "cannot assign to %s %q", sym.Kind, n.Target.Name)
			return
		}
		sym.Initialized = true
		g.emit(vm.STO, delta, sym.Addr)

	case *ast.If:
		g.expression(n.Condition)
		jpc := g.emit(vm.JPC, 0, 0)
		g.statement(n.Consequence)
		if n.Alternative == nil {
			g.patch(jpc, g.codeLen())
			return
		}
		jmp := g.emit(vm.JMP, 0, 0)
		g.patch(jpc, g.codeLen())
		g.statement(n.Alternative)
		g.patch(jmp, g.codeLen())

	case *ast.While:
		top := g.codeLen()
		g.expression(n.Condition)
		jpc := g.emit(vm.JPC, 0, 0)
		g.statement(n.Body)
		g.emit(vm.JMP, 0, top)
		g.patch(jpc, g.codeLen())

	case *ast.Call:
		sym, delta, ok := g.symbols.Lookup(n.Name, true)
		if !ok {
			g.errorf(n.CallSite.Line, n.CallSite.Column, "undefined identifier %q", n.Name)
			return
		}
		if sym.Kind != symtab.Proc {
			g.errorf(n.CallSite.Line, n.CallSite.Column, "cannot call %s %q", sym.Kind, n.Name)
			return
		}
		if len(n.Args) != sym.ParamCount {
			g.errorf(n.CallSite.Line, n.CallSite.Column, "procedure %q expects %d argument(s), got %d", n.Name, sym.ParamCount, len(n.Args))
		}
		for i, arg := range n.Args {
			g.expression(arg)
			g.emit(vm.STO, -1, 3+i)
		}
		g.emit(vm.CAL, delta, sym.Addr)

	case *ast.Read:
		for _, v := range n.Vars {
			g.emit(vm.RED, 0, 0)
			sym, delta, ok := g.symbols.Lookup(v.Name, false)
			if !ok {
				g.errorf(v.Token.Line, v.Token.Column, "undefined identifier %q", v.Name)
				continue
			}
			if sym.Kind != symtab.Var {
				g.errorf(v.Token.Line, v.Token.Column, "cannot read into %s %q", sym.Kind, v.Name)
				continue
			}
			sym.Initialized = true
			g.emit(vm.STO, delta, sym.Addr)
		}

	case *ast.Write:
		for _, e := range n.Exprs {
			g.expression(e)
			g.emit(vm.WRT, 0, 0)
		}
		g.emit(vm.OPR, 0, int(vm.LINE))

	case *ast.Compound:
		g.compound(n)

	case *ast.NoOp:
		// emits nothing

	default:
		panic(fmt.Sprintf("codegen: unhandled statement node %T", s))
	}
}

// expression lowers one expression per the emission table in spec.md §4.3.
func (g *Generator) expression(e ast.Expression) {
	switch n := e.(type) {
	case *ast.Num:
		g.emit(vm.LIT, 0, n.Value)

	case *ast.Var:
		sym, delta, ok := g.symbols.Lookup(n.Name, true)
		if !ok {
			g.errorf(n.Token.Line, n.Token.Column, "undefined identifier %q", n.Name)
			g.emit(vm.LIT, 0, 0)
			return
		}
		switch sym.Kind {
		case symtab.Const:
			g.emit(vm.LIT, 0, sym.Value)
		case symtab.Var:
			g.emit(vm.LOD, delta, sym.Addr)
		case symtab.Proc:
			g.errorf(n.Token.Line, n.Token.Column, "procedure %q cannot be used in an expression", n.Name)
			g.emit(vm.LIT, 0, 0)
		}

	case *ast.UnaryOp:
		g.expression(n.Operand)
		switch n.Operator {
		case "-":
			g.emit(vm.OPR, 0, int(vm.NEG))
		case "odd":
			g.emit(vm.OPR, 0, int(vm.ODD))
		default:
			panic(fmt.Sprintf("codegen: unhandled unary operator %q", n.Operator))
		}

	case *ast.BinOp:
		g.expression(n.Left)
		g.expression(n.Right)
		g.emit(vm.OPR, 0, int(binOpCode(n.Operator)))

	default:
		panic(fmt.Sprintf("codegen: unhandled expression node %T", e))
	}
}

func binOpCode(op string) vm.OprCode {
	switch op {
	case "+":
		return vm.ADD
	case "-":
		return vm.SUB
	case "*":
		return vm.MUL
	case "/":
		return vm.DIV
	case "=":
		return vm.EQL
	case "#":
		return vm.NEQ
	case "<":
		return vm.LSS
	case ">=":
		return vm.GEQ
	case ">":
		return vm.GTR
	case "<=":
		return vm.LEQ
	default:
		panic(fmt.Sprintf("codegen: unhandled binary operator %q", op))
	}
}
