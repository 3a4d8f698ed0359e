package parser

import (
	"testing"

	"github.com/pl0lang/plzero/internal/ast"
	"github.com/pl0lang/plzero/internal/lexer"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(lexer.New(src))
	prog, diags := p.Parse()
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics for %q: %v", src, diags)
	}
	return prog
}

func TestParseArithmeticProgram(t *testing.T) {
	prog := parseProgram(t, `program p; var x; begin x:=1+2*3; write(x) end`)
	if prog.Name != "p" {
		t.Fatalf("Name = %q, want p", prog.Name)
	}
	if len(prog.Block.Vars) != 1 || prog.Block.Vars[0].Name != "x" {
		t.Fatalf("Vars = %+v", prog.Block.Vars)
	}
	if len(prog.Block.Body.Statements) != 2 {
		t.Fatalf("want 2 statements, got %d", len(prog.Block.Body.Statements))
	}
	assign, ok := prog.Block.Body.Statements[0].(*ast.Assign)
	if !ok {
		t.Fatalf("statement 0 = %T, want *ast.Assign", prog.Block.Body.Statements[0])
	}
	bin, ok := assign.Value.(*ast.BinOp)
	if !ok || bin.Operator != "+" {
		t.Fatalf("assign.Value = %+v, want top-level '+' BinOp", assign.Value)
	}
}

func TestParseWhileSum(t *testing.T) {
	prog := parseProgram(t, `program s; var i,s; begin i:=1; s:=0; while i<=5 do begin s:=s+i; i:=i+1 end; write(s) end`)
	if len(prog.Block.Vars) != 2 {
		t.Fatalf("want 2 vars, got %d", len(prog.Block.Vars))
	}
	var found *ast.While
	for _, stmt := range prog.Block.Body.Statements {
		if w, ok := stmt.(*ast.While); ok {
			found = w
		}
	}
	if found == nil {
		t.Fatal("no While statement found")
	}
	cond, ok := found.Condition.(*ast.BinOp)
	if !ok || cond.Operator != "<=" {
		t.Fatalf("While.Condition = %+v, want '<=' BinOp", found.Condition)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parseProgram(t, `program c; var x; begin x:=10; if odd x then write(1) else write(0) end`)
	ifStmt, ok := prog.Block.Body.Statements[1].(*ast.If)
	if !ok {
		t.Fatalf("statement 1 = %T, want *ast.If", prog.Block.Body.Statements[1])
	}
	cond, ok := ifStmt.Condition.(*ast.UnaryOp)
	if !ok || cond.Operator != "odd" {
		t.Fatalf("If.Condition = %+v, want 'odd' UnaryOp", ifStmt.Condition)
	}
	if ifStmt.Alternative == nil {
		t.Fatal("If.Alternative = nil, want ELSE branch")
	}
}

func TestParseProcedureWithParameter(t *testing.T) {
	prog := parseProgram(t, `program n; var r; procedure sq(x); begin r:=x*x end; begin call sq(6); write(r) end`)
	if len(prog.Block.Procedures) != 1 {
		t.Fatalf("want 1 procedure, got %d", len(prog.Block.Procedures))
	}
	proc := prog.Block.Procedures[0]
	if proc.Name != "sq" || len(proc.Params) != 1 || proc.Params[0] != "x" {
		t.Fatalf("proc = %+v, want sq(x)", proc)
	}
	call, ok := prog.Block.Body.Statements[0].(*ast.Call)
	if !ok || call.Name != "sq" || len(call.Args) != 1 {
		t.Fatalf("call = %+v, want sq(6)", call)
	}
}

func TestParseRecursiveProcedure(t *testing.T) {
	src := `program f; var r; procedure fact(n); begin if n=1 then r:=1 else begin call fact(n-1); r:=n*r end end; begin call fact(5); write(r) end`
	prog := parseProgram(t, src)
	if len(prog.Block.Procedures) != 1 || prog.Block.Procedures[0].Name != "fact" {
		t.Fatalf("Procedures = %+v", prog.Block.Procedures)
	}
}

func TestParseNestedProcedureChain(t *testing.T) {
	src := `program o; var a; procedure outer(x); procedure inner(y); begin a:=x+y end; begin call inner(10) end; begin call outer(7); write(a) end`
	prog := parseProgram(t, src)
	if len(prog.Block.Procedures) != 1 {
		t.Fatalf("outer procedures = %d, want 1", len(prog.Block.Procedures))
	}
	outer := prog.Block.Procedures[0]
	if len(outer.Block.Procedures) != 1 || outer.Block.Procedures[0].Name != "inner" {
		t.Fatalf("inner procedures = %+v", outer.Block.Procedures)
	}
}

func TestParseEmptyCallParens(t *testing.T) {
	prog := parseProgram(t, `program p; procedure noop(); begin end; begin call noop() end`)
	if len(prog.Block.Procedures[0].Params) != 0 {
		t.Fatalf("params = %v, want empty", prog.Block.Procedures[0].Params)
	}
	call := prog.Block.Body.Statements[0].(*ast.Call)
	if len(call.Args) != 0 {
		t.Fatalf("args = %v, want empty", call.Args)
	}
}

func TestConstAcceptsEqualsWithWarning(t *testing.T) {
	p := New(lexer.New(`program p; const max = 10; begin write(max) end`))
	prog, diags := p.Parse()
	if len(diags) != 1 {
		t.Fatalf("diags = %v, want exactly one warning", diags)
	}
	if prog.Block.Consts[0].Value != 10 {
		t.Fatalf("const value = %d, want 10", prog.Block.Consts[0].Value)
	}
}

func TestOutOfOrderDeclarationsWarn(t *testing.T) {
	p := New(lexer.New(`program p; var x; const max := 1; begin x := max end`))
	_, diags := p.Parse()
	if len(diags) != 1 {
		t.Fatalf("diags = %v, want exactly one out-of-order warning", diags)
	}
}

func TestSyntaxErrorRecoversAndContinues(t *testing.T) {
	// Missing ':=' in the first assignment; parser should recover at ';'
	// and still parse the second statement.
	p := New(lexer.New(`program p; var x, y; begin x 1; y := 2 end`))
	prog, diags := p.Parse()
	if len(diags) == 0 {
		t.Fatal("expected at least one syntax error")
	}
	if len(prog.Block.Body.Statements) != 2 {
		t.Fatalf("want 2 recovered statements, got %d", len(prog.Block.Body.Statements))
	}
}

func TestTraceIsHierarchical(t *testing.T) {
	p := New(lexer.New(`program p; begin end`))
	p.Parse()
	tr := p.Trace()
	if len(tr) == 0 {
		t.Fatal("Trace() is empty")
	}
	if tr[0] != "<Program>" {
		t.Errorf("first trace line = %q, want <Program>", tr[0])
	}
	if tr[len(tr)-1] != "</Program>" {
		t.Errorf("last trace line = %q, want </Program>", tr[len(tr)-1])
	}
}
