package codegen

import (
	"testing"

	"github.com/pl0lang/plzero/internal/lexer"
	"github.com/pl0lang/plzero/internal/parser"
	"github.com/pl0lang/plzero/internal/vm"
)

func generate(t *testing.T, src string) []vm.Instruction {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog, diags := p.Parse()
	if len(diags) != 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	instrs, errs := Generate(prog)
	if len(errs) != 0 {
		t.Fatalf("codegen diagnostics: %v", errs)
	}
	return instrs
}

func TestBlockLoweringShape(t *testing.T) {
	instrs := generate(t, `program p; var x; begin x:=1 end`)
	if instrs[0].F != vm.JMP {
		t.Fatalf("instr[0] = %v, want a leading JMP", instrs[0])
	}
	last := instrs[len(instrs)-1]
	if last.F != vm.OPR || vm.OprCode(last.A) != vm.RET {
		t.Fatalf("last instr = %v, want OPR RET", last)
	}
	var sawINT bool
	for _, in := range instrs {
		if in.F == vm.INT {
			sawINT = true
		}
	}
	if !sawINT {
		t.Error("no INT instruction emitted")
	}
}

func TestAssignEmitsStoreWithSymbolAddress(t *testing.T) {
	instrs := generate(t, `program p; var a, b; begin a:=1; b:=2 end`)
	var stores []vm.Instruction
	for _, in := range instrs {
		if in.F == vm.STO {
			stores = append(stores, in)
		}
	}
	if len(stores) != 2 {
		t.Fatalf("stores = %v, want 2", stores)
	}
	if stores[0].A != 3 || stores[1].A != 4 {
		t.Fatalf("store addresses = %d, %d, want 3, 4", stores[0].A, stores[1].A)
	}
}

func TestUndefinedIdentifierIsSemanticError(t *testing.T) {
	p := parser.New(lexer.New(`program p; begin x:=1 end`))
	prog, diags := p.Parse()
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	_, errs := Generate(prog)
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for undefined identifier x")
	}
}

func TestAssignToConstIsSemanticError(t *testing.T) {
	p := parser.New(lexer.New(`program p; const c := 1; begin c:=2 end`))
	prog, _ := p.Parse()
	_, errs := Generate(prog)
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for assigning to a const")
	}
}

func TestCallArityMismatchIsSemanticError(t *testing.T) {
	p := parser.New(lexer.New(`program p; procedure f(a,b); begin end; begin call f(1) end`))
	prog, _ := p.Parse()
	_, errs := Generate(prog)
	if len(errs) == 0 {
		t.Fatal("expected a semantic error for arity mismatch")
	}
}

func TestCallArgumentsUseStoMinusOne(t *testing.T) {
	instrs := generate(t, `program p; var r; procedure sq(x); begin r:=x*x end; begin call sq(6) end`)
	var foundHandoff, foundCall bool
	for _, in := range instrs {
		if in.F == vm.STO && in.L == -1 {
			foundHandoff = true
		}
		if in.F == vm.CAL {
			foundCall = true
		}
	}
	if !foundHandoff {
		t.Error("no argument-handoff STO -1 emitted before the call")
	}
	if !foundCall {
		t.Error("no CAL instruction emitted")
	}
}

func TestEmissionMonotonicity(t *testing.T) {
	// A regression guard on the invariant itself: generating twice from the
	// same source must produce byte-identical instruction vectors, since emit
	// never mutates already-emitted entries except through patch.
	src := `program p; var x; begin if x=0 then x:=1 else x:=2 end`
	a := generate(t, src)
	b := generate(t, src)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("instr %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}
