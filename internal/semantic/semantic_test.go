package semantic

import (
	"strings"
	"testing"

	"github.com/pl0lang/plzero/internal/codegen"
	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/lexer"
	"github.com/pl0lang/plzero/internal/parser"
)

func analyze(t *testing.T, src string) []diag.Diagnostic {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog, diags := p.Parse()
	if len(diags) != 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	return Analyze(prog)
}

func hasWarningContaining(warnings []diag.Diagnostic, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func TestUnusedVariableIsFlagged(t *testing.T) {
	warnings := analyze(t, `program p; var x, y; begin x:=1; write(x) end`)
	if !hasWarningContaining(warnings, `"y" is declared but never used`) {
		t.Errorf("warnings = %v, want an unused-variable warning for y", warnings)
	}
	if hasWarningContaining(warnings, `"x" is declared but never used`) {
		t.Errorf("x is used, should not be flagged: %v", warnings)
	}
}

func TestUnusedParameterIsFlagged(t *testing.T) {
	warnings := analyze(t, `program p; procedure f(a, b); begin a:=a+1 end; begin call f(1, 2) end`)
	if !hasWarningContaining(warnings, `"b" is declared but never used`) {
		t.Errorf("warnings = %v, want an unused-parameter warning for b", warnings)
	}
}

func TestUndefinedIdentifierSuggestsCloseName(t *testing.T) {
	warnings := analyze(t, `program p; var count; begin coutn:=1 end`)
	if !hasWarningContaining(warnings, `did you mean "count"?`) {
		t.Errorf("warnings = %v, want a did-you-mean suggestion for coutn", warnings)
	}
}

func TestUndefinedIdentifierWithNoCloseNameHasNoSuggestion(t *testing.T) {
	warnings := analyze(t, `program p; begin write(zzz) end`)
	if hasWarningContaining(warnings, "did you mean") {
		t.Errorf("warnings = %v, want no suggestion when nothing is close", warnings)
	}
	if !hasWarningContaining(warnings, `undefined identifier "zzz"`) {
		t.Errorf("warnings = %v, want an undefined-identifier warning", warnings)
	}
}

func TestStaticallyFalseConditionIsFlagged(t *testing.T) {
	warnings := analyze(t, `program p; const zero := 0; begin if zero # 0 then write(1) end`)
	if !hasWarningContaining(warnings, "statically false") {
		t.Errorf("warnings = %v, want a statically-false warning", warnings)
	}
}

func TestStaticallyTrueConditionIsFlagged(t *testing.T) {
	warnings := analyze(t, `program p; const one := 1; begin while odd one do write(1) end`)
	if !hasWarningContaining(warnings, "statically true") {
		t.Errorf("warnings = %v, want a statically-true warning", warnings)
	}
}

func TestNonConstantConditionIsNotFlagged(t *testing.T) {
	warnings := analyze(t, `program p; var x; begin if x = 0 then write(1) end`)
	if hasWarningContaining(warnings, "statically") {
		t.Errorf("warnings = %v, want no static-condition warning for a variable condition", warnings)
	}
}

func TestConstantDivisionByZeroIsFlagged(t *testing.T) {
	warnings := analyze(t, `program p; const z := 0; var x; begin x:=1/z end`)
	if !hasWarningContaining(warnings, "division by zero") {
		t.Errorf("warnings = %v, want a constant division-by-zero warning", warnings)
	}
}

func TestArityMismatchIsFlagged(t *testing.T) {
	warnings := analyze(t, `program p; procedure f(a,b); begin end; begin call f(1) end`)
	if !hasWarningContaining(warnings, "expects 2 argument(s), got 1") {
		t.Errorf("warnings = %v, want an arity-mismatch warning", warnings)
	}
}

func TestNoEffectOnEmittedCode(t *testing.T) {
	// The optional pass only adds warnings: running it between parsing and
	// code generation leaves the emitted instructions unchanged.
	src := `program p; var x, unused; begin x:=1; write(x) end`
	prog, diags := parser.New(lexer.New(src)).Parse()
	if len(diags) != 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	before, errs := codegen.Generate(prog)
	if len(errs) != 0 {
		t.Fatalf("codegen diagnostics: %v", errs)
	}
	warnings := Analyze(prog)
	if len(warnings) == 0 {
		t.Fatal("expected at least one warning for the unused variable")
	}
	after, errs := codegen.Generate(prog)
	if len(errs) != 0 {
		t.Fatalf("codegen diagnostics after Analyze: %v", errs)
	}
	if len(before) != len(after) {
		t.Fatalf("instruction count changed: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("instr %d changed: %v vs %v", i, before[i], after[i])
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"count", "coutn", 2},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
