package trace

import (
	"strconv"
	"strings"
	"testing"

	"github.com/pl0lang/plzero/internal/codegen"
	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/lexer"
	"github.com/pl0lang/plzero/internal/parser"
	"github.com/pl0lang/plzero/internal/token"
	"github.com/pl0lang/plzero/internal/vm"
)

func collectTokens(l *lexer.Lexer) []token.Token {
	var out []token.Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return out
}

func TestTokensNoColorIsPlain(t *testing.T) {
	l := lexer.New(`program p; begin end`)
	out := Tokens(true, collectTokens(l))
	if strings.Contains(out, "\x1b[") {
		t.Error("noColor output must not contain ANSI escape codes")
	}
	if !strings.Contains(out, "PROGRAM") {
		t.Errorf("output = %q, want it to mention PROGRAM", out)
	}
}

func TestASTNoColorContainsProgramName(t *testing.T) {
	p := parser.New(lexer.New(`program demo; var x; begin x:=1 end`))
	prog, diags := p.Parse()
	if len(diags) != 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	out := AST(true, prog)
	if !strings.Contains(out, "demo") {
		t.Errorf("AST dump = %q, want it to mention the program name", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("noColor output must not contain ANSI escape codes")
	}
}

func TestInstructionsAndDumpAgreeOnColumns(t *testing.T) {
	p := parser.New(lexer.New(`program p; var x; begin x:=1; write(x) end`))
	prog, _ := p.Parse()
	instrs, errs := codegen.Generate(prog)
	if len(errs) != 0 {
		t.Fatalf("codegen errors: %v", errs)
	}
	out := Instructions(true, instrs)
	if strings.Count(out, "\n") != len(instrs) {
		t.Errorf("Instructions produced %d lines, want %d", strings.Count(out, "\n"), len(instrs))
	}

	dump := Dump(instrs)
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")
	if len(lines) != len(instrs) {
		t.Fatalf("Dump produced %d lines, want %d", len(lines), len(instrs))
	}
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 4 {
			t.Fatalf("dump line %d = %q, want 4 fields", i, line)
		}
		if fields[0] != strconv.Itoa(i) {
			t.Errorf("dump line %d has index %q, want %d", i, fields[0], i)
		}
	}
}

func TestStepRendersRegistersAndStack(t *testing.T) {
	out := Step(true, 3, vm.Instruction{F: vm.LIT, L: 0, A: 5}, 1, 2, []int{0, 1, 5})
	if !strings.Contains(out, "P=3") || !strings.Contains(out, "B=1 T=2") || !strings.Contains(out, "[0 1 5]") {
		t.Errorf("step trace = %q, missing expected fields", out)
	}
}

func TestDiagnosticNoColorMatchesError(t *testing.T) {
	d := diag.NewSemantic(4, 2, "undefined identifier %q", "x")
	out := Diagnostic(true, d)
	if out != d.Error() {
		t.Errorf("noColor diagnostic = %q, want exactly %q", out, d.Error())
	}
}
