package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pl0lang/plzero/internal/codegen"
	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/lexer"
	"github.com/pl0lang/plzero/internal/parser"
	"github.com/pl0lang/plzero/internal/semantic"
	"github.com/pl0lang/plzero/internal/trace"
	"github.com/pl0lang/plzero/internal/vm"
)

type runOptions struct {
	ast, instructions, showTrace, showTraceback bool
	dumpPath                                    string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and execute a .pl0 source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runFile(args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ast, "ast", false, "print the parsed AST")
	cmd.Flags().BoolVar(&opts.instructions, "instructions", false, "print the generated instruction vector")
	cmd.Flags().BoolVar(&opts.instructions, "ir", false, "alias for --instructions")
	cmd.Flags().BoolVar(&opts.showTrace, "trace", false, "print a VM step trace before each instruction")
	cmd.Flags().BoolVar(&opts.showTraceback, "show-traceback", false, "print the full diagnostic on a runtime error")
	cmd.Flags().StringVar(&opts.dumpPath, "dump", "", "write the instruction vector to this path as 'index f l a' lines")

	return cmd
}

func runFile(path string, opts runOptions) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	l := lexer.New(string(src))
	p := parser.New(l)
	prog, parseDiags := p.Parse()

	allDiags := make([]diag.Diagnostic, 0, len(l.Diags)+len(parseDiags))
	allDiags = append(allDiags, l.Diags...)
	allDiags = append(allDiags, parseDiags...)
	if len(allDiags) > 0 {
		fmt.Fprint(os.Stderr, trace.Diagnostics(noColor, allDiags))
	}
	if verbose {
		for _, line := range p.Trace() {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	if hasFatalDiagnostic(allDiags) {
		return fmt.Errorf("compilation failed: %d diagnostic(s)", len(allDiags))
	}

	if opts.ast {
		fmt.Println(trace.Title(noColor, "AST"))
		fmt.Println(trace.AST(noColor, prog))
	}

	if verbose {
		for _, w := range semantic.Analyze(prog) {
			fmt.Fprintln(os.Stderr, trace.Diagnostic(noColor, w))
		}
	}

	instrs, genErrs := codegen.Generate(prog)
	if len(genErrs) > 0 {
		fmt.Fprint(os.Stderr, trace.Diagnostics(noColor, genErrs))
		return fmt.Errorf("code generation failed: %d error(s)", len(genErrs))
	}

	if opts.instructions {
		fmt.Println(trace.Title(noColor, "INSTRUCTIONS"))
		fmt.Print(trace.Instructions(noColor, instrs))
	}
	if opts.dumpPath != "" {
		if err := os.WriteFile(opts.dumpPath, []byte(trace.Dump(instrs)), 0o644); err != nil {
			return fmt.Errorf("writing dump: %w", err)
		}
	}

	m := vm.New(instrs, os.Stdin, os.Stdout, vm.WithLogger(logger))
	if opts.showTrace {
		m.Trace = func(p int, instr vm.Instruction, b, t int, stackPrefix []int) {
			fmt.Fprintln(os.Stderr, trace.Step(noColor, p, instr, b, t, stackPrefix))
		}
	}

	if err := m.Run(); err != nil {
		if d, ok := err.(diag.Diagnostic); ok && !opts.showTraceback {
			fmt.Fprintln(os.Stderr, trace.Diagnostic(noColor, d))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}

// hasFatalDiagnostic reports whether diags contains anything that should
// stop compilation before code generation runs (spec.md §7: lexical and
// syntax errors are recovered from and accumulated, but a broken AST is not
// a safe input to the generator).
func hasFatalDiagnostic(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Category == diag.Lexical || d.Category == diag.Syntax {
			return true
		}
	}
	return false
}
