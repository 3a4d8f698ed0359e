package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pl0lang/plzero/internal/codegen"
	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/lexer"
	"github.com/pl0lang/plzero/internal/parser"
	"github.com/pl0lang/plzero/internal/trace"
	"github.com/pl0lang/plzero/internal/vm"
)

const (
	// Prompt is shown while a program is still being typed in.
	Prompt = "pl0> "
	// RunCommand triggers a compile-and-run of the accumulated buffer.
	RunCommand = "run"
	// ResetCommand clears the accumulated buffer without running it.
	ResetCommand = "reset"
)

var (
	replTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	replPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	replResultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	replErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	replHistoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive PL/0 session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			p := tea.NewProgram(newReplModel())
			_, err := p.Run()
			return err
		},
	}
}

type historyEntry struct {
	source   string
	output   string
	isError  bool
	duration time.Duration
}

type replModel struct {
	textInput textinput.Model
	lines     []string
	history   []historyEntry
}

func (m replModel) applyStyle(style lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

func newReplModel() replModel {
	ti := textinput.New()
	ti.Placeholder = "PL/0 statement, or 'run' / 'reset'"
	ti.Focus()
	ti.Width = 80
	ti.Prompt = Prompt
	return replModel{textInput: ti}
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

// compileAndRun lowers the accumulated buffer through the full pipeline and
// returns the program's output or a formatted diagnostic.
func compileAndRun(source string) (output string, isError bool) {
	l := lexer.New(source)
	p := parser.New(l)
	prog, parseDiags := p.Parse()

	var diags []diag.Diagnostic
	diags = append(diags, l.Diags...)
	diags = append(diags, parseDiags...)
	if hasFatalDiagnostic(diags) {
		return trace.Diagnostics(noColor, diags), true
	}

	instrs, genErrs := codegen.Generate(prog)
	if len(genErrs) > 0 {
		return trace.Diagnostics(noColor, genErrs), true
	}

	var out strings.Builder
	// The REPL has no interactive stdin channel separate from keystroke
	// input, so a program that calls read() here will fail with an
	// end-of-input runtime error; use `plzero run` for programs needing
	// read().
	m := vm.New(instrs, strings.NewReader(""), &out)
	if err := m.Run(); err != nil {
		return err.Error(), true
	}
	return out.String(), false
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.SetValue("")
			switch strings.ToLower(input) {
			case "":
				return m, nil
			case ResetCommand:
				m.lines = nil
				return m, nil
			case RunCommand:
				source := strings.Join(m.lines, "\n")
				start := time.Now()
				output, isError := compileAndRun(source)
				m.history = append(m.history, historyEntry{
					source: source, output: output, isError: isError,
					duration: time.Since(start),
				})
				m.lines = nil
				return m, nil
			default:
				m.lines = append(m.lines, input)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) View() string {
	var s strings.Builder
	s.WriteString(m.applyStyle(replTitleStyle, " PL/0 REPL "))
	s.WriteString("\n\n")

	for _, entry := range m.history {
		s.WriteString(m.applyStyle(replPromptStyle, Prompt))
		s.WriteString(strings.ReplaceAll(entry.source, "\n", "; "))
		s.WriteString("\n")
		if entry.isError {
			s.WriteString(m.applyStyle(replErrorStyle, entry.output))
		} else {
			s.WriteString(m.applyStyle(replResultStyle, entry.output))
		}
		s.WriteString(m.applyStyle(replHistoryStyle, fmt.Sprintf(" (%s)", entry.duration)))
		s.WriteString("\n\n")
	}

	if len(m.lines) > 0 {
		s.WriteString(m.applyStyle(replHistoryStyle, "buffered:\n"))
		for _, line := range m.lines {
			s.WriteString("  " + line + "\n")
		}
	}

	s.WriteString(m.textInput.View())
	s.WriteString("\n")
	s.WriteString(m.applyStyle(replHistoryStyle, "type a line and Enter to buffer it, 'run' to execute, 'reset' to clear, Ctrl+C to quit"))
	return s.String()
}
