// Package vm implements the stack machine that executes a PL/0 instruction
// vector (spec.md §4.4). Nested-procedure semantics are realised through a
// frame header of static link / dynamic link / return address at the base
// of every call frame, and a base(l) primitive that walks static links to
// resolve non-local variable access.
package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pl0lang/plzero/internal/diag"
)

// OpCode is an instruction's operation field.
type OpCode int

const (
	LIT OpCode = iota
	LOD
	STO
	CAL
	INT
	JMP
	JPC
	OPR
	RED
	WRT
)

func (f OpCode) String() string {
	switch f {
	case LIT:
		return "LIT"
	case LOD:
		return "LOD"
	case STO:
		return "STO"
	case CAL:
		return "CAL"
	case INT:
		return "INT"
	case JMP:
		return "JMP"
	case JPC:
		return "JPC"
	case OPR:
		return "OPR"
	case RED:
		return "RED"
	case WRT:
		return "WRT"
	default:
		return "???"
	}
}

// OprCode is the OPR instruction's subcode, carried in the A field.
type OprCode int

const (
	RET OprCode = iota
	NEG
	ADD
	SUB
	MUL
	DIV
	ODD
	EQL
	NEQ
	LSS
	GEQ
	GTR
	LEQ
	LINE
)

func (k OprCode) String() string {
	names := [...]string{"RET", "NEG", "ADD", "SUB", "MUL", "DIV", "ODD", "EQL", "NEQ", "LSS", "GEQ", "GTR", "LEQ", "LINE"}
	if int(k) < 0 || int(k) >= len(names) {
		return "???"
	}
	return names[k]
}

// Instruction is one entry in the flat instruction vector: `{f, l, a}`.
type Instruction struct {
	F OpCode
	L int
	A int
}

func (i Instruction) String() string {
	if i.F == OPR {
		return fmt.Sprintf("OPR %d %s", i.L, OprCode(i.A))
	}
	return fmt.Sprintf("%s %d %d", i.F, i.L, i.A)
}

// DefaultStackSize is the VM's value-stack capacity; spec.md §5 requires at
// least 2000 cells.
const DefaultStackSize = 2000

// Machine executes an instruction vector over a fixed-size integer stack.
type Machine struct {
	code  []Instruction
	stack []int

	P, B, T int

	in     *bufio.Scanner
	out    io.Writer
	logger diag.Logger

	// Trace, when non-nil, is called before each instruction executes with
	// the live register state; used by the CLI's --trace flag. It never
	// affects execution.
	Trace func(p int, instr Instruction, b, t int, stackPrefix []int)
}

// Option configures a Machine.
type Option func(*Machine)

// WithStackSize overrides the default stack capacity.
func WithStackSize(n int) Option {
	return func(m *Machine) { m.stack = make([]int, n) }
}

// WithLogger attaches a diag.Logger for debug-level instruction tracing.
func WithLogger(l diag.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New creates a Machine ready to run code, reading RED input from in and
// writing WRT/LINE output to out.
func New(code []Instruction, in io.Reader, out io.Writer, opts ...Option) *Machine {
	m := &Machine{
		code:   code,
		stack:  make([]int, DefaultStackSize),
		in:     bufio.NewScanner(in),
		out:    out,
		logger: diag.NopLogger{},
	}
	m.in.Split(bufio.ScanWords)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// base walks l static links from B, implementing PL/0's lexical scoping
// (spec.md §4.4).
func (m *Machine) base(l int) int {
	b := m.B
	for ; l > 0; l-- {
		b = m.stack[b]
	}
	return b
}

func (m *Machine) checkIndex(idx int) error {
	if idx < 0 || idx >= len(m.stack) {
		return diag.NewRuntime(m.P, "stack index %d out of bounds (capacity %d)", idx, len(m.stack))
	}
	return nil
}

// Run executes code from P=0 until OPR RET restores P=0 or P runs past the
// end of the vector. Per spec.md §4.4, the top-level frame header occupies
// stack[1..3], initialised to zero.
func (m *Machine) Run() error {
	m.T = 0
	m.B = 1
	m.P = 0
	if err := m.checkIndex(3); err != nil {
		return err
	}
	m.stack[1], m.stack[2], m.stack[3] = 0, 0, 0

	for m.P < len(m.code) {
		instr := m.code[m.P]
		p := m.P
		m.P++

		if m.Trace != nil {
			m.Trace(p, instr, m.B, m.T, m.stackPrefix())
		}
		m.logger.Debugf("P=%d %s B=%d T=%d", p, instr, m.B, m.T)

		halt, err := m.step(p, instr)
		if err != nil {
			return err
		}
		if halt {
			return nil
		}
	}
	return nil
}

func (m *Machine) stackPrefix() []int {
	if m.T+1 > len(m.stack) {
		return append([]int(nil), m.stack...)
	}
	cp := make([]int, m.T+1)
	copy(cp, m.stack[:m.T+1])
	return cp
}

// step executes a single instruction at faulting-position p (used for
// runtime diagnostics). It returns halt=true when RET restores P=0.
func (m *Machine) step(p int, instr Instruction) (halt bool, err error) {
	switch instr.F {
	case LIT:
		m.T++
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		m.stack[m.T] = instr.A

	case LOD:
		src := m.base(instr.L) + instr.A
		if err := m.checkIndex(src); err != nil {
			return false, err
		}
		m.T++
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		m.stack[m.T] = m.stack[src]

	case STO:
		if instr.L == -1 {
			// Argument handoff (spec.md §9 "STO with l = -1"): the address
			// computation uses raw T+a, not base(l)+a, and T still
			// decrements.
			dst := m.T + instr.A
			if err := m.checkIndex(dst); err != nil {
				return false, err
			}
			if err := m.checkIndex(m.T); err != nil {
				return false, err
			}
			m.stack[dst] = m.stack[m.T]
			m.T--
			return false, nil
		}
		dst := m.base(instr.L) + instr.A
		if err := m.checkIndex(dst); err != nil {
			return false, err
		}
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		m.stack[dst] = m.stack[m.T]
		m.T--

	case CAL:
		if err := m.checkIndex(m.T + 3); err != nil {
			return false, err
		}
		m.stack[m.T+1] = m.base(instr.L)
		m.stack[m.T+2] = m.B
		m.stack[m.T+3] = m.P
		m.B = m.T + 1
		m.P = instr.A

	case INT:
		m.T += instr.A
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}

	case JMP:
		m.P = instr.A

	case JPC:
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		if m.stack[m.T] == 0 {
			m.P = instr.A
		}
		m.T--

	case OPR:
		return m.operate(p, OprCode(instr.A))

	case RED:
		if !m.in.Scan() {
			return false, diag.NewRuntime(p, "unexpected end of input")
		}
		v, err := strconv.Atoi(m.in.Text())
		if err != nil {
			return false, diag.NewRuntime(p, "invalid integer input %q", m.in.Text())
		}
		m.T++
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		m.stack[m.T] = v

	case WRT:
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		fmt.Fprintf(m.out, "%d", m.stack[m.T])
		m.T--

	default:
		return false, diag.NewRuntime(p, "invalid instruction field %v", instr.F)
	}
	return false, nil
}

func (m *Machine) operate(p int, k OprCode) (halt bool, err error) {
	switch k {
	case RET:
		if err := m.checkIndex(m.B + 2); err != nil {
			return false, err
		}
		ret := m.stack[m.B+2]
		m.T = m.B - 1
		m.B = m.stack[m.B+1]
		m.P = ret
		if ret == 0 {
			return true, nil
		}
		return false, nil

	case NEG:
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		m.stack[m.T] = -m.stack[m.T]

	case ADD, SUB, MUL, DIV:
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		if err := m.checkIndex(m.T - 1); err != nil {
			return false, err
		}
		lhs, rhs := m.stack[m.T-1], m.stack[m.T]
		m.T--
		switch k {
		case ADD:
			m.stack[m.T] = lhs + rhs
		case SUB:
			m.stack[m.T] = lhs - rhs
		case MUL:
			m.stack[m.T] = lhs * rhs
		case DIV:
			if rhs == 0 {
				return false, diag.NewRuntime(p, "division by zero")
			}
			m.stack[m.T] = lhs / rhs // Go's / truncates toward zero for ints
		}

	case ODD:
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		// Strict boolean reading (spec.md §9, Open Question b): bitwise
		// AND with 1, not Go's %, so negative operands still yield 0/1.
		m.stack[m.T] = m.stack[m.T] & 1

	case EQL, NEQ, LSS, GEQ, GTR, LEQ:
		if err := m.checkIndex(m.T); err != nil {
			return false, err
		}
		if err := m.checkIndex(m.T - 1); err != nil {
			return false, err
		}
		lhs, rhs := m.stack[m.T-1], m.stack[m.T]
		m.T--
		var result bool
		switch k {
		case EQL:
			result = lhs == rhs
		case NEQ:
			result = lhs != rhs
		case LSS:
			result = lhs < rhs
		case GEQ:
			result = lhs >= rhs
		case GTR:
			result = lhs > rhs
		case LEQ:
			result = lhs <= rhs
		}
		if result {
			m.stack[m.T] = 1
		} else {
			m.stack[m.T] = 0
		}

	case LINE:
		fmt.Fprintln(m.out)

	default:
		return false, diag.NewRuntime(p, "invalid OPR subcode %d", int(k))
	}
	return false, nil
}
