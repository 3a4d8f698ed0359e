// Package ast defines the syntax tree produced by the parser (spec.md §3).
//
// The node set is closed: every declaration, statement and expression form
// of the grammar has a corresponding node type, and every node carries the token it started on so
// later phases (code generation, the semantic pass, tracing) can report
// positions without threading them through separately.
package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pl0lang/plzero/internal/token"
)

// Node is implemented by every tree node.
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is implemented by nodes that appear in statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by nodes that evaluate to an integer value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: a named program wrapping a single block.
type Program struct {
	Token token.Token // the PROGRAM token
	Name  string
	Block *Block
}

func (p *Program) TokenLiteral() string { return p.Token.Literal }
func (p *Program) String() string {
	var b bytes.Buffer
	b.WriteString("PROGRAM ")
	b.WriteString(p.Name)
	b.WriteString(";\n")
	if p.Block != nil {
		b.WriteString(p.Block.String())
	}
	b.WriteString(".")
	return b.String()
}

// Block holds a procedure or program body: its constant/variable
// declarations, nested procedures, and a single compound body statement.
type Block struct {
	Token      token.Token // the first token of the block
	Consts     []*ConstDecl
	Vars       []*VarDecl
	Procedures []*ProcedureDecl
	Body       *Compound
}

func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) String() string {
	var out bytes.Buffer
	for _, c := range b.Consts {
		out.WriteString(c.String())
		out.WriteString(";\n")
	}
	for _, v := range b.Vars {
		out.WriteString(v.String())
		out.WriteString(";\n")
	}
	for _, p := range b.Procedures {
		out.WriteString(p.String())
		out.WriteString(";\n")
	}
	if b.Body != nil {
		out.WriteString(b.Body.String())
	}
	return out.String()
}

// ConstDecl declares a single named integer constant. The grammar's
// `const id := int {, id := int}` list is flattened into one ConstDecl per
// name, matching the data model's per-symbol shape.
type ConstDecl struct {
	Token token.Token // the CONST token
	Name  string
	Value int
}

func (c *ConstDecl) TokenLiteral() string { return c.Token.Literal }
func (c *ConstDecl) String() string {
	return "CONST " + c.Name + " := " + strconv.Itoa(c.Value)
}

// VarDecl declares a single variable.
type VarDecl struct {
	Token token.Token // the VAR token
	Name  string
}

func (v *VarDecl) TokenLiteral() string { return v.Token.Literal }
func (v *VarDecl) String() string       { return "VAR " + v.Name }

// ProcedureDecl declares a nested procedure with a fixed parameter list.
type ProcedureDecl struct {
	Token  token.Token // the PROCEDURE token
	Name   string
	Params []string
	Block  *Block
}

func (p *ProcedureDecl) TokenLiteral() string { return p.Token.Literal }
func (p *ProcedureDecl) String() string {
	var out bytes.Buffer
	out.WriteString("PROCEDURE ")
	out.WriteString(p.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(p.Params, ", "))
	out.WriteString(");\n")
	if p.Block != nil {
		out.WriteString(p.Block.String())
	}
	return out.String()
}

// Compound is a BEGIN ... END statement sequence.
type Compound struct {
	Token      token.Token // the BEGIN token
	Statements []Statement
}

func (c *Compound) statementNode()       {}
func (c *Compound) TokenLiteral() string { return c.Token.Literal }
func (c *Compound) String() string {
	parts := make([]string, len(c.Statements))
	for i, s := range c.Statements {
		parts[i] = s.String()
	}
	return "BEGIN\n" + strings.Join(parts, ";\n") + "\nEND"
}

// Assign is a `target := expr` statement.
type Assign struct {
	Token  token.Token // the identifier token
	Target *Var
	Value  Expression
}

func (a *Assign) statementNode()       {}
func (a *Assign) TokenLiteral() string { return a.Token.Literal }
func (a *Assign) String() string       { return a.Target.String() + " := " + a.Value.String() }

// If is an `IF cond THEN stmt [ELSE stmt]` statement.
type If struct {
	Token       token.Token // the IF token
	Condition   Expression
	Consequence Statement
	Alternative Statement // nil when there is no ELSE
}

func (i *If) statementNode()       {}
func (i *If) TokenLiteral() string { return i.Token.Literal }
func (i *If) String() string {
	var out bytes.Buffer
	out.WriteString("IF ")
	out.WriteString(i.Condition.String())
	out.WriteString(" THEN ")
	out.WriteString(i.Consequence.String())
	if i.Alternative != nil {
		out.WriteString(" ELSE ")
		out.WriteString(i.Alternative.String())
	}
	return out.String()
}

// While is a `WHILE cond DO stmt` statement.
type While struct {
	Token     token.Token // the WHILE token
	Condition Expression
	Body      Statement
}

func (w *While) statementNode()       {}
func (w *While) TokenLiteral() string { return w.Token.Literal }
func (w *While) String() string {
	return "WHILE " + w.Condition.String() + " DO " + w.Body.String()
}

// Call is a `CALL name(args)` statement.
type Call struct {
	Token    token.Token // the CALL token
	CallSite token.Token // the identifier token, for diagnostics
	Name     string
	Args     []Expression
}

func (c *Call) statementNode()       {}
func (c *Call) TokenLiteral() string { return c.Token.Literal }
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return "CALL " + c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Read is a `READ(v1, ..., vn)` statement.
type Read struct {
	Token token.Token // the READ token
	Vars  []*Var
}

func (r *Read) statementNode()       {}
func (r *Read) TokenLiteral() string { return r.Token.Literal }
func (r *Read) String() string {
	parts := make([]string, len(r.Vars))
	for i, v := range r.Vars {
		parts[i] = v.String()
	}
	return "READ(" + strings.Join(parts, ", ") + ")"
}

// Write is a `WRITE(e1, ..., en)` statement.
type Write struct {
	Token token.Token // the WRITE token
	Exprs []Expression
}

func (w *Write) statementNode()       {}
func (w *Write) TokenLiteral() string { return w.Token.Literal }
func (w *Write) String() string {
	parts := make([]string, len(w.Exprs))
	for i, e := range w.Exprs {
		parts[i] = e.String()
	}
	return "WRITE(" + strings.Join(parts, ", ") + ")"
}

// NoOp is the empty statement: present wherever the grammar allows a
// statement but none was written (e.g. an empty BEGIN...END member).
type NoOp struct {
	Token token.Token
}

func (n *NoOp) statementNode()       {}
func (n *NoOp) TokenLiteral() string { return n.Token.Literal }
func (n *NoOp) String() string       { return "" }

// BinOp is a binary expression: `left op right`. Arithmetic operators
// (+ - * /) and relational operators (= # < <= > >=) share this node; the
// code generator distinguishes them by the opcode the operator maps to.
type BinOp struct {
	Token    token.Token // the operator token
	Operator string
	Left     Expression
	Right    Expression
}

func (b *BinOp) expressionNode()    {}
func (b *BinOp) TokenLiteral() string { return b.Token.Literal }
func (b *BinOp) String() string {
	return "(" + b.Left.String() + " " + b.Operator + " " + b.Right.String() + ")"
}

// UnaryOp is a prefix operator applied to a single operand: a leading `-`
// in an expression, or a leading `odd` in a condition. A leading `+` is
// dropped by the parser and produces no UnaryOp.
type UnaryOp struct {
	Token    token.Token // the operator token
	Operator string
	Operand  Expression
}

func (u *UnaryOp) expressionNode()    {}
func (u *UnaryOp) TokenLiteral() string { return u.Token.Literal }
func (u *UnaryOp) String() string       { return "(" + u.Operator + " " + u.Operand.String() + ")" }

// Num is an integer literal.
type Num struct {
	Token token.Token
	Value int
}

func (n *Num) expressionNode()    {}
func (n *Num) TokenLiteral() string { return n.Token.Literal }
func (n *Num) String() string       { return n.Token.Literal }

// Var is a reference to a constant or variable by name.
type Var struct {
	Token token.Token
	Name  string
}

func (v *Var) expressionNode()    {}
func (v *Var) TokenLiteral() string { return v.Token.Literal }
func (v *Var) String() string       { return v.Name }
