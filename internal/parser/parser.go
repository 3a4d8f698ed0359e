// Package parser implements the recursive-descent parser for PL/0
// (spec.md §4.1). It holds one token of lookahead, builds an AST, logs a
// hierarchical production trace, and recovers from syntax errors at a fixed
// set of synchronisation points so a single run can surface more than one
// mistake.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pl0lang/plzero/internal/ast"
	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/lexer"
	"github.com/pl0lang/plzero/internal/token"
)

var relops = map[token.Type]bool{
	token.EQUAL: true, token.NOT_EQUAL: true,
	token.LESS: true, token.LESS_EQUAL: true,
	token.GREATER: true, token.GREATER_EQUAL: true,
}

// Parser consumes a token stream and produces a Program AST.
type Parser struct {
	lex     *lexer.Lexer
	current token.Token

	diags []diag.Diagnostic
	trace []string
	depth int
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lex: l}
	p.advance()
	return p
}

// Diagnostics returns every syntax error (and declaration-order warning)
// collected during parsing, in the order encountered. Lexical diagnostics
// from the underlying lexer are not included; callers should merge the
// lexer's Diags field separately.
func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags }

// Trace returns the hierarchical production log (spec.md §4.1): one line
// per production entered or exited, indented by nesting depth. It is a
// diagnostic by-product, not a parse artefact.
func (p *Parser) Trace() []string { return p.trace }

func (p *Parser) advance() {
	p.current = p.lex.NextToken()
}

func (p *Parser) enter(tag string) func() {
	p.trace = append(p.trace, strings.Repeat("  ", p.depth)+"<"+tag+">")
	p.depth++
	return func() {
		p.depth--
		p.trace = append(p.trace, strings.Repeat("  ", p.depth)+"</"+tag+">")
	}
}

func (p *Parser) errorf(format string, args ...any) {
	p.diags = append(p.diags, diag.Diagnostic{
		Category: diag.Syntax,
		Message:  fmt.Sprintf(format, args...),
		Line:     p.current.Line,
		Column:   p.current.Column,
	})
}

func (p *Parser) warnf(format string, args ...any) {
	p.diags = append(p.diags, diag.Diagnostic{
		Category: diag.Warning,
		Message:  fmt.Sprintf(format, args...),
		Line:     p.current.Line,
		Column:   p.current.Column,
	})
}

// eat consumes the current token if it has kind; otherwise it records a
// syntax error and runs panic-mode recovery (spec.md §4.1). It returns the
// consumed token (zero value on failure) and whether the match succeeded.
func (p *Parser) eat(kind token.Type) (token.Token, bool) {
	if p.current.Type == kind {
		tok := p.current
		p.advance()
		return tok, true
	}
	p.errorf("expected %s, found %s %q", kind, p.current.Type, p.current.Literal)
	p.synchronize()
	return token.Token{}, false
}

// synchronize implements panic-mode recovery: advance one token past the
// failure, then keep advancing until either a ';' (consumed, so the caller
// may treat the statement/declaration as terminated) or a synchronisation
// token (left on the input, so the enclosing production can react to it).
func (p *Parser) synchronize() bool {
	p.advance()
	for {
		if p.current.Type == token.SEMICOLON {
			p.advance()
			return true
		}
		if token.IsSynchronizing(p.current.Type) {
			return false
		}
		p.advance()
	}
}

// Parse parses a complete program and returns its AST together with every
// syntax error and declaration-order warning collected along the way.
func (p *Parser) Parse() (*ast.Program, []diag.Diagnostic) {
	defer p.enter("Program")()

	progTok := p.current
	p.eat(token.PROGRAM)
	name := p.current.Literal
	p.eat(token.IDENTIFIER)
	p.eat(token.SEMICOLON)
	block := p.parseBlock()

	return &ast.Program{Token: progTok, Name: name, Block: block}, p.diags
}

// parseBlock parses `{ condecl | vardecl | proc } body`. Declaration order
// is relaxed (any kind, any number of times, in any order) but a diagnostic
// is recorded when const follows var/proc or var follows proc (spec.md
// §4.1 "Out-of-order declarations").
func (p *Parser) parseBlock() *ast.Block {
	defer p.enter("Block")()

	block := &ast.Block{Token: p.current}
	sawVar, sawProc := false, false

declLoop:
	for {
		switch p.current.Type {
		case token.CONST:
			if sawVar || sawProc {
				p.warnf("const declaration out of order: should precede var and procedure declarations")
			}
			block.Consts = append(block.Consts, p.parseConstDecl()...)
		case token.VAR:
			if sawProc {
				p.warnf("var declaration out of order: should precede procedure declarations")
			}
			sawVar = true
			block.Vars = append(block.Vars, p.parseVarDecl()...)
		case token.PROCEDURE:
			sawProc = true
			block.Procedures = append(block.Procedures, p.parseProcedureDecl())
			if p.current.Type == token.SEMICOLON {
				switch p.lex.PeekTokenType() {
				case token.PROCEDURE, token.VAR, token.CONST:
					p.eat(token.SEMICOLON)
					continue declLoop
				}
			}
			break declLoop
		default:
			break declLoop
		}
	}

	// A ';' may remain between the declaration group and the body; it was
	// deliberately left on the input by the procedure-chain check above.
	if p.current.Type == token.SEMICOLON {
		p.eat(token.SEMICOLON)
	}

	block.Body = p.parseCompound()
	return block
}

// parseConstDecl parses `'const' id ':=' int { ',' id ':=' int } ';'` and
// flattens the list into one ConstDecl per name.
func (p *Parser) parseConstDecl() []*ast.ConstDecl {
	defer p.enter("ConstDecl")()

	tok := p.current
	p.eat(token.CONST)

	var decls []*ast.ConstDecl
	decls = append(decls, p.parseOneConst(tok))
	for p.current.Type == token.COMMA {
		p.eat(token.COMMA)
		decls = append(decls, p.parseOneConst(tok))
	}
	p.eat(token.SEMICOLON)
	return decls
}

func (p *Parser) parseOneConst(declTok token.Token) *ast.ConstDecl {
	name := p.current.Literal
	p.eat(token.IDENTIFIER)

	if p.current.Type == token.EQUAL {
		p.warnf("use ':=' not '=' in a const declaration")
		p.eat(token.EQUAL)
	} else {
		p.eat(token.ASSIGN)
	}

	valTok := p.current
	p.eat(token.INTEGER)
	value, err := strconv.Atoi(valTok.Literal)
	if err != nil {
		value = 0
	}
	return &ast.ConstDecl{Token: declTok, Name: name, Value: value}
}

// parseVarDecl parses `'var' id { ',' id } ';'`.
func (p *Parser) parseVarDecl() []*ast.VarDecl {
	defer p.enter("VarDecl")()

	tok := p.current
	p.eat(token.VAR)

	var decls []*ast.VarDecl
	name := p.current.Literal
	p.eat(token.IDENTIFIER)
	decls = append(decls, &ast.VarDecl{Token: tok, Name: name})

	for p.current.Type == token.COMMA {
		p.eat(token.COMMA)
		name := p.current.Literal
		p.eat(token.IDENTIFIER)
		decls = append(decls, &ast.VarDecl{Token: tok, Name: name})
	}
	p.eat(token.SEMICOLON)
	return decls
}

// parseProcedureDecl parses `'procedure' id '(' [ id { ',' id } ] ')' ';' block`.
func (p *Parser) parseProcedureDecl() *ast.ProcedureDecl {
	defer p.enter("ProcedureDecl")()

	tok := p.current
	p.eat(token.PROCEDURE)
	name := p.current.Literal
	p.eat(token.IDENTIFIER)

	p.eat(token.LPAREN)
	var params []string
	if p.current.Type == token.IDENTIFIER {
		params = append(params, p.current.Literal)
		p.eat(token.IDENTIFIER)
		for p.current.Type == token.COMMA {
			p.eat(token.COMMA)
			params = append(params, p.current.Literal)
			p.eat(token.IDENTIFIER)
		}
	}
	p.eat(token.RPAREN)
	p.eat(token.SEMICOLON)

	block := p.parseBlock()
	return &ast.ProcedureDecl{Token: tok, Name: name, Params: params, Block: block}
}

// parseCompound parses `'begin' stmt { ';' stmt } 'end'`.
func (p *Parser) parseCompound() *ast.Compound {
	defer p.enter("Compound")()

	tok := p.current
	p.eat(token.BEGIN)

	// Recovery inside a statement may already have consumed the ';' that
	// would otherwise separate it from the next one (synchronize stops at
	// the first ';' or sync token); only eat a ';' when one is actually
	// there so the list keeps going either way.
	stmts := []ast.Statement{p.parseStatement()}
	for p.current.Type != token.END && p.current.Type != token.EOF {
		if p.current.Type == token.SEMICOLON {
			p.eat(token.SEMICOLON)
		}
		stmts = append(stmts, p.parseStatement())
	}
	p.eat(token.END)
	return &ast.Compound{Token: tok, Statements: stmts}
}

// parseStatement parses one alternative of the `stmt` production.
func (p *Parser) parseStatement() ast.Statement {
	defer p.enter("Statement")()

	switch p.current.Type {
	case token.IDENTIFIER:
		tok := p.current
		name := p.current.Literal
		p.eat(token.IDENTIFIER)
		if _, ok := p.eat(token.ASSIGN); !ok {
			return &ast.NoOp{Token: tok}
		}
		value := p.parseExpr()
		return &ast.Assign{Token: tok, Target: &ast.Var{Token: tok, Name: name}, Value: value}

	case token.IF:
		tok := p.current
		p.eat(token.IF)
		cond := p.parseCondition()
		p.eat(token.THEN)
		then := p.parseStatement()
		var alt ast.Statement
		if p.current.Type == token.ELSE {
			p.eat(token.ELSE)
			alt = p.parseStatement()
		}
		return &ast.If{Token: tok, Condition: cond, Consequence: then, Alternative: alt}

	case token.WHILE:
		tok := p.current
		p.eat(token.WHILE)
		cond := p.parseCondition()
		p.eat(token.DO)
		body := p.parseStatement()
		return &ast.While{Token: tok, Condition: cond, Body: body}

	case token.CALL:
		tok := p.current
		p.eat(token.CALL)
		callSite := p.current
		name := p.current.Literal
		p.eat(token.IDENTIFIER)
		p.eat(token.LPAREN)
		var args []ast.Expression
		if p.current.Type != token.RPAREN {
			args = append(args, p.parseExpr())
			for p.current.Type == token.COMMA {
				p.eat(token.COMMA)
				args = append(args, p.parseExpr())
			}
		}
		p.eat(token.RPAREN)
		return &ast.Call{Token: tok, CallSite: callSite, Name: name, Args: args}

	case token.READ:
		tok := p.current
		p.eat(token.READ)
		p.eat(token.LPAREN)
		vars := []*ast.Var{p.parseVarRef()}
		for p.current.Type == token.COMMA {
			p.eat(token.COMMA)
			vars = append(vars, p.parseVarRef())
		}
		p.eat(token.RPAREN)
		return &ast.Read{Token: tok, Vars: vars}

	case token.WRITE:
		tok := p.current
		p.eat(token.WRITE)
		p.eat(token.LPAREN)
		exprs := []ast.Expression{p.parseExpr()}
		for p.current.Type == token.COMMA {
			p.eat(token.COMMA)
			exprs = append(exprs, p.parseExpr())
		}
		p.eat(token.RPAREN)
		return &ast.Write{Token: tok, Exprs: exprs}

	case token.BEGIN:
		return p.parseCompound()

	default:
		// ε is only valid where the grammar actually allows an empty
		// statement: right before the next separator or the closing 'end'.
		// Anything else here is a genuine error; synchronize to guarantee
		// forward progress instead of looping on the same stuck token.
		if p.current.Type == token.SEMICOLON || p.current.Type == token.END || p.current.Type == token.EOF {
			return &ast.NoOp{Token: p.current}
		}
		p.errorf("unexpected token %s %q in statement", p.current.Type, p.current.Literal)
		tok := p.current
		p.synchronize()
		return &ast.NoOp{Token: tok}
	}
}

func (p *Parser) parseVarRef() *ast.Var {
	tok := p.current
	name := p.current.Literal
	p.eat(token.IDENTIFIER)
	return &ast.Var{Token: tok, Name: name}
}

// parseCondition parses `lexp := 'odd' exp | exp relop exp`.
func (p *Parser) parseCondition() ast.Expression {
	defer p.enter("Condition")()

	if p.current.Type == token.ODD {
		tok := p.current
		p.eat(token.ODD)
		operand := p.parseExpr()
		return &ast.UnaryOp{Token: tok, Operator: "odd", Operand: operand}
	}

	left := p.parseExpr()
	if !relops[p.current.Type] {
		p.errorf("expected a relational operator, found %s %q", p.current.Type, p.current.Literal)
		p.synchronize()
		return left
	}
	tok := p.current
	op := tok.Literal
	p.advance()
	right := p.parseExpr()
	return &ast.BinOp{Token: tok, Operator: op, Left: left, Right: right}
}

// parseExpr parses `exp := [ '+' | '-' ] term { ('+'|'-') term }`.
func (p *Parser) parseExpr() ast.Expression {
	defer p.enter("Expr")()

	var left ast.Expression
	switch p.current.Type {
	case token.PLUS:
		p.eat(token.PLUS)
		left = p.parseTerm()
	case token.MINUS:
		tok := p.current
		p.eat(token.MINUS)
		left = &ast.UnaryOp{Token: tok, Operator: "-", Operand: p.parseTerm()}
	default:
		left = p.parseTerm()
	}

	for p.current.Type == token.PLUS || p.current.Type == token.MINUS {
		tok := p.current
		op := tok.Literal
		p.advance()
		right := p.parseTerm()
		left = &ast.BinOp{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

// parseTerm parses `term := factor { ('*'|'/') factor }`.
func (p *Parser) parseTerm() ast.Expression {
	defer p.enter("Term")()

	left := p.parseFactor()
	for p.current.Type == token.TIMES || p.current.Type == token.SLASH {
		tok := p.current
		op := tok.Literal
		p.advance()
		right := p.parseFactor()
		left = &ast.BinOp{Token: tok, Operator: op, Left: left, Right: right}
	}
	return left
}

// parseFactor parses `factor := id | int | '(' exp ')'`.
func (p *Parser) parseFactor() ast.Expression {
	defer p.enter("Factor")()

	switch p.current.Type {
	case token.IDENTIFIER:
		tok := p.current
		p.eat(token.IDENTIFIER)
		return &ast.Var{Token: tok, Name: tok.Literal}
	case token.INTEGER:
		tok := p.current
		p.eat(token.INTEGER)
		value, err := strconv.Atoi(tok.Literal)
		if err != nil {
			value = 0
		}
		return &ast.Num{Token: tok, Value: value}
	case token.LPAREN:
		p.eat(token.LPAREN)
		expr := p.parseExpr()
		p.eat(token.RPAREN)
		return expr
	default:
		p.errorf("expected an identifier, integer, or '(', found %s %q", p.current.Type, p.current.Literal)
		tok := p.current
		p.synchronize()
		return &ast.Num{Token: tok, Value: 0}
	}
}
