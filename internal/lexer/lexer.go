// Package lexer implements the scanner for the PL/0 language.
//
// Per spec.md §1 the lexer is an external collaborator specified only by the
// token stream it produces (§6): one token of lookahead via NextToken, plus a
// PeekTokenType oracle that reports the type of the token after the current
// one without consuming it. This package provides a concrete scanner meeting
// that contract so the rest of the pipeline has something to run against.
package lexer

import (
	"strings"

	"github.com/pl0lang/plzero/internal/diag"
	"github.com/pl0lang/plzero/internal/token"
)

// Lexer scans PL/0 source text into a stream of tokens.
type Lexer struct {
	input        string
	position     int // index of ch
	readPosition int // index of the next byte to read
	ch           byte
	line         int
	column       int

	// peeked buffers one scanned-ahead token for PeekTokenType, so a caller
	// can look one token beyond the one NextToken just returned without the
	// lexer losing its place.
	peeked    *token.Token
	Diags     []diag.Diagnostic
}

// New creates a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken returns the next token in the stream, consuming it.
func (l *Lexer) NextToken() token.Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t
	}
	return l.scan()
}

// PeekTokenType returns the type of the token that would be returned by the
// NextToken call after the current one, without consuming it.
func (l *Lexer) PeekTokenType() token.Type {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}
	return l.peeked.Type
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		break
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isAlnum(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isAlnum(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) scan() token.Token {
	l.skipWhitespaceAndComments()

	line, col := l.line, l.column
	newTok := func(typ token.Type, lit string) token.Token {
		return token.Token{Type: typ, Literal: lit, Line: line, Column: col}
	}

	switch ch := l.ch; {
	case ch == 0:
		return newTok(token.EOF, "")
	case ch == '+':
		l.readChar()
		return newTok(token.PLUS, "+")
	case ch == '-':
		l.readChar()
		return newTok(token.MINUS, "-")
	case ch == '*':
		l.readChar()
		return newTok(token.TIMES, "*")
	case ch == '/':
		l.readChar()
		return newTok(token.SLASH, "/")
	case ch == '(':
		l.readChar()
		return newTok(token.LPAREN, "(")
	case ch == ')':
		l.readChar()
		return newTok(token.RPAREN, ")")
	case ch == '=':
		l.readChar()
		return newTok(token.EQUAL, "=")
	case ch == ',':
		l.readChar()
		return newTok(token.COMMA, ",")
	case ch == ';':
		l.readChar()
		return newTok(token.SEMICOLON, ";")
	case ch == '#':
		l.readChar()
		return newTok(token.NOT_EQUAL, "#")
	case ch == '<':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return newTok(token.LESS_EQUAL, "<=")
		}
		return newTok(token.LESS, "<")
	case ch == '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return newTok(token.GREATER_EQUAL, ">=")
		}
		return newTok(token.GREATER, ">")
	case ch == ':':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return newTok(token.ASSIGN, ":=")
		}
		// A lone ':' is illegal: PL/0 only ever uses ':' as the first half
		// of ':='. Reported per spec.md §7 and recovered from by treating
		// it as an assignment anyway, so the parser sees the token it most
		// likely meant.
		l.Diags = append(l.Diags, diag.Diagnostic{
			Category: diag.Lexical, Line: line, Column: col,
			Message: "stray ':' not followed by '=': treating as ':='",
		})
		return newTok(token.ASSIGN, ":")
	case isLetter(ch):
		lit := l.readIdentifier()
		return newTok(token.LookupIdent(strings.ToLower(lit)), lit)
	case isDigit(ch):
		return newTok(token.INTEGER, l.readNumber())
	default:
		l.readChar()
		l.Diags = append(l.Diags, diag.Diagnostic{
			Category: diag.Lexical, Line: line, Column: col,
			Message: "illegal character " + string(ch),
		})
		return newTok(token.ILLEGAL, string(ch))
	}
}
