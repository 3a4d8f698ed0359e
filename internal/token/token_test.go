package token

import "testing"

func TestLookupIdentKeywords(t *testing.T) {
	for key, want := range keywords {
		if got := LookupIdent(key); got != want {
			t.Errorf("LookupIdent(%q) = %s, want %s", key, got, want)
		}
	}
}

func TestLookupIdentNonKeyword(t *testing.T) {
	for _, name := range []string{"x", "result", "fact", "n1"} {
		if got := LookupIdent(name); got != IDENTIFIER {
			t.Errorf("LookupIdent(%q) = %s, want %s", name, got, IDENTIFIER)
		}
	}
}

func TestIsSynchronizing(t *testing.T) {
	for _, tt := range []Type{END, IF, WHILE, READ, WRITE, BEGIN, VAR, CONST, PROCEDURE, EOF} {
		if !IsSynchronizing(tt) {
			t.Errorf("IsSynchronizing(%s) = false, want true", tt)
		}
	}
	for _, tt := range []Type{PLUS, IDENTIFIER, INTEGER, THEN, DO} {
		if IsSynchronizing(tt) {
			t.Errorf("IsSynchronizing(%s) = true, want false", tt)
		}
	}
}
