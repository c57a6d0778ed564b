package lexer

import "testing"

func TestShellLexerChain(t *testing.T) {
	toks, err := NewShellLexer(`db.users.find({age:18})`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ShellTokenKind{ShellDB, ShellPunct, ShellIdent, ShellPunct, ShellIdent, ShellPunct,
		ShellPunct, ShellIdent, ShellPunct, ShellInt, ShellPunct, ShellPunct, ShellEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: kind = %v, want %v (%q)", i, toks[i].Kind, k, toks[i].Text)
		}
	}
}

func TestShellLexerStringEscapes(t *testing.T) {
	toks, err := NewShellLexer(`"a\nb"`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != ShellString || toks[0].Text != "a\nb" {
		t.Fatalf("unexpected token: %+v", toks[0])
	}
}

func TestShellLexerFloat(t *testing.T) {
	toks, err := NewShellLexer("3.14").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != ShellFloat || toks[0].Text != "3.14" {
		t.Fatalf("unexpected token: %+v", toks[0])
	}
}

func TestShellLexerUnterminatedString(t *testing.T) {
	if _, err := NewShellLexer(`"unterminated`).Tokenize(); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestShellLexerSpans(t *testing.T) {
	toks, _ := NewShellLexer("db").Tokenize()
	if toks[0].Start != 0 || toks[0].End != 2 {
		t.Fatalf("unexpected span: %+v", toks[0])
	}
}
