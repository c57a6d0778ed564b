package lexer

import "testing"

func TestSQLLexerKeywordCaseInsensitive(t *testing.T) {
	toks, err := NewSQLLexer("select * from Users where age > 18").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != SQLKeyword || toks[0].Text != "SELECT" {
		t.Fatalf("unexpected first token: %+v", toks[0])
	}
	// identifier case must be preserved verbatim.
	var foundUsers bool
	for _, tok := range toks {
		if tok.Kind == SQLIdent && tok.Text == "Users" {
			foundUsers = true
		}
	}
	if !foundUsers {
		t.Fatal("expected identifier 'Users' preserved verbatim")
	}
}

func TestSQLLexerGroupByCollapses(t *testing.T) {
	toks, err := NewSQLLexer("GROUP BY category").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != SQLKeyword || toks[0].Text != "GROUP BY" {
		t.Fatalf("expected collapsed GROUP BY token, got %+v", toks[0])
	}
}

func TestSQLLexerOrderByCollapses(t *testing.T) {
	toks, err := NewSQLLexer("order by age desc").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Text != "ORDER BY" {
		t.Fatalf("expected ORDER BY, got %+v", toks[0])
	}
}

func TestSQLLexerOperators(t *testing.T) {
	toks, err := NewSQLLexer("!= <> >= <= = > <").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"!=", "<>", ">=", "<=", "=", ">", "<"}
	for i, w := range want {
		if toks[i].Text != w {
			t.Errorf("token %d = %q, want %q", i, toks[i].Text, w)
		}
	}
}

func TestSQLLexerStringDoubleQuoteEscape(t *testing.T) {
	toks, err := NewSQLLexer(`'it''s'`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != SQLString || toks[0].Text != "it's" {
		t.Fatalf("unexpected token: %+v", toks[0])
	}
}

func TestSQLLexerTrailingEOF(t *testing.T) {
	toks, _ := NewSQLLexer("SELECT 1").Tokenize()
	if toks[len(toks)-1].Kind != SQLEOF {
		t.Fatal("expected trailing EOF token")
	}
}
