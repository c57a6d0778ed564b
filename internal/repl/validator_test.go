package repl

import "testing"

func TestIsCompleteBalanced(t *testing.T) {
	if !IsComplete(`db.users.find({status:"active"})`) {
		t.Fatal("expected a balanced statement to be complete")
	}
}

func TestIsCompleteUnbalancedBrace(t *testing.T) {
	if IsComplete(`db.users.find({status:"active"`) {
		t.Fatal("expected an unclosed brace to be incomplete")
	}
}

func TestIsCompleteUnclosedQuote(t *testing.T) {
	if IsComplete(`db.users.find({status:"active})`) {
		t.Fatal("expected an unclosed quote to be incomplete")
	}
}

func TestIsCompleteBraceInsideQuoteIgnored(t *testing.T) {
	if !IsComplete(`db.users.find({note:"a{b"})`) {
		t.Fatal("expected a brace inside a quoted string not to affect balance")
	}
}
