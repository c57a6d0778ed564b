package repl

import (
	"testing"

	"github.com/dwoolworth/mgosh/internal/command"
)

func TestParseLineShellFind(t *testing.T) {
	cmd, err := ParseLine(`db.users.find({status:"active"})`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if cmd.Kind != command.KindQuery || cmd.Query.Op != command.OpFind {
		t.Fatalf("expected a Find query, got %+v", cmd)
	}
}

func TestParseLineSQLSelect(t *testing.T) {
	cmd, err := ParseLine("SELECT name FROM users WHERE age > 18")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if cmd.Kind != command.KindQuery {
		t.Fatalf("expected a query command, got %+v", cmd)
	}
}

func TestParseLineBuiltinUse(t *testing.T) {
	cmd, err := ParseLine("use shop")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if cmd.Kind != command.KindAdmin || cmd.Admin.Op != command.AdminUseDatabase || cmd.Admin.DatabaseName != "shop" {
		t.Fatalf("expected AdminUseDatabase(shop), got %+v", cmd)
	}
}

func TestParseLineBuiltinExit(t *testing.T) {
	cmd, err := ParseLine("exit")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if cmd.Kind != command.KindExit {
		t.Fatalf("expected KindExit, got %+v", cmd)
	}
}

func TestParseLinePipeExport(t *testing.T) {
	cmd, err := ParseLine(`db.orders.find({status:"open"}) | export jsonl "out.jsonl"`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if cmd.Kind != command.KindPipe {
		t.Fatalf("expected KindPipe, got %+v", cmd)
	}
	if cmd.Post.Format != command.FormatJSONL || cmd.Post.File != "out.jsonl" {
		t.Fatalf("expected jsonl export to out.jsonl, got %+v", cmd.Post)
	}
	if cmd.Inner.Kind != command.KindQuery {
		t.Fatalf("expected inner query command, got %+v", cmd.Inner)
	}
}

func TestParseLineRejectsPipeOnQuotedBar(t *testing.T) {
	cmd, err := ParseLine(`db.users.find({note:"a|b"})`)
	if err != nil {
		t.Fatalf("ParseLine: %v (pipe inside quotes should not split)", err)
	}
	if cmd.Kind != command.KindQuery {
		t.Fatalf("expected a plain query command, got %+v", cmd)
	}
}

func TestParseLineSQLPartialIsError(t *testing.T) {
	_, err := ParseLine("SELECT * FROM")
	if err == nil {
		t.Fatal("expected a partial-statement error")
	}
}
