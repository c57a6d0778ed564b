package command

import "testing"

func TestExplainNestingRejected(t *testing.T) {
	find := &QueryCommand{Op: OpFind, Collection: "users"}
	explained, err := NewExplain(find, QueryPlanner)
	if err != nil {
		t.Fatalf("unexpected error explaining Find: %v", err)
	}
	if _, err := NewExplain(explained, QueryPlanner); err == nil {
		t.Fatal("expected error wrapping Explain in Explain")
	}
}

func TestExplainUnsupportedOperation(t *testing.T) {
	insert := &QueryCommand{Op: OpInsertOne, Collection: "users"}
	if _, err := NewExplain(insert, QueryPlanner); err == nil {
		t.Fatal("expected error explaining InsertOne")
	}
}

func TestExplainSupportedOperations(t *testing.T) {
	for _, op := range []QueryOp{OpFind, OpFindOne, OpAggregate, OpCountDocuments, OpDistinct} {
		q := &QueryCommand{Op: op, Collection: "c"}
		if !q.SupportsExplain() {
			t.Fatalf("expected op %v to support explain", op)
		}
	}
}

func TestParseVerbosityCompat(t *testing.T) {
	v, err := ParseVerbosity("true")
	if err != nil || v != AllPlansExecution {
		t.Fatalf("ParseVerbosity(true) = %v, %v", v, err)
	}
	v, err = ParseVerbosity("false")
	if err != nil || v != QueryPlanner {
		t.Fatalf("ParseVerbosity(false) = %v, %v", v, err)
	}
	if _, err := ParseVerbosity("bogus"); err == nil {
		t.Fatal("expected error for invalid verbosity string")
	}
}

func TestDestructiveGate(t *testing.T) {
	cases := []struct {
		cmd  *Command
		want bool
	}{
		{&Command{Kind: KindQuery, Query: &QueryCommand{Op: OpFind}}, false},
		{&Command{Kind: KindQuery, Query: &QueryCommand{Op: OpDeleteMany}}, true},
		{&Command{Kind: KindQuery, Query: &QueryCommand{Op: OpUpdateOne}}, true},
		{&Command{Kind: KindQuery, Query: &QueryCommand{Op: OpFindOneAndDelete}}, true},
		{&Command{Kind: KindQuery, Query: &QueryCommand{Op: OpInsertOne}}, false},
		{&Command{Kind: KindAdmin, Admin: &AdminCommand{Op: AdminDropCollection}}, true},
		{&Command{Kind: KindAdmin, Admin: &AdminCommand{Op: AdminShowDatabases}}, false},
	}
	for i, c := range cases {
		if got := c.cmd.IsDestructive(); got != c.want {
			t.Errorf("case %d: IsDestructive() = %v, want %v", i, got, c.want)
		}
	}
}
