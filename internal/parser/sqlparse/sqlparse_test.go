package sqlparse

import "testing"

func TestParseSimpleSelect(t *testing.T) {
	out := Parse(`SELECT name, age FROM users WHERE age >= 18 ORDER BY name DESC LIMIT 10`)
	if out.Status != StatusOK {
		t.Fatalf("expected OK, got %v (err=%v)", out.Status, out.Err)
	}
	if out.Stmt.From != "users" {
		t.Fatalf("expected From=users, got %q", out.Stmt.From)
	}
	if len(out.Stmt.Items) != 2 || out.Stmt.Items[0].Path != "name" {
		t.Fatalf("unexpected items: %+v", out.Stmt.Items)
	}
	if out.Stmt.Where == nil || out.Stmt.Where.Kind != ExprBinary || out.Stmt.Where.Op != ">=" {
		t.Fatalf("unexpected where: %+v", out.Stmt.Where)
	}
	if len(out.Stmt.OrderBy) != 1 || !out.Stmt.OrderBy[0].Desc {
		t.Fatalf("unexpected order by: %+v", out.Stmt.OrderBy)
	}
	if out.Stmt.Limit == nil || *out.Stmt.Limit != 10 {
		t.Fatalf("unexpected limit: %+v", out.Stmt.Limit)
	}
}

func TestParseStarAndGroupBy(t *testing.T) {
	out := Parse(`SELECT COUNT(*) AS total, status FROM orders GROUP BY status`)
	if out.Status != StatusOK {
		t.Fatalf("expected OK, got %v (err=%v)", out.Status, out.Err)
	}
	if out.Stmt.Items[0].Kind != ItemAggregate || out.Stmt.Items[0].Func != AggCount || !out.Stmt.Items[0].ArgStar {
		t.Fatalf("unexpected first item: %+v", out.Stmt.Items[0])
	}
	if out.Stmt.Items[0].Alias != "total" {
		t.Fatalf("expected alias total, got %q", out.Stmt.Items[0].Alias)
	}
	if len(out.Stmt.GroupBy) != 1 || out.Stmt.GroupBy[0] != "status" {
		t.Fatalf("unexpected group by: %+v", out.Stmt.GroupBy)
	}
}

func TestParseCountDistinct(t *testing.T) {
	out := Parse(`SELECT COUNT(DISTINCT email) FROM users`)
	if out.Status != StatusOK {
		t.Fatalf("expected OK, got %v (err=%v)", out.Status, out.Err)
	}
	item := out.Stmt.Items[0]
	if !item.Distinct || item.ArgPath != "email" {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestParseExplainWrapper(t *testing.T) {
	out := Parse(`EXPLAIN executionStats SELECT * FROM users`)
	if out.Status != StatusOK {
		t.Fatalf("expected OK, got %v (err=%v)", out.Status, out.Err)
	}
	if !out.Stmt.Explain || out.Stmt.Verbosity != VerbosityExecutionStats {
		t.Fatalf("unexpected explain state: %+v", out.Stmt)
	}
}

func TestParseInAndIsNull(t *testing.T) {
	out := Parse(`SELECT * FROM users WHERE status IN ('a', 'b') AND deleted_at IS NULL`)
	if out.Status != StatusOK {
		t.Fatalf("expected OK, got %v (err=%v)", out.Status, out.Err)
	}
	where := out.Stmt.Where
	if where.Kind != ExprBinary || where.Op != "AND" {
		t.Fatalf("expected top-level AND, got %+v", where)
	}
	if where.Left.Kind != ExprIn || len(where.Left.List) != 2 {
		t.Fatalf("unexpected IN node: %+v", where.Left)
	}
	if where.Right.Kind != ExprIsNull || where.Right.IsNotNull {
		t.Fatalf("unexpected IS NULL node: %+v", where.Right)
	}
}

func TestParseFieldPathInWhere(t *testing.T) {
	out := Parse(`SELECT * FROM orders WHERE items[0].price > 9.99`)
	if out.Status != StatusOK {
		t.Fatalf("expected OK, got %v (err=%v)", out.Status, out.Err)
	}
	if out.Stmt.Where.Left.Path != "items[0].price" {
		t.Fatalf("unexpected path: %q", out.Stmt.Where.Left.Path)
	}
}

func TestPartialSelectOnly(t *testing.T) {
	out := Parse(`SELECT`)
	if out.Status != StatusPartial {
		t.Fatalf("expected Partial, got %v", out.Status)
	}
	if out.CurrentClause != ClauseSelect {
		t.Fatalf("expected clause Select, got %v", out.CurrentClause)
	}
}

func TestPartialAfterFrom(t *testing.T) {
	out := Parse(`SELECT * FROM `)
	if out.Status != StatusPartial {
		t.Fatalf("expected Partial, got %v (err=%v)", out.Status, out.Err)
	}
	if out.CurrentClause != ClauseFrom {
		t.Fatalf("expected clause From, got %v", out.CurrentClause)
	}
	foundTable := false
	for _, e := range out.Expected {
		if e.Kind == ExpectedTableName {
			foundTable = true
		}
	}
	if !foundTable {
		t.Fatalf("expected TableName in expected set, got %+v", out.Expected)
	}
}

func TestPartialAfterWhere(t *testing.T) {
	out := Parse(`SELECT * FROM users WHERE `)
	if out.Status != StatusPartial {
		t.Fatalf("expected Partial, got %v (err=%v)", out.Status, out.Err)
	}
	if out.CurrentClause != ClauseWhere {
		t.Fatalf("expected clause Where, got %v", out.CurrentClause)
	}
}

func TestClauseOrderViolationIsError(t *testing.T) {
	out := Parse(`SELECT * FROM users ORDER BY name WHERE age > 1`)
	if out.Status != StatusError {
		t.Fatalf("expected Error for out-of-order WHERE, got %v", out.Status)
	}
	if out.Err == nil || out.Err.Hint == "" {
		t.Fatalf("expected a hint on clause-order error, got %+v", out.Err)
	}
}

// TestPartialParseMonotonicity checks spec.md §8's "every valid prefix
// ending on a token boundary parses as at-worst Partial, never Error". Cuts
// mid-identifier (e.g. "ORDER B") are excluded: the lexer treats a truncated
// multi-word keyword as a plain identifier, which is correctly a trailing
// garbage token rather than an incomplete clause.
func TestPartialParseMonotonicity(t *testing.T) {
	prefixes := []string{
		"SELECT",
		"SELECT ",
		"SELECT name",
		"SELECT name FROM",
		"SELECT name FROM ",
		"SELECT name FROM users",
		"SELECT name FROM users WHERE",
		"SELECT name FROM users WHERE ",
		"SELECT name FROM users WHERE age",
		"SELECT name FROM users WHERE age >",
		"SELECT name FROM users WHERE age > 18",
		"SELECT name FROM users WHERE age > 18 ORDER BY",
		"SELECT name FROM users WHERE age > 18 ORDER BY name",
		"SELECT name FROM users WHERE age > 18 ORDER BY name LIMIT",
	}
	for _, prefix := range prefixes {
		out := Parse(prefix)
		if out.Status == StatusError {
			t.Fatalf("prefix %q produced a hard Error (expected OK or Partial): %v", prefix, out.Err)
		}
	}
}

func TestUnknownTokenIsHardError(t *testing.T) {
	out := Parse(`SELECT * FROM users WHERE @@@`)
	if out.Status != StatusError {
		t.Fatalf("expected Error, got %v", out.Status)
	}
}
