package shellparse

import "testing"

func TestParseFindChain(t *testing.T) {
	expr, err := ParseExpression(`db.users.find({age:18})`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Kind != ExprCall {
		t.Fatalf("expected top-level call, got %v", expr.Kind)
	}
	method := expr.Target
	if method.Kind != ExprMember || method.Name != "find" {
		t.Fatalf("expected .find member access, got %+v", method)
	}
	coll := method.Target
	if coll.Kind != ExprMember || coll.Name != "users" {
		t.Fatalf("expected .users member access, got %+v", coll)
	}
	if coll.Target.Kind != ExprDB {
		t.Fatalf("expected db root, got %+v", coll.Target)
	}
	if len(expr.Args) != 1 || expr.Args[0].Kind != ExprObject {
		t.Fatalf("expected one object arg, got %+v", expr.Args)
	}
}

func TestParseChainedCalls(t *testing.T) {
	expr, err := ParseExpression(`db.users.find({}).sort({age:-1}).limit(10)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Kind != ExprCall {
		t.Fatalf("expected call at top, got %v", expr.Kind)
	}
	limitMember := expr.Target
	if limitMember.Name != "limit" {
		t.Fatalf("expected outermost call to be .limit, got %+v", limitMember)
	}
}

func TestParseValueConstructors(t *testing.T) {
	expr, err := ParseExpression(`ObjectId("507f1f77bcf86cd799439011")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Kind != ExprCall || expr.Target.Kind != ExprIdent || expr.Target.Name != "ObjectId" {
		t.Fatalf("unexpected AST: %+v", expr)
	}
}

func TestParseNewExpression(t *testing.T) {
	expr, err := ParseExpression(`new Date("2024-01-01")`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Kind != ExprNew {
		t.Fatalf("expected ExprNew, got %v", expr.Kind)
	}
}

func TestParseUnary(t *testing.T) {
	expr, err := ParseExpression(`-5`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Kind != ExprUnary || expr.Op != "-" {
		t.Fatalf("unexpected AST: %+v", expr)
	}
}

func TestParseBuiltinShow(t *testing.T) {
	b, ok, err := ParseBuiltin("show collections")
	if err != nil || !ok {
		t.Fatalf("ParseBuiltin failed: %v ok=%v", err, ok)
	}
	if b.Kind != BuiltinShowCollections {
		t.Fatalf("unexpected kind: %v", b.Kind)
	}
}

func TestParseBuiltinUseValidatesName(t *testing.T) {
	if _, _, err := ParseBuiltin("use my/db"); err == nil {
		t.Fatal("expected validation error for invalid db name")
	}
}

func TestParseBuiltinNotMatched(t *testing.T) {
	_, ok, err := ParseBuiltin("db.users.find()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected non-builtin line to not match")
	}
}

func TestParseBuiltinExitQuit(t *testing.T) {
	for _, line := range []string{"exit", "quit"} {
		b, ok, err := ParseBuiltin(line)
		if err != nil || !ok || b.Kind != BuiltinExit {
			t.Fatalf("line %q: b=%+v ok=%v err=%v", line, b, ok, err)
		}
	}
}
