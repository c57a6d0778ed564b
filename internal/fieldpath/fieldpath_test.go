package fieldpath

import "testing"

func TestParseSimple(t *testing.T) {
	p := Parse("a.b.c")
	if len(p) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(p))
	}
	if p[0].Kind != Field || p[0].Name != "a" {
		t.Fatalf("unexpected first segment: %+v", p[0])
	}
	if p[1].Kind != Nested || p[1].Name != "b" {
		t.Fatalf("unexpected second segment: %+v", p[1])
	}
	if got, ok := p.ToMongoDBPath(); !ok || got != "a.b.c" {
		t.Fatalf("ToMongoDBPath = %q, %v", got, ok)
	}
}

func TestParseArrayIndex(t *testing.T) {
	p := Parse("items[0].price")
	if !p.RequiresAggregation() {
		t.Fatal("expected RequiresAggregation to be true")
	}
	if _, ok := p.ToMongoDBPath(); ok {
		t.Fatal("expected ToMongoDBPath to fail for indexed path")
	}
	if p.BaseField() != "items" {
		t.Fatalf("BaseField = %q", p.BaseField())
	}
}

func TestParseWildcard(t *testing.T) {
	p := Parse("tags[*]")
	if len(p) != 2 || p[1].Kind != ArrayWildcard {
		t.Fatalf("unexpected path: %+v", p)
	}
	if !p.RequiresAggregation() {
		t.Fatal("expected wildcard to require aggregation")
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"a.b.c", "items[0].price", "tags[*]"} {
		if got := Parse(s).String(); got != s {
			t.Fatalf("String() round trip: got %q want %q", got, s)
		}
	}
}
