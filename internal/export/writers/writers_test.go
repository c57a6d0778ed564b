package writers

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestJSONLLineAddressable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	w, err := NewJSONL(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	docs := []bson.D{
		{{Key: "a", Value: 1}},
		{{Key: "a", Value: 2}},
	}
	if err := w.WriteBatch(docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if sc.Text() != "" {
			lines = append(lines, sc.Text())
		}
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 non-empty lines, got %d", len(lines))
	}
	for _, l := range lines {
		if !strings.Contains(l, `"a"`) {
			t.Fatalf("expected each line to contain the document, got %q", l)
		}
	}
}

func TestCSVWritesHeaderFromFirstBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs := []bson.D{
		{{Key: "name", Value: "a"}, {Key: "qty", Value: 1}},
		{{Key: "name", Value: "b"}, {Key: "qty", Value: 2}},
	}
	if err := w.WriteBatch(docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "name,qty" {
		t.Fatalf("expected header from the first batch's fields, got %q", lines[0])
	}
}

func TestCSVWidensColumnsAcrossBatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var warnings []string
	w.Warn = func(msg string) { warnings = append(warnings, msg) }

	if err := w.WriteBatch([]bson.D{{{Key: "name", Value: "a"}, {Key: "qty", Value: 1}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.WriteBatch([]bson.D{{{Key: "name", Value: "b"}, {Key: "qty", Value: 2}, {Key: "extra", Value: "x"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "name,qty" {
		t.Fatalf("expected the header to stay as written from the first batch, got %q", lines[0])
	}
	if lines[1] != "a,1" {
		t.Fatalf("expected the first batch's row to stay narrow, got %q", lines[1])
	}
	if lines[2] != "b,2,x" {
		t.Fatalf("expected the later batch's row to gain the new column, got %q", lines[2])
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one widening warning, got %d", len(warnings))
	}
}
