package format

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mgosh/internal/command"
)

func sampleDoc() bson.D {
	oid := bson.NewObjectID()
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "name", Value: "sprocket"},
		{Key: "qty", Value: int32(4)},
	}
}

func TestFormatShellWrapsTypedConstructors(t *testing.T) {
	f := New(ModeShell, false)
	out := f.Format(command.ExecutionResult{
		Success: true,
		Data:    command.ResultData{Kind: command.RDDocument, Document: sampleDoc()},
	})
	if !strings.Contains(out, "ObjectId(") {
		t.Fatalf("expected ObjectId() wrapper in shell output, got %q", out)
	}
	if !strings.Contains(out, `"sprocket"`) {
		t.Fatalf("expected quoted string value, got %q", out)
	}
}

func TestFormatCompactJSONSimplifiesObjectId(t *testing.T) {
	f := New(ModeCompactJSON, false)
	out := f.Format(command.ExecutionResult{
		Success: true,
		Data:    command.ResultData{Kind: command.RDDocument, Document: sampleDoc()},
	})
	if strings.Contains(out, "$oid") {
		t.Fatalf("expected simplified JSON with no $oid wrapper, got %q", out)
	}
	if strings.Contains(out, "\n") {
		t.Fatalf("expected single-line compact JSON, got %q", out)
	}
}

func TestFormatPrettyJSONIsMultiLine(t *testing.T) {
	f := New(ModePrettyJSON, false)
	out := f.Format(command.ExecutionResult{
		Success: true,
		Data:    command.ResultData{Kind: command.RDDocument, Document: sampleDoc()},
	})
	if !strings.Contains(out, "\n") {
		t.Fatalf("expected multi-line pretty JSON, got %q", out)
	}
}

func TestFormatTableHeaderForcesIDFirst(t *testing.T) {
	f := New(ModeTable, false)
	out := f.Format(command.ExecutionResult{
		Success: true,
		Data:    command.ResultData{Kind: command.RDDocuments, Documents: []bson.D{sampleDoc()}},
	})
	upper := strings.ToUpper(out)
	idx := strings.Index(upper, "_ID")
	nameIdx := strings.Index(upper, "NAME")
	if idx == -1 || nameIdx == -1 || idx > nameIdx {
		t.Fatalf("expected _id column before name column, got %q", out)
	}
}

func TestFormatCompactSummaryCounts(t *testing.T) {
	f := New(ModeCompactSummary, false)
	out := f.Format(command.ExecutionResult{
		Success: true,
		Data:    command.ResultData{Kind: command.RDDocuments, Documents: []bson.D{sampleDoc(), sampleDoc()}},
		Stats:   command.Stats{ExecutionTimeMS: 5},
	})
	if !strings.Contains(out, "2 document(s)") {
		t.Fatalf("expected a document count, got %q", out)
	}
}

func TestFormatErrorResult(t *testing.T) {
	f := New(ModeShell, false)
	out := f.Format(command.ExecutionResult{Success: false, Err: "boom"})
	if !strings.HasPrefix(out, "Error:") {
		t.Fatalf("expected an Error: prefix, got %q", out)
	}
}

func TestTableCellSummarizesLargeArrays(t *testing.T) {
	doc := bson.D{{Key: "_id", Value: bson.NewObjectID()}, {Key: "tags", Value: bson.A{"a", "b", "c", "d", "e"}}}
	out := formatTable(command.ResultData{Kind: command.RDDocuments, Documents: []bson.D{doc}}, New(ModeTable, false))
	if !strings.Contains(out, "Array(5)") {
		t.Fatalf("expected a summarized Array(5) cell, got %q", out)
	}
}
