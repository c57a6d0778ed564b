package exec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mgosh/internal/command"
	"github.com/dwoolworth/mgosh/internal/session"
)

func setupTestDB(t *testing.T) (context.Context, *mongo.Database, func()) {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	ctx := context.Background()
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	dbName := fmt.Sprintf("mgosh_exec_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)
	cleanup := func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	}
	return ctx, db, cleanup
}

func TestExecuteQueryCommand(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	c := New(db, "test-client", session.New(db.Name()), AutoPolicy{Accept: true})
	res := c.Execute(ctx, &command.Command{
		Kind:  command.KindQuery,
		Query: &command.QueryCommand{Op: command.OpInsertOne, Collection: "widgets", Document: bson.D{{Key: "a", Value: 1}}},
	})
	if !res.Success {
		t.Fatalf("insert failed: %s", res.Err)
	}
}

func TestExecuteDestructiveCommandGatedByConfirm(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	c := New(db, "test-client", session.New(db.Name()), AutoPolicy{Accept: false})
	res := c.Execute(ctx, &command.Command{
		Kind:  command.KindQuery,
		Query: &command.QueryCommand{Op: command.OpDeleteMany, Collection: "widgets"},
	})
	if !res.Success || res.Data.Message != "Operation cancelled by user" {
		t.Fatalf("expected a cancellation message, got %+v", res)
	}
}

func TestExecuteAdminShowCollections(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	state := session.New(db.Name())
	c := New(db, "test-client", state, AutoPolicy{Accept: true})
	c.Execute(ctx, &command.Command{
		Kind:  command.KindQuery,
		Query: &command.QueryCommand{Op: command.OpInsertOne, Collection: "widgets", Document: bson.D{{Key: "a", Value: 1}}},
	})

	res := c.Execute(ctx, &command.Command{Kind: command.KindAdmin, Admin: &command.AdminCommand{Op: command.AdminShowCollections}})
	if !res.Success {
		t.Fatalf("show collections failed: %s", res.Err)
	}
	found := false
	for _, name := range res.Data.List {
		if name == "widgets" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'widgets' in collection list, got %v", res.Data.List)
	}
}

func TestExecutePipeExportJSONL(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	state := session.New(db.Name())
	c := New(db, "test-client", state, AutoPolicy{Accept: true})
	for i := 0; i < 3; i++ {
		c.Execute(ctx, &command.Command{
			Kind:  command.KindQuery,
			Query: &command.QueryCommand{Op: command.OpInsertOne, Collection: "exportme", Document: bson.D{{Key: "i", Value: i}}},
		})
	}

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	res := c.Execute(ctx, &command.Command{
		Kind: command.KindPipe,
		Inner: &command.Command{
			Kind:  command.KindQuery,
			Query: &command.QueryCommand{Op: command.OpFind, Collection: "exportme"},
		},
		Post: &command.PipeCommand{Kind: command.PipeExport, Format: command.FormatJSONL, File: outPath},
	})
	if !res.Success {
		t.Fatalf("export failed: %s", res.Err)
	}

	contents, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("unexpected error reading export file: %v", err)
	}
	lineCount := 0
	for _, line := range splitNonEmptyLines(string(contents)) {
		_ = line
		lineCount++
	}
	if lineCount != 3 {
		t.Fatalf("expected 3 exported lines, got %d", lineCount)
	}
}

func TestIterateContinuesFindPagination(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	state := session.New(db.Name())
	c := New(db, "test-client", state, AutoPolicy{Accept: true})
	for i := 0; i < 5; i++ {
		c.Execute(ctx, &command.Command{
			Kind:  command.KindQuery,
			Query: &command.QueryCommand{Op: command.OpInsertOne, Collection: "pager", Document: bson.D{{Key: "i", Value: i}}},
		})
	}

	page1 := c.Execute(ctx, &command.Command{
		Kind:  command.KindQuery,
		Query: &command.QueryCommand{Op: command.OpFind, Collection: "pager", FindOpts: command.FindOptions{BatchSize: 2}},
	})
	if !page1.Success || !page1.Data.HasMore || page1.Data.Displayed != 2 {
		t.Fatalf("expected a first page of 2 with more remaining, got %+v", page1)
	}

	page2 := c.Execute(ctx, &command.Command{Kind: command.KindUtility, Utility: &command.UtilityCommand{Op: command.UtilityIterate}})
	if !page2.Success || !page2.Data.HasMore || page2.Data.Displayed != 2 {
		t.Fatalf("expected a second page of 2 with more remaining, got %+v", page2)
	}

	page3 := c.Execute(ctx, &command.Command{Kind: command.KindUtility, Utility: &command.UtilityCommand{Op: command.UtilityIterate}})
	if !page3.Success || page3.Data.HasMore || page3.Data.Displayed != 1 {
		t.Fatalf("expected a final page of 1 with nothing left, got %+v", page3)
	}

	seen := map[int]bool{}
	for _, page := range []command.ExecutionResult{page1, page2, page3} {
		for _, doc := range page.Data.Documents {
			for _, e := range doc {
				if e.Key == "i" {
					v, ok := e.Value.(int32)
					if !ok {
						t.Fatalf("unexpected type for field i: %T", e.Value)
					}
					seen[int(v)] = true
				}
			}
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected all 5 documents to be seen exactly once across pages, got %v", seen)
	}

	noMore := c.Execute(ctx, &command.Command{Kind: command.KindUtility, Utility: &command.UtilityCommand{Op: command.UtilityIterate}})
	if !noMore.Success || noMore.Data.Kind != command.RDMessage {
		t.Fatalf("expected a 'no cursor' message after the cursor is exhausted, got %+v", noMore)
	}
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
