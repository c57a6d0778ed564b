package query

import (
	"context"
	"fmt"
	"os"
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

	dbName := fmt.Sprintf("mgosh_query_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)

	cleanup := func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	}
	return ctx, db, cleanup
}

func TestInsertOneAndFind(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	ex := New(db, "test-client", session.New("mgosh_query_test"))

	insert := &command.QueryCommand{
		Op:         command.OpInsertOne,
		Collection: "widgets",
		Document:   bson.D{{Key: "name", Value: "sprocket"}, {Key: "qty", Value: int32(4)}},
	}
	res := ex.Run(ctx, insert)
	if !res.Success {
		t.Fatalf("insert failed: %s", res.Err)
	}
	if res.Data.InsertedID == nil {
		t.Fatal("expected an inserted id")
	}

	find := &command.QueryCommand{
		Op:         command.OpFind,
		Collection: "widgets",
		Filter:     bson.D{{Key: "name", Value: "sprocket"}},
	}
	res = ex.Run(ctx, find)
	if !res.Success {
		t.Fatalf("find failed: %s", res.Err)
	}
	if res.Data.Kind != command.RDDocumentsWithPagination {
		t.Fatalf("expected paginated documents, got kind %v", res.Data.Kind)
	}
	if len(res.Data.Documents) != 1 {
		t.Fatalf("expected 1 document, got %d", len(res.Data.Documents))
	}
	if res.Data.HasMore {
		t.Fatal("did not expect HasMore for a single match")
	}
}

func TestUpdateOneReportsMatchedAndModified(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	ex := New(db, "test-client", session.New("mgosh_query_test"))
	ex.Run(ctx, &command.QueryCommand{
		Op:         command.OpInsertOne,
		Collection: "widgets",
		Document:   bson.D{{Key: "name", Value: "gear"}, {Key: "qty", Value: int32(1)}},
	})

	update := &command.QueryCommand{
		Op:         command.OpUpdateOne,
		Collection: "widgets",
		Filter:     bson.D{{Key: "name", Value: "gear"}},
		Update:     bson.D{{Key: "$set", Value: bson.D{{Key: "qty", Value: int32(2)}}}},
	}
	res := ex.Run(ctx, update)
	if !res.Success {
		t.Fatalf("update failed: %s", res.Err)
	}
	if res.Data.Matched != 1 || res.Data.Modified != 1 {
		t.Fatalf("expected matched=1 modified=1, got matched=%d modified=%d", res.Data.Matched, res.Data.Modified)
	}
}

func TestDeleteOneReportsDeletedCount(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	ex := New(db, "test-client", session.New("mgosh_query_test"))
	ex.Run(ctx, &command.QueryCommand{
		Op:         command.OpInsertOne,
		Collection: "widgets",
		Document:   bson.D{{Key: "name", Value: "bolt"}},
	})

	res := ex.Run(ctx, &command.QueryCommand{
		Op:         command.OpDeleteOne,
		Collection: "widgets",
		Filter:     bson.D{{Key: "name", Value: "bolt"}},
	})
	if !res.Success {
		t.Fatalf("delete failed: %s", res.Err)
	}
	if res.Data.Deleted != 1 {
		t.Fatalf("expected deleted=1, got %d", res.Data.Deleted)
	}
}

func TestFindReportsHasMoreBeyondBatchSize(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	ex := New(db, "test-client", session.New("mgosh_query_test"))
	for i := 0; i < 5; i++ {
		ex.Run(ctx, &command.QueryCommand{
			Op:         command.OpInsertOne,
			Collection: "pager",
			Document:   bson.D{{Key: "i", Value: int32(i)}},
		})
	}

	res := ex.Run(ctx, &command.QueryCommand{
		Op:         command.OpFind,
		Collection: "pager",
		FindOpts:   command.FindOptions{BatchSize: 3},
	})
	if !res.Success {
		t.Fatalf("find failed: %s", res.Err)
	}
	if !res.Data.HasMore {
		t.Fatal("expected HasMore with 5 documents and batchSize 3")
	}
	if res.Data.Displayed != 3 {
		t.Fatalf("expected displayed=3, got %d", res.Data.Displayed)
	}
}

func TestCountDocumentsAndDistinct(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	ex := New(db, "test-client", session.New("mgosh_query_test"))
	ex.Run(ctx, &command.QueryCommand{Op: command.OpInsertOne, Collection: "colors", Document: bson.D{{Key: "c", Value: "red"}}})
	ex.Run(ctx, &command.QueryCommand{Op: command.OpInsertOne, Collection: "colors", Document: bson.D{{Key: "c", Value: "red"}}})
	ex.Run(ctx, &command.QueryCommand{Op: command.OpInsertOne, Collection: "colors", Document: bson.D{{Key: "c", Value: "blue"}}})

	count := ex.Run(ctx, &command.QueryCommand{Op: command.OpCountDocuments, Collection: "colors"})
	if !count.Success || count.Data.Count != 3 {
		t.Fatalf("expected count=3, got %+v", count)
	}

	distinct := ex.Run(ctx, &command.QueryCommand{Op: command.OpDistinct, Collection: "colors", Field: "c"})
	if !distinct.Success {
		t.Fatalf("distinct failed: %s", distinct.Err)
	}
	if len(distinct.Data.List) != 2 {
		t.Fatalf("expected 2 distinct values, got %d", len(distinct.Data.List))
	}
}

func TestExplainWrapsFind(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	ex := New(db, "test-client", session.New("mgosh_query_test"))
	inner := &command.QueryCommand{Op: command.OpFind, Collection: "widgets"}
	explainCmd, err := command.NewExplain(inner, command.QueryPlanner)
	if err != nil {
		t.Fatalf("unexpected error building explain command: %v", err)
	}
	res := ex.Run(ctx, explainCmd)
	if !res.Success {
		t.Fatalf("explain failed: %s", res.Err)
	}
	if res.Data.Kind != command.RDDocument || len(res.Data.Document) == 0 {
		t.Fatal("expected a non-empty explain document")
	}
}

func TestBulkWriteInsertsAndUpdates(t *testing.T) {
	ctx, db, cleanup := setupTestDB(t)
	defer cleanup()

	ex := New(db, "test-client", session.New("mgosh_query_test"))
	ex.Run(ctx, &command.QueryCommand{
		Op:         command.OpInsertOne,
		Collection: "bulked",
		Document:   bson.D{{Key: "k", Value: "a"}, {Key: "v", Value: int32(1)}},
	})

	res := ex.Run(ctx, &command.QueryCommand{
		Op:         command.OpBulkWrite,
		Collection: "bulked",
		Ordered:    true,
		BulkOps: []bson.D{
			{{Key: "insertOne", Value: bson.D{{Key: "document", Value: bson.D{{Key: "k", Value: "b"}, {Key: "v", Value: int32(2)}}}}}},
			{{Key: "updateOne", Value: bson.D{
				{Key: "filter", Value: bson.D{{Key: "k", Value: "a"}}},
				{Key: "update", Value: bson.D{{Key: "$set", Value: bson.D{{Key: "v", Value: int32(9)}}}}},
			}}},
		},
	})
	if !res.Success {
		t.Fatalf("bulk write failed: %s", res.Err)
	}
}
