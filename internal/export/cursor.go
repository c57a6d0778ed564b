package export

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CursorQuery adapts a live *mongo.Cursor into the Query interface, reading
// BatchSize documents per call (spec.md §4.9).
type CursorQuery struct {
	Cursor    *mongo.Cursor
	BatchSize int
}

// NewCursorQuery wraps cur, defaulting batchSize to the documented 20 when
// unset.
func NewCursorQuery(cur *mongo.Cursor, batchSize int) *CursorQuery {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &CursorQuery{Cursor: cur, BatchSize: batchSize}
}

// NextBatch reads up to BatchSize documents, returning (nil, nil) once the
// cursor is exhausted.
func (q *CursorQuery) NextBatch(ctx context.Context) ([]bson.D, error) {
	docs := make([]bson.D, 0, q.BatchSize)
	for len(docs) < q.BatchSize && q.Cursor.Next(ctx) {
		var doc bson.D
		if err := q.Cursor.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := q.Cursor.Err(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs, nil
}

// Close releases the underlying server-side cursor.
func (q *CursorQuery) Close(ctx context.Context) error {
	return q.Cursor.Close(ctx)
}
