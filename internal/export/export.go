// Package export implements the streaming export pipeline (spec.md §4.9):
// one query source composed with one format writer and a progress tracker.
package export

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func defaultNow() time.Time { return time.Now() }

// Query is the producer side of the pipeline — a cursor-backed document
// source (spec.md §9 "StreamingQuery" trait-object handle).
type Query interface {
	// NextBatch returns the next batch of documents, or (nil, nil) when the
	// source is exhausted.
	NextBatch(ctx context.Context) ([]bson.D, error)
	Close(ctx context.Context) error
}

// Writer is the consumer side of the pipeline — a format-specific sink
// (spec.md §9 "FormatWriter" trait-object handle).
type Writer interface {
	WriteBatch(docs []bson.D) error
	// Finalize flushes any buffered output. Called exactly once on every
	// exit path, including cancellation (spec.md §4.9).
	Finalize() error
	FileSize() (int64, error)
}

// Result is the coordinator's uniform report (spec.md §4.9).
type Result struct {
	DocumentsExported int64
	FileSizeBytes     int64
	ElapsedMS         int64
	Cancelled         bool
}

// ProgressTracker logs a progress line every N batches.
type ProgressTracker struct {
	Every int
	Log   func(documentsExported int64)

	batches int
	docs    int64
}

func (p *ProgressTracker) observe(n int) {
	p.docs += int64(n)
	p.batches++
	if p.Log != nil && p.Every > 0 && p.batches%p.Every == 0 {
		p.Log(p.docs)
	}
}
