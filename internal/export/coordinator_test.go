package export

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeQuery serves fixed batches then exhausts.
type fakeQuery struct {
	batches [][]bson.D
	pos     int
	closed  bool
	err     error
}

func (f *fakeQuery) NextBatch(ctx context.Context) ([]bson.D, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.pos >= len(f.batches) {
		return nil, nil
	}
	b := f.batches[f.pos]
	f.pos++
	return b, nil
}

func (f *fakeQuery) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

type fakeWriter struct {
	written    []bson.D
	finalized  bool
	finalizeN  int
	writeErr   error
}

func (f *fakeWriter) WriteBatch(docs []bson.D) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, docs...)
	return nil
}

func (f *fakeWriter) Finalize() error {
	f.finalized = true
	f.finalizeN++
	return nil
}

func (f *fakeWriter) FileSize() (int64, error) {
	return int64(len(f.written) * 10), nil
}

func TestCoordinatorDrainsAllBatches(t *testing.T) {
	q := &fakeQuery{batches: [][]bson.D{
		{{{Key: "a", Value: 1}}},
		{{{Key: "a", Value: 2}}, {{Key: "a", Value: 3}}},
	}}
	w := &fakeWriter{}
	c := New(q, w, nil)

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DocumentsExported != 3 {
		t.Fatalf("expected 3 documents exported, got %d", res.DocumentsExported)
	}
	if res.Cancelled {
		t.Fatal("did not expect cancelled=true")
	}
	if !w.finalized || w.finalizeN != 1 {
		t.Fatalf("expected finalize called exactly once, got %d", w.finalizeN)
	}
	if !q.closed {
		t.Fatal("expected the query to be closed")
	}
}

func TestCoordinatorFinalizesOnProducerError(t *testing.T) {
	q := &fakeQuery{err: errors.New("cursor exploded")}
	w := &fakeWriter{}
	c := New(q, w, nil)

	_, err := c.Run(context.Background())
	if err == nil {
		t.Fatal("expected the producer error to propagate")
	}
	if w.finalizeN != 1 {
		t.Fatalf("expected finalize called exactly once even on error, got %d", w.finalizeN)
	}
}

func TestCoordinatorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := &fakeQuery{batches: [][]bson.D{{{{Key: "a", Value: 1}}}}}
	w := &fakeWriter{}
	c := New(q, w, nil)

	res, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Cancelled {
		t.Fatal("expected cancelled=true when ctx is already done")
	}
	if w.finalizeN != 1 {
		t.Fatalf("expected finalize called exactly once, got %d", w.finalizeN)
	}
}

func TestProgressTrackerFiresEveryNBatches(t *testing.T) {
	var calls []int64
	pt := &ProgressTracker{Every: 2, Log: func(n int64) { calls = append(calls, n) }}
	pt.observe(5)
	pt.observe(5)
	pt.observe(5)
	if len(calls) != 1 || calls[0] != 10 {
		t.Fatalf("expected one progress callback at 10, got %v", calls)
	}
}
