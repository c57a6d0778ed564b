package export

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

// Coordinator drives one Query through one Writer, reporting progress via
// Progress (spec.md §4.9 "ExportCoordinator"). The producer (cursor reads)
// and consumer (writer) run as a bounded pipeline of exactly one producer
// and one consumer goroutine, joined by an unbuffered channel so the writer
// never runs ahead of the cursor (spec.md §5 "Ordering").
type Coordinator struct {
	Query    Query
	Writer   Writer
	Progress *ProgressTracker
}

// New returns a Coordinator with a default (silent) progress tracker if
// progress is nil.
func New(query Query, writer Writer, progress *ProgressTracker) *Coordinator {
	if progress == nil {
		progress = &ProgressTracker{}
	}
	return &Coordinator{Query: query, Writer: writer, Progress: progress}
}

// Run drains the query into the writer until exhaustion or cancellation,
// finalizing exactly once on every exit path.
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	start := nowFn()
	cancelled := false
	defer func() {
		_ = c.Query.Close(context.WithoutCancel(ctx))
	}()

	batches := make(chan []bson.D)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(batches)
		for {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			docs, err := c.Query.NextBatch(gctx)
			if err != nil {
				return err
			}
			if docs == nil {
				return nil
			}
			select {
			case batches <- docs:
			case <-gctx.Done():
				return nil
			}
		}
	})

	var exported int64
	g.Go(func() error {
		for docs := range batches {
			if err := c.Writer.WriteBatch(docs); err != nil {
				return err
			}
			exported += int64(len(docs))
			c.Progress.observe(len(docs))
		}
		return nil
	})

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		cancelled = true
	}

	// finalize runs on every exit path, including cancellation and a
	// producer/consumer error, per spec.md §4.9.
	finalizeErr := c.Writer.Finalize()

	size, _ := c.Writer.FileSize()
	result := Result{
		DocumentsExported: exported,
		FileSizeBytes:     size,
		ElapsedMS:         nowFn().Sub(start).Milliseconds(),
		Cancelled:         cancelled,
	}
	if err != nil {
		return result, err
	}
	return result, finalizeErr
}

// nowFn is overridden in tests to keep elapsed-time assertions deterministic.
var nowFn = defaultNow
