// Package killable implements the Ctrl+C-cancellable command wrapper
// (spec.md §4.8, grounded on original_source/src/executor/killable.rs): a
// unique comment tags each server command, and cancellation races
// completion against a $currentOp + killOp lookup.
package killable

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dwoolworth/mgosh/internal/mongoerr"
)

// killTimeout bounds the best-effort $currentOp/killOp lookup so a
// cancelled operation never blocks shutdown on an unresponsive admin db.
const killTimeout = 5 * time.Second

// OperationHandle carries the unique comment attached to a server command so
// a cancellation can find and kill it (format: "mongosh-<client_id>-<uuid>").
type OperationHandle struct {
	Comment string
}

// New creates a fresh handle scoped to clientID.
func New(clientID string) OperationHandle {
	return OperationHandle{Comment: fmt.Sprintf("mongosh-%s-%s", clientID, uuid.NewString())}
}

// OpKiller locates and kills server-side operations by their comment.
type OpKiller struct {
	client *mongo.Client
}

// NewOpKiller wraps client for kill-by-comment lookups against "admin".
func NewOpKiller(client *mongo.Client) *OpKiller {
	return &OpKiller{client: client}
}

// KillByComment best-effort kills the operation tagged with handle's
// comment. It never returns a hard error: lookup or permission failures are
// swallowed because client-side cancellation of the *caller* already
// happened regardless of server-side success.
func (k *OpKiller) KillByComment(ctx context.Context, handle OperationHandle) {
	if k.client == nil {
		return
	}
	admin := k.client.Database("admin")
	pipeline := bson.A{
		bson.D{{Key: "$currentOp", Value: bson.D{{Key: "allUsers", Value: true}, {Key: "localOps", Value: true}}}},
		bson.D{{Key: "$match", Value: bson.D{{Key: "command.comment", Value: handle.Comment}}}},
	}
	cursor, err := admin.Aggregate(ctx, pipeline)
	if err != nil {
		return
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return
	}
	var opDoc bson.M
	if err := cursor.Decode(&opDoc); err != nil {
		return
	}
	opid, ok := extractOpID(opDoc)
	if !ok {
		return
	}
	_ = admin.RunCommand(ctx, bson.D{{Key: "killOp", Value: 1}, {Key: "op", Value: opid}})
}

func extractOpID(doc bson.M) (int64, bool) {
	switch v := doc["opid"].(type) {
	case int32:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// Run races execFn's completion against ctx's cancellation. On cancellation
// it best-effort kills the server-side operation via $currentOp/killOp and
// returns a mongoerr.Cancelled error; exec errors and successful results
// pass through unchanged.
func Run[T any](ctx context.Context, client *mongo.Client, clientID string, execFn func(context.Context, OperationHandle) (T, error)) (T, error) {
	handle := New(clientID)
	killer := NewOpKiller(client)

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := execFn(context.WithoutCancel(ctx), handle)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		killCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), killTimeout)
		defer cancel()
		killer.KillByComment(killCtx, handle)
		var zero T
		return zero, mongoerr.Cancelled("operation cancelled by user (Ctrl+C)")
	}
}

