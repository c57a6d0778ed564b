// Package query implements the executors for every QueryCommand variant
// (spec.md §4.6 "Query executor"), each wrapped by the killable-command
// pattern so a user's Ctrl+C reaches the server.
package query

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mgosh/internal/command"
	"github.com/dwoolworth/mgosh/internal/exec/killable"
	"github.com/dwoolworth/mgosh/internal/mongoerr"
	"github.com/dwoolworth/mgosh/internal/session"
)

// Executor runs QueryCommands against one live database.
type Executor struct {
	DB       *mongo.Database
	ClientID string
	State    *session.SharedState
}

// New returns an Executor bound to db, tagging every command it issues with
// clientID (spec.md §4.8 "mongosh-<client_id>-<uuid>") and sharing state
// with the session's "it"/iterate builtin.
func New(db *mongo.Database, clientID string, state *session.SharedState) *Executor {
	return &Executor{DB: db, ClientID: clientID, State: state}
}

// Run dispatches q to the matching driver call and returns the uniform
// ExecutionResult described in spec.md §3.
func (ex *Executor) Run(ctx context.Context, q *command.QueryCommand) command.ExecutionResult {
	start := command.Now()
	data, affected, err := ex.dispatch(ctx, q)
	elapsed := command.Now().Sub(start)

	if err != nil {
		return command.ExecutionResult{
			Success: false,
			Err:     mongoerr.FormatDatabaseError(err),
			Stats:   command.Stats{ExecutionTimeMS: elapsed.Milliseconds()},
		}
	}
	stats := command.Stats{ExecutionTimeMS: elapsed.Milliseconds()}
	if affected != nil {
		stats.DocumentsAffected = affected
	}
	if data.Kind == command.RDDocuments || data.Kind == command.RDDocumentsWithPagination {
		stats.DocumentsReturned = int64(len(data.Documents))
	}
	return command.ExecutionResult{Success: true, Data: data, Stats: stats}
}

func (ex *Executor) dispatch(ctx context.Context, q *command.QueryCommand) (command.ResultData, *int64, error) {
	coll := ex.DB.Collection(q.Collection)

	switch q.Op {
	case command.OpFind:
		return ex.find(ctx, coll, q)
	case command.OpFindOne:
		return ex.findOne(ctx, coll, q)
	case command.OpInsertOne:
		return ex.insertOne(ctx, coll, q)
	case command.OpInsertMany:
		return ex.insertMany(ctx, coll, q)
	case command.OpUpdateOne:
		return ex.update(ctx, coll, q, false)
	case command.OpUpdateMany:
		return ex.update(ctx, coll, q, true)
	case command.OpReplaceOne:
		return ex.replaceOne(ctx, coll, q)
	case command.OpDeleteOne:
		return ex.delete(ctx, coll, q, false)
	case command.OpDeleteMany:
		return ex.delete(ctx, coll, q, true)
	case command.OpAggregate:
		return ex.aggregate(ctx, coll, q)
	case command.OpCountDocuments:
		return ex.countDocuments(ctx, coll, q)
	case command.OpEstimatedDocumentCount:
		return ex.estimatedDocumentCount(ctx, coll)
	case command.OpDistinct:
		return ex.distinct(ctx, coll, q)
	case command.OpFindOneAndDelete:
		return ex.findOneAndDelete(ctx, coll, q)
	case command.OpFindOneAndUpdate:
		return ex.findOneAndUpdate(ctx, coll, q)
	case command.OpFindOneAndReplace:
		return ex.findOneAndReplace(ctx, coll, q)
	case command.OpBulkWrite:
		return ex.bulkWrite(ctx, coll, q)
	case command.OpExplain:
		return ex.explain(ctx, q)
	default:
		return command.ResultData{}, nil, fmt.Errorf("unsupported query operation")
	}
}

func (ex *Executor) killableRun(ctx context.Context, fn func(context.Context, killable.OperationHandle) (command.ResultData, error)) (command.ResultData, error) {
	return killable.Run(ctx, ex.DB.Client(), ex.ClientID, fn)
}

// OpenCursor establishes a live server-side cursor for Find or Aggregate and
// hands it back unmaterialized, for the streaming export pipeline (spec.md
// §4.9) rather than the paginated Run path. Establishing the cursor is
// itself killable; the caller owns cancellation of subsequent reads.
func (ex *Executor) OpenCursor(ctx context.Context, q *command.QueryCommand) (*mongo.Cursor, error) {
	coll := ex.DB.Collection(q.Collection)
	return killable.Run(ctx, ex.DB.Client(), ex.ClientID, func(ctx context.Context, h killable.OperationHandle) (*mongo.Cursor, error) {
		switch q.Op {
		case command.OpFind:
			opts := options.Find().SetComment(h.Comment)
			if len(q.FindOpts.Sort) > 0 {
				opts.SetSort(q.FindOpts.Sort)
			}
			if len(q.FindOpts.Projection) > 0 {
				opts.SetProjection(q.FindOpts.Projection)
			}
			if q.FindOpts.Limit != nil {
				opts.SetLimit(*q.FindOpts.Limit)
			}
			if q.FindOpts.Skip != nil {
				opts.SetSkip(*q.FindOpts.Skip)
			}
			return coll.Find(ctx, orEmpty(q.Filter), opts)
		case command.OpAggregate:
			opts := options.Aggregate().SetComment(h.Comment).SetAllowDiskUse(q.AggregateOpts.AllowDiskUse)
			return coll.Aggregate(ctx, orEmptyPipeline(q.Pipeline), opts)
		default:
			return nil, fmt.Errorf("export only supports find and aggregate sources")
		}
	})
}

func (ex *Executor) find(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	batchSize := q.FindOpts.BatchSize
	if batchSize <= 0 {
		batchSize = command.DefaultQueryMode().BatchSize
	}

	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.Find().SetComment(h.Comment)
		if q.FindOpts.Limit != nil {
			opts.SetLimit(*q.FindOpts.Limit)
		}
		if len(q.FindOpts.Sort) > 0 {
			opts.SetSort(q.FindOpts.Sort)
		}
		if len(q.FindOpts.Projection) > 0 {
			opts.SetProjection(q.FindOpts.Projection)
		}
		if q.FindOpts.Skip != nil {
			opts.SetSkip(*q.FindOpts.Skip)
		}
		if len(q.FindOpts.Collation) > 0 {
			opts.SetCollation(docToCollation(q.FindOpts.Collation))
		}
		if q.FindOpts.Hint != nil {
			opts.SetHint(q.FindOpts.Hint)
		}
		cur, err := coll.Find(ctx, orEmpty(q.Filter), opts)
		if err != nil {
			return command.ResultData{}, err
		}

		displayLimit := int(batchSize)
		if q.FindOpts.Limit != nil && int(*q.FindOpts.Limit) < displayLimit {
			displayLimit = int(*q.FindOpts.Limit)
		}
		docs, pending, err := fetchPage(ctx, cur, nil, displayLimit)
		if err != nil {
			cur.Close(ctx)
			return command.ResultData{}, err
		}
		ex.stashOrClose(ctx, q.Collection, cur, batchSize, len(docs), pending)
		return command.ResultData{
			Kind:      command.RDDocumentsWithPagination,
			Documents: docs,
			HasMore:   pending != nil,
			Displayed: len(docs),
		}, nil
	})
	return data, nil, err
}

// fetchPage yields up to displayLimit documents from cur, first returning
// any already-buffered pending document (left over from a prior page's
// "is there more" probe), then reads one additional document past
// displayLimit to answer that same question for the page being built,
// returning it as the new pending document rather than decoding it into
// docs (spec.md §8 "pagination accounting").
func fetchPage(ctx context.Context, cur *mongo.Cursor, carry *bson.D, displayLimit int) (docs []bson.D, pending *bson.D, err error) {
	docs = make([]bson.D, 0, displayLimit)
	if carry != nil {
		docs = append(docs, *carry)
	}
	for len(docs) < displayLimit && cur.Next(ctx) {
		var doc bson.D
		if err := cur.Decode(&doc); err != nil {
			return nil, nil, err
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, nil, err
	}
	if len(docs) == displayLimit && cur.Next(ctx) {
		var extra bson.D
		if err := cur.Decode(&extra); err != nil {
			return nil, nil, err
		}
		pending = &extra
	} else if err := cur.Err(); err != nil {
		return nil, nil, err
	}
	return docs, pending, nil
}

// stashOrClose keeps cur open and installs it as the session's live cursor
// when more documents remain (pending != nil), or closes it and clears any
// prior cursor otherwise. With no session attached (an Executor built with
// a nil State), the cursor is always closed since nothing can ever advance
// it via "it".
func (ex *Executor) stashOrClose(ctx context.Context, collection string, cur *mongo.Cursor, batchSize int32, displayed int, pending *bson.D) {
	if pending != nil && ex.State != nil {
		ex.State.SetCursor(&session.CursorState{
			Collection: collection,
			Cursor:     cur,
			BatchSize:  batchSize,
			Displayed:  displayed,
			Pending:    pending,
		})
		return
	}
	cur.Close(ctx)
	if ex.State != nil {
		ex.State.ClearCursor()
	}
}

func (ex *Executor) findOne(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.FindOne().SetComment(h.Comment)
		if len(q.FindOpts.Sort) > 0 {
			opts.SetSort(q.FindOpts.Sort)
		}
		if len(q.FindOpts.Projection) > 0 {
			opts.SetProjection(q.FindOpts.Projection)
		}
		var doc bson.D
		err := coll.FindOne(ctx, orEmpty(q.Filter), opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return command.ResultData{Kind: command.RDDocument}, nil
		}
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDDocument, Document: doc}, nil
	})
	return data, nil, err
}

func (ex *Executor) insertOne(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	var affected int64 = 1
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		res, err := coll.InsertOne(ctx, q.Document, options.InsertOne().SetComment(h.Comment))
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDInsertOne, InsertedID: res.InsertedID}, nil
	})
	return data, &affected, err
}

func (ex *Executor) insertMany(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	docs := make([]any, len(q.Documents))
	for i, d := range q.Documents {
		docs[i] = d
	}
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		res, err := coll.InsertMany(ctx, docs, options.InsertMany().SetComment(h.Comment))
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDInsertMany, InsertedIDs: res.InsertedIDs}, nil
	})
	var affected *int64
	if err == nil {
		n := int64(len(data.InsertedIDs))
		affected = &n
	}
	return data, affected, err
}

func (ex *Executor) update(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand, many bool) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.Update().SetComment(h.Comment).SetUpsert(q.UpdateOpts.Upsert)
		if len(q.UpdateOpts.ArrayFilters) > 0 {
			filters := make([]any, len(q.UpdateOpts.ArrayFilters))
			for i, f := range q.UpdateOpts.ArrayFilters {
				filters[i] = f
			}
			opts.SetArrayFilters(filters)
		}
		var res *mongo.UpdateResult
		var err error
		if many {
			res, err = coll.UpdateMany(ctx, orEmpty(q.Filter), q.Update, opts)
		} else {
			res, err = coll.UpdateOne(ctx, orEmpty(q.Filter), q.Update, opts)
		}
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDUpdate, Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
	})
	var affected *int64
	if err == nil {
		n := data.Modified
		affected = &n
	}
	return data, affected, err
}

func (ex *Executor) replaceOne(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.Replace().SetComment(h.Comment).SetUpsert(q.UpdateOpts.Upsert)
		res, err := coll.ReplaceOne(ctx, orEmpty(q.Filter), q.Replacement, opts)
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDUpdate, Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
	})
	var affected *int64
	if err == nil {
		n := data.Modified
		affected = &n
	}
	return data, affected, err
}

func (ex *Executor) delete(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand, many bool) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.Delete().SetComment(h.Comment)
		var res *mongo.DeleteResult
		var err error
		if many {
			res, err = coll.DeleteMany(ctx, orEmpty(q.Filter), opts)
		} else {
			res, err = coll.DeleteOne(ctx, orEmpty(q.Filter), opts)
		}
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDDelete, Deleted: res.DeletedCount}, nil
	})
	var affected *int64
	if err == nil {
		n := data.Deleted
		affected = &n
	}
	return data, affected, err
}

func (ex *Executor) aggregate(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	batchSize := q.AggregateOpts.BatchSize
	if batchSize <= 0 {
		batchSize = command.DefaultQueryMode().BatchSize
	}
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.Aggregate().SetComment(h.Comment).SetAllowDiskUse(q.AggregateOpts.AllowDiskUse)
		if len(q.AggregateOpts.Collation) > 0 {
			opts.SetCollation(docToCollation(q.AggregateOpts.Collation))
		}
		if q.AggregateOpts.Hint != nil {
			opts.SetHint(q.AggregateOpts.Hint)
		}
		if len(q.AggregateOpts.LetVars) > 0 {
			opts.SetLet(q.AggregateOpts.LetVars)
		}
		cur, err := coll.Aggregate(ctx, orEmptyPipeline(q.Pipeline), opts)
		if err != nil {
			return command.ResultData{}, err
		}
		displayLimit := int(batchSize)
		docs, pending, err := fetchPage(ctx, cur, nil, displayLimit)
		if err != nil {
			cur.Close(ctx)
			return command.ResultData{}, err
		}
		ex.stashOrClose(ctx, q.Collection, cur, batchSize, len(docs), pending)
		return command.ResultData{
			Kind:      command.RDDocumentsWithPagination,
			Documents: docs,
			HasMore:   pending != nil,
			Displayed: len(docs),
		}, nil
	})
	return data, nil, err
}

func (ex *Executor) countDocuments(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		n, err := coll.CountDocuments(ctx, orEmpty(q.Filter), options.Count().SetComment(h.Comment))
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDCount, Count: n}, nil
	})
	return data, nil, err
}

func (ex *Executor) estimatedDocumentCount(ctx context.Context, coll *mongo.Collection) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		n, err := coll.EstimatedDocumentCount(ctx, options.EstimatedDocumentCount().SetComment(h.Comment))
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDCount, Count: n}, nil
	})
	return data, nil, err
}

func (ex *Executor) distinct(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		res, err := coll.Distinct(ctx, q.Field, orEmpty(q.Filter), options.Distinct().SetComment(h.Comment))
		if err != nil {
			return command.ResultData{}, err
		}
		var values []any
		if err := res.Decode(&values); err != nil {
			return command.ResultData{}, err
		}
		list := make([]string, len(values))
		for i, v := range values {
			list[i] = fmt.Sprintf("%v", v)
		}
		return command.ResultData{Kind: command.RDList, List: list}, nil
	})
	return data, nil, err
}

func (ex *Executor) findOneAndDelete(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.FindOneAndDelete().SetComment(h.Comment)
		if len(q.FindModOpts.Sort) > 0 {
			opts.SetSort(q.FindModOpts.Sort)
		}
		if len(q.FindModOpts.Projection) > 0 {
			opts.SetProjection(q.FindModOpts.Projection)
		}
		var doc bson.D
		err := coll.FindOneAndDelete(ctx, orEmpty(q.Filter), opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return command.ResultData{Kind: command.RDDocument}, nil
		}
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDDocument, Document: doc}, nil
	})
	return data, nil, err
}

func (ex *Executor) findOneAndUpdate(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.FindOneAndUpdate().SetComment(h.Comment).SetUpsert(q.FindModOpts.Upsert)
		if q.FindModOpts.ReturnNew {
			opts.SetReturnDocument(options.After)
		}
		if len(q.FindModOpts.Sort) > 0 {
			opts.SetSort(q.FindModOpts.Sort)
		}
		if len(q.FindModOpts.Projection) > 0 {
			opts.SetProjection(q.FindModOpts.Projection)
		}
		var doc bson.D
		err := coll.FindOneAndUpdate(ctx, orEmpty(q.Filter), q.Update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return command.ResultData{Kind: command.RDDocument}, nil
		}
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDDocument, Document: doc}, nil
	})
	return data, nil, err
}

func (ex *Executor) findOneAndReplace(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		opts := options.FindOneAndReplace().SetComment(h.Comment).SetUpsert(q.FindModOpts.Upsert)
		if q.FindModOpts.ReturnNew {
			opts.SetReturnDocument(options.After)
		}
		var doc bson.D
		err := coll.FindOneAndReplace(ctx, orEmpty(q.Filter), q.Replacement, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return command.ResultData{Kind: command.RDDocument}, nil
		}
		if err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDDocument, Document: doc}, nil
	})
	return data, nil, err
}

func (ex *Executor) bulkWrite(ctx context.Context, coll *mongo.Collection, q *command.QueryCommand) (command.ResultData, *int64, error) {
	models := make([]mongo.WriteModel, 0, len(q.BulkOps))
	for _, op := range q.BulkOps {
		model, err := decodeBulkModel(op)
		if err != nil {
			return command.ResultData{}, nil, err
		}
		models = append(models, model)
	}
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		res, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(q.Ordered).SetComment(h.Comment))
		if err != nil {
			return command.ResultData{}, err
		}
		matched := res.MatchedCount + res.UpsertedCount
		modified := res.ModifiedCount
		return command.ResultData{Kind: command.RDUpdate, Matched: matched, Modified: modified}, nil
	})
	var affected *int64
	if err == nil {
		n := data.Modified
		affected = &n
	}
	return data, affected, err
}

func decodeBulkModel(op bson.D) (mongo.WriteModel, error) {
	if len(op) != 1 {
		return nil, fmt.Errorf("bulk write operation must have exactly one key (insertOne/updateOne/updateMany/replaceOne/deleteOne/deleteMany)")
	}
	kind := op[0].Key
	spec, ok := op[0].Value.(bson.D)
	if !ok {
		return nil, fmt.Errorf("bulk write operation %q must be an object", kind)
	}
	get := func(key string) (bson.D, bool) {
		for _, e := range spec {
			if e.Key == key {
				d, ok := e.Value.(bson.D)
				return d, ok
			}
		}
		return nil, false
	}
	switch kind {
	case "insertOne":
		doc, _ := get("document")
		return mongo.NewInsertOneModel().SetDocument(doc), nil
	case "updateOne", "updateMany":
		filter, _ := get("filter")
		update, _ := get("update")
		if kind == "updateOne" {
			return mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update), nil
		}
		return mongo.NewUpdateManyModel().SetFilter(filter).SetUpdate(update), nil
	case "replaceOne":
		filter, _ := get("filter")
		repl, _ := get("replacement")
		return mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(repl), nil
	case "deleteOne":
		filter, _ := get("filter")
		return mongo.NewDeleteOneModel().SetFilter(filter), nil
	case "deleteMany":
		filter, _ := get("filter")
		return mongo.NewDeleteManyModel().SetFilter(filter), nil
	default:
		return nil, fmt.Errorf("unknown bulk write operation %q", kind)
	}
}

func (ex *Executor) explain(ctx context.Context, q *command.QueryCommand) (command.ResultData, *int64, error) {
	inner, err := buildRawCommand(q.Inner)
	if err != nil {
		return command.ResultData{}, nil, err
	}
	explainCmd := bson.D{
		{Key: "explain", Value: inner},
		{Key: "verbosity", Value: q.Verbosity.String()},
	}
	data, err := ex.killableRun(ctx, func(ctx context.Context, h killable.OperationHandle) (command.ResultData, error) {
		var doc bson.D
		if err := ex.DB.RunCommand(ctx, explainCmd).Decode(&doc); err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDDocument, Document: doc}, nil
	})
	return data, nil, err
}

// buildRawCommand renders the underlying server command for the query ops
// that support Explain (spec.md §3 "SupportsExplain").
func buildRawCommand(q *command.QueryCommand) (bson.D, error) {
	switch q.Op {
	case command.OpFind, command.OpFindOne:
		cmd := bson.D{{Key: "find", Value: q.Collection}, {Key: "filter", Value: orEmpty(q.Filter)}}
		if len(q.FindOpts.Sort) > 0 {
			cmd = append(cmd, bson.E{Key: "sort", Value: q.FindOpts.Sort})
		}
		if len(q.FindOpts.Projection) > 0 {
			cmd = append(cmd, bson.E{Key: "projection", Value: q.FindOpts.Projection})
		}
		if q.FindOpts.Limit != nil {
			cmd = append(cmd, bson.E{Key: "limit", Value: *q.FindOpts.Limit})
		}
		if q.FindOpts.Skip != nil {
			cmd = append(cmd, bson.E{Key: "skip", Value: *q.FindOpts.Skip})
		}
		return cmd, nil
	case command.OpAggregate:
		return bson.D{
			{Key: "aggregate", Value: q.Collection},
			{Key: "pipeline", Value: orEmptyPipeline(q.Pipeline)},
			{Key: "cursor", Value: bson.D{}},
		}, nil
	case command.OpCountDocuments:
		return bson.D{{Key: "count", Value: q.Collection}, {Key: "query", Value: orEmpty(q.Filter)}}, nil
	case command.OpDistinct:
		return bson.D{{Key: "distinct", Value: q.Collection}, {Key: "key", Value: q.Field}, {Key: "query", Value: orEmpty(q.Filter)}}, nil
	default:
		return nil, fmt.Errorf("explain is not supported for this operation")
	}
}

func orEmpty(d bson.D) bson.D {
	if d == nil {
		return bson.D{}
	}
	return d
}

func orEmptyPipeline(p []bson.D) []bson.D {
	if p == nil {
		return []bson.D{}
	}
	return p
}

func docToCollation(d bson.D) *options.Collation {
	c := &options.Collation{}
	for _, e := range d {
		switch e.Key {
		case "locale":
			if s, ok := e.Value.(string); ok {
				c.Locale = s
			}
		case "strength":
			if n, ok := toInt(e.Value); ok {
				c.Strength = n
			}
		case "caseLevel":
			if b, ok := e.Value.(bool); ok {
				c.CaseLevel = b
			}
		}
	}
	return c
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
