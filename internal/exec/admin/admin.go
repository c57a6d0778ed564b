// Package admin implements AdminExecutor and UtilityExecutor (spec.md
// §4.7): show/use/create/drop/index/stats commands and the Print/Iterate
// builtins, each a thin wrapper around one driver call.
package admin

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dwoolworth/mgosh/internal/command"
	"github.com/dwoolworth/mgosh/internal/mongoerr"
	"github.com/dwoolworth/mgosh/internal/session"
)

// Executor runs AdminCommands and UtilityCommands against one client.
type Executor struct {
	Client *mongo.Client
	State  *session.SharedState
}

// New returns an Executor bound to client, updating state on "use database".
func New(client *mongo.Client, state *session.SharedState) *Executor {
	return &Executor{Client: client, State: state}
}

func (ex *Executor) database() *mongo.Database {
	return ex.Client.Database(ex.State.Database())
}

// Run dispatches a.Op to the matching driver call.
func (ex *Executor) Run(ctx context.Context, a *command.AdminCommand) command.ExecutionResult {
	start := command.Now()
	data, err := ex.dispatch(ctx, a)
	elapsed := command.Now().Sub(start)
	stats := command.Stats{ExecutionTimeMS: elapsed.Milliseconds()}
	if err != nil {
		return command.ExecutionResult{Success: false, Err: mongoerr.FormatDatabaseError(err), Stats: stats}
	}
	return command.ExecutionResult{Success: true, Data: data, Stats: stats}
}

func (ex *Executor) dispatch(ctx context.Context, a *command.AdminCommand) (command.ResultData, error) {
	switch a.Op {
	case command.AdminShowDatabases:
		return ex.showDatabases(ctx)
	case command.AdminShowCollections:
		return ex.showCollections(ctx)
	case command.AdminShowUsers:
		return ex.runListCommand(ctx, bson.D{{Key: "usersInfo", Value: 1}}, "users")
	case command.AdminShowRoles:
		return ex.runListCommand(ctx, bson.D{{Key: "rolesInfo", Value: 1}}, "roles")
	case command.AdminShowProfile:
		return ex.showProfile(ctx)
	case command.AdminShowLogs:
		return ex.showLogs(ctx, a.LogType)
	case command.AdminUseDatabase:
		ex.State.SetDatabase(a.DatabaseName)
		return command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("switched to db %s", a.DatabaseName)}, nil
	case command.AdminCreateCollection:
		if err := ex.database().CreateCollection(ctx, a.Collection); err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("collection %q created", a.Collection)}, nil
	case command.AdminDropCollection:
		if err := ex.database().Collection(a.Collection).Drop(ctx); err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("collection %q dropped", a.Collection)}, nil
	case command.AdminDropDatabase:
		if err := ex.database().Drop(ctx); err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("database %q dropped", ex.State.Database())}, nil
	case command.AdminCreateIndex:
		return ex.createIndex(ctx, a)
	case command.AdminCreateIndexes:
		return ex.createIndexes(ctx, a)
	case command.AdminListIndexes:
		return ex.listIndexes(ctx, a)
	case command.AdminDropIndex:
		coll := ex.database().Collection(a.Collection)
		if err := coll.Indexes().DropOne(ctx, a.IndexName); err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("index %q dropped", a.IndexName)}, nil
	case command.AdminDropIndexes:
		return ex.dropIndexes(ctx, a)
	case command.AdminRenameCollection:
		return ex.renameCollection(ctx, a)
	case command.AdminCollectionStats:
		return ex.collStats(ctx, a)
	case command.AdminDatabaseStats:
		return ex.dbStats(ctx, a)
	default:
		return command.ResultData{}, fmt.Errorf("unsupported admin operation")
	}
}

func (ex *Executor) showDatabases(ctx context.Context) (command.ResultData, error) {
	names, err := ex.Client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDList, List: names}, nil
}

func (ex *Executor) showCollections(ctx context.Context) (command.ResultData, error) {
	names, err := ex.database().ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDList, List: names}, nil
}

// runListCommand issues a simple admin command and renders the response's
// array field (named field) as an RDList of JSON-rendered entries.
func (ex *Executor) runListCommand(ctx context.Context, cmd bson.D, field string) (command.ResultData, error) {
	var doc bson.M
	if err := ex.database().RunCommand(ctx, cmd).Decode(&doc); err != nil {
		return command.ResultData{}, err
	}
	items, _ := doc[field].(bson.A)
	list := make([]string, 0, len(items))
	for _, it := range items {
		if m, ok := it.(bson.D); ok {
			list = append(list, nameOf(m))
			continue
		}
		list = append(list, fmt.Sprintf("%v", it))
	}
	return command.ResultData{Kind: command.RDList, List: list}, nil
}

func nameOf(d bson.D) string {
	for _, e := range d {
		if e.Key == "user" || e.Key == "role" || e.Key == "name" {
			if s, ok := e.Value.(string); ok {
				return s
			}
		}
	}
	return fmt.Sprintf("%v", d)
}

func (ex *Executor) showProfile(ctx context.Context) (command.ResultData, error) {
	coll := ex.database().Collection("system.profile")
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "ts", Value: -1}}).SetLimit(20))
	if err != nil {
		return command.ResultData{}, err
	}
	defer cur.Close(ctx)
	var docs []bson.D
	if err := cur.All(ctx, &docs); err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDDocuments, Documents: docs}, nil
}

func (ex *Executor) showLogs(ctx context.Context, logType string) (command.ResultData, error) {
	if logType == "" {
		logType = "global"
	}
	var doc bson.M
	cmd := bson.D{{Key: "getLog", Value: logType}}
	if err := ex.Client.Database("admin").RunCommand(ctx, cmd).Decode(&doc); err != nil {
		return command.ResultData{}, err
	}
	lines, _ := doc["log"].(bson.A)
	list := make([]string, 0, len(lines))
	for _, l := range lines {
		if s, ok := l.(string); ok {
			list = append(list, s)
		}
	}
	return command.ResultData{Kind: command.RDList, List: list}, nil
}

func (ex *Executor) createIndex(ctx context.Context, a *command.AdminCommand) (command.ResultData, error) {
	coll := ex.database().Collection(a.Collection)
	model := mongo.IndexModel{Keys: a.IndexKeys}
	if len(a.IndexOptions) > 0 {
		model.Options = indexOptionsFromDoc(a.IndexOptions)
	}
	name, err := coll.Indexes().CreateOne(ctx, model)
	if err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("index %q created", name)}, nil
}

func (ex *Executor) createIndexes(ctx context.Context, a *command.AdminCommand) (command.ResultData, error) {
	coll := ex.database().Collection(a.Collection)
	models := make([]mongo.IndexModel, 0, len(a.Indexes))
	for _, spec := range a.Indexes {
		keys, opts := splitIndexSpec(spec)
		model := mongo.IndexModel{Keys: keys}
		if len(opts) > 0 {
			model.Options = indexOptionsFromDoc(opts)
		}
		models = append(models, model)
	}
	names, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDList, List: names}, nil
}

// splitIndexSpec pulls out the "options" sub-document (if any) from a bulk
// createIndexes entry, leaving the remaining keys as the index's key doc.
func splitIndexSpec(spec bson.D) (keys bson.D, opts bson.D) {
	for _, e := range spec {
		if e.Key == "options" {
			if d, ok := e.Value.(bson.D); ok {
				opts = d
			}
			continue
		}
		keys = append(keys, e)
	}
	return keys, opts
}

func indexOptionsFromDoc(d bson.D) *options.IndexOptionsBuilder {
	opts := options.Index()
	for _, e := range d {
		switch e.Key {
		case "unique":
			if b, ok := e.Value.(bool); ok {
				opts.SetUnique(b)
			}
		case "sparse":
			if b, ok := e.Value.(bool); ok {
				opts.SetSparse(b)
			}
		case "name":
			if s, ok := e.Value.(string); ok {
				opts.SetName(s)
			}
		case "expireAfterSeconds":
			if n, ok := asInt32(e.Value); ok {
				opts.SetExpireAfterSeconds(n)
			}
		}
	}
	return opts
}

func asInt32(v any) (int32, bool) {
	switch n := v.(type) {
	case int32:
		return n, true
	case int64:
		return int32(n), true
	case int:
		return int32(n), true
	default:
		return 0, false
	}
}

func (ex *Executor) listIndexes(ctx context.Context, a *command.AdminCommand) (command.ResultData, error) {
	coll := ex.database().Collection(a.Collection)
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return command.ResultData{}, err
	}
	defer cur.Close(ctx)
	var docs []bson.D
	if err := cur.All(ctx, &docs); err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDDocuments, Documents: docs}, nil
}

func (ex *Executor) dropIndexes(ctx context.Context, a *command.AdminCommand) (command.ResultData, error) {
	coll := ex.database().Collection(a.Collection)
	if len(a.IndexNames) == 0 {
		if err := coll.Indexes().DropAll(ctx); err != nil {
			return command.ResultData{}, err
		}
		return command.ResultData{Kind: command.RDMessage, Message: "all indexes dropped"}, nil
	}
	var errs []string
	dropped := 0
	for _, name := range a.IndexNames {
		if err := coll.Indexes().DropOne(ctx, name); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		dropped++
	}
	if len(errs) > 0 {
		return command.ResultData{}, fmt.Errorf("dropped %d/%d indexes, errors: %s", dropped, len(a.IndexNames), strings.Join(errs, "; "))
	}
	return command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("%d index(es) dropped", dropped)}, nil
}

func (ex *Executor) renameCollection(ctx context.Context, a *command.AdminCommand) (command.ResultData, error) {
	admin := ex.Client.Database("admin")
	fromNS := fmt.Sprintf("%s.%s", ex.State.Database(), a.Collection)
	toNS := fmt.Sprintf("%s.%s", ex.State.Database(), a.TargetCollection)
	cmd := bson.D{
		{Key: "renameCollection", Value: fromNS},
		{Key: "to", Value: toNS},
		{Key: "dropTarget", Value: a.DropTarget},
	}
	if err := admin.RunCommand(ctx, cmd).Err(); err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("renamed %q to %q", a.Collection, a.TargetCollection)}, nil
}

func (ex *Executor) collStats(ctx context.Context, a *command.AdminCommand) (command.ResultData, error) {
	cmd := bson.D{{Key: "collStats", Value: a.Collection}}
	if a.Scale != nil {
		cmd = append(cmd, bson.E{Key: "scale", Value: *a.Scale})
	}
	var doc bson.D
	if err := ex.database().RunCommand(ctx, cmd).Decode(&doc); err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDDocument, Document: doc}, nil
}

func (ex *Executor) dbStats(ctx context.Context, a *command.AdminCommand) (command.ResultData, error) {
	cmd := bson.D{{Key: "dbStats", Value: 1}}
	if a.Scale != nil {
		cmd = append(cmd, bson.E{Key: "scale", Value: *a.Scale})
	}
	var doc bson.D
	if err := ex.database().RunCommand(ctx, cmd).Decode(&doc); err != nil {
		return command.ResultData{}, err
	}
	return command.ResultData{Kind: command.RDDocument, Document: doc}, nil
}

// RunUtility executes Print/Iterate (spec.md §4.7).
func (ex *Executor) RunUtility(ctx context.Context, u *command.UtilityCommand) command.ExecutionResult {
	switch u.Op {
	case command.UtilityPrint:
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDMessage, Message: u.Message}}
	case command.UtilityIterate:
		return ex.iterate(ctx)
	default:
		return command.ExecutionResult{Success: false, Err: "unsupported utility operation"}
	}
}

// iterate advances the session's live cursor by one more batch (the
// shell-dialect "it" builtin). Like the initial Find page, it probes one
// document past the batch to learn whether further pages exist, without
// ever letting that probed document go undecoded and lost: it is carried
// forward as cs.Pending for the following "it" (spec.md §8 "pagination
// accounting", "cursor singleton").
func (ex *Executor) iterate(ctx context.Context) command.ExecutionResult {
	cs := ex.State.Cursor()
	if cs == nil || cs.Cursor == nil {
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDMessage, Message: "no cursor"}}
	}
	batchSize := cs.BatchSize
	if batchSize <= 0 {
		batchSize = command.DefaultQueryMode().BatchSize
	}
	displayLimit := int(batchSize)

	docs := make([]bson.D, 0, displayLimit)
	if cs.Pending != nil {
		docs = append(docs, *cs.Pending)
		cs.Pending = nil
	}
	for len(docs) < displayLimit && cs.Cursor.Next(ctx) {
		var doc bson.D
		if err := cs.Cursor.Decode(&doc); err != nil {
			return command.ExecutionResult{Success: false, Err: mongoerr.FormatDatabaseError(err)}
		}
		docs = append(docs, doc)
	}
	if err := cs.Cursor.Err(); err != nil {
		return command.ExecutionResult{Success: false, Err: mongoerr.FormatDatabaseError(err)}
	}

	if len(docs) == displayLimit && cs.Cursor.Next(ctx) {
		var extra bson.D
		if err := cs.Cursor.Decode(&extra); err != nil {
			return command.ExecutionResult{Success: false, Err: mongoerr.FormatDatabaseError(err)}
		}
		cs.Pending = &extra
	} else if err := cs.Cursor.Err(); err != nil {
		return command.ExecutionResult{Success: false, Err: mongoerr.FormatDatabaseError(err)}
	}

	hasMore := cs.Pending != nil
	cs.Displayed += len(docs)
	if !hasMore {
		ex.State.ClearCursor()
	}
	return command.ExecutionResult{
		Success: true,
		Data: command.ResultData{
			Kind:      command.RDDocumentsWithPagination,
			Documents: docs,
			HasMore:   hasMore,
			Displayed: len(docs),
		},
	}
}

// RunConfig executes ConfigCommand variants against the session's settings
// and saved-query catalog (spec.md §3 "ConfigCommand").
func (ex *Executor) RunConfig(c *command.ConfigCommand) command.ExecutionResult {
	switch c.Op {
	case command.ConfigSetSetting:
		ex.State.SetSetting(c.Key, c.Value)
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("%s = %s", c.Key, c.Value)}}
	case command.ConfigSaveQuery:
		ex.State.SaveQuery(c.Name, c.Value)
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("saved query %q", c.Name)}}
	case command.ConfigRunSavedQuery:
		src, ok := ex.State.SavedQuery(c.Name)
		if !ok {
			return command.ExecutionResult{Success: false, Err: fmt.Sprintf("no saved query named %q", c.Name)}
		}
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDMessage, Message: src}}
	case command.ConfigListSavedQueries:
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDList, List: ex.State.ListSavedQueries()}}
	case command.ConfigDeleteSavedQuery:
		if !ex.State.DeleteSavedQuery(c.Name) {
			return command.ExecutionResult{Success: false, Err: fmt.Sprintf("no saved query named %q", c.Name)}
		}
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDMessage, Message: fmt.Sprintf("deleted query %q", c.Name)}}
	default:
		return command.ExecutionResult{Success: false, Err: "unsupported config operation"}
	}
}
