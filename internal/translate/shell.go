// Package translate lowers both surface-language ASTs (shell and SQL) to the
// shared command.Command algebra (spec.md §4.3 "SQL to Command" and §4.4
// "Shell AST to Command").
package translate

import (
	"fmt"
	"time"

	"github.com/dwoolworth/mgosh/internal/command"
	"github.com/dwoolworth/mgosh/internal/parser/shellparse"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// FromShellExpr lowers a parsed db.<collection>.<op>(args)[.modifier(...)]*
// (or bare db.<op>(args)) expression into a Command.
func FromShellExpr(expr *shellparse.Expr) (*command.Command, error) {
	coll, calls, err := collectChain(expr)
	if err != nil {
		return nil, err
	}
	if len(calls) == 0 {
		return nil, fmt.Errorf("expected a db.<collection>.<operation>(...) expression")
	}
	head := calls[0]
	rest := calls[1:]

	if coll == "" {
		return translateDBLevel(head)
	}

	if isAdminCollectionOp(head.name) {
		return translateCollectionAdmin(coll, head)
	}

	q, err := translateQueryOp(coll, head)
	if err != nil {
		return nil, err
	}

	var explainCall *callStep
	for i := range rest {
		if rest[i].name == "explain" {
			explainCall = &rest[i]
			rest = rest[:i]
			break
		}
	}
	if err := applyModifiers(q, rest); err != nil {
		return nil, err
	}
	if explainCall != nil {
		verbosity, err := explainVerbosityArg(explainCall.args)
		if err != nil {
			return nil, err
		}
		q, err = command.NewExplain(q, verbosity)
		if err != nil {
			return nil, err
		}
	}
	return &command.Command{Kind: command.KindQuery, Query: q}, nil
}

func explainVerbosityArg(args []*shellparse.Expr) (command.ExplainVerbosity, error) {
	e := argAt(args, 0)
	if e == nil {
		return command.QueryPlanner, nil
	}
	v, err := exprToValue(e)
	if err != nil {
		return 0, err
	}
	switch val := v.(type) {
	case string:
		return command.ParseVerbosity(val)
	case bool:
		return command.VerbosityFromBool(val), nil
	default:
		return 0, fmt.Errorf("explain() argument must be a string or boolean")
	}
}

type callStep struct {
	name string
	args []*shellparse.Expr
}

// collectChain walks a method-chain expression from the outermost call down
// to its db/db.<collection> root, returning the root collection name (""
// for a bare db.<op>() call) and the ordered call steps, innermost first.
func collectChain(e *shellparse.Expr) (string, []callStep, error) {
	switch e.Kind {
	case shellparse.ExprCall:
		member := e.Target
		if member.Kind != shellparse.ExprMember {
			return "", nil, fmt.Errorf("expected a method call on db or a collection")
		}
		coll, calls, err := collectChain(member.Target)
		if err != nil {
			return "", nil, err
		}
		calls = append(calls, callStep{name: member.Name, args: e.Args})
		return coll, calls, nil
	case shellparse.ExprMember:
		if e.Target.Kind != shellparse.ExprDB {
			return "", nil, fmt.Errorf("unsupported member access %q", e.Name)
		}
		return e.Name, nil, nil
	case shellparse.ExprDB:
		return "", nil, nil
	default:
		return "", nil, fmt.Errorf("expected a db.<collection>.<operation>(...) expression")
	}
}

var adminCollectionOps = map[string]bool{
	"createIndex": true, "createIndexes": true, "dropIndex": true, "dropIndexes": true,
	"getIndexes": true, "listIndexes": true, "drop": true, "renameCollection": true,
	"stats": true,
}

func isAdminCollectionOp(name string) bool { return adminCollectionOps[name] }

func translateCollectionAdmin(coll string, head callStep) (*command.Command, error) {
	a := &command.AdminCommand{Collection: coll}
	switch head.name {
	case "createIndex":
		keys, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		opts, err := exprToDocument(argAt(head.args, 1))
		if err != nil {
			return nil, err
		}
		a.Op, a.IndexKeys, a.IndexOptions = command.AdminCreateIndex, keys, opts
	case "createIndexes":
		specs, err := exprToDocumentArray(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		a.Op, a.Indexes = command.AdminCreateIndexes, specs
	case "dropIndex":
		name, err := stringArg(head.args, 0)
		if err != nil {
			return nil, err
		}
		a.Op, a.IndexName = command.AdminDropIndex, name
	case "dropIndexes":
		a.Op = command.AdminDropIndexes
	case "getIndexes", "listIndexes":
		a.Op = command.AdminListIndexes
	case "drop":
		a.Op = command.AdminDropCollection
	case "renameCollection":
		target, err := stringArg(head.args, 0)
		if err != nil {
			return nil, err
		}
		a.Op, a.TargetCollection = command.AdminRenameCollection, target
		if len(head.args) > 1 {
			drop, err := boolArg(head.args, 1)
			if err != nil {
				return nil, err
			}
			a.DropTarget = drop
		}
	case "stats":
		a.Op = command.AdminCollectionStats
		if len(head.args) > 0 {
			n, err := intArgFlexible(head.args, 0)
			if err != nil {
				return nil, err
			}
			scale := int32(n)
			a.Scale = &scale
		}
	default:
		return nil, fmt.Errorf("unsupported collection admin operation %q", head.name)
	}
	return &command.Command{Kind: command.KindAdmin, Admin: a}, nil
}

func translateDBLevel(head callStep) (*command.Command, error) {
	a := &command.AdminCommand{}
	switch head.name {
	case "createCollection":
		name, err := stringArg(head.args, 0)
		if err != nil {
			return nil, err
		}
		a.Op, a.Collection = command.AdminCreateCollection, name
	case "dropDatabase":
		a.Op = command.AdminDropDatabase
	case "stats":
		a.Op = command.AdminDatabaseStats
		if len(head.args) > 0 {
			n, err := intArgFlexible(head.args, 0)
			if err != nil {
				return nil, err
			}
			scale := int32(n)
			a.Scale = &scale
		}
	default:
		return nil, fmt.Errorf("unsupported database-level operation %q", head.name)
	}
	return &command.Command{Kind: command.KindAdmin, Admin: a}, nil
}

func translateQueryOp(coll string, head callStep) (*command.QueryCommand, error) {
	q := &command.QueryCommand{Collection: coll}
	switch head.name {
	case "find":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		proj, err := exprToDocument(argAt(head.args, 1))
		if err != nil {
			return nil, err
		}
		q.Op, q.Filter, q.FindOpts.Projection = command.OpFind, filter, proj
	case "findOne":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		proj, err := exprToDocument(argAt(head.args, 1))
		if err != nil {
			return nil, err
		}
		q.Op, q.Filter, q.FindOpts.Projection = command.OpFindOne, filter, proj
	case "insertOne":
		doc, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		q.Op, q.Document = command.OpInsertOne, doc
	case "insertMany":
		docs, err := exprToDocumentArray(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		q.Op, q.Documents = command.OpInsertMany, docs
	case "updateOne", "updateMany":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		update, err := exprToDocument(argAt(head.args, 1))
		if err != nil {
			return nil, err
		}
		q.Filter, q.Update = filter, update
		if head.name == "updateOne" {
			q.Op = command.OpUpdateOne
		} else {
			q.Op = command.OpUpdateMany
		}
		if len(head.args) > 2 {
			if err := applyUpdateOptions(&q.UpdateOpts, head.args[2]); err != nil {
				return nil, err
			}
		}
	case "replaceOne":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		repl, err := exprToDocument(argAt(head.args, 1))
		if err != nil {
			return nil, err
		}
		q.Op, q.Filter, q.Replacement = command.OpReplaceOne, filter, repl
	case "deleteOne", "deleteMany":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		q.Filter = filter
		if head.name == "deleteOne" {
			q.Op = command.OpDeleteOne
		} else {
			q.Op = command.OpDeleteMany
		}
	case "aggregate":
		pipeline, err := exprToDocumentArray(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		q.Op, q.Pipeline = command.OpAggregate, pipeline
	case "countDocuments":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		q.Op, q.Filter = command.OpCountDocuments, filter
	case "estimatedDocumentCount":
		q.Op = command.OpEstimatedDocumentCount
	case "distinct":
		field, err := stringArg(head.args, 0)
		if err != nil {
			return nil, err
		}
		filter, err := exprToDocument(argAt(head.args, 1))
		if err != nil {
			return nil, err
		}
		q.Op, q.Field, q.Filter = command.OpDistinct, field, filter
	case "findOneAndDelete":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		q.Op, q.Filter = command.OpFindOneAndDelete, filter
	case "findOneAndUpdate":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		update, err := exprToDocument(argAt(head.args, 1))
		if err != nil {
			return nil, err
		}
		q.Op, q.Filter, q.Update = command.OpFindOneAndUpdate, filter, update
	case "findOneAndReplace":
		filter, err := exprToDocument(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		repl, err := exprToDocument(argAt(head.args, 1))
		if err != nil {
			return nil, err
		}
		q.Op, q.Filter, q.Replacement = command.OpFindOneAndReplace, filter, repl
	case "bulkWrite":
		ops, err := exprToDocumentArray(argAt(head.args, 0))
		if err != nil {
			return nil, err
		}
		q.Op, q.BulkOps, q.Ordered = command.OpBulkWrite, ops, true
	default:
		return nil, fmt.Errorf("unsupported collection operation %q", head.name)
	}
	return q, nil
}

func applyUpdateOptions(opts *command.UpdateOptions, e *shellparse.Expr) error {
	doc, err := exprToDocument(e)
	if err != nil {
		return err
	}
	for _, kv := range doc {
		if kv.Key == "upsert" {
			if b, ok := kv.Value.(bool); ok {
				opts.Upsert = b
			}
		}
	}
	return nil
}

// applyModifiers consumes a chained modifier call sequence such as
// .sort({}).limit(10) against a base QueryCommand. A trailing .explain(...)
// is split off by FromShellExpr before this is called.
func applyModifiers(q *command.QueryCommand, calls []callStep) error {
	for _, c := range calls {
		switch c.name {
		case "sort":
			doc, err := exprToDocument(argAt(c.args, 0))
			if err != nil {
				return err
			}
			q.FindOpts.Sort = doc
		case "limit":
			n, err := intArgFlexible(c.args, 0)
			if err != nil {
				return err
			}
			q.FindOpts.Limit = &n
		case "skip":
			n, err := intArgFlexible(c.args, 0)
			if err != nil {
				return err
			}
			q.FindOpts.Skip = &n
		case "batchSize":
			n, err := intArgFlexible(c.args, 0)
			if err != nil {
				return err
			}
			q.FindOpts.BatchSize = int32(n)
		case "maxTimeMS":
			n, err := intArgFlexible(c.args, 0)
			if err != nil {
				return err
			}
			q.FindOpts.MaxTimeMS = &n
		case "collation":
			doc, err := exprToDocument(argAt(c.args, 0))
			if err != nil {
				return err
			}
			q.FindOpts.Collation = doc
		case "hint":
			v, err := exprToValue(argAt(c.args, 0))
			if err != nil {
				return err
			}
			q.FindOpts.Hint = v
		case "projection":
			doc, err := exprToDocument(argAt(c.args, 0))
			if err != nil {
				return err
			}
			q.FindOpts.Projection = doc
		default:
			return fmt.Errorf("unsupported modifier %q", c.name)
		}
	}
	return nil
}

// --- value conversion ---

func argAt(args []*shellparse.Expr, i int) *shellparse.Expr {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

func exprToDocument(e *shellparse.Expr) (bson.D, error) {
	if e == nil {
		return bson.D{}, nil
	}
	v, err := exprToValue(e)
	if err != nil {
		return nil, err
	}
	d, ok := v.(bson.D)
	if !ok {
		return nil, fmt.Errorf("expected an object literal")
	}
	return d, nil
}

func exprToDocumentArray(e *shellparse.Expr) ([]bson.D, error) {
	if e == nil {
		return nil, nil
	}
	if e.Kind != shellparse.ExprArray {
		return nil, fmt.Errorf("expected an array literal")
	}
	docs := make([]bson.D, 0, len(e.Elements))
	for _, el := range e.Elements {
		d, err := exprToDocument(el)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func stringArg(args []*shellparse.Expr, i int) (string, error) {
	e := argAt(args, i)
	if e == nil {
		return "", nil
	}
	if e.Kind != shellparse.ExprString {
		return "", fmt.Errorf("expected a string argument")
	}
	return e.Str, nil
}

func boolArg(args []*shellparse.Expr, i int) (bool, error) {
	e := argAt(args, i)
	if e == nil {
		return false, nil
	}
	v, err := exprToValue(e)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected a boolean argument")
	}
	return b, nil
}

func intArgFlexible(args []*shellparse.Expr, i int) (int64, error) {
	e := argAt(args, i)
	if e == nil {
		return 0, nil
	}
	v, err := exprToValue(e)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case int32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected a numeric argument")
	}
}

// exprToValue evaluates a literal shell expression (object/array/scalar, or
// a value-constructor call such as ObjectId(...)) into a BSON-ready Go value.
func exprToValue(e *shellparse.Expr) (any, error) {
	switch e.Kind {
	case shellparse.ExprNull:
		return nil, nil
	case shellparse.ExprBool:
		return e.Bool, nil
	case shellparse.ExprNumber:
		if e.IsFloat {
			return e.Float, nil
		}
		return e.Int, nil
	case shellparse.ExprString:
		return e.Str, nil
	case shellparse.ExprObject:
		d := make(bson.D, 0, len(e.Properties))
		for _, prop := range e.Properties {
			v, err := exprToValue(prop.Value)
			if err != nil {
				return nil, err
			}
			d = append(d, bson.E{Key: prop.Key, Value: v})
		}
		return d, nil
	case shellparse.ExprArray:
		a := make(bson.A, 0, len(e.Elements))
		for _, el := range e.Elements {
			v, err := exprToValue(el)
			if err != nil {
				return nil, err
			}
			a = append(a, v)
		}
		return a, nil
	case shellparse.ExprUnary:
		v, err := exprToValue(e.Operand)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case "-":
			switch n := v.(type) {
			case int64:
				return -n, nil
			case float64:
				return -n, nil
			default:
				return nil, fmt.Errorf("unary - requires a numeric operand")
			}
		case "!":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("unary ! requires a boolean operand")
			}
			return !b, nil
		default:
			return v, nil
		}
	case shellparse.ExprCall:
		if e.Target.Kind != shellparse.ExprIdent {
			return nil, fmt.Errorf("unsupported call in value position")
		}
		return evalConstructor(e.Target.Name, e.Args)
	case shellparse.ExprNew:
		if e.Target.Kind != shellparse.ExprIdent {
			return nil, fmt.Errorf("unsupported constructor in value position")
		}
		return evalConstructor(e.Target.Name, e.Args)
	default:
		return nil, fmt.Errorf("unsupported expression in value position")
	}
}

var isoLayouts = []string{time.RFC3339, time.RFC3339Nano, "2006-01-02"}

func evalConstructor(name string, args []*shellparse.Expr) (any, error) {
	switch name {
	case "ObjectId":
		hex, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		if hex == "" {
			return bson.NewObjectID(), nil
		}
		id, err := bson.ObjectIDFromHex(hex)
		if err != nil {
			return nil, fmt.Errorf("invalid ObjectId: %w", err)
		}
		return id, nil
	case "ISODate", "Date":
		s, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		if s == "" {
			return bson.NewDateTimeFromTime(time.Now()), nil
		}
		var t time.Time
		var parseErr error
		for _, layout := range isoLayouts {
			t, parseErr = time.Parse(layout, s)
			if parseErr == nil {
				break
			}
		}
		if parseErr != nil {
			return nil, fmt.Errorf("invalid date literal %q", s)
		}
		return bson.NewDateTimeFromTime(t), nil
	case "NumberInt":
		n, err := intArgFlexible(args, 0)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case "NumberLong", "Long":
		n, err := intArgFlexible(args, 0)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "NumberDecimal":
		s, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		dec, err := bson.ParseDecimal128(s)
		if err != nil {
			return nil, fmt.Errorf("invalid NumberDecimal literal %q", s)
		}
		return dec, nil
	case "RegExp":
		pattern, err := stringArg(args, 0)
		if err != nil {
			return nil, err
		}
		opts, err := stringArg(args, 1)
		if err != nil {
			return nil, err
		}
		return bson.Regex{Pattern: pattern, Options: opts}, nil
	default:
		return nil, fmt.Errorf("unknown constructor %q", name)
	}
}

