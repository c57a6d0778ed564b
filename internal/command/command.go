// Package command defines the language-neutral command algebra that both
// surface parsers (shell and SQL) compile down to, and that the executors
// consume (spec.md §3).
package command

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Kind tags the top-level Command variant.
type Kind int

const (
	KindQuery Kind = iota
	KindAdmin
	KindUtility
	KindConfig
	KindPipe
	KindHelp
	KindExit
)

// Command is the tagged variant described in spec.md §3.
type Command struct {
	Kind Kind

	Query   *QueryCommand
	Admin   *AdminCommand
	Utility *UtilityCommand
	Config  *ConfigCommand

	// Pipe wraps Inner with Post (spec.md "Pipe(Command, PipeCommand)").
	Inner *Command
	Post  *PipeCommand

	HelpTopic string // KindHelp, "" for no topic
}

// QueryOp names a QueryCommand variant.
type QueryOp int

const (
	OpFind QueryOp = iota
	OpFindOne
	OpInsertOne
	OpInsertMany
	OpUpdateOne
	OpUpdateMany
	OpReplaceOne
	OpDeleteOne
	OpDeleteMany
	OpAggregate
	OpCountDocuments
	OpEstimatedDocumentCount
	OpDistinct
	OpFindOneAndDelete
	OpFindOneAndUpdate
	OpFindOneAndReplace
	OpBulkWrite
	OpExplain
)

// QueryCommand is a CRUD/read command against one collection (spec.md §3).
type QueryCommand struct {
	Op         QueryOp
	Collection string
	Filter     bson.D

	// Find / FindOne
	FindOpts FindOptions

	// InsertOne / InsertMany
	Document  bson.D
	Documents []bson.D

	// Update{One,Many} / ReplaceOne
	Update      bson.D
	Replacement bson.D
	UpdateOpts  UpdateOptions

	// Aggregate
	Pipeline     []bson.D
	AggregateOpts AggregateOptions

	// Distinct
	Field string

	// FindOneAnd*
	FindModOpts FindAndModifyOptions

	// BulkWrite
	BulkOps []bson.D
	Ordered bool

	// Explain
	Verbosity ExplainVerbosity
	Inner     *QueryCommand
}

// CollectionName returns the target collection name for every variant.
func (q *QueryCommand) CollectionName() string { return q.Collection }

// SupportsExplain reports whether this QueryCommand kind may be wrapped in
// Explain (spec.md §3 invariant: "Explain is only legal for
// {Find, FindOne, Aggregate, CountDocuments, Distinct}").
func (q *QueryCommand) SupportsExplain() bool {
	switch q.Op {
	case OpFind, OpFindOne, OpAggregate, OpCountDocuments, OpDistinct:
		return true
	default:
		return false
	}
}

// ExplainVerbosity is one of the three documented verbosity levels.
type ExplainVerbosity int

const (
	QueryPlanner ExplainVerbosity = iota
	ExecutionStats
	AllPlansExecution
)

const (
	verbosityQueryPlanner     = "queryPlanner"
	verbosityExecutionStats   = "executionStats"
	verbosityAllPlansExecution = "allPlansExecution"
)

// String renders the verbosity as the driver command string.
func (v ExplainVerbosity) String() string {
	switch v {
	case ExecutionStats:
		return verbosityExecutionStats
	case AllPlansExecution:
		return verbosityAllPlansExecution
	default:
		return verbosityQueryPlanner
	}
}

// ParseVerbosity parses a verbosity string, accepting the backward
// compatible "true"/"false" aliases (spec.md §4.2).
func ParseVerbosity(s string) (ExplainVerbosity, error) {
	switch s {
	case verbosityQueryPlanner:
		return QueryPlanner, nil
	case verbosityExecutionStats:
		return ExecutionStats, nil
	case verbosityAllPlansExecution:
		return AllPlansExecution, nil
	case "true":
		return AllPlansExecution, nil
	case "false":
		return QueryPlanner, nil
	default:
		return QueryPlanner, fmt.Errorf(
			"invalid explain verbosity %q: valid options are %q, %q, %q (or boolean true/false)",
			s, verbosityQueryPlanner, verbosityExecutionStats, verbosityAllPlansExecution)
	}
}

// VerbosityFromBool maps the bare-boolean compatibility form.
func VerbosityFromBool(b bool) ExplainVerbosity {
	if b {
		return AllPlansExecution
	}
	return QueryPlanner
}

// NewExplain wraps inner in an Explain QueryCommand. It enforces the "no
// nested Explain" and "only read ops" invariants from spec.md §3.
func NewExplain(inner *QueryCommand, verbosity ExplainVerbosity) (*QueryCommand, error) {
	if inner.Op == OpExplain {
		return nil, fmt.Errorf("cannot explain an explain command")
	}
	if !inner.SupportsExplain() {
		return nil, fmt.Errorf("explain is not supported for this operation")
	}
	return &QueryCommand{
		Op:         OpExplain,
		Collection: inner.Collection,
		Verbosity:  verbosity,
		Inner:      inner,
	}, nil
}

// AdminOp names an AdminCommand variant.
type AdminOp int

const (
	AdminShowDatabases AdminOp = iota
	AdminShowCollections
	AdminShowUsers
	AdminShowRoles
	AdminShowProfile
	AdminShowLogs
	AdminUseDatabase
	AdminCreateCollection
	AdminDropCollection
	AdminCreateIndex
	AdminCreateIndexes
	AdminListIndexes
	AdminDropIndex
	AdminDropIndexes
	AdminRenameCollection
	AdminDropDatabase
	AdminCollectionStats
	AdminDatabaseStats
)

// AdminCommand is an administrative command (spec.md §3/§4.7).
type AdminCommand struct {
	Op         AdminOp
	Collection string
	LogType    string // AdminShowLogs

	DatabaseName string // AdminUseDatabase

	IndexKeys    bson.D   // AdminCreateIndex
	IndexOptions bson.D   // AdminCreateIndex
	Indexes      []bson.D // AdminCreateIndexes
	IndexName    string   // AdminDropIndex
	IndexNames   []string // AdminDropIndexes (nil = all)

	TargetCollection string // AdminRenameCollection
	DropTarget       bool   // AdminRenameCollection

	Scale *int32 // AdminCollectionStats / AdminDatabaseStats
}

// IsDestructive reports whether this admin op is in the confirmation-gated
// set (spec.md §4.5).
func (a *AdminCommand) IsDestructive() bool {
	switch a.Op {
	case AdminCreateIndex, AdminCreateIndexes, AdminDropIndex, AdminDropIndexes,
		AdminDropCollection, AdminRenameCollection, AdminDropDatabase:
		return true
	default:
		return false
	}
}

// UtilityOp names a UtilityCommand variant.
type UtilityOp int

const (
	UtilityPrint UtilityOp = iota
	UtilityIterate
)

// UtilityCommand is Print or Iterate (spec.md §3).
type UtilityCommand struct {
	Op      UtilityOp
	Message string // UtilityPrint
}

// ConfigOp names a ConfigCommand variant.
type ConfigOp int

const (
	ConfigSetSetting ConfigOp = iota
	ConfigSaveQuery
	ConfigRunSavedQuery
	ConfigListSavedQueries
	ConfigDeleteSavedQuery
)

// ConfigCommand covers runtime setting changes and the named-query catalog
// (spec.md §3).
type ConfigCommand struct {
	Op    ConfigOp
	Key   string
	Value string
	Name  string
}

// PipeFormat is the export format requested by a Pipe's Export sub-command.
type PipeFormat int

const (
	FormatJSONL PipeFormat = iota
	FormatCSV
)

// PipeKind distinguishes Export from Explain post-processors.
type PipeKind int

const (
	PipeExport PipeKind = iota
	PipeExplain
)

// PipeCommand is the post-processor attached by Command.Kind==KindPipe.
type PipeCommand struct {
	Kind   PipeKind
	Format PipeFormat // PipeExport
	File   string     // PipeExport, "" means derive a default name
}

// IsDestructive reports whether executing cmd requires user confirmation
// before reaching the driver (spec.md §4.5, §8 "Confirmation gate").
func (c *Command) IsDestructive() bool {
	switch c.Kind {
	case KindQuery:
		switch c.Query.Op {
		case OpDeleteOne, OpDeleteMany, OpUpdateOne, OpUpdateMany, OpReplaceOne,
			OpFindOneAndDelete, OpFindOneAndUpdate, OpFindOneAndReplace:
			return true
		}
	case KindAdmin:
		return c.Admin.IsDestructive()
	}
	return false
}
