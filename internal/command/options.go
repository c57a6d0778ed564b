package command

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FindOptions configures Find/FindOne (spec.md §3).
type FindOptions struct {
	Limit       *int64
	Skip        *int64
	Sort        bson.D
	Projection  bson.D
	BatchSize   int32
	Hint        any
	MaxTimeMS   *int64
	Collation   bson.D
	ReadConcern string
}

// AggregateOptions configures Aggregate.
type AggregateOptions struct {
	BatchSize    int32
	MaxTimeMS    *int64
	Collation    bson.D
	Hint         any
	ReadConcern  string
	AllowDiskUse bool
	LetVars      bson.D
}

// UpdateOptions configures Update{One,Many}/ReplaceOne.
type UpdateOptions struct {
	Upsert       bool
	ArrayFilters []bson.D
	Collation    bson.D
	WriteConcern string
}

// FindAndModifyOptions configures FindOneAnd{Delete,Update,Replace}.
type FindAndModifyOptions struct {
	Sort         bson.D
	Projection   bson.D
	Upsert       bool
	ReturnNew    bool
	ArrayFilters []bson.D
	MaxTimeMS    *int64
	Collation    bson.D
}

// QueryModeKind distinguishes Interactive from Streaming (spec.md §3 "QueryMode").
type QueryModeKind int

const (
	Interactive QueryModeKind = iota
	Streaming
)

// QueryMode selects how a Find/Aggregate result is materialized.
type QueryMode struct {
	Kind      QueryModeKind
	BatchSize int32
}

// DefaultQueryMode is Interactive with the documented default batch size.
func DefaultQueryMode() QueryMode {
	return QueryMode{Kind: Interactive, BatchSize: 20}
}

// Stats is the ExecutionResult.stats record.
type Stats struct {
	ExecutionTimeMS  int64
	DocumentsReturned int64
	DocumentsAffected *int64
}

// ExecutionResult is the uniform result of executing any Command.
type ExecutionResult struct {
	Success bool
	Data    ResultData
	Stats   Stats
	Err     string
}

// ResultDataKind tags the variant stored in a ResultData.
type ResultDataKind int

const (
	RDDocuments ResultDataKind = iota
	RDDocumentsWithPagination
	RDDocument
	RDInsertOne
	RDInsertMany
	RDUpdate
	RDDelete
	RDCount
	RDList
	RDMessage
	RDStream
	RDNone
)

// ResultData is the tagged union described in spec.md §3.
type ResultData struct {
	Kind ResultDataKind

	Documents []bson.D // RDDocuments, RDDocumentsWithPagination
	HasMore   bool     // RDDocumentsWithPagination
	Displayed int      // RDDocumentsWithPagination

	Document bson.D // RDDocument

	InsertedID  any   // RDInsertOne
	InsertedIDs []any // RDInsertMany

	Matched  int64 // RDUpdate
	Modified int64 // RDUpdate

	Deleted int64 // RDDelete

	Count int64 // RDCount

	List []string // RDList

	Message string // RDMessage

	Stream any // RDStream — concrete type is internal/export.StreamingQuery
}

// Now returns the current time; extracted so tests can stub timestamps where
// needed without importing time directly at call sites.
var Now = time.Now
