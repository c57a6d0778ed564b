package sqlparse

import "fmt"

// ExpectedKind enumerates what a Partial result expected next (spec.md §4.2).
type ExpectedKind int

const (
	ExpectedKeyword ExpectedKind = iota
	ExpectedColumnName
	ExpectedTableName
	ExpectedNumber
	ExpectedString
	ExpectedOperator
	ExpectedExpression
	ExpectedStar
	ExpectedAggregateFunction
	ExpectedEndOfStatement
)

// Expected names one token class a Partial parse could extend with.
type Expected struct {
	Kind    ExpectedKind
	Keyword string // valid when Kind == ExpectedKeyword
}

func (e Expected) String() string {
	if e.Kind == ExpectedKeyword {
		return e.Keyword
	}
	names := [...]string{"keyword", "column name", "table name", "number",
		"string", "operator", "expression", "*", "aggregate function", "end of statement"}
	return names[e.Kind]
}

// Clause identifies a parser position within the SELECT grammar, used both
// for clause-order validation and to drive autocompletion (spec.md §4.2).
type Clause int

const (
	ClauseSelect Clause = iota
	ClauseFrom
	ClauseWhere
	ClauseGroupBy
	ClauseOrderBy
	ClauseLimit
	ClauseOffset
)

// ParseError is a hard parse failure (spec.md §7 Parse/Syntax).
type ParseError struct {
	Message string
	Hint    string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Hint)
	}
	return e.Message
}

// Status tags an Outcome as a full parse, a partial parse, or a hard error.
type Status int

const (
	StatusOK Status = iota
	StatusPartial
	StatusError
)

// Outcome is the three-state parse result described in spec.md §4.2 and
// §9 ("Error tolerant parser"): full, partial-with-expected-set, or
// hard-error. The autocomplete engine and the execution path share this
// same type.
type Outcome struct {
	Status Status

	Stmt *SelectStmt // best-effort AST; always non-nil for OK/Partial

	CurrentClause Clause
	Expected      []Expected

	Err *ParseError
}
