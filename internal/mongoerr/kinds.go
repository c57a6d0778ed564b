// Package mongoerr defines the tagged error kinds used throughout mgosh
// (spec.md §7). Each kind carries enough context to render a one-line
// user message, and Database errors additionally expose a structured
// JSON dump of the underlying driver error.
package mongoerr

import "fmt"

// Kind identifies the broad category of an Error.
type Kind string

const (
	KindConnection     Kind = "connection"
	KindParse          Kind = "parse"
	KindExecution      Kind = "execution"
	KindConfig         Kind = "config"
	KindIO             Kind = "io"
	KindDatabase       Kind = "database"
	KindAuth           Kind = "auth"
	KindPlugin         Kind = "plugin"
	KindScript         Kind = "script"
	KindGeneric        Kind = "generic"
	KindNotImplemented Kind = "not_implemented"
)

// Code names a specific error sub-case within a Kind, e.g.
// "connection_failed" or "cancelled". It exists so callers can test for a
// specific failure mode with errors.Is-style comparisons on (Kind, Code)
// without string-matching the message.
type Code string

const (
	// Connection
	CodeConnectionFailed  Code = "connection_failed"
	CodeTimeout           Code = "timeout"
	CodeInvalidURI        Code = "invalid_uri"
	CodeDisconnected      Code = "disconnected"
	CodePoolExhausted     Code = "pool_exhausted"
	CodeNotConnected      Code = "not_connected"
	CodePingFailed        Code = "ping_failed"
	CodeCommandFailed     Code = "command_failed"
	CodeSessionFailed     Code = "session_failed"
	CodeTransactionFailed Code = "transaction_failed"

	// Parse
	CodeSyntax          Code = "syntax"
	CodeInvalidCommand  Code = "invalid_command"
	CodeUnexpectedToken Code = "unexpected_token"
	CodeInvalidQuery    Code = "invalid_query"
	CodeInvalidPipeline Code = "invalid_pipeline"

	// Execution
	CodeQueryFailed          Code = "query_failed"
	CodeUnsupportedOperation Code = "unsupported_operation"
	CodeInvalidParameters    Code = "invalid_parameters"
	CodeInvalidOperation     Code = "invalid_operation"
	CodeTransactionError     Code = "transaction_error"
	CodeCursorError          Code = "cursor_error"
	CodeCancelled            Code = "cancelled"
)

// Error is the single error type used across mgosh. It wraps an underlying
// cause (possibly nil) and classifies it with a Kind/Code pair.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error

	// Expected/Found are populated for Kind=Parse, Code=CodeUnexpectedToken.
	Expected string
	Found    string
}

func (e *Error) Error() string {
	if e.Code == CodeUnexpectedToken {
		return fmt.Sprintf("Error: %s: expected %s, found %s", e.Kind, e.Expected, e.Found)
	}
	return fmt.Sprintf("Error: %s: %s", shortLabel(e), e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func shortLabel(e *Error) string {
	if e.Code != "" {
		return string(e.Code)
	}
	return string(e.Kind)
}

// New builds a plain Error of the given kind/code with a formatted message.
func New(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that carries cause as its Unwrap target.
func Wrap(kind Kind, code Code, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Cancelled builds the Execution/Cancelled error returned by the killable
// command wrapper (spec.md §4.8) and surfaced to callers as a typed error so
// executors and the REPL can branch on it without string matching.
func Cancelled(message string) *Error {
	return &Error{Kind: KindExecution, Code: CodeCancelled, Message: message}
}

// IsCancelled reports whether err is (or wraps) a cancellation error.
func IsCancelled(err error) bool {
	var e *Error
	if asError(err, &e) {
		return e.Code == CodeCancelled
	}
	return false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// UnexpectedToken builds a Parse/UnexpectedToken error (used by the SQL and
// shell parsers' hard-error path).
func UnexpectedToken(expected, found string) *Error {
	return &Error{Kind: KindParse, Code: CodeUnexpectedToken, Expected: expected, Found: found}
}
