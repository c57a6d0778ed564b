// Package repl implements the interactive read-eval-print loop and the line
// -> Command dispatch shared with non-interactive --eval/--file execution
// (spec.md §4.2 "two surface languages", §6 "REPL input languages").
package repl

import (
	"fmt"
	"strings"

	"github.com/dwoolworth/mgosh/internal/command"
	"github.com/dwoolworth/mgosh/internal/parser/shellparse"
	"github.com/dwoolworth/mgosh/internal/parser/sqlparse"
	"github.com/dwoolworth/mgosh/internal/translate"
)

// ParseError wraps a hard parse failure from either dialect with a uniform
// message, without exposing dialect-specific error types to callers.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// ParseLine classifies line as shell-dialect or SQL, parses and lowers it to
// a command.Command, and attaches a Pipe post-processor when the line ends
// in a top-level `| export <format> [file]` suffix (spec.md §4.9 example
// "db.orders.find({...}) | export jsonl \"out.jsonl\"").
func ParseLine(line string) (*command.Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, &ParseError{Message: "empty input"}
	}

	if b, ok, err := shellparse.ParseBuiltin(trimmed); ok {
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		return fromBuiltin(b)
	}

	body, pipe, err := splitPipe(trimmed)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	var cmd *command.Command
	if isSQL(body) {
		cmd, err = parseSQL(body)
	} else {
		cmd, err = parseShell(body)
	}
	if err != nil {
		return nil, err
	}

	if pipe != nil {
		cmd = &command.Command{Kind: command.KindPipe, Inner: cmd, Post: pipe}
	}
	return cmd, nil
}

// isSQL detects the SQL dialect by its leading keyword (SELECT, optionally
// wrapped in EXPLAIN [verbosity]); anything else is shell dialect.
func isSQL(body string) bool {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return false
	}
	head := strings.ToUpper(fields[0])
	if head == "SELECT" {
		return true
	}
	if head == "EXPLAIN" {
		// grammar is `EXPLAIN [verbosity_ident] SELECT ...`, so SELECT is
		// either the second or third token.
		for _, f := range fields[1:min(3, len(fields))] {
			if strings.ToUpper(f) == "SELECT" {
				return true
			}
		}
	}
	return false
}

func parseShell(body string) (*command.Command, error) {
	expr, err := shellparse.ParseExpression(body)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	cmd, err := translate.FromShellExpr(expr)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return cmd, nil
}

func parseSQL(body string) (*command.Command, error) {
	outcome := sqlparse.Parse(body)
	switch outcome.Status {
	case sqlparse.StatusError:
		return nil, &ParseError{Message: outcome.Err.Error()}
	case sqlparse.StatusPartial:
		return nil, &ParseError{Message: fmt.Sprintf("incomplete statement, expected %s", joinExpected(outcome.Expected))}
	}
	cmd, err := translate.FromSelectStmt(outcome.Stmt)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return cmd, nil
}

func joinExpected(exp []sqlparse.Expected) string {
	parts := make([]string, len(exp))
	for i, e := range exp {
		parts[i] = e.String()
	}
	return strings.Join(parts, " or ")
}

// splitPipe separates a trailing `| export <jsonl|csv> [path]` from body,
// at the top nesting level only (a `|` inside a string/paren isn't a
// pipe separator; shellparse/sqlparse own the body text, so we only need
// to avoid splitting inside quotes here).
func splitPipe(line string) (body string, pipe *command.PipeCommand, err error) {
	idx := topLevelPipe(line)
	if idx < 0 {
		return line, nil, nil
	}
	body = strings.TrimSpace(line[:idx])
	tail := strings.TrimSpace(line[idx+1:])

	fields := strings.Fields(tail)
	if len(fields) == 0 || strings.ToLower(fields[0]) != "export" {
		return "", nil, fmt.Errorf("unsupported pipe stage %q (only \"export\" is supported)", tail)
	}
	if len(fields) < 2 {
		return "", nil, fmt.Errorf("export requires a format: jsonl or csv")
	}
	var format command.PipeFormat
	switch strings.ToLower(fields[1]) {
	case "jsonl":
		format = command.FormatJSONL
	case "csv":
		format = command.FormatCSV
	default:
		return "", nil, fmt.Errorf("unknown export format %q", fields[1])
	}
	file := ""
	if len(fields) > 2 {
		file = strings.Trim(strings.Join(fields[2:], " "), `"'`)
	}
	return body, &command.PipeCommand{Kind: command.PipeExport, Format: format, File: file}, nil
}

// topLevelPipe finds the byte offset of a `|` outside single/double quotes,
// or -1 if none exists.
func topLevelPipe(line string) int {
	var inSingle, inDouble bool
	for i, r := range line {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '|':
			if !inSingle && !inDouble {
				return i
			}
		}
	}
	return -1
}

func fromBuiltin(b *shellparse.Builtin) (*command.Command, error) {
	switch b.Kind {
	case shellparse.BuiltinShowDatabases:
		return &command.Command{Kind: command.KindAdmin, Admin: &command.AdminCommand{Op: command.AdminShowDatabases}}, nil
	case shellparse.BuiltinShowCollections:
		return &command.Command{Kind: command.KindAdmin, Admin: &command.AdminCommand{Op: command.AdminShowCollections}}, nil
	case shellparse.BuiltinShowUsers:
		return &command.Command{Kind: command.KindAdmin, Admin: &command.AdminCommand{Op: command.AdminShowUsers}}, nil
	case shellparse.BuiltinShowRoles:
		return &command.Command{Kind: command.KindAdmin, Admin: &command.AdminCommand{Op: command.AdminShowRoles}}, nil
	case shellparse.BuiltinShowProfile:
		return &command.Command{Kind: command.KindAdmin, Admin: &command.AdminCommand{Op: command.AdminShowProfile}}, nil
	case shellparse.BuiltinShowLogs:
		return &command.Command{Kind: command.KindAdmin, Admin: &command.AdminCommand{Op: command.AdminShowLogs, LogType: b.Arg}}, nil
	case shellparse.BuiltinUse:
		if err := shellparse.ValidateDatabaseName(b.Arg); err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		return &command.Command{Kind: command.KindAdmin, Admin: &command.AdminCommand{Op: command.AdminUseDatabase, DatabaseName: b.Arg}}, nil
	case shellparse.BuiltinHelp:
		return &command.Command{Kind: command.KindHelp, HelpTopic: b.Arg}, nil
	case shellparse.BuiltinExit:
		return &command.Command{Kind: command.KindExit}, nil
	default:
		return nil, &ParseError{Message: "unrecognized builtin"}
	}
}
