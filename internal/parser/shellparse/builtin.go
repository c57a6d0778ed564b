package shellparse

import (
	"fmt"
	"strings"
)

// BuiltinKind tags a recognized shell builtin statement.
type BuiltinKind int

const (
	BuiltinShowDatabases BuiltinKind = iota
	BuiltinShowCollections
	BuiltinShowUsers
	BuiltinShowRoles
	BuiltinShowProfile
	BuiltinShowLogs
	BuiltinUse
	BuiltinHelp
	BuiltinExit
)

// Builtin is the result of a successful builtin-prefix match.
type Builtin struct {
	Kind    BuiltinKind
	Arg     string // database name (use), log type (show logs), help topic
}

var showAliases = map[string]BuiltinKind{
	"dbs":         BuiltinShowDatabases,
	"databases":   BuiltinShowDatabases,
	"collections": BuiltinShowCollections,
	"tables":      BuiltinShowCollections,
	"users":       BuiltinShowUsers,
	"roles":       BuiltinShowRoles,
	"profile":     BuiltinShowProfile,
	"logs":        BuiltinShowLogs,
}

// invalidDBChars is the set of characters disallowed in a database name
// (spec.md §4.2 "Database-name validation").
const invalidDBChars = "/\\. \"$*<>:|?"

// ValidateDatabaseName enforces spec.md §4.2's database-name rule.
func ValidateDatabaseName(name string) error {
	if len(name) < 1 || len(name) > 64 {
		return fmt.Errorf("database name must be 1-64 characters, got %d", len(name))
	}
	if strings.ContainsAny(name, invalidDBChars) {
		return fmt.Errorf("database name %q contains an invalid character", name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("database name %q contains a NUL byte", name)
	}
	return nil
}

// ParseBuiltin attempts to prefix-match line against the shell builtins:
// show dbs|databases|collections|tables|users|roles|profile|logs [type],
// use <name>, help [topic], exit/quit. It returns (nil, false) when line is
// not a builtin, so the caller can fall back to the expression parser.
func ParseBuiltin(line string) (*Builtin, bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false, nil
	}
	head := strings.ToLower(fields[0])

	switch head {
	case "exit", "quit":
		return &Builtin{Kind: BuiltinExit}, true, nil
	case "help":
		topic := ""
		if len(fields) > 1 {
			topic = strings.Join(fields[1:], " ")
		}
		return &Builtin{Kind: BuiltinHelp, Arg: topic}, true, nil
	case "use":
		if len(fields) < 2 {
			return nil, true, fmt.Errorf("use requires a database name")
		}
		name := fields[1]
		if err := ValidateDatabaseName(name); err != nil {
			return nil, true, err
		}
		return &Builtin{Kind: BuiltinUse, Arg: name}, true, nil
	case "show":
		if len(fields) < 2 {
			return nil, true, fmt.Errorf("show requires a target (dbs|collections|users|roles|profile|logs)")
		}
		target := strings.ToLower(fields[1])
		kind, ok := showAliases[target]
		if !ok {
			return nil, true, fmt.Errorf("unknown show target %q", target)
		}
		b := &Builtin{Kind: kind}
		if kind == BuiltinShowLogs && len(fields) > 2 {
			b.Arg = fields[2]
		}
		return b, true, nil
	default:
		return nil, false, nil
	}
}
