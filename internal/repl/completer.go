package repl

import (
	"strings"

	"github.com/dwoolworth/mgosh/internal/parser/sqlparse"
)

// shellOps is the set of db.<collection>.<op>( completions offered after a
// trailing dot, grounded on the QueryOp/AdminOp sets in internal/command.
var shellOps = []string{
	"find(", "findOne(", "insertOne(", "insertMany(", "updateOne(", "updateMany(",
	"replaceOne(", "deleteOne(", "deleteMany(", "aggregate(", "countDocuments(",
	"estimatedDocumentCount(", "distinct(", "findOneAndDelete(", "findOneAndUpdate(",
	"findOneAndReplace(", "bulkWrite(", "explain(", "createIndex(", "createIndexes(",
	"dropIndex(", "dropIndexes(", "getIndexes(", "drop(", "renameCollection(", "stats(",
}

var shellBuiltins = []string{
	"show dbs", "show databases", "show collections", "show users", "show roles",
	"show profile", "show logs", "use ", "help", "exit", "quit",
}

var sqlKeywords = []string{
	"SELECT", "FROM", "WHERE", "GROUP BY", "ORDER BY", "HAVING", "LIMIT", "OFFSET",
	"AS", "AND", "OR", "NOT", "IN", "LIKE", "IS", "NULL", "TRUE", "FALSE", "ASC", "DESC",
	"EXPLAIN", "COUNT", "SUM", "AVG", "MIN", "MAX",
}

// CollectionLister supplies live collection names for FROM-clause / chain
// completion; the REPL wires this to the current session's database.
type CollectionLister func() []string

// Completer implements github.com/chzyer/readline's AutoCompleter, dispatching
// to shell or SQL candidate sets by leading keyword (SELECT or EXPLAIN
// selects SQL; unlike ParseLine, EXPLAIN is not required to be followed by
// SELECT) (spec.md §4.2's autocomplete examples, §9 "autocomplete
// engine and execution path share the same Outcome type").
type Completer struct {
	Collections CollectionLister
}

// Do implements readline.AutoCompleter's Do(line []rune, pos int) contract:
// return every candidate's suffix past the shared prefix, plus that shared
// length.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	word := lastWord(text)

	var candidates []string
	if looksLikeSQL(text) {
		candidates = c.sqlCandidates(text)
	} else {
		candidates = c.shellCandidates(text)
	}

	var out [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(strings.ToLower(cand), strings.ToLower(word)) && len(cand) >= len(word) {
			out = append(out, []rune(cand[len(word):]))
		}
	}
	return out, len(word)
}

func looksLikeSQL(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "EXPLAIN":
		return true
	default:
		return false
	}
}

func (c *Completer) sqlCandidates(text string) []string {
	outcome := sqlparse.Parse(text)
	if outcome.Status != sqlparse.StatusPartial {
		return sqlKeywords
	}
	var out []string
	for _, e := range outcome.Expected {
		switch e.Kind {
		case sqlparse.ExpectedKeyword:
			out = append(out, e.Keyword)
		case sqlparse.ExpectedTableName:
			if c.Collections != nil {
				out = append(out, c.Collections()...)
			}
		case sqlparse.ExpectedAggregateFunction:
			out = append(out, "COUNT(", "SUM(", "AVG(", "MIN(", "MAX(")
		}
	}
	if len(out) == 0 {
		out = sqlKeywords
	}
	return out
}

func (c *Completer) shellCandidates(text string) []string {
	if strings.HasPrefix(strings.TrimSpace(text), "db.") && strings.Count(text, ".") >= 2 {
		return shellOps
	}
	if strings.HasPrefix(strings.TrimSpace(text), "db.") {
		if c.Collections != nil {
			return c.Collections()
		}
		return nil
	}
	return shellBuiltins
}

// lastWord returns the final whitespace/dot-delimited token of text, the
// unit readline expects completions to extend.
func lastWord(text string) string {
	idx := strings.LastIndexAny(text, " \t.(")
	if idx < 0 {
		return text
	}
	return text[idx+1:]
}
