package format

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mgosh/internal/command"
)

// formatTable renders Documents/DocumentsWithPagination as a table whose
// header is the union of field names across all rows, `_id` forced first
// (spec.md §4.10 "Table mode").
func formatTable(data command.ResultData, f *Formatter) string {
	switch data.Kind {
	case command.RDDocument:
		if data.Document == nil {
			return "(no document)"
		}
		return renderTable([]bson.D{data.Document}, f)
	case command.RDDocuments, command.RDDocumentsWithPagination:
		if len(data.Documents) == 0 {
			return "(no documents)"
		}
		out := renderTable(data.Documents, f)
		if data.Kind == command.RDDocumentsWithPagination && data.HasMore {
			out += fmt.Sprintf("\nType \"it\" for more (showed %d)", data.Displayed)
		}
		return out
	default:
		return formatShell(data, f)
	}
}

func renderTable(docs []bson.D, f *Formatter) string {
	headers := unionFieldNames(docs)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)

	for _, doc := range docs {
		values := make(map[string]any, len(doc))
		for _, e := range doc {
			values[e.Key] = e.Value
		}
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = truncate(tableCell(values[h]), f.MaxColumnWidth)
		}
		table.Append(row)
	}
	table.Render()
	return strings.TrimRight(buf.String(), "\n")
}

// unionFieldNames collects every field name across docs, forcing "_id"
// first and sorting the remaining names alphabetically.
func unionFieldNames(docs []bson.D) []string {
	seen := map[string]bool{}
	var names []string
	hasID := false
	for _, doc := range docs {
		for _, e := range doc {
			if e.Key == "_id" {
				hasID = true
				continue
			}
			if !seen[e.Key] {
				seen[e.Key] = true
				names = append(names, e.Key)
			}
		}
	}
	sort.Strings(names)
	if hasID {
		return append([]string{"_id"}, names...)
	}
	return names
}

// tableCell renders a value as a single table cell, summarizing arrays and
// sub-documents beyond a small inline threshold (spec.md §4.10 "inlines
// small arrays/documents while summarizing larger ones").
func tableCell(v any) string {
	const inlineThreshold = 3
	switch x := v.(type) {
	case nil:
		return ""
	case bson.D:
		if len(x) <= inlineThreshold {
			return compactInline(x)
		}
		return fmt.Sprintf("Object(%d)", len(x))
	case bson.A:
		if len(x) <= inlineThreshold {
			parts := make([]string, len(x))
			for i, e := range x {
				parts[i] = tableCell(e)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		}
		return fmt.Sprintf("Array(%d)", len(x))
	case bson.ObjectID:
		return x.Hex()
	case bson.DateTime:
		return x.Time().UTC().Format("2006-01-02T15:04:05Z")
	case bson.Decimal128:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

func compactInline(d bson.D) string {
	parts := make([]string, len(d))
	for i, e := range d {
		parts[i] = fmt.Sprintf("%s: %s", e.Key, tableCell(e.Value))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
