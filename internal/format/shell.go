package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mgosh/internal/command"
)

var (
	keyColor  = color.New(color.FgCyan).SprintFunc()
	typeColor = color.New(color.FgYellow).SprintFunc()
	strColor  = color.New(color.FgGreen).SprintFunc()
	numColor  = color.New(color.FgMagenta).SprintFunc()
)

// formatShell renders data the way the shell dialect's REPL prints a value:
// typed constructors (ObjectId(...), ISODate(...), ...) wrapping nested,
// indented documents (spec.md §4.10).
func formatShell(data command.ResultData, f *Formatter) string {
	switch data.Kind {
	case command.RDDocument:
		if data.Document == nil {
			return "null"
		}
		return shellValue(data.Document, f, 0)
	case command.RDDocuments, command.RDDocumentsWithPagination:
		var b strings.Builder
		for i, doc := range data.Documents {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(shellValue(doc, f, 0))
		}
		if data.Kind == command.RDDocumentsWithPagination && data.HasMore {
			b.WriteString(fmt.Sprintf("\nType \"it\" for more (showed %d)", data.Displayed))
		}
		return b.String()
	case command.RDInsertOne:
		return fmt.Sprintf("inserted %s", shellValue(data.InsertedID, f, 0))
	case command.RDInsertMany:
		return fmt.Sprintf("inserted %d document(s)", len(data.InsertedIDs))
	case command.RDUpdate:
		return fmt.Sprintf("matched %d, modified %d", data.Matched, data.Modified)
	case command.RDDelete:
		return fmt.Sprintf("deleted %d", data.Deleted)
	case command.RDCount:
		return strconv.FormatInt(data.Count, 10)
	case command.RDList:
		return strings.Join(data.List, "\n")
	case command.RDMessage:
		return data.Message
	default:
		return ""
	}
}

func shellValue(v any, f *Formatter, level int) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bson.D:
		return shellDocument(x, f, level)
	case bson.M:
		return shellDocument(docFromM(x), f, level)
	case bson.A:
		return shellArray(x, f, level)
	case []any:
		return shellArray(x, f, level)
	case string:
		return f.colorStr(strColor, strconv.Quote(x))
	case bool:
		return fmt.Sprintf("%v", x)
	case int32:
		return f.colorStr(numColor, strconv.FormatInt(int64(x), 10))
	case int64:
		return f.colorStr(typeColor, fmt.Sprintf("NumberLong(%d)", x))
	case float64:
		return f.colorStr(numColor, strconv.FormatFloat(x, 'g', -1, 64))
	case bson.ObjectID:
		return f.colorStr(typeColor, fmt.Sprintf("ObjectId(%q)", x.Hex()))
	case bson.DateTime:
		return f.colorStr(typeColor, fmt.Sprintf("ISODate(%q)", x.Time().UTC().Format("2006-01-02T15:04:05.000Z")))
	case bson.Decimal128:
		return f.colorStr(typeColor, fmt.Sprintf("NumberDecimal(%q)", x.String()))
	case bson.Regex:
		return fmt.Sprintf("/%s/%s", x.Pattern, x.Options)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func docFromM(m bson.M) bson.D {
	d := make(bson.D, 0, len(m))
	for k, v := range m {
		d = append(d, bson.E{Key: k, Value: v})
	}
	return d
}

func shellDocument(d bson.D, f *Formatter, level int) string {
	if len(d) == 0 {
		return "{}"
	}
	indent := strings.Repeat(" ", f.Indent*(level+1))
	closeIndent := strings.Repeat(" ", f.Indent*level)
	var b strings.Builder
	b.WriteString("{\n")
	for i, e := range d {
		b.WriteString(indent)
		b.WriteString(f.colorStr(keyColor, e.Key))
		b.WriteString(": ")
		b.WriteString(shellValue(e.Value, f, level+1))
		if i < len(d)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(closeIndent)
	b.WriteString("}")
	return b.String()
}

func shellArray(a []any, f *Formatter, level int) string {
	if len(a) == 0 {
		return "[]"
	}
	indent := strings.Repeat(" ", f.Indent*(level+1))
	closeIndent := strings.Repeat(" ", f.Indent*level)
	var b strings.Builder
	b.WriteString("[\n")
	for i, v := range a {
		b.WriteString(indent)
		b.WriteString(shellValue(v, f, level+1))
		if i < len(a)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(closeIndent)
	b.WriteString("]")
	return b.String()
}

// colorStr applies fn only when f.Color is set (spec.md §4.10 "Color
// application is gated on both the user setting and output format").
func (f *Formatter) colorStr(fn func(a ...any) string, s string) string {
	if !f.Color {
		return s
	}
	return fn(s)
}
