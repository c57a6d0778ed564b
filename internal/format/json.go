package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dwoolworth/mgosh/internal/command"
)

// formatJSON renders data as simplified JSON: ObjectId/ISODate/Long render
// as plain strings/numbers rather than extended-JSON wrapper objects
// (spec.md §4.10 "Compact-JSON is single-line simplified JSON").
func formatJSON(data command.ResultData, pretty bool) string {
	v := simplifiedJSONValue(data)
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf("Error: could not render result as JSON: %v", err)
	}
	return string(out)
}

func simplifiedJSONValue(data command.ResultData) any {
	switch data.Kind {
	case command.RDDocument:
		return simplify(data.Document)
	case command.RDDocuments, command.RDDocumentsWithPagination:
		docs := make([]any, len(data.Documents))
		for i, d := range data.Documents {
			docs[i] = simplify(d)
		}
		return docs
	case command.RDInsertOne:
		return map[string]any{"insertedId": simplify(data.InsertedID)}
	case command.RDInsertMany:
		ids := make([]any, len(data.InsertedIDs))
		for i, id := range data.InsertedIDs {
			ids[i] = simplify(id)
		}
		return map[string]any{"insertedIds": ids}
	case command.RDUpdate:
		return map[string]any{"matchedCount": data.Matched, "modifiedCount": data.Modified}
	case command.RDDelete:
		return map[string]any{"deletedCount": data.Deleted}
	case command.RDCount:
		return data.Count
	case command.RDList:
		return data.List
	case command.RDMessage:
		return map[string]any{"message": data.Message}
	default:
		return nil
	}
}

// simplify walks a BSON value, rendering ObjectId/DateTime/Decimal128 as
// their plain string/number forms instead of extended-JSON sub-documents.
func simplify(v any) any {
	switch x := v.(type) {
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = simplify(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = simplify(val)
		}
		return m
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = simplify(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = simplify(e)
		}
		return out
	case bson.ObjectID:
		return x.Hex()
	case bson.DateTime:
		return x.Time().UTC().Format("2006-01-02T15:04:05.000Z")
	case bson.Decimal128:
		return x.String()
	case bson.Regex:
		return strings.TrimSpace(fmt.Sprintf("/%s/%s", x.Pattern, x.Options))
	default:
		return x
	}
}
