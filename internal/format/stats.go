package format

import (
	"fmt"

	"github.com/dwoolworth/mgosh/internal/command"
)

// formatSummary renders only counts/messages and timing, the terse mode for
// scripted/non-interactive runs (spec.md §4.10 "Compact-summary mode prints
// only counts/messages").
func formatSummary(res command.ExecutionResult) string {
	d := res.Data
	switch d.Kind {
	case command.RDDocuments, command.RDDocumentsWithPagination:
		return fmt.Sprintf("%d document(s) (%dms)", len(d.Documents), res.Stats.ExecutionTimeMS)
	case command.RDDocument:
		if d.Document == nil {
			return fmt.Sprintf("0 document(s) (%dms)", res.Stats.ExecutionTimeMS)
		}
		return fmt.Sprintf("1 document (%dms)", res.Stats.ExecutionTimeMS)
	case command.RDInsertOne:
		return fmt.Sprintf("inserted 1 (%dms)", res.Stats.ExecutionTimeMS)
	case command.RDInsertMany:
		return fmt.Sprintf("inserted %d (%dms)", len(d.InsertedIDs), res.Stats.ExecutionTimeMS)
	case command.RDUpdate:
		return fmt.Sprintf("matched %d, modified %d (%dms)", d.Matched, d.Modified, res.Stats.ExecutionTimeMS)
	case command.RDDelete:
		return fmt.Sprintf("deleted %d (%dms)", d.Deleted, res.Stats.ExecutionTimeMS)
	case command.RDCount:
		return fmt.Sprintf("%d (%dms)", d.Count, res.Stats.ExecutionTimeMS)
	case command.RDList:
		return fmt.Sprintf("%d item(s) (%dms)", len(d.List), res.Stats.ExecutionTimeMS)
	case command.RDMessage:
		return d.Message
	default:
		return fmt.Sprintf("ok (%dms)", res.Stats.ExecutionTimeMS)
	}
}
