// Package exec implements the execution context and command router
// (spec.md §4.5): it dispatches a Command to the matching executor, gating
// destructive operations behind ConfirmPolicy and post-processing Pipe
// commands (Export/Explain).
package exec

import (
	"context"
	"fmt"
	"path/filepath"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dwoolworth/mgosh/internal/command"
	"github.com/dwoolworth/mgosh/internal/exec/admin"
	"github.com/dwoolworth/mgosh/internal/exec/query"
	"github.com/dwoolworth/mgosh/internal/export"
	"github.com/dwoolworth/mgosh/internal/export/writers"
	"github.com/dwoolworth/mgosh/internal/session"
)

// Context owns every per-session executor and the confirmation policy
// (spec.md §4.5 "Execution context").
type Context struct {
	Query   *query.Executor
	Admin   *admin.Executor
	Confirm ConfirmPolicy
	State   *session.SharedState

	// ProgressLog, if set, receives streaming-export progress lines.
	ProgressLog func(documentsExported int64)
}

// New returns a Context bound to db, identified to the server as clientID.
func New(db *mongo.Database, clientID string, state *session.SharedState, confirm ConfirmPolicy) *Context {
	return &Context{
		Query:   query.New(db, clientID, state),
		Admin:   admin.New(db.Client(), state),
		Confirm: confirm,
		State:   state,
	}
}

// Execute dispatches cmd to its matching executor (spec.md §4.5).
func (c *Context) Execute(ctx context.Context, cmd *command.Command) command.ExecutionResult {
	if !c.Confirm.Confirm(cmd) {
		return command.ExecutionResult{
			Success: true,
			Data:    command.ResultData{Kind: command.RDMessage, Message: "Operation cancelled by user"},
		}
	}

	switch cmd.Kind {
	case command.KindQuery:
		return c.Query.Run(ctx, cmd.Query)
	case command.KindAdmin:
		return c.Admin.Run(ctx, cmd.Admin)
	case command.KindUtility:
		return c.Admin.RunUtility(ctx, cmd.Utility)
	case command.KindConfig:
		return c.Admin.RunConfig(cmd.Config)
	case command.KindHelp:
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDMessage, Message: helpText(cmd.HelpTopic)}}
	case command.KindExit:
		return command.ExecutionResult{Success: true, Data: command.ResultData{Kind: command.RDMessage, Message: "exit"}}
	case command.KindPipe:
		return c.executePipe(ctx, cmd)
	default:
		return command.ExecutionResult{Success: false, Err: "unsupported command"}
	}
}

func (c *Context) executePipe(ctx context.Context, cmd *command.Command) command.ExecutionResult {
	switch cmd.Post.Kind {
	case command.PipeExplain:
		if cmd.Inner.Kind != command.KindQuery {
			return command.ExecutionResult{Success: false, Err: "explain is only supported for query commands"}
		}
		explainCmd, err := command.NewExplain(cmd.Inner.Query, command.QueryPlanner)
		if err != nil {
			return command.ExecutionResult{Success: false, Err: err.Error()}
		}
		return c.Query.Run(ctx, explainCmd)
	case command.PipeExport:
		return c.executeExport(ctx, cmd)
	default:
		return command.ExecutionResult{Success: false, Err: "unsupported pipe post-processor"}
	}
}

func (c *Context) executeExport(ctx context.Context, cmd *command.Command) command.ExecutionResult {
	if cmd.Inner.Kind != command.KindQuery {
		return command.ExecutionResult{Success: false, Err: "export is only supported for query commands"}
	}
	start := command.Now()
	cur, err := c.Query.OpenCursor(ctx, cmd.Inner.Query)
	if err != nil {
		return command.ExecutionResult{Success: false, Err: err.Error()}
	}

	path := cmd.Post.File
	if path == "" {
		path = defaultExportFile(cmd.Inner.Query.Collection, cmd.Post.Format)
	}

	writer, err := newWriter(path, cmd.Post.Format)
	if err != nil {
		_ = cur.Close(ctx)
		return command.ExecutionResult{Success: false, Err: err.Error()}
	}

	coordinator := export.New(export.NewCursorQuery(cur, 0), writer, &export.ProgressTracker{Every: 10, Log: c.ProgressLog})
	result, err := coordinator.Run(ctx)
	elapsed := command.Now().Sub(start)
	if err != nil {
		return command.ExecutionResult{Success: false, Err: err.Error(), Stats: command.Stats{ExecutionTimeMS: elapsed.Milliseconds()}}
	}

	return command.ExecutionResult{
		Success: true,
		Data: command.ResultData{
			Kind:    command.RDMessage,
			Message: fmt.Sprintf("exported %d document(s) to %s (%d bytes, cancelled=%v)", result.DocumentsExported, path, result.FileSizeBytes, result.Cancelled),
		},
		Stats: command.Stats{ExecutionTimeMS: elapsed.Milliseconds(), DocumentsReturned: result.DocumentsExported},
	}
}

func newWriter(path string, format command.PipeFormat) (export.Writer, error) {
	switch format {
	case command.FormatCSV:
		return writers.NewCSV(path)
	default:
		return writers.NewJSONL(path)
	}
}

func defaultExportFile(collection string, format command.PipeFormat) string {
	ext := "jsonl"
	if format == command.FormatCSV {
		ext = "csv"
	}
	return filepath.Join(".", fmt.Sprintf("%s.%s", collection, ext))
}

func helpText(topic string) string {
	if topic == "" {
		return "mgosh: type shell-dialect (db.collection.find(...)) or SQL (SELECT ...) commands; 'help <topic>' for details, 'exit' to quit."
	}
	return fmt.Sprintf("no help topic %q", topic)
}
