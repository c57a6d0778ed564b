// Package format renders an ExecutionResult as a string under one of the
// five documented modes (spec.md §4.10).
package format

import (
	"fmt"

	"github.com/dwoolworth/mgosh/internal/command"
)

// Mode selects the rendering strategy.
type Mode int

const (
	ModeShell Mode = iota
	ModeCompactJSON
	ModePrettyJSON
	ModeTable
	ModeCompactSummary
)

// ParseMode maps the CLI/config `--format` values to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "shell", "":
		return ModeShell, nil
	case "json":
		return ModeCompactJSON, nil
	case "json-pretty":
		return ModePrettyJSON, nil
	case "table":
		return ModeTable, nil
	case "compact":
		return ModeCompactSummary, nil
	default:
		return ModeShell, fmt.Errorf("unknown format %q: valid options are shell, json, json-pretty, table, compact", s)
	}
}

// Formatter renders ExecutionResults under a fixed Mode and color/width
// configuration (spec.md §4.10).
type Formatter struct {
	Mode           Mode
	Color          bool
	Indent         int
	MaxColumnWidth int
}

// New returns a Formatter with the documented defaults (2-space indent, 32
// character column cap).
func New(mode Mode, color bool) *Formatter {
	return &Formatter{Mode: mode, Color: color, Indent: 2, MaxColumnWidth: 32}
}

// Format renders res under f's mode. Color is only ever applied in Shell
// and Table mode (spec.md §4.10 "gated on both the user setting and output
// format").
func (f *Formatter) Format(res command.ExecutionResult) string {
	if !res.Success {
		return renderError(res.Err)
	}
	switch f.Mode {
	case ModeCompactJSON:
		return formatJSON(res.Data, false)
	case ModePrettyJSON:
		return formatJSON(res.Data, true)
	case ModeTable:
		return formatTable(res.Data, f)
	case ModeCompactSummary:
		return formatSummary(res)
	default:
		return formatShell(res.Data, f)
	}
}

func renderError(msg string) string {
	return "Error: " + msg
}
