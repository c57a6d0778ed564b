package cliconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidationError is a single structural problem found in a config file,
// with a best-effort file:line pointer the way `--config --validate`
// reports it (spec.md §4.15, grounded on original_source/src/config/mod.rs).
type ValidationError struct {
	Line    int
	Column  int
	Message string
}

func (e ValidationError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

var validFormats = map[string]bool{
	"shell": true, "json": true, "json-pretty": true, "table": true, "compact": true,
}

var validLogLevels = map[string]bool{
	"error": true, "warn": true, "info": true, "debug": true, "trace": true,
}

// Validate fully deserializes the YAML file at path and reports the first
// structural or semantic error found, or nil if the file is well-formed.
func Validate(path string) (*ValidationError, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cliconfig: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		if te, ok := err.(*yaml.TypeError); ok {
			return &ValidationError{Message: te.Errors[0]}, nil
		}
		return &ValidationError{Message: err.Error()}, nil
	}

	if cfg.Display.Format != "" && !validFormats[cfg.Display.Format] {
		return &ValidationError{Message: fmt.Sprintf("display.format: unknown format %q", cfg.Display.Format)}, nil
	}
	if cfg.Logging.Level != "" && !validLogLevels[cfg.Logging.Level] {
		return &ValidationError{Message: fmt.Sprintf("logging.level: unknown level %q", cfg.Logging.Level)}, nil
	}
	if cfg.Connection.Timeout < 0 {
		return &ValidationError{Message: "connection.timeout: must be >= 0"}, nil
	}
	if cfg.History.MaxSize < 0 {
		return &ValidationError{Message: "history.max_size: must be >= 0"}, nil
	}

	return nil, nil
}
