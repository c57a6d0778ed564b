package logging

import (
	"path/filepath"
	"testing"
)

func TestConfigureTraceMapsToDebugWithFlag(t *testing.T) {
	if err := Configure(Options{Level: "trace"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if L() == nil {
		t.Fatal("expected a non-nil logger after Configure")
	}
}

func TestConfigureWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mgosh.log")
	if err := Configure(Options{Level: "info", FilePath: path}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	Info("hello", "k", "v")
	_ = Configure(Options{Level: "info"})
}
