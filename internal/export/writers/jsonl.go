// Package writers implements the export FormatWriter for each supported
// format (spec.md §4.9/§4.10).
package writers

import (
	"bufio"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// bufferSize is the writer's buffered-output size (spec.md §5 "File writers
// are buffered (8 MiB)").
const bufferSize = 8 * 1024 * 1024

// JSONL writes one MongoDB Extended JSON document per line (spec.md §8
// "JSONL is line-addressable").
type JSONL struct {
	file *os.File
	buf  *bufio.Writer
}

// NewJSONL creates (or truncates) path and wraps it in an 8 MiB buffer.
func NewJSONL(path string) (*JSONL, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &JSONL{file: f, buf: bufio.NewWriterSize(f, bufferSize)}, nil
}

// WriteBatch appends each document as one extended-JSON line.
func (w *JSONL) WriteBatch(docs []bson.D) error {
	for _, doc := range docs {
		line, err := bson.MarshalExtJSON(doc, false, false)
		if err != nil {
			return err
		}
		if _, err := w.buf.Write(line); err != nil {
			return err
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Finalize flushes and closes the underlying file.
func (w *JSONL) Finalize() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// FileSize reports the file's current size on disk.
func (w *JSONL) FileSize() (int64, error) {
	info, err := os.Stat(w.file.Name())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
