package writers

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CSV writes one row per document, growing its column set as later batches
// introduce fields the first document didn't have (spec.md §4.9
// "best-effort widening"). The header row, once written, is never rewritten,
// so rows flushed before a widening batch stay narrower than later ones;
// rows within the batch that discovers the new fields already see them.
type CSV struct {
	file    *os.File
	buf     *bufio.Writer
	w       *csv.Writer
	columns []string
	colSet  map[string]bool
	Warn    func(msg string)
}

// NewCSV creates (or truncates) path and wraps it in an 8 MiB buffer.
func NewCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriterSize(f, bufferSize)
	return &CSV{file: f, buf: buf, w: csv.NewWriter(buf)}, nil
}

// WriteBatch appends each document as one row. The first batch's fields
// become the header; any batch afterward may still grow the column set.
func (w *CSV) WriteBatch(docs []bson.D) error {
	if len(docs) == 0 {
		return nil
	}

	if w.columns == nil {
		w.collectHeaders(docs)
		if err := w.w.Write(w.columns); err != nil {
			return err
		}
	} else if added := w.collectHeaders(docs); added > 0 && w.Warn != nil {
		w.Warn(fmt.Sprintf("discovered %d new field(s) in a later batch; rows already written will have empty values for them", added))
	}

	for _, doc := range docs {
		values := make(map[string]string, len(doc))
		for _, e := range doc {
			values[e.Key] = csvValue(e.Value)
		}
		row := make([]string, len(w.columns))
		for i, col := range w.columns {
			row[i] = values[col]
		}
		if err := w.w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// collectHeaders grows w.columns with any field present in docs but not
// already known, appending in first-seen order, and reports how many
// fields were newly added.
func (w *CSV) collectHeaders(docs []bson.D) int {
	if w.columns == nil {
		w.columns = make([]string, 0, len(docs))
		w.colSet = make(map[string]bool)
	}
	added := 0
	for _, doc := range docs {
		for _, e := range doc {
			if !w.colSet[e.Key] {
				w.colSet[e.Key] = true
				w.columns = append(w.columns, e.Key)
				added++
			}
		}
	}
	return added
}

func csvValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bson.D, bson.A:
		ext, err := bson.MarshalExtJSON(x, false, false)
		if err != nil {
			return fmt.Sprintf("%v", x)
		}
		return string(ext)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Finalize flushes the csv.Writer, the buffer, and closes the file.
func (w *CSV) Finalize() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		_ = w.buf.Flush()
		_ = w.file.Close()
		return err
	}
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// FileSize reports the file's current size on disk.
func (w *CSV) FileSize() (int64, error) {
	info, err := os.Stat(w.file.Name())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
