// Package sink writes record batches to disk.
package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/worker"
)

// Writer persists one batch and returns where it went
type Writer interface {
	Write(ctx context.Context, b worker.Batch) (string, error)
}

// New returns the writer for an output format
func New(fs afero.Fs, dir, format string) (Writer, error) {
	switch format {
	case "csv", "":
		return NewCSVWriter(fs, dir), nil
	case "jsonl":
		return NewJSONLWriter(fs, dir), nil
	default:
		return nil, errors.Mark(errors.Newf("unknown output format %q", format), errors.ErrConfig)
	}
}

// BatchFileName returns the file name of batch id with extension ext
func BatchFileName(id int, ext string) string {
	return fmt.Sprintf("batch_%06d.%s", id, ext)
}

// CSVWriter writes each batch to batch_NNNNNN.csv with a header row
type CSVWriter struct {
	fs  afero.Fs
	dir string
}

// NewCSVWriter creates a CSV writer rooted at dir
func NewCSVWriter(fs afero.Fs, dir string) *CSVWriter {
	return &CSVWriter{fs: fs, dir: dir}
}

// Write encodes the batch and writes it atomically
func (w *CSVWriter) Write(ctx context.Context, b worker.Batch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(model.RecordHeader); err != nil {
		return "", errors.Wrap(err, "write csv header")
	}
	for _, rec := range b.Records {
		if err := cw.Write(rec.Row()); err != nil {
			return "", errors.Wrapf(err, "write record %s", rec.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", errors.Wrap(err, "flush csv")
	}

	return writeFile(w.fs, w.dir, BatchFileName(b.ID, "csv"), buf.Bytes())
}

// JSONLWriter writes each batch to batch_NNNNNN.jsonl, one record per line
type JSONLWriter struct {
	fs  afero.Fs
	dir string
}

// NewJSONLWriter creates a JSON Lines writer rooted at dir
func NewJSONLWriter(fs afero.Fs, dir string) *JSONLWriter {
	return &JSONLWriter{fs: fs, dir: dir}
}

// Write encodes the batch and writes it atomically
func (w *JSONLWriter) Write(ctx context.Context, b worker.Batch) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, rec := range b.Records {
		if err := enc.Encode(rec); err != nil {
			return "", errors.Wrapf(err, "encode record %s", rec.ID)
		}
	}

	return writeFile(w.fs, w.dir, BatchFileName(b.ID, "jsonl"), buf.Bytes())
}

func writeFile(fs afero.Fs, dir, name string, data []byte) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}

	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", name)
	}
	if err := fs.Rename(tmp, path); err != nil {
		return "", errors.Wrapf(err, "rename %s", name)
	}
	return path, nil
}
