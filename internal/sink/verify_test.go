package sink

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/worker"
)

// distinctBatch is sampleBatch with ids unique to the batch and valid difficulties
func distinctBatch(id int) worker.Batch {
	b := sampleBatch(id)
	for i := range b.Records {
		b.Records[i].ID = fmt.Sprintf("%s-%d", b.Records[i].ID, id)
		b.Records[i].Difficulty = 2
	}
	return b
}

func writeBatches(t *testing.T, w Writer, batches ...worker.Batch) {
	t.Helper()
	for _, b := range batches {
		_, err := w.Write(context.Background(), b)
		require.NoError(t, err)
	}
}

func TestVerify_AcceptsWrittenBatches(t *testing.T) {
	for _, format := range []string{"csv", "jsonl"} {
		t.Run(format, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			w, err := New(fs, "/out", format)
			require.NoError(t, err)
			writeBatches(t, w, distinctBatch(1), distinctBatch(2), distinctBatch(3))

			report, err := Verify(fs, "/out", format, 2)
			require.NoError(t, err)
			assert.True(t, report.OK(), "%v", report.Problems)
			assert.Equal(t, 3, report.Batches)
			assert.Equal(t, 6, report.Records)
			assert.Equal(t, 3, report.ByType["comparison_event"])
		})
	}
}

func TestVerify_ReportsProblems(t *testing.T) {
	tests := []struct {
		desc    string
		prepare func(t *testing.T, fs afero.Fs)
		want    string
	}{
		{"no files", func(t *testing.T, fs afero.Fs) { require.NoError(t, fs.MkdirAll("/out", 0o755)) }, "no csv batch files"},
		{"gap in batch ids", func(t *testing.T, fs afero.Fs) {
			writeBatches(t, NewCSVWriter(fs, "/out"), distinctBatch(1), distinctBatch(3))
		}, "batch 2 missing"},
		{"duplicate record ids", func(t *testing.T, fs afero.Fs) {
			b := distinctBatch(2)
			b.Records[0].ID = distinctBatch(1).Records[0].ID
			writeBatches(t, NewCSVWriter(fs, "/out"), distinctBatch(1), b)
		}, "already in batch_000001.csv"},
		{"batch id mismatch", func(t *testing.T, fs afero.Fs) {
			b := distinctBatch(1)
			b.Records[1].BatchID = 9
			writeBatches(t, NewCSVWriter(fs, "/out"), b)
		}, "carries batch id 9"},
		{"oversized batch", func(t *testing.T, fs afero.Fs) {
			b := distinctBatch(1)
			b.Records = append(b.Records, distinctBatch(5).Records...)
			for i := range b.Records {
				b.Records[i].BatchID = 1
			}
			writeBatches(t, NewCSVWriter(fs, "/out"), b)
		}, "batch size is 2"},
		{"wrong header", func(t *testing.T, fs afero.Fs) {
			require.NoError(t, fs.MkdirAll("/out", 0o755))
			require.NoError(t, afero.WriteFile(fs, "/out/batch_000001.csv", []byte("id,question\nx,y\n"), 0o644))
		}, "header does not match"},
		{"short row", func(t *testing.T, fs afero.Fs) {
			writeBatches(t, NewCSVWriter(fs, "/out"), distinctBatch(1))
			data, err := afero.ReadFile(fs, "/out/batch_000001.csv")
			require.NoError(t, err)
			require.NoError(t, afero.WriteFile(fs, "/out/batch_000001.csv", append(data, []byte("a,b,c\n")...), 0o644))
		}, "has 3 fields"},
		{"leftover temp file", func(t *testing.T, fs afero.Fs) {
			writeBatches(t, NewCSVWriter(fs, "/out"), distinctBatch(1))
			require.NoError(t, afero.WriteFile(fs, "/out/batch_000002.csv.tmp", nil, 0o644))
		}, "incomplete write"},
		{"unknown question type", func(t *testing.T, fs afero.Fs) {
			b := distinctBatch(1)
			b.Records[0].QuestionType = "trivia"
			writeBatches(t, NewCSVWriter(fs, "/out"), b)
		}, "unknown question type"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			tt.prepare(t, fs)

			report, err := Verify(fs, "/out", "csv", 2)
			require.NoError(t, err)
			require.False(t, report.OK())
			assert.Contains(t, strings.Join(report.Problems, "\n"), tt.want)
		})
	}
}

func TestVerify_JSONLRejectsUnknownFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBatches(t, NewJSONLWriter(fs, "/out"), distinctBatch(1))
	require.NoError(t, afero.WriteFile(fs, "/out/batch_000002.jsonl", []byte(`{"id":"x","batch_id":2,"extra":true}`+"\n"), 0o644))

	report, err := Verify(fs, "/out", "jsonl", 0)
	require.NoError(t, err)
	assert.Contains(t, strings.Join(report.Problems, "\n"), "batch_000002.jsonl: line 1")
}

func TestVerify_Errors(t *testing.T) {
	_, err := Verify(afero.NewMemMapFs(), "/out", "parquet", 0)
	assert.True(t, errors.Is(err, errors.ErrConfig))

	_, err = Verify(afero.NewMemMapFs(), "/missing", "csv", 0)
	assert.Error(t, err)
}
