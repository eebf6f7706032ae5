package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/worker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleBatch(id int) worker.Batch {
	return worker.Batch{ID: id, Records: []model.Record{
		{
			ID:                  "0b7e7f5c-1b1e-5c3e-9a55-3d8e0f1f2a01",
			Question:            "Which started earlier, World War I or World War II?",
			Answer:              "World War I",
			QuestionType:        string(model.ComparisonEvent),
			Difficulty:          2,
			TemporalGranularity: string(model.GranularityDecade),
			TimeSpanStart:       "1914-07-28",
			TimeSpanEnd:         "1945-09-02",
			EntitiesQuestion:    []string{"World War I", "World War II"},
			CountriesQuestion:   []string{"FR", "DE"},
			HopCount:            2,
			ConfidenceScore:     0.95,
			Domain:              "military",
			ComplexityScore:     0.32,
			SourceType:          string(model.SourceCurated),
			BatchID:             id,
		},
		{
			ID:           "0b7e7f5c-1b1e-5c3e-9a55-3d8e0f1f2a02",
			Question:     "How many years did the Cold War, with its \"iron curtain\", last?",
			Answer:       "44 years",
			QuestionType: string(model.DurationEstimation),
			BatchID:      id,
		},
	}}
}

func TestBatchFileName(t *testing.T) {
	assert.Equal(t, "batch_000001.csv", BatchFileName(1, "csv"))
	assert.Equal(t, "batch_123456.jsonl", BatchFileName(123456, "jsonl"))
}

func TestCSVWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewCSVWriter(fs, "/out")

	path, err := w.Write(context.Background(), sampleBatch(7))
	require.NoError(t, err)
	assert.Equal(t, "/out/batch_000007.csv", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.RecordHeader, rows[0])
	assert.Equal(t, "World War I|World War II", rows[1][8])
	assert.Equal(t, "0.950", rows[1][11])
	assert.Equal(t, "7", rows[1][16])
	assert.Contains(t, rows[2][1], `"iron curtain"`)
}

func TestJSONLWriter(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewJSONLWriter(fs, "/out")

	path, err := w.Write(context.Background(), sampleBatch(2))
	require.NoError(t, err)

	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []model.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec model.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, sampleBatch(2).Records, got)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), "/out", "parquet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfig))
}

func TestQueue_DrainWritesInOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	q := NewQueue(NewCSVWriter(fs, "/out"), 2, zaptest.NewLogger(t).Sugar())

	ctx := context.Background()
	done := make(chan error, 1)
	var written []int
	go func() {
		done <- q.Drain(ctx, func(w Written) { written = append(written, w.Batch.ID) })
	}()

	for id := 1; id <= 5; id++ {
		require.NoError(t, q.Push(ctx, sampleBatch(id)))
	}
	q.Close()

	require.NoError(t, <-done)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, written)

	files, err := afero.ReadDir(fs, "/out")
	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestQueue_PushBlocksWhenFull(t *testing.T) {
	q := NewQueue(NewCSVWriter(afero.NewMemMapFs(), "/out"), 1, nil)
	require.NoError(t, q.Push(context.Background(), sampleBatch(1)))
	assert.Equal(t, 1, q.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Push(ctx, sampleBatch(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type failingWriter struct{}

func (failingWriter) Write(context.Context, worker.Batch) (string, error) {
	return "", errors.New("disk full")
}

func TestQueue_DrainStopsOnWriteError(t *testing.T) {
	q := NewQueue(failingWriter{}, 4, nil)
	require.NoError(t, q.Push(context.Background(), sampleBatch(1)))
	q.Close()

	err := q.Drain(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
