package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

func records(n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.Record{ID: string(rune('a' + i)), QuestionType: string(model.AttributeEvent)}
	}
	return out
}

func TestBatcher_FixedSizeBatches(t *testing.T) {
	var got []Batch
	b := NewBatcher(3, 1, func(_ context.Context, batch Batch) error {
		got = append(got, batch)
		return nil
	})

	ctx := context.Background()
	for _, rec := range records(7) {
		require.NoError(t, b.Add(ctx, rec))
	}
	assert.Equal(t, 1, b.Pending())
	require.NoError(t, b.Flush(ctx))

	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 3, 1}, []int{got[0].Len(), got[1].Len(), got[2].Len()})
	for i, batch := range got {
		assert.Equal(t, i+1, batch.ID)
		for _, rec := range batch.Records {
			assert.Equal(t, batch.ID, rec.BatchID)
		}
	}
	assert.Equal(t, 4, b.NextID())
}

func TestBatcher_ResumesFromID(t *testing.T) {
	var ids []int
	b := NewBatcher(2, 12, func(_ context.Context, batch Batch) error {
		ids = append(ids, batch.ID)
		return nil
	})
	for _, rec := range records(4) {
		require.NoError(t, b.Add(context.Background(), rec))
	}
	assert.Equal(t, []int{12, 13}, ids)
}

func TestBatcher_EmptyFlushIsNoop(t *testing.T) {
	called := false
	b := NewBatcher(2, 1, func(context.Context, Batch) error {
		called = true
		return nil
	})
	require.NoError(t, b.Flush(context.Background()))
	assert.False(t, called)
	assert.Equal(t, 1, b.NextID())
}

func TestBatcher_PropagatesEmitError(t *testing.T) {
	b := NewBatcher(1, 1, func(context.Context, Batch) error {
		return errors.New("sink closed")
	})
	err := b.Add(context.Background(), records(1)[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink closed")
}
