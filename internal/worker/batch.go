package worker

import (
	"context"

	"github.com/ppiankov/chronoqa/internal/model"
)

// Batch is a fixed-size group of accepted records sharing a batch id
type Batch struct {
	ID      int
	Records []model.Record
}

// Len returns the number of records in the batch
func (b Batch) Len() int {
	return len(b.Records)
}

// Batcher groups records into batches of a fixed size and hands full batches
// to the emit callback. A Batcher is owned by a single goroutine.
type Batcher struct {
	size    int
	nextID  int
	pending []model.Record
	emit    func(ctx context.Context, b Batch) error
}

// NewBatcher creates a batcher whose first batch carries firstID. Resumed
// runs pass the id after the last batch written.
func NewBatcher(size, firstID int, emit func(ctx context.Context, b Batch) error) *Batcher {
	if size <= 0 {
		size = 1
	}
	if firstID <= 0 {
		firstID = 1
	}
	return &Batcher{
		size:    size,
		nextID:  firstID,
		pending: make([]model.Record, 0, min(size, 4096)),
		emit:    emit,
	}
}

// Add stamps the record with the current batch id and emits the batch once
// it is full. Emit errors, including backpressure cancellation, are returned.
func (b *Batcher) Add(ctx context.Context, rec model.Record) error {
	rec.BatchID = b.nextID
	b.pending = append(b.pending, rec)
	if len(b.pending) < b.size {
		return nil
	}
	return b.Flush(ctx)
}

// Flush emits the partial batch, if any
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	batch := Batch{ID: b.nextID, Records: b.pending}
	b.pending = make([]model.Record, 0, cap(b.pending))
	b.nextID++

	return b.emit(ctx, batch)
}

// NextID returns the id the next batch will carry
func (b *Batcher) NextID() int {
	return b.nextID
}

// Pending returns the number of records not yet emitted
func (b *Batcher) Pending() int {
	return len(b.pending)
}
