package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/logger"
	"github.com/ppiankov/chronoqa/internal/worker"
)

// Queue is a bounded hand-off between the batcher and the writer. Push
// blocks while the queue is full, which in turn blocks the producers.
type Queue struct {
	batches chan worker.Batch
	writer  Writer
	log     *zap.SugaredLogger
}

// Written describes a batch that reached disk
type Written struct {
	Batch worker.Batch
	Path  string
}

// NewQueue creates a queue holding at most size batches
func NewQueue(writer Writer, size int, log *zap.SugaredLogger) *Queue {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Queue{
		batches: make(chan worker.Batch, size),
		writer:  writer,
		log:     log,
	}
}

// Push hands a batch to the writer goroutine
func (q *Queue) Push(ctx context.Context, b worker.Batch) error {
	select {
	case q.batches <- b:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "push batch %d", b.ID)
	}
}

// Close signals that no more batches will be pushed
func (q *Queue) Close() {
	close(q.batches)
}

// Len returns the number of queued batches
func (q *Queue) Len() int {
	return len(q.batches)
}

// Drain writes batches until the queue is closed. It keeps writing after ctx
// is cancelled so batches already accepted are not lost; onWritten runs
// after each successful write. A write error stops the drain, and the caller
// must cancel the producers' context so blocked pushes return.
func (q *Queue) Drain(ctx context.Context, onWritten func(Written)) error {
	writeCtx := context.WithoutCancel(ctx)
	for b := range q.batches {
		path, err := q.writer.Write(writeCtx, b)
		if err != nil {
			return errors.Wrapf(err, "write batch %d", b.ID)
		}

		q.log.Infow("Batch written",
			logger.FieldBatchID, b.ID,
			logger.FieldCount, b.Len(),
			logger.FieldPath, path,
		)
		if onWritten != nil {
			onWritten(Written{Batch: b, Path: path})
		}
	}
	return nil
}
