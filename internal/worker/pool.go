// Package worker provides the bounded worker pool, per-type rate limiting and
// the fixed-size record batcher used by the batch scheduler.
package worker

import (
	"context"
	"sync"

	"github.com/ppiankov/chronoqa/internal/errors"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of workers. Cancelling the parent context
// stops workers between jobs; jobs still queued are dropped.
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool bound to ctx
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2),
		results:    make(chan Result, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Workers returns the pool size
func (p *Pool) Workers() int {
	return p.workers
}

// Start starts the worker goroutines
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It blocks while the queue is full and fails once the
// pool is cancelled.
func (p *Pool) Submit(job Job) error {
	if err := p.ctx.Err(); err != nil {
		return errors.Wrap(err, "submit job")
	}
	select {
	case <-p.ctx.Done():
		return errors.Wrap(p.ctx.Err(), "submit job")
	case p.jobQueue <- job:
		return nil
	}
}

// Results streams results as they complete. It is closed by Wait.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Wait closes the queue, waits for the workers and closes Results. The
// caller must drain Results concurrently.
func (p *Pool) Wait() {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	p.cancelFunc()
}

// Shutdown cancels the pool and waits for workers to exit. It may be called
// while Results is being drained and concurrently with Wait.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
