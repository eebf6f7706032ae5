// Package schedule drives question generation across types and partitions
// until every type is satisfied or exhausted.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/chronoqa/internal/checkpoint"
	"github.com/ppiankov/chronoqa/internal/dedup"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/generate"
	"github.com/ppiankov/chronoqa/internal/logger"
	"github.com/ppiankov/chronoqa/internal/metrics"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/pipeline"
	"github.com/ppiankov/chronoqa/internal/sink"
	"github.com/ppiankov/chronoqa/internal/worker"
)

// Options sizes a run
type Options struct {
	Seed        int64
	Types       []model.QuestionType
	Targets     map[model.QuestionType]int
	Partitions  int
	Workers     int
	BatchSize   int
	QueueSize   int
	RatePerType float64
	Rates       map[model.QuestionType]float64 // per-type overrides of RatePerType
}

// OptionsFromConfig derives run options from the configuration
func OptionsFromConfig(cfg *model.Config) Options {
	types := cfg.EnabledTypes()
	targets := make(map[model.QuestionType]int, len(types))
	for _, t := range types {
		targets[t] = cfg.TargetFor(t)
	}
	rates := make(map[model.QuestionType]float64, len(cfg.Generation.Rates))
	for name, r := range cfg.Generation.Rates {
		rates[model.QuestionType(name)] = r
	}
	return Options{
		Seed:        cfg.Generation.Seed,
		Types:       types,
		Targets:     targets,
		Partitions:  cfg.Generation.Partitions,
		Workers:     cfg.Generation.Workers,
		BatchSize:   cfg.Output.BatchSize,
		QueueSize:   cfg.Generation.QueueSize,
		RatePerType: cfg.Generation.RatePerType,
		Rates:       rates,
	}
}

// Deps are the collaborators of a scheduler
type Deps struct {
	Registry    *generate.Registry
	Pipeline    *pipeline.Pipeline
	Dedup       *dedup.Index
	Writer      sink.Writer
	Checkpoints checkpoint.Store   // nil disables resume
	Metrics     *metrics.Collector // optional
	Logger      *zap.SugaredLogger // optional
}

// Scheduler runs the per-type state machines over a worker pool
type Scheduler struct {
	deps    Deps
	opts    Options
	limiter *worker.Limiter
	log     *zap.SugaredLogger
}

// TypeSummary is the outcome of one question type
type TypeSummary struct {
	Type     model.QuestionType
	State    State
	Target   int
	Accepted int
	Space    int64
	Rejected map[string]int
	Duration time.Duration
}

// RejectedTotal sums rejections over every reason
func (t TypeSummary) RejectedTotal() int {
	n := 0
	for _, v := range t.Rejected {
		n += v
	}
	return n
}

// Summary is the outcome of a run
type Summary struct {
	Run       string
	Types     []TypeSummary
	Batches   int
	Records   int
	Files     []string
	Dedup     dedup.Stats
	Elapsed   time.Duration
	Cancelled bool
}

// New validates the options and creates a scheduler
func New(deps Deps, opts Options) (*Scheduler, error) {
	if deps.Registry == nil || deps.Pipeline == nil || deps.Dedup == nil || deps.Writer == nil {
		return nil, errors.Mark(errors.New("scheduler needs a registry, pipeline, dedup index and writer"), errors.ErrConfig)
	}
	if opts.Partitions < 1 || opts.Workers < 1 || opts.BatchSize < 1 || opts.QueueSize < 1 {
		return nil, errors.Mark(errors.Newf("partitions, workers, batch size and queue size must be positive (got %d, %d, %d, %d)",
			opts.Partitions, opts.Workers, opts.BatchSize, opts.QueueSize), errors.ErrConfig)
	}
	if len(opts.Types) == 0 {
		return nil, errors.Mark(errors.New("no question types enabled"), errors.ErrConfig)
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	limiter := worker.NewLimiter(opts.RatePerType, opts.Workers)
	for t, r := range opts.Rates {
		limiter.SetTypeRate(t, r, opts.Workers)
	}

	return &Scheduler{
		deps:    deps,
		opts:    opts,
		limiter: limiter,
		log:     log.With(logger.FieldComponent, "scheduler"),
	}, nil
}

// run is the shared state of one Run call
type run struct {
	s       *Scheduler
	types   []*typeRun
	records chan model.Record
}

// Run generates until every type settles or ctx is cancelled. Cancellation
// is not an error: accepted records are flushed, cursors are saved and the
// summary is marked cancelled.
func (s *Scheduler) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()

	runID := checkpoint.RunID(s.opts.Seed, s.opts.Partitions, s.deps.Registry.Spaces())
	state := checkpoint.NewState(runID)
	if s.deps.Checkpoints != nil {
		loaded, err := checkpoint.Load(s.deps.Checkpoints, runID)
		if err != nil {
			return nil, err
		}
		state = loaded
		if len(state.Emitted) > 0 {
			s.log.Infow("Resuming from checkpoint", "run", runID, "next_batch", state.NextBatch)
		}
	}

	r, err := s.prepare(state)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Run: runID}
	nextBatch, runErr := s.execute(ctx, r, state.NextBatch, summary)

	// Types never reached before cancellation stay pending
	for _, tr := range r.types {
		summary.Types = append(summary.Types, tr.summary())
	}
	summary.Dedup = s.deps.Dedup.Stats()
	summary.Elapsed = time.Since(started)
	summary.Cancelled = ctx.Err() != nil

	if s.deps.Metrics != nil {
		s.deps.Metrics.DedupBloomOnly.Set(float64(summary.Dedup.BloomOnly))
	}

	if runErr != nil {
		// Cursors may point past records that never reached disk
		return summary, runErr
	}

	if s.deps.Checkpoints != nil {
		for _, tr := range r.types {
			for p, offset := range tr.cursors {
				state.SetCursor(tr.typ, p, s.opts.Partitions, offset)
			}
			state.Emitted[tr.typ] = tr.slots.count()
		}
		state.NextBatch = nextBatch
		if err := checkpoint.Save(s.deps.Checkpoints, state); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// prepare builds a typeRun per enabled type, restoring saved progress
func (s *Scheduler) prepare(state *checkpoint.State) (*run, error) {
	r := &run{
		s:       s,
		records: make(chan model.Record, s.opts.Workers*2),
	}
	for _, t := range s.opts.Types {
		strategy, err := s.deps.Registry.Strategy(t)
		if err != nil {
			return nil, err
		}
		perm, err := s.deps.Registry.Permutation(t)
		if err != nil {
			return nil, err
		}

		cursors := make([]int64, s.opts.Partitions)
		for p := range cursors {
			cursors[p] = state.Cursor(t, p)
		}

		target := s.opts.Targets[t]
		r.types = append(r.types, &typeRun{
			typ:       t,
			strategy:  strategy,
			perm:      perm,
			slots:     newSlots(target, state.Emitted[t]),
			target:    target,
			state:     StatePending,
			cursors:   cursors,
			remaining: s.opts.Partitions,
			rejected:  make(map[string]int),
		})
		s.setStateMetric(t, StatePending)
	}
	return r, nil
}

// execute wires producers, batcher and sink. The sink runs on its own
// context so batches accepted before a cancellation still reach disk; it is
// cancelled only when a write fails. The returned error is non-nil only
// when a fatal error occurred. It returns the id the next batch will carry.
func (s *Scheduler) execute(ctx context.Context, r *run, firstBatch int, summary *Summary) (int, error) {
	sinkCtx, sinkCancel := context.WithCancel(context.WithoutCancel(ctx))
	defer sinkCancel()

	queue := sink.NewQueue(s.deps.Writer, s.opts.QueueSize, s.log)
	batcher := worker.NewBatcher(s.opts.BatchSize, firstBatch, queue.Push)

	g, gctx := errgroup.WithContext(ctx)

	// Sink: writes batches in order
	g.Go(func() error {
		err := queue.Drain(sinkCtx, func(w sink.Written) {
			summary.Batches++
			summary.Records += w.Batch.Len()
			summary.Files = append(summary.Files, w.Path)
			if s.deps.Metrics != nil {
				s.deps.Metrics.BatchesWritten.Inc()
				s.deps.Metrics.RecordsWritten.Add(float64(w.Batch.Len()))
				s.deps.Metrics.QueueDepth.Set(float64(queue.Len()))
			}
		})
		if err != nil {
			sinkCancel()
		}
		return err
	})

	// Batcher: groups accepted records, blocking on the sink queue
	g.Go(func() error {
		defer queue.Close()
		for rec := range r.records {
			if err := batcher.Add(sinkCtx, rec); err != nil {
				return err
			}
		}
		return batcher.Flush(sinkCtx)
	})

	// Producers: partitions spread over the worker pool
	g.Go(func() error {
		defer close(r.records)
		return r.produce(gctx)
	})

	err := g.Wait()
	return batcher.NextID(), err
}

// produce assigns partitions to workers up front, worker w owning every
// partition p with p % workers == w
func (r *run) produce(ctx context.Context) error {
	workers := min(r.s.opts.Workers, r.s.opts.Partitions)
	owned := make([][]int, workers)
	for p := 0; p < r.s.opts.Partitions; p++ {
		owned[p%workers] = append(owned[p%workers], p)
	}

	pool := worker.NewPool(ctx, workers)
	pool.Start()
	r.s.log.Debugw("Producers started", "workers", pool.Workers(), "partitions", r.s.opts.Partitions)

	go func() {
		for w, partitions := range owned {
			if err := pool.Submit(&partitionJob{run: r, worker: w, partitions: partitions}); err != nil {
				break
			}
		}
		pool.Wait()
	}()

	var firstErr error
	for res := range pool.Results() {
		if err := res.GetError(); err != nil && firstErr == nil {
			firstErr = err
			// stop sibling partitions; Shutdown closes Results once they exit
			pool.Shutdown()
		}
	}
	return firstErr
}

// partitionJob walks the owned partitions of every type in order
type partitionJob struct {
	run        *run
	worker     int
	partitions []int
}

type jobResult struct {
	err error
}

func (r jobResult) GetError() error {
	return r.err
}

// Execute implements worker.Job
func (j *partitionJob) Execute(ctx context.Context) worker.Result {
	for _, tr := range j.run.types {
		for _, p := range j.partitions {
			if ctx.Err() != nil {
				return jobResult{}
			}
			if err := j.run.walk(ctx, tr, p); err != nil {
				return jobResult{err: err}
			}
		}
	}
	return jobResult{}
}

// walk advances one (type, partition) cursor until the type is satisfied,
// the partition is exhausted or ctx is cancelled
func (r *run) walk(ctx context.Context, tr *typeRun, partition int) error {
	s := r.s
	if tr.slots.met() {
		r.settle(tr, StateSatisfied)
		return nil
	}
	if tr.begin() {
		s.setStateMetric(tr.typ, StateGenerating)
		s.log.Debugw("Type generating", logger.FieldQuestionType, tr.typ, logger.FieldTarget, tr.target)
	}

	log := s.log.With(logger.FieldQuestionType, tr.typ, logger.FieldPartition, partition)
	offset := tr.cursor(partition)
	for {
		index, ok := tr.perm.Visit(partition, s.opts.Partitions, offset)
		if !ok {
			if tr.partitionDone() {
				if tr.slots.met() {
					r.settle(tr, StateSatisfied)
				} else {
					r.settle(tr, StateExhausted)
				}
			}
			return nil
		}

		if !tr.slots.claim(ctx) {
			if tr.slots.met() {
				r.settle(tr, StateSatisfied)
			}
			return nil
		}
		if err := s.limiter.Wait(ctx, tr.typ); err != nil {
			tr.slots.release()
			return nil
		}

		began := time.Now()
		res, err := s.deps.Pipeline.Process(ctx, tr.strategy, partition, index)
		if s.deps.Metrics != nil {
			s.deps.Metrics.Generated.WithLabelValues(string(tr.typ)).Inc()
			s.deps.Metrics.CandidateTime.Observe(time.Since(began).Seconds())
		}

		if err != nil {
			tr.slots.release()
			if ctx.Err() != nil {
				// In-flight candidate discarded; the cursor stays on it
				return nil
			}
			if !errors.IsRecoverable(err) {
				return errors.Wrapf(err, "%s partition %d offset %d", tr.typ, partition, offset)
			}
			reason := errors.Reason(err)
			tr.reject(reason)
			if s.deps.Metrics != nil {
				s.deps.Metrics.Rejected.WithLabelValues(string(tr.typ), reason).Inc()
			}
			log.Debugw("Candidate rejected", logger.FieldOffset, offset, logger.FieldReason, reason, logger.FieldError, err)
			offset++
			tr.advance(partition, offset)
			continue
		}

		select {
		case r.records <- res.Record:
		case <-ctx.Done():
			tr.slots.release()
			return nil
		}

		offset++
		tr.advance(partition, offset)
		if s.deps.Metrics != nil {
			s.deps.Metrics.Accepted.WithLabelValues(string(tr.typ)).Inc()
		}
		if tr.slots.commit() {
			r.settle(tr, StateSatisfied)
			return nil
		}
	}
}

func (r *run) settle(tr *typeRun, state State) {
	if !tr.settle(state) {
		return
	}
	s := r.s
	s.setStateMetric(tr.typ, state)

	sum := tr.summary()
	if s.deps.Metrics != nil {
		s.deps.Metrics.TypeDuration.WithLabelValues(string(tr.typ), string(state)).Observe(sum.Duration.Seconds())
	}

	fields := []interface{}{
		logger.FieldQuestionType, tr.typ,
		logger.FieldState, state,
		logger.FieldCount, sum.Accepted,
		logger.FieldTarget, sum.Target,
		logger.FieldDurationMS, sum.Duration.Milliseconds(),
	}
	if state == StateExhausted {
		s.log.Warnw("Type exhausted before reaching target", append(fields, "rejected", sortedReasons(sum.Rejected))...)
		return
	}
	s.log.Infow("Type satisfied", fields...)
}

func (s *Scheduler) setStateMetric(t model.QuestionType, state State) {
	if s.deps.Metrics == nil {
		return
	}
	all := States()
	names := make([]string, len(all))
	for i, st := range all {
		names[i] = string(st)
	}
	s.deps.Metrics.SetState(string(t), string(state), names)
}

// sortedReasons renders rejection counts in a stable order for logs
func sortedReasons(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	for i, k := range out {
		out[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return out
}
