package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/ppiankov/chronoqa/internal/generate"
	"github.com/ppiankov/chronoqa/internal/model"
)

// State is the lifecycle of one question type within a run
type State string

const (
	StatePending    State = "pending"
	StateGenerating State = "generating"
	StateSatisfied  State = "satisfied"
	StateExhausted  State = "exhausted"
)

// States lists every state in lifecycle order
func States() []State {
	return []State{StatePending, StateGenerating, StateSatisfied, StateExhausted}
}

// Settled reports whether the type reached a final state
func (s State) Settled() bool {
	return s == StateSatisfied || s == StateExhausted
}

// slots bounds the records a type may emit. A slot is claimed before a
// candidate is processed and either committed or released, so the number of
// accepted records never exceeds the target.
type slots struct {
	mu       sync.Mutex
	cond     *sync.Cond
	target   int
	claimed  int
	accepted int
}

func newSlots(target, accepted int) *slots {
	s := &slots{target: target, claimed: accepted, accepted: accepted}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// claim reserves a slot. While every free slot is held by an in-flight
// candidate it waits, since a rejection may hand one back. It returns false
// once the target is met or ctx is done.
func (s *slots) claim(ctx context.Context) bool {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.claimed >= s.target {
		if s.accepted >= s.target || ctx.Err() != nil {
			return false
		}
		s.cond.Wait()
	}
	if ctx.Err() != nil {
		return false
	}
	s.claimed++
	return true
}

// release hands a claimed slot back
func (s *slots) release() {
	s.mu.Lock()
	s.claimed--
	s.mu.Unlock()
	s.cond.Broadcast()
}

// commit turns a claimed slot into an accepted record and reports whether
// the target is now met
func (s *slots) commit() bool {
	s.mu.Lock()
	s.accepted++
	met := s.accepted >= s.target
	s.mu.Unlock()
	if met {
		s.cond.Broadcast()
	}
	return met
}

func (s *slots) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

func (s *slots) met() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted >= s.target
}

// typeRun is the mutable progress of one question type
type typeRun struct {
	typ      model.QuestionType
	strategy generate.Strategy
	perm     generate.Permutation
	slots    *slots
	target   int
	started  time.Time

	mu        sync.Mutex
	state     State
	cursors   []int64
	remaining int // partitions not yet exhausted
	rejected  map[string]int
	duration  time.Duration
}

func (t *typeRun) cursor(partition int) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursors[partition]
}

func (t *typeRun) advance(partition int, offset int64) {
	t.mu.Lock()
	t.cursors[partition] = offset
	t.mu.Unlock()
}

func (t *typeRun) reject(reason string) {
	t.mu.Lock()
	t.rejected[reason]++
	t.mu.Unlock()
}

// begin moves a pending type to generating and reports whether it did
func (t *typeRun) begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePending {
		return false
	}
	t.state = StateGenerating
	t.started = time.Now()
	return true
}

// settle moves the type to a final state once. It reports whether this call
// made the transition.
func (t *typeRun) settle(state State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Settled() {
		return false
	}
	if t.started.IsZero() {
		t.started = time.Now()
	}
	t.state = state
	t.duration = time.Since(t.started)
	return true
}

// partitionDone records an exhausted partition and reports whether it was
// the last one
func (t *typeRun) partitionDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining--
	return t.remaining == 0
}

func (t *typeRun) currentState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *typeRun) summary() TypeSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	rejected := make(map[string]int, len(t.rejected))
	for k, v := range t.rejected {
		rejected[k] = v
	}
	return TypeSummary{
		Type:     t.typ,
		State:    t.state,
		Target:   t.target,
		Accepted: t.slots.count(),
		Space:    t.strategy.Space(),
		Rejected: rejected,
		Duration: t.duration,
	}
}
