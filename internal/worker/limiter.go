package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ppiankov/chronoqa/internal/model"
)

// Limiter throttles candidate generation per question type so one cheap type
// cannot starve the others of worker time
type Limiter struct {
	limiters     map[model.QuestionType]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing perSecond candidates per type.
// A non-positive rate disables throttling.
func NewLimiter(perSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &Limiter{
		limiters:     make(map[model.QuestionType]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until a candidate of type t may be generated
func (l *Limiter) Wait(ctx context.Context, t model.QuestionType) error {
	return l.getLimiter(t).Wait(ctx)
}

func (l *Limiter) getLimiter(t model.QuestionType) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[t]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[t]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[t] = limiter

	return limiter
}

// SetTypeRate overrides the rate for a single question type
func (l *Limiter) SetTypeRate(t model.QuestionType, perSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[t] = rate.NewLimiter(limit, burst)
}
