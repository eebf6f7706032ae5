package dedup

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/ipfs/bbloom"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Index is the run-wide fingerprint set. It is the only mutable structure
// shared between workers; each shard has its own lock.
//
// A shard answers exactly while its LRU has never evicted. Once it has, a
// fingerprint missing from the LRU but present in the bloom filter is
// reported as a probable duplicate, so the false-positive rate bounds the
// share of distinct candidates wrongly dropped.
//
// Each shard's filter chain grows when its newest filter is full. Filter i
// holds capacity*2^i entries at rate fp/2^(i+1), so the chain's combined
// false-positive rate stays below fp however many fingerprints are recorded.
type Index struct {
	shards []*shard

	recorded   atomic.Int64
	duplicates atomic.Int64
	bloomOnly  atomic.Int64
}

type shard struct {
	mu      sync.Mutex
	exact   *simplelru.LRU
	blooms  []*bbloom.Bloom
	evicted bool

	// sizing of the newest filter
	capacity uint64
	rate     float64
}

// Stats reports index activity
type Stats struct {
	Recorded   int64 `json:"recorded" yaml:"recorded"`
	Duplicates int64 `json:"duplicates" yaml:"duplicates"`
	BloomOnly  int64 `json:"bloom_only" yaml:"bloom_only"` // duplicates decided by the bloom filter alone
	Shards     int   `json:"shards" yaml:"shards"`
	Evicting   int   `json:"evicting" yaml:"evicting"` // shards no longer exact
	Filters    int   `json:"filters" yaml:"filters"`   // bloom filters over all shards
}

// New sizes the index from the dedup config
func New(cfg model.DedupConfig) (*Index, error) {
	if cfg.Shards <= 0 || cfg.Capacity <= 0 || cfg.ExactWindow <= 0 {
		return nil, errors.Mark(errors.Newf("dedup needs positive shards, capacity and exact window, got %d/%d/%d",
			cfg.Shards, cfg.Capacity, cfg.ExactWindow), errors.ErrConfig)
	}
	if cfg.FalsePositiveRate <= 0 || cfg.FalsePositiveRate >= 1 {
		return nil, errors.Mark(errors.Newf("false positive rate %v outside (0, 1)", cfg.FalsePositiveRate), errors.ErrConfig)
	}

	perShard := max(cfg.Capacity/cfg.Shards, 1)
	window := max(cfg.ExactWindow/cfg.Shards, 1)
	x := &Index{shards: make([]*shard, cfg.Shards)}
	for i := range x.shards {
		s := &shard{capacity: uint64(perShard), rate: cfg.FalsePositiveRate / 2}
		exact, err := simplelru.NewLRU(window, func(_, _ interface{}) { s.evicted = true })
		if err != nil {
			return nil, errors.Wrap(err, "create exact set")
		}
		s.exact = exact
		if err := s.grow(); err != nil {
			return nil, err
		}
		x.shards[i] = s
	}
	return x, nil
}

func (x *Index) shard(fp Fingerprint) *shard {
	return x.shards[xxhash.Sum64(fp[:])%uint64(len(x.shards))]
}

// seen must be called with the shard lock held. The bool reports a
// decision made by the bloom filter alone.
func (s *shard) seen(fp Fingerprint) (bool, bool) {
	if s.exact.Contains(fp) {
		return true, false
	}
	if !s.evicted {
		return false, false
	}
	for _, b := range s.blooms {
		if b.Has(fp[:]) {
			return true, true
		}
	}
	return false, false
}

// grow appends a filter twice the size of the last one at half its rate
func (s *shard) grow() error {
	if len(s.blooms) > 0 {
		s.capacity *= 2
		s.rate /= 2
	}
	b, err := bbloom.New(float64(s.capacity), s.rate)
	if err != nil {
		return errors.Wrap(err, "create bloom filter")
	}
	s.blooms = append(s.blooms, b)
	return nil
}

func (s *shard) record(fp Fingerprint) {
	s.exact.Add(fp, struct{}{})
	// grow only fails for non-positive sizes, which New has ruled out
	if s.blooms[len(s.blooms)-1].ElementsAdded() >= s.capacity {
		_ = s.grow()
	}
	s.blooms[len(s.blooms)-1].Add(fp[:])
}

// Seen reports whether fp was recorded (or probably recorded, once its shard evicts)
func (x *Index) Seen(fp Fingerprint) bool {
	s := x.shard(fp)
	s.mu.Lock()
	defer s.mu.Unlock()
	dup, _ := s.seen(fp)
	return dup
}

// Record adds fp
func (x *Index) Record(fp Fingerprint) {
	s := x.shard(fp)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(fp)
	x.recorded.Add(1)
}

// SeenOrRecord atomically checks fp and records it when new. It returns true
// for a duplicate.
func (x *Index) SeenOrRecord(fp Fingerprint) bool {
	s := x.shard(fp)
	s.mu.Lock()
	defer s.mu.Unlock()
	dup, bloomOnly := s.seen(fp)
	if dup {
		x.duplicates.Add(1)
		if bloomOnly {
			x.bloomOnly.Add(1)
		}
		return true
	}
	s.record(fp)
	x.recorded.Add(1)
	return false
}

// Admit records fp or returns ErrDuplicate
func (x *Index) Admit(fp Fingerprint) error {
	if x.SeenOrRecord(fp) {
		return errors.Mark(errors.Newf("fingerprint %s already recorded", fp), errors.ErrDuplicate)
	}
	return nil
}

// Stats returns a snapshot of the counters
func (x *Index) Stats() Stats {
	st := Stats{
		Recorded:   x.recorded.Load(),
		Duplicates: x.duplicates.Load(),
		BloomOnly:  x.bloomOnly.Load(),
		Shards:     len(x.shards),
	}
	for _, s := range x.shards {
		s.mu.Lock()
		if s.evicted {
			st.Evicting++
		}
		st.Filters += len(s.blooms)
		s.mu.Unlock()
	}
	return st
}
