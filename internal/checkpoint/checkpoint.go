package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// State is the resumable progress of a run: how far each (type, partition)
// cursor advanced, how many records each type emitted, and the next batch id.
type State struct {
	Run       string                         `json:"run"`
	Cursors   map[model.QuestionType][]int64 `json:"cursors"`
	Emitted   map[model.QuestionType]int     `json:"emitted"`
	NextBatch int                            `json:"next_batch"`
	SavedAt   time.Time                      `json:"saved_at"`
}

// NewState returns an empty state for run
func NewState(run string) *State {
	return &State{
		Run:       run,
		Cursors:   make(map[model.QuestionType][]int64),
		Emitted:   make(map[model.QuestionType]int),
		NextBatch: 1,
	}
}

// Cursor returns the saved offset of a partition, or 0
func (s *State) Cursor(t model.QuestionType, partition int) int64 {
	cursors := s.Cursors[t]
	if partition < 0 || partition >= len(cursors) {
		return 0
	}
	return cursors[partition]
}

// SetCursor records the offset of a partition
func (s *State) SetCursor(t model.QuestionType, partition, partitions int, offset int64) {
	cursors := s.Cursors[t]
	if len(cursors) != partitions {
		grown := make([]int64, partitions)
		copy(grown, cursors)
		cursors = grown
		s.Cursors[t] = cursors
	}
	cursors[partition] = offset
}

// RunID identifies the enumeration a set of cursors belongs to. Cursors are
// only meaningful for the same seed, partition count and instance spaces, so
// any change to those starts a fresh run.
func RunID(seed int64, partitions int, spaces map[model.QuestionType]int64) string {
	types := make([]string, 0, len(spaces))
	for t := range spaces {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "seed=%d;partitions=%d", seed, partitions)
	for _, t := range types {
		fmt.Fprintf(&b, ";%s=%d", t, spaces[model.QuestionType(t)])
	}

	hash := sha256.Sum256([]byte(b.String()))
	return "chronoqa-v1-" + hex.EncodeToString(hash[:8])
}

// Load returns the saved state for run, or a fresh state when none exists
func Load(store Store, run string) (*State, error) {
	data, ok := store.Get(run)
	if !ok {
		return NewState(run), nil
	}

	state := NewState(run)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, errors.Wrapf(err, "decode checkpoint %s", run)
	}
	if state.Run != run {
		return nil, errors.Newf("checkpoint %s belongs to run %s", run, state.Run)
	}
	if state.NextBatch < 1 {
		state.NextBatch = 1
	}
	return state, nil
}

// Save persists state under its run id
func Save(store Store, state *State) error {
	state.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode checkpoint")
	}
	return errors.Wrapf(store.Set(state.Run, data), "save checkpoint %s", state.Run)
}
