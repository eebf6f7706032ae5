package dedup

import (
	"crypto/sha256"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

func fp(i int) Fingerprint {
	return sha256.Sum256([]byte("fp-" + strconv.Itoa(i)))
}

func testConfig() model.DedupConfig {
	return model.DedupConfig{Capacity: 10_000, FalsePositiveRate: 0.01, ExactWindow: 10_000, Shards: 4}
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"World War I", "world war i"},
		{"  World   War\tI.  ", "world war i"},
		{"Yes!", "yes"},
		{"ＷＷＩ", "wwi"}, // fullwidth folds under NFKC
		{"Straße", "strasse"},
		{"1,567 days", "1,567 days"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAnswer(tt.in))
		})
	}
}

func TestFingerprintIgnoresIDOrderAndWording(t *testing.T) {
	r := model.NewRange(model.DayDate(1914, 7, 28), model.DayDate(1945, 9, 2))
	a := &model.Candidate{
		Type:      model.ComparisonEvent,
		Question:  "Which started earlier, World War I or World War II?",
		Answer:    "World War I",
		EntityIDs: []string{"ww1", "ww2"},
		Range:     r,
	}
	b := *a
	b.Question = "Which began first: World War II or World War I?"
	b.EntityIDs = []string{"ww2", "ww1"}
	b.Answer = "world war i."
	assert.Equal(t, Of(a), Of(&b))

	c := b
	c.Answer = "World War II"
	assert.NotEqual(t, Of(a), Of(&c))

	d := *a
	d.Type = model.TemporalOverlap
	assert.NotEqual(t, Of(a), Of(&d))
	assert.Len(t, Of(a).String(), 64)
}

func TestSeenOrRecord(t *testing.T) {
	x, err := New(testConfig())
	require.NoError(t, err)

	assert.False(t, x.Seen(fp(1)))
	assert.False(t, x.SeenOrRecord(fp(1)))
	assert.True(t, x.Seen(fp(1)))
	assert.True(t, x.SeenOrRecord(fp(1)))

	x.Record(fp(2))
	err = x.Admit(fp(2))
	assert.True(t, errors.Is(err, errors.ErrDuplicate))
	assert.NoError(t, x.Admit(fp(3)))

	st := x.Stats()
	assert.Equal(t, int64(3), st.Recorded)
	assert.Equal(t, int64(2), st.Duplicates)
	assert.Equal(t, int64(0), st.BloomOnly)
	assert.Equal(t, 0, st.Evicting)
}

func TestExactWhileNotEvicting(t *testing.T) {
	x, err := New(testConfig())
	require.NoError(t, err)
	for i := 0; i < 5_000; i++ {
		require.False(t, x.SeenOrRecord(fp(i)))
	}
	for i := 5_000; i < 10_000; i++ {
		assert.False(t, x.Seen(fp(i)), "fresh fingerprint %d reported seen", i)
	}
	assert.Equal(t, int64(0), x.Stats().BloomOnly)
}

func TestBloomBoundAfterEviction(t *testing.T) {
	cfg := testConfig()
	cfg.ExactWindow = 40 // 10 per shard
	x, err := New(cfg)
	require.NoError(t, err)

	const n = 5_000
	for i := 0; i < n; i++ {
		x.Record(fp(i))
	}
	st := x.Stats()
	assert.Equal(t, 4, st.Evicting)

	// evicted fingerprints are still caught by the filter
	for i := 0; i < 100; i++ {
		assert.True(t, x.Seen(fp(i)))
	}

	falsePositives := 0
	for i := n; i < 2*n; i++ {
		if x.SeenOrRecord(fp(i)) {
			falsePositives++
		}
	}
	assert.Less(t, float64(falsePositives)/n, 0.02)
	assert.Equal(t, int64(falsePositives), x.Stats().BloomOnly)
}

func TestBloomBoundPastCapacity(t *testing.T) {
	x, err := New(model.DedupConfig{Capacity: 10_000, FalsePositiveRate: 0.001, ExactWindow: 1_000, Shards: 1})
	require.NoError(t, err)

	const n = 200_000
	falsePositives := 0
	for i := 0; i < n; i++ {
		if x.SeenOrRecord(fp(i)) {
			falsePositives++
		}
	}

	st := x.Stats()
	assert.Greater(t, st.Filters, 1)
	assert.Equal(t, int64(n-falsePositives), st.Recorded)
	assert.Less(t, float64(falsePositives)/n, 0.001)
}

func TestSeenOrRecordIsAtomic(t *testing.T) {
	x, err := New(testConfig())
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := make(map[int]int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if !x.SeenOrRecord(fp(i)) {
					mu.Lock()
					fresh[i]++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	require.Len(t, fresh, 200)
	for i, n := range fresh {
		assert.Equal(t, 1, n, "fingerprint %d admitted %d times", i, n)
	}
	assert.Equal(t, int64(200), x.Stats().Recorded)
	assert.Equal(t, int64(200*(workers-1)), x.Stats().Duplicates)
}

func TestNewRejectsBadConfig(t *testing.T) {
	for name, mutate := range map[string]func(*model.DedupConfig){
		"zero shards":   func(c *model.DedupConfig) { c.Shards = 0 },
		"zero capacity": func(c *model.DedupConfig) { c.Capacity = 0 },
		"zero window":   func(c *model.DedupConfig) { c.ExactWindow = 0 },
		"rate of one":   func(c *model.DedupConfig) { c.FalsePositiveRate = 1 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			_, err := New(cfg)
			assert.True(t, errors.Is(err, errors.ErrConfig))
		})
	}
}
