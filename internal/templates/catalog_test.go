package templates

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

func TestSlots(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []string
		wantErr bool
	}{
		{"none", "How long did it last?", nil, false},
		{"one", "When did {event} begin?", []string{"event"}, false},
		{"two", "Which came first, {event1} or {event2}?", []string{"event1", "event2"}, false},
		{"unclosed", "When did {event begin?", nil, true},
		{"stray close", "When did event} begin?", nil, true},
		{"empty", "When did {} begin?", nil, true},
		{"space", "When did {the event} begin?", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Slots(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrTemplate))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFill(t *testing.T) {
	got, err := Fill("Which came first, {event1} or {event2}?", map[string]string{
		"event1": "World War I",
		"event2": "World War II",
	})
	require.NoError(t, err)
	assert.Equal(t, "Which came first, World War I or World War II?", got)

	_, err = Fill("When did {event} begin?", map[string]string{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTemplate))

	_, err = Fill("When did {event} begin?", map[string]string{"event": ""})
	assert.True(t, errors.Is(err, errors.ErrTemplate))
}

func TestRenderVariants(t *testing.T) {
	c := Default()
	slots := map[string]string{"event": "World War II"}

	n := c.Variants(model.AttributeEvent, "began")
	require.Greater(t, n, 1)

	first, err := c.Render(model.AttributeEvent, "began", 0, slots)
	require.NoError(t, err)
	wrapped, err := c.Render(model.AttributeEvent, "began", n, slots)
	require.NoError(t, err)
	assert.Equal(t, first, wrapped)

	negative, err := c.Render(model.AttributeEvent, "began", -1, slots)
	require.NoError(t, err)
	assert.Contains(t, negative, "World War II")

	_, err = c.Render(model.AttributeEvent, "no_such_aspect", 0, slots)
	assert.True(t, errors.Is(err, errors.ErrTemplate))
}

func TestDefaultsAreWellFormed(t *testing.T) {
	for _, e := range Default().List() {
		slots := make(map[string]string, len(e.Slots))
		for _, s := range e.Slots {
			slots[s] = "X"
		}
		text, err := Fill(e.Text, slots)
		require.NoError(t, err, e.Text)
		assert.GreaterOrEqual(t, len(strings.Fields(text)), 5, "%s/%s: %q", e.Type, e.Aspect, text)
		assert.NotContains(t, text, "{")
	}
}

func TestDefaultsCoverEveryType(t *testing.T) {
	c := Default()
	for _, qt := range model.AllQuestionTypes() {
		assert.NotEmpty(t, c.entries[qt], "no templates for %s", qt)
	}
}

func TestCheck(t *testing.T) {
	c := Default()
	require.NoError(t, c.Check(map[model.QuestionType][]string{
		model.DurationEstimation: {"years", "months", "days"},
	}))

	err := c.Check(map[model.QuestionType][]string{
		model.DurationEstimation: {"weeks"},
		model.TemporalOverlap:    {"overlap", "contains"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTemplate))
	assert.Contains(t, err.Error(), "duration_estimation/weeks")
	assert.Contains(t, err.Error(), "temporal_overlap/contains")
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		raw  Overrides
	}{
		{"unknown type", Overrides{"trivia": {"x": {"What is the answer to {x}?"}}}},
		{"no variants", Overrides{"counterfactual": {"direct": {}}}},
		{"bad slot", Overrides{"counterfactual": {"direct": {"What if {cause had not happened?"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrTemplate))
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/templates.yaml", []byte(`
duration_estimation:
  years:
    - "Roughly how many years did {event} go on for?"
temporal_overlap:
  contains:
    - "Did {event1} happen entirely within {event2}?"
`), 0o644))

	c, err := Load(fs, "/etc/templates.yaml")
	require.NoError(t, err)

	assert.Equal(t, 1, c.Variants(model.DurationEstimation, "years"))
	got, err := c.Render(model.DurationEstimation, "years", 3, map[string]string{"event": "World War II"})
	require.NoError(t, err)
	assert.Equal(t, "Roughly how many years did World War II go on for?", got)

	// untouched aspects keep their defaults
	assert.Equal(t, Default().Variants(model.DurationEstimation, "days"), c.Variants(model.DurationEstimation, "days"))
	assert.Equal(t, 1, c.Variants(model.TemporalOverlap, "contains"))
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("duration_estimation: [oops"), 0o644))

	_, err := Load(fs, "missing.yaml")
	assert.True(t, errors.Is(err, errors.ErrTemplate))

	_, err = Load(fs, "bad.yaml")
	assert.True(t, errors.Is(err, errors.ErrTemplate))

	c, err := Load(fs, "")
	require.NoError(t, err)
	assert.NotEmpty(t, c.List())
}
