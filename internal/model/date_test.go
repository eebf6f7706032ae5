package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		desc    string
		input   string
		want    Date
		wantErr bool
	}{
		{desc: "year only", input: "1939", want: YearDate(1939)},
		{desc: "year and month", input: "1939-09", want: MonthDate(1939, 9)},
		{desc: "full date", input: "1939-09-01", want: DayDate(1939, 9, 1)},
		{desc: "surrounding spaces", input: " 1945 ", want: YearDate(1945)},
		{desc: "leap day", input: "2000-02-29", want: DayDate(2000, 2, 29)},
		{desc: "empty", input: "", wantErr: true},
		{desc: "not a number", input: "19x9", wantErr: true},
		{desc: "month out of range", input: "1939-13", wantErr: true},
		{desc: "day out of range", input: "1939-02-29", wantErr: true},
		{desc: "year zero", input: "0", wantErr: true},
		{desc: "too many parts", input: "1939-09-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateBounds(t *testing.T) {
	d := MonthDate(1944, 2)
	assert.Equal(t, 19440201, d.Key())
	assert.Equal(t, 19440229, d.UpperKey())

	y := YearDate(1918)
	assert.Equal(t, 19180101, y.Key())
	assert.Equal(t, 19181231, y.UpperKey())
}

func TestDateCompare(t *testing.T) {
	tests := []struct {
		desc string
		a, b Date
		want int
	}{
		{desc: "different years", a: YearDate(1914), b: YearDate(1939), want: -1},
		{desc: "same day", a: DayDate(1939, 9, 1), b: DayDate(1939, 9, 1), want: 0},
		{desc: "later day", a: DayDate(1945, 9, 2), b: DayDate(1945, 5, 8), want: 1},
		{desc: "mixed precision truncates to year", a: YearDate(1939), b: DayDate(1939, 9, 1), want: 0},
		{desc: "mixed precision month", a: MonthDate(1939, 8), b: DayDate(1939, 9, 1), want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		})
	}
}

func TestDateFormatting(t *testing.T) {
	assert.Equal(t, "1939-09-01", DayDate(1939, 9, 1).String())
	assert.Equal(t, "1 September 1939", DayDate(1939, 9, 1).Human())
	assert.Equal(t, "July 1969", MonthDate(1969, 7).Human())
	assert.Equal(t, "1914", YearDate(1914).Human())
	assert.Equal(t, "", Date{}.String())
}

func TestDateYAML(t *testing.T) {
	var doc struct {
		Start Date `yaml:"start"`
		End   Date `yaml:"end"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("start: 1914-07-28\nend: 1918\n"), &doc))
	assert.Equal(t, DayDate(1914, 7, 28), doc.Start)
	assert.Equal(t, YearDate(1918), doc.End)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "1914-07-28")
}
