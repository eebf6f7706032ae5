package kb

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

const catalogYAML = `
entities:
  - id: ww1
    name: World War I
    type: event
    domain: military
    began: 1914-07-28
    ended: 1918-11-11
    location: Europe
    casualties: "17000000"
    source: curated
  - id: ww2
    name: World War II
    type: event
    domain: military
    began: 1939-09-01
    ended: 1945-09-02
    source: curated
facts:
  - {subject: ww1, predicate: caused, object: ww2, kind: entity, source: curated, confidence: 0.7}
`

const catalogJSON = `{
  "entities": [
    {"id": "curie", "name": "Marie Curie", "type": "person", "domain": "science", "born": "1867-11-07", "country": "Poland"}
  ],
  "facts": [
    {"subject": "curie", "predicate": "field", "object": "Chemistry", "kind": "text"}
  ]
}`

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/kb/history.yaml", []byte(catalogYAML), 0644))
	require.NoError(t, afero.WriteFile(fs, "/kb/people.json", []byte(catalogJSON), 0644))
	require.NoError(t, afero.WriteFile(fs, "/kb/broken.yaml", []byte("entities: ["), 0644))

	t.Run("yaml", func(t *testing.T) {
		k, err := LoadFile(fs, "/kb/history.yaml", "auto")
		require.NoError(t, err)

		ww1, err := k.Event("ww1")
		require.NoError(t, err)
		loc, ok := ww1.Fact(model.PredLocatedIn)
		require.True(t, ok)
		assert.Equal(t, "Europe", loc.Object)

		cas, ok := ww1.Fact(model.PredCasualties)
		require.True(t, ok)
		n, err := cas.Scalar()
		require.NoError(t, err)
		assert.Equal(t, int64(17000000), n)

		edges := k.Relations(model.PredCaused)
		require.Len(t, edges, 1)
		assert.Equal(t, 0.7, edges[0].Confidence)
	})

	t.Run("json", func(t *testing.T) {
		k, err := LoadFile(fs, "/kb/people.json", "")
		require.NoError(t, err)
		curie, err := k.Entity("curie")
		require.NoError(t, err)
		assert.Equal(t, []string{"Poland"}, curie.Countries)
		assert.Len(t, curie.Facts, 3)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(fs, "/kb/nope.yaml", "yaml")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := LoadFile(fs, "/kb/broken.yaml", "yaml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConfig))
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := LoadFile(fs, "/kb/history.yaml", "toml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConfig))
	})
}

func TestOpenSeed(t *testing.T) {
	k, err := Open(context.Background(), afero.NewMemMapFs(), "", "auto", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, k.Events())
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "json", formatFromPath("kb.JSON"))
	assert.Equal(t, "sqlite", formatFromPath("/data/kb.db"))
	assert.Equal(t, "yaml", formatFromPath("kb.yml"))
}
