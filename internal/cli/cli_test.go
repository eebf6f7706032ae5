package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	require.NoError(t, setDefaults(v, model.DefaultConfig()))
	return v
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newViper(t))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfig_ConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
generation:
  seed: 7
  workers: 2
  timeout: 90s
  types: [comparison_event, counterfactual]
  targets:
    counterfactual: 12
  rates:
    comparison_event: 2.5
output:
  format: jsonl
`), 0o644))

	t.Setenv("CHRONOQA_GENERATION_WORKERS", "6")

	v := newViper(t)
	v.SetConfigFile(path)
	v.SetEnvPrefix("CHRONOQA")
	v.SetEnvKeyReplacer(newEnvReplacer())
	v.AutomaticEnv()
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Generation.Seed)
	assert.Equal(t, 6, cfg.Generation.Workers)
	assert.Equal(t, 90*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, "jsonl", cfg.Output.Format)
	assert.Equal(t, []model.QuestionType{model.ComparisonEvent, model.Counterfactual}, cfg.EnabledTypes())
	assert.Equal(t, 12, cfg.TargetFor(model.Counterfactual))
	assert.Equal(t, 100, cfg.TargetFor(model.ComparisonEvent))
	assert.Equal(t, map[string]float64{"comparison_event": 2.5}, cfg.Generation.Rates)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	v := newViper(t)
	v.Set("output.format", "xml")

	_, err := loadConfig(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfig))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, model.DefaultConfig().Generation, cfg.Generation)

	// Never overwrites
	assert.Error(t, writeDefaultConfig(path))
}
