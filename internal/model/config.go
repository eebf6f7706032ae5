package model

import "time"

// Config holds chronoqa configuration
type Config struct {
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Dedup      DedupConfig      `yaml:"dedup" mapstructure:"dedup"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	KB         KBConfig         `yaml:"kb" mapstructure:"kb"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" mapstructure:"checkpoint"`
	Templates  TemplatesConfig  `yaml:"templates" mapstructure:"templates"`
	Provenance ProvenanceConfig `yaml:"provenance" mapstructure:"provenance"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// GenerationConfig drives the batch scheduler
type GenerationConfig struct {
	Seed          int64              `yaml:"seed" mapstructure:"seed"`
	TargetPerType int                `yaml:"target_per_type" mapstructure:"target_per_type" validate:"gte=0"`
	Targets       map[string]int     `yaml:"targets,omitempty" mapstructure:"targets" validate:"dive,keys,qtype,endkeys,gte=0"`
	Types         []string           `yaml:"types,omitempty" mapstructure:"types" validate:"dive,qtype"`
	Partitions    int                `yaml:"partitions" mapstructure:"partitions" validate:"gte=1,lte=4096"`
	Workers       int                `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=1024"`
	QueueSize     int                `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=1"`
	RatePerType   float64            `yaml:"rate_per_type" mapstructure:"rate_per_type" validate:"gte=0"`                   // candidates/sec, 0 = unlimited
	Rates         map[string]float64 `yaml:"rates,omitempty" mapstructure:"rates" validate:"dive,keys,qtype,endkeys,gte=0"` // per-type overrides of rate_per_type
	Timeout       time.Duration      `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// DedupConfig sizes the deduplication index
type DedupConfig struct {
	Capacity          int     `yaml:"capacity" mapstructure:"capacity" validate:"gte=1"`
	FalsePositiveRate float64 `yaml:"false_positive_rate" mapstructure:"false_positive_rate" validate:"gt=0,lt=1"`
	ExactWindow       int     `yaml:"exact_window" mapstructure:"exact_window" validate:"gte=1"`
	Shards            int     `yaml:"shards" mapstructure:"shards" validate:"gte=1,lte=1024"`
}

// ValidationConfig holds candidate acceptance thresholds
type ValidationConfig struct {
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence" validate:"gte=0,lte=1"`
}

// OutputConfig holds batch writer settings
type OutputConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir" validate:"required"`
	Format      string `yaml:"format" mapstructure:"format" validate:"oneof=csv jsonl"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1"`
	MetricsFile string `yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// KBConfig locates the knowledge base. An empty path loads the built-in seed.
type KBConfig struct {
	Path   string `yaml:"path,omitempty" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=auto yaml json sqlite"`
}

// CheckpointConfig controls resumable cursors
type CheckpointConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir" validate:"required_if=Enabled true"`
}

// TemplatesConfig points to optional template overrides
type TemplatesConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// ProvenanceConfig maps fact source labels to provenance tiers
type ProvenanceConfig struct {
	Curated   []string `yaml:"curated" mapstructure:"curated"`
	Generated []string `yaml:"generated" mapstructure:"generated"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	JSON bool `yaml:"json" mapstructure:"json"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Seed:          42,
			TargetPerType: 100,
			Partitions:    8,
			Workers:       4,
			QueueSize:     4,
			RatePerType:   0,
			Timeout:       0,
		},
		Dedup: DedupConfig{
			Capacity:          10_000_000,
			FalsePositiveRate: 0.001,
			ExactWindow:       1_000_000,
			Shards:            64,
		},
		Validation: ValidationConfig{
			MinConfidence: 0.7,
		},
		Output: OutputConfig{
			Dir:       "output",
			Format:    "csv",
			BatchSize: 100_000,
		},
		KB: KBConfig{
			Format: "auto",
		},
		Checkpoint: CheckpointConfig{
			Enabled: false,
			Dir:     ".chronoqa/checkpoints",
		},
		Provenance: ProvenanceConfig{
			Curated:   []string{"curated", "wikidata", "britannica"},
			Generated: []string{"generated", "extracted", "inferred"},
		},
	}
}

// EnabledTypes returns the configured question types in canonical order.
// An empty list enables all 16.
func (c *Config) EnabledTypes() []QuestionType {
	if len(c.Generation.Types) == 0 {
		return AllQuestionTypes()
	}
	want := make(map[QuestionType]bool, len(c.Generation.Types))
	for _, t := range c.Generation.Types {
		want[QuestionType(t)] = true
	}
	var out []QuestionType
	for _, t := range questionTypes {
		if want[t] {
			out = append(out, t)
		}
	}
	return out
}

// TargetFor returns the number of questions to emit for t
func (c *Config) TargetFor(t QuestionType) int {
	if n, ok := c.Generation.Targets[string(t)]; ok {
		return n
	}
	return c.Generation.TargetPerType
}
