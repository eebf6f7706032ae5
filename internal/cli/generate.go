package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/chronoqa/internal/checkpoint"
	"github.com/ppiankov/chronoqa/internal/dedup"
	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/generate"
	"github.com/ppiankov/chronoqa/internal/kb"
	"github.com/ppiankov/chronoqa/internal/logger"
	"github.com/ppiankov/chronoqa/internal/metrics"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/pipeline"
	"github.com/ppiankov/chronoqa/internal/schedule"
	"github.com/ppiankov/chronoqa/internal/score"
	"github.com/ppiankov/chronoqa/internal/sink"
	"github.com/ppiankov/chronoqa/internal/templates"
	"github.com/ppiankov/chronoqa/internal/validate"
)

var noVerify bool

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a temporal question-answer corpus",
	Long: `Generate enumerates question instances for every enabled question type:
- Derive each answer from the knowledge base facts
- Validate structure and content, then score confidence and complexity
- Drop semantic duplicates by fingerprint
- Write accepted records in fixed-size batch files

A type stops when it reaches its target (satisfied) or runs out of
instances (exhausted). Interrupting a run flushes accepted records and,
with checkpoints enabled, the next run resumes where this one stopped.

Example:
  chronoqa generate
  chronoqa generate --target 1000 --types comparison_event,duration_estimation
  chronoqa generate --kb facts.db --out ./corpus --format jsonl --checkpoint`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.Int64("seed", 42, "enumeration seed")
	flags.Int("target", 100, "questions to emit per type")
	flags.StringSlice("types", nil, "question types to generate (default: all)")
	flags.Int("workers", 4, "number of concurrent workers")
	flags.Int("partitions", 8, "enumeration partitions per type")
	flags.Float64("rate", 0, "candidates per second per type (0 = unlimited)")
	flags.Duration("timeout", 0, "stop the run after this long (0 = no limit)")
	flags.String("out", "output", "output directory")
	flags.String("format", "csv", "output format (csv, jsonl)")
	flags.Int("batch-size", 100_000, "records per batch file")
	flags.String("metrics-file", "", "write Prometheus metrics to this file after the run")
	flags.String("kb", "", "knowledge base file (YAML, JSON or SQLite; default: built-in seed)")
	flags.String("templates", "", "YAML template overrides")
	flags.Bool("checkpoint", false, "save cursors and resume interrupted runs")
	flags.BoolVar(&noVerify, "no-verify", false, "skip re-deriving answers before accepting them")

	bindings := map[string]string{
		"generation.seed":            "seed",
		"generation.target_per_type": "target",
		"generation.types":           "types",
		"generation.workers":         "workers",
		"generation.partitions":      "partitions",
		"generation.rate_per_type":   "rate",
		"generation.timeout":         "timeout",
		"output.dir":                 "out",
		"output.format":              "format",
		"output.batch_size":          "batch-size",
		"output.metrics_file":        "metrics-file",
		"kb.path":                    "kb",
		"templates.path":             "templates",
		"checkpoint.enabled":         "checkpoint",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	log := logger.ComponentLogger("generate")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Generation.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Generation.Timeout)
		defer cancel()
	}

	fs := afero.NewOsFs()
	opts := schedule.OptionsFromConfig(cfg)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  chronoqa Corpus Generation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Knowledge base: %s\n", orDefault(cfg.KB.Path, "built-in seed"))
	fmt.Fprintf(os.Stderr, "  Types:          %d\n", len(opts.Types))
	fmt.Fprintf(os.Stderr, "  Seed:           %d\n", cfg.Generation.Seed)
	fmt.Fprintf(os.Stderr, "  Workers:        %d (%d partitions)\n", cfg.Generation.Workers, cfg.Generation.Partitions)
	fmt.Fprintf(os.Stderr, "  Output:         %s (%s, %s per batch)\n", cfg.Output.Dir, cfg.Output.Format, humanize.Comma(int64(cfg.Output.BatchSize)))
	fmt.Fprintf(os.Stderr, "  Checkpoints:    %v\n", cfg.Checkpoint.Enabled)
	fmt.Fprintf(os.Stderr, "\n")

	// Knowledge base
	k, err := kb.Open(ctx, fs, cfg.KB.Path, cfg.KB.Format, logger.ComponentLogger("kb"))
	if err != nil {
		return errors.Wrap(err, "open knowledge base")
	}
	stats := k.Stats()
	fmt.Fprintf(os.Stderr, "✓ Loaded %d entities, %d events, %d facts\n", stats.Entities, stats.Events, stats.Facts)

	// Templates
	catalog := templates.Default()
	if cfg.Templates.Path != "" {
		if catalog, err = templates.Load(fs, cfg.Templates.Path); err != nil {
			return errors.Wrap(err, "load templates")
		}
	}

	// Strategies
	registry, err := generate.NewRegistry(k, catalog, generate.Options{
		Seed:       cfg.Generation.Seed,
		Classifier: validate.NewProvenanceClassifier(&cfg.Provenance),
	})
	if err != nil {
		return errors.Wrap(err, "build strategies")
	}

	index, err := dedup.New(cfg.Dedup)
	if err != nil {
		return err
	}

	writer, err := sink.New(fs, cfg.Output.Dir, cfg.Output.Format)
	if err != nil {
		return err
	}

	deps := schedule.Deps{
		Registry: registry,
		Pipeline: pipeline.NewPipeline(validate.NewValidator(k, cfg.Validation.MinConfidence), score.NewScorer(), index, !noVerify),
		Dedup:    index,
		Writer:   writer,
		Metrics:  metrics.NewCollector("chronoqa"),
		Logger:   logger.ComponentLogger("schedule"),
	}
	if cfg.Checkpoint.Enabled {
		deps.Checkpoints = checkpoint.NewLayeredStore(fs, cfg.Checkpoint.Dir)
	}

	scheduler, err := schedule.New(deps, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Generating...\n")
	summary, runErr := scheduler.Run(ctx)
	if summary != nil {
		printSummary(summary, cfg)
	}
	if runErr != nil {
		return errors.Wrap(runErr, "generation failed")
	}

	if cfg.Output.MetricsFile != "" {
		if err := deps.Metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			log.Warnw("Failed to write metrics", logger.FieldPath, cfg.Output.MetricsFile, logger.FieldError, err)
		}
	}

	if summary.Cancelled {
		log.Warnw("Run interrupted", "run", summary.Run, "elapsed", summary.Elapsed.Round(time.Millisecond))
	}
	return nil
}

func printSummary(summary *schedule.Summary, cfg *model.Config) {
	title := "Generation Complete"
	if summary.Cancelled {
		title = "Generation Interrupted"
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", title)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  %-20s %-10s %9s %9s %9s  %s\n", "TYPE", "STATE", "ACCEPTED", "TARGET", "REJECTED", "REASONS")

	for _, ts := range summary.Types {
		marker := "✓"
		if ts.State == schedule.StateExhausted {
			marker = "⚠"
		} else if !ts.State.Settled() {
			marker = "…"
		}
		fmt.Fprintf(os.Stderr, "%s %-20s %-10s %9s %9s %9s  %s\n",
			marker, ts.Type, ts.State,
			humanize.Comma(int64(ts.Accepted)),
			humanize.Comma(int64(ts.Target)),
			humanize.Comma(int64(ts.RejectedTotal())),
			reasons(ts.Rejected),
		)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Records:     %s in %d batches\n", humanize.Comma(int64(summary.Records)), summary.Batches)
	fmt.Fprintf(os.Stderr, "  Duplicates:  %s (%d bloom-only)\n", humanize.Comma(summary.Dedup.Duplicates), summary.Dedup.BloomOnly)
	fmt.Fprintf(os.Stderr, "  Elapsed:     %v\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  Output:      %s\n", cfg.Output.Dir)
	if cfg.Checkpoint.Enabled {
		fmt.Fprintf(os.Stderr, "  Checkpoint:  %s\n", summary.Run)
	}
	fmt.Fprintf(os.Stderr, "\n")
}

func reasons(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
