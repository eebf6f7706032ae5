package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/sink"
)

// verifyCmd re-reads a generated corpus
var verifyCmd = &cobra.Command{
	Use:   "verify [dir]",
	Short: "Check the batch files of a generated corpus",
	Long: `Verify re-reads every batch file in the output directory and checks
the header, field counts, batch numbering, record ids and batch sizes.

The directory, format and batch size default to the output settings of the
configuration.

Example:
  chronoqa verify
  chronoqa verify ./corpus --format jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	flags := verifyCmd.Flags()
	flags.String("format", "", "batch file format: csv or jsonl (default: output.format)")
	flags.Int("batch-size", 0, "maximum records per batch (default: output.batch_size)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	dir := cfg.Output.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = cfg.Output.Format
	}
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize == 0 {
		batchSize = cfg.Output.BatchSize
	}

	report, err := sink.Verify(afero.NewOsFs(), dir, format, batchSize)
	if err != nil {
		return err
	}
	printReport(report)

	if !report.OK() {
		return errors.Mark(errors.Newf("verify %s: %d problems", dir, len(report.Problems)), errors.ErrValidationRejected)
	}
	return nil
}

func printReport(r *sink.Report) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Corpus Verification: %s\n", r.Dir)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Batches:  %d (%s)\n", r.Batches, r.Format)
	fmt.Fprintf(os.Stderr, "  Records:  %s\n", humanize.Comma(int64(r.Records)))

	types := make([]string, 0, len(r.ByType))
	for t := range r.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(os.Stderr, "    %-22s %9s\n", t, humanize.Comma(int64(r.ByType[t])))
	}

	fmt.Fprintf(os.Stderr, "\n")
	if r.OK() {
		fmt.Fprintf(os.Stderr, "✓ No problems found\n\n")
		return
	}
	fmt.Fprintf(os.Stderr, "⚠ %d problems\n", len(r.Problems))
	for _, p := range r.Problems {
		fmt.Fprintf(os.Stderr, "  - %s\n", p)
	}
	fmt.Fprintf(os.Stderr, "\n")
}
