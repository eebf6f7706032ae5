package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/kb"
	"github.com/ppiankov/chronoqa/internal/logger"
)

var (
	kbPath   string
	kbFormat string
)

// kbCmd represents the kb command
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the knowledge base",
	Long: `Inspect the knowledge base questions are generated from.

Without --kb the configured knowledge base is used, falling back to the
built-in seed of curated historical events, people and organizations.`,
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKB(cmd.Context())
		if err != nil {
			return err
		}
		s := k.Stats()

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("  Knowledge Base")
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		fmt.Printf("  Entities:    %s\n", humanize.Comma(int64(s.Entities)))
		fmt.Printf("  Events:      %s (%d ongoing)\n", humanize.Comma(int64(s.Events)), s.OpenEnded)
		fmt.Printf("  Facts:       %s\n", humanize.Comma(int64(s.Facts)))
		fmt.Printf("  Countries:   %d\n", s.Countries)
		if s.Earliest != "" {
			fmt.Printf("  Time span:   %s .. %s\n", s.Earliest, s.Latest)
		}
		printCounts("By type", s.ByType)
		printCounts("By domain", s.ByDomain)
		printCounts("Relations", s.Relations)
		fmt.Println()
		return nil
	},
}

var kbShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an entity and its facts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := openKB(cmd.Context())
		if err != nil {
			return err
		}
		e, err := k.Entity(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", e.Name, e.ID)
		fmt.Printf("  Type:      %s\n", e.Type)
		if e.Domain != "" {
			fmt.Printf("  Domain:    %s\n", e.Domain)
		}
		if len(e.Countries) > 0 {
			fmt.Printf("  Countries: %v\n", e.Countries)
		}
		if ev, err := k.Event(e.ID); err == nil {
			r := ev.Range()
			fmt.Printf("  Span:      %s .. %s (%s)\n", r.SpanStart(), r.SpanEnd(), r.Granularity)
		}
		fmt.Println()
		for _, f := range e.Facts {
			source := f.Source
			if source == "" {
				source = "-"
			}
			fmt.Printf("  %-12s %-28s [%s]\n", f.Predicate, f.Object, source)
		}
		return nil
	},
}

var kbExportCmd = &cobra.Command{
	Use:   "export <db>",
	Short: "Write the knowledge base to a SQLite database",
	Long: `Export writes every entity and fact into a new SQLite database that
generate can read back with --kb <db>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		k, err := openKB(ctx)
		if err != nil {
			return err
		}

		if _, err := os.Stat(args[0]); err == nil {
			return errors.Newf("database already exists: %s", args[0])
		}

		db, err := kb.OpenSQLite(args[0], logger.ComponentLogger("kb"))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := kb.WriteSQL(ctx, db, k); err != nil {
			return errors.Wrapf(err, "export to %s", args[0])
		}

		s := k.Stats()
		fmt.Printf("✓ Exported %d entities and %d facts to %s\n", s.Entities, s.Facts, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbStatsCmd)
	kbCmd.AddCommand(kbShowCmd)
	kbCmd.AddCommand(kbExportCmd)

	kbCmd.PersistentFlags().StringVar(&kbPath, "kb", "", "knowledge base file (default: configured path or built-in seed)")
	kbCmd.PersistentFlags().StringVar(&kbFormat, "kb-format", "", "knowledge base format (auto, yaml, json, sqlite)")
}

func openKB(ctx context.Context) (*kb.KnowledgeBase, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	path := kbPath
	if path == "" {
		path = viper.GetString("kb.path")
	}
	format := kbFormat
	if format == "" {
		format = viper.GetString("kb.format")
	}

	k, err := kb.Open(ctx, afero.NewOsFs(), path, format, logger.ComponentLogger("kb"))
	if err != nil {
		return nil, errors.Wrap(err, "open knowledge base")
	}
	return k, nil
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println()
	fmt.Printf("  %s:\n", title)
	for _, k := range keys {
		fmt.Printf("    %-16s %d\n", k, counts[k])
	}
}
