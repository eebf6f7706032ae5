package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/logger"
	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/validate"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile  string
	verbose  bool
	jsonLogs bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "chronoqa",
	Short: "chronoqa - temporal question-answer corpus generator",
	Long: `chronoqa turns a knowledge base of dated historical facts into a large
corpus of distinct temporal question-answer pairs.

Every answer is derived from the facts, never from the rendered question.
Questions cover 16 kinds of temporal reasoning: attribute lookup,
comparison, counting, duration, ordering, clustering, overlap, causal and
counterfactual chains.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(jsonLogs || viper.GetBool("logging.json"), verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chronoqa %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.chronoqa/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := setDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.chronoqa")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CHRONOQA_*, with nested
	// keys joined by underscores (CHRONOQA_GENERATION_SEED)
	viper.SetEnvPrefix("CHRONOQA")
	viper.SetEnvKeyReplacer(newEnvReplacer())
	viper.AutomaticEnv()
	for _, key := range optionalKeys {
		_ = viper.BindEnv(key)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func newEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// optionalKeys are omitted from the marshalled defaults when empty, so they
// are bound to the environment explicitly
var optionalKeys = []string{"generation.types", "kb.path", "templates.path", "output.metrics_file"}

// setDefaults registers every key of cfg as a viper default so that
// environment variables can override keys the config file never mentions
func setDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal defaults")
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return errors.Wrap(err, "unmarshal defaults")
	}
	walkDefaults(v, "", tree)
	return nil
}

func walkDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			walkDefaults(v, key, nested)
			continue
		}
		v.SetDefault(key, value)
	}
}

// loadConfig merges defaults, config file, environment and flags into a
// validated configuration
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode configuration"), errors.ErrConfig)
	}
	if err := validate.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
