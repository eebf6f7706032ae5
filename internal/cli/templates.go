package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/chronoqa/internal/model"
	"github.com/ppiankov/chronoqa/internal/templates"
)

var (
	templatesPath string
	templateType  string
)

// templatesCmd represents the templates command
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect question templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List question templates per type and aspect",
	Long: `List every template variant, with overrides applied.

Example:
  chronoqa templates list
  chronoqa templates list --type counterfactual
  chronoqa templates list --templates overrides.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := templatesPath
		if path == "" {
			path = viper.GetString("templates.path")
		}

		catalog := templates.Default()
		if path != "" {
			var err error
			if catalog, err = templates.Load(afero.NewOsFs(), path); err != nil {
				return err
			}
		}

		var filter model.QuestionType
		if templateType != "" {
			t, err := model.ParseQuestionType(templateType)
			if err != nil {
				return err
			}
			filter = t
		}

		var current string
		for _, e := range catalog.List() {
			if filter != "" && e.Type != filter {
				continue
			}
			key := string(e.Type) + "/" + e.Aspect
			if key != current {
				if current != "" {
					fmt.Println()
				}
				fmt.Printf("%s [%s]\n", key, strings.Join(e.Slots, " "))
				current = key
			}
			fmt.Printf("  %d. %s\n", e.Variant+1, e.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd)

	templatesListCmd.Flags().StringVar(&templatesPath, "templates", "", "YAML template overrides")
	templatesListCmd.Flags().StringVar(&templateType, "type", "", "only list this question type")
}
