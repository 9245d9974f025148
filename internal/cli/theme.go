package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sitekit/sitekit/internal/preference"
)

var themeCmd = &cobra.Command{
	Use:       "theme [toggle|light|dark]",
	Short:     "Show or change the saved theme preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"toggle", preference.Light, preference.Dark},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store := preference.NewStore(cfg.Preference.Path, nil)
		store.Load()

		theme := store.Theme()
		if len(args) == 1 {
			switch args[0] {
			case "toggle":
				theme, err = store.Toggle()
			default:
				theme, err = args[0], store.Set(args[0])
			}
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", accent.Render(theme), muted.Render(cfg.Preference.Path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

