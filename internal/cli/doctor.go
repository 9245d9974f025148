package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sitekit/sitekit/internal/runtime"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the Hugo toolchain and the search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		info, err := runtime.DetectRuntimeInfo(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		env := info.Environment
		if env.HasHugo {
			edition := ""
			if env.HugoExtended {
				edition = " extended"
			}
			fmt.Fprintf(out, "✓ Hugo %s\n", accent.Render("v"+env.HugoVersion+edition))
		} else {
			fmt.Fprintf(out, "✗ Hugo %s\n", muted.Render("not found"))
		}

		switch {
		case info.Index.Reachable:
			fmt.Fprintf(out, "✓ Index %s\n", accent.Render(info.Index.Location))
		case info.Index.Location != "":
			fmt.Fprintf(out, "✗ Index %s %s\n", accent.Render(info.Index.Location), muted.Render(info.Index.Error))
		}
		fmt.Fprintf(out, "  Search %s %s\n", bold.Render(info.SearchType), muted.Render("("+info.SearchMode+")"))

		if len(info.Recommendations) == 0 {
			return nil
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, bold.Render("Recommendations"))
		for _, r := range info.Recommendations {
			fmt.Fprintf(out, "%d. %s: %s\n", r.Priority, accentBold.Render(r.Action), r.Reason)
			if r.Warning != "" {
				fmt.Fprintf(out, "   %s\n", warning.Render(r.Warning))
			}
			if r.CommandTemplate != "" {
				fmt.Fprintf(out, "   %s\n", muted.Render("$ "+r.CommandTemplate))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
