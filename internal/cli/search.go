package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Query the site index from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query := strings.Join(args, " ")
		results, err := a.Engine.QueryDetailed(cmd.Context(), query)
		if err != nil {
			return err
		}
		if searchLimit > 0 && len(results) > searchLimit {
			results = results[:searchLimit]
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, muted.Render(fmt.Sprintf("No results for %q", query)))
			return nil
		}

		for i, r := range results {
			fmt.Fprintf(out, "%s %s\n", muted.Render(fmt.Sprintf("%2d.", i+1)), accent.Render(renderHighlighted(r.Title)))
			meta := r.URI
			if r.Date != "" {
				meta += "  " + r.Date
			}
			fmt.Fprintf(out, "    %s\n", muted.Render(meta))
			if r.Context != "" {
				fmt.Fprintf(out, "    %s\n", renderHighlighted(r.Context))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum results (default from search.max_result_length)")
	rootCmd.AddCommand(searchCmd)
}
