package cmd

import (
	"fmt"
	"os"
	"replicate/database"
	"replicate/models"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	redirectsListLimit  int
	redirectsListOffset int
	redirectsListRule   string
)

var redirectsCmd = &cobra.Command{
	Use:     "redirects",
	Short:   "Views and clears the log of intercepted requests",
	Aliases: []string{"rd"},
}

var redirectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists recorded redirects, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, total, err := database.GetRedirectLogs(models.RedirectLogFilters{
			Rule:   redirectsListRule,
			Limit:  redirectsListLimit,
			Offset: redirectsListOffset,
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No redirects recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tMETHOD\tRULE\tSTATUS\tMS\tORIGINAL\tSENT TO")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Method, r.Rule, r.StatusCode, r.DurationMs, r.OriginalURL, r.RedirectURL)
		}
		w.Flush()
		fmt.Printf("\nShowing %d of %d.\n", len(records), total)
		return nil
	},
}

var redirectsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deletes all recorded redirects",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := database.ClearRedirectLogs()
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d redirect log entries.\n", n)
		return nil
	},
}

func init() {
	redirectsListCmd.Flags().IntVarP(&redirectsListLimit, "limit", "l", 50, "Maximum number of entries to show")
	redirectsListCmd.Flags().IntVar(&redirectsListOffset, "offset", 0, "Entries to skip")
	redirectsListCmd.Flags().StringVar(&redirectsListRule, "rule", "", "Only show entries for this rule (sync, publish, none)")

	redirectsCmd.AddCommand(redirectsListCmd, redirectsClearCmd)
	rootCmd.AddCommand(redirectsCmd)
}
