package cmd

import (
	"fmt"
	"replicate/config"
	"replicate/core"

	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <url> [url...]",
	Short: "Shows where each URL would be sent with the current settings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rw := core.NewRewriter(core.NewDBSettingsStore(), config.FieldMode())
		for _, u := range args {
			decision, err := rw.Rewrite(cmd.Context(), u)
			if err != nil {
				return err
			}
			fmt.Printf("%s -> %s (%s)\n", decision.Original, decision.Redirect, decision.Rule)
		}
		return nil
	},
}

var rewriteHelperCmd = &cobra.Command{
	Use:   "rewrite-helper",
	Short: "Runs as a squid url_rewrite_program on stdin/stdout",
	Long: `Reads one request per line from stdin and answers on stdout using squid's
url_rewrite_program protocol. Configure squid with:

  url_rewrite_program /path/to/replicate rewrite-helper

Settings are re-read for every line, so edits apply without restarting squid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rw := core.NewRewriter(core.NewDBSettingsStore(), config.FieldMode())
		return core.ServeRewriteHelper(cmd.Context(), rw, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(rewriteHelperCmd)
}
