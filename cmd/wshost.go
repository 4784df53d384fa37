package cmd

import (
	"fmt"
	"replicate/core"

	"github.com/spf13/cobra"
)

var wshostCmd = &cobra.Command{
	Use:   "wshost",
	Short: "Prints the sync WebSocket URL a client would connect to",
	RunE: func(cmd *cobra.Command, args []string) error {
		plugin := newPlugin()
		if err := prepareSettings(cmd.Context(), plugin); err != nil {
			return err
		}
		url, err := plugin.Hosts.Resolve(cmd.Context(), core.SyncHostAccessor)
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wshostCmd)
}
