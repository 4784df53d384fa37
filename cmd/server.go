package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"replicate/config"
	"syscall"

	"github.com/spf13/cobra"
)

var standaloneServerPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the settings API (can be run standalone or as part of 'start')",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := pickPort(cmd.Flags().Changed("port"), standaloneServerPort, config.AppConfig.Server.Port, "8788")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		plugin := newPlugin()
		if err := prepareSettings(ctx, plugin); err != nil {
			return err
		}

		fmt.Printf("API listening on :%s. Press Ctrl+C to exit.\n", port)
		return runAPI(ctx, port, apiEnv(plugin))
	},
}

func init() {
	serverCmd.Flags().StringVarP(&standaloneServerPort, "port", "p", "8788", "Port for the API server to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
