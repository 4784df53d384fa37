package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"replicate/config"
	"replicate/core"
	"replicate/logger"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	standaloneProxyPort string
	initCAForce         bool
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Manages the redirect proxy (can be run standalone or as part of 'start')",
}

var proxyStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the redirect proxy without the settings API",
	Long: `Starts the HTTPS proxy that rewrites Obsidian sync and publish requests.
Configure the client to use this proxy and trust the CA generated by
'proxy init-ca'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := pickPort(cmd.Flags().Changed("port"), standaloneProxyPort, config.AppConfig.Proxy.Port, "8787")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		plugin := newPlugin()
		proxy := core.NewProxyServer(config.AppConfig.Proxy.Verbose)
		if err := plugin.Load(ctx, proxy); err != nil {
			return fmt.Errorf("loading redirect rules: %w", err)
		}
		defer plugin.Unload()

		fmt.Printf("Proxy listening on :%s. Press Ctrl+C to exit.\n", port)
		if err := runProxy(ctx, port, proxy); err != nil {
			logger.ProxyError("Error running proxy: %v", err)
			return err
		}
		return nil
	},
}

var proxyInitCACmd = &cobra.Command{
	Use:   "init-ca",
	Short: "Generates the root CA certificate and key used to intercept HTTPS",
	RunE: func(cmd *cobra.Command, args []string) error {
		certPath := config.AppConfig.Proxy.CACertPath
		keyPath := config.AppConfig.Proxy.CAKeyPath
		if certPath == "" || keyPath == "" {
			return fmt.Errorf("CA certificate or key path is not configured")
		}
		if _, err := os.Stat(certPath); err == nil && !initCAForce {
			return fmt.Errorf("CA certificate already exists at %s (use --force to replace it)", certPath)
		}

		if err := core.GenerateAndSaveCA(certPath, keyPath); err != nil {
			return fmt.Errorf("generating CA (check logs for details): %w", err)
		}
		fmt.Printf("CA certificate written to %s\n", certPath)
		fmt.Println("Import it into the trust store of the device running the client.")
		return nil
	},
}

func init() {
	proxyStartCmd.Flags().StringVarP(&standaloneProxyPort, "port", "p", "8787", "Port for the proxy to listen on (overrides config)")
	proxyInitCACmd.Flags().BoolVar(&initCAForce, "force", false, "Overwrite an existing CA certificate and key")

	proxyCmd.AddCommand(proxyStartCmd)
	proxyCmd.AddCommand(proxyInitCACmd)
	rootCmd.AddCommand(proxyCmd)
}
