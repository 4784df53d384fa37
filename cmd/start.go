package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"replicate/config"
	"replicate/core"
	"replicate/logger"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	startServerPort string
	startProxyPort  string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the redirect proxy and the settings API",
	Long: `Loads the redirect rules, starts the HTTPS proxy and the settings API
concurrently. Press Ctrl+C to shut down; the original sync host accessor is
restored on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverPort := pickPort(cmd.Flags().Changed("server-port"), startServerPort, config.AppConfig.Server.Port, "8788")
		proxyPort := pickPort(cmd.Flags().Changed("proxy-port"), startProxyPort, config.AppConfig.Proxy.Port, "8787")
		logger.Info("Start Command: Server port %s, proxy port %s", serverPort, proxyPort)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		plugin := newPlugin()
		proxy := core.NewProxyServer(config.AppConfig.Proxy.Verbose)
		if err := plugin.Load(ctx, proxy); err != nil {
			return fmt.Errorf("loading redirect rules: %w", err)
		}
		defer plugin.Unload()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := runAPI(ctx, serverPort, apiEnv(plugin)); err != nil {
				logger.Error("Start Command: API server error: %v", err)
				cancel()
			}
		}()
		go func() {
			defer wg.Done()
			if err := runProxy(ctx, proxyPort, proxy); err != nil {
				logger.ProxyError("Start Command: proxy error: %v", err)
				cancel()
			}
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)

		fmt.Printf("replicate running: proxy on :%s, API on :%s. Press Ctrl+C to exit.\n", proxyPort, serverPort)
		select {
		case sig := <-sigs:
			logger.Info("Start Command: Received signal: %s. Initiating shutdown...", sig)
		case <-ctx.Done():
			logger.Info("Start Command: Context cancelled (likely due to a service error). Initiating shutdown...")
		}
		cancel()

		shutdownComplete := make(chan struct{})
		go func() {
			wg.Wait()
			close(shutdownComplete)
		}()
		select {
		case <-shutdownComplete:
			logger.Info("Start Command: All services shut down.")
		case <-time.After(10 * time.Second):
			logger.Error("Start Command: Shutdown timed out. Forcing exit.")
		}
		return nil
	},
}

func init() {
	startCmd.Flags().StringVar(&startServerPort, "server-port", "8788", "Port for the API server (overrides config)")
	startCmd.Flags().StringVar(&startProxyPort, "proxy-port", "8787", "Port for the proxy (overrides config)")
	rootCmd.AddCommand(startCmd)
}
