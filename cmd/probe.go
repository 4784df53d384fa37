package cmd

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"replicate/config"
	"replicate/core"
	"time"

	"github.com/spf13/cobra"
)

var (
	probeProxyURL string
	probeTimeout  time.Duration
	probeMaxBody  int
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Checks the redirect end to end",
}

var probeHTTPCmd = &cobra.Command{
	Use:   "http <url>",
	Short: "Sends a GET through the running proxy and prints what came back",
	Example: `  replicate probe http https://api.obsidian.md/
  replicate probe http --proxy http://127.0.0.1:9000 https://publish.obsidian.md/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proxyURL := probeProxyURL
		if proxyURL == "" {
			proxyURL = "http://127.0.0.1:" + config.AppConfig.Proxy.Port
		}
		var ca *x509.Certificate
		if cert := loadCA(); cert != nil {
			ca = cert.Leaf
		}

		res, err := core.ProbeThroughProxy(cmd.Context(), args[0], core.ProbeOptions{
			ProxyURL: proxyURL,
			CA:       ca,
			Timeout:  probeTimeout,
			MaxBody:  probeMaxBody,
		})
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var probeWSCmd = &cobra.Command{
	Use:   "ws [ws-url]",
	Short: "Opens a WebSocket to the resolved sync URL (or the one given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 1 {
			target = args[0]
		} else {
			plugin := newPlugin()
			if err := prepareSettings(cmd.Context(), plugin); err != nil {
				return err
			}
			resolved, err := plugin.Hosts.Resolve(cmd.Context(), core.SyncHostAccessor)
			if err != nil {
				return err
			}
			target = resolved
		}

		status, err := core.ProbeWebSocket(cmd.Context(), target, probeTimeout)
		if err != nil {
			return fmt.Errorf("%s: handshake status %d: %w", target, status, err)
		}
		fmt.Printf("%s: connected (status %d)\n", target, status)
		return nil
	},
}

func init() {
	probeHTTPCmd.Flags().StringVar(&probeProxyURL, "proxy", "", "Proxy URL (default http://127.0.0.1:<proxy.port>)")
	probeHTTPCmd.Flags().IntVar(&probeMaxBody, "max-body", 2048, "Truncate the printed body to this many bytes (0 for all)")
	probeCmd.PersistentFlags().DurationVar(&probeTimeout, "timeout", 15*time.Second, "Request timeout")

	probeCmd.AddCommand(probeHTTPCmd, probeWSCmd)
	rootCmd.AddCommand(probeCmd)
}
