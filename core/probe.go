package core

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"replicate/logger"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gorilla/websocket"
)

// ProbeResult summarises one request sent through the proxy.
type ProbeResult struct {
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Status     string      `json:"status"`
	Location   string      `json:"location,omitempty"`
	Headers    http.Header `json:"headers"`
	Body       string      `json:"body"`
	DurationMs int64       `json:"duration_ms"`
}

// ProbeOptions configures ProbeThroughProxy.
type ProbeOptions struct {
	ProxyURL string
	// CA is trusted in addition to the system roots so intercepted HTTPS
	// connections verify.
	CA      *x509.Certificate
	Timeout time.Duration
	// MaxBody truncates the decoded body. Zero keeps everything.
	MaxBody int
}

// ProbeThroughProxy sends a GET for target via the running proxy and decodes
// the body. Redirects are not followed so a 307 from redirect mode is visible.
func ProbeThroughProxy(ctx context.Context, target string, opts ProbeOptions) (*ProbeResult, error) {
	proxyURL, err := url.Parse(opts.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL '%s': %w", opts.ProxyURL, err)
	}

	roots, err := x509.SystemCertPool()
	if err != nil || roots == nil {
		roots = x509.NewCertPool()
	}
	if opts.CA != nil {
		roots.AddCert(opts.CA)
	} else {
		logger.Debug("Probe: no CA certificate given; intercepted HTTPS responses may fail verification.")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{
		Transport: &http.Transport{
			Proxy:              http.ProxyURL(proxyURL),
			TLSClientConfig:    &tls.Config{RootCAs: roots},
			DisableCompression: true,
		},
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", target, err)
	}
	req.Header.Set("Accept-Encoding", "br, gzip")
	req.Header.Set("User-Agent", "replicate-probe/1.0")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending %s through %s: %w", target, opts.ProxyURL, err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("reading response body from %s: %w", target, err)
	}
	if opts.MaxBody > 0 && len(body) > opts.MaxBody {
		body = body[:opts.MaxBody]
	}

	return &ProbeResult{
		URL:        target,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Location:   resp.Header.Get("Location"),
		Headers:    resp.Header,
		Body:       string(body),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func decodeBody(resp *http.Response) ([]byte, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		return io.ReadAll(brotli.NewReader(resp.Body))
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	default:
		return io.ReadAll(resp.Body)
	}
}

// ProbeWebSocket opens and immediately closes a WebSocket connection to
// wsURL, returning the handshake status code.
func ProbeWebSocket(ctx context.Context, wsURL string, timeout time.Duration) (int, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		Proxy:            http.ProxyFromEnvironment,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err != nil {
		return status, fmt.Errorf("failed to dial WebSocket %s: %w", wsURL, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "probe")
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		logger.Debug("Probe: close frame to %s failed: %v", wsURL, err)
	}
	return status, nil
}
