package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"replicate/api"
	"replicate/api/router/handlers"
	"replicate/config"
	"replicate/core"
	"replicate/logger"
	"time"

	"github.com/elazarl/goproxy"
)

// newHostRegistry returns a registry whose sync accessor yields the
// configured default socket URL.
func newHostRegistry() *core.HostRegistry {
	hosts := core.NewHostRegistry()
	hosts.Register(core.SyncHostAccessor, core.StaticHost(config.AppConfig.Sync.DefaultWebSocketURL))
	return hosts
}

// loadCA returns nil when the CA is missing so the plugin can report the
// failure through a notice instead of refusing to start.
func loadCA() *tls.Certificate {
	ca, err := core.LoadCA(config.AppConfig.Proxy.CACertPath, config.AppConfig.Proxy.CAKeyPath)
	if err != nil {
		logger.Error("Could not load proxy CA (run 'replicate proxy init-ca'): %v", err)
		return nil
	}
	return ca
}

// newPlugin wires the store, rewriter, interceptor and host registry from the
// active configuration.
func newPlugin() *core.Plugin {
	store := core.NewDBSettingsStore()
	rewriter := core.NewRewriter(store, config.FieldMode())
	icpt := core.NewInterceptor(rewriter, core.InterceptorOptions{
		Patterns: config.AppConfig.Proxy.InterceptPatterns,
		CA:       loadCA(),
		Mode:     core.ParseRedirectMode(config.AppConfig.Proxy.RedirectMode),
		Sink:     core.DBRedirectSink{},
	})
	return &core.Plugin{
		Store:       store,
		Hosts:       newHostRegistry(),
		Interceptor: icpt,
		Notifier:    core.DBNotifier{},
	}
}

// prepareSettings installs the default record and the sync host override
// without touching the network. Commands that only read or edit settings
// use it instead of Plugin.Load.
func prepareSettings(ctx context.Context, p *core.Plugin) error {
	if installer, ok := p.Store.(core.Installer); ok {
		if _, err := installer.Install(ctx); err != nil {
			return fmt.Errorf("installing default settings: %w", err)
		}
	}
	return p.Hosts.Override(core.SyncHostAccessor, func(previous core.HostResolver) core.HostResolver {
		return core.NewSyncHostOverride(previous, p.Store)
	})
}

func apiEnv(p *core.Plugin) *handlers.Env {
	return &handlers.Env{
		Store:     p.Store,
		FieldMode: config.FieldMode(),
		Hosts:     p.Hosts,
		Rewriter:  core.NewRewriter(p.Store, config.FieldMode()),
	}
}

// serveUntilDone runs srv until ctx is cancelled, then shuts it down.
func serveUntilDone(ctx context.Context, srv *http.Server, name string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("%s: shutdown signal received...", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("%s: graceful shutdown failed: %v", name, err)
			return err
		}
		logger.Info("%s: gracefully stopped.", name)
		return nil
	}
}

func runProxy(ctx context.Context, port string, proxy *goproxy.ProxyHttpServer) error {
	logger.ProxyInfo("Proxy listening on :%s", port)
	return serveUntilDone(ctx, &http.Server{Addr: ":" + port, Handler: proxy}, "Proxy")
}

func runAPI(ctx context.Context, port string, env *handlers.Env) error {
	logger.Info("API server listening on :%s", port)
	return serveUntilDone(ctx, &http.Server{Addr: ":" + port, Handler: api.NewServerHandler(env)}, "API server")
}

// pickPort prefers an explicitly set flag over the configured value.
func pickPort(flagChanged bool, flagValue, configValue, fallback string) string {
	port := configValue
	if flagChanged {
		port = flagValue
	}
	if port == "" {
		port = fallback
	}
	return port
}
