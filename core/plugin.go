package core

import (
	"context"
	"fmt"
	"replicate/logger"

	"github.com/elazarl/goproxy"
)

// interceptFailurePrefix starts the notice shown when the network hook
// cannot be installed.
const interceptFailurePrefix = "Failed to intercept requests. The error was: "

// Installer creates the default settings record on first activation.
type Installer interface {
	Install(ctx context.Context) (bool, error)
}

// Plugin wires the redirect rules into the proxy and the host registry.
type Plugin struct {
	Store       SettingsStore
	Hosts       *HostRegistry
	Interceptor *Interceptor
	Notifier    Notifier
}

// Load activates the plugin. Settings are installed if missing, interception
// is registered on proxy, and the sync host accessor is overridden. Failing to
// register interception is not fatal: the user is notified and Load continues
// without it.
func (p *Plugin) Load(ctx context.Context, proxy *goproxy.ProxyHttpServer) error {
	if installer, ok := p.Store.(Installer); ok {
		if _, err := installer.Install(ctx); err != nil {
			return fmt.Errorf("installing default settings: %w", err)
		}
	}
	settings, err := p.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	logger.Info("Plugin loading with sync base URL '%s', publish base URL '%s'.", settings.SyncBaseURL, settings.PublishBaseURL)

	if p.Interceptor == nil {
		p.notify(ctx, fmt.Errorf("no interceptor configured"))
	} else if err := p.Interceptor.Register(proxy); err != nil {
		p.notify(ctx, err)
	}

	if p.Hosts != nil {
		err := p.Hosts.Override(SyncHostAccessor, func(previous HostResolver) HostResolver {
			return NewSyncHostOverride(previous, p.Store)
		})
		if err != nil {
			return fmt.Errorf("overriding sync host accessor: %w", err)
		}
	}
	logger.Info("Plugin loaded.")
	return nil
}

// Unload restores the original sync host accessor and stops rewriting.
func (p *Plugin) Unload() {
	if p.Interceptor != nil {
		p.Interceptor.Detach()
	}
	if p.Hosts != nil {
		if err := p.Hosts.Restore(SyncHostAccessor); err != nil {
			logger.Error("Plugin unload: %v", err)
		}
	}
	logger.Info("Plugin unloaded.")
}

func (p *Plugin) notify(ctx context.Context, err error) {
	message := interceptFailurePrefix + err.Error()
	if p.Notifier == nil {
		logger.Error("%s", message)
		return
	}
	p.Notifier.Notify(ctx, message)
}
