package core

import (
	"context"
	"errors"
	"fmt"
	"replicate/logger"
	"strings"
	"sync"
)

// SyncHostAccessor names the accessor that yields the sync WebSocket URL.
const SyncHostAccessor = "sync"

// webSocketPath is appended to every derived sync WebSocket URL.
const webSocketPath = "/ws.obsidian.md"

var ErrUnknownAccessor = errors.New("unknown host accessor")

// HostResolver computes a connection URL on demand.
type HostResolver interface {
	Host(ctx context.Context) string
}

// HostResolverFunc adapts a function to HostResolver.
type HostResolverFunc func(ctx context.Context) string

func (f HostResolverFunc) Host(ctx context.Context) string {
	return f(ctx)
}

// StaticHost always returns the same URL.
type StaticHost string

func (s StaticHost) Host(context.Context) string {
	return string(s)
}

type accessorSlot struct {
	current  HostResolver
	original HostResolver
}

// HostRegistry holds the named accessors the rest of the process asks for
// connection URLs. An accessor can be wrapped at runtime; the registry keeps
// the original so it can always be restored.
type HostRegistry struct {
	mu    sync.RWMutex
	slots map[string]*accessorSlot
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{slots: make(map[string]*accessorSlot)}
}

// Register installs r as both the current and original accessor for name.
func (h *HostRegistry) Register(name string, r HostResolver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.slots[name] = &accessorSlot{current: r, original: r}
}

// Override replaces the accessor for name with wrap(previous). The previous
// accessor is captured before the new one is installed.
func (h *HostRegistry) Override(name string, wrap func(previous HostResolver) HostResolver) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot, ok := h.slots[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAccessor, name)
	}
	previous := slot.current
	slot.current = wrap(previous)
	return nil
}

// Restore puts the originally registered accessor back.
func (h *HostRegistry) Restore(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	slot, ok := h.slots[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAccessor, name)
	}
	slot.current = slot.original
	return nil
}

// Resolver returns the accessor currently installed for name.
func (h *HostRegistry) Resolver(name string) (HostResolver, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	slot, ok := h.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccessor, name)
	}
	return slot.current, nil
}

// Resolve calls the accessor currently installed for name.
func (h *HostRegistry) Resolve(ctx context.Context, name string) (string, error) {
	r, err := h.Resolver(name)
	if err != nil {
		return "", err
	}
	return r.Host(ctx), nil
}

// DeriveWebSocketURL turns a configured sync base URL into the sync socket
// address. The scheme test is a literal "http:" prefix; anything else is
// treated as secure.
func DeriveWebSocketURL(syncBaseURL string) string {
	scheme := "wss"
	if strings.HasPrefix(syncBaseURL, "http:") {
		scheme = "ws"
	}
	host := syncBaseURL
	if strings.HasPrefix(host, "https://") {
		host = strings.TrimPrefix(host, "https://")
	} else if strings.HasPrefix(host, "http://") {
		host = strings.TrimPrefix(host, "http://")
	}
	return scheme + "://" + host + webSocketPath
}

// SyncHostOverride derives the sync socket URL from the configured sync base
// URL and falls back to Delegate when none is set.
type SyncHostOverride struct {
	Delegate HostResolver
	Store    SettingsStore
}

func NewSyncHostOverride(delegate HostResolver, store SettingsStore) *SyncHostOverride {
	return &SyncHostOverride{Delegate: delegate, Store: store}
}

func (o *SyncHostOverride) Host(ctx context.Context) string {
	url := o.Delegate.Host(ctx)

	settings, err := o.Store.Load(ctx)
	if err != nil {
		logger.Error("Sync host override: could not load settings, keeping original URL: %v", err)
	} else if syncBaseURL := strings.TrimSpace(settings.SyncBaseURL); syncBaseURL != "" {
		url = DeriveWebSocketURL(syncBaseURL)
	}

	logger.Info("Websocket URL: %s", url)
	return url
}
