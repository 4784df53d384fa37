package core

import (
	"context"
	"replicate/logger"
	"replicate/models"
	"strings"
	"testing"

	"github.com/elazarl/goproxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlugin(store SettingsStore, icpt *Interceptor) (*Plugin, *MemoryNotifier) {
	hosts := NewHostRegistry()
	hosts.Register(SyncHostAccessor, StaticHost("wss://sync.obsidian.md"))
	notifier := &MemoryNotifier{}
	return &Plugin{Store: store, Hosts: hosts, Interceptor: icpt, Notifier: notifier}, notifier
}

func TestPluginLoadWithoutNetworkHook(t *testing.T) {
	logger.InitDiscard()
	ctx := context.Background()
	store := NewMemorySettingsStore(models.ReplicateSettings{SyncBaseURL: "https://relay.example"})
	p, notifier := newTestPlugin(store, newTestInterceptor(store, RedirectModeRewrite, nil))

	require.NoError(t, p.Load(ctx, nil))

	messages := notifier.Messages()
	require.Len(t, messages, 1)
	assert.True(t, strings.HasPrefix(messages[0], "Failed to intercept requests. The error was: "))
	assert.False(t, p.Interceptor.Active())

	got, err := p.Hosts.Resolve(ctx, SyncHostAccessor)
	require.NoError(t, err)
	assert.Equal(t, "wss://relay.example/ws.obsidian.md", got, "host override still applies")
}

func TestPluginLoadWithoutCA(t *testing.T) {
	logger.InitDiscard()
	store := NewMemorySettingsStore(models.DefaultSettings())
	p, notifier := newTestPlugin(store, newTestInterceptor(store, RedirectModeRewrite, nil))

	require.NoError(t, p.Load(context.Background(), goproxy.NewProxyHttpServer()))
	require.Len(t, notifier.Messages(), 1)
	assert.Contains(t, notifier.Messages()[0], "CA")
}

func TestPluginLoadAndUnload(t *testing.T) {
	logger.InitDiscard()
	ctx := context.Background()
	store := NewMemorySettingsStore(models.ReplicateSettings{SyncBaseURL: "http://localhost:3000"})
	icpt := NewInterceptor(NewRewriter(store, models.FieldModeShared), InterceptorOptions{
		Patterns: []string{"https://api.obsidian.md/*"},
		CA:       testCA(t),
	})
	p, notifier := newTestPlugin(store, icpt)

	require.NoError(t, p.Load(ctx, NewProxyServer(false)))
	assert.Empty(t, notifier.Messages())
	assert.True(t, icpt.Active())

	got, err := p.Hosts.Resolve(ctx, SyncHostAccessor)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3000/ws.obsidian.md", got)

	p.Unload()
	assert.False(t, icpt.Active())
	got, err = p.Hosts.Resolve(ctx, SyncHostAccessor)
	require.NoError(t, err)
	assert.Equal(t, "wss://sync.obsidian.md", got)
}

func TestPluginLoadInstallsDefaults(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	store := NewDBSettingsStore()
	p, _ := newTestPlugin(store, nil)

	require.NoError(t, p.Load(ctx, nil))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), loaded)

	got, err := p.Hosts.Resolve(ctx, SyncHostAccessor)
	require.NoError(t, err)
	assert.Equal(t, "wss://api.obsidian.md/ws.obsidian.md", got)
}

func TestPluginLoadSettingsFailure(t *testing.T) {
	logger.InitDiscard()
	p, _ := newTestPlugin(failingStore{}, nil)
	assert.Error(t, p.Load(context.Background(), nil))
}
