package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"replicate/api/router/handlers"
	"replicate/core"
	"replicate/database"
	"replicate/logger"
	"replicate/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContext mirrors testing.T.Context (Go 1.24+) for older toolchains.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func newTestServer(t *testing.T, mode models.FieldMode) (*httptest.Server, *core.DBSettingsStore) {
	t.Helper()
	logger.InitDiscard()
	require.NoError(t, database.InitDB(filepath.Join(t.TempDir(), "api.db")))
	t.Cleanup(func() { database.CloseDB() })

	store := core.NewDBSettingsStore()
	hosts := core.NewHostRegistry()
	hosts.Register(core.SyncHostAccessor, core.StaticHost("wss://sync.obsidian.md"))
	require.NoError(t, hosts.Override(core.SyncHostAccessor, func(previous core.HostResolver) core.HostResolver {
		return core.NewSyncHostOverride(previous, store)
	}))

	srv := httptest.NewServer(NewServerHandler(&handlers.Env{
		Store:     store,
		FieldMode: mode,
		Hosts:     hosts,
		Rewriter:  core.NewRewriter(store, mode),
	}))
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthAndVersion(t *testing.T) {
	srv, _ := newTestServer(t, models.FieldModeShared)

	var health map[string]bool
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/health", nil, &health))
	assert.True(t, health["ok"])

	var version map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/version", nil, &version))
	assert.NotEmpty(t, version["version"])

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodGet, srv.URL+"/api/nope", nil, &errResp))
	assert.Contains(t, errResp.Message, "/nope")
}

func TestSettingsSharedMode(t *testing.T) {
	srv, _ := newTestServer(t, models.FieldModeShared)

	var got handlers.SettingsResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/settings", nil, &got))
	assert.Equal(t, models.DefaultSyncBaseURL, got.SyncBaseURL)
	assert.Equal(t, models.DefaultPublishBaseURL, got.PublishBaseURL)
	assert.Equal(t, models.FieldModeShared, got.FieldMode)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/settings/sync-base-url", map[string]string{"value": "https://relay.example"}, &got))
	assert.Equal(t, "https://relay.example", got.SyncBaseURL)
	assert.Equal(t, "https://relay.example", got.PublishBaseURL)

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, srv.URL+"/api/settings/publish-base-url", map[string]string{"value": "https://pub.example"}, &errResp))

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, srv.URL+"/api/settings", models.ReplicateSettings{SyncBaseURL: "http://localhost:3000", PublishBaseURL: "ignored"}, &got))
	assert.Equal(t, "http://localhost:3000", got.PublishBaseURL)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/settings/reset", nil, &got))
	assert.Equal(t, models.DefaultSettings(), got.ReplicateSettings)
}

func TestSettingsSplitMode(t *testing.T) {
	srv, store := newTestServer(t, models.FieldModeSplit)

	var got handlers.SettingsResponse
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/settings/sync-base-url", map[string]string{"value": "https://relay.example"}, &got))
	assert.Equal(t, models.DefaultPublishBaseURL, got.PublishBaseURL)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/settings/publish-base-url", map[string]string{"value": "https://pub.example"}, &got))
	assert.Equal(t, "https://relay.example", got.SyncBaseURL)
	assert.Equal(t, "https://pub.example", got.PublishBaseURL)

	stored, err := store.Load(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, got.ReplicateSettings, stored)
}

func TestSettingsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, models.FieldModeShared)

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, srv.URL+"/api/settings/sync-base-url", map[string]string{}, &errResp))
	assert.Contains(t, errResp.Message, "value is required")

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/settings", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSyncHostFollowsSettings(t *testing.T) {
	srv, _ := newTestServer(t, models.FieldModeShared)

	var host map[string]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/settings/sync-base-url", map[string]string{"value": "http://localhost:3000"}, nil))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/sync/host", nil, &host))
	assert.Equal(t, "ws://localhost:3000/ws.obsidian.md", host["url"])

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/settings/sync-base-url", map[string]string{"value": ""}, nil))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/sync/host", nil, &host))
	assert.Equal(t, "wss://sync.obsidian.md", host["url"])
}

func TestRewritePreview(t *testing.T) {
	srv, _ := newTestServer(t, models.FieldModeShared)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/settings/sync-base-url", map[string]string{"value": "https://relay.example"}, nil))

	var decision core.Decision
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/rewrite/preview", map[string]string{"url": "https://api.obsidian.md/v1/ping?x=1"}, &decision))
	assert.Equal(t, "https://relay.example/v1/ping?x=1", decision.Redirect)
	assert.Equal(t, models.RuleSync, decision.Rule)

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, srv.URL+"/api/rewrite/preview", map[string]string{"url": " "}, &errResp))
}

func TestRedirectLogEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, models.FieldModeShared)
	for _, rule := range []models.MatchRule{models.RuleSync, models.RulePublish, models.RuleSync} {
		require.NoError(t, database.InsertRedirectLog(&models.RedirectLog{
			Method:      http.MethodGet,
			OriginalURL: "https://api.obsidian.md/x",
			RedirectURL: "https://relay.example/x",
			Rule:        rule,
		}))
	}

	var page models.PaginatedRedirectLogs
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/redirects?rule=sync&limit=1", nil, &page))
	assert.Equal(t, int64(2), page.TotalRecords)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, 1, page.Limit)

	var errResp models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, srv.URL+"/api/redirects?rule=bogus", nil, &errResp))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, srv.URL+"/api/redirects?limit=-1", nil, &errResp))

	var deleted map[string]int64
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodDelete, srv.URL+"/api/redirects", nil, &deleted))
	assert.Equal(t, int64(3), deleted["deleted"])

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/redirects", nil, &page))
	assert.Empty(t, page.Records)
	assert.NotNil(t, page.Records)
}

func TestNoticeEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, models.FieldModeShared)
	core.DBNotifier{}.Notify(testContext(t), "Failed to intercept requests. The error was: boom")

	var notices []models.Notice
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/notices", nil, &notices))
	require.Len(t, notices, 1)
	assert.Equal(t, "Failed to intercept requests. The error was: boom", notices[0].Message)

	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, srv.URL+"/api/notices", nil, nil))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/notices", nil, &notices))
	assert.Empty(t, notices)
}
