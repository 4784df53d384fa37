package handlers

import (
	"net/http"
	"replicate/core"
	"replicate/logger"
	"strings"
)

// GetSyncHostHandler resolves the sync WebSocket URL through the accessor
// registry, the same way a sync client would.
// @Summary Resolve the sync WebSocket URL
// @Tags Sync
// @Produce json
// @Success 200 {object} map[string]string "{"url": "wss://relay.example/ws.obsidian.md"}"
// @Failure 500 {object} models.ErrorResponse
// @Router /sync/host [get]
func (e *Env) GetSyncHostHandler(w http.ResponseWriter, r *http.Request) {
	url, err := e.Hosts.Resolve(r.Context(), core.SyncHostAccessor)
	if err != nil {
		logger.Error("GetSyncHostHandler: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// PreviewRewriteHandler shows where a URL would be sent without sending it.
// @Summary Preview a rewrite
// @Tags Sync
// @Accept json
// @Produce json
// @Param body body object true "{\"url\": \"https://api.obsidian.md/v1/ping\"}"
// @Success 200 {object} core.Decision
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /rewrite/preview [post]
func (e *Env) PreviewRewriteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	decision, err := e.Rewriter.Rewrite(r.Context(), req.URL)
	if err != nil {
		logger.Error("PreviewRewriteHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
