package handlers

import (
	"errors"
	"net/http"
	"replicate/core"
	"replicate/logger"
	"replicate/models"
)

// SettingsResponse is the settings record plus the active field mode, so a
// form knows whether to render one input or two.
type SettingsResponse struct {
	models.ReplicateSettings
	FieldMode models.FieldMode `json:"fieldMode" example:"shared"`
}

type valueRequest struct {
	Value *string `json:"value"`
}

func (e *Env) settingsResponse(s models.ReplicateSettings) SettingsResponse {
	return SettingsResponse{ReplicateSettings: s, FieldMode: e.FieldMode}
}

// GetSettingsHandler returns the stored settings merged over the defaults.
// @Summary Get redirect settings
// @Tags Settings
// @Produce json
// @Success 200 {object} SettingsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /settings [get]
func (e *Env) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := e.Store.Load(r.Context())
	if err != nil {
		logger.Error("GetSettingsHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, e.settingsResponse(s))
}

// PutSettingsHandler replaces the whole record. In shared mode the publish
// base URL is mirrored from the sync base URL.
// @Summary Replace redirect settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body models.ReplicateSettings true "Settings record"
// @Success 200 {object} SettingsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /settings [put]
func (e *Env) PutSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ReplicateSettings
	if err := decodeJSONBody(r, &req); err != nil {
		logger.Error("PutSettingsHandler: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if e.FieldMode == models.FieldModeShared {
		req = core.ApplySyncBaseURLEdit(req, req.SyncBaseURL, e.FieldMode)
	}
	if err := e.Store.Save(r.Context(), req); err != nil {
		logger.Error("PutSettingsHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	logger.Info("Settings replaced: sync '%s', publish '%s'.", req.SyncBaseURL, req.PublishBaseURL)
	writeJSON(w, http.StatusOK, e.settingsResponse(req))
}

// ResetSettingsHandler restores the default base URLs.
// @Summary Reset redirect settings
// @Tags Settings
// @Produce json
// @Success 200 {object} SettingsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /settings/reset [post]
func (e *Env) ResetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	s, err := core.ResetSettings(r.Context(), e.Store)
	if err != nil {
		logger.Error("ResetSettingsHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to reset settings")
		return
	}
	writeJSON(w, http.StatusOK, e.settingsResponse(s))
}

// SetSyncBaseURLHandler persists one edit of the base URL text input.
// @Summary Set the sync base URL
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body valueRequest true "{\"value\": \"https://relay.example\"}"
// @Success 200 {object} SettingsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /settings/sync-base-url [post]
func (e *Env) SetSyncBaseURLHandler(w http.ResponseWriter, r *http.Request) {
	value, ok := readValue(w, r, "SetSyncBaseURLHandler")
	if !ok {
		return
	}
	s, err := core.SaveSyncBaseURL(r.Context(), e.Store, value, e.FieldMode)
	if err != nil {
		logger.Error("SetSyncBaseURLHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save sync base URL")
		return
	}
	writeJSON(w, http.StatusOK, e.settingsResponse(s))
}

// SetPublishBaseURLHandler edits the publish field. Rejected in shared mode.
// @Summary Set the publish base URL
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body valueRequest true "{\"value\": \"https://publish.relay.example\"}"
// @Success 200 {object} SettingsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /settings/publish-base-url [post]
func (e *Env) SetPublishBaseURLHandler(w http.ResponseWriter, r *http.Request) {
	value, ok := readValue(w, r, "SetPublishBaseURLHandler")
	if !ok {
		return
	}
	s, err := core.SavePublishBaseURL(r.Context(), e.Store, value, e.FieldMode)
	if errors.Is(err, core.ErrSharedFieldMode) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		logger.Error("SetPublishBaseURLHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save publish base URL")
		return
	}
	writeJSON(w, http.StatusOK, e.settingsResponse(s))
}

func readValue(w http.ResponseWriter, r *http.Request, handler string) (string, bool) {
	var req valueRequest
	if err := decodeJSONBody(r, &req); err != nil {
		logger.Error("%s: %v", handler, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required (send \"\" to clear)")
		return "", false
	}
	return *req.Value, true
}
