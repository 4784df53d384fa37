package handlers

import (
	"net/http"
	"replicate/database"
	"replicate/logger"
	"replicate/models"
)

// GetNoticesHandler returns pending notices, newest first.
// @Summary List notices
// @Tags Notices
// @Produce json
// @Success 200 {array} models.Notice
// @Failure 500 {object} models.ErrorResponse
// @Router /notices [get]
func GetNoticesHandler(w http.ResponseWriter, r *http.Request) {
	notices, err := database.GetNotices()
	if err != nil {
		logger.Error("GetNoticesHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve notices")
		return
	}
	if notices == nil {
		notices = []models.Notice{}
	}
	writeJSON(w, http.StatusOK, notices)
}

// ClearNoticesHandler dismisses all notices.
// @Summary Dismiss notices
// @Tags Notices
// @Success 204
// @Failure 500 {object} models.ErrorResponse
// @Router /notices [delete]
func ClearNoticesHandler(w http.ResponseWriter, r *http.Request) {
	if err := database.ClearNotices(); err != nil {
		logger.Error("ClearNoticesHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear notices")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
