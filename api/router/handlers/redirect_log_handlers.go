package handlers

import (
	"fmt"
	"net/http"
	"replicate/database"
	"replicate/logger"
	"replicate/models"
	"strconv"
	"strings"
)

const maxRedirectLogLimit = 500

// GetRedirectLogsHandler lists recorded redirects, newest first.
// @Summary List recorded redirects
// @Tags Redirects
// @Produce json
// @Param limit query int false "Page size (default 50, max 500)"
// @Param offset query int false "Records to skip"
// @Param rule query string false "sync, publish or none"
// @Success 200 {object} models.PaginatedRedirectLogs
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /redirects [get]
func GetRedirectLogsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := models.RedirectLogFilters{Rule: strings.ToLower(q.Get("rule"))}

	switch models.MatchRule(filters.Rule) {
	case "", models.RuleSync, models.RulePublish, models.RuleNone:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown rule '%s'", filters.Rule))
		return
	}

	var err error
	if filters.Limit, err = intParam(q.Get("limit"), 50); err != nil || filters.Limit < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if filters.Limit > maxRedirectLogLimit {
		filters.Limit = maxRedirectLogLimit
	}
	if filters.Offset, err = intParam(q.Get("offset"), 0); err != nil || filters.Offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	records, total, err := database.GetRedirectLogs(filters)
	if err != nil {
		logger.Error("GetRedirectLogsHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve redirect log")
		return
	}
	if records == nil {
		records = []models.RedirectLog{}
	}
	writeJSON(w, http.StatusOK, models.PaginatedRedirectLogs{
		Records:      records,
		TotalRecords: total,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	})
}

// ClearRedirectLogsHandler deletes every recorded redirect.
// @Summary Clear the redirect log
// @Tags Redirects
// @Produce json
// @Success 200 {object} map[string]int64 "{"deleted": 12}"
// @Failure 500 {object} models.ErrorResponse
// @Router /redirects [delete]
func ClearRedirectLogsHandler(w http.ResponseWriter, r *http.Request) {
	n, err := database.ClearRedirectLogs()
	if err != nil {
		logger.Error("ClearRedirectLogsHandler: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to clear redirect log")
		return
	}
	logger.Info("Redirect log cleared (%d entries).", n)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
