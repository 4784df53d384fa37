package database

import (
	"fmt"
	"replicate/logger"
	"replicate/models"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultRedirectLogLimit = 50

// InsertRedirectLog stores one redirect decision. ID and Timestamp are filled
// in when empty.
func InsertRedirectLog(entry *models.RedirectLog) error {
	if err := requireDB(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := DB.Exec(`INSERT INTO redirect_log (
		id, timestamp, method, original_url, redirect_url, rule, client_ip, status_code, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, entry.Method, entry.OriginalURL, entry.RedirectURL,
		string(entry.Rule), entry.ClientIP, entry.StatusCode, entry.DurationMs)
	if err != nil {
		return fmt.Errorf("inserting redirect log for %s: %w", entry.OriginalURL, err)
	}
	return nil
}

// GetRedirectLogs returns the newest entries first, with the total count for
// the same filter.
func GetRedirectLogs(filters models.RedirectLogFilters) ([]models.RedirectLog, int64, error) {
	if err := requireDB(); err != nil {
		return nil, 0, err
	}
	if filters.Limit <= 0 {
		filters.Limit = defaultRedirectLogLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	var whereClauses []string
	var args []interface{}
	if filters.Rule != "" {
		whereClauses = append(whereClauses, "rule = ?")
		args = append(args, strings.ToLower(filters.Rule))
	}
	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total int64
	if err := DB.QueryRow("SELECT COUNT(*) FROM redirect_log"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting redirect log entries: %w", err)
	}
	if total == 0 {
		return []models.RedirectLog{}, 0, nil
	}

	query := `SELECT id, timestamp, method, original_url, redirect_url, rule, COALESCE(client_ip, ''), status_code, duration_ms
		FROM redirect_log` + where + ` ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?`
	queryArgs := append(append([]interface{}{}, args...), filters.Limit, filters.Offset)

	rows, err := DB.Query(query, queryArgs...)
	if err != nil {
		return nil, total, fmt.Errorf("querying redirect log: %w", err)
	}
	defer rows.Close()

	logs := []models.RedirectLog{}
	for rows.Next() {
		var entry models.RedirectLog
		var rule string
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Method, &entry.OriginalURL, &entry.RedirectURL,
			&rule, &entry.ClientIP, &entry.StatusCode, &entry.DurationMs); err != nil {
			return nil, total, fmt.Errorf("scanning redirect log row: %w", err)
		}
		entry.Rule = models.MatchRule(rule)
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, total, fmt.Errorf("iterating redirect log rows: %w", err)
	}
	return logs, total, nil
}

// ClearRedirectLogs deletes every entry and reports how many were removed.
func ClearRedirectLogs() (int64, error) {
	if err := requireDB(); err != nil {
		return 0, err
	}
	res, err := DB.Exec("DELETE FROM redirect_log")
	if err != nil {
		return 0, fmt.Errorf("clearing redirect log: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.Info("Cleared %d redirect log entries.", n)
	return n, nil
}
