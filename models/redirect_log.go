package models

import "time"

// MatchRule names the rewrite rule that fired for a request.
type MatchRule string

const (
	RuleSync    MatchRule = "sync"
	RulePublish MatchRule = "publish"
	RuleNone    MatchRule = "none"
)

// RedirectLog is one intercepted request and the destination it was sent to.
type RedirectLog struct {
	ID          string    `json:"id" readOnly:"true"`
	Timestamp   time.Time `json:"timestamp" readOnly:"true"`
	Method      string    `json:"method" example:"GET"`
	OriginalURL string    `json:"original_url" example:"https://api.obsidian.md/v1/ping?x=1"`
	RedirectURL string    `json:"redirect_url" example:"https://relay.example/v1/ping?x=1"`
	Rule        MatchRule `json:"rule" example:"sync"`
	ClientIP    string    `json:"client_ip,omitempty" example:"127.0.0.1:53312"`
	StatusCode  int       `json:"status_code,omitempty" example:"200"`
	DurationMs  int64     `json:"duration_ms,omitempty" example:"42"`
}

// RedirectLogFilters narrows a redirect log listing.
type RedirectLogFilters struct {
	Rule   string
	Limit  int
	Offset int
}

// PaginatedRedirectLogs is the listing envelope returned by the API.
type PaginatedRedirectLogs struct {
	Records      []RedirectLog `json:"records"`
	TotalRecords int64         `json:"total_records"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}
