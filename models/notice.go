package models

import "time"

// Notice is a transient user-facing message, e.g. an interception failure.
type Notice struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
