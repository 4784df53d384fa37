package models

import "strings"

// Built-in endpoints the editor talks to when no alternate server is configured.
const (
	DefaultSyncBaseURL    = "https://api.obsidian.md"
	DefaultPublishBaseURL = "https://publish.obsidian.md"
)

// ReplicateSettingsKey is the app_settings key holding the settings blob.
const ReplicateSettingsKey = "replicate_settings"

// ReplicateSettings is the user-editable record. An empty field means the
// built-in default applies.
type ReplicateSettings struct {
	SyncBaseURL    string `json:"syncBaseUrl" example:"https://relay.example"`
	PublishBaseURL string `json:"publishBaseUrl" example:"https://publish.relay.example"`
}

// DefaultSettings returns the record written at install time.
func DefaultSettings() ReplicateSettings {
	return ReplicateSettings{
		SyncBaseURL:    DefaultSyncBaseURL,
		PublishBaseURL: DefaultPublishBaseURL,
	}
}

// FieldMode selects whether publish redirection shares the sync field or has its own.
type FieldMode string

const (
	// FieldModeShared mirrors the single form value into both fields and
	// redirects publish traffic with the sync base URL.
	FieldModeShared FieldMode = "shared"
	// FieldModeSplit keeps an independent publish base URL.
	FieldModeSplit FieldMode = "split"
)

// ParseFieldMode returns the mode named by s, falling back to shared.
func ParseFieldMode(s string) (FieldMode, bool) {
	switch FieldMode(strings.ToLower(strings.TrimSpace(s))) {
	case FieldModeShared, "":
		return FieldModeShared, true
	case FieldModeSplit:
		return FieldModeSplit, true
	}
	return FieldModeShared, false
}
