package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"replicate/database"
	"replicate/logger"
	"replicate/models"
	"sync"

	"github.com/tidwall/gjson"
)

// ErrSharedFieldMode is returned when the publish field is edited while the
// single shared field drives both redirects.
var ErrSharedFieldMode = errors.New("publish base URL is mirrored from the sync base URL in shared field mode")

// SettingsStore persists the settings record.
type SettingsStore interface {
	Load(ctx context.Context) (models.ReplicateSettings, error)
	Save(ctx context.Context, s models.ReplicateSettings) error
}

// MergeSettingsBlob overlays the fields present in blob onto the defaults.
// A field stored as "" stays empty; only absent fields take the default.
func MergeSettingsBlob(blob string) (models.ReplicateSettings, error) {
	settings := models.DefaultSettings()
	if blob == "" {
		return settings, nil
	}
	if !gjson.Valid(blob) {
		return settings, fmt.Errorf("settings blob is not valid JSON")
	}
	parsed := gjson.Parse(blob)
	if !parsed.IsObject() {
		return settings, fmt.Errorf("settings blob is a JSON %s, expected an object", parsed.Type)
	}
	if v := parsed.Get("syncBaseUrl"); v.Exists() && v.Type == gjson.String {
		settings.SyncBaseURL = v.String()
	}
	if v := parsed.Get("publishBaseUrl"); v.Exists() && v.Type == gjson.String {
		settings.PublishBaseURL = v.String()
	}
	return settings, nil
}

// DBSettingsStore keeps the record as a JSON blob in app_settings.
type DBSettingsStore struct {
	Key string
}

func NewDBSettingsStore() *DBSettingsStore {
	return &DBSettingsStore{Key: models.ReplicateSettingsKey}
}

func (s *DBSettingsStore) Load(ctx context.Context) (models.ReplicateSettings, error) {
	if err := ctx.Err(); err != nil {
		return models.DefaultSettings(), err
	}
	blob, _, err := database.GetSetting(s.Key)
	if err != nil {
		return models.DefaultSettings(), fmt.Errorf("reading settings blob: %w", err)
	}
	settings, err := MergeSettingsBlob(blob)
	if err != nil {
		logger.Error("Stored settings under '%s' are unreadable, using defaults: %v", s.Key, err)
		return settings, nil
	}
	return settings, nil
}

func (s *DBSettingsStore) Save(ctx context.Context, settings models.ReplicateSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blob, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshalling settings: %w", err)
	}
	if err := database.SetSetting(s.Key, string(blob)); err != nil {
		return fmt.Errorf("saving settings blob: %w", err)
	}
	return nil
}

// Install writes the defaults when nothing has been stored yet. It reports
// whether a new record was created.
func (s *DBSettingsStore) Install(ctx context.Context) (bool, error) {
	_, found, err := database.GetSetting(s.Key)
	if err != nil {
		return false, fmt.Errorf("checking for stored settings: %w", err)
	}
	if found {
		return false, nil
	}
	if err := s.Save(ctx, models.DefaultSettings()); err != nil {
		return false, err
	}
	logger.Info("Installed default settings under '%s'.", s.Key)
	return true, nil
}

// MemorySettingsStore is an in-process store for previews and tests.
type MemorySettingsStore struct {
	mu       sync.RWMutex
	settings models.ReplicateSettings
	loads    int
}

func NewMemorySettingsStore(s models.ReplicateSettings) *MemorySettingsStore {
	return &MemorySettingsStore{settings: s}
}

func (m *MemorySettingsStore) Load(ctx context.Context) (models.ReplicateSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return m.settings, nil
}

func (m *MemorySettingsStore) Save(ctx context.Context, s models.ReplicateSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

// Loads reports how many times Load was called.
func (m *MemorySettingsStore) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// ApplySyncBaseURLEdit returns s after the settings form's text input changed
// to value. In shared mode the value is mirrored into the publish field.
func ApplySyncBaseURLEdit(s models.ReplicateSettings, value string, mode models.FieldMode) models.ReplicateSettings {
	s.SyncBaseURL = value
	if mode == models.FieldModeShared {
		s.PublishBaseURL = value
	}
	return s
}

// ApplyPublishBaseURLEdit returns s with a new publish base URL. Only valid in
// split mode.
func ApplyPublishBaseURLEdit(s models.ReplicateSettings, value string, mode models.FieldMode) (models.ReplicateSettings, error) {
	if mode != models.FieldModeSplit {
		return s, ErrSharedFieldMode
	}
	s.PublishBaseURL = value
	return s, nil
}

// SaveSyncBaseURL loads, edits and saves in one step, the way every form edit
// is persisted immediately.
func SaveSyncBaseURL(ctx context.Context, store SettingsStore, value string, mode models.FieldMode) (models.ReplicateSettings, error) {
	current, err := store.Load(ctx)
	if err != nil {
		return current, err
	}
	updated := ApplySyncBaseURLEdit(current, value, mode)
	if err := store.Save(ctx, updated); err != nil {
		return current, err
	}
	logger.Info("Sync base URL set to '%s' (mode %s).", value, mode)
	return updated, nil
}

func SavePublishBaseURL(ctx context.Context, store SettingsStore, value string, mode models.FieldMode) (models.ReplicateSettings, error) {
	current, err := store.Load(ctx)
	if err != nil {
		return current, err
	}
	updated, err := ApplyPublishBaseURLEdit(current, value, mode)
	if err != nil {
		return current, err
	}
	if err := store.Save(ctx, updated); err != nil {
		return current, err
	}
	logger.Info("Publish base URL set to '%s'.", value)
	return updated, nil
}

// ResetSettings overwrites the stored record with the defaults.
func ResetSettings(ctx context.Context, store SettingsStore) (models.ReplicateSettings, error) {
	defaults := models.DefaultSettings()
	if err := store.Save(ctx, defaults); err != nil {
		return defaults, err
	}
	logger.Info("Settings reset to defaults.")
	return defaults, nil
}
