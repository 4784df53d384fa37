package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetSetting retrieves a specific setting value from the app_settings table.
// A missing key yields found == false and no error.
func GetSetting(key string) (value string, found bool, err error) {
	if err := requireDB(); err != nil {
		return "", false, err
	}
	err = DB.QueryRow("SELECT value FROM app_settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get setting '%s': %w", key, err)
	}
	return value, true, nil
}

// SetSetting saves or updates a specific setting value in the app_settings table.
func SetSetting(key, value string) error {
	if err := requireDB(); err != nil {
		return err
	}
	stmt, err := DB.Prepare("INSERT OR REPLACE INTO app_settings (key, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare set setting statement for key '%s': %w", key, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(key, value)
	if err != nil {
		return fmt.Errorf("failed to execute set setting for key '%s': %w", key, err)
	}
	return nil
}

// DeleteSetting removes a key; deleting a missing key is not an error.
func DeleteSetting(key string) error {
	if err := requireDB(); err != nil {
		return err
	}
	if _, err := DB.Exec("DELETE FROM app_settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting '%s': %w", key, err)
	}
	return nil
}
