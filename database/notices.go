package database

import (
	"fmt"
	"replicate/models"
	"time"

	"github.com/google/uuid"
)

func InsertNotice(message string) (models.Notice, error) {
	notice := models.Notice{
		ID:        uuid.New().String(),
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := requireDB(); err != nil {
		return notice, err
	}
	if _, err := DB.Exec("INSERT INTO notices (id, message, created_at) VALUES (?, ?, ?)",
		notice.ID, notice.Message, notice.CreatedAt); err != nil {
		return notice, fmt.Errorf("inserting notice: %w", err)
	}
	return notice, nil
}

func GetNotices() ([]models.Notice, error) {
	if err := requireDB(); err != nil {
		return nil, err
	}
	rows, err := DB.Query("SELECT id, message, created_at FROM notices ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("querying notices: %w", err)
	}
	defer rows.Close()

	notices := []models.Notice{}
	for rows.Next() {
		var n models.Notice
		if err := rows.Scan(&n.ID, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notice row: %w", err)
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

func ClearNotices() error {
	if err := requireDB(); err != nil {
		return err
	}
	if _, err := DB.Exec("DELETE FROM notices"); err != nil {
		return fmt.Errorf("clearing notices: %w", err)
	}
	return nil
}
