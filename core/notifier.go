package core

import (
	"context"
	"replicate/database"
	"replicate/logger"
	"replicate/models"
	"sync"
)

// Notifier shows a transient message to the user.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// DBNotifier logs the message and stores it so the settings API can show it.
type DBNotifier struct{}

func (DBNotifier) Notify(ctx context.Context, message string) {
	logger.Error("%s", message)
	if _, err := database.InsertNotice(message); err != nil {
		logger.Error("Could not store notice: %v", err)
	}
}

// MemoryNotifier collects notices in memory.
type MemoryNotifier struct {
	mu      sync.Mutex
	notices []models.Notice
}

func (m *MemoryNotifier) Notify(ctx context.Context, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, models.Notice{Message: message})
}

func (m *MemoryNotifier) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.notices))
	for _, n := range m.notices {
		out = append(out, n.Message)
	}
	return out
}
