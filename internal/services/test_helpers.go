package services

import (
	"context"
	"sync"

	"github.com/BradenHooton/honeypot/internal/models"
)

// MockAttemptStore implements AttemptStore for testing
type MockAttemptStore struct {
	AppendFunc func(ctx context.Context, attempt *models.LoginAttempt) error

	mu       sync.Mutex
	Appended []*models.LoginAttempt
}

func (m *MockAttemptStore) Append(ctx context.Context, attempt *models.LoginAttempt) error {
	if m.AppendFunc != nil {
		if err := m.AppendFunc(ctx, attempt); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Appended = append(m.Appended, attempt)
	return nil
}
