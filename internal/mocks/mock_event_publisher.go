package mocks

import (
	"context"
	"sync"

	"github.com/quickshow/quickshow/internal/domain"
)

// MockEventPublisher records published events for assertions in tests.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []domain.Event
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Events = append(m.Events, event)

	return nil
}

func (m *MockEventPublisher) Published() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]domain.Event(nil), m.Events...)
}
