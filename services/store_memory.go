package services

import (
	"context"
	"sync"

	"github.com/EugenePawit/expiration-tracker/models"
)

// MemoryStore is the reference EndpointStore: a mutex-guarded map. Used in
// tests and for local runs without redis or postgres.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*models.Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]*models.Subscription)}
}

func (m *MemoryStore) Put(_ context.Context, key string, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[key] = cloneSubscription(sub)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) (*models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subs[key]
	if !ok {
		return nil, nil
	}
	return cloneSubscription(sub), nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, key)
	return nil
}

func (m *MemoryStore) ListAll(_ context.Context) ([]StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]StoredRecord, 0, len(m.subs))
	for k, sub := range m.subs {
		records = append(records, StoredRecord{Key: k, Sub: cloneSubscription(sub)})
	}
	return records, nil
}

func (m *MemoryStore) Close() error { return nil }

// cloneSubscription keeps callers from mutating stored state through shared
// item slices.
func cloneSubscription(sub *models.Subscription) *models.Subscription {
	c := *sub
	if sub.Items != nil {
		c.Items = append([]models.FoodItem(nil), sub.Items...)
	}
	return &c
}
