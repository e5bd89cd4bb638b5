package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// memoryCache is an in process cache.Cache that records published events.
type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	events []OrderEvent
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, value any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, value)
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = data
	return nil
}

func (m *memoryCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = data
	return true, nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryCache) Publish(_ context.Context, _ string, value any) error {
	event, ok := value.(OrderEvent)
	if !ok {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

func (m *memoryCache) eventTypes(orderID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := []string{}
	for _, e := range m.events {
		if e.OrderID.String() == orderID {
			types = append(types, e.Type)
		}
	}
	return types
}
