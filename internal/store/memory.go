package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore реализует потокобезопасное хранилище в памяти для локального запуска и тестов.
type MemoryStore struct {
	name string

	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{
		name:        name,
		collections: make(map[string]map[string]json.RawMessage),
	}
}

// Name возвращает имя хранилища.
func (m *MemoryStore) Name() string {
	return m.name
}

// Get читает коллекцию целиком или отдельный ключ.
func (m *MemoryStore) Get(_ context.Context, path string) (json.RawMessage, bool, error) {
	collection, key, err := splitPath(path)
	if err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	items, ok := m.collections[collection]
	if !ok || len(items) == 0 {
		return nil, false, nil
	}

	if key != "" {
		v, ok := items[key]
		if !ok {
			return nil, false, nil
		}
		return append(json.RawMessage(nil), v...), true, nil
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return nil, false, fmt.Errorf("marshal collection %s: %w", collection, err)
	}
	return raw, true, nil
}

// Set перезаписывает коллекцию (значение должно быть JSON-объектом) или отдельный ключ.
func (m *MemoryStore) Set(_ context.Context, path string, value any) error {
	collection, key, err := splitPath(path)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if key == "" {
		items := make(map[string]json.RawMessage)
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &items); err != nil {
				return fmt.Errorf("collection %s must be an object: %w", collection, err)
			}
		}
		m.collections[collection] = items
		return nil
	}

	if isNull(raw) {
		delete(m.collections[collection], key)
		return nil
	}

	items, ok := m.collections[collection]
	if !ok {
		items = make(map[string]json.RawMessage)
		m.collections[collection] = items
	}
	items[key] = raw
	return nil
}

// Remove удаляет коллекцию или ключ.
func (m *MemoryStore) Remove(_ context.Context, path string) error {
	collection, key, err := splitPath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if key == "" {
		delete(m.collections, collection)
		return nil
	}
	delete(m.collections[collection], key)
	return nil
}
