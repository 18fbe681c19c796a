package filestore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	meta Object
	data []byte
}

// Memory реализует объектное хранилище в памяти для драйвера memory и тестов.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// List перечисляет объекты так же, как бакет с разделителем "/".
func (m *Memory) List(_ context.Context, prefix string, recursive bool) (*Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := &Listing{}
	seen := make(map[string]struct{})

	for name, obj := range m.objects {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := name[len(prefix):]
		if !recursive {
			if i := strings.Index(rest, "/"); i >= 0 {
				p := prefix + rest[:i+1]
				if _, ok := seen[p]; !ok {
					seen[p] = struct{}{}
					res.Prefixes = append(res.Prefixes, p)
				}
				continue
			}
		}
		res.Objects = append(res.Objects, obj.meta)
	}

	sort.Strings(res.Prefixes)
	sort.Slice(res.Objects, func(i, j int) bool { return res.Objects[i].Name < res.Objects[j].Name })

	return res, nil
}

// Put сохраняет объект целиком.
func (m *Memory) Put(_ context.Context, name, contentType string, r io.Reader) (*Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	meta := Object{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		URL:         "memory://" + name,
		Created:     m.now().UTC(),
	}

	m.mu.Lock()
	m.objects[name] = memoryObject{meta: meta, data: data}
	m.mu.Unlock()

	return &meta, nil
}

// Delete удаляет объект.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	delete(m.objects, name)
	return nil
}
