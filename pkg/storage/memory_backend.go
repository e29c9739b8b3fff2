package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryBackend keeps objects in process memory. It backs local development
// (STORAGE_PROVIDER=memory) and tests.
type MemoryBackend struct {
	mu       sync.Mutex
	objects  map[string][]byte
	maxBytes int64
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string][]byte)}
}

// WithMaxObjectBytes makes Upload reject larger payloads with ErrPayloadTooLarge.
func (m *MemoryBackend) WithMaxObjectBytes(n int64) *MemoryBackend {
	m.maxBytes = n
	return m
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Upload(ctx context.Context, p string, content []byte, mode ConflictMode) (string, error) {
	if err := validatePath(p); err != nil {
		return "", err
	}
	if m.maxBytes > 0 && int64(len(content)) > m.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(content), m.maxBytes)
	}

	return commit(ctx, p, mode, func(ctx context.Context, candidate string, exclusive bool) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, taken := m.objects[candidate]; taken && exclusive {
			return ErrConflict
		}
		buf := make([]byte, len(content))
		copy(buf, content)
		m.objects[candidate] = buf
		return nil
	})
}

// Get returns a copy of the object stored at p.
func (m *MemoryBackend) Get(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[p]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Paths lists stored paths in lexical order.
func (m *MemoryBackend) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for p := range m.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
