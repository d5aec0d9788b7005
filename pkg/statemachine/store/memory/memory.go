// Package memory provides an in-process Backend for pkg/statemachine,
// used in tests and single-process bootstraps where durability across
// restarts is not required.
package memory

import (
	"context"
	"encoding/binary"
	"sync"
)

// Backend is a mutex-guarded map implementing statemachine.Backend.
type Backend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	b.data[key] = stored
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *Backend) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var current int64
	if v, ok := b.data[key]; ok && len(v) == 8 {
		current = int64(binary.BigEndian.Uint64(v))
	}
	current += delta

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(current))
	b.data[key] = buf
	return current, nil
}

func (b *Backend) Snapshot(ctx context.Context) (map[string][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string][]byte, len(b.data))
	for k, v := range b.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out, nil
}
