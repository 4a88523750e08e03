package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Keys of the persisted caches. Every cache in the app is a view over one of these.
const (
	KeyLastUser         = "lastLoggedInUser"
	KeySubmissions      = "allSubmissions"
	KeyProblemCache     = "problemDetailsCache"
	KeyDifficultyTotals = "globalDifficultyTotals"
	KeyTagTotals        = "tagTotalsCache"
)

// KV is the persistent key-value store every cache is built on.
type KV interface {
	// Get returns the values for the keys that exist; missing keys are absent
	// from the result.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)

	// Set writes all values atomically.
	Set(ctx context.Context, values map[string][]byte) error

	// Remove deletes the given keys.
	Remove(ctx context.Context, keys ...string) error
}

// GetJSON loads key and decodes it into v. It reports whether the key existed.
func GetJSON(ctx context.Context, kv KV, key string, v any) (bool, error) {
	vals, err := kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok := vals[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, map[string][]byte{key: raw})
}

// Memory is an in-process KV, used in tests and with --store=memory.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ KV = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *Memory) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
