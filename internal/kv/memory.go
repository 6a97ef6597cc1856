package kv

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is a map-backed byte store. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	updated  map[string]int64
	quota    int
	seq      int64
	writeErr error
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{data: make(map[string][]byte), updated: make(map[string]int64), quota: o.quota}
}

// Get returns a copy of the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set replaces the value stored under key.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return fmt.Errorf("set %q: %w", key, m.writeErr)
	}
	if m.quota > 0 && len(value) > m.quota {
		return fmt.Errorf("set %q: %w (%d > %d bytes)", key, ErrQuotaExceeded, len(value), m.quota)
	}
	m.data[key] = append([]byte(nil), value...)
	m.seq++
	m.updated[key] = m.seq
	return nil
}

// Entries lists every stored key, most recently written first.
func (m *Memory) Entries(context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]Entry, 0, len(m.data))
	for k, v := range m.data {
		entries = append(entries, Entry{Key: k, Bytes: len(v), UpdatedSeq: m.updated[k]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UpdatedSeq > entries[j].UpdatedSeq })
	return entries, nil
}

// WriteSeq returns the number of successful writes.
func (m *Memory) WriteSeq(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq, nil
}

// FailWrites makes every subsequent Set fail with err. Passing nil restores
// normal behavior.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}
