package store

import (
	"context"
	"sync"
)

// Memory is the default Store: maps guarded by a single RWMutex. Good enough
// for one service instance; swap in the Postgres store when durability matters.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	logs    map[string][][]byte
	seqs    map[string]int64
}

func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]map[string][]byte),
		logs:    make(map[string][][]byte),
		seqs:    make(map[string]int64),
	}
}

func (m *Memory) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.buckets[bucket][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Put(_ context.Context, bucket, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		m.buckets[bucket] = b
	}
	v := make([]byte, len(value))
	copy(v, value)
	b[key] = v
	return nil
}

func (m *Memory) List(_ context.Context, bucket string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b := m.buckets[bucket]
	out := make([][]byte, 0, len(b))
	for _, v := range b {
		c := make([]byte, len(v))
		copy(c, v)
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) Append(_ context.Context, bucket string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.logs[bucket] = append(m.logs[bucket], v)
	return nil
}

// Log returns the full contents of an append-only bucket in insertion order.
func (m *Memory) Log(_ context.Context, bucket string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.logs[bucket]
	out := make([][]byte, 0, len(src))
	for _, v := range src {
		c := make([]byte, len(v))
		copy(c, v)
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) NextID(_ context.Context, seq string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[seq]++
	return m.seqs[seq], nil
}
