package journal

import (
	"context"
	"sync"

	"github.com/alejoacosta74/kafka-publisher/internal/consumer"
)

// Memory is a fixed-size ring buffer.
type Memory struct {
	mu      sync.RWMutex
	records []consumer.Record
	next    int // slot for the next append
	count   int
}

func NewMemory(size int) *Memory {
	return &Memory{records: make([]consumer.Record, size)}
}

func (m *Memory) Append(_ context.Context, rec consumer.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[m.next] = rec
	m.next = (m.next + 1) % len(m.records)
	if m.count < len(m.records) {
		m.count++
	}
	return nil
}

func (m *Memory) Recent(_ context.Context, n int) ([]consumer.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n <= 0 || n > m.count {
		n = m.count
	}
	out := make([]consumer.Record, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.records)) % len(m.records)
		out = append(out, m.records[idx])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
