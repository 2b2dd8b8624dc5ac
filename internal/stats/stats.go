// Package stats keeps the application usage counters (photos edited,
// active users, filter catalog size). Counters are an injected collaborator:
// the image algorithms never touch them.
package stats

import (
	"context"
	"sort"
	"sync"
)

// Counter names.
const (
	PhotosEdited = "photos_edited"
	FiltersCount = "filters_count"
	ActiveUsers  = "active_users"
)

// Counter stores named monotonically adjusted integers.
type Counter interface {
	Increment(ctx context.Context, name string, delta int64) (int64, error)
	Get(ctx context.Context, name string) (int64, error)
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// Memory is an in-process Counter. The zero value is not usable; call
// NewMemory.
type Memory struct {
	values map[string]int64
	mu     sync.Mutex
}

// NewMemory returns a Memory counter seeded with defaults.
func NewMemory(defaults map[string]int64) *Memory {
	m := &Memory{values: make(map[string]int64, len(defaults))}
	for k, v := range defaults {
		m.values[k] = v
	}
	return m
}

func (m *Memory) Increment(_ context.Context, name string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] += delta
	return m.values[name], nil
}

func (m *Memory) Get(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[name], nil
}

func (m *Memory) Snapshot(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

// Names returns the keys of a snapshot in sorted order.
func Names(snap map[string]int64) []string {
	names := make([]string, 0, len(snap))
	for k := range snap {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
