package favorites

import (
	"context"
	"sync"
)

// DefaultDevice is used when the caller does not name a device.
const DefaultDevice = "default"

// LocalStore persists the favorites of one device. It is the only source
// while signed out.
type LocalStore interface {
	Load(ctx context.Context, device string) ([]string, error)
	Save(ctx context.Context, device string, ids []string) error
}

// RemoteStore is the per-identity favorites table.
type RemoteStore interface {
	List(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID string, ids []string) error
	Remove(ctx context.Context, userID string, ids []string) error
}

// Notifier signals that the remote favorites of a user changed. The signal
// carries no payload; receivers re-read the remote list. cancel stops
// delivery and may be called more than once.
type Notifier interface {
	Subscribe(ctx context.Context, userID string, fn func()) (cancel func(), err error)
}

// MemoryStore is a LocalStore kept in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	devices map[string][]string
}

// NewMemoryStore creates an empty in-memory local store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{devices: make(map[string][]string)}
}

func (m *MemoryStore) Load(_ context.Context, device string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.devices[device]...), nil
}

func (m *MemoryStore) Save(_ context.Context, device string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[device] = append([]string{}, ids...)
	return nil
}
