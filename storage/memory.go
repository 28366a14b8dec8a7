package storage

import "sync"

// MemoryMedium keeps values in a map. We use it when the user hasn't
// configured a storage directory, so a session works normally but nothing
// survives a restart.
type MemoryMedium struct {
	data  map[string]string
	mu    sync.RWMutex
	quota ByteSize
}

// NewMemoryMedium returns an empty MemoryMedium. Values larger than quota are
// rejected; a zero quota means no limit.
func NewMemoryMedium(quota ByteSize) *MemoryMedium {
	return &MemoryMedium{
		data:  make(map[string]string),
		quota: quota,
	}
}

func (m *MemoryMedium) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *MemoryMedium) Set(key, value string) error {
	if err := checkQuota(key, value, m.quota); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryMedium) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryMedium) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

// Len returns the number of stored keys
func (m *MemoryMedium) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Close is no-op
func (m *MemoryMedium) Close() error {
	return nil
}
