package storage

import "sync"

// Memory is an in-process KV, used when persistence is not wanted and in tests.
type Memory struct {
	mu    sync.Mutex
	data  map[string][]byte
	fail  error
	saves int
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Load returns a copy of the stored payload.
func (m *Memory) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), d...), true, nil
}

// Save stores a copy of data unless a failure is set.
func (m *Memory) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.data, key)
	return nil
}

// SetFailure switches save failures on (err != nil) or off.
func (m *Memory) SetFailure(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

// SaveCount returns the number of successful saves.
func (m *Memory) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Put seeds raw content, bypassing any failure.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), data...)
	m.mu.Unlock()
}

var _ KV = (*Memory)(nil)
