package auth

import "sync"

// MockStore is an in-memory Store for tests
type MockStore struct {
	mu    sync.RWMutex
	creds map[string]Credential

	// FailSet makes Set return ErrStoreUnavailable, for fallback tests
	FailSet bool
}

// NewMockStore creates an empty in-memory credential store
func NewMockStore() *MockStore {
	return &MockStore{creds: make(map[string]Credential)}
}

func (m *MockStore) Set(cred *Credential) error {
	if m.FailSet {
		return ErrStoreUnavailable
	}
	if cred == nil || cred.Service == "" {
		return ErrInvalidCredential
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[cred.Service] = *cred
	return nil
}

func (m *MockStore) Get(service string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cred, ok := m.creds[service]
	if !ok {
		return nil, ErrNotFound
	}
	return &cred, nil
}

func (m *MockStore) List() ([]*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Credential, 0, len(m.creds))
	for _, cred := range m.creds {
		c := cred
		out = append(out, &c)
	}
	return out, nil
}

func (m *MockStore) Delete(service string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[service]; !ok {
		return ErrNotFound
	}
	delete(m.creds, service)
	return nil
}

func (m *MockStore) Exists(service string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.creds[service]
	return ok
}
