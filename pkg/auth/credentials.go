package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Credential is an API secret for one service (e.g. "notion", "hunter")
type Credential struct {
	Service      string    `json:"service"`
	Secret       string    `json:"secret"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the interface for storing and retrieving service credentials
type Store interface {
	// Set saves a credential
	Set(cred *Credential) error

	// Get retrieves the credential for a service
	Get(service string) (*Credential, error)

	// List returns all stored credentials
	List() ([]*Credential, error)

	// Delete removes the credential for a service
	Delete(service string) error

	// Exists checks if a credential exists for a service
	Exists(service string) bool
}

var (
	ErrNotFound          = errors.New("credential not found")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrStoreUnavailable  = errors.New("credential store unavailable")
	ErrStoreReadOnly     = errors.New("credential store is read-only")
)

// Manager resolves credentials through a chain of stores: system keyring,
// encrypted file, then environment (read-only). Writes go to the first store
// that accepts them; reads return the first hit.
type Manager struct {
	stores []Store
}

// NewManager creates a credential manager with the available backends
func NewManager() (*Manager, error) {
	var stores []Store

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit store chain
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Set saves a credential using the first store that accepts it
func (m *Manager) Set(cred *Credential) error {
	if cred == nil || cred.Service == "" {
		return ErrInvalidCredential
	}
	if cred.Secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidCredential)
	}
	cred.Service = normalizeService(cred.Service)
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Set(cred); err == nil {
			return nil
		} else if !errors.Is(err, ErrStoreReadOnly) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credential: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Get retrieves a credential from the first store that has it
func (m *Manager) Get(service string) (*Credential, error) {
	service = normalizeService(service)
	for _, store := range m.stores {
		if cred, err := store.Get(service); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, service)
}

// List returns credentials from all stores, first store winning on duplicates
func (m *Manager) List() ([]*Credential, error) {
	seen := make(map[string]bool)
	var all []*Credential
	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if !seen[cred.Service] {
				seen[cred.Service] = true
				all = append(all, cred)
			}
		}
	}
	return all, nil
}

// Delete removes a credential from every store that has it
func (m *Manager) Delete(service string) error {
	service = normalizeService(service)
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(service); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, service)
	}
	return nil
}

// Exists checks whether any store has a credential for the service
func (m *Manager) Exists(service string) bool {
	service = normalizeService(service)
	for _, store := range m.stores {
		if store.Exists(service) {
			return true
		}
	}
	return false
}

// normalizeService lowercases the service name so "Notion" and "notion"
// address the same credential
func normalizeService(service string) string {
	return strings.ToLower(strings.TrimSpace(service))
}

// envVarName maps a service name to its conventional environment variable,
// e.g. "notion" -> "NOTION_API_KEY"
func envVarName(service string) string {
	upper := strings.ToUpper(strings.ReplaceAll(normalizeService(service), "-", "_"))
	return upper + "_API_KEY"
}

// getConfigDir returns the otomata configuration directory
func getConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "otomata")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
