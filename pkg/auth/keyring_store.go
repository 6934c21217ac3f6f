package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "otomata"
	keyringPrefix  = "credential_"
)

// KeyringStore implements Store using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keyring-based credential store. It probes the
// keyring once, since headless systems often have none.
func NewKeyringStore() (*KeyringStore, error) {
	const probeKey = "availability_probe"
	if err := keyring.Set(keyringService, probeKey, "ok"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, probeKey)
	return &KeyringStore{}, nil
}

// Set saves a credential to the system keychain
func (k *KeyringStore) Set(cred *Credential) error {
	if cred == nil || cred.Service == "" {
		return ErrInvalidCredential
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+cred.Service, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Get retrieves a credential from the system keychain
func (k *KeyringStore) Get(service string) (*Credential, error) {
	if service == "" {
		return nil, ErrInvalidCredential
	}
	data, err := keyring.Get(keyringService, keyringPrefix+service)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// List is unsupported: go-keyring cannot enumerate keys portably
func (k *KeyringStore) List() ([]*Credential, error) {
	return []*Credential{}, nil
}

// Delete removes a credential from the system keychain
func (k *KeyringStore) Delete(service string) error {
	if service == "" {
		return ErrInvalidCredential
	}
	err := keyring.Delete(keyringService, keyringPrefix+service)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Exists checks if a credential exists in the keychain
func (k *KeyringStore) Exists(service string) bool {
	if service == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+service)
	return err == nil
}
