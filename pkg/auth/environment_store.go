package auth

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvironmentStore implements Store over environment variables and per-user
// secret files. It is read-only: secrets come from <SERVICE>_API_KEY
// variables (with .env.local honored), or from a file named after the
// service under the otomata config directory.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed credential store. A
// .env.local in the working directory or up to three parents is loaded once;
// variables already set in the environment win.
func NewEnvironmentStore() *EnvironmentStore {
	if path := findDotEnv(); path != "" {
		_ = godotenv.Load(path)
	}
	return &EnvironmentStore{}
}

// Set is not supported for environment variables
func (e *EnvironmentStore) Set(cred *Credential) error {
	return ErrStoreReadOnly
}

// Get reads a credential from the environment or a per-user secret file
func (e *EnvironmentStore) Get(service string) (*Credential, error) {
	if service == "" {
		return nil, ErrInvalidCredential
	}

	if value := os.Getenv(envVarName(service)); value != "" {
		return &Credential{
			Service:      normalizeService(service),
			Secret:       value,
			LastModified: time.Now(),
		}, nil
	}

	// Per-secret files under the config directory, named after the variable
	if base, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(base, "otomata", strings.ToLower(envVarName(service)))
		if content, err := os.ReadFile(path); err == nil {
			if secret := strings.TrimSpace(string(content)); secret != "" {
				return &Credential{
					Service:      normalizeService(service),
					Secret:       secret,
					LastModified: time.Now(),
				}, nil
			}
		}
	}

	return nil, ErrNotFound
}

// List cannot enumerate the environment reliably, so it returns nothing
func (e *EnvironmentStore) List() ([]*Credential, error) {
	return []*Credential{}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(service string) error {
	return ErrStoreReadOnly
}

// Exists checks if an environment credential exists
func (e *EnvironmentStore) Exists(service string) bool {
	cred, err := e.Get(service)
	return err == nil && cred != nil
}

// findDotEnv locates a .env.local in the working directory or up to three
// parent directories
func findDotEnv() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < 4; i++ {
		path := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
	return ""
}
