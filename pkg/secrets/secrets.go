// Package secrets keeps provider API tokens in a single JSON document,
// separate from the settings store.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CircleCIToken is the secret name holding the CircleCI API token
const CircleCIToken = "CIRCLE_CI_TOKEN"

// ErrSecretNotFound is returned when a secret name has no value
var ErrSecretNotFound = errors.New("secret not found")

// Store reads and writes named secrets
type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
}

// FileStore stores secrets as one JSON object on disk
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed secret store. The file does not need to
// exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the secrets file location
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored under name
func (s *FileStore) Get(name string) (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}

	value, ok := doc[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
	}
	return value, nil
}

// Set loads the whole document, sets name and writes it back
func (s *FileStore) Set(name, value string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc[name] = value

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode secrets: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	doc := map[string]string{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse secrets file: %w", err)
	}
	return doc, nil
}

// MemoryStore is an in-memory Store
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates a MemoryStore seeded with values
func NewMemoryStore(values map[string]string) *MemoryStore {
	m := &MemoryStore{values: map[string]string{}}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *MemoryStore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
	}
	return value, nil
}

func (m *MemoryStore) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[name] = value
	return nil
}

// Lookup returns the secret, or "" when it is absent. Other errors are
// returned as is.
func Lookup(s Store, name string) (string, error) {
	value, err := s.Get(name)
	if errors.Is(err, ErrSecretNotFound) {
		return "", nil
	}
	return value, err
}
