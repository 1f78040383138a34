package settings

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Option keys
const (
	KeyHookType        = "_build_hooks_type"
	KeyWebhookPrefix   = "_build_hooks_"
	KeyCircleCIRepo    = "_build_hooks_circle_ci_repository"
	KeyCircleCIJob     = "_build_hooks_circle_ci_job"
	KeyCurrentWorkflow = "_build_hooks_circle_ci_workflow"
	KeySettingsRoles   = "_build_hooks_settings"
	KeyTriggerRoles    = "_build_hooks_trigger"
)

// WebhookKey returns the option key holding the webhook URL of a hook type
func WebhookKey(hookType string) string {
	return KeyWebhookPrefix + hookType
}

// Store is the narrow get/set contract over named configuration values
type Store interface {
	// GetOption returns the value and whether it was set
	GetOption(key string) (string, bool, error)
	UpdateOption(key, value string) error
}

// Get returns the option value or "" when unset
func Get(s Store, key string) (string, error) {
	value, _, err := s.GetOption(key)
	if err != nil {
		return "", fmt.Errorf("failed to read option %s: %w", key, err)
	}
	return value, nil
}

// GetList decodes a JSON array option; an unset option is an empty list
func GetList(s Store, key string) ([]string, error) {
	raw, ok, err := s.GetOption(key)
	if err != nil {
		return nil, fmt.Errorf("failed to read option %s: %w", key, err)
	}
	if !ok || raw == "" {
		return []string{}, nil
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("option %s is not a list: %w", key, err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// SetList stores a list option as a JSON array
func SetList(s Store, key string, list []string) error {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.UpdateOption(key, string(data))
}

// MemoryStore is an in-memory Store
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]string
	updates int
}

// NewMemoryStore creates a MemoryStore seeded with values
func NewMemoryStore(values map[string]string) *MemoryStore {
	m := &MemoryStore{values: map[string]string{}}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *MemoryStore) GetOption(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryStore) UpdateOption(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	m.updates++
	return nil
}

// Updates returns how many writes the store has seen
func (m *MemoryStore) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}
