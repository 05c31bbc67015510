package memory

import (
	"github.com/custodia-labs/shelfwise/internal/adapters/driven/config/values"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory only. Used by tests and by
// throwaway runs that must not touch the user's config file.
type ConfigStore struct {
	*values.Map
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{Map: values.New()}
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.Put(key, value)
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path returns ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
