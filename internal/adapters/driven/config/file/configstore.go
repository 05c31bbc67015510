package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/shelfwise/internal/adapters/driven/config/values"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in <dir>/config.toml.
// Keys are dotted in memory and nest as tables on disk, so "answer.top_k"
// is written as top_k under an [answer] table.
type ConfigStore struct {
	*values.Map

	// io serialises reads and writes of the file.
	io       sync.Mutex
	filePath string
}

// NewConfigStore opens the config file in configDir, creating the
// directory if needed. An empty configDir means ~/.shelfwise.
// A missing file is an empty configuration.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".shelfwise")
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		Map:      values.New(),
		filePath: filepath.Join(configDir, "config.toml"),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set stores a configuration value and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.io.Lock()
	defer s.io.Unlock()

	s.Put(key, value)
	return s.write()
}

// Save writes the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.io.Lock()
	defer s.io.Unlock()
	return s.write()
}

// Load replaces the in-memory configuration with the file's contents.
func (s *ConfigStore) Load() error {
	s.io.Lock()
	defer s.io.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	s.Replace(loaded)
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// write encodes the configuration to the file. Caller holds s.io.
// The file holds API keys, so it is only readable by the owner.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(s.Nested())
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0o600)
}
