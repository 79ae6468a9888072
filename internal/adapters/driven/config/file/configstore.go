package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/config"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	configFileName = "config.toml"
	configHeader   = "# ragchat settings. Edit with `ragchat settings` or by hand.\n\n"
)

// ConfigStore keeps settings in a TOML file. Dotted keys ("llm.model") are
// held flat in memory and written back as nested tables, so the file reads
//
//	[llm]
//	model = "gpt-4o"
//
// Every write replaces the whole file through a rename, and the in-memory
// view only changes once the rename has succeeded.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens dir/config.toml, creating dir if needed. An empty
// dir means ~/.ragchat. A missing file is an empty configuration.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		var err error
		if dir, err = defaultDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{filePath: filepath.Join(dir, configFileName)}
	data, err := s.read()
	if err != nil {
		return nil, err
	}
	s.data = data
	return s, nil
}

// defaultDir is ~/.ragchat.
func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

// Get returns the value at a dotted key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// GetString returns the value at key as a string, or "".
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	return config.String(val)
}

// GetInt returns the value at key as an int, or 0.
func (s *ConfigStore) GetInt(key string) int {
	val, _ := s.Get(key)
	return config.Int(val)
}

// GetStringSlice returns the value at key as a string slice, or nil.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, _ := s.Get(key)
	return config.Strings(val)
}

// Set stores value at key and saves the file.
func (s *ConfigStore) Set(key string, value any) error {
	return s.Update(map[string]any{key: value})
}

// Update stores every value and saves the file once.
func (s *ConfigStore) Update(values map[string]any) error {
	return s.mutate(func(next map[string]any) {
		maps.Copy(next, values)
	})
}

// Delete removes key and saves the file.
func (s *ConfigStore) Delete(key string) error {
	return s.mutate(func(next map[string]any) {
		delete(next, key)
	})
}

// Path returns the config file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// mutate applies fn to a copy of the data and swaps it in after the copy
// reached disk.
func (s *ConfigStore) mutate(fn func(map[string]any)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.data)
	fn(next)
	if err := s.write(next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *ConfigStore) read() (map[string]any, error) {
	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.filePath, err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.filePath, err)
	}
	flat := make(map[string]any)
	flatten(flat, "", tree)
	return flat, nil
}

// write replaces the file through a temp file in the same directory. The
// file is 0600 since it may hold API keys.
func (s *ConfigStore) write(data map[string]any) error {
	body, err := toml.Marshal(nest(data))
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	_, err = tmp.WriteString(configHeader)
	if err == nil {
		_, err = tmp.Write(body)
	}
	if err == nil {
		err = tmp.Chmod(0o600)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return os.Rename(tmp.Name(), s.filePath)
}

// flatten copies tree into dst with dotted keys: {"a": {"b": 1}} becomes
// {"a.b": 1}.
func flatten(dst map[string]any, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			flatten(dst, key, table)
			continue
		}
		dst[key] = value
	}
}

// nest is the inverse of flatten. A key that is both a value and a table
// prefix keeps the table.
func nest(flat map[string]any) map[string]any {
	tree := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := tree
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, isTable := node[leaf].(map[string]any); !isTable {
			node[leaf] = value
		}
	}
	return tree
}
