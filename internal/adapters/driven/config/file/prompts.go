package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// defaults holds the built-in prompts as <name>.txt plus the README that
// is copied next to them.
//
//go:embed defaults
var defaults embed.FS

const promptExt = ".txt"

// DefaultPrompt returns the built-in text for a prompt name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaults.ReadFile("defaults/" + name + promptExt)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// PromptStore serves prompts from <dir>/<name>.txt. A missing, blank or
// unreadable file falls back to the built-in text, so users can reset a
// prompt by emptying its file. Names with no built-in must exist on disk.
//
// The first Load creates the directory and copies in any built-in file
// not already there. Loaded prompts are cached until Reload.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore touches nothing on disk. An empty dir means
// ~/.ragchat/prompts.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := defaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: map[string]string{}}, nil
}

// Dir returns the prompts directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt, seeding the directory with defaults on first use.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// resolve prefers the user's file and falls back to the built-in.
func (s *PromptStore) resolve(name string) (string, error) {
	def, hasDefault := DefaultPrompt(name)

	if s.seedErr != nil {
		if hasDefault {
			return def, nil
		}
		return "", fmt.Errorf("prompt directory unavailable: %w", s.seedErr)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if text := strings.TrimSpace(string(data)); err == nil && text != "" {
		return text, nil
	}
	if hasDefault {
		return def, nil
	}
	if err == nil {
		err = fs.ErrNotExist
	}
	return "", fmt.Errorf("load prompt %q: %w", name, err)
}

// Reload drops the cache so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = map[string]string{}
	s.mu.Unlock()
}

// seed copies built-in files into dir without overwriting any.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	files, err := fs.Sub(defaults, "defaults")
	if err != nil {
		return err
	}
	return fs.WalkDir(files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(files, path)
		if err != nil {
			return err
		}
		return writeIfMissing(filepath.Join(s.dir, path), data)
	})
}

func writeIfMissing(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
