package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// settingsFile is the on-disk layout of FileSettings.
type settingsFile struct {
	LastCity string `yaml:"last_city"`
}

// FileSettings keeps the last searched city in a small YAML file.
type FileSettings struct {
	mu   sync.Mutex
	path string
}

// NewFileSettings returns settings backed by path. The file is created on first write.
func NewFileSettings(path string) *FileSettings {
	return &FileSettings{path: path}
}

// LastCity returns the stored city, or "" when nothing has been stored yet.
func (s *FileSettings) LastCity() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read settings: %w", err)
	}

	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to parse settings: %w", err)
	}
	return f.LastCity, nil
}

// SetLastCity writes city, replacing the file atomically.
func (s *FileSettings) SetLastCity(city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(settingsFile{LastCity: city})
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yml")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// MemorySettings is an in-process SettingsStore.
type MemorySettings struct {
	mu   sync.RWMutex
	city string
}

func NewMemorySettings(city string) *MemorySettings {
	return &MemorySettings{city: city}
}

func (s *MemorySettings) LastCity() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.city, nil
}

func (s *MemorySettings) SetLastCity(city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.city = city
	return nil
}
