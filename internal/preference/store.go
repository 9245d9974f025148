// Package preference persists the reader's light/dark theme choice.
package preference

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sitekit/sitekit/internal/events"
)

// Theme values
const (
	Light = "light"
	Dark  = "dark"
)

// file is the persisted document
type file struct {
	Theme string `yaml:"theme"`
}

// Store keeps the theme in a YAML file. Toggle persists the new value and
// announces it on the bus.
type Store struct {
	path string
	bus  *events.Bus

	mu    sync.Mutex
	theme string
}

// NewStore creates a store backed by path. bus may be nil.
func NewStore(path string, bus *events.Bus) *Store {
	return &Store{path: path, bus: bus}
}

// Load reads the persisted theme. A missing or unreadable file yields light.
func (s *Store) Load() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.theme = Light
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Failed to read theme preference: %v", err)
		}
		return s.theme
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		log.Printf("Warning: Corrupted theme preference, using %s: %v", Light, err)
		return s.theme
	}
	if f.Theme == Dark {
		s.theme = Dark
	}
	return s.theme
}

// Theme returns the current theme, loading it on first use
func (s *Store) Theme() string {
	s.mu.Lock()
	theme := s.theme
	s.mu.Unlock()

	if theme == "" {
		return s.Load()
	}
	return theme
}

// IsDark reports whether the dark theme is active
func (s *Store) IsDark() bool {
	return s.Theme() == Dark
}

// Set persists theme and publishes theme-changed when it differs
func (s *Store) Set(theme string) error {
	if theme != Light && theme != Dark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	current := s.Theme()

	s.mu.Lock()
	if err := s.save(theme); err != nil {
		s.mu.Unlock()
		return err
	}
	s.theme = theme
	s.mu.Unlock()

	if theme != current && s.bus != nil {
		s.bus.Publish(events.TopicThemeChanged, events.ThemeChanged{Theme: theme})
	}
	return nil
}

// Toggle flips between light and dark and returns the new theme
func (s *Store) Toggle() (string, error) {
	next := Dark
	if s.IsDark() {
		next = Light
	}
	if err := s.Set(next); err != nil {
		return s.Theme(), err
	}
	return next, nil
}

func (s *Store) save(theme string) error {
	data, err := yaml.Marshal(file{Theme: theme})
	if err != nil {
		return fmt.Errorf("failed to encode theme preference: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preference directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write theme preference: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save theme preference: %w", err)
	}
	return nil
}
