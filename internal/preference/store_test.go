package preference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sitekit/sitekit/internal/events"
)

func TestStore_DefaultsToLight(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "prefs.yaml"), nil)
	if got := s.Load(); got != Light {
		t.Errorf("Load() = %q, want light", got)
	}
}

func TestStore_ToggleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	bus := events.NewBus()

	var announced []string
	bus.Subscribe(events.TopicThemeChanged, func(p any) {
		announced = append(announced, p.(events.ThemeChanged).Theme)
	})

	s := NewStore(path, bus)
	theme, err := s.Toggle()
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if theme != Dark || !s.IsDark() {
		t.Errorf("Expected dark after toggle, got %q", theme)
	}

	// A new session reads the persisted choice
	if got := NewStore(path, nil).Load(); got != Dark {
		t.Errorf("Persisted theme = %q, want dark", got)
	}

	if theme, _ = s.Toggle(); theme != Light {
		t.Errorf("Expected light after second toggle, got %q", theme)
	}
	if len(announced) != 2 || announced[0] != Dark || announced[1] != Light {
		t.Errorf("Unexpected announcements: %v", announced)
	}
}

func TestStore_SetSameThemeIsQuiet(t *testing.T) {
	bus := events.NewBus()
	calls := 0
	bus.Subscribe(events.TopicThemeChanged, func(any) { calls++ })

	s := NewStore(filepath.Join(t.TempDir(), "prefs.yaml"), bus)
	if err := s.Set(Light); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if calls != 0 {
		t.Errorf("Setting the current theme should not publish, got %d", calls)
	}
	if err := s.Set("sepia"); err == nil {
		t.Error("Expected error for unknown theme")
	}
}

func TestStore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("theme: [unterminated"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if got := NewStore(path, nil).Load(); got != Light {
		t.Errorf("Corrupted file should yield light, got %q", got)
	}
}
