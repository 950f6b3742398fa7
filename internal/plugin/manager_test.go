package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeManifest creates dir/<sub>/plugin.json with the given manifest.
func writeManifest(t *testing.T, dir, sub string, manifest any) {
	t.Helper()

	pluginDir := filepath.Join(dir, sub)
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	var data []byte
	switch m := manifest.(type) {
	case string:
		data = []byte(m)
	default:
		var err error
		if data, err = json.Marshal(m); err != nil {
			t.Fatalf("failed to marshal manifest: %v", err)
		}
	}

	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func TestManager_Discover(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "keyboard", Manifest{
		Name:        "keyboard",
		Version:     "1.0.0",
		Description: "Sends keystrokes",
		Executable:  "keyboard",
		Actions:     []string{"keystroke", "shortcut"},
	})
	writeManifest(t, dir, "lights", Manifest{Name: "lights", Executable: "bin/lights", Actions: []string{"toggle"}})
	writeManifest(t, dir, "broken", "{not json")
	if err := os.MkdirAll(filepath.Join(dir, "no-manifest"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stray-file"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	manager := NewManager(dir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "keyboard" || plugins[1].Manifest.Name != "lights" {
		t.Errorf("expected plugins sorted by name, got %q, %q", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}

	kb, err := manager.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if kb.Path != filepath.Join(dir, "keyboard") {
		t.Errorf("Path = %q", kb.Path)
	}
	if kb.Executable != filepath.Join(dir, "keyboard", "keyboard") {
		t.Errorf("Executable = %q", kb.Executable)
	}
	if !kb.Manifest.HasAction("shortcut") || kb.Manifest.HasAction("toggle") {
		t.Errorf("unexpected actions %v", kb.Manifest.Actions)
	}

	lights, _ := manager.Get("lights")
	if lights.Executable != filepath.Join(dir, "lights", "bin", "lights") {
		t.Errorf("nested executable path = %q", lights.Executable)
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "a", Manifest{Name: "a", Executable: "a"})

	manager := NewManager(dir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	if err := os.RemoveAll(filepath.Join(dir, "a")); err != nil {
		t.Fatal(err)
	}
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	if _, err := manager.Get("a"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected removed plugin to disappear, got %v", err)
	}
}

func TestManager_Discover_NoDirectory(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") }},
		{"empty", func(t *testing.T) string { return t.TempDir() }},
		{"regular file", func(t *testing.T) string {
			path := filepath.Join(t.TempDir(), "file")
			if err := os.WriteFile(path, nil, 0o644); err != nil {
				t.Fatal(err)
			}
			return path
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(tt.dir(t), nil)
			if err := manager.Discover(); err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if n := len(manager.List()); n != 0 {
				t.Errorf("expected no plugins, got %d", n)
			}
		})
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	manager := NewManager(t.TempDir(), nil)

	if _, err := manager.Get("nonexistent"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
	if manager.PluginDir() == "" {
		t.Error("PluginDir() should return the configured directory")
	}
}

func TestParseTrigger(t *testing.T) {
	for _, tr := range Triggers() {
		got, err := ParseTrigger(string(tr))
		if err != nil || got != tr {
			t.Errorf("ParseTrigger(%q) = %q, %v", tr, got, err)
		}
	}
	if _, err := ParseTrigger("wave"); err == nil {
		t.Error("expected error for unknown trigger")
	}
}
