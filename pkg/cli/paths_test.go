package cli

import (
	"path/filepath"
	"testing"
)

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths("testapp")
	if err != nil {
		t.Fatalf("NewPaths error: %v", err)
	}
	if paths.AppName != "testapp" {
		t.Errorf("AppName = %q, want %q", paths.AppName, "testapp")
	}
	if paths.HomeDir == "" {
		t.Error("HomeDir should not be empty")
	}
}

func TestPaths(t *testing.T) {
	home := t.TempDir()
	paths := &Paths{AppName: "testapp", HomeDir: home}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BaseDir", paths.BaseDir(), filepath.Join(home, ".ringdev")},
		{"AppDir", paths.AppDir(), filepath.Join(home, ".ringdev", "testapp")},
		{"ConfigFile", paths.ConfigFile(), filepath.Join(home, ".ringdev", "testapp", "config.yaml")},
		{"RegistryFile", paths.RegistryFile(), filepath.Join(home, ".ringdev", "testapp", "registry.yaml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}
