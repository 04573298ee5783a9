package cli

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfigWithPath("testapp", filepath.Join(t.TempDir(), "sub", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}
	return cfg
}

func TestLoadConfigWithPath_NewConfig(t *testing.T) {
	cfg := newTestConfig(t)

	if cfg.AppName != "testapp" {
		t.Errorf("AppName = %q, want testapp", cfg.AppName)
	}
	if len(cfg.Contexts) != 0 {
		t.Errorf("Contexts = %v, want empty", cfg.Contexts)
	}
	if _, err := os.Stat(cfg.Path()); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}

func TestConfig_AddContext(t *testing.T) {
	cfg := newTestConfig(t)

	if err := cfg.AddContext("local", &Context{Server: "tcp://localhost:7360", Device: 2}); err != nil {
		t.Fatalf("AddContext error: %v", err)
	}
	ctx, err := cfg.GetContext("local")
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Name != "local" || ctx.Device != 2 {
		t.Errorf("context = %+v", ctx)
	}

	if err := cfg.AddContext("broken", &Context{}); err == nil {
		t.Error("AddContext without server should fail")
	}
}

func TestConfig_DeleteContext(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.AddContext("a", &Context{Server: "tcp://a"})
	cfg.UseContext("a")

	if err := cfg.DeleteContext("a"); err != nil {
		t.Fatalf("DeleteContext error: %v", err)
	}
	if cfg.CurrentContext != "" {
		t.Errorf("CurrentContext = %q, want cleared", cfg.CurrentContext)
	}
	if err := cfg.DeleteContext("a"); err == nil {
		t.Error("DeleteContext of missing context should fail")
	}
}

func TestConfig_UseContext(t *testing.T) {
	cfg := newTestConfig(t)
	if err := cfg.UseContext("missing"); err == nil {
		t.Error("UseContext of missing context should fail")
	}
	cfg.AddContext("a", &Context{Server: "tcp://a"})
	if err := cfg.UseContext("a"); err != nil {
		t.Fatal(err)
	}
	if cfg.CurrentContext != "a" {
		t.Errorf("CurrentContext = %q", cfg.CurrentContext)
	}
}

func TestConfig_ResolveContext(t *testing.T) {
	cfg := newTestConfig(t)
	if _, err := cfg.ResolveContext(""); err == nil {
		t.Error("ResolveContext without current context should fail")
	}
	cfg.AddContext("a", &Context{Server: "tcp://a"})
	cfg.AddContext("b", &Context{Server: "tcp://b"})
	cfg.UseContext("a")

	tests := []struct {
		name string
		want string
	}{
		{"", "tcp://a"},
		{"b", "tcp://b"},
	}
	for _, tt := range tests {
		ctx, err := cfg.ResolveContext(tt.name)
		if err != nil {
			t.Fatalf("ResolveContext(%q) error: %v", tt.name, err)
		}
		if ctx.Server != tt.want {
			t.Errorf("ResolveContext(%q).Server = %q, want %q", tt.name, ctx.Server, tt.want)
		}
	}
	if _, err := cfg.ResolveContext("c"); err == nil {
		t.Error("ResolveContext of missing context should fail")
	}
}

func TestConfig_ListContexts(t *testing.T) {
	cfg := newTestConfig(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		cfg.AddContext(name, &Context{Server: "tcp://" + name})
	}
	got := cfg.ListContexts()
	want := []string{"alpha", "mid", "zeta"}
	if !slices.Equal(got, want) {
		t.Errorf("ListContexts() = %v, want %v", got, want)
	}
}

func TestConfig_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath("testapp", path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.AddContext("prod", &Context{
		Server:      "wss://ring.example.com",
		Device:      5,
		NonBlocking: true,
		Timeout:     3,
		Insecure:    true,
	})
	cfg.UseContext("prod")

	loaded, err := LoadConfigWithPath("testapp", path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.CurrentContext != "prod" {
		t.Errorf("CurrentContext = %q", loaded.CurrentContext)
	}
	ctx, err := loaded.GetCurrentContext()
	if err != nil {
		t.Fatal(err)
	}
	want := Context{Name: "prod", Server: "wss://ring.example.com", Device: 5, NonBlocking: true, Timeout: 3, Insecure: true}
	if *ctx != want {
		t.Errorf("loaded context = %+v, want %+v", *ctx, want)
	}
}

func TestLoadConfigWithPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("contexts: [not, a, map"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigWithPath("testapp", path); err == nil {
		t.Error("invalid yaml should fail to load")
	}
}
