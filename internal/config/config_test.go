package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultScope != ScopeLocal {
		t.Errorf("DefaultScope = %q, want %q", cfg.DefaultScope, ScopeLocal)
	}
	if !cfg.AutoSwitchRemote {
		t.Error("AutoSwitchRemote should default to true")
	}
	if cfg.SSH.Hostname != "github.com" {
		t.Errorf("SSH.Hostname = %q, want github.com", cfg.SSH.Hostname)
	}
	if cfg.Credential.Host != "github.com" {
		t.Errorf("Credential.Host = %q, want github.com", cfg.Credential.Host)
	}
	if cfg.Notifications.Enabled {
		t.Error("Notifications should be disabled by default")
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if filepath.Base(cfg.SSH.Dir) != ".ssh" {
		t.Errorf("SSH.Dir = %q, want a .ssh directory", cfg.SSH.Dir)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if cfg.DefaultScope != ScopeLocal || !cfg.AutoSwitchRemote {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if cfg.FilePath() != path {
		t.Errorf("FilePath() = %q, want %q", cfg.FilePath(), path)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `default_scope: global
auto_switch_remote: false
ssh:
  dir: /tmp/keys
  hostname: ssh.github.com
credential:
  host: git.example.com
notifications:
  enabled: true
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}

	if cfg.DefaultScope != ScopeGlobal {
		t.Errorf("DefaultScope = %q, want global", cfg.DefaultScope)
	}
	if cfg.AutoSwitchRemote {
		t.Error("AutoSwitchRemote should be false")
	}
	if cfg.SSH.Dir != "/tmp/keys" {
		t.Errorf("SSH.Dir = %q", cfg.SSH.Dir)
	}
	if cfg.SSH.Hostname != "ssh.github.com" {
		t.Errorf("SSH.Hostname = %q", cfg.SSH.Hostname)
	}
	if cfg.Credential.Host != "git.example.com" {
		t.Errorf("Credential.Host = %q", cfg.Credential.Host)
	}
	if !cfg.Notifications.Enabled {
		t.Error("Notifications.Enabled should be true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadFromPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("default_scope: global\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if cfg.DefaultScope != ScopeGlobal {
		t.Errorf("DefaultScope = %q, want global", cfg.DefaultScope)
	}
	if !cfg.AutoSwitchRemote {
		t.Error("AutoSwitchRemote should keep its default")
	}
	if cfg.SSH.Hostname != "github.com" {
		t.Errorf("SSH.Hostname = %q, want default", cfg.SSH.Hostname)
	}
}

func TestLoadFromEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("default_scope: local\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GITFLIP_DEFAULT_SCOPE", "global")
	t.Setenv("GITFLIP_SSH_HOSTNAME", "ssh.example.com")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if cfg.DefaultScope != ScopeGlobal {
		t.Errorf("DefaultScope = %q, want env override", cfg.DefaultScope)
	}
	if cfg.SSH.Hostname != "ssh.example.com" {
		t.Errorf("SSH.Hostname = %q, want env override", cfg.SSH.Hostname)
	}
}

func TestLoadFromExpandsHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("HOME is not consulted on Windows")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ssh:\n  dir: ~/keys\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if want := filepath.Join(home, "keys"); cfg.SSH.Dir != want {
		t.Errorf("SSH.Dir = %q, want %q", cfg.SSH.Dir, want)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "default_scope: [unterminated\n"},
		{"bad scope", "default_scope: system\n"},
		{"empty hostname", "ssh:\n  hostname: \"\"\n"},
		{"credential host with path", "credential:\n  host: github.com/org\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Error("LoadFrom() should fail")
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() failed: %v", err)
	}
	if err := cfg.Set("default_scope", "global"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := cfg.Set("notifications.enabled", "true"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "filePath") {
		t.Error("unexported path should not be serialized")
	}

	reloaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.DefaultScope != ScopeGlobal {
		t.Errorf("DefaultScope = %q after reload", reloaded.DefaultScope)
	}
	if !reloaded.Notifications.Enabled {
		t.Error("Notifications.Enabled lost after reload")
	}
}

func TestSaveWithoutPath(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestSetAndGet(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"default_scope", "GLOBAL", "global"},
		{"auto_switch_remote", "false", "false"},
		{"ssh.dir", "/srv/ssh", "/srv/ssh"},
		{"ssh.hostname", " ssh.github.com ", "ssh.github.com"},
		{"credential.host", "gitlab.com", "gitlab.com"},
		{"notifications.enabled", "1", "true"},
		{"log.level", "DEBUG", "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := Default()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) failed: %v", tt.key, tt.value, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"unknown key", "user.name", "x", ErrUnknownKey},
		{"bad bool", "auto_switch_remote", "maybe", ErrInvalidValue},
		{"bad scope", "default_scope", "worktree", ErrInvalidValue},
		{"bad level", "log.level", "verbose", ErrInvalidValue},
		{"empty hostname", "ssh.hostname", "  ", ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			before := *cfg
			err := cfg.Set(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Set() error = %v, want %v", err, tt.wantErr)
			}
			if *cfg != before {
				t.Errorf("failed Set() modified config: %+v", cfg)
			}
		})
	}
}

func TestGetUnknownKey(t *testing.T) {
	if _, err := Default().Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get() error = %v, want ErrUnknownKey", err)
	}
}

func TestKeysRoundTrip(t *testing.T) {
	cfg := Default()
	for _, key := range Keys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) failed: %v", key, err)
		}
	}
}
