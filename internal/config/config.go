package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/xabinapal/gitflip/internal/utils"
)

// Scope values accepted by default_scope.
const (
	ScopeLocal  = "local"
	ScopeGlobal = "global"
)

// DefaultLogLevel keeps routine logging off the terminal.
const DefaultLogLevel = "warn"

const envPrefix = "GITFLIP"

var (
	// ErrUnknownKey indicates a settings key that gitflip does not know.
	ErrUnknownKey = errors.New("unknown settings key")
	// ErrInvalidValue indicates a value that cannot be stored under a key.
	ErrInvalidValue = errors.New("invalid settings value")
)

// SSHConfig holds ssh-related settings.
type SSHConfig struct {
	// Dir is the ssh directory holding keys and the client config file.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Hostname is written as HostName in generated host blocks.
	Hostname string `yaml:"hostname" mapstructure:"hostname"`
}

// CredentialConfig holds settings for the HTTPS credential cache.
type CredentialConfig struct {
	// Host is the HTTPS host credentials are stored for and remotes point to.
	Host string `yaml:"host" mapstructure:"host"`
}

// NotificationConfig holds desktop notification settings.
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Config is the gitflip settings file.
type Config struct {
	// DefaultScope is the scope used by switch when none is given.
	DefaultScope string `yaml:"default_scope" mapstructure:"default_scope"`
	// AutoSwitchRemote rewrites the origin remote on local switches.
	AutoSwitchRemote bool               `yaml:"auto_switch_remote" mapstructure:"auto_switch_remote"`
	SSH              SSHConfig          `yaml:"ssh" mapstructure:"ssh"`
	Credential       CredentialConfig   `yaml:"credential" mapstructure:"credential"`
	Notifications    NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	Log              LogConfig          `yaml:"log" mapstructure:"log"`

	filePath string `yaml:"-"`
}

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		DefaultScope:     ScopeLocal,
		AutoSwitchRemote: true,
		SSH: SSHConfig{
			Dir:      DefaultSSHDir(),
			Hostname: "github.com",
		},
		Credential: CredentialConfig{
			Host: "github.com",
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		filePath: GetPaths().ConfigFile,
	}
}

// Load loads the settings from the default path.
func Load() (*Config, error) {
	return LoadFrom(GetPaths().ConfigFile)
}

// LoadFrom loads the settings from a specific path. A missing file yields
// defaults; GITFLIP_* environment variables override file values.
func LoadFrom(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("default_scope", def.DefaultScope)
	v.SetDefault("auto_switch_remote", def.AutoSwitchRemote)
	v.SetDefault("ssh.dir", def.SSH.Dir)
	v.SetDefault("ssh.hostname", def.SSH.Hostname)
	v.SetDefault("credential.host", def.Credential.Host)
	v.SetDefault("notifications.enabled", def.Notifications.Enabled)
	v.SetDefault("log.level", def.Log.Level)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.filePath = path

	home, _ := os.UserHomeDir()
	cfg.SSH.Dir = utils.ExpandHome(os.ExpandEnv(cfg.SSH.Dir), home)
	cfg.DefaultScope = strings.ToLower(strings.TrimSpace(cfg.DefaultScope))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch c.DefaultScope {
	case ScopeLocal, ScopeGlobal:
	default:
		return fmt.Errorf("%w: default_scope must be %q or %q, got %q", ErrInvalidValue, ScopeLocal, ScopeGlobal, c.DefaultScope)
	}
	if strings.TrimSpace(c.SSH.Hostname) == "" || !utils.IsSafeConfigValue(c.SSH.Hostname) {
		return fmt.Errorf("%w: ssh.hostname must be a single non-empty line", ErrInvalidValue)
	}
	if strings.TrimSpace(c.Credential.Host) == "" || strings.ContainsAny(c.Credential.Host, "/ \t\r\n") {
		return fmt.Errorf("%w: credential.host must be a bare host name", ErrInvalidValue)
	}
	return nil
}

// FilePath returns the path the settings were loaded from and are saved to.
func (c *Config) FilePath() string {
	return c.filePath
}

// Save writes the settings to their file path.
func (c *Config) Save() error {
	if c.filePath == "" {
		return errors.New("config file path not set")
	}

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Keys returns the settings keys accepted by Set and Get, in display order.
func Keys() []string {
	return []string{
		"default_scope",
		"auto_switch_remote",
		"ssh.dir",
		"ssh.hostname",
		"credential.host",
		"notifications.enabled",
		"log.level",
	}
}

// Get returns the string form of a settings value.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "default_scope":
		return c.DefaultScope, nil
	case "auto_switch_remote":
		return strconv.FormatBool(c.AutoSwitchRemote), nil
	case "ssh.dir":
		return c.SSH.Dir, nil
	case "ssh.hostname":
		return c.SSH.Hostname, nil
	case "credential.host":
		return c.Credential.Host, nil
	case "notifications.enabled":
		return strconv.FormatBool(c.Notifications.Enabled), nil
	case "log.level":
		return c.Log.Level, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set parses value and stores it under key. The result is validated; on
// failure the previous value is restored.
func (c *Config) Set(key, value string) error {
	prev := *c

	switch key {
	case "default_scope":
		c.DefaultScope = strings.ToLower(strings.TrimSpace(value))
	case "auto_switch_remote", "notifications.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects a boolean, got %q", ErrInvalidValue, key, value)
		}
		if key == "auto_switch_remote" {
			c.AutoSwitchRemote = b
		} else {
			c.Notifications.Enabled = b
		}
	case "ssh.dir":
		c.SSH.Dir = value
	case "ssh.hostname":
		c.SSH.Hostname = strings.TrimSpace(value)
	case "credential.host":
		c.Credential.Host = strings.TrimSpace(value)
	case "log.level":
		switch strings.ToLower(value) {
		case "trace", "debug", "info", "warn", "error":
			c.Log.Level = strings.ToLower(value)
		default:
			return fmt.Errorf("%w: log.level must be one of trace, debug, info, warn, error", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if err := c.Validate(); err != nil {
		*c = prev
		return err
	}
	return nil
}
