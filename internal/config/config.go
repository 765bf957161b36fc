// Package config loads the bot configuration from defaults, an optional
// config file in the XDG configuration directory, and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "rtmbot"

	// OAuthClientFile is the OAuth client credentials filename used by the
	// Google Tasks backend.
	OAuthClientFile = "oauth_client.json"

	// BackendRTM and BackendGoogleTasks name the supported task services.
	BackendRTM         = "rtm"
	BackendGoogleTasks = "googletasks"
)

// Config file names tried in order when no path is given.
var configFiles = []string{"config.json", "config.jsonc", "config.yaml", "config.yml"}

// Duration is a time.Duration read from strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// RTM holds the Remember The Milk application credentials.
type RTM struct {
	APIKey       string `json:"api_key" yaml:"api_key"`
	SharedSecret string `json:"shared_secret" yaml:"shared_secret"`
	RESTURL      string `json:"rest_url,omitempty" yaml:"rest_url,omitempty"`
	AuthURL      string `json:"auth_url,omitempty" yaml:"auth_url,omitempty"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `json:"-" yaml:"-"`

	// Source is the config file that was loaded, if any.
	Source string `json:"-" yaml:"-"`

	BindAddr          string   `json:"bind_addr" yaml:"bind_addr"`
	Backend           string   `json:"backend" yaml:"backend"`
	BotName           string   `json:"bot_name" yaml:"bot_name"`
	RTM               RTM      `json:"rtm" yaml:"rtm"`
	GoogleRedirectURL string   `json:"google_redirect_url,omitempty" yaml:"google_redirect_url,omitempty"`
	Store             string   `json:"store" yaml:"store"`
	APITimeout        Duration `json:"api_timeout" yaml:"api_timeout"`
	SettingsTTL       Duration `json:"settings_ttl" yaml:"settings_ttl"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	WebhookToken      string   `json:"webhook_token,omitempty" yaml:"webhook_token,omitempty"`
	MetricsNamespace  string   `json:"metrics_namespace" yaml:"metrics_namespace"`

	// Debug enables debug logging.
	Debug bool `json:"debug" yaml:"debug"`
}

// New creates a Config with defaults for the default or specified config
// directory. If configDir is empty, uses XDG_CONFIG_HOME/rtmbot or
// $HOME/.config/rtmbot.
func New(configDir string) *Config {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:              dir,
		BindAddr:         ":8080",
		Backend:          BackendRTM,
		BotName:          AppName,
		Store:            "file:" + filepath.Join(dir, "users"),
		APITimeout:       Duration(30 * time.Second),
		SettingsTTL:      Duration(time.Hour),
		ShutdownTimeout:  Duration(10 * time.Second),
		MetricsNamespace: AppName,
	}
}

// Load builds the configuration: defaults, then the config file, then
// environment overrides. An explicit path must exist; otherwise the
// first config file found in the config directory is used.
func Load(configDir, path string) (*Config, error) {
	cfg := New(configDir)

	if path == "" {
		for _, name := range configFiles {
			candidate := filepath.Join(cfg.Dir, name)
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
		cfg.Source = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return fmt.Errorf("invalid JSONC in %s: %w", path, err)
		}
		if err := json.Unmarshal(standardized, c); err != nil {
			return fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.BindAddr = envOrDefault("RTMBOT_BIND_ADDR", c.BindAddr)
	c.Backend = strings.ToLower(envOrDefault("RTMBOT_BACKEND", c.Backend))
	c.BotName = envOrDefault("RTMBOT_NAME", c.BotName)
	c.RTM.APIKey = envOrDefault("RTM_API_KEY", c.RTM.APIKey)
	c.RTM.SharedSecret = envOrDefault("RTM_SHARED_SECRET", c.RTM.SharedSecret)
	c.RTM.RESTURL = envOrDefault("RTM_REST_URL", c.RTM.RESTURL)
	c.RTM.AuthURL = envOrDefault("RTM_AUTH_URL", c.RTM.AuthURL)
	c.GoogleRedirectURL = envOrDefault("GOOGLE_REDIRECT_URL", c.GoogleRedirectURL)
	c.Store = envOrDefault("RTMBOT_STORE", c.Store)
	c.WebhookToken = envOrDefault("RTMBOT_WEBHOOK_TOKEN", c.WebhookToken)
	c.MetricsNamespace = envOrDefault("RTMBOT_METRICS_NAMESPACE", c.MetricsNamespace)

	var err error
	for key, d := range map[string]*Duration{
		"RTMBOT_API_TIMEOUT":      &c.APITimeout,
		"RTMBOT_SETTINGS_TTL":     &c.SettingsTTL,
		"RTMBOT_SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	} {
		if err = durationFromEnv(key, d); err != nil {
			return err
		}
	}
	if c.Debug, err = boolFromEnv("RTMBOT_DEBUG", c.Debug); err != nil {
		return err
	}
	return nil
}

// Validate reports the first invalid setting by its key.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRTM:
		if c.RTM.APIKey == "" {
			return errors.New("RTM_API_KEY is required for the rtm backend")
		}
		if c.RTM.SharedSecret == "" {
			return errors.New("RTM_SHARED_SECRET is required for the rtm backend")
		}
	case BackendGoogleTasks:
	default:
		return fmt.Errorf("RTMBOT_BACKEND: unknown backend %q (want %s or %s)", c.Backend, BackendRTM, BackendGoogleTasks)
	}
	if c.APITimeout <= 0 {
		return errors.New("RTMBOT_API_TIMEOUT must be positive")
	}
	if c.SettingsTTL <= 0 {
		return errors.New("RTMBOT_SETTINGS_TTL must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("RTMBOT_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, d *Duration) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s parse error: %w", key, err)
	}
	*d = Duration(parsed)
	return nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		switch v {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off":
			return false, nil
		}
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
	return b, nil
}
