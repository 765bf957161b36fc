package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RTMBOT_BIND_ADDR", "RTMBOT_BACKEND", "RTMBOT_NAME", "RTM_API_KEY", "RTM_SHARED_SECRET",
		"RTM_REST_URL", "RTM_AUTH_URL", "GOOGLE_REDIRECT_URL", "RTMBOT_STORE", "RTMBOT_WEBHOOK_TOKEN",
		"RTMBOT_METRICS_NAMESPACE", "RTMBOT_API_TIMEOUT", "RTMBOT_SETTINGS_TTL",
		"RTMBOT_SHUTDOWN_TIMEOUT", "RTMBOT_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	require.Equal(t, filepath.Join("/tmp/xdg", AppName), DefaultConfigDir())
}

func TestNew_Defaults(t *testing.T) {
	cfg := New("/etc/rtmbot")

	require.Equal(t, ":8080", cfg.BindAddr)
	require.Equal(t, BackendRTM, cfg.Backend)
	require.Equal(t, "file:/etc/rtmbot/users", cfg.Store)
	require.Equal(t, Duration(30*time.Second), cfg.APITimeout)
	require.Equal(t, Duration(time.Hour), cfg.SettingsTTL)
	require.Equal(t, "/etc/rtmbot/oauth_client.json", cfg.OAuthClientPath())
}

func TestLoad_JSONCFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{
		// credentials from the RTM API key page
		"rtm": {"api_key": "k", "shared_secret": "s"},
		"bind_addr": "127.0.0.1:9000",
		"api_timeout": "5s",
	}`)

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "config.json"), cfg.Source)
	require.Equal(t, "k", cfg.RTM.APIKey)
	require.Equal(t, "127.0.0.1:9000", cfg.BindAddr)
	require.Equal(t, Duration(5*time.Second), cfg.APITimeout)
	require.Equal(t, Duration(time.Hour), cfg.SettingsTTL)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "bot.yaml", `
backend: googletasks
store: sqlite:/var/lib/rtmbot/state.db
settings_ttl: 15m
debug: true
`)

	cfg, err := Load(dir, path)
	require.NoError(t, err)
	require.Equal(t, BackendGoogleTasks, cfg.Backend)
	require.Equal(t, "sqlite:/var/lib/rtmbot/state.db", cfg.Store)
	require.Equal(t, Duration(15*time.Minute), cfg.SettingsTTL)
	require.True(t, cfg.Debug)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"rtm": {"api_key": "file-key", "shared_secret": "s"}}`)
	t.Setenv("RTM_API_KEY", "env-key")
	t.Setenv("RTMBOT_API_TIMEOUT", "2s")
	t.Setenv("RTMBOT_DEBUG", "yes")
	t.Setenv("RTMBOT_STORE", "memory:")

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	require.Equal(t, "env-key", cfg.RTM.APIKey)
	require.Equal(t, Duration(2*time.Second), cfg.APITimeout)
	require.True(t, cfg.Debug)
	require.Equal(t, "memory:", cfg.Store)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing api key", map[string]string{"RTM_SHARED_SECRET": "s"}, "RTM_API_KEY"},
		{"missing secret", map[string]string{"RTM_API_KEY": "k"}, "RTM_SHARED_SECRET"},
		{"unknown backend", map[string]string{"RTMBOT_BACKEND": "todoist"}, "RTMBOT_BACKEND"},
		{"bad duration", map[string]string{"RTMBOT_BACKEND": "googletasks", "RTMBOT_SETTINGS_TTL": "soon"}, "RTMBOT_SETTINGS_TTL"},
		{"bad bool", map[string]string{"RTMBOT_BACKEND": "googletasks", "RTMBOT_DEBUG": "maybe"}, "RTMBOT_DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir(), "")
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	clearEnv(t)
	_, err := Load(t.TempDir(), "/nonexistent/config.json")
	require.Error(t, err)
}

func TestLoad_InvalidJSONC(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"rtm": `)

	_, err := Load(dir, "")
	require.ErrorContains(t, err, "invalid JSONC")
}
