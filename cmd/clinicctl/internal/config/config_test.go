package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLINIC_CONFIG_DIR", dir)

	s, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", s.ServerURL)
	assert.Equal(t, "/api/v1", s.APIPrefix)
	assert.Equal(t, 15*time.Second, s.Timeout)
	assert.Equal(t, 70*time.Second, s.UploadTimeout)
	assert.Equal(t, 256, s.CacheSize)
	assert.Equal(t, 5*time.Minute, s.CacheTTL)
	assert.Equal(t, dir, s.ConfigDir)
	assert.False(t, s.NonInteractive)
}

// CLINIC_ prefixed environment variables override defaults
func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("CLINIC_CONFIG_DIR", t.TempDir())
	t.Setenv("CLINIC_SERVER_URL", "https://clinic.example.com/")
	t.Setenv("CLINIC_TIMEOUT", "30s")
	t.Setenv("CLINIC_LOG_LEVEL", "debug")
	t.Setenv("CLINIC_CACHE_SIZE", "16")
	t.Setenv("CLINIC_NON_INTERACTIVE", "true")

	s, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://clinic.example.com", s.ServerURL)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 16, s.CacheSize)
	assert.True(t, s.NonInteractive)
}

func TestLoad_WithConfigFileInConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLINIC_CONFIG_DIR", dir)
	content := `
server_url: "http://file:9000"
upload_timeout: 2m
cache_ttl: 30s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	s, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://file:9000", s.ServerURL)
	assert.Equal(t, 2*time.Minute, s.UploadTimeout)
	assert.Equal(t, 30*time.Second, s.CacheTTL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CLINIC_CONFIG_DIR", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "clinic.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server_url: http://file:9000\n"), 0644))
	t.Setenv("CLINIC_SERVER_URL", "http://env:9001")

	s, err := Load(viper.New(), configPath)
	require.NoError(t, err)
	assert.Equal(t, "http://env:9001", s.ServerURL)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "bad url", env: map[string]string{"CLINIC_SERVER_URL": "not a url"}, want: "serverurl"},
		{name: "bad level", env: map[string]string{"CLINIC_LOG_LEVEL": "loud"}, want: "loglevel"},
		{name: "zero cache", env: map[string]string{"CLINIC_CACHE_SIZE": "0"}, want: "cachesize"},
		{name: "relative prefix", env: map[string]string{"CLINIC_API_PREFIX": "api/v1"}, want: "apiprefix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLINIC_CONFIG_DIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(viper.New(), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestContextInjection(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { MustFromContext(context.Background()) })

	cfg := &GlobalConfig{Settings: Settings{ServerURL: "http://x"}}
	ctx := InjectConfig(context.Background(), cfg)
	assert.Same(t, cfg, MustFromContext(ctx))
}
