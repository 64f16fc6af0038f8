package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"framez"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	require.Equal(t, "127.0.0.1:4280", cfg.CallbackAddr)
	require.Equal(t, "http://127.0.0.1:4280/auth/callback", cfg.RedirectURL)
	require.Equal(t, "posts", cfg.Bucket)
	require.Equal(t, 15*time.Second, cfg.AuthTimeout)
	require.Equal(t, 10*time.Second, cfg.ProfileTimeout)
	require.Equal(t, 5*time.Second, cfg.SignOutWait)
	require.Empty(t, cfg.BackendURL)
	require.Empty(t, cfg.AnonKey)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "-u", "https://proj.example.co", "-k", "anon-key", "-b", "pics")

	cfg := LoadConfig()
	require.Equal(t, "https://proj.example.co", cfg.BackendURL)
	require.Equal(t, "anon-key", cfg.AnonKey)
	require.Equal(t, "pics", cfg.Bucket)
	require.Equal(t, "127.0.0.1:4280", cfg.CallbackAddr)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"backend_url": "https://proj.example.co",
		"anon_key": "json-key",
		"auth_timeout": "30s",
		"sign_out_wait": 2000000000
	}`), 0o600))
	withArgs(t, "-c", path)

	cfg := LoadConfig()
	require.Equal(t, "https://proj.example.co", cfg.BackendURL)
	require.Equal(t, "json-key", cfg.AnonKey)
	require.Equal(t, 30*time.Second, cfg.AuthTimeout)
	require.Equal(t, 2*time.Second, cfg.SignOutWait)

	// Fields absent from the JSON keep their defaults.
	require.Equal(t, "posts", cfg.Bucket)
	require.Equal(t, 10*time.Second, cfg.ProfileTimeout)
}

func TestLoadConfig_FlagsBeatJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"anon_key": "json-key"}`), 0o600))
	withArgs(t, "-c", path, "-k", "flag-key")

	cfg := LoadConfig()
	require.Equal(t, "flag-key", cfg.AnonKey)
}

func TestLoadConfig_S3FromJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"s3_endpoint": "https://proj.example.co/storage/v1/s3",
		"s3_access_key": "ak",
		"s3_secret_key": "sk"
	}`), 0o600))
	withArgs(t, "-c", path)

	cfg := LoadConfig()
	require.Equal(t, "https://proj.example.co/storage/v1/s3", cfg.S3Endpoint)
	require.Equal(t, "ak", cfg.S3AccessKey)
	require.Equal(t, "sk", cfg.S3SecretKey)
	require.Equal(t, "us-east-1", cfg.S3Region, "the default region survives")
}
