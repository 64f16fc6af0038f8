// Package config handles configuration for the framez client, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the framez CLI.
//
// Fields:
//   - BackendURL / AnonKey: the hosted project root and its public API key.
//   - TokenPath: where the session token pair is persisted ("" = default).
//   - CallbackAddr: bind address of the local email-confirmation target.
//   - RedirectURL: the URL registered with sign-up/resend requests; it must
//     point at CallbackAddr's /auth/callback route.
//   - Bucket: storage bucket for post images.
//   - AuthTimeout / ProfileTimeout / SignOutWait: bounded timeouts for auth
//     calls, profile bootstrap, and the optimistic sign-out clear.
//   - S3*: the storage service's S3-compatible protocol endpoint, used by the
//     last-resort upload strategy. Leave S3AccessKey empty to disable it.
type Config struct {
	BackendURL string
	AnonKey    string
	TokenPath  string

	CallbackAddr string
	RedirectURL  string

	Bucket string

	AuthTimeout    time.Duration
	ProfileTimeout time.Duration
	SignOutWait    time.Duration

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults. BackendURL and AnonKey
// have no useful defaults and must come from JSON or flags.
func (c *Config) LoadDefaults() {
	c.CallbackAddr = "127.0.0.1:4280"
	c.RedirectURL = "http://127.0.0.1:4280/auth/callback"
	c.Bucket = "posts"
	c.AuthTimeout = 15 * time.Second
	c.ProfileTimeout = 10 * time.Second
	c.SignOutWait = 5 * time.Second
	c.S3Region = "us-east-1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
