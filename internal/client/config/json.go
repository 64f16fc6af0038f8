package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/framezapp/framez/internal/flagx"
	"github.com/framezapp/framez/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "5s"
// or as integer nanoseconds.
type JsonConfig struct {
	BackendURL   string         `json:"backend_url"`
	AnonKey      string         `json:"anon_key"`
	TokenPath    string         `json:"token_path"`
	CallbackAddr string         `json:"callback_addr"`
	RedirectURL  string         `json:"redirect_url"`
	Bucket       string         `json:"bucket"`
	AuthTimeout  timex.Duration `json:"auth_timeout"`
	ProfileTO    timex.Duration `json:"profile_timeout"`
	SignOutWait  timex.Duration `json:"sign_out_wait"`
	S3Endpoint   string         `json:"s3_endpoint"`
	S3Region     string         `json:"s3_region"`
	S3AccessKey  string         `json:"s3_access_key"`
	S3SecretKey  string         `json:"s3_secret_key"`
}

// parseJson overlays Config with values loaded from a JSON file named by the
// -c / -config flags. Missing flag means no JSON is loaded. Empty JSON fields
// leave the existing value in place, so intended usage is:
// defaults -> parseJson -> parseFlags, later stages overriding earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlayString(&cfg.BackendURL, jc.BackendURL)
	overlayString(&cfg.AnonKey, jc.AnonKey)
	overlayString(&cfg.TokenPath, jc.TokenPath)
	overlayString(&cfg.CallbackAddr, jc.CallbackAddr)
	overlayString(&cfg.RedirectURL, jc.RedirectURL)
	overlayString(&cfg.Bucket, jc.Bucket)
	overlayDuration(&cfg.AuthTimeout, jc.AuthTimeout.Duration)
	overlayDuration(&cfg.ProfileTimeout, jc.ProfileTO.Duration)
	overlayDuration(&cfg.SignOutWait, jc.SignOutWait.Duration)
	overlayString(&cfg.S3Endpoint, jc.S3Endpoint)
	overlayString(&cfg.S3Region, jc.S3Region)
	overlayString(&cfg.S3AccessKey, jc.S3AccessKey)
	overlayString(&cfg.S3SecretKey, jc.S3SecretKey)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
