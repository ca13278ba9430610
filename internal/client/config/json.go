package config

import (
	"encoding/json"
	"os"

	"github.com/serviya/serviya-go/internal/flagx"
	"github.com/serviya/serviya-go/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so the file can say "15s" instead of nanoseconds. Pointer
// fields distinguish "absent" from "zero" so the file only overrides what it
// actually sets.
type JsonConfig struct {
	BaseURL             *string         `json:"base_url"`
	APIKey              *string         `json:"api_key"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	UploadTimeoutFactor *int            `json:"upload_timeout_factor"`
	MaxRetries          *uint64         `json:"max_retries"`
	RetryBase           *timex.Duration `json:"retry_base"`
	TokenLifetime       *timex.Duration `json:"token_lifetime"`
	RefreshMargin       *timex.Duration `json:"refresh_margin"`
	MaxUploadSize       *int64          `json:"max_upload_size"`
	DatabasePath        *string         `json:"database_path"`
	KeyfilePath         *string         `json:"keyfile_path"`
}

// parseJson overlays cfg with values from the JSON file named by -c/-config.
// No file flag means no JSON pass. Read or unmarshal errors panic; this runs
// once at startup and a broken config file should stop the program.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	applyJson(cfg, &jc)
}

func applyJson(cfg *Config, jc *JsonConfig) {
	if jc.BaseURL != nil {
		cfg.BaseURL = *jc.BaseURL
	}
	if jc.APIKey != nil {
		cfg.APIKey = *jc.APIKey
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.UploadTimeoutFactor != nil {
		cfg.UploadTimeoutFactor = *jc.UploadTimeoutFactor
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	if jc.RetryBase != nil {
		cfg.RetryBase = jc.RetryBase.Duration
	}
	if jc.TokenLifetime != nil {
		cfg.TokenLifetime = jc.TokenLifetime.Duration
	}
	if jc.RefreshMargin != nil {
		cfg.RefreshMargin = jc.RefreshMargin.Duration
	}
	if jc.MaxUploadSize != nil {
		cfg.MaxUploadSize = *jc.MaxUploadSize
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.KeyfilePath != nil {
		cfg.KeyfilePath = *jc.KeyfilePath
	}
}
