package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"cmd"}, args...)
}

func TestParseFlags_Overrides(t *testing.T) {
	setArgs(t, "-a", "https://staging.serviya.app", "-t", "30", "-r", "5", "-d", "other.db")

	var cfg Config
	cfg.LoadDefaults()
	parseFlags(&cfg)

	assert.Equal(t, "https://staging.serviya.app", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, uint64(5), cfg.MaxRetries)
	assert.Equal(t, "other.db", cfg.DatabasePath)
}

func TestParseFlags_UnsetFlagsKeepFineGrainedValues(t *testing.T) {
	setArgs(t, "-a", "https://staging.serviya.app")

	var cfg Config
	cfg.LoadDefaults()
	// Values a JSON file may have set at sub-second precision.
	cfg.RequestTimeout = 500 * time.Millisecond
	cfg.MaxRetries = 7

	parseFlags(&cfg)

	assert.Equal(t, 500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, uint64(7), cfg.MaxRetries)
}
