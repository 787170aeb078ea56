package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("ENFORCE_MEMBER_CAP", "")
	t.Setenv("API_RATE_WINDOW_MS", "")
	t.Setenv("WS_EVENT_RATE", "")

	cfg := Load()
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.Equal(t, 5001, cfg.InternalPort)
	assert.False(t, cfg.EnforceMemberCap)
	assert.Equal(t, 100, cfg.APIRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.APIRateWindow)
	assert.Equal(t, 5*time.Second, cfg.PersistTimeout)
	assert.Zero(t, cfg.EventRate, "per-connection event limit is off unless configured")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("ENFORCE_MEMBER_CAP", "true")
	t.Setenv("WS_EVENT_RATE", "2.5")
	t.Setenv("WS_READ_TIMEOUT_MS", "1500")

	cfg := Load()
	assert.Equal(t, 7000, cfg.HTTPPort)
	assert.True(t, cfg.EnforceMemberCap)
	assert.Equal(t, 2.5, cfg.EventRate)
	assert.Equal(t, 1500*time.Millisecond, cfg.ReadTimeout)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")
	t.Setenv("ENFORCE_MEMBER_CAP", "maybe")

	cfg := Load()
	assert.Equal(t, 5000, cfg.HTTPPort)
	assert.False(t, cfg.EnforceMemberCap)
}
