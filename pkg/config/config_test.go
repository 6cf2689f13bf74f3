package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://localhost:8080/")
	t.Setenv("MATCH_PAGE_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BackendURL)
	assert.Equal(t, "http://localhost:8080/auth/facebook", cfg.LoginURL)
	assert.Equal(t, "user", cfg.SessionKey)
	assert.Equal(t, 10, cfg.MatchPageSize)
	assert.Equal(t, SendPolicyMarkFailed, cfg.SendFailurePolicy)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://api.example.com")
	t.Setenv("LOGIN_URL", "https://login.example.com/start")
	t.Setenv("SEND_FAILURE_POLICY", SendPolicyRetain)
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://login.example.com/start", cfg.LoginURL)
	assert.Equal(t, SendPolicyRetain, cfg.SendFailurePolicy)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.IsDevelopment())
}
