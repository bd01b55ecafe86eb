package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EDEN_DATABASE_URL", "postgres://localhost/eden")
	t.Setenv("EDEN_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "monitor_alerts", cfg.Kafka.Topic)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.PollInterval)
	assert.False(t, cfg.Project.CommunityActivity)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EDEN_DATABASE_URL", "postgres://localhost/eden")
	t.Setenv("EDEN_JWT_SECRET", "secret")
	t.Setenv("EDEN_PORT", "8080")
	t.Setenv("EDEN_MAIL_SENDER", "monitor@example.org")
	t.Setenv("EDEN_ALLOWED_ORIGINS", "https://a.example.org,https://b.example.org")
	t.Setenv("EDEN_SCHEDULER_POLL_INTERVAL", "5s")
	t.Setenv("EDEN_PROJECT_COMMUNITY_ACTIVITY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "monitor@example.org", cfg.Mail.Sender)
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.PollInterval)
	assert.True(t, cfg.Project.CommunityActivity)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("EDEN_DATABASE_URL", "")
	t.Setenv("EDEN_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EDEN_DATABASE_URL")
	assert.Contains(t, err.Error(), "EDEN_JWT_SECRET")
}
