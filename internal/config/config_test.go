package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_DSN", "AMQP_URL", "QUEUE_NAME", "STATUS_WEBHOOK_RPS", "TERMINAL_TTL", "MOCK_FAILURE_RATE"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.DBDSN)
	assert.Equal(t, "outbound_sms", cfg.QueueName)
	assert.Equal(t, 5, cfg.WebhookRPS)
	assert.Equal(t, 24*time.Hour, cfg.TerminalTTL)
	assert.InDelta(t, 0.1, cfg.MockFailureRate, 1e-9)
}

func TestLoadReportsDotEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	assert.False(t, Load().DotEnvLoaded)

	require.NoError(t, os.WriteFile(".env", []byte("QUEUE_NAME=from_dotenv\n"), 0o600))
	t.Setenv("QUEUE_NAME", "")
	require.NoError(t, os.Unsetenv("QUEUE_NAME"))

	cfg := Load()
	assert.True(t, cfg.DotEnvLoaded)
	assert.Equal(t, "from_dotenv", cfg.QueueName)
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STATUS_WEBHOOK_RPS", "nope")
	t.Setenv("TERMINAL_TTL", "90m")
	t.Setenv("LOG_PRETTY", "true")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.WebhookRPS)
	assert.Equal(t, 90*time.Minute, cfg.TerminalTTL)
	assert.True(t, cfg.LogPretty)
}
