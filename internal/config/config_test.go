package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("local")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.SummarizerCfg.Url)
	assert.Equal(t, "/api/summarize/", cfg.SummarizerCfg.SummarizeEndpoint)
	assert.Equal(t, "/api/ask/", cfg.SummarizerCfg.AskEndpoint)
	assert.Equal(t, "file", cfg.SummarizerCfg.FileField)
	assert.Equal(t, 180*time.Second, cfg.SummarizerCfg.RequestTimeout)
	assert.Zero(t, cfg.SummarizerCfg.ResponseHeaderTimeout)
	assert.Equal(t, time.Hour, cfg.SessionCfg.TTL)
	assert.Equal(t, []string{".pdf"}, cfg.FileUploadCfg.AllowedExtensions)
	assert.False(t, cfg.EnableMocks)
	assert.Equal(t, uint(3), cfg.CallbackCfg.Retry.Attempts)
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := "SUMMARIZER_SERVICE_URL=http://summarizer:9000\n" +
		"SUMMARIZER_TIMEOUT=0s\n" +
		"FILE_UPLOAD_ALLOWED_EXTENSIONS=PDF, .txt\n" +
		"ENABLE_MOCKS=true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.staging"), []byte(content), 0o600))

	// godotenv writes into the process environment; t.Setenv restores it afterwards
	for _, key := range []string{"SUMMARIZER_SERVICE_URL", "SUMMARIZER_TIMEOUT", "FILE_UPLOAD_ALLOWED_EXTENSIONS", "ENABLE_MOCKS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig("staging")
	require.NoError(t, err)

	assert.Equal(t, "http://summarizer:9000", cfg.SummarizerCfg.Url)
	assert.Zero(t, cfg.SummarizerCfg.RequestTimeout)
	assert.Equal(t, []string{".pdf", ".txt"}, cfg.FileUploadCfg.AllowedExtensions)
	assert.True(t, cfg.EnableMocks)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad log level", key: "LOG_LEVEL", val: "verbose"},
		{name: "bad service url", key: "SUMMARIZER_SERVICE_URL", val: "not a url"},
		{name: "zero max file size", key: "FILE_UPLOAD_MAX_FILE_SIZE", val: "0"},
		{name: "zero session ttl", key: "SESSION_TTL", val: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig("local")
			require.Error(t, err)
		})
	}
}

func TestValidateTelegram(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("local")
	require.NoError(t, err)
	require.Error(t, cfg.ValidateTelegram(), "bot token is required")

	cfg.TelegramCfg.BotToken = "123:abc"
	require.NoError(t, cfg.ValidateTelegram())

	assert.Equal(t, uint(3), cfg.TelegramCfg.SendRetry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.TelegramCfg.SendRetry.Delay)

	cfg.TelegramCfg.SendRetry.Attempts = 0
	require.Error(t, cfg.ValidateTelegram())
	cfg.TelegramCfg.SendRetry.Attempts = 3

	cfg.TelegramCfg.RateLimitBurst = 100
	require.Error(t, cfg.ValidateTelegram())
}

func TestGetEnvFile(t *testing.T) {
	assert.Equal(t, ".env.prod", getEnvFile("production"))
	assert.Equal(t, ".env.local", getEnvFile("dev"))
	assert.Equal(t, ".env.local", getEnvFile(""))
	assert.Equal(t, ".env.qa", getEnvFile("qa"))
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
