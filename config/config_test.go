package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.ServerAddr)
	assert.Equal(t, 2*time.Second, cfg.HighlightDuration)
	assert.Equal(t, 4*time.Second, cfg.AttachmentStatusTimeout)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.False(t, cfg.HistoryTokenLog)
	assert.Equal(t, "*", cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHAT_URL=http://backend:9000/chat\nHIGHLIGHT_DURATION=750ms\n"), 0o600))

	t.Setenv("LOG_LEVEL", "debug")
	t.Cleanup(func() {
		os.Unsetenv("CHAT_URL")
		os.Unsetenv("HIGHLIGHT_DURATION")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000/chat", cfg.ChatURL)
	assert.Equal(t, 750*time.Millisecond, cfg.HighlightDuration)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load("")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "warn", LogFormat: "console", LogFile: filepath.Join(t.TempDir(), "widget.log")}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	logger.Warn("hello")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, cfg.LogFile)

	_, err = NewLogger(&Config{LogLevel: "loud"})
	assert.Error(t, err)
}
