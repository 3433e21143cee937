package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8888", cfg.Port)
	assert.Equal(t, 1500*time.Millisecond, cfg.DirectoryLatency)
	assert.Equal(t, 10*time.Second, cfg.ResetDwell)
	assert.Equal(t, 5*time.Second, cfg.PreviewDwell)
	assert.Equal(t, time.Second, cfg.CountdownStep)
	assert.Equal(t, 1500*time.Millisecond, cfg.InterShot)
	assert.Equal(t, 500*time.Millisecond, cfg.Settle)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KIOSK_PORT", "3000")
	t.Setenv("KIOSK_RESET_DWELL", "3s")
	t.Setenv("KIOSK_DELIVERY_URL", "https://gateway.example.com/send")

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.ResetDwell)
	assert.Equal(t, "https://gateway.example.com/send", cfg.DeliveryURL)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("KIOSK_RESET_DWELL", "soon")
	cfg := Load()
	assert.Equal(t, 10*time.Second, cfg.ResetDwell)
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run("level "+tt.value, func(t *testing.T) {
			t.Setenv("KIOSK_LOG_LEVEL", tt.value)
			assert.Equal(t, tt.want, LogLevel())
		})
	}
}
