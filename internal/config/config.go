// Package config reads kiosk configuration from KIOSK_* environment
// variables. A .env file, if present, is loaded by the root command before
// any of this runs.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config carries every tunable of the kiosk experience. Timing defaults
// reproduce the designed guest experience and are only overridden in tests
// or during floor calibration.
type Config struct {
	Port string

	// Guest directory
	FixturePath      string
	DirectoryLatency time.Duration

	// Camera unit
	SnapshotURL string

	// Delivery gateway; empty means log-only delivery
	DeliveryURL string

	// Brand panel configuration file (yaml); empty means built-in brand
	BrandPath string

	// Dwells between auto-transitions
	VerifyDwell        time.Duration
	NoticeDwell        time.Duration
	ConsentDeniedDwell time.Duration
	DeclineDwell       time.Duration
	PreviewDwell       time.Duration
	ResetDwell         time.Duration

	// Capture sequencing
	PreRoll       time.Duration
	CountdownStep time.Duration
	InterShot     time.Duration
	Settle        time.Duration
}

// Load reads the configuration from the environment, falling back to the
// designed defaults for anything unset.
func Load() *Config {
	return &Config{
		Port:             getEnv("KIOSK_PORT", "8888"),
		FixturePath:      getEnv("KIOSK_DIRECTORY_FIXTURE", ""),
		DirectoryLatency: getDuration("KIOSK_DIRECTORY_LATENCY", 1500*time.Millisecond),
		SnapshotURL:      getEnv("KIOSK_CAMERA_SNAPSHOT_URL", ""),
		DeliveryURL:      getEnv("KIOSK_DELIVERY_URL", ""),
		BrandPath:        getEnv("KIOSK_BRAND_CONFIG", ""),

		VerifyDwell:        getDuration("KIOSK_VERIFY_DWELL", 2*time.Second),
		NoticeDwell:        getDuration("KIOSK_NOTICE_DWELL", 2*time.Second),
		ConsentDeniedDwell: getDuration("KIOSK_CONSENT_DENIED_DWELL", 3*time.Second),
		DeclineDwell:       getDuration("KIOSK_DECLINE_DWELL", 2*time.Second),
		PreviewDwell:       getDuration("KIOSK_PREVIEW_DWELL", 5*time.Second),
		ResetDwell:         getDuration("KIOSK_RESET_DWELL", 10*time.Second),

		PreRoll:       getDuration("KIOSK_CAPTURE_PREROLL", time.Second),
		CountdownStep: getDuration("KIOSK_CAPTURE_COUNTDOWN_STEP", time.Second),
		InterShot:     getDuration("KIOSK_CAPTURE_INTERSHOT", 1500*time.Millisecond),
		Settle:        getDuration("KIOSK_CAPTURE_SETTLE", 500*time.Millisecond),
	}
}

// LogLevel maps KIOSK_LOG_LEVEL to a slog level, defaulting to info.
func LogLevel() slog.Level {
	switch strings.ToLower(os.Getenv("KIOSK_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("Invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
