package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds client and devserver settings, read from the environment.
type Config struct {
	APIBaseURL      string
	CredentialsFile string
	RequestTimeout  time.Duration
	NoticeTTL       time.Duration

	// Devserver settings
	Addr      string
	JWTSecret string
}

// Load reads configuration from environment variables. Callers are expected
// to have loaded a .env file beforehand (see main).
func Load() *Config {
	cfg := &Config{
		APIBaseURL:      getEnv("NOTESYNC_API_URL", "http://localhost:8080/api"),
		CredentialsFile: getEnv("NOTESYNC_CREDENTIALS_FILE", defaultCredentialsFile()),
		RequestTimeout:  getDuration("NOTESYNC_TIMEOUT", 10*time.Second),
		NoticeTTL:       getDuration("NOTESYNC_NOTICE_TTL", 3*time.Second),
		Addr:            getEnv("NOTESYNC_ADDR", ":8080"),
		JWTSecret:       getEnv("NOTESYNC_JWT_SECRET", "dev-secret-change-me"),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func defaultCredentialsFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".notesync-credentials.json")
	}
	return filepath.Join(configDir, "notesync", "credentials.json")
}
