package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr   string // API bind address, e.g. "127.0.0.1:8080" or ":8080"
	LogDir string // logs directory

	DatabaseURL string // empty means in-memory stores

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// PublicBaseURL is the externally visible base URL Twilio signs webhook
	// requests against (scheme + host, no trailing slash). Empty means
	// reconstruct from the Host header, assuming https.
	PublicBaseURL string

	DeviceAPIKeys []string // keys trap hardware presents on telemetry posts
	AdminAPIKeys  []string // keys for the admin endpoints

	WebhookRPM   int // webhook rate limit, requests per minute (0 disables)
	WebhookBurst int
}

// FromEnv reads configuration from the environment, loading a local .env
// file first if one exists.
func FromEnv() Config {
	_ = godotenv.Load()

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	return Config{
		Addr:             addr,
		LogDir:           logDir,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		PublicBaseURL:    strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),
		DeviceAPIKeys:    splitKeys(os.Getenv("DEVICE_API_KEYS")),
		AdminAPIKeys:     splitKeys(os.Getenv("ADMIN_API_KEYS")),
		WebhookRPM:       envInt("WEBHOOK_RPM", 60),
		WebhookBurst:     envInt("WEBHOOK_BURST", 20),
	}
}

func splitKeys(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
