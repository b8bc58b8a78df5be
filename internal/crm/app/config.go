package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	SessionSecret string // Required: HMAC key for session cookie verification
	SealKeyPath   string // Optional: path to cookie seal key file (ephemeral key if unset)

	RingCentralServerURL    string // Optional: provider REST base URL (default: https://platform.ringcentral.com)
	RingCentralClientID     string // Required for telephony: OAuth client id
	RingCentralClientSecret string // Required for telephony: OAuth client secret
	RingCentralRedirectURI  string // Required for telephony: OAuth redirect URI
	RingCentralFromNumber   string // Optional: outbound caller id for calls and SMS
	PublicOrigin            string // Optional: this service's own base URL (derived from Host header if unset)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./brokerd.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SealKeyPath:   os.Getenv("COOKIE_SEAL_KEY_PATH"),

		RingCentralServerURL: getEnvOrDefault(
			"RINGCENTRAL_SERVER_URL",
			"https://platform.ringcentral.com",
		),
		RingCentralClientID:     os.Getenv("RINGCENTRAL_CLIENT_ID"),
		RingCentralClientSecret: os.Getenv("RINGCENTRAL_CLIENT_SECRET"),
		RingCentralRedirectURI:  os.Getenv("RINGCENTRAL_REDIRECT_URI"),
		RingCentralFromNumber:   os.Getenv("RINGCENTRAL_FROM_NUMBER"),
		PublicOrigin:            os.Getenv("PUBLIC_ORIGIN"),

		DatabaseFile:        getEnvOrDefault("DATABASE_FILE", "brokerd.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
