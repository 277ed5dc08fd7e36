package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Clinic presentation
	ClinicName    string
	MenuVariant   string
	EndoscopyDays []string

	// Reference data
	ProceduresCSV string
	RosterCSV     string

	// Dialog engine
	ReMenuDelay time.Duration
	SessionTTL  time.Duration
	WorkerCount int
	QueueBuffer int

	// WhatsApp gateway (channel adapter)
	GatewayBaseURL string
	GatewayToken   string
	GatewayWSURL   string
	WebhookSecret  string

	// Operator alerting
	AlertsEnabled bool

	// Optional persistence
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
}

// MenuVariantFull enables all nine menu options, including follow-up scheduling.
const MenuVariantFull = "full"

// MenuVariantReduced disables the follow-up option, keeping eight menu options.
const MenuVariantReduced = "reduced"

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ClinicName:    getEnv("CLINIC_NAME", "Hospital"),
		MenuVariant:   strings.ToLower(strings.TrimSpace(getEnv("MENU_VARIANT", MenuVariantFull))),
		EndoscopyDays: getEnvAsList("ENDOSCOPY_DAYS", []string{"07/03", "08/03", "14/03", "15/03", "28/03", "31/03"}),

		ProceduresCSV: getEnv("PROCEDURES_CSV", "precos.csv"),
		RosterCSV:     getEnv("ROSTER_CSV", "plantao.csv"),

		ReMenuDelay: getEnvAsDuration("REMENU_DELAY", 2*time.Second),
		SessionTTL:  getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		WorkerCount: getEnvAsInt("WORKER_COUNT", 1),
		QueueBuffer: getEnvAsInt("QUEUE_BUFFER", 128),

		GatewayBaseURL: getEnv("GATEWAY_BASE_URL", ""),
		GatewayToken:   getEnv("GATEWAY_TOKEN", ""),
		GatewayWSURL:   getEnv("GATEWAY_WS_URL", ""),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),

		AlertsEnabled: getEnvAsBool("ALERTS_ENABLED", true),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList retrieves a comma-separated environment variable, trimming each entry.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
