package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	SessionSecret string

	// Risk classifier
	GeminiAPIKey        string
	RiskModelID         string
	RiskFallbackModelID string
	RiskAssessTimeout   time.Duration

	// Review queue
	ReviewTTL     time.Duration
	SweepInterval time.Duration

	// Public intake rate limiting
	IntakeRateLimit float64
	IntakeRateBurst int

	CORSAllowedOrigins []string

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SessionSecret: getEnv("SESSION_JWT_SECRET", ""),

		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		RiskModelID:         getEnv("RISK_MODEL_ID", "gemini-2.5-flash"),
		RiskFallbackModelID: getEnv("RISK_FALLBACK_MODEL_ID", "gemini-1.5-flash"),
		RiskAssessTimeout:   getEnvAsDuration("RISK_ASSESS_TIMEOUT", 30*time.Second),

		ReviewTTL:     getEnvAsDuration("REVIEW_TTL", 24*time.Hour),
		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 10*time.Minute),

		IntakeRateLimit: getEnvAsFloat("INTAKE_RATE_LIMIT", 5),
		IntakeRateBurst: getEnvAsInt("INTAKE_RATE_BURST", 10),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Haven Counselor Platform"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
