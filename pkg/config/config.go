package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port                    string
	Env                     string
	PostgresConnStr         string
	MongoURI                string
	JWTSecret               string
	AutomationToken         string
	FirebaseCredentialsPath string
	WebhookTimeout          time.Duration
	StreamKeepAlive         time.Duration
	SMTPAddr                string
	SMTPFrom                string
	SMTPUsername            string
	SMTPPassword            string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		AutomationToken:         getEnv("AUTOMATION_TOKEN", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		WebhookTimeout:          getEnvSeconds("WEBHOOK_TIMEOUT_SECONDS", 10),
		StreamKeepAlive:         getEnvSeconds("STREAM_KEEPALIVE_SECONDS", 30),
		SMTPAddr:                getEnv("SMTP_ADDR", ""),
		SMTPFrom:                getEnv("SMTP_FROM", "notifications@teamhub.local"),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(defaultSeconds) * time.Second
}
