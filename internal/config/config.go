package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// CasdoorSettings holds the Casdoor connection settings
type CasdoorSettings struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// SchedulerSettings holds the cron expressions for the periodic jobs.
// Defaults match the operational schedule; overridable for staging.
type SchedulerSettings struct {
	AssignmentCron   string // daily assignment sweep
	NoticeCron       string // first-day-of-quarter notice
	ReminderCron     string // weekly reminder
	FinalizationCron string // end-of-quarter close-out
}

// Config is the application configuration, loaded from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	KafkaBrokers string
	KafkaTopic   string

	Casdoor   CasdoorSettings
	Scheduler SchedulerSettings

	// Role whose active members receive quarterly assignments
	EligibleRole string
}

// LoadConfig reads configuration from the environment, with .env support for
// local development.
func LoadConfig() (*Config, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "assessment-events"),
		Casdoor: CasdoorSettings{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		Scheduler: SchedulerSettings{
			AssignmentCron:   getEnv("SCHEDULER_ASSIGNMENT_CRON", "0 9 * * *"),
			NoticeCron:       getEnv("SCHEDULER_NOTICE_CRON", "0 8 1 1,4,7,10 *"),
			ReminderCron:     getEnv("SCHEDULER_REMINDER_CRON", "0 10 * * 1"),
			FinalizationCron: getEnv("SCHEDULER_FINALIZATION_CRON", "0 23 28-31 * *"),
		},
		EligibleRole: getEnv("ELIGIBLE_ROLE", "data_capturer"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch level {
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
