package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"diamonds/internal/core"
)

type Config struct {
	// HTTP Server
	Port      string
	RateLimit int

	// Storage
	DataBackend   string
	SQLiteDBPath  string
	MemorySeedDir string
	SettingsFile  string

	// Metric factors, fixed for the life of the process
	Factors core.Factors

	// AMQP; an empty URL disables change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Insight
	InsightAPIURL  string
	InsightAPIKey  string
	InsightModel   string
	InsightTimeout time.Duration

	// Google Sheets export
	GoogleSpreadsheetID string
	LedgerSheetName     string

	// Logging
	LogLevel  string
	LogFormat string
}

var validBackends = []string{"memory", "sqlite"}

func Load() *Config {
	defaults := core.DefaultFactors()

	cfg := &Config{
		Port:      getEnv("PORT", "8081"),
		RateLimit: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:   getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/diamonds.db"),
		MemorySeedDir: getEnv("MEMORY_SEED_DIR", ""),
		SettingsFile:  getEnv("SETTINGS_FILE", ""),

		Factors: core.Factors{
			ValuePerUnit:           getEnvDecimal("FACTOR_VALUE_PER_UNIT", defaults.ValuePerUnit),
			GrossCommissionPerUnit: getEnvDecimal("FACTOR_GROSS_COMMISSION_PER_UNIT", defaults.GrossCommissionPerUnit),
			DebtPerUnit:            getEnvDecimal("FACTOR_DEBT_PER_UNIT", defaults.DebtPerUnit),
		},

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "diamonds"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_export"),

		InsightAPIURL:  getEnv("INSIGHT_API_URL", "https://api.openai.com/v1/chat/completions"),
		InsightAPIKey:  getEnv("INSIGHT_API_KEY", ""),
		InsightModel:   getEnv("INSIGHT_MODEL", "gpt-4o-mini"),
		InsightTimeout: getEnvDuration("INSIGHT_TIMEOUT", 30*time.Second),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		LedgerSheetName:     getEnv("LEDGER_SHEET_NAME", "Reconciliation"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimit))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	factors := []struct {
		name  string
		value decimal.Decimal
	}{
		{"value per unit", c.Factors.ValuePerUnit},
		{"gross commission per unit", c.Factors.GrossCommissionPerUnit},
		{"debt per unit", c.Factors.DebtPerUnit},
	}
	for _, f := range factors {
		if f.value.IsNegative() {
			errors = append(errors, fmt.Sprintf("invalid factor %s %s: must not be negative", f.name, f.value))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if parsedURL, err := url.Parse(c.InsightAPIURL); err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid insight API URL '%s': must be an http or https URL", c.InsightAPIURL))
	}
	if c.InsightTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid insight timeout %v: must be at least 1 second", c.InsightTimeout))
	} else if c.InsightTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid insight timeout %v: must be at most 5 minutes", c.InsightTimeout))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SheetsExportEnabled reports whether a spreadsheet is configured.
func (c *Config) SheetsExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvDecimal accepts the same formats as user-entered amounts.
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := core.ParseAmount(value); err == nil {
			return d
		}
	}
	return defaultValue
}
