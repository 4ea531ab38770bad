// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port          string
	AllowedOrigin string
	RateLimitRPM  int

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// Sessions
	SessionBackend string
	SessionDir     string
	SessionTTL     time.Duration

	// Identity
	GoogleClientID string
	InsecureAuth   bool

	// AMQP (optional; events are disabled when the URL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Variant behavior
	RoundWrites      bool
	ValidateOnRemove bool

	// Cookies
	SecureCookies bool
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8081"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		RateLimitRPM:  getEnvInt("RATE_LIMIT_RPM", 120),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/wisepenny.db"),

		SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		SessionDir:     getEnv("SESSION_DIR", "./data/sessions"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		InsecureAuth:   getEnvBool("INSECURE_AUTH", false),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "wisepenny"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		RoundWrites:      getEnvBool("ROUND_WRITES", true),
		ValidateOnRemove: getEnvBool("VALIDATE_ON_REMOVE", true),

		SecureCookies: getEnvBool("SECURE_COOKIES", true),
	}
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be 'memory' or 'sqlite'", c.DataBackend))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	switch c.SessionBackend {
	case "memory", "filesystem":
	default:
		errs = append(errs, fmt.Sprintf("invalid session backend '%s': must be 'memory' or 'filesystem'", c.SessionBackend))
	}
	if c.SessionBackend == "filesystem" && c.SessionDir == "" {
		errs = append(errs, "session directory cannot be empty when using filesystem sessions")
	}
	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.GoogleClientID == "" && !c.InsecureAuth {
		errs = append(errs, "GOOGLE_CLIENT_ID is required unless INSECURE_AUTH is enabled")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitRPM < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
