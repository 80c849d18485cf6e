package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests. Variables already present in the process
// environment are not overridden by the .env file.
var loadDotEnv = func() error {
	return godotenv.Load()
}

var envStrings = map[string]func(c *Config) *string{
	"CREDSTACK_GRPC_ADDR":        func(c *Config) *string { return &c.EndpointAddrGRPC },
	"CREDSTACK_HTTP_ADDR":        func(c *Config) *string { return &c.EndpointAddrHTTP },
	"CREDSTACK_DATABASE_DSN":     func(c *Config) *string { return &c.DatabaseDSN },
	"CREDSTACK_SECRET_KEY":       func(c *Config) *string { return &c.SecretKey },
	"CREDSTACK_AUTOMATION_FILE":  func(c *Config) *string { return &c.AutomationConfigFile },
	"CREDSTACK_NOTIFY_DRIVER":    func(c *Config) *string { return &c.NotifyDriver },
	"CREDSTACK_AMQP_URL":         func(c *Config) *string { return &c.AMQPURL },
	"CREDSTACK_AMQP_EXCHANGE":    func(c *Config) *string { return &c.AMQPExchange },
	"CREDSTACK_NATS_URL":         func(c *Config) *string { return &c.NATSURL },
	"CREDSTACK_NATS_SUBJECT":     func(c *Config) *string { return &c.NATSSubject },
	"CREDSTACK_REDIS_ADDR":       func(c *Config) *string { return &c.RedisAddr },
	"CREDSTACK_REDIS_CHANNEL":    func(c *Config) *string { return &c.RedisChannel },
	"CREDSTACK_S3_ROOT_USER":     func(c *Config) *string { return &c.S3RootUser },
	"CREDSTACK_S3_ROOT_PASSWORD": func(c *Config) *string { return &c.S3RootPassword },
	"CREDSTACK_S3_BUCKET":        func(c *Config) *string { return &c.S3Bucket },
	"CREDSTACK_S3_REGION":        func(c *Config) *string { return &c.S3Region },
	"CREDSTACK_S3_BASE_ENDPOINT": func(c *Config) *string { return &c.S3BaseEndpoint },
	"CREDSTACK_LOG_LEVEL":        func(c *Config) *string { return &c.LogLevel },
}

var envDurations = map[string]func(c *Config) *time.Duration{
	"CREDSTACK_TOKEN_TTL":              func(c *Config) *time.Duration { return &c.AccessTokenValidityDuration },
	"CREDSTACK_SCHEDULER_INTERVAL":     func(c *Config) *time.Duration { return &c.SchedulerInterval },
	"CREDSTACK_SCHEDULER_TICK_TIMEOUT": func(c *Config) *time.Duration { return &c.SchedulerTickTimeout },
}

var envInts = map[string]func(c *Config) *int{
	"CREDSTACK_BCRYPT_COST":       func(c *Config) *int { return &c.PasswordHashCost },
	"CREDSTACK_LOCKOUT_THRESHOLD": func(c *Config) *int { return &c.LockoutThreshold },
}

// parseEnv overlays CREDSTACK_* variables, after loading a .env file from the
// working directory when one exists.
func parseEnv(config *Config) error {
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	for name, field := range envStrings {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field(config) = v
		}
	}

	for name, field := range envDurations {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*field(config) = d
	}

	for name, field := range envInts {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*field(config) = n
	}

	if v, ok := os.LookupEnv("CREDSTACK_LOCKOUT_DURATIONS"); ok && v != "" {
		durations, err := parseDurationList(v)
		if err != nil {
			return fmt.Errorf("invalid CREDSTACK_LOCKOUT_DURATIONS: %w", err)
		}
		config.LockoutDurations = durations
	}

	if v, ok := os.LookupEnv("CREDSTACK_LOCKOUT_RESET_ON_EXPIRY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CREDSTACK_LOCKOUT_RESET_ON_EXPIRY: %w", err)
		}
		config.LockoutResetOnExpiry = b
	}

	return nil
}

// parseDurationList parses "5m,15m,30m".
func parseDurationList(v string) ([]time.Duration, error) {
	parts := strings.Split(v, ",")
	out := make([]time.Duration, 0, len(parts))
	for _, p := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
