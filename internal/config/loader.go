// Package config loads service settings from ROOMBOOKING_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"

	"github.com/example/room-booking/internal/logging"
)

// Prefix is prepended to every variable name, e.g. ROOMBOOKING_HTTP_PORT.
const Prefix = "ROOMBOOKING"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort        int           `envconfig:"HTTP_PORT" default:"8080"`
	Driver          string        `envconfig:"DRIVER" default:"sqlite"`
	SQLiteDSN       string        `envconfig:"SQLITE_DSN" default:"roombooking.db"`
	PostgresDSN     string        `envconfig:"POSTGRES_DSN"`
	SweepSchedule   string        `envconfig:"SWEEP_SCHEDULE" default:"5 0 * * *"`
	AMQPURL         string        `envconfig:"AMQP_URL"`
	AMQPExchange    string        `envconfig:"AMQP_EXCHANGE" default:"room-booking.events"`
	RateLimit       float64       `envconfig:"RATE_LIMIT" default:"20"`
	RateBurst       int           `envconfig:"RATE_BURST" default:"40"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
}

// Load parses configuration values from the current process environment and
// validates them. Every invalid variable is reported in one error.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)
	name := func(key string) string { return Prefix + "_" + key }

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, name("HTTP_PORT"))
	}

	switch c.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			missing = append(missing, name("SQLITE_DSN"))
		}
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			missing = append(missing, name("POSTGRES_DSN"))
		}
	case DriverMemory:
	default:
		invalid = append(invalid, name("DRIVER"))
	}

	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		invalid = append(invalid, name("SWEEP_SCHEDULE"))
	}
	if c.AMQPURL != "" && strings.TrimSpace(c.AMQPExchange) == "" {
		missing = append(missing, name("AMQP_EXCHANGE"))
	}
	if c.RateLimit <= 0 {
		invalid = append(invalid, name("RATE_LIMIT"))
	}
	if c.RateBurst <= 0 {
		invalid = append(invalid, name("RATE_BURST"))
	}
	if c.ShutdownTimeout <= 0 {
		invalid = append(invalid, name("SHUTDOWN_TIMEOUT"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		invalid = append(invalid, name("LOG_LEVEL"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		invalid = append(invalid, name("LOG_FORMAT"))
	}

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "missing required environment variables: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// HTTPAddr is the listen address for the API server.
func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
