package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingjon3377/ntLmsSpring-sub000/lending/memstore"
	"github.com/kingjon3377/ntLmsSpring-sub000/lending/postgresengine"
)

// EnvDSN is the environment variable that overrides the configured database DSN.
const EnvDSN = "LENDING_DSN"

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Database drivers.
const (
	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"
)

// Telemetry exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

var (
	// ErrLoadingConfigFailed is returned when the configuration file cannot be read or parsed.
	ErrLoadingConfigFailed = errors.New("loading config failed")

	// ErrInvalidConfig is returned when the configuration has an invalid value.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the complete lending configuration.
type Config struct {
	Store        string          `yaml:"store"`
	SnapshotFile string          `yaml:"snapshot_file"`
	LockTimeout  time.Duration   `yaml:"lock_timeout"`
	LogLevel     string          `yaml:"log_level"`
	Database     DatabaseConfig  `yaml:"database"`
	Telemetry    TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig selects the OpenTelemetry exporters for traces and metrics.
type TelemetryConfig struct {
	Traces  string `yaml:"traces"`
	Metrics string `yaml:"metrics"`
}

// DatabaseConfig configures the PostgreSQL connection pool.
type DatabaseConfig struct {
	DSN             string                    `yaml:"dsn"`
	Driver          string                    `yaml:"driver"`
	MaxConns        int32                     `yaml:"max_conns"`
	MinConns        int32                     `yaml:"min_conns"`
	MaxConnLifetime time.Duration             `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration             `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration             `yaml:"connect_timeout"`
	Tables          postgresengine.TableNames `yaml:"tables"`
}

// Default returns the configuration used for absent keys.
func Default() Config {
	return Config{
		Store:       StoreMemory,
		LockTimeout: memstore.DefaultLockTimeout,
		LogLevel:    "info",
		Database: DatabaseConfig{
			Driver:          DriverPGX,
			MaxConns:        20,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 5 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			Tables:          postgresengine.DefaultTableNames(),
		},
		Telemetry: TelemetryConfig{
			Traces:  ExporterNone,
			Metrics: ExporterNone,
		},
	}
}

// Load reads and parses the file at path. An empty path yields the defaults.
// LENDING_DSN is applied afterward in both cases.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		cfg.applyEnv()

		return cfg, cfg.Validate()
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Join(ErrLoadingConfigFailed, err)
	}

	return Parse(buf)
}

// Parse parses YAML on top of the defaults, applies LENDING_DSN and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Join(ErrLoadingConfigFailed, err)
	}

	cfg.fillTableDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every value that has a closed set of options or a sign constraint.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("store %q is not one of %s, %s", c.Store, StoreMemory, StorePostgres))
	}

	if c.LockTimeout <= 0 {
		return errors.Join(ErrInvalidConfig, fmt.Errorf("lock_timeout %s must be positive", c.LockTimeout))
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	for name, exporter := range map[string]string{"telemetry.traces": c.Telemetry.Traces, "telemetry.metrics": c.Telemetry.Metrics} {
		switch exporter {
		case ExporterNone, ExporterStdout:
		default:
			return errors.Join(ErrInvalidConfig, fmt.Errorf("%s %q is not one of %s, %s", name, exporter, ExporterNone, ExporterStdout))
		}
	}

	if c.Store != StorePostgres {
		return nil
	}

	db := c.Database

	switch db.Driver {
	case DriverPGX, DriverSQL, DriverSQLX:
	default:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("driver %q is not one of %s, %s, %s", db.Driver, DriverPGX, DriverSQL, DriverSQLX))
	}

	switch {
	case db.DSN == "":
		return errors.Join(ErrInvalidConfig, fmt.Errorf("database.dsn must be set for store %s (or %s)", StorePostgres, EnvDSN))
	case db.MaxConns <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("database.max_conns must be positive"))
	case db.MinConns < 0 || db.MinConns > db.MaxConns:
		return errors.Join(ErrInvalidConfig, errors.New("database.min_conns must be between 0 and max_conns"))
	}

	return nil
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return level, errors.Join(ErrInvalidConfig, fmt.Errorf("log_level %q", c.LogLevel))
	}

	return level, nil
}

func (c *Config) applyEnv() {
	if dsn := os.Getenv(EnvDSN); dsn != "" {
		c.Database.DSN = dsn
	}
}

// fillTableDefaults restores default names for tables a partial tables section left empty.
func (c *Config) fillTableDefaults() {
	defaults, tables := postgresengine.DefaultTableNames(), &c.Database.Tables

	for _, pair := range []struct {
		value    *string
		fallback string
	}{
		{&tables.Books, defaults.Books},
		{&tables.Branches, defaults.Branches},
		{&tables.Borrowers, defaults.Borrowers},
		{&tables.Copies, defaults.Copies},
		{&tables.Loans, defaults.Loans},
	} {
		if *pair.value == "" {
			*pair.value = pair.fallback
		}
	}
}
