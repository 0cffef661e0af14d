// Package config provides centralized configuration management for the importer.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all importer configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Import   ImportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is a full PostgreSQL connection string. When set it wins over the
	// discrete Host/Port/Name/User/Password fields.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Host is the database server host (default: localhost)
	Host string `env:"DB_HOST" default:"localhost"`

	// Port is the database server port (default: 5432)
	Port int `env:"DB_PORT" default:"5432"`

	// Name is the target database (default: cs209a_stackoverflow)
	Name string `env:"DB_NAME" default:"cs209a_stackoverflow"`

	// User is the login role (default: postgres)
	User string `env:"DB_USER" default:"postgres"`

	// Password is the login password
	Password string `env:"DB_PASSWORD"`

	// SSLMode is passed through to libpq-style DSNs (default: disable)
	SSLMode string `env:"DB_SSLMODE" default:"disable"`

	// ConnectTimeout bounds the initial connection attempt (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// ImportConfig holds settings for the directory import.
type ImportConfig struct {
	// Dir is the directory holding the JSON documents
	Dir string `env:"IMPORT_DIR"`

	// Extension is the file extension of input documents (default: .json)
	Extension string `env:"IMPORT_EXTENSION" default:".json"`

	// BatchSize is the number of rows queued per batched statement (default: 100)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"100"`

	// MaxFileSize is the maximum allowed document size in bytes (default: 64MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"67108864"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ConnString returns the connection string for the configured database.
// DATABASE_URL is returned verbatim when present.
func (d *DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// DatabaseName returns the name of the target database, parsing it out of
// URL when one is configured.
func (d *DatabaseConfig) DatabaseName() string {
	if d.URL == "" {
		return d.Name
	}
	u, err := url.Parse(d.URL)
	if err != nil || len(u.Path) < 2 {
		return ""
	}
	return u.Path[1:]
}
