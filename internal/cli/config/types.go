// Package config provides configuration management for the leapexpr CLI.
//
// Values come, lowest precedence first, from built-in defaults, a
// leapexpr.yaml file, LEAPEXPR_ environment variables and explicitly set
// command-line flags.
package config

import "time"

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:            DefaultAddr,
		ReadTimeout:     10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// GetServerConfig returns the server config with defaults applied for any unset values.
func (c *Config) GetServerConfig() *ServerConfig {
	if c.Server == nil {
		return DefaultServerConfig()
	}
	s := *c.Server
	def := DefaultServerConfig()
	if s.Addr == "" {
		s.Addr = def.Addr
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = def.ReadTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = def.ShutdownTimeout
	}
	return &s
}

// Config holds all CLI configuration options.
type Config struct {
	// Mode is the expression mode: expression, aggregation or boolean.
	Mode string `koanf:"mode"`
	// Engine names the database whose capabilities gate clauses.
	Engine string `koanf:"engine"`
	// Features are enabled in addition to the engine's own.
	Features []string `koanf:"features"`
	// MetadataFile is a YAML file describing tables and columns.
	MetadataFile string `koanf:"metadata_file"`
	// DSN connects to a live database for column introspection.
	DSN string `koanf:"dsn"`
	// Table is the table whose columns formulas may reference.
	Table        string        `koanf:"table"`
	Language     string        `koanf:"language"`
	LogLevel     string        `koanf:"log_level"`
	OutputFormat string        `koanf:"output"`
	Watch        bool          `koanf:"watch"`
	Server       *ServerConfig `koanf:"server"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultMode     = "expression"
	DefaultLanguage = "en"
	DefaultLogLevel = "warn"
	DefaultOutput   = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultAddr     = "127.0.0.1:8420"
)
