// Package config loads the template engine's runtime configuration
// from flags, environment variables, and an optional config file,
// layered through viper/pflag.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ModeBatch serves the MCP API over stdio.
	ModeBatch = "batch"
	// ModeServer runs the long-lived HTTP API.
	ModeServer = "server"

	DefaultPort             = 8080
	DefaultHost             = "127.0.0.1"
	DefaultLogLevel         = "info"
	DefaultMaxUploadSize    = 50 * 1024 * 1024 // 50MB
	DefaultRowTolerance     = 14.0
	DefaultGeometryTol      = 0.75
	maxUploadSizeCeiling    = 1024 * 1024 * 1024 // 1GB
	DefaultTemplatesSubPath = "templates.json"
)

// Config holds the template engine's runtime configuration.
type Config struct {
	Mode string
	Host string
	Port int

	TemplatesPath string

	LogLevel      string
	MaxUploadSize int64

	// RowTolerance, GeometryTol, AnchorTolerance and IncludeDebugInfo
	// are parsed and validated here, but no other package reads them:
	// the engine uses the geometry package's constants, and the HTTP
	// and MCP APIs take the debug switch per request.
	RowTolerance     float64
	GeometryTol      float64
	AnchorTolerance  float64
	IncludeDebugInfo bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		Mode:            ModeBatch,
		Host:            DefaultHost,
		Port:            DefaultPort,
		TemplatesPath:   homeDir + "/.templateengine/" + DefaultTemplatesSubPath,
		LogLevel:        DefaultLogLevel,
		MaxUploadSize:   DefaultMaxUploadSize,
		RowTolerance:    DefaultRowTolerance,
		GeometryTol:     DefaultGeometryTol,
		AnchorTolerance: 0.5,
	}
}

// Load builds a Config from (in increasing priority) defaults, an
// optional config file, environment variables prefixed TEMPLATEENGINE_,
// and command-line flags parsed from args (excluding the program name).
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	fs := pflag.NewFlagSet("templateengine", pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML/JSON/TOML config file overriding defaults")
	fs.String("mode", cfg.Mode, "Run mode: 'batch' for the MCP API over stdio, 'server' for the HTTP API")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("templates-path", cfg.TemplatesPath, "Path to the JSON template store")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("max-upload-size", cfg.MaxUploadSize, "Maximum accepted PDF upload size in bytes")
	fs.Float64("row-tolerance", cfg.RowTolerance, "Row-clustering tolerance in PDF points (validated and stored; not read by the engine)")
	fs.Float64("geometry-tolerance", cfg.GeometryTol, "Box/block intersection tolerance in PDF points (validated and stored; not read by the engine)")
	fs.Float64("anchor-tolerance", cfg.AnchorTolerance, "Anchor search-box tolerance in PDF points (validated and stored; not read by the engine)")
	fs.Bool("debug", false, "Diagnostics switch (stored in the config; apply requests choose debug output per call)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("templateengine")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.TemplatesPath = v.GetString("templates-path")
	cfg.LogLevel = v.GetString("log-level")
	cfg.MaxUploadSize = v.GetInt64("max-upload-size")
	cfg.RowTolerance = v.GetFloat64("row-tolerance")
	cfg.GeometryTol = v.GetFloat64("geometry-tolerance")
	cfg.AnchorTolerance = v.GetFloat64("anchor-tolerance")
	cfg.IncludeDebugInfo = v.GetBool("debug")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeServer {
		return fmt.Errorf("mode must be either %q or %q", ModeBatch, ModeServer)
	}
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.TemplatesPath == "" {
		return fmt.Errorf("templates path cannot be empty")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	if c.MaxUploadSize > maxUploadSizeCeiling {
		return fmt.Errorf("max upload size cannot exceed %d bytes", maxUploadSizeCeiling)
	}
	if c.RowTolerance <= 0 {
		return fmt.Errorf("row tolerance must be positive")
	}
	if c.GeometryTol < 0 {
		return fmt.Errorf("geometry tolerance cannot be negative")
	}
	if c.AnchorTolerance < 0 {
		return fmt.Errorf("anchor tolerance cannot be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// Address returns the server address as host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug reports whether debug-level logging is configured.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsServerMode reports whether the engine runs as a long-lived HTTP API.
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsBatchMode reports whether the engine serves the MCP API over stdio.
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// String renders the configuration for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Mode: %s, Host: %s, Port: %d, TemplatesPath: %s, LogLevel: %s, MaxUploadSize: %d, RowTolerance: %.2f, GeometryTol: %.2f}",
		c.Mode, c.Host, c.Port, c.TemplatesPath, c.LogLevel, c.MaxUploadSize, c.RowTolerance, c.GeometryTol,
	)
}
