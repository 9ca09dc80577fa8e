// Package config provides configuration loading for the boardmates CLI
// and API server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	// Endpoint is the API server URL used by the CLI.
	Endpoint string `mapstructure:"endpoint"`

	// Auth configuration
	Auth AuthConfig `mapstructure:"auth"`

	// Database configuration (for the server)
	Database DatabaseConfig `mapstructure:"database"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Audit configuration
	Audit AuditConfig `mapstructure:"audit"`

	// Bootstrap configuration
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Token is the bearer token the CLI sends.
	Token string `mapstructure:"token"`

	// JWTSecret signs session tokens on the server.
	JWTSecret string `mapstructure:"jwtSecret"`

	// SessionTTL bounds session token lifetime, as a duration string.
	SessionTTL string `mapstructure:"sessionTTL"`

	// StaticTokens are long-lived service account tokens.
	StaticTokens []StaticTokenConfig `mapstructure:"staticTokens"`
}

// StaticTokenConfig maps one static token to an identity.
type StaticTokenConfig struct {
	Token string `mapstructure:"token"`
	Email string `mapstructure:"email"`
	Name  string `mapstructure:"name"`
	Role  string `mapstructure:"role"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  string `mapstructure:"readTimeout"`
	WriteTimeout string `mapstructure:"writeTimeout"`
}

// AuditConfig holds audit trail configuration.
type AuditConfig struct {
	// Persist writes audit events to PostgreSQL when true; otherwise
	// they go to stdout as JSON lines.
	Persist bool `mapstructure:"persist"`
}

// BootstrapConfig holds declarative seeding configuration for the server.
type BootstrapConfig struct {
	// Workspace is a YAML workspace file applied on startup. Empty
	// disables seeding.
	Workspace string `mapstructure:"workspace"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://localhost:8080",
		Auth: AuthConfig{
			Token:      "",
			JWTSecret:  "",
			SessionTTL: "24h",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "boardmates",
			Password: "boardmates_dev",
			Name:     "boardmates",
			SSLMode:  "disable",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  "30s",
			WriteTimeout: "30s",
		},
		Audit: AuditConfig{
			Persist: true,
		},
		Bootstrap: BootstrapConfig{
			Workspace: "",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".boardmates"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("BOARDMATES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "http://localhost:8080")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.sessionTTL", "24h")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "boardmates")
	v.SetDefault("database.password", "boardmates_dev")
	v.SetDefault("database.name", "boardmates")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("audit.persist", true)
	v.SetDefault("bootstrap.workspace", "")
}
