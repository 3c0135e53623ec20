/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides, e.g. SYSSY_SERVER_PORT.
const EnvPrefix = "SYSSY_"

// Config holds the configuration parameters for the agent.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Storage     StorageConfig     `koanf:"storage"`
	Site        SiteConfig        `koanf:"site"`
	Token       TokenConfig       `koanf:"token"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Admin       AdminConfig       `koanf:"admin"`
	Updates     UpdatesConfig     `koanf:"updates"`
	CORS        CORSConfig        `koanf:"cors"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// ServerConfig holds the REST listener configuration
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
}

// StorageConfig selects the options store backend
type StorageConfig struct {
	Type     string         `koanf:"type"` // "sqlite" or "postgres"
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`

	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// SiteConfig describes the site the agent reports on.
type SiteConfig struct {
	SiteURL        string `koanf:"site_url"`
	HomeURL        string `koanf:"home_url"`
	Title          string `koanf:"title"`
	CMSVersion     string `koanf:"cms_version"`
	RuntimeVersion string `koanf:"runtime_version"`
	ServerSoftware string `koanf:"server_software"`
	PluginsDir     string `koanf:"plugins_dir"`
}

// TokenConfig holds access token and signed payload settings
type TokenConfig struct {
	Header string `koanf:"header"`
	// PayloadEncoding is "string" (payload is a JSON string holding the snapshot JSON)
	// or "object" (payload is the snapshot object).
	PayloadEncoding string `koanf:"payload_encoding"`
}

// CredentialsConfig controls how the shared secret is kept at rest
type CredentialsConfig struct {
	// MasterKey enables sealing of the stored API key. Empty keeps it as plain text.
	MasterKey string `koanf:"master_key"`
}

// AdminConfig controls the settings page
type AdminConfig struct {
	Enabled bool        `koanf:"enabled"`
	Users   []AdminUser `koanf:"users"`
}

// AdminUser is a locally configured admin account
type AdminUser struct {
	Username       string `koanf:"username"`
	Password       string `koanf:"password"`        // plain or hashed value depending on PasswordHashed
	PasswordHashed bool   `koanf:"password_hashed"` // true when Password is a bcrypt or argon2id hash
}

// UpdatesConfig configures the plugin update feed
type UpdatesConfig struct {
	FeedURL string        `koanf:"feed_url"`
	Timeout time.Duration `koanf:"timeout"`
	TTL     time.Duration `koanf:"ttl"`
}

// CORSConfig configures CORS on the public API group
type CORSConfig struct {
	Enabled        bool     `koanf:"enabled"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"`
}

// LoadConfig loads configuration from an optional TOML file and SYSSY_ environment variables.
// An empty configPath skips the file and uses defaults plus the environment.
func LoadConfig(configPath string) (*Config, error) {
	cfg := defaultConfig()

	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		// "__" is a literal underscore, "_" is a section separator
		s = strings.ReplaceAll(s, "__", "%UNDERSCORE%")
		s = strings.ReplaceAll(s, "_", ".")
		s = strings.ReplaceAll(s, "%UNDERSCORE%", "_")
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           cfg,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config struct with default configuration values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "./data/syssy.db",
			},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Site: SiteConfig{
			SiteURL:        "http://localhost:8080",
			HomeURL:        "http://localhost:8080",
			RuntimeVersion: runtime.Version(),
			PluginsDir:     "./plugins",
		},
		Token: TokenConfig{
			Header:          "Syssy-Api-Token",
			PayloadEncoding: "string",
		},
		Admin: AdminConfig{
			Enabled: false,
		},
		Updates: UpdatesConfig{
			Timeout: 10 * time.Second,
			TTL:     12 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9091,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", c.Server.Port)
	}

	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required when storage.type is 'sqlite'")
		}
	case "postgres":
		if c.Storage.Postgres.Host == "" {
			return fmt.Errorf("storage.postgres.host is required when storage.type is 'postgres'")
		}
		if c.Storage.Postgres.Database == "" {
			return fmt.Errorf("storage.postgres.database is required when storage.type is 'postgres'")
		}
	default:
		return fmt.Errorf("storage.type must be one of: sqlite, postgres, got: %s", c.Storage.Type)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be either 'json' or 'console', got: %s", c.Logging.Format)
	}

	if c.Token.Header == "" {
		return fmt.Errorf("token.header is required")
	}
	if c.Token.PayloadEncoding != "string" && c.Token.PayloadEncoding != "object" {
		return fmt.Errorf("token.payload_encoding must be either 'string' or 'object', got: %s", c.Token.PayloadEncoding)
	}

	if c.Admin.Enabled {
		if len(c.Admin.Users) == 0 {
			return fmt.Errorf("admin.users must contain at least one user when admin is enabled")
		}
		for i, u := range c.Admin.Users {
			if u.Username == "" || u.Password == "" {
				return fmt.Errorf("admin.users[%d] requires both username and password", i)
			}
		}
	}

	if c.Updates.Timeout <= 0 {
		return fmt.Errorf("updates.timeout must be positive")
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got: %d", c.Metrics.Port)
	}
	if c.Metrics.Enabled && c.Metrics.Port == c.Server.Port {
		return fmt.Errorf("metrics.port must differ from server.port")
	}

	return nil
}
