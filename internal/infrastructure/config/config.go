package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Exposure Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Database      DatabaseConfig      `yaml:"database"`
	Output        OutputConfig        `yaml:"output"`
	Sync          SyncConfig          `yaml:"sync"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	API           APIConfig           `yaml:"api"`
	InfluxDB      InfluxDBConfig      `yaml:"influxdb"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// HomeAssistantConfig contains the registry provider connection settings.
type HomeAssistantConfig struct {
	// URL is the base URL of the Home Assistant instance
	// (e.g., "http://homeassistant.local:8123").
	URL string `yaml:"url"`

	// Token is a long-lived access token for the WebSocket API.
	Token string `yaml:"token"`

	// TimeoutSeconds bounds each registry fetch request.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// OutputConfig contains managed YAML artifact settings.
type OutputConfig struct {
	// ConfigDir is the Home Assistant configuration directory the managed
	// file is written into.
	ConfigDir string `yaml:"config_dir"`

	// ManagedFile is the filename of the generated entities file.
	ManagedFile string `yaml:"managed_file"`

	// BackupDir is where timestamped backups are kept, relative to ConfigDir.
	BackupDir string `yaml:"backup_dir"`
}

// SyncConfig contains sync orchestration settings.
type SyncConfig struct {
	// DebounceSeconds is how long the manager waits after a registry change
	// event before recomputing, to coalesce bursts of changes.
	DebounceSeconds int `yaml:"debounce_seconds"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// AuthToken is the static bearer token required on protected routes.
	// Exposure Core is a single-admin tool; there are no user accounts.
	AuthToken string `yaml:"auth_token"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDBConfig contains InfluxDB connection settings for sync statistics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: EXPOSURE_SECTION_KEY
// For example: EXPOSURE_DATABASE_PATH, EXPOSURE_HASS_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		HomeAssistant: HomeAssistantConfig{
			URL:            "http://homeassistant.local:8123",
			TimeoutSeconds: 10,
		},
		Database: DatabaseConfig{
			Path:        "./data/exposure.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Output: OutputConfig{
			ConfigDir:   "/config",
			ManagedFile: "google_assistant_entities.yaml",
			BackupDir:   "backups/exposure-core",
		},
		Sync: SyncConfig{
			DebounceSeconds: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "exposure-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8099,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: EXPOSURE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Home Assistant
	if v := os.Getenv("EXPOSURE_HASS_URL"); v != "" {
		cfg.HomeAssistant.URL = v
	}
	if v := os.Getenv("EXPOSURE_HASS_TOKEN"); v != "" {
		cfg.HomeAssistant.Token = v
	}

	// Database
	if v := os.Getenv("EXPOSURE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Output
	if v := os.Getenv("EXPOSURE_OUTPUT_CONFIG_DIR"); v != "" {
		cfg.Output.ConfigDir = v
	}

	// MQTT
	if v := os.Getenv("EXPOSURE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("EXPOSURE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("EXPOSURE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("EXPOSURE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("EXPOSURE_API_TOKEN"); v != "" {
		cfg.API.AuthToken = v
	}

	// InfluxDB
	if v := os.Getenv("EXPOSURE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Home Assistant validation
	if c.HomeAssistant.URL == "" {
		errs = append(errs, "homeassistant.url is required")
	}
	if c.HomeAssistant.Token == "" {
		errs = append(errs, "homeassistant.token is required (set EXPOSURE_HASS_TOKEN environment variable)")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// Output validation
	if c.Output.ConfigDir == "" {
		errs = append(errs, "output.config_dir is required")
	}
	if c.Output.ManagedFile == "" {
		errs = append(errs, "output.managed_file is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// The API can rewrite the managed YAML file inside the Home Assistant
	// config directory, so an unauthenticated API is not acceptable.
	const minAuthTokenLength = 16
	if c.API.AuthToken == "" {
		errs = append(errs, "api.auth_token is required (set EXPOSURE_API_TOKEN environment variable)")
	} else if len(c.API.AuthToken) < minAuthTokenLength {
		errs = append(errs, "api.auth_token must be at least 16 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetHassTimeout returns the Home Assistant request timeout as a Duration.
func (c *Config) GetHassTimeout() time.Duration {
	return time.Duration(c.HomeAssistant.TimeoutSeconds) * time.Second
}

// GetSyncDebounce returns the auto-sync debounce window as a Duration.
func (c *Config) GetSyncDebounce() time.Duration {
	return time.Duration(c.Sync.DebounceSeconds) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
