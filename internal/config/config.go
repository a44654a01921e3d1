package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the escalation binaries.
type Config struct {
	// ListenAddress is the HTTP address the ingest API binds to.
	ListenAddress string `yaml:"listen_addr"`
	// PostgresDSN is the connection string for the record, directory and inbox stores.
	PostgresDSN string `yaml:"postgres_dsn"`
	// RedisAddress is the host:port of the Redis instance backing the dispatch log.
	RedisAddress string `yaml:"redis_addr"`
	// MQTTBroker is the broker URL for local countdown/commit broadcasts.
	// Empty disables the MQTT broadcaster.
	MQTTBroker string `yaml:"mqtt_broker"`
	// PushEndpoint is the base URL of the push provider HTTP API.
	PushEndpoint string `yaml:"push_endpoint"`
	// PushAPIKey authenticates requests to the push provider.
	PushAPIKey string `yaml:"push_api_key"`
	// Detector tunes the press-burst trigger detector.
	Detector DetectorConfig `yaml:"detector"`
	// Window tunes the confirmation countdown.
	Window WindowConfig `yaml:"window"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// DetectorConfig tunes the trigger detector state machine.
type DetectorConfig struct {
	// RequiredPresses is the number of presses that qualifies a burst.
	RequiredPresses int `yaml:"required_presses"`
	// PressThreshold is the maximum gap between consecutive presses.
	PressThreshold time.Duration `yaml:"press_threshold"`
	// Cooldown is how long the detector stays dormant after a commit.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WindowConfig tunes the confirmation window countdown.
type WindowConfig struct {
	// Duration is the total countdown before an uncancelled event commits.
	Duration time.Duration `yaml:"duration"`
	// Tick is the interval between remaining-time reports to the observer.
	Tick time.Duration `yaml:"tick"`
}

const (
	// DefaultConfigFilename is the default filename for escalation settings.
	DefaultConfigFilename = "escalation-settings.yaml"

	// DefaultListenAddress is the default HTTP listen address for the ingest API.
	DefaultListenAddress = ":8480"

	// DefaultRequiredPresses is the press count that qualifies a panic burst.
	DefaultRequiredPresses = 3

	// DefaultPressThreshold is the maximum gap between consecutive presses.
	DefaultPressThreshold = 5 * time.Second

	// DefaultCooldown keeps the detector dormant after a commit.
	DefaultCooldown = 15 * time.Second

	// DefaultWindowDuration is the confirmation countdown length.
	DefaultWindowDuration = 10 * time.Second

	// DefaultWindowTick is the rate of countdown reports to the observer.
	DefaultWindowTick = time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPostgresDSNRequired is returned when the store connection string is missing.
	errPostgresDSNRequired = errors.New("postgres DSN must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling defaults for any tunable that was left unset.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.PostgresDSN == "" {
		return errPostgresDSNRequired
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if cfg.RedisAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.RedisAddress); err != nil {
			return fmt.Errorf("invalid redis address: %w", err)
		}
	}

	if cfg.PushEndpoint != "" {
		if _, err := url.ParseRequestURI(cfg.PushEndpoint); err != nil {
			return fmt.Errorf("invalid push endpoint URI: %w", err)
		}
	}

	applyDetectorDefaults(&cfg.Detector)
	applyWindowDefaults(&cfg.Window)

	return nil
}

// applyDetectorDefaults fills unset detector tunables.
func applyDetectorDefaults(d *DetectorConfig) {
	if d.RequiredPresses <= 0 {
		d.RequiredPresses = DefaultRequiredPresses
	}

	if d.PressThreshold <= 0 {
		d.PressThreshold = DefaultPressThreshold
	}

	if d.Cooldown <= 0 {
		d.Cooldown = DefaultCooldown
	}
}

// applyWindowDefaults fills unset window tunables.
func applyWindowDefaults(w *WindowConfig) {
	if w.Duration <= 0 {
		w.Duration = DefaultWindowDuration
	}

	if w.Tick <= 0 {
		w.Tick = DefaultWindowTick
	}
}
