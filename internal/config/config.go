package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/placar/internal/ble"
)

// Config holds all application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	LogFile    string           `yaml:"log_file"` // used while the console owns the terminal
	BLE        BLEConfig        `yaml:"ble"`
	Backend    BackendConfig    `yaml:"backend"`
	Scoreboard ScoreboardConfig `yaml:"scoreboard"`
}

// BLEConfig holds scoreboard link settings.
type BLEConfig struct {
	ServiceUUID     string        `yaml:"service_uuid"`      // empty = scan without a service filter
	ControlCharUUID string        `yaml:"control_char_uuid"` // characteristic receiving command bytes
	ScanDuration    time.Duration `yaml:"scan_duration"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	WriteRate       float64       `yaml:"write_rate"` // command writes per second, 0 = unpaced
	WriteBurst      int           `yaml:"write_burst"`
	PowerOn         bool          `yaml:"power_on"` // power a switched-off adapter before scanning (Linux)
}

// BackendConfig holds REST API settings.
type BackendConfig struct {
	BaseURL            string        `yaml:"base_url"`
	Timeout            time.Duration `yaml:"timeout"`
	BreakerMaxFailures uint32        `yaml:"breaker_max_failures"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout"`
	KeyringService     string        `yaml:"keyring_service"`
}

// ScoreboardConfig holds session settings.
type ScoreboardConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "placar")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		LogFile:  filepath.Join(DefaultConfigDir(), "placar.log"),
		BLE: BLEConfig{
			ServiceUUID:     ble.DefaultServiceUUID,
			ControlCharUUID: ble.DefaultControlCharUUID,
			ScanDuration:    5 * time.Second,
			ConnectTimeout:  10 * time.Second,
			WriteBurst:      1,
		},
		Backend: BackendConfig{
			BaseURL:            "http://192.168.1.69:3000",
			Timeout:            15 * time.Second,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
			KeyringService:     "placar",
		},
		Scoreboard: ScoreboardConfig{
			TickInterval: time.Second,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in log_file is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.LogFile = expandTilde(cfg.LogFile)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	if c.BLE.ControlCharUUID == "" {
		return fmt.Errorf("ble.control_char_uuid must not be empty")
	}
	if c.BLE.ScanDuration <= 0 {
		return fmt.Errorf("ble.scan_duration must be > 0")
	}
	if c.BLE.ConnectTimeout <= 0 {
		return fmt.Errorf("ble.connect_timeout must be > 0")
	}
	if c.BLE.WriteRate < 0 {
		return fmt.Errorf("ble.write_rate must be >= 0")
	}
	if c.BLE.WriteRate > 0 && c.BLE.WriteBurst < 1 {
		return fmt.Errorf("ble.write_burst must be >= 1 when write_rate is set")
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be > 0")
	}
	if c.Backend.BreakerMaxFailures == 0 {
		return fmt.Errorf("backend.breaker_max_failures must be > 0")
	}
	if c.Backend.BreakerTimeout <= 0 {
		return fmt.Errorf("backend.breaker_timeout must be > 0")
	}
	if c.Backend.KeyringService == "" {
		return fmt.Errorf("backend.keyring_service must not be empty")
	}

	if c.Scoreboard.TickInterval <= 0 {
		return fmt.Errorf("scoreboard.tick_interval must be > 0")
	}

	return nil
}

// ParseLogLevel maps a log_level value to a slog level. Unknown values
// fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultConfigYAML = `# placar configuration
# Durations use Go syntax: 500ms, 5s, 1m.

log_level: info # debug, info, warn, error
# log_file: ~/.config/placar/placar.log

ble:
  # Scoreboard module UUIDs. Leave service_uuid empty to list every device.
  service_uuid: "0000ffe0-0000-1000-8000-00805f9b34fb"
  control_char_uuid: "0000ffe1-0000-1000-8000-00805f9b34fb"
  scan_duration: 5s
  connect_timeout: 10s
  # Max command writes per second. 0 sends every tap immediately.
  write_rate: 0
  write_burst: 1
  power_on: false

backend:
  base_url: "http://192.168.1.69:3000"
  timeout: 15s
  breaker_max_failures: 5
  breaker_timeout: 30s
  keyring_service: placar

scoreboard:
  tick_interval: 1s
`

// WriteDefault writes a commented default config to DefaultConfigPath if
// no file exists there. It returns the written path, or "" when a config
// was already present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
