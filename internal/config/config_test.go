package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.BLE.ScanDuration != 5*time.Second {
		t.Errorf("BLE.ScanDuration = %v, want 5s", cfg.BLE.ScanDuration)
	}
	if cfg.BLE.WriteRate != 0 {
		t.Errorf("BLE.WriteRate = %v, want 0 (unpaced)", cfg.BLE.WriteRate)
	}
	if cfg.BLE.ControlCharUUID == "" {
		t.Error("BLE.ControlCharUUID should not be empty")
	}
	if cfg.Backend.BaseURL != "http://192.168.1.69:3000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.KeyringService != "placar" {
		t.Errorf("Backend.KeyringService = %q, want %q", cfg.Backend.KeyringService, "placar")
	}
	if cfg.Scoreboard.TickInterval != time.Second {
		t.Errorf("Scoreboard.TickInterval = %v, want 1s", cfg.Scoreboard.TickInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
log_level: debug
ble:
  service_uuid: ""
  scan_duration: 8s
  write_rate: 20
  write_burst: 4
  power_on: true
backend:
  base_url: https://placar.example.com/api
  breaker_timeout: 1m
scoreboard:
  tick_interval: 500ms
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.BLE.ServiceUUID != "" {
		t.Errorf("BLE.ServiceUUID = %q, want empty", cfg.BLE.ServiceUUID)
	}
	if cfg.BLE.ScanDuration != 8*time.Second {
		t.Errorf("BLE.ScanDuration = %v, want 8s", cfg.BLE.ScanDuration)
	}
	if cfg.BLE.WriteRate != 20 || cfg.BLE.WriteBurst != 4 {
		t.Errorf("BLE write pacing = %v/%d, want 20/4", cfg.BLE.WriteRate, cfg.BLE.WriteBurst)
	}
	if !cfg.BLE.PowerOn {
		t.Error("BLE.PowerOn = false, want true")
	}
	if cfg.Backend.BaseURL != "https://placar.example.com/api" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.BreakerTimeout != time.Minute {
		t.Errorf("Backend.BreakerTimeout = %v, want 1m", cfg.Backend.BreakerTimeout)
	}
	if cfg.Scoreboard.TickInterval != 500*time.Millisecond {
		t.Errorf("Scoreboard.TickInterval = %v, want 500ms", cfg.Scoreboard.TickInterval)
	}

	// Untouched fields keep their defaults.
	if cfg.BLE.ConnectTimeout != 10*time.Second {
		t.Errorf("BLE.ConnectTimeout = %v, want default 10s", cfg.BLE.ConnectTimeout)
	}
	if cfg.Backend.KeyringService != "placar" {
		t.Errorf("Backend.KeyringService = %q, want default", cfg.Backend.KeyringService)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
log_file: ~/logs/placar.log
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := filepath.Join(home, "logs/placar.log")
	if cfg.LogFile != expected {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, expected)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("ble:\n  scan_duration: soon\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should fail on an unparsable duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
		{
			name:    "empty service uuid disables filter",
			modify:  func(c *Config) { c.BLE.ServiceUUID = "" },
			wantErr: false,
		},
		{
			name:    "empty control characteristic",
			modify:  func(c *Config) { c.BLE.ControlCharUUID = "" },
			wantErr: true,
		},
		{
			name:    "zero scan duration",
			modify:  func(c *Config) { c.BLE.ScanDuration = 0 },
			wantErr: true,
		},
		{
			name:    "zero connect timeout",
			modify:  func(c *Config) { c.BLE.ConnectTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative write rate",
			modify:  func(c *Config) { c.BLE.WriteRate = -1 },
			wantErr: true,
		},
		{
			name:    "write rate without burst",
			modify:  func(c *Config) { c.BLE.WriteRate = 10; c.BLE.WriteBurst = 0 },
			wantErr: true,
		},
		{
			name:    "base url without scheme",
			modify:  func(c *Config) { c.Backend.BaseURL = "192.168.1.69:3000" },
			wantErr: true,
		},
		{
			name:    "zero breaker failures",
			modify:  func(c *Config) { c.Backend.BreakerMaxFailures = 0 },
			wantErr: true,
		},
		{
			name:    "empty keyring service",
			modify:  func(c *Config) { c.Backend.KeyringService = "" },
			wantErr: true,
		},
		{
			name:    "zero tick interval",
			modify:  func(c *Config) { c.Scoreboard.TickInterval = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	// Use a temp dir as fake home to avoid touching real config
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "placar", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# placar") {
		t.Error("written config should start with header comment")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	def := Default()
	if cfg.BLE != def.BLE {
		t.Errorf("written BLE section = %+v, want %+v", cfg.BLE, def.BLE)
	}
	if cfg.Backend != def.Backend {
		t.Errorf("written backend section = %+v, want %+v", cfg.Backend, def.Backend)
	}
	if cfg.Scoreboard != def.Scoreboard {
		t.Errorf("written scoreboard section = %+v, want %+v", cfg.Scoreboard, def.Scoreboard)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "placar")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	existingContent := []byte("log_level: debug\n")
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty string for existing file", path)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(existingContent) {
		t.Error("WriteDefault() should not overwrite existing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
