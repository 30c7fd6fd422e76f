package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chaz8081/placar/internal/backend"
	"github.com/chaz8081/placar/internal/ble"
	"github.com/chaz8081/placar/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

var configPath string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "placar",
		Short:         "Drive an electronic scoreboard over Bluetooth LE",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ~/.config/placar/config.yaml)")

	cmd.AddCommand(scanCmd())
	cmd.AddCommand(controlCmd())
	cmd.AddCommand(sendCmd())
	cmd.AddCommand(loginCmd())
	cmd.AddCommand(logoutCmd())
	cmd.AddCommand(gamesCmd())
	cmd.AddCommand(initCmd())
	return cmd
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		slog.Debug("Config loaded", "path", defaultPath)
		return cfg, nil
	}

	slog.Debug("No config file found, using defaults")
	return config.Default(), nil
}

// setup loads and validates the config and installs the logger. With
// toFile set, logs go to log_file so they do not tear the full-screen
// console; the returned closer releases the file.
func setup(toFile bool) (*config.Config, io.Closer, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if toFile && cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		out, closer = f, f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))
	return cfg, closer, nil
}

// newLink builds the Bluetooth service on the system adapter.
func newLink(cfg *config.Config) *ble.Service {
	adapter := ble.NewTinyGoAdapter()
	gate := ble.DefaultPermissionGate(adapter, cfg.BLE.PowerOn)
	return ble.NewService(adapter, gate, ble.Options{
		ServiceUUID:     cfg.BLE.ServiceUUID,
		ControlCharUUID: cfg.BLE.ControlCharUUID,
		ScanDuration:    cfg.BLE.ScanDuration,
		WriteRate:       cfg.BLE.WriteRate,
		WriteBurst:      cfg.BLE.WriteBurst,
	})
}

// newAPI builds the backend client with the keyring token store.
func newAPI(cfg *config.Config) *backend.Client {
	return backend.NewClient(backend.Options{
		BaseURL:            cfg.Backend.BaseURL,
		Timeout:            cfg.Backend.Timeout,
		BreakerMaxFailures: cfg.Backend.BreakerMaxFailures,
		BreakerTimeout:     cfg.Backend.BreakerTimeout,
	}, backend.KeyringStore{Service: cfg.Backend.KeyringService})
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	service := cfg.BLE.ServiceUUID
	if service == "" {
		service = "(any)"
	}
	fmt.Println("=== placar ===")
	fmt.Printf("  Service:  %s\n", service)
	fmt.Printf("  Control:  %s\n", cfg.BLE.ControlCharUUID)
	fmt.Printf("  Backend:  %s\n", cfg.Backend.BaseURL)
	fmt.Printf("  Log:      %s\n", cfg.LogLevel)
	fmt.Println("==============")
}
