// Package daemon manages the Workstake daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/workstake-network/workstake/internal/app/params"
)

// Config holds all daemon configuration.
type Config struct {
	Node      NodeConfig      `toml:"node"`
	API       APIConfig       `toml:"api"`
	Market    params.Params   `toml:"market"`
	Storage   StorageConfig   `toml:"storage"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// NodeConfig identifies the operator of this node.
type NodeConfig struct {
	Owner      string   `toml:"owner"`      // Owner identity (params, fee sweep)
	Privileged []string `toml:"privileged"` // Operator identities barred from trading
	Treasury   string   `toml:"treasury"`   // Fee sweep destination
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig controls persistence.
type StorageConfig struct {
	Dir       string `toml:"dir"`       // Defaults to $WORKSTAKE_HOME
	Ephemeral bool   `toml:"ephemeral"` // Skip sqlite entirely (tests, dry runs)
}

// TelemetryConfig controls observability.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	home := workstakeHome()
	return Config{
		Node: NodeConfig{
			Owner:    "owner",
			Treasury: "treasury",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 9370,
		},
		Market: params.Default(),
		Storage: StorageConfig{
			Dir: home,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from $WORKSTAKE_HOME/config.toml, falling back
// to defaults when no file exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(workstakeHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Market.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid market params: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to $WORKSTAKE_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(workstakeHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// workstakeHome returns the Workstake data directory.
func workstakeHome() string {
	if env := os.Getenv("WORKSTAKE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".workstake")
}

// Home is exported for use by other packages.
func Home() string {
	return workstakeHome()
}
