package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" || cfg.API.Port != 9370 {
		t.Errorf("API defaults = %s:%d", cfg.API.Host, cfg.API.Port)
	}
	if cfg.Node.Owner == "" || cfg.Node.Treasury == "" {
		t.Error("owner and treasury must default non-empty")
	}
	if !cfg.Telemetry.Prometheus {
		t.Error("prometheus should default on")
	}
	if err := cfg.Market.Validate(); err != nil {
		t.Errorf("default market params invalid: %v", err)
	}
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("WORKSTAKE_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 9370 {
		t.Errorf("port = %d, want default 9370", cfg.API.Port)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	t.Setenv("WORKSTAKE_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Port = 9999
	cfg.Node.Owner = "operator-1"
	cfg.Node.Privileged = []string{"ops-a", "ops-b"}
	cfg.Market.FeePercent = 8
	cfg.Storage.Ephemeral = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got.API.Port != 9999 || got.Node.Owner != "operator-1" {
		t.Errorf("loaded = %+v", got)
	}
	if len(got.Node.Privileged) != 2 {
		t.Errorf("privileged = %v", got.Node.Privileged)
	}
	if got.Market.FeePercent != 8 {
		t.Errorf("fee = %d, want 8", got.Market.FeePercent)
	}
	if !got.Storage.Ephemeral {
		t.Error("ephemeral flag lost")
	}
}

func TestLoadConfigRejectsInvalidMarketParams(t *testing.T) {
	home := t.TempDir()
	t.Setenv("WORKSTAKE_HOME", home)

	raw := "[market]\nreward_weight = 99\nreputation_weight = 20\ndeadline_weight = 20\nrevision_weight = 20\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(raw), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Error("expected invalid market params to fail loading")
	}
}

func TestWorkstakeHomeEnvOverride(t *testing.T) {
	t.Setenv("WORKSTAKE_HOME", "/tmp/ws-test")
	if Home() != "/tmp/ws-test" {
		t.Errorf("Home() = %s", Home())
	}
}
