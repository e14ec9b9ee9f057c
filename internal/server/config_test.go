package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Game.ResultDelayMs != 2000 {
		t.Errorf("result delay = %d, want 2000", cfg.Game.ResultDelayMs)
	}
	if cfg.Game.DeckRebuildThreshold != 15 {
		t.Errorf("rebuild threshold = %d, want 15", cfg.Game.DeckRebuildThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.hcl")
	content := `
server {
  address   = "127.0.0.1"
  port      = 9000
  log_level = "debug"
}

game {
  result_delay_ms        = 500
  deck_rebuild_threshold = 20
}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Address != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("server settings = %+v", cfg.Server)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Game.ResultDelayMs != 500 || cfg.Game.DeckRebuildThreshold != 20 {
		t.Errorf("game settings = %+v", cfg.Game)
	}
	if cfg.ListenAddress() != "127.0.0.1:9000" {
		t.Errorf("listen address = %q", cfg.ListenAddress())
	}
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.hcl")
	content := `
server {
  port = 9001
}

game {}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Server.Address != "0.0.0.0" {
		t.Errorf("address = %q, want default", cfg.Server.Address)
	}
	if cfg.Game.DeckRebuildThreshold != 15 {
		t.Errorf("threshold = %d, want default 15", cfg.Game.DeckRebuildThreshold)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, wantErr: false},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.Game.ResultDelayMs = -1 }, wantErr: true},
		{name: "threshold too low", mutate: func(c *Config) { c.Game.DeckRebuildThreshold = 4 }, wantErr: true},
		{name: "threshold too high", mutate: func(c *Config) { c.Game.DeckRebuildThreshold = 53 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
