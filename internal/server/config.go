package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameSettings contains gameplay tuning
type GameSettings struct {
	// Milliseconds between announcing a round result and asking to continue
	ResultDelayMs int `hcl:"result_delay_ms,optional"`
	// Card count below which the deck is rebuilt before the next round
	DeckRebuildThreshold int `hcl:"deck_rebuild_threshold,optional"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "0.0.0.0",
			Port:     8000,
			LogLevel: "info",
		},
		Game: GameSettings{
			ResultDelayMs:        2000,
			DeckRebuildThreshold: 15,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.ResultDelayMs == 0 {
		config.Game.ResultDelayMs = defaults.Game.ResultDelayMs
	}
	if config.Game.DeckRebuildThreshold == 0 {
		config.Game.DeckRebuildThreshold = defaults.Game.DeckRebuildThreshold
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.ResultDelayMs < 0 {
		return fmt.Errorf("result delay must not be negative: %d", c.Game.ResultDelayMs)
	}
	// A round deals four cards before anyone hits; rebuilding below five
	// remaining would let a round start that cannot finish.
	if c.Game.DeckRebuildThreshold < 5 || c.Game.DeckRebuildThreshold > 52 {
		return fmt.Errorf("deck rebuild threshold must be between 5 and 52: %d", c.Game.DeckRebuildThreshold)
	}
	return nil
}

// ListenAddress returns the full address the server binds to
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
