package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/louten/chiprank/internal/room"
)

// Config is the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  RoomSettings   `hcl:"rooms,block"`
}

// ServerSettings contains process-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RoomSettings tunes roster bounds and room eviction
type RoomSettings struct {
	MinPlayers      int  `hcl:"min_players,optional"`
	MaxPlayers      int  `hcl:"max_players,optional"`
	WaitingIdleSecs int  `hcl:"waiting_idle_seconds,optional"`
	StaleAfterSecs  int  `hcl:"stale_after_seconds,optional"`
	JanitorSecs     int  `hcl:"janitor_interval_seconds,optional"`
	DevCommands     bool `hcl:"dev_commands,optional"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8000,
			LogLevel: "info",
		},
		Rooms: RoomSettings{
			MinPlayers:      3,
			MaxPlayers:      6,
			WaitingIdleSecs: 60,
			StaleAfterSecs:  600,
			JanitorSecs:     60,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaults.Server.Address
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = defaults.Server.LogLevel
	}
	if cfg.Rooms.MinPlayers == 0 {
		cfg.Rooms.MinPlayers = defaults.Rooms.MinPlayers
	}
	if cfg.Rooms.MaxPlayers == 0 {
		cfg.Rooms.MaxPlayers = defaults.Rooms.MaxPlayers
	}
	if cfg.Rooms.WaitingIdleSecs == 0 {
		cfg.Rooms.WaitingIdleSecs = defaults.Rooms.WaitingIdleSecs
	}
	if cfg.Rooms.StaleAfterSecs == 0 {
		cfg.Rooms.StaleAfterSecs = defaults.Rooms.StaleAfterSecs
	}
	if cfg.Rooms.JanitorSecs == 0 {
		cfg.Rooms.JanitorSecs = defaults.Rooms.JanitorSecs
	}

	return &cfg, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Rooms.MinPlayers < 2 {
		return fmt.Errorf("min_players must be at least 2, got %d", c.Rooms.MinPlayers)
	}
	if c.Rooms.MaxPlayers < c.Rooms.MinPlayers {
		return fmt.Errorf("max_players (%d) must be at least min_players (%d)",
			c.Rooms.MaxPlayers, c.Rooms.MinPlayers)
	}
	if c.Rooms.WaitingIdleSecs <= 0 || c.Rooms.StaleAfterSecs <= 0 || c.Rooms.JanitorSecs <= 0 {
		return fmt.Errorf("idle thresholds and janitor interval must be positive")
	}
	if c.Rooms.StaleAfterSecs < c.Rooms.WaitingIdleSecs {
		return fmt.Errorf("stale_after_seconds must not be shorter than waiting_idle_seconds")
	}
	return nil
}

// ListenAddress returns the host:port to bind
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// RoomConfig converts the room settings into the registry's config
func (c *Config) RoomConfig() room.Config {
	return room.Config{
		MinPlayers:  c.Rooms.MinPlayers,
		MaxPlayers:  c.Rooms.MaxPlayers,
		WaitingIdle: time.Duration(c.Rooms.WaitingIdleSecs) * time.Second,
		StaleAfter:  time.Duration(c.Rooms.StaleAfterSecs) * time.Second,
	}
}

// JanitorInterval returns how often stale rooms are swept
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.Rooms.JanitorSecs) * time.Second
}
