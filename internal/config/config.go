package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Match    MatchConfig    `yaml:"match"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	HTTPPort   int    `yaml:"http_port"`
	StaticDir  string `yaml:"static_dir"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MatchConfig holds the scoreboard defaults applied when no stored match
// document exists, plus the persistence debounce window
type MatchConfig struct {
	RaceTo          int           `yaml:"race_to"`
	BestOf          int           `yaml:"best_of"`
	WinByTwo        bool          `yaml:"win_by_two"`
	DoublesMode     bool          `yaml:"doubles_mode"`
	PersistDebounce time.Duration `yaml:"persist_debounce"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Set defaults
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = "127.0.0.1"
	}
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "/var/lib/courtside/courtside.db"
	}
	// Note: StaticDir intentionally has no default - empty means don't serve static files

	// Match defaults
	if cfg.Match.RaceTo == 0 {
		cfg.Match.RaceTo = 21
	}
	if cfg.Match.BestOf == 0 {
		cfg.Match.BestOf = 3
	}
	if cfg.Match.PersistDebounce == 0 {
		cfg.Match.PersistDebounce = 150 * time.Millisecond
	}

	return &cfg, nil
}
