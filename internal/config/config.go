package config

import (
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/waterwatch/internal/logging"
	"github.com/dmitrijs2005/waterwatch/internal/securestore"
)

const (
	databaseFile = "waterwatch.db"
	keyFile      = "master.key"
)

// Config holds runtime settings for the waterwatch client.
type Config struct {
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	Namespace string `json:"namespace" yaml:"namespace"`
	KeyFile   string `json:"key_file" yaml:"key_file"`
	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.Namespace = securestore.DefaultNamespace
	c.KeyFile = ""
	c.LogLevel = "info"
	c.LogFormat = logging.FormatConsole
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "waterwatch")
	}
	return ".waterwatch"
}

// DatabasePath returns the SQLite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, databaseFile)
}

// KeyPath returns KeyFile, or master.key inside DataDir when KeyFile is empty.
func (c *Config) KeyPath() string {
	if c.KeyFile != "" {
		return c.KeyFile
	}
	return filepath.Join(c.DataDir, keyFile)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
//
// It panics when the config file cannot be read or parsed, or when a flag
// value is malformed.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
