// Package config loads and saves the TOML configuration overriding
// cmd/synasm's flag defaults, modeled directly on the teacher's
// config.Config: per-area sub-tables decoded with github.com/BurntSushi/toml,
// defaults filled in by DefaultConfig, and per-OS path resolution for the
// config file and log directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config is the synasm configuration.
type Config struct {
	// Execution settings
	Execution struct {
		MaxCycles   uint64 `toml:"max_cycles"`
		EnableTrace bool   `toml:"enable_trace"`
		EnableMem   bool   `toml:"enable_mem_trace"`
		EnableStats bool   `toml:"enable_stats"`
	} `toml:"execution"`

	// Debugger settings
	Debugger struct {
		HistorySize    int  `toml:"history_size"`
		AutoSaveBreaks bool `toml:"auto_save_breakpoints"`
		ShowSource     bool `toml:"show_source"`
		ShowRegisters  bool `toml:"show_registers"`
	} `toml:"debugger"`

	// Display settings
	Display struct {
		ColorOutput  bool   `toml:"color_output"`
		BytesPerLine int    `toml:"bytes_per_line"`
		NumberFormat string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	// Trace settings
	Trace struct {
		OutputFile    string `toml:"output_file"`
		IncludeFlags  bool   `toml:"include_flags"`
		IncludeTiming bool   `toml:"include_timing"`
		MaxEntries    int    `toml:"max_entries"`
	} `toml:"trace"`

	// Statistics settings
	Statistics struct {
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // text, json, csv
	} `toml:"statistics"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCycles = 1_000_000
	cfg.Execution.EnableTrace = false
	cfg.Execution.EnableMem = false
	cfg.Execution.EnableStats = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.AutoSaveBreaks = true
	cfg.Debugger.ShowSource = true
	cfg.Debugger.ShowRegisters = true

	cfg.Display.ColorOutput = true
	cfg.Display.BytesPerLine = 16
	cfg.Display.NumberFormat = "hex"

	cfg.Trace.OutputFile = "trace.log"
	cfg.Trace.IncludeFlags = true
	cfg.Trace.IncludeTiming = false
	cfg.Trace.MaxEntries = 100_000

	cfg.Statistics.OutputFile = "stats.json"
	cfg.Statistics.Format = "json"

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "synasm")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "synasm")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "synasm", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "synasm", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file is
// not an error: it yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
