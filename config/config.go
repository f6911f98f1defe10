// Package config loads and saves hasm16's TOML configuration file,
// following the reference emulator's layout: a typed struct with
// section tags, platform-specific default paths, and decode-into /
// encode-from helpers built on BurntSushi/toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds hasm16's persistent settings.
type Config struct {
	// Output controls which artifacts are written when none of
	// --hex/--lst/--map/--all is given explicitly. EmitControlWords is
	// not read by the CLI; the control-word dump runs only with
	// --control-words.
	Output struct {
		EmitHex          bool `toml:"emit_hex"`
		EmitListing      bool `toml:"emit_listing"`
		EmitMap          bool `toml:"emit_map"`
		EmitControlWords bool `toml:"emit_control_words"`
	} `toml:"output"`

	// Log holds logger settings. They are loaded and saved but not read
	// by the CLI, whose log level comes from --quiet/--verbose.
	Log struct {
		Level string `toml:"level"` // debug, info, warn, error
		Color bool   `toml:"color"`
	} `toml:"log"`

	// Assembler holds assembly-time limits and diagnostics settings. They
	// are loaded and saved but not read by the parser or linker; the
	// include depth limit is parser.MaxIncludeDepth.
	Assembler struct {
		MaxIncludeDepth      int  `toml:"max_include_depth"`
		UnresolvedShortIsErr bool `toml:"unresolved_short_is_error"`
	} `toml:"assembler"`
}

// DefaultConfig returns hasm16's default configuration.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Output.EmitHex = true
	cfg.Output.EmitListing = false
	cfg.Output.EmitMap = false
	cfg.Output.EmitControlWords = false

	cfg.Log.Level = "info"
	cfg.Log.Color = true

	cfg.Assembler.MaxIncludeDepth = 64
	cfg.Assembler.UnresolvedShortIsErr = false

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
		configDir = filepath.Join(configDir, "hasm16")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "hasm16")

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
		logDir = filepath.Join(logDir, "hasm16", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "hasm16", "logs")

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

// LoadFrom loads configuration from the specified file, returning
// defaults unchanged if the file does not exist.
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
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
