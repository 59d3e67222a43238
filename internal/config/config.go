// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultTrackerCmd is the default command template used to fetch a
// ticket's text. {{key}} is replaced with the ticket key before execution.
const DefaultTrackerCmd = "jira issue view {{key}} --comments 100 --plain"

// Config holds all configuration values for ticketscout.
type Config struct {
	TrackerCmd   string `mapstructure:"tracker_cmd" yaml:"tracker_cmd"`
	MaxDepth     int    `mapstructure:"max_depth" yaml:"max_depth"`
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir"`
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`
	InsightLimit int    `mapstructure:"insight_limit" yaml:"insight_limit"`
	Render       bool   `mapstructure:"render" yaml:"render"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
}

// Default returns a Config populated with defaults, used by setup to
// write a starter config file.
func Default() *Config {
	return &Config{
		TrackerCmd:   DefaultTrackerCmd,
		MaxDepth:     3,
		DataDir:      ".ticketscout",
		OutputDir:    filepath.Join(".ticketscout", "artifacts"),
		InsightLimit: 10,
		Render:       true,
		LogLevel:     "info",
	}
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("ticketscout")

	v.SetDefault("tracker_cmd", DefaultTrackerCmd)
	v.SetDefault("max_depth", 3)
	v.SetDefault("data_dir", ".ticketscout")
	v.SetDefault("output_dir", filepath.Join(".ticketscout", "artifacts"))
	v.SetDefault("insight_limit", 10)
	v.SetDefault("render", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	// Setup ENV binding with TICKETSCOUT_ prefix
	v.SetEnvPrefix("TICKETSCOUT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better bool/int parsing
	bindings := map[string]string{
		"tracker_cmd":   "TICKETSCOUT_TRACKER_CMD",
		"max_depth":     "TICKETSCOUT_MAX_DEPTH",
		"data_dir":      "TICKETSCOUT_DATA_DIR",
		"output_dir":    "TICKETSCOUT_OUTPUT_DIR",
		"insight_limit": "TICKETSCOUT_INSIGHT_LIMIT",
		"render":        "TICKETSCOUT_RENDER",
		"log_level":     "TICKETSCOUT_LOG_LEVEL",
		"log_file":      "TICKETSCOUT_LOG_FILE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists)
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists)
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns ~/.config/ticketscout/ticketscout.yml or the equivalent under
// $XDG_CONFIG_HOME.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ticketscout", "ticketscout.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ticketscout", "ticketscout.yml")
}

// ProjectPath returns the project-local config path.
// Returns ./ticketscout.yml in the current working directory.
func ProjectPath() string {
	return "ticketscout.yml"
}

// WriteGlobal writes the config to the XDG global location.
func WriteGlobal(cfg *Config) error {
	path := GlobalPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return writeFile(path, cfg)
}

// WriteProject writes the config to the project-local location.
func WriteProject(cfg *Config) error {
	return writeFile(ProjectPath(), cfg)
}

func writeFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
