package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/l3aro/flowstruct/internal/log"
	"github.com/l3aro/flowstruct/pkg/render"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for flowstruct
type Config struct {
	// HTTP server
	ListenAddr        string `yaml:"listen_addr" env:"FLOWSTRUCT_LISTEN_ADDR"`
	CORSAllowedOrigin string `yaml:"cors_allowed_origin" env:"FLOWSTRUCT_CORS_ALLOWED_ORIGIN"`
	MaxInputBytes     int64  `yaml:"max_input_bytes" env:"FLOWSTRUCT_MAX_INPUT_BYTES"`

	// Result cache. An empty CachePath disables persistence.
	CacheSize int    `yaml:"cache_size" env:"FLOWSTRUCT_CACHE_SIZE"`
	CachePath string `yaml:"cache_path" env:"FLOWSTRUCT_CACHE_PATH"`

	// Rendering defaults for the CLI
	OutputFormat string  `yaml:"output_format" env:"FLOWSTRUCT_OUTPUT_FORMAT"`
	Zoom         float64 `yaml:"zoom" env:"FLOWSTRUCT_ZOOM"`

	// Logging
	LogLevel string `yaml:"log_level" env:"FLOWSTRUCT_LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"FLOWSTRUCT_LOG_JSON"`
	Verbose  bool   `yaml:"verbose" env:"FLOWSTRUCT_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:        ":8080",
		CORSAllowedOrigin: "*",
		MaxInputBytes:     1 << 20,
		CacheSize:         256,
		CachePath:         "",
		OutputFormat:      string(render.FormatText),
		Zoom:              render.DefaultZoom,
		LogLevel:          "info",
		LogJSON:           false,
		Verbose:           false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.flowstruct/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".flowstruct", "config.yaml")
	}
	return filepath.Join(home, ".flowstruct", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.flowstruct/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".flowstruct", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.flowstruct/config.yaml)
// 3. Global config (~/.flowstruct/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		if err := mergeFile(cfg, path, true); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := mergeFile(cfg, path, false); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile unmarshals the YAML file at path over cfg. A missing file is
// skipped when optional is set.
func mergeFile(cfg *Config, path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FLOWSTRUCT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("FLOWSTRUCT_CORS_ALLOWED_ORIGIN"); v != "" {
		cfg.CORSAllowedOrigin = v
	}
	if v := os.Getenv("FLOWSTRUCT_MAX_INPUT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxInputBytes = n
		}
	}
	if v := os.Getenv("FLOWSTRUCT_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheSize = n
		}
	}
	if v := os.Getenv("FLOWSTRUCT_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("FLOWSTRUCT_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = v
	}
	if v := os.Getenv("FLOWSTRUCT_ZOOM"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Zoom = f
		}
	}
	if v := os.Getenv("FLOWSTRUCT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FLOWSTRUCT_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
	if v := os.Getenv("FLOWSTRUCT_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
}

func parseBool(v string) bool {
	return v == "true" || v == "1" || v == "yes"
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.MaxInputBytes <= 0 {
		return fmt.Errorf("max_input_bytes must be positive")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	if _, err := render.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("invalid output_format: %s (must be one of text, json, mermaid, svg)", c.OutputFormat)
	}
	if c.Zoom < render.MinZoom || c.Zoom > render.MaxZoom {
		return fmt.Errorf("zoom must be between %.1f and %.1f", render.MinZoom, render.MaxZoom)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// Level returns the configured log level, with Verbose forcing debug.
func (c *Config) Level() log.Level {
	if c.Verbose {
		return log.DebugLevel
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
