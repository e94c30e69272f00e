// Package config holds runtime settings for scans, analysis and reporting.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/probe/internal/logging"
)

// DefaultConfigFile is looked up in the working directory when no --config
// flag is given.
const DefaultConfigFile = ".probe.yaml"

// Config holds settings shared by all commands.
type Config struct {
	// Workers bounds the number of probes running at once.
	// Default: 8, Range: 1-256
	Workers int `yaml:"workers"`

	// OutDir is where scan writes <env>_findings.json.
	// Default: "findings"
	OutDir string `yaml:"out_dir"`

	// MapFile is the default Product Map output path.
	// Default: "product-map.md"
	MapFile string `yaml:"map_file"`

	// Analyzers lists the analyzer ids run by "analyze" when none are given.
	// Default: entity-model, state-machine
	Analyzers []string `yaml:"analyzers"`

	// Probes narrows scan to the named probes. Empty runs every probe
	// registered for the environment.
	Probes []string `yaml:"probes"`

	// ProbeDir holds YAML probe definitions loaded by scan alongside the
	// built-in probes. A missing directory is ignored.
	// Default: ".probe/probes"
	ProbeDir string `yaml:"probe_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `yaml:"log_format"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Workers:   8,
		OutDir:    "findings",
		MapFile:   "product-map.md",
		Analyzers: []string{"entity-model", "state-machine"},
		ProbeDir:  ".probe/probes",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadFile reads a YAML config file on top of the defaults.
// A missing file is not an error: the defaults are returned.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config file and then applies environment overrides.
func Load(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
//
// Environment variables:
//   - PROBE_WORKERS: worker pool size (default: 8)
//   - PROBE_OUT_DIR: findings output directory (default: findings)
//   - PROBE_MAP_FILE: Product Map path (default: product-map.md)
//   - PROBE_ANALYZERS: comma-separated analyzer ids
//   - PROBE_PROBES: comma-separated probe names (default: all)
//   - PROBE_PROBE_DIR: YAML probe directory (default: .probe/probes)
//   - PROBE_LOG_LEVEL: debug, info, warn or error (default: info)
//   - PROBE_LOG_FORMAT: text or json (default: text)
func (c *Config) ApplyEnv() error {
	if err := parseEnvInt("PROBE_WORKERS", &c.Workers); err != nil {
		return err
	}
	parseEnvString("PROBE_OUT_DIR", &c.OutDir)
	parseEnvString("PROBE_MAP_FILE", &c.MapFile)
	parseEnvList("PROBE_ANALYZERS", &c.Analyzers)
	parseEnvList("PROBE_PROBES", &c.Probes)
	parseEnvString("PROBE_PROBE_DIR", &c.ProbeDir)
	parseEnvString("PROBE_LOG_LEVEL", &c.LogLevel)
	parseEnvString("PROBE_LOG_FORMAT", &c.LogFormat)

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return nil
}

// Validate checks if the configuration has valid values.
func (c Config) Validate() error {
	if c.Workers < 1 || c.Workers > 256 {
		return fmt.Errorf("workers must be between 1 and 256 (got %d)", c.Workers)
	}
	if strings.TrimSpace(c.OutDir) == "" {
		return fmt.Errorf("out_dir is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be 'text' or 'json' (got %q)", c.LogFormat)
	}
	return nil
}

// SlogLevel returns the parsed log level. Call Validate first.
func (c Config) SlogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

// String returns a human-readable representation of the config.
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Workers: %d, OutDir: %s, MapFile: %s, Analyzers: %v, Probes: %v, ProbeDir: %s, LogLevel: %s, LogFormat: %s}",
		c.Workers, c.OutDir, c.MapFile, c.Analyzers, c.Probes, c.ProbeDir, c.LogLevel, c.LogFormat,
	)
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}

func parseEnvList(key string, dest *[]string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dest = items
}
