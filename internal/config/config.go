// Package config loads and validates Grafema's project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"grafema/internal/glog"
)

// Config holds all Grafema project configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Graph      GraphConfig      `yaml:"graph"`
	Plugins    PluginConfig     `yaml:"plugins"`
	Datalog    DatalogConfig    `yaml:"datalog"`
	Guarantees GuaranteeConfig  `yaml:"guarantees"`
	Logging    LoggingConfig    `yaml:"logging"`
	Backend    BackendConfig    `yaml:"backend"`
}

// GraphConfig controls extraction scope and identifier behavior.
type GraphConfig struct {
	Include        []string `yaml:"include"`
	Exclude        []string `yaml:"exclude"`
	LegacyIDs      bool     `yaml:"legacy_ids"`
	MaxFileSizeKB  int      `yaml:"max_file_size_kb"`
}

// PluginConfig controls the orchestrator's scheduling behavior.
type PluginConfig struct {
	Disabled        []string `yaml:"disabled"`
	ManifestDir     string   `yaml:"manifest_dir"`
	PerFileParallel int      `yaml:"per_file_parallel"`
}

// DatalogConfig mirrors the bindings cap and per-query timeout in spec.md §5.
type DatalogConfig struct {
	SchemaPath   string `yaml:"schema_path"`
	PolicyPath   string `yaml:"policy_path"`
	BindingsCap  int    `yaml:"bindings_cap"`
	QueryTimeout string `yaml:"query_timeout"`
}

// GuaranteeConfig controls where guarantee definitions live on disk.
type GuaranteeConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig configures the category logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Dir       string `yaml:"dir"`
	DebugMode bool   `yaml:"debug_mode"`
	Format    string `yaml:"format"`
}

// BackendConfig selects and configures the GraphBackend.
type BackendConfig struct {
	Kind string `yaml:"kind"` // "local" or "rfdb"
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "grafema",
		Version: "0.1.0",

		Graph: GraphConfig{
			Include:       []string{"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx"},
			Exclude:       []string{"**/node_modules/**", "**/dist/**", "**/*.d.ts"},
			LegacyIDs:     false,
			MaxFileSizeKB: 2048,
		},

		Plugins: PluginConfig{
			ManifestDir:     ".grafema/plugins",
			PerFileParallel: 4,
		},

		Datalog: DatalogConfig{
			SchemaPath:   "",
			PolicyPath:   "",
			BindingsCap:  1_000_000,
			QueryTimeout: "30s",
		},

		Guarantees: GuaranteeConfig{
			Dir: ".grafema/guarantees",
		},

		Logging: LoggingConfig{
			Level:     "info",
			Dir:       ".grafema/logs",
			DebugMode: false,
			Format:    "text",
		},

		Backend: BackendConfig{
			Kind: "local",
			Path: ".grafema/graph.db",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// (with environment overrides applied) when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	glog.BootDebug("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			glog.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		glog.BootError("failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		glog.BootError("failed to parse config file %s: %v", path, err)
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	glog.Boot("config loaded: backend=%s bindings_cap=%d", cfg.Backend.Kind, cfg.Datalog.BindingsCap)
	return cfg, nil
}

// Save writes configuration to a YAML file, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("GRAFEMA_DB"); path != "" {
		c.Backend.Path = path
	}
	if kind := os.Getenv("GRAFEMA_BACKEND"); kind != "" {
		c.Backend.Kind = kind
	}
	if v := os.Getenv("GRAFEMA_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
	if schema := os.Getenv("GRAFEMA_SCHEMA_PATH"); schema != "" {
		c.Datalog.SchemaPath = schema
	}
}

// GetQueryTimeout returns the Datalog query timeout as a duration.
func (c *Config) GetQueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Datalog.QueryTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Backend.Kind != "local" && c.Backend.Kind != "rfdb" {
		return fmt.Errorf("invalid backend kind: %s (valid: local, rfdb)", c.Backend.Kind)
	}
	if c.Datalog.BindingsCap <= 0 {
		return fmt.Errorf("datalog bindings_cap must be positive")
	}
	return nil
}
