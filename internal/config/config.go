// Package config loads analystdb settings from defaults, a YAML file,
// ANALYSTDB_ environment variables and command line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/nao1215/analystdb/domain/model"
	"github.com/nao1215/analystdb/driver"
	"github.com/spf13/pflag"
)

const (
	// DefaultConfigFile is looked up in the working directory when no --config is given.
	DefaultConfigFile = "analystdb.yaml"
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "ANALYSTDB_"
	// envLevelSeparator separates nesting levels in environment variable names.
	envLevelSeparator = "__"
)

// Config is the resolved configuration.
type Config struct {
	Database string        `koanf:"database"`
	Log      LogConfig     `koanf:"log"`
	SQLite   SQLiteConfig  `koanf:"sqlite"`
	Scripts  ScriptsConfig `koanf:"scripts"`
	Server   ServerConfig  `koanf:"server"`
	Bridge   BridgeConfig  `koanf:"bridge"`
	Export   ExportConfig  `koanf:"export"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SQLiteConfig holds the pragmas applied to every connection.
type SQLiteConfig struct {
	BusyTimeoutMS int  `koanf:"busy_timeout_ms"`
	ForeignKeys   bool `koanf:"foreign_keys"`
}

// ScriptsConfig locates the external capability scripts.
type ScriptsConfig struct {
	Interpreter  string            `koanf:"interpreter"`
	Dir          string            `koanf:"dir"`
	Capabilities map[string]string `koanf:"capabilities"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// BridgeConfig configures the async bridge.
type BridgeConfig struct {
	Workers int `koanf:"workers"`
}

// ExportConfig holds the default dump options.
type ExportConfig struct {
	Format      string `koanf:"format"`
	Compression string `koanf:"compression"`
}

// defaults returns the built-in values, flattened to koanf keys.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"database":                                driver.MemoryPath,
		"log.level":                               "info",
		"log.format":                              "console",
		"sqlite.busy_timeout_ms":                  5000,
		"sqlite.foreign_keys":                     true,
		"scripts.interpreter":                     "python3",
		"scripts.dir":                             "scripts",
		"scripts.capabilities.generate_sql":       "bridge_generate_sql.py",
		"scripts.capabilities.analyze_data":       "bridge_analyze_data.py",
		"scripts.capabilities.dashboard_insights": "bridge_dashboard_insights.py",
		"scripts.capabilities.plan_hypothesis":    "bridge_plan_hypothesis.py",
		"server.addr":                             "127.0.0.1:8765",
		"bridge.workers":                          4,
		"export.format":                           "csv",
		"export.compression":                      "none",
	}
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"database":    "database",
	"db":          "database",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"interpreter": "scripts.interpreter",
	"scripts-dir": "scripts.dir",
	"addr":        "server.addr",
	"workers":     "bridge.workers",
	"format":      "export.format",
	"compression": "export.compression",
}

// Load resolves the configuration. cfgFile may be empty, in which case
// DefaultConfigFile is used when it exists. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path, err := resolveConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns ANALYSTDB_LOG__LEVEL into log.level.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, envLevelSeparator, ".")
}

func resolveConfigFile(cfgFile string) (string, error) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return "", fmt.Errorf("config file %s: %w", cfgFile, err)
		}
		return cfgFile, nil
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("config file %s: %w", DefaultConfigFile, err)
	}
	return "", nil
}

// Validate checks values that cannot be expressed by the types alone.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("config: database must not be empty")
	}
	if c.SQLite.BusyTimeoutMS < 0 {
		return fmt.Errorf("config: sqlite.busy_timeout_ms must not be negative, got %d", c.SQLite.BusyTimeoutMS)
	}
	if c.Bridge.Workers < 1 {
		return fmt.Errorf("config: bridge.workers must be at least 1, got %d", c.Bridge.Workers)
	}
	if _, err := c.DumpOptions(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Pragmas converts the sqlite section into driver pragmas.
func (c *Config) Pragmas() driver.Pragmas {
	return driver.Pragmas{
		BusyTimeout: time.Duration(c.SQLite.BusyTimeoutMS) * time.Millisecond,
		ForeignKeys: c.SQLite.ForeignKeys,
	}
}

// DumpOptions converts the export section into dump options.
func (c *Config) DumpOptions() (model.DumpOptions, error) {
	format, err := model.ParseOutputFormat(c.Export.Format)
	if err != nil {
		return model.DumpOptions{}, err
	}
	compression, err := model.ParseCompressionType(c.Export.Compression)
	if err != nil {
		return model.DumpOptions{}, err
	}
	options := model.NewDumpOptions().WithFormat(format).WithCompression(compression)
	if err := options.Validate(); err != nil {
		return model.DumpOptions{}, err
	}
	return options, nil
}
