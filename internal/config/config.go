// Package config loads the persist command configuration from the
// environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	persist "github.com/goliatone/go-persist"
	"github.com/goliatone/go-persist/pkg/codec"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreYAML   = "yaml"
	StoreSQLite = "sqlite"
)

// Log formats.
const (
	LogFormatAuto    = "auto"
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// DefaultDir is the directory used when PERSIST_PATH is unset.
const DefaultDir = ".persist"

// Config is the resolved command configuration.
type Config struct {
	Store        string `env:"PERSIST_STORE" envDefault:"yaml"`
	Path         string `env:"PERSIST_PATH"`
	Key          string `env:"PERSIST_KEY" envDefault:"persisted_config"`
	Encoding     string `env:"PERSIST_ENCODING" envDefault:"none"`
	CompatDecode bool   `env:"PERSIST_COMPAT_DECODE" envDefault:"false"`
	PurgeCorrupt bool   `env:"PERSIST_PURGE_CORRUPT" envDefault:"true"`
	LogLevel     string `env:"PERSIST_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"PERSIST_LOG_FORMAT" envDefault:"auto"`
	LogFile      string `env:"PERSIST_LOG_FILE"`
	OTelEndpoint string `env:"PERSIST_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"PERSIST_OTEL_ENABLED" envDefault:"true"`
}

// Default returns the configuration used when the environment is empty.
func Default() Config {
	return Config{
		Store:        StoreYAML,
		Key:          persist.DefaultKey,
		Encoding:     codec.Identity.Name(),
		PurgeCorrupt: true,
		LogLevel:     "info",
		LogFormat:    LogFormatAuto,
		OTelEnabled:  true,
	}
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.Key = strings.TrimSpace(c.Key)
	c.Encoding = strings.ToLower(strings.TrimSpace(c.Encoding))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory, StoreYAML, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("config: unknown store %q (want memory, yaml or sqlite)", c.Store))
	}
	if c.Key == "" {
		errs = append(errs, errors.New("config: key must not be empty"))
	}
	if _, err := codec.ParseEncoding(c.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("config: %w (want %s)", err, strings.Join(codec.Encodings(), " or ")))
	}
	switch c.LogFormat {
	case LogFormatAuto, LogFormatConsole, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// TextEncoding resolves the configured encoding.
func (c Config) TextEncoding() (codec.TextEncoding, error) {
	return codec.ParseEncoding(c.Encoding)
}

// StorePath returns the file backing a yaml or sqlite store. An explicit
// PERSIST_PATH wins; otherwise a file under DefaultDir is used.
func (c Config) StorePath() string {
	if c.Path != "" {
		return c.Path
	}
	switch c.Store {
	case StoreSQLite:
		return filepath.Join(DefaultDir, "persist.db")
	default:
		return filepath.Join(DefaultDir, "storage.yaml")
	}
}

// BridgeOptions translates the configuration into bridge options.
func (c Config) BridgeOptions() ([]persist.Option, error) {
	encoding, err := c.TextEncoding()
	if err != nil {
		return nil, err
	}
	return []persist.Option{
		persist.WithKey(c.Key),
		persist.WithEncoding(encoding),
		persist.WithCompatibleDecoding(c.CompatDecode),
		persist.WithPurgeOnCorruption(c.PurgeCorrupt),
	}, nil
}
