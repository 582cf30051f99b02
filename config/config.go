// Package config loads recordsync settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reoring/recordsync"
)

// Config is the file layout. Keys absent from a loaded file keep their defaults.
type Config struct {
	Language      string                `yaml:"language"`
	JSONDriver    string                `yaml:"json_driver"`
	MaxBytes      int64                 `yaml:"max_bytes"`
	MaxDepth      int                   `yaml:"max_depth"`
	DuplicateKeys string                `yaml:"duplicate_keys"` // error | ignore
	Highlight     time.Duration         `yaml:"highlight"`
	Seed          recordsync.Collection `yaml:"seed"`
	Log           Log                   `yaml:"log"`
	Server        Server                `yaml:"server"`
	NATS          NATS                  `yaml:"nats"`
}

// Log configures the process logger.
type Log struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // text | json
	File       string `yaml:"file"`   // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Server configures the HTTP adapter.
type Server struct {
	Addr string `yaml:"addr"`
}

// NATS configures commit event publishing. An empty URL disables it.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// DefaultSubject is the NATS subject commit events are published on.
const DefaultSubject = "recordsync.collection.changed"

// DefaultSeed is the collection a fresh store starts with.
func DefaultSeed() recordsync.Collection {
	return recordsync.Collection{
		{ID: 0, Value: 75},
		{ID: 1, Value: 20},
		{ID: 2, Value: 80},
		{ID: 3, Value: 100},
		{ID: 4, Value: 70},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Language:      "en",
		JSONDriver:    "encoding/json",
		MaxBytes:      1 << 20,
		MaxDepth:      32,
		DuplicateKeys: "error",
		Highlight:     recordsync.DefaultHighlightDuration,
		Seed:          DefaultSeed(),
		Log:           Log{Level: "info", Format: "text", MaxSizeMB: 10, MaxBackups: 3},
		Server:        Server{Addr: ":8080"},
		NATS:          NATS{Subject: DefaultSubject},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected so typos surface early.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field; all problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if _, err := recordsync.DriverByName(c.JSONDriver); err != nil {
		errs = append(errs, err)
	}
	if _, err := severity(c.DuplicateKeys); err != nil {
		errs = append(errs, err)
	}
	if c.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("max_bytes must be >= 0, got %d", c.MaxBytes))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth))
	}
	if c.Highlight < 0 {
		errs = append(errs, fmt.Errorf("highlight must be >= 0, got %s", c.Highlight))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if err := recordsync.CheckCollection(c.Seed); err != nil {
		errs = append(errs, fmt.Errorf("seed: %w", err))
	}
	return errors.Join(errs...)
}

// EngineOptions projects the validation and highlight settings into engine
// options.
func (c *Config) EngineOptions() ([]recordsync.Option, error) {
	drv, err := recordsync.DriverByName(c.JSONDriver)
	if err != nil {
		return nil, err
	}
	sev, err := severity(c.DuplicateKeys)
	if err != nil {
		return nil, err
	}
	return []recordsync.Option{
		recordsync.WithDriver(drv),
		recordsync.WithStrictness(recordsync.Strictness{OnDuplicateKey: sev}),
		recordsync.WithMaxBytes(c.MaxBytes),
		recordsync.WithMaxDepth(c.MaxDepth),
		recordsync.WithLanguage(c.Language),
		recordsync.WithHighlightDuration(c.Highlight),
	}, nil
}

func severity(s string) (recordsync.Severity, error) {
	switch s {
	case "", "error":
		return recordsync.Error, nil
	case "ignore":
		return recordsync.Ignore, nil
	}
	return recordsync.Error, fmt.Errorf("duplicate_keys must be error or ignore, got %q", s)
}
