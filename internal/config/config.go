package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dfarias/examload/internal/model"
)

const (
	// DefaultChunkSize keeps per-call memory and latency bounded; chunks
	// are deliberately small so a failed call loses little work.
	DefaultChunkSize = 200
	// DefaultValidationThreshold of 100 means any failed integrity check
	// rolls the batch back.
	DefaultValidationThreshold = 100
)

// Config holds all runtime configuration for an examload run.
type Config struct {
	DSN         string
	FilePath    string
	SourceKind  string
	Period      string
	LogFormat   string // "text" or "json"
	Force       bool
	KeepStaging bool

	ChunkSize           int `yaml:"chunk_size"`
	ValidationThreshold int `yaml:"validation_threshold"`

	// Parsed by Validate.
	Kind          model.SourceKind
	BillingPeriod model.Period
}

// yamlConfig is the on-disk YAML structure.
type yamlConfig struct {
	ChunkSize           int `yaml:"chunk_size"`
	ValidationThreshold int `yaml:"validation_threshold"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.ChunkSize != 0 {
		c.ChunkSize = yc.ChunkSize
	}
	if yc.ValidationThreshold != 0 {
		c.ValidationThreshold = yc.ValidationThreshold
	}
	return nil
}

// Validate checks required ingest fields, applies defaults, and parses the
// source kind and period.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}

	kind, err := model.ParseSourceKind(c.SourceKind)
	if err != nil {
		return fmt.Errorf("--kind: %w", err)
	}
	c.Kind = kind

	period, err := model.ParsePeriod(c.Period)
	if err != nil {
		return fmt.Errorf("--period: %w", err)
	}
	c.BillingPeriod = period

	return c.applyDefaults()
}

// ValidateWithDSN checks ingest fields and the DSN.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ValidationThreshold == 0 {
		c.ValidationThreshold = DefaultValidationThreshold
	}
	if c.ValidationThreshold < 0 || c.ValidationThreshold > 100 {
		return fmt.Errorf("validation_threshold must be 0..100, got %d", c.ValidationThreshold)
	}
	return nil
}
