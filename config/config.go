// Package config loads server settings from a yaml file overlaid on defaults.
package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sheetsearch/loader"
)

type Config struct {
	Listen      string `yaml:"listen"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	MaxRows     int    `yaml:"max_rows"`
	MaxDisplay  int    `yaml:"max_display_rows"`

	// MaxExpandedMB caps an upload after decompression, including the xlsx zip itself.
	MaxExpandedMB int64 `yaml:"max_expanded_mb"`

	// DateColumns are glob patterns naming columns normalized and read as dates.
	DateColumns []string `yaml:"date_columns"`
	AutoDates   bool     `yaml:"auto_dates"`
	CSVEncoding string   `yaml:"csv_encoding"`

	SnapshotTTL  time.Duration `yaml:"snapshot_ttl"`
	MaxSnapshots int           `yaml:"max_snapshots"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Listen:       ":8080",
		MaxUploadMB:   10,
		MaxRows:       10000,
		MaxDisplay:    1000,
		MaxExpandedMB: 100,
		DateColumns:   []string{"Date"},
		AutoDates:     true,
		CSVEncoding:   "utf-8",
		SnapshotTTL:   30 * time.Minute,
		MaxSnapshots:  32,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (cfg Config) Validate() error {
	if cfg.MaxUploadMB <= 0 {
		return errors.Errorf("max_upload_mb must be positive, got %d", cfg.MaxUploadMB)
	}
	if cfg.MaxExpandedMB < cfg.MaxUploadMB {
		return errors.Errorf("max_expanded_mb must be at least max_upload_mb, got %d", cfg.MaxExpandedMB)
	}
	if cfg.MaxRows <= 0 {
		return errors.Errorf("max_rows must be positive, got %d", cfg.MaxRows)
	}
	if cfg.MaxSnapshots <= 0 {
		return errors.Errorf("max_snapshots must be positive, got %d", cfg.MaxSnapshots)
	}
	for _, pattern := range cfg.DateColumns {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("bad date_columns pattern %q", pattern)
		}
	}
	if !loader.KnownEncoding(cfg.CSVEncoding) {
		return errors.Errorf("unknown csv_encoding %q", cfg.CSVEncoding)
	}
	if _, err := cfg.Level(); err != nil {
		return err
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes.
func (cfg Config) MaxUploadBytes() int64 {
	return cfg.MaxUploadMB << 20
}

// MaxExpandedBytes is the decompressed size limit in bytes.
func (cfg Config) MaxExpandedBytes() int64 {
	return cfg.MaxExpandedMB << 20
}

// LoaderOptions are the decoding settings and size limits for uploads.
func (cfg Config) LoaderOptions() loader.Options {
	return loader.Options{
		Encoding: cfg.CSVEncoding,
		MaxBytes: cfg.MaxExpandedBytes(),
		MaxRows:  cfg.MaxRows,
	}
}

// IsDateColumn reports whether name matches one of the date column patterns.
func (cfg Config) IsDateColumn(name string) bool {
	return MatchAny(cfg.DateColumns, name)
}

// MatchAny reports whether name matches any glob in patterns.
func MatchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// Level parses LogLevel.
func (cfg Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return lvl, errors.Wrapf(err, "bad log_level %q", cfg.LogLevel)
	}
	return lvl, nil
}

// Logger builds the process logger from LogLevel and LogFormat.
func (cfg Config) Logger() *slog.Logger {
	lvl, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
