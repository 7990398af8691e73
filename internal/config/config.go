// Package config loads and persists the codepin configuration from
// .codepin/config.json. A missing file means defaults; a present file is
// merged over them, so partial configs stay valid across upgrades.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the complete codepin configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Detection DetectionConfig `json:"detection" mapstructure:"detection"`
	Languages LanguagesConfig `json:"languages" mapstructure:"languages"`
	Report    ReportConfig    `json:"report" mapstructure:"report"`
	Export    ExportConfig    `json:"export" mapstructure:"export"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// DetectionConfig tunes the change-detection engine
type DetectionConfig struct {
	// AnchorWindow is how many lines a shifted range's anchors may drift
	// and still be accepted
	AnchorWindow int `json:"anchorWindow" mapstructure:"anchorWindow"`

	// IncludePrivate is the default for new container subscriptions
	IncludePrivate bool `json:"includePrivate" mapstructure:"includePrivate"`

	// TrackDecorators is the default for new semantic subscriptions
	TrackDecorators bool `json:"trackDecorators" mapstructure:"trackDecorators"`
}

// LanguagesConfig selects which indexers are active
type LanguagesConfig struct {
	Enabled []string `json:"enabled" mapstructure:"enabled"`
}

// ReportConfig shapes scan output
type ReportConfig struct {
	// Format is "json" or "yaml"
	Format string `json:"format" mapstructure:"format"`
}

// ExportConfig shapes construct-index exports
type ExportConfig struct {
	// Path is the export destination, relative to the repo root
	Path string `json:"path" mapstructure:"path"`

	// Compress wraps the export in a zstd stream
	Compress bool `json:"compress" mapstructure:"compress"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Detection: DetectionConfig{
			AnchorWindow:    2,
			IncludePrivate:  false,
			TrackDecorators: true,
		},
		Languages: LanguagesConfig{
			Enabled: []string{"python", "java"},
		},
		Report: ReportConfig{
			Format: "json",
		},
		Export: ExportConfig{
			Path:     ".codepin/index.scip",
			Compress: false,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads .codepin/config.json under repoRoot, merged over defaults.
// A missing file yields the defaults without error.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("version", defaults.Version)
	v.SetDefault("repoRoot", defaults.RepoRoot)
	v.SetDefault("detection.anchorWindow", defaults.Detection.AnchorWindow)
	v.SetDefault("detection.includePrivate", defaults.Detection.IncludePrivate)
	v.SetDefault("detection.trackDecorators", defaults.Detection.TrackDecorators)
	v.SetDefault("languages.enabled", defaults.Languages.Enabled)
	v.SetDefault("report.format", defaults.Report.Format)
	v.SetDefault("export.path", defaults.Export.Path)
	v.SetDefault("export.compress", defaults.Export.Compress)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".codepin"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to .codepin/config.json under repoRoot
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".codepin")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600)
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &Error{Field: "version", Message: "unsupported config version"}
	}
	if c.Detection.AnchorWindow < 0 {
		return &Error{Field: "detection.anchorWindow", Message: "must not be negative"}
	}
	switch c.Report.Format {
	case "json", "yaml":
	default:
		return &Error{Field: "report.format", Message: "must be json or yaml"}
	}
	if len(c.Languages.Enabled) == 0 {
		return &Error{Field: "languages.enabled", Message: "at least one language is required"}
	}
	return nil
}

// Error represents a configuration error
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
