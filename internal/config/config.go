// Package config holds the converter configuration.
package config

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	logseqdomain "github.com/sleroq/logseq-to-notion/internal/domain/logseq"
)

// Report formats.
const (
	ReportJSON = "json"
	ReportYAML = "yaml"
)

// Config is the complete converter configuration. Command line flags
// override values read from the YAML file.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Convert ConvertConfig `yaml:"convert"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	return c.Convert.Validate()
}

type AppConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// Workers bounds how many collections convert at the same time.
	Workers int `yaml:"workers"`
}

func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

// SourceConfig selects what to convert. Path is either one Logseq export or
// a directory holding several.
type SourceConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	All        bool   `yaml:"all"`
}

func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

type OutputConfig struct {
	Path string `yaml:"path"`
	// Timestamped nests every run in <collection>-<YYYYMMDD-HHMMSS>.
	Timestamped  bool   `yaml:"timestamped"`
	Zip          bool   `yaml:"zip"`
	ReportFormat string `yaml:"report_format"`
	IndexCSV     bool   `yaml:"index_csv"`
}

func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.ReportFormat, validation.Required, validation.In(ReportJSON, ReportYAML)),
	)
}

type ConvertConfig struct {
	// Unique appends a random 8 character hex token to every note file name.
	Unique        bool   `yaml:"unique"`
	JournalLayout string `yaml:"journal_layout"`
	SummaryLength int    `yaml:"summary_length"`
}

func (c *ConvertConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.JournalLayout, validation.Required),
		validation.Field(&c.SummaryLength, validation.Min(0)),
	)
}

// NewDefaultConfig returns a Config with the defaults of the CLI.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel: slog.LevelInfo,
			Workers:  1,
		},
		Source: SourceConfig{
			Path: "logseq-export",
		},
		Output: OutputConfig{
			Path:         "notion-import",
			Timestamped:  true,
			Zip:          true,
			ReportFormat: ReportJSON,
		},
		Convert: ConvertConfig{
			JournalLayout: logseqdomain.DefaultJournalLayout,
			SummaryLength: logseqdomain.DefaultSummaryLength,
		},
	}
}
