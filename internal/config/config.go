// Package config loads converter settings from defaults, an optional YAML
// file and REPORT_CONVERTER_* environment variables.
package config

import (
	"time"
)

// Calculation providers.
const (
	ProviderNone     = "none"
	ProviderTemplate = "template"
	ProviderBedrock  = "bedrock"
)

// Config represents the complete converter configuration.
type Config struct {
	Project     ProjectConfig     `yaml:"project" mapstructure:"project"`
	Dataset     DatasetConfig     `yaml:"dataset" mapstructure:"dataset"`
	Mapping     MappingConfig     `yaml:"mapping" mapstructure:"mapping"`
	Visuals     VisualsConfig     `yaml:"visuals" mapstructure:"visuals"`
	Calculation CalculationConfig `yaml:"calculation" mapstructure:"calculation"`
	Templates   TemplatesConfig   `yaml:"templates" mapstructure:"templates"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// ProjectConfig names the generated project.
type ProjectConfig struct {
	Name      string `yaml:"name" mapstructure:"name"` // defaults to the source report name
	ThemeName string `yaml:"theme_name" mapstructure:"theme_name"`
}

// DatasetConfig describes the semantic model connection.
type DatasetConfig struct {
	ConnectionString string `yaml:"connection_string" mapstructure:"connection_string"`
	Database         string `yaml:"database" mapstructure:"database"`
	ModelName        string `yaml:"model_name" mapstructure:"model_name"`
}

// MappingConfig locates the mapping table and target catalog.
type MappingConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`   // .yaml, .json, .xlsx or .db
	Sheet       string `yaml:"sheet" mapstructure:"sheet"` // xlsx only
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// VisualsConfig controls visual binding.
type VisualsConfig struct {
	// TargetKinds maps a source visual kind to a target kind.
	TargetKinds   map[string]string `yaml:"target_kinds" mapstructure:"target_kinds"`
	SuppressRoles []string          `yaml:"suppress_roles" mapstructure:"suppress_roles"`
}

// CalculationConfig selects and tunes the measure expression generator.
type CalculationConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // "none", "template" or "bedrock"
	ModelID     string        `yaml:"model_id" mapstructure:"model_id"`
	Region      string        `yaml:"region" mapstructure:"region"`
	Profile     string        `yaml:"profile" mapstructure:"profile"`
	Parallelism int           `yaml:"parallelism" mapstructure:"parallelism"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// TemplatesConfig locates the project boilerplate templates.
type TemplatesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // empty uses the built-in templates
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Archive string `yaml:"archive" mapstructure:"archive"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Visuals: VisualsConfig{
			TargetKinds: map[string]string{
				"list":     "table",
				"crosstab": "matrix",
				"chart":    "clusteredColumnChart",
			},
			SuppressRoles: []string{},
		},
		Calculation: CalculationConfig{
			Provider:    ProviderNone,
			Region:      "us-east-1",
			Parallelism: 4,
			Timeout:     60 * time.Second,
		},
		Output: OutputConfig{
			Dir: "out",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
