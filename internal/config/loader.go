package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. REPORT_CONVERTER_LOG_LEVEL.
const EnvPrefix = "REPORT_CONVERTER"

// FileName is the config file searched for when no path is given.
const FileName = "report-converter"

// Loader loads configuration with the following priority (highest to lowest):
// 1. Environment variables (REPORT_CONVERTER_*)
// 2. Config file
// 3. Default values
type Loader struct {
	dir  string
	file string
}

// NewLoader creates a loader. An explicit file must exist; otherwise
// report-converter.yaml is looked up in dir and may be absent.
func NewLoader(dir, file string) *Loader {
	return &Loader{dir: dir, file: file}
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()

	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(l.dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so environment overrides apply to keys
// missing from the file.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("project.name", d.Project.Name)
	v.SetDefault("project.theme_name", d.Project.ThemeName)

	v.SetDefault("dataset.connection_string", d.Dataset.ConnectionString)
	v.SetDefault("dataset.database", d.Dataset.Database)
	v.SetDefault("dataset.model_name", d.Dataset.ModelName)

	v.SetDefault("mapping.path", d.Mapping.Path)
	v.SetDefault("mapping.sheet", d.Mapping.Sheet)
	v.SetDefault("mapping.catalog_path", d.Mapping.CatalogPath)

	// A map[string]any default is merged key by key with the file's map.
	kinds := make(map[string]any, len(d.Visuals.TargetKinds))
	for k, tk := range d.Visuals.TargetKinds {
		kinds[k] = tk
	}

	v.SetDefault("visuals.target_kinds", kinds)
	v.SetDefault("visuals.suppress_roles", d.Visuals.SuppressRoles)

	v.SetDefault("calculation.provider", d.Calculation.Provider)
	v.SetDefault("calculation.model_id", d.Calculation.ModelID)
	v.SetDefault("calculation.region", d.Calculation.Region)
	v.SetDefault("calculation.profile", d.Calculation.Profile)
	v.SetDefault("calculation.parallelism", d.Calculation.Parallelism)
	v.SetDefault("calculation.timeout", d.Calculation.Timeout)

	v.SetDefault("templates.dir", d.Templates.Dir)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.archive", d.Output.Archive)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
}

// Load is a convenience wrapper around NewLoader(dir, file).Load().
func Load(dir, file string) (*Config, error) {
	return NewLoader(dir, file).Load()
}
