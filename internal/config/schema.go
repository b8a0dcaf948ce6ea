// Package config loads workint settings from an optional YAML file and
// WORKINT_* environment variables.
package config

// Config is the full workint configuration.
type Config struct {
	// DB is the SQLite database file.
	DB string `yaml:"db" mapstructure:"db"`

	// Authority is the content URI authority of task addresses.
	Authority string `yaml:"authority" mapstructure:"authority"`

	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	Export ExportConfig `yaml:"export" mapstructure:"export"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures the REST transport.
type HTTPConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// ExportConfig configures text export.
type ExportConfig struct {
	// Strict reports encoding failures to stream readers instead of ending
	// the stream quietly.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" mapstructure:"level"`
}
