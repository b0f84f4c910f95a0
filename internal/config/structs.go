//nolint:lll
package config

// Config represents the complete configuration for the bartune CLI.
// It is loaded from configuration files, environment variables and
// command-line flags, in increasing order of precedence.
type Config struct {
	// Global settings
	LogLevel   string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose    bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	WaitForKey bool   `mapstructure:"wait_for_key" yaml:"wait_for_key" json:"wait_for_key"`

	// License server connection
	License LicenseConfig `mapstructure:"license" yaml:"license" json:"license"`

	// Decode steps and engine inputs
	Decode DecodeConfig `mapstructure:"decode" yaml:"decode" json:"decode"`

	// Report output
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Metrics export
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// LicenseConfig contains the license server parameters.
type LicenseConfig struct {
	OrganizationID   string `mapstructure:"organization_id" yaml:"organization_id" json:"organization_id"`
	MainServerURL    string `mapstructure:"main_server_url" yaml:"main_server_url" json:"main_server_url"`
	StandbyServerURL string `mapstructure:"standby_server_url" yaml:"standby_server_url" json:"standby_server_url"`
	HandshakeCode    string `mapstructure:"handshake_code" yaml:"handshake_code" json:"handshake_code"`
	// DeviceID is generated per run when empty.
	DeviceID   string `mapstructure:"device_id" yaml:"device_id" json:"device_id"`
	TimeoutSec int    `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// DecodeConfig selects the decode steps and how the template step runs.
type DecodeConfig struct {
	// Strategies lists the steps in run order: "direct" and/or "template".
	Strategies []string `mapstructure:"strategies" yaml:"strategies" json:"strategies"`
	// Template is a template file path; empty means the embedded template.
	Template     string `mapstructure:"template" yaml:"template" json:"template"`
	ConflictMode string `mapstructure:"conflict_mode" yaml:"conflict_mode" json:"conflict_mode"`
	Profile      string `mapstructure:"profile" yaml:"profile" json:"profile"`
	Timed        bool   `mapstructure:"timed" yaml:"timed" json:"timed"`
	PDFPages     string `mapstructure:"pdf_pages" yaml:"pdf_pages" json:"pdf_pages"`
}

// OutputConfig contains report output settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// MetricsConfig contains metrics export settings.
type MetricsConfig struct {
	// Textfile is a node-exporter textfile path written after the run.
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile"`
}
