package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/bartune/internal/barcode"
	"github.com/MeKo-Tech/bartune/internal/license"
	"github.com/MeKo-Tech/bartune/internal/pdf"
	"github.com/MeKo-Tech/bartune/internal/report"
)

const (
	debugLevel = "debug"
	infoLevel  = "info"
	warnLevel  = "warn"
	errorLevel = "error"

	// StrategyDirect applies runtime settings through the settings record.
	StrategyDirect = "direct"
	// StrategyTemplate applies runtime settings through a template.
	StrategyTemplate = "template"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: infoLevel,
		License: LicenseConfig{
			OrganizationID: license.TrialOrganizationID,
			TimeoutSec:     int(license.DefaultTimeout / time.Second),
		},
		Decode: DecodeConfig{
			Strategies:   []string{StrategyDirect, StrategyTemplate},
			ConflictMode: barcode.ConflictOverwrite.String(),
		},
		Output: OutputConfig{
			Format: string(report.FormatText),
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !contains([]string{debugLevel, infoLevel, warnLevel, errorLevel}, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.License.TimeoutSec < 0 {
		return fmt.Errorf("license timeout must be non-negative, got %d", c.License.TimeoutSec)
	}

	if err := c.Decode.validate(); err != nil {
		return err
	}

	format, err := report.ParseFormat(c.Output.Format)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && c.Output.File == "" {
		return errors.New("xlsx output requires an output file")
	}

	return nil
}

func (d *DecodeConfig) validate() error {
	if len(d.Strategies) == 0 {
		return errors.New("at least one decode strategy is required")
	}
	for _, s := range d.Strategies {
		if !contains([]string{StrategyDirect, StrategyTemplate}, s) {
			return fmt.Errorf("invalid decode strategy: %s", s)
		}
	}
	if _, ok := barcode.ParseConflictMode(d.ConflictMode); !ok {
		return fmt.Errorf("invalid conflict mode: %s", d.ConflictMode)
	}
	if _, err := pdf.ParsePageRange(d.PDFPages); err != nil {
		return fmt.Errorf("invalid pdf pages: %w", err)
	}
	return nil
}

// ToLicenseParams converts the license section to client parameters.
func (c *Config) ToLicenseParams() license.Params {
	p := license.DefaultParams()
	if c.License.OrganizationID != "" {
		p.OrganizationID = c.License.OrganizationID
	}
	p.MainServerURL = c.License.MainServerURL
	p.StandbyServerURL = c.License.StandbyServerURL
	p.HandshakeCode = c.License.HandshakeCode
	if c.License.DeviceID != "" {
		p.DeviceID = c.License.DeviceID
	}
	if c.License.TimeoutSec > 0 {
		p.Timeout = time.Duration(c.License.TimeoutSec) * time.Second
	}
	return p
}

// Conflict returns the parsed conflict mode, falling back to overwrite.
func (d DecodeConfig) Conflict() barcode.ConflictMode {
	if m, ok := barcode.ParseConflictMode(d.ConflictMode); ok {
		return m
	}
	return barcode.ConflictOverwrite
}

// OutputFormat returns the parsed report format, falling back to text.
func (o OutputConfig) OutputFormat() report.Format {
	if f, err := report.ParseFormat(o.Format); err == nil {
		return f
	}
	return report.FormatText
}

// contains reports whether item is in slice, ignoring case.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
