// Package tuning holds the settings configurators that prepare the decode
// engine for a tuning goal, either through the settings record or through
// a parameter template.
package tuning

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/MeKo-Tech/bartune/internal/barcode"
)

// Engine is the part of the decode engine a configurator needs.
type Engine interface {
	GetRuntimeSettings() barcode.RuntimeSettings
	UpdateRuntimeSettings(s barcode.RuntimeSettings) error
	SetModeArgument(list string, index int, name, value string) error
	InitRuntimeSettingsWithFile(path string, mode barcode.ConflictMode) error
	InitRuntimeSettingsWithString(data []byte, format barcode.TemplateFormat, mode barcode.ConflictMode) error
}

// Configurator mutates the engine settings for one strategy.
type Configurator interface {
	Name() string
	Apply(e Engine) error
}

// AccuracyFirst restricts decoding to 1D formats and filters weak or short
// results.
type AccuracyFirst struct{}

// Name implements Configurator.
func (AccuracyFirst) Name() string { return "accuracy-first" }

// Apply implements Configurator.
func (AccuracyFirst) Apply(e Engine) error {
	s := e.GetRuntimeSettings()
	s.BarcodeFormatIDs = barcode.FormatOneD
	s.BarcodeFormatIDs2 = barcode.Format2Null
	s.MinResultConfidence = 30
	s.MinBarcodeTextLength = 6
	if err := e.UpdateRuntimeSettings(s); err != nil {
		return fmt.Errorf("accuracy-first: commit settings: %w", err)
	}
	return nil
}

// SpeedFirst reduces the work per decode to a single EAN-13 found by a
// direct scan within 100ms.
type SpeedFirst struct {
	Logger *slog.Logger
}

// Name implements Configurator.
func (SpeedFirst) Name() string { return "speed-first" }

type modeArgument struct {
	list  string
	index int
	name  string
	value string
}

var speedFirstArguments = []modeArgument{
	{barcode.ListBinarizationModes, 0, barcode.ArgEnableFillBinaryVacancy, "0"},
	{barcode.ListLocalizationModes, 0, barcode.ArgScanDirection, "0"},
}

// Apply implements Configurator. Mode argument failures are logged and
// returned together after every argument was attempted.
func (c SpeedFirst) Apply(e Engine) error {
	s := e.GetRuntimeSettings()
	s.BarcodeFormatIDs = barcode.FormatEAN13
	s.ExpectedBarcodesCount = 1
	s.ScaleDownThreshold = 1200
	s.BinarizationModes = [barcode.MaxBinarizationModes]barcode.BinarizationMode{barcode.BMLocalBlock}
	s.LocalizationModes = [barcode.MaxLocalizationModes]barcode.LocalizationMode{
		barcode.LMScanDirectly, barcode.LMSkip, barcode.LMSkip, barcode.LMSkip,
	}
	s.DeblurModes = [barcode.MaxDeblurModes]barcode.DeblurMode{
		barcode.DMBasedOnLocBin, barcode.DMThresholdBinarization,
	}
	s.Timeout = 100
	if err := e.UpdateRuntimeSettings(s); err != nil {
		return fmt.Errorf("speed-first: commit settings: %w", err)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var errs []error
	for _, a := range speedFirstArguments {
		if err := e.SetModeArgument(a.list, a.index, a.name, a.value); err != nil {
			logger.Warn("mode argument rejected",
				"list", a.list, "index", a.index, "argument", a.name, "value", a.value, "error", err)
			errs = append(errs, fmt.Errorf("speed-first: %s[%d].%s=%s: %w", a.list, a.index, a.name, a.value, err))
		}
	}
	return errors.Join(errs...)
}

// Template resets the engine and loads a template file.
type Template struct {
	Path     string
	Conflict barcode.ConflictMode
}

// Name implements Configurator.
func (t Template) Name() string { return "template:" + filepath.Base(t.Path) }

// Apply implements Configurator.
func (t Template) Apply(e Engine) error {
	if err := e.InitRuntimeSettingsWithFile(t.Path, t.conflict()); err != nil {
		return fmt.Errorf("load template %s: %w", t.Path, err)
	}
	return nil
}

func (t Template) conflict() barcode.ConflictMode {
	if t.Conflict == 0 {
		return barcode.ConflictOverwrite
	}
	return t.Conflict
}

// TemplateText resets the engine and loads an in-memory template, such as
// one of the embedded defaults.
type TemplateText struct {
	Label    string
	Data     []byte
	Format   barcode.TemplateFormat
	Conflict barcode.ConflictMode
}

// Name implements Configurator.
func (t TemplateText) Name() string { return "template:" + t.Label }

// Apply implements Configurator.
func (t TemplateText) Apply(e Engine) error {
	mode := t.Conflict
	if mode == 0 {
		mode = barcode.ConflictOverwrite
	}
	if err := e.InitRuntimeSettingsWithString(t.Data, t.Format, mode); err != nil {
		return fmt.Errorf("load template %s: %w", t.Label, err)
	}
	return nil
}
