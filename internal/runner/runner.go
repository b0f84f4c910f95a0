// Package runner wires license initialization, settings configurators,
// decode calls and reporting into the demonstration pipelines.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/bartune/internal/barcode"
	"github.com/MeKo-Tech/bartune/internal/common"
	"github.com/MeKo-Tech/bartune/internal/license"
	"github.com/MeKo-Tech/bartune/internal/metrics"
	"github.com/MeKo-Tech/bartune/internal/report"
	"github.com/MeKo-Tech/bartune/internal/tuning"
)

// Step titles printed before each decode.
const (
	TitleDirect   = "Decode through PublicRuntimeSettings:"
	TitleTemplate = "Decode through parameters template:"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindLicense failures are reported and the run continues unlicensed.
	KindLicense Kind = iota + 1
	// KindSettings failures are reported and the decode still runs.
	KindSettings
	// KindDecode failures stop the remaining steps.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindLicense:
		return "license"
	case KindSettings:
		return "settings"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Step string
	Err  error
}

func (e *Error) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed (%s): %v", e.Kind, e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Decoder decodes a file with the committed settings or a named profile.
type Decoder interface {
	DecodeFile(ctx context.Context, path, profile string) ([]barcode.Result, error)
}

// Engine is everything the pipeline needs from the decode engine.
type Engine interface {
	tuning.Engine
	Decoder
}

// Authorizer verifies a license.
type Authorizer interface {
	Authorize(ctx context.Context, p license.Params) error
}

// Outcome is the result of a single decode call.
type Outcome struct {
	Results []barcode.Result
	Elapsed time.Duration
	Timed   bool
	Err     error
}

// ElapsedPtr returns the elapsed time when the call was timed.
func (o Outcome) ElapsedPtr() *time.Duration {
	if !o.Timed {
		return nil
	}
	d := o.Elapsed
	return &d
}

// Invoke runs one decode call. Elapsed is measured around the call only.
// A panic inside the engine is returned as an error.
func Invoke(ctx context.Context, d Decoder, path, profile string, timed bool) (o Outcome) {
	timer := common.NewTimer()
	o.Timed = timed
	defer func() {
		o.Elapsed = timer.Stop()
		if p := recover(); p != nil {
			o.Results, o.Err = nil, fmt.Errorf("engine fault: %v", p)
		}
	}()
	o.Results, o.Err = d.DecodeFile(ctx, path, profile)
	return o
}

// Step is one configure, decode and report round.
type Step struct {
	Title        string
	Configurator tuning.Configurator
}

// Plan lists the steps run against one input file.
type Plan struct {
	Image   string
	Profile string
	Steps   []Step
}

// Runner executes plans. License may be nil to skip verification.
type Runner struct {
	License       Authorizer
	LicenseParams license.Params
	Engine        Engine
	Out           io.Writer
	Timed         bool
	Format        report.Format
	Metrics       *metrics.Recorder
	Logger        *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) text() bool {
	return r.Format == "" || r.Format == report.FormatText
}

// Run executes plan. License and settings failures are printed and the run
// goes on; the first decode failure ends the run and is returned.
func (r *Runner) Run(ctx context.Context, plan Plan) error {
	if r.Engine == nil {
		return errors.New("runner: no engine configured")
	}
	if len(plan.Steps) == 0 {
		return errors.New("runner: plan has no steps")
	}

	var licenseErr string
	if err := r.initLicense(ctx); err != nil {
		r.printLine(err.Error())
		licenseErr = errors.Unwrap(err).Error()
	}

	var entries []report.Entry
	for i, step := range plan.Steps {
		if r.text() {
			if i > 0 {
				r.printLine("")
			}
			r.printLine(step.Title)
		}

		strategy := step.Configurator.Name()
		log := r.logger().With("step", step.Title, "strategy", strategy)

		var settingsErr string
		if err := step.Configurator.Apply(r.Engine); err != nil {
			serr := &Error{Kind: KindSettings, Step: step.Title, Err: err}
			log.Warn("settings not fully applied", "error", err)
			r.Metrics.SettingsFailure(strategy)
			r.printLine(serr.Error())
			settingsErr = err.Error()
		}

		o := Invoke(ctx, r.Engine, plan.Image, plan.Profile, r.Timed)
		r.Metrics.ObserveDecode(strategy, o.Elapsed, len(o.Results), o.Err)
		entry := report.NewEntry(step.Title, strategy, plan.Image, o.Results, o.Elapsed, o.Timed, o.Err)
		entry.SettingsError = settingsErr
		entry.LicenseError = licenseErr
		entries = append(entries, entry)

		if o.Err != nil {
			log.Error("decode failed", "file", plan.Image, "error", o.Err)
			if !r.text() {
				if err := report.Write(r.Out, r.Format, entries); err != nil {
					log.Error("write report", "error", err)
				}
			}
			return &Error{Kind: KindDecode, Step: step.Title, Err: o.Err}
		}
		log.Info("decode finished", "file", plan.Image, "results", len(o.Results), "elapsed_ms", common.Milliseconds(o.Elapsed))

		if r.text() {
			if err := report.WriteText(r.Out, o.Results, o.ElapsedPtr()); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}
	}

	if !r.text() {
		if err := report.Write(r.Out, r.Format, entries); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

func (r *Runner) initLicense(ctx context.Context) error {
	if r.License == nil {
		return nil
	}
	err := r.License.Authorize(ctx, r.LicenseParams)
	if l, ok := r.Engine.(interface{ SetLicensed(bool) }); ok {
		l.SetLicensed(err == nil)
	}
	r.Metrics.LicenseCheck(err == nil)
	if err != nil {
		r.logger().Warn("license initialization failed; continuing without a license", "error", err)
		return &Error{Kind: KindLicense, Err: err}
	}
	return nil
}

// printLine writes to Out in text mode only so exports stay well formed.
func (r *Runner) printLine(s string) {
	if !r.text() || r.Out == nil {
		return
	}
	_, _ = fmt.Fprintln(r.Out, s)
}
