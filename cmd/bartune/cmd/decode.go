package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/bartune/internal/barcode"
	"github.com/MeKo-Tech/bartune/internal/common"
	"github.com/MeKo-Tech/bartune/internal/config"
	"github.com/MeKo-Tech/bartune/internal/license"
	"github.com/MeKo-Tech/bartune/internal/metrics"
	"github.com/MeKo-Tech/bartune/internal/runner"
	"github.com/MeKo-Tech/bartune/internal/tuning"
	"github.com/MeKo-Tech/bartune/templates"
)

// pipeline describes one tuning goal.
type pipeline struct {
	use      string
	short    string
	long     string
	direct   func(*slog.Logger) tuning.Configurator
	template string
	timed    bool
}

var accuracyPipeline = pipeline{
	use:   "accuracy IMAGE",
	short: "Decode with settings tuned for accuracy",
	long: `Decode an image with settings tuned for accuracy: only 1D formats are
searched and results below confidence 30 or shorter than 6 characters are
dropped.

Supported inputs: PNG, JPEG, BMP, TIFF, GIF and PDF.

Examples:
  bartune accuracy AllSupportedBarcodeTypes.png
  bartune accuracy --strategies direct --format json sample.tif`,
	direct:   func(*slog.Logger) tuning.Configurator { return tuning.AccuracyFirst{} },
	template: templates.AccuracyFirst,
}

var speedPipeline = pipeline{
	use:   "speed IMAGE",
	short: "Decode with settings tuned for speed",
	long: `Decode an image with settings tuned for speed: a single EAN-13 symbol is
expected, large images are scaled down to 1200 pixels, the mode lists are cut
to one or two entries and the decode gives up after 100ms. The time spent in
each decode call is printed.

Supported inputs: PNG, JPEG, BMP, TIFF, GIF and PDF.

Examples:
  bartune speed AllSupportedBarcodeTypes.png
  bartune speed --conflict-mode ignore --template MyTemplate.json label.png`,
	direct:   func(l *slog.Logger) tuning.Configurator { return tuning.SpeedFirst{Logger: l} },
	template: templates.SpeedFirst,
	timed:    true,
}

func (a *app) newDecodeCommand(p pipeline) *cobra.Command {
	c := &cobra.Command{
		Use:   p.use,
		Short: p.short,
		Long:  p.long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd, p, args[0])
		},
	}

	f := c.Flags()
	f.StringSlice("strategies", []string{config.StrategyDirect, config.StrategyTemplate},
		"decode steps in run order (direct, template)")
	f.String("template", "", "parameter template file (default is the embedded "+p.template+")")
	f.String("conflict-mode", "", "template conflict mode: overwrite or ignore (default overwrite)")
	f.String("profile", "", "named template profile to decode with (default is the committed settings)")
	f.Bool("timed", false, "print the time spent in each decode call")
	f.String("pdf-pages", "", "PDF page range such as 1-3,5 (default all pages)")
	return c
}

func (a *app) runPipeline(cmd *cobra.Command, p pipeline, image string) (err error) {
	cfg := a.cfg
	log := a.logger.With("pipeline", cmd.Name())
	timer := common.NewNamedTimer(cmd.Name())
	defer func() {
		timer.Stop()
		log.Debug("pipeline finished", "elapsed", timer.String(), "error", err)
	}()

	plan, err := buildPlan(cfg, p, image, log)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd.OutOrStdout(), cfg.Output.File)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	rec := metrics.New()
	r := &runner.Runner{
		License:       license.NewClient(&http.Client{}, log),
		LicenseParams: cfg.ToLicenseParams(),
		Engine: barcode.NewReader(
			barcode.WithLogger(log),
			barcode.WithPDFPages(cfg.Decode.PDFPages),
		),
		Out:     out,
		Timed:   timedFor(cmd, p, cfg),
		Format:  cfg.Output.OutputFormat(),
		Metrics: rec,
		Logger:  log,
	}
	runErr := r.Run(cmd.Context(), plan)

	if cfg.Metrics.Textfile != "" {
		if werr := rec.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			log.Error("write metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}
	return runErr
}

// timedFor lets an explicit --timed override the pipeline default.
func timedFor(cmd *cobra.Command, p pipeline, cfg *config.Config) bool {
	if cmd.Flags().Changed("timed") {
		return cfg.Decode.Timed
	}
	return p.timed || cfg.Decode.Timed
}

// buildPlan turns the configured strategies into runner steps.
func buildPlan(cfg *config.Config, p pipeline, image string, log *slog.Logger) (runner.Plan, error) {
	plan := runner.Plan{Image: image, Profile: cfg.Decode.Profile}
	for _, s := range cfg.Decode.Strategies {
		switch s {
		case config.StrategyDirect:
			plan.Steps = append(plan.Steps, runner.Step{Title: runner.TitleDirect, Configurator: p.direct(log)})
		case config.StrategyTemplate:
			c, err := templateConfigurator(cfg.Decode, p.template)
			if err != nil {
				return runner.Plan{}, err
			}
			plan.Steps = append(plan.Steps, runner.Step{Title: runner.TitleTemplate, Configurator: c})
		default:
			return runner.Plan{}, fmt.Errorf("invalid decode strategy: %s", s)
		}
	}
	if len(plan.Steps) == 0 {
		return runner.Plan{}, errors.New("no decode strategy selected")
	}
	return plan, nil
}

func templateConfigurator(d config.DecodeConfig, embedded string) (tuning.Configurator, error) {
	if d.Template != "" {
		return tuning.Template{Path: d.Template, Conflict: d.Conflict()}, nil
	}
	data, err := templates.Read(embedded)
	if err != nil {
		return nil, fmt.Errorf("read embedded template %s: %w", embedded, err)
	}
	return tuning.TemplateText{
		Label:    embedded,
		Data:     data,
		Format:   barcode.TemplateJSON,
		Conflict: d.Conflict(),
	}, nil
}

// openOutput returns the report destination and a function closing it.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
