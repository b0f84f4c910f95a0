// Package metrics records decode statistics in a Prometheus registry that
// can be dumped in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Recorder holds the bartune collectors. A nil Recorder discards all
// observations.
type Recorder struct {
	registry *prometheus.Registry

	decodesTotal     *prometheus.CounterVec
	decodeDuration   *prometheus.HistogramVec
	barcodesDecoded  *prometheus.HistogramVec
	settingsFailures *prometheus.CounterVec
	licenseChecks    *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		decodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bartune_decodes_total",
				Help: "Total number of decode calls",
			},
			[]string{"strategy", "status"},
		),
		decodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bartune_decode_duration_seconds",
				Help:    "Decode duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"strategy"},
		),
		barcodesDecoded: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bartune_barcodes_decoded",
				Help:    "Number of barcodes returned by a decode call",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"strategy"},
		),
		settingsFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bartune_settings_failures_total",
				Help: "Total number of rejected settings or templates",
			},
			[]string{"strategy"},
		),
		licenseChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bartune_license_checks_total",
				Help: "Total number of license verifications",
			},
			[]string{"status"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveDecode records one decode call.
func (r *Recorder) ObserveDecode(strategy string, elapsed time.Duration, results int, err error) {
	if r == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	r.decodesTotal.WithLabelValues(strategy, status).Inc()
	if err != nil {
		return
	}
	r.decodeDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	r.barcodesDecoded.WithLabelValues(strategy).Observe(float64(results))
}

// SettingsFailure counts a configurator failure.
func (r *Recorder) SettingsFailure(strategy string) {
	if r == nil {
		return
	}
	r.settingsFailures.WithLabelValues(strategy).Inc()
}

// LicenseCheck counts a license verification outcome.
func (r *Recorder) LicenseCheck(ok bool) {
	if r == nil {
		return
	}
	status := StatusOK
	if !ok {
		status = StatusError
	}
	r.licenseChecks.WithLabelValues(status).Inc()
}

// WriteTextfile writes the current values to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
