package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDecode(t *testing.T) {
	r := New()
	r.ObserveDecode("accuracy-first", 20*time.Millisecond, 3, nil)
	r.ObserveDecode("accuracy-first", 0, 0, errors.New("boom"))

	assert.InDelta(t, 1, testutil.ToFloat64(r.decodesTotal.WithLabelValues("accuracy-first", StatusOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.decodesTotal.WithLabelValues("accuracy-first", StatusError)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.decodeDuration))

	expected := `
# HELP bartune_barcodes_decoded Number of barcodes returned by a decode call
# TYPE bartune_barcodes_decoded histogram
bartune_barcodes_decoded_bucket{strategy="accuracy-first",le="0"} 0
bartune_barcodes_decoded_bucket{strategy="accuracy-first",le="1"} 0
bartune_barcodes_decoded_bucket{strategy="accuracy-first",le="2"} 0
bartune_barcodes_decoded_bucket{strategy="accuracy-first",le="5"} 1
bartune_barcodes_decoded_bucket{strategy="accuracy-first",le="10"} 1
bartune_barcodes_decoded_bucket{strategy="accuracy-first",le="25"} 1
bartune_barcodes_decoded_bucket{strategy="accuracy-first",le="50"} 1
bartune_barcodes_decoded_bucket{strategy="accuracy-first",le="+Inf"} 1
bartune_barcodes_decoded_sum{strategy="accuracy-first"} 3
bartune_barcodes_decoded_count{strategy="accuracy-first"} 1
`
	require.NoError(t, testutil.CollectAndCompare(r.barcodesDecoded, strings.NewReader(expected)))
}

func TestSettingsAndLicenseCounters(t *testing.T) {
	r := New()
	r.SettingsFailure("template")
	r.SettingsFailure("template")
	r.LicenseCheck(true)
	r.LicenseCheck(false)

	assert.InDelta(t, 2, testutil.ToFloat64(r.settingsFailures.WithLabelValues("template")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.licenseChecks.WithLabelValues(StatusOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.licenseChecks.WithLabelValues(StatusError)), 0)
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveDecode("speed-first", 5*time.Millisecond, 1, nil)

	path := filepath.Join(t.TempDir(), "bartune.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bartune_decodes_total{status="ok",strategy="speed-first"} 1`)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveDecode("x", time.Second, 1, nil)
		r.SettingsFailure("x")
		r.LicenseCheck(true)
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "unused.prom")))
}
