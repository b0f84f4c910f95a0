package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/bartune/internal/barcode"
	"github.com/MeKo-Tech/bartune/internal/license"
	"github.com/MeKo-Tech/bartune/internal/metrics"
	"github.com/MeKo-Tech/bartune/internal/report"
	"github.com/MeKo-Tech/bartune/internal/tuning"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeCall struct {
	path     string
	profile  string
	settings barcode.RuntimeSettings
}

// mockEngine returns scripted decode results and records the settings in
// effect at each call.
type mockEngine struct {
	settings  barcode.RuntimeSettings
	results   [][]barcode.Result
	errs      []error
	panicMsg  string
	initErr   error
	calls     []decodeCall
	licensed  *bool
	modeCalls int
}

func newMockEngine() *mockEngine {
	return &mockEngine{settings: barcode.DefaultRuntimeSettings()}
}

func (m *mockEngine) GetRuntimeSettings() barcode.RuntimeSettings { return m.settings }

func (m *mockEngine) UpdateRuntimeSettings(s barcode.RuntimeSettings) error {
	m.settings = s
	return nil
}

func (m *mockEngine) SetModeArgument(string, int, string, string) error {
	m.modeCalls++
	return nil
}

func (m *mockEngine) InitRuntimeSettingsWithFile(string, barcode.ConflictMode) error {
	if m.initErr != nil {
		return m.initErr
	}
	m.settings = barcode.DefaultRuntimeSettings()
	return nil
}

func (m *mockEngine) InitRuntimeSettingsWithString([]byte, barcode.TemplateFormat, barcode.ConflictMode) error {
	return m.InitRuntimeSettingsWithFile("", 0)
}

func (m *mockEngine) SetLicensed(ok bool) { m.licensed = &ok }

func (m *mockEngine) DecodeFile(_ context.Context, path, profile string) ([]barcode.Result, error) {
	i := len(m.calls)
	m.calls = append(m.calls, decodeCall{path: path, profile: profile, settings: m.settings})
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	var res []barcode.Result
	var err error
	if i < len(m.results) {
		res = m.results[i]
	}
	if i < len(m.errs) {
		err = m.errs[i]
	}
	return res, err
}

type stubAuthorizer struct {
	err    error
	params license.Params
}

func (s *stubAuthorizer) Authorize(_ context.Context, p license.Params) error {
	s.params = p
	return s.err
}

func pair() []barcode.Result {
	return []barcode.Result{
		{Format: barcode.FormatEAN13, FormatString: "EAN_13", Text: "012345678905"},
		{Format: barcode.FormatNull, FormatString2: "QR_CODE", Text: "QR-PAYLOAD"},
	}
}

func speedPlan() Plan {
	return Plan{
		Image: "AllSupportedBarcodeTypes.png",
		Steps: []Step{
			{Title: TitleDirect, Configurator: tuning.SpeedFirst{}},
			{Title: TitleTemplate, Configurator: tuning.Template{Path: "SpeedFirstTemplate.json"}},
		},
	}
}

var costLine = regexp.MustCompile(`^Cost time:\d+ms$`)

func TestRun_SpeedFirstScenario(t *testing.T) {
	e := newMockEngine()
	e.results = [][]barcode.Result{pair(), pair()}

	var out bytes.Buffer
	r := &Runner{Engine: e, Out: &out, Timed: true}
	require.NoError(t, r.Run(context.Background(), speedPlan()))

	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, got, 9)
	assert.Equal(t, TitleDirect, got[0])
	assert.Regexp(t, costLine, got[1])
	assert.Equal(t, "Barcode 1:EAN_13,012345678905", got[2])
	assert.Equal(t, "Barcode 2:QR_CODE,QR-PAYLOAD", got[3])
	assert.Equal(t, "", got[4])
	assert.Equal(t, TitleTemplate, got[5])
	assert.Regexp(t, costLine, got[6])
	assert.Equal(t, "Barcode 1:EAN_13,012345678905", got[7])
	assert.Equal(t, "Barcode 2:QR_CODE,QR-PAYLOAD", got[8])

	require.Len(t, e.calls, 2)
	first := e.calls[0]
	assert.Equal(t, "AllSupportedBarcodeTypes.png", first.path)
	assert.Equal(t, "", first.profile)
	assert.Equal(t, 1, first.settings.ExpectedBarcodesCount)
	assert.Equal(t, 100, first.settings.Timeout)
	assert.Equal(t, 2, e.modeCalls)
}

func TestRun_AccuracyUntimedNoData(t *testing.T) {
	e := newMockEngine()

	var out bytes.Buffer
	r := &Runner{Engine: e, Out: &out}
	plan := Plan{Image: "x.png", Steps: []Step{{Title: TitleDirect, Configurator: tuning.AccuracyFirst{}}}}
	require.NoError(t, r.Run(context.Background(), plan))

	assert.Equal(t, TitleDirect+"\n"+report.NoData+"\n", out.String())
	assert.Equal(t, 30, e.calls[0].settings.MinResultConfidence)
}

func TestRun_DecodeFaultStopsRemainingSteps(t *testing.T) {
	e := newMockEngine()
	e.errs = []error{&barcode.Error{Code: barcode.ErrFileNotFound, Message: "file x.png not found"}}

	var out bytes.Buffer
	r := &Runner{Engine: e, Out: &out, Timed: true}
	err := r.Run(context.Background(), speedPlan())

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindDecode, rerr.Kind)
	assert.Equal(t, TitleDirect, rerr.Step)
	assert.Equal(t, barcode.ErrFileNotFound, barcode.CodeOf(err))
	assert.Len(t, e.calls, 1)
	assert.NotContains(t, out.String(), TitleTemplate)
	assert.NotContains(t, out.String(), "Cost time")
}

func TestRun_EnginePanicBecomesError(t *testing.T) {
	e := newMockEngine()
	e.panicMsg = "native crash"

	var out bytes.Buffer
	r := &Runner{Engine: e, Out: &out}
	var err error
	assert.NotPanics(t, func() { err = r.Run(context.Background(), speedPlan()) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "native crash")
	assert.Contains(t, err.Error(), "decode failed")
}

func TestRun_SettingsFailureIsNonFatal(t *testing.T) {
	e := newMockEngine()
	e.initErr = errors.New("template missing")
	e.results = [][]barcode.Result{nil, pair()}
	rec := metrics.New()

	var out bytes.Buffer
	r := &Runner{Engine: e, Out: &out, Metrics: rec}
	require.NoError(t, r.Run(context.Background(), speedPlan()))

	assert.Contains(t, out.String(), "settings failed ("+TitleTemplate+"): load template SpeedFirstTemplate.json: template missing")
	assert.Contains(t, out.String(), "Barcode 2:QR_CODE,QR-PAYLOAD")
	assert.Len(t, e.calls, 2)
	n, err := promtestutil.GatherAndCount(rec.Registry(), "bartune_settings_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRun_LicenseFailureIsNonFatal(t *testing.T) {
	e := newMockEngine()
	auth := &stubAuthorizer{err: &license.Error{Code: -10003, Message: "trial expired"}}

	var out bytes.Buffer
	params := license.DefaultParams()
	r := &Runner{License: auth, LicenseParams: params, Engine: e, Out: &out}
	require.NoError(t, r.Run(context.Background(), speedPlan()))

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "license failed: license: verification refused (code -10003): trial expired", lines[0])
	require.NotNil(t, e.licensed)
	assert.False(t, *e.licensed)
	assert.Equal(t, params.OrganizationID, auth.params.OrganizationID)
	assert.Len(t, e.calls, 2)
}

func TestRun_LicenseSuccess(t *testing.T) {
	e := newMockEngine()
	var out bytes.Buffer
	r := &Runner{License: &stubAuthorizer{}, Engine: e, Out: &out}
	require.NoError(t, r.Run(context.Background(), speedPlan()))
	require.NotNil(t, e.licensed)
	assert.True(t, *e.licensed)
	assert.True(t, strings.HasPrefix(out.String(), TitleDirect))
}

func TestRun_JSONFormat(t *testing.T) {
	e := newMockEngine()
	e.results = [][]barcode.Result{pair()}
	e.initErr = errors.New("template missing")
	auth := &stubAuthorizer{err: &license.Error{Code: -10003, Message: "trial expired"}}

	var out bytes.Buffer
	r := &Runner{License: auth, Engine: e, Out: &out, Format: report.FormatJSON, Timed: true}
	require.NoError(t, r.Run(context.Background(), speedPlan()))

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "{"), s)
	assert.NotContains(t, s, TitleDirect+"\n")
	assert.NotContains(t, s, "settings failed")
	assert.Contains(t, s, `"strategy": "speed-first"`)
	assert.Contains(t, s, `"QR-PAYLOAD"`)

	var doc struct {
		Steps []report.Entry `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Len(t, doc.Steps, 2)
	assert.Empty(t, doc.Steps[0].SettingsError)
	assert.Equal(t, "load template SpeedFirstTemplate.json: template missing", doc.Steps[1].SettingsError)
	for _, step := range doc.Steps {
		assert.Equal(t, "license: verification refused (code -10003): trial expired", step.LicenseError)
	}
}

func TestRun_InvalidPlan(t *testing.T) {
	r := &Runner{Engine: newMockEngine(), Out: &bytes.Buffer{}}
	assert.Error(t, r.Run(context.Background(), Plan{Image: "x.png"}))
	assert.Error(t, (&Runner{}).Run(context.Background(), speedPlan()))
}

func TestInvoke(t *testing.T) {
	e := newMockEngine()
	e.results = [][]barcode.Result{pair()}

	o := Invoke(context.Background(), e, "a.png", "SpeedFirst", true)
	require.NoError(t, o.Err)
	assert.Len(t, o.Results, 2)
	assert.True(t, o.Timed)
	require.NotNil(t, o.ElapsedPtr())
	assert.GreaterOrEqual(t, *o.ElapsedPtr(), time.Duration(0))
	assert.Equal(t, "SpeedFirst", e.calls[0].profile)

	o = Invoke(context.Background(), e, "a.png", "", false)
	assert.Nil(t, o.ElapsedPtr())
	assert.Empty(t, o.Results)
}

func TestErrorKinds(t *testing.T) {
	err := &Error{Kind: KindSettings, Step: "s", Err: errors.New("x")}
	assert.Equal(t, "settings failed (s): x", err.Error())
	assert.Equal(t, "license failed: y", (&Error{Kind: KindLicense, Err: errors.New("y")}).Error())
	assert.Equal(t, "decode", KindDecode.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
