package barcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuntimeSettings(t *testing.T) {
	s := DefaultRuntimeSettings()
	require.NoError(t, s.validate())
	assert.Equal(t, FormatAll, s.BarcodeFormatIDs)
	assert.Equal(t, DefaultScaleDownThreshold, s.ScaleDownThreshold)
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, BMLocalBlock, s.BinarizationModes[0])
	assert.Equal(t, LMConnectedBlocks, s.LocalizationModes[0])
}

func TestRuntimeSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RuntimeSettings)
	}{
		{"unknown format bit", func(s *RuntimeSettings) { s.BarcodeFormatIDs = 0x200 }},
		{"negative expected count", func(s *RuntimeSettings) { s.ExpectedBarcodesCount = -1 }},
		{"confidence above max", func(s *RuntimeSettings) { s.MinResultConfidence = 101 }},
		{"negative text length", func(s *RuntimeSettings) { s.MinBarcodeTextLength = -3 }},
		{"scale down too small", func(s *RuntimeSettings) { s.ScaleDownThreshold = 100 }},
		{"negative timeout", func(s *RuntimeSettings) { s.Timeout = -1 }},
		{"timeout above maximum", func(s *RuntimeSettings) { s.Timeout = MaxTimeout + 1 }},
		{"invalid localization", func(s *RuntimeSettings) { s.LocalizationModes[2] = LocalizationMode(99) }},
		{"invalid deblur", func(s *RuntimeSettings) { s.DeblurModes[9] = DeblurMode(-2) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultRuntimeSettings()
			tt.mutate(&s)
			err := s.validate()
			require.Error(t, err)
			assert.Equal(t, ErrParameterValueInvalid, CodeOf(err))
		})
	}
}

func TestReader_UpdateRuntimeSettings(t *testing.T) {
	r := NewReader()

	s := r.GetRuntimeSettings()
	s.BarcodeFormatIDs = FormatOneD
	s.MinResultConfidence = 30
	// not committed yet
	assert.Equal(t, FormatAll, r.GetRuntimeSettings().BarcodeFormatIDs)

	require.NoError(t, r.UpdateRuntimeSettings(s))
	got := r.GetRuntimeSettings()
	assert.Equal(t, FormatOneD, got.BarcodeFormatIDs)
	assert.Equal(t, 30, got.MinResultConfidence)

	bad := got
	bad.MinResultConfidence = 500
	err := r.UpdateRuntimeSettings(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &Error{Code: ErrParameterValueInvalid}))
	assert.Equal(t, 30, r.GetRuntimeSettings().MinResultConfidence, "rejected update must not change the record")
}

func TestReader_ResetRuntimeSettings(t *testing.T) {
	r := NewReader()
	s := r.GetRuntimeSettings()
	s.Timeout = 5
	require.NoError(t, r.UpdateRuntimeSettings(s))

	r.ResetRuntimeSettings()
	assert.Equal(t, DefaultRuntimeSettings(), r.GetRuntimeSettings())
	assert.Empty(t, r.ProfileNames())
}

func TestReader_SetModeArgument(t *testing.T) {
	r := NewReader()
	s := r.GetRuntimeSettings()
	s.LocalizationModes = [MaxLocalizationModes]LocalizationMode{LMScanDirectly}
	require.NoError(t, r.UpdateRuntimeSettings(s))

	require.NoError(t, r.SetModeArgument(ListBinarizationModes, 0, ArgEnableFillBinaryVacancy, "0"))
	require.NoError(t, r.SetModeArgument(ListLocalizationModes, 0, ArgScanDirection, "2"))

	v, err := r.GetModeArgument(ListBinarizationModes, 0, ArgEnableFillBinaryVacancy)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	v, err = r.GetModeArgument(ListLocalizationModes, 0, "scandirection")
	require.NoError(t, err)
	assert.Equal(t, ScanHorizontal, v)
}

func TestReader_SetModeArgumentErrors(t *testing.T) {
	r := NewReader()

	tests := []struct {
		name  string
		list  string
		index int
		arg   string
		value string
		code  ErrorCode
	}{
		{"unknown list", "ColourModes", 0, ArgScanDirection, "0", ErrModeArgumentInvalid},
		{"index out of range", ListBinarizationModes, 8, ArgEnableFillBinaryVacancy, "0", ErrModeArgumentInvalid},
		{"unknown argument", ListBinarizationModes, 0, "BlockSizeX", "3", ErrModeArgumentInvalid},
		{"mode does not take argument", ListLocalizationModes, 0, ArgScanDirection, "0", ErrModeArgumentInvalid},
		{"skip slot", ListBinarizationModes, 3, ArgEnableFillBinaryVacancy, "0", ErrModeArgumentInvalid},
		{"value out of range", ListBinarizationModes, 0, ArgEnableFillBinaryVacancy, "7", ErrParameterValueInvalid},
		{"value not a number", ListBinarizationModes, 0, ArgEnableFillBinaryVacancy, "yes", ErrParameterValueInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.SetModeArgument(tt.list, tt.index, tt.arg, tt.value)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestReader_ModeArgumentResetWhenSlotChanges(t *testing.T) {
	r := NewReader()
	require.NoError(t, r.SetModeArgument(ListBinarizationModes, 0, ArgEnableFillBinaryVacancy, "0"))

	s := r.GetRuntimeSettings()
	s.BinarizationModes[0] = BMThreshold
	require.NoError(t, r.UpdateRuntimeSettings(s))
	s.BinarizationModes[0] = BMLocalBlock
	require.NoError(t, r.UpdateRuntimeSettings(s))

	v, err := r.GetModeArgument(ListBinarizationModes, 0, ArgEnableFillBinaryVacancy)
	require.NoError(t, err)
	assert.Equal(t, 1, v, "argument falls back to its default after the slot changed mode")
}

func TestErrorIs(t *testing.T) {
	err := wrapError(ErrFileNotFound, errors.New("stat failed"), "file %s not found", "x.png")
	assert.True(t, errors.Is(err, &Error{Code: ErrFileNotFound}))
	assert.False(t, errors.Is(err, &Error{Code: ErrImageReadFailed}))
	assert.Contains(t, err.Error(), "x.png")
	assert.Contains(t, err.Error(), "stat failed")
	assert.Equal(t, ErrUnknown, CodeOf(errors.New("plain")))
}
