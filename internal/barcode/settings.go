package barcode

// RuntimeSettings is the settings record controlling a decode call. It is
// a plain value: GetRuntimeSettings hands out a copy and changes only take
// effect after UpdateRuntimeSettings.
type RuntimeSettings struct {
	BarcodeFormatIDs      Format  `json:"barcode_format_ids"`
	BarcodeFormatIDs2     Format2 `json:"barcode_format_ids_2"`
	ExpectedBarcodesCount int     `json:"expected_barcodes_count"`
	MinResultConfidence   int     `json:"min_result_confidence"`
	MinBarcodeTextLength  int     `json:"min_barcode_text_length"`
	// ScaleDownThreshold caps the longer image side before localization.
	ScaleDownThreshold int `json:"scale_down_threshold"`

	// Mode lists are tried in slot order; SKIP slots are ignored.
	BinarizationModes [MaxBinarizationModes]BinarizationMode `json:"binarization_modes"`
	LocalizationModes [MaxLocalizationModes]LocalizationMode `json:"localization_modes"`
	DeblurModes       [MaxDeblurModes]DeblurMode             `json:"deblur_modes"`

	// Timeout in milliseconds; 0 disables it.
	Timeout int `json:"timeout"`
}

// Engine limits.
const (
	DefaultScaleDownThreshold = 2300
	MinScaleDownThreshold     = 512
	DefaultTimeout            = 10000
	MaxTimeout                = 0x7fffffff
	MaxConfidence             = 100
)

// DefaultRuntimeSettings returns the engine defaults.
func DefaultRuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		BarcodeFormatIDs:   FormatAll,
		BarcodeFormatIDs2:  Format2Null,
		ScaleDownThreshold: DefaultScaleDownThreshold,
		BinarizationModes:  [MaxBinarizationModes]BinarizationMode{BMLocalBlock},
		LocalizationModes: [MaxLocalizationModes]LocalizationMode{
			LMConnectedBlocks, LMScanDirectly, LMStatistics, LMLines,
		},
		DeblurModes: [MaxDeblurModes]DeblurMode{
			DMDirectBinarization, DMThresholdBinarization, DMGrayEqualization,
			DMSmoothing, DMMorphing, DMDeepAnalysis, DMSharpening,
			DMBasedOnLocBin, DMSharpeningSmoothing,
		},
		Timeout: DefaultTimeout,
	}
}

// validate reports the first field holding a value outside the engine
// enumerations or ranges.
func (s RuntimeSettings) validate() error {
	if s.BarcodeFormatIDs&^FormatAll != 0 {
		return newError(ErrParameterValueInvalid, "BarcodeFormatIds 0x%x contains unknown bits", uint32(s.BarcodeFormatIDs))
	}
	if s.BarcodeFormatIDs2&^(Format2DotCode|Format2Pharmacode|Format2PostalCode) != 0 {
		return newError(ErrParameterValueInvalid, "BarcodeFormatIds_2 0x%x contains unknown bits", uint32(s.BarcodeFormatIDs2))
	}
	if s.ExpectedBarcodesCount < 0 {
		return newError(ErrParameterValueInvalid, "ExpectedBarcodesCount %d must not be negative", s.ExpectedBarcodesCount)
	}
	if s.MinResultConfidence < 0 || s.MinResultConfidence > MaxConfidence {
		return newError(ErrParameterValueInvalid, "MinResultConfidence %d must be within [0, %d]", s.MinResultConfidence, MaxConfidence)
	}
	if s.MinBarcodeTextLength < 0 {
		return newError(ErrParameterValueInvalid, "MinBarcodeTextLength %d must not be negative", s.MinBarcodeTextLength)
	}
	if s.ScaleDownThreshold < MinScaleDownThreshold {
		return newError(ErrParameterValueInvalid, "ScaleDownThreshold %d must be at least %d", s.ScaleDownThreshold, MinScaleDownThreshold)
	}
	if s.Timeout < 0 || s.Timeout > MaxTimeout {
		return newError(ErrParameterValueInvalid, "Timeout %d must be within [0, %d]", s.Timeout, MaxTimeout)
	}
	for i, m := range s.BinarizationModes {
		if !m.Valid() {
			return newError(ErrParameterValueInvalid, "BinarizationModes[%d] has invalid value %d", i, int(m))
		}
	}
	for i, m := range s.LocalizationModes {
		if !m.Valid() {
			return newError(ErrParameterValueInvalid, "LocalizationModes[%d] has invalid value %d", i, int(m))
		}
	}
	for i, m := range s.DeblurModes {
		if !m.Valid() {
			return newError(ErrParameterValueInvalid, "DeblurModes[%d] has invalid value %d", i, int(m))
		}
	}
	return nil
}
