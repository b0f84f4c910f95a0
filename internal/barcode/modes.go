package barcode

import "strings"

// BinarizationMode selects how a grayscale image is turned into a bitmap.
type BinarizationMode int

const (
	BMSkip BinarizationMode = iota
	BMAuto
	BMLocalBlock
	BMThreshold
)

// LocalizationMode selects how candidate barcode regions are searched.
type LocalizationMode int

const (
	LMSkip LocalizationMode = iota
	LMAuto
	LMConnectedBlocks
	LMStatistics
	LMLines
	LMScanDirectly
	LMStatisticsMarks
	LMStatisticsPostalCode
	LMCentre
	LMOneDFastScan
)

// DeblurMode selects an extra preprocessing pass for blurred images.
type DeblurMode int

const (
	DMSkip DeblurMode = iota
	DMDirectBinarization
	DMThresholdBinarization
	DMGrayEqualization
	DMSmoothing
	DMMorphing
	DMDeepAnalysis
	DMSharpening
	DMBasedOnLocBin
	DMSharpeningSmoothing
)

// Mode list lengths of the settings record.
const (
	MaxBinarizationModes = 8
	MaxLocalizationModes = 8
	MaxDeblurModes       = 10
)

// Mode list names used by templates and SetModeArgument.
const (
	ListBinarizationModes = "BinarizationModes"
	ListLocalizationModes = "LocalizationModes"
	ListDeblurModes       = "DeblurModes"
)

var binarizationNames = []string{"BM_SKIP", "BM_AUTO", "BM_LOCAL_BLOCK", "BM_THRESHOLD"}

var localizationNames = []string{
	"LM_SKIP", "LM_AUTO", "LM_CONNECTED_BLOCKS", "LM_STATISTICS", "LM_LINES",
	"LM_SCAN_DIRECTLY", "LM_STATISTICS_MARKS", "LM_STATISTICS_POSTAL_CODE",
	"LM_CENTRE", "LM_ONED_FAST_SCAN",
}

var deblurNames = []string{
	"DM_SKIP", "DM_DIRECT_BINARIZATION", "DM_THRESHOLD_BINARIZATION",
	"DM_GRAY_EQUALIZATION", "DM_SMOOTHING", "DM_MORPHING", "DM_DEEP_ANALYSIS",
	"DM_SHARPENING", "DM_BASED_ON_LOC_BIN", "DM_SHARPENING_SMOOTHING",
}

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return "UNKNOWN"
	}
	return names[v]
}

func parseEnum(names []string, s string) (int, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == key {
			return i, true
		}
	}
	return 0, false
}

func (m BinarizationMode) String() string { return enumName(binarizationNames, int(m)) }
func (m LocalizationMode) String() string { return enumName(localizationNames, int(m)) }
func (m DeblurMode) String() string       { return enumName(deblurNames, int(m)) }

// Valid reports whether m is a member of the enumeration.
func (m BinarizationMode) Valid() bool { return m >= BMSkip && int(m) < len(binarizationNames) }

// Valid reports whether m is a member of the enumeration.
func (m LocalizationMode) Valid() bool { return m >= LMSkip && int(m) < len(localizationNames) }

// Valid reports whether m is a member of the enumeration.
func (m DeblurMode) Valid() bool { return m >= DMSkip && int(m) < len(deblurNames) }

// ParseBinarizationMode parses a name such as "BM_LOCAL_BLOCK".
func ParseBinarizationMode(s string) (BinarizationMode, bool) {
	v, ok := parseEnum(binarizationNames, s)
	return BinarizationMode(v), ok
}

// ParseLocalizationMode parses a name such as "LM_SCAN_DIRECTLY".
func ParseLocalizationMode(s string) (LocalizationMode, bool) {
	v, ok := parseEnum(localizationNames, s)
	return LocalizationMode(v), ok
}

// ParseDeblurMode parses a name such as "DM_BASED_ON_LOC_BIN".
func ParseDeblurMode(s string) (DeblurMode, bool) {
	v, ok := parseEnum(deblurNames, s)
	return DeblurMode(v), ok
}

// ConflictMode decides how template values interact with existing ones.
type ConflictMode int

const (
	// ConflictIgnore keeps existing non-default values and profiles.
	ConflictIgnore ConflictMode = 1
	// ConflictOverwrite lets template values replace existing ones.
	ConflictOverwrite ConflictMode = 2
)

func (c ConflictMode) String() string {
	switch c {
	case ConflictIgnore:
		return "CM_IGNORE"
	case ConflictOverwrite:
		return "CM_OVERWRITE"
	default:
		return "UNKNOWN"
	}
}

// ParseConflictMode accepts "CM_OVERWRITE", "overwrite", "CM_IGNORE" or "ignore".
func ParseConflictMode(s string) (ConflictMode, bool) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "CM_") {
	case "IGNORE":
		return ConflictIgnore, true
	case "OVERWRITE":
		return ConflictOverwrite, true
	default:
		return 0, false
	}
}
