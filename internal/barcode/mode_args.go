package barcode

import (
	"strconv"
	"strings"
)

// Mode argument names understood by the engine.
const (
	ArgEnableFillBinaryVacancy = "EnableFillBinaryVacancy"
	ArgScanDirection           = "ScanDirection"
)

// Scan directions for LM_SCAN_DIRECTLY and LM_ONED_FAST_SCAN.
const (
	ScanBoth       = 0
	ScanVertical   = 1
	ScanHorizontal = 2
)

type argSpec struct {
	list     string
	name     string
	modes    []int
	def      int
	min, max int
}

var argSpecs = []argSpec{
	{
		list:  ListBinarizationModes,
		name:  ArgEnableFillBinaryVacancy,
		modes: []int{int(BMAuto), int(BMLocalBlock)},
		def:   1, min: 0, max: 1,
	},
	{
		list:  ListLocalizationModes,
		name:  ArgScanDirection,
		modes: []int{int(LMScanDirectly), int(LMOneDFastScan)},
		def:   ScanBoth, min: 0, max: 2,
	},
}

type argKey struct {
	list  string
	index int
	name  string
}

// modeArgs holds argument overrides per mode-list slot.
type modeArgs map[argKey]int

func (a modeArgs) clone() modeArgs {
	out := make(modeArgs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// get returns the override for a slot or the argument's default.
func (a modeArgs) get(list string, index int, name string) int {
	if v, ok := a[argKey{list: list, index: index, name: name}]; ok {
		return v
	}
	for _, spec := range argSpecs {
		if spec.list == list && spec.name == name {
			return spec.def
		}
	}
	return 0
}

// dropChangedSlots forgets overrides for slots whose mode changed between
// old and updated.
func (a modeArgs) dropChangedSlots(old, updated RuntimeSettings) {
	for k := range a {
		if slotMode(old, k.list, k.index) != slotMode(updated, k.list, k.index) {
			delete(a, k)
		}
	}
}

// dropList forgets every override of a mode list.
func (a modeArgs) dropList(list string) {
	for k := range a {
		if k.list == list {
			delete(a, k)
		}
	}
}

func listLen(list string) int {
	switch list {
	case ListBinarizationModes:
		return MaxBinarizationModes
	case ListLocalizationModes:
		return MaxLocalizationModes
	case ListDeblurModes:
		return MaxDeblurModes
	default:
		return 0
	}
}

func slotMode(s RuntimeSettings, list string, index int) int {
	switch list {
	case ListBinarizationModes:
		return int(s.BinarizationModes[index])
	case ListLocalizationModes:
		return int(s.LocalizationModes[index])
	case ListDeblurModes:
		return int(s.DeblurModes[index])
	default:
		return -1
	}
}

func slotModeName(s RuntimeSettings, list string, index int) string {
	switch list {
	case ListBinarizationModes:
		return s.BinarizationModes[index].String()
	case ListLocalizationModes:
		return s.LocalizationModes[index].String()
	default:
		return s.DeblurModes[index].String()
	}
}

// setArg validates an argument against the mode held by the slot in s and
// stores it in a.
func (a modeArgs) setArg(s RuntimeSettings, list string, index int, name, value string) error {
	n := listLen(list)
	if n == 0 {
		return newError(ErrModeArgumentInvalid, "unknown mode list %q", list)
	}
	if index < 0 || index >= n {
		return newError(ErrModeArgumentInvalid, "%s index %d out of range [0, %d)", list, index, n)
	}
	mode := slotMode(s, list, index)
	var spec *argSpec
	for i := range argSpecs {
		if argSpecs[i].list == list && strings.EqualFold(argSpecs[i].name, name) {
			spec = &argSpecs[i]
			break
		}
	}
	if spec == nil {
		return newError(ErrModeArgumentInvalid, "unknown argument %q for %s", name, list)
	}
	supported := false
	for _, m := range spec.modes {
		if m == mode {
			supported = true
			break
		}
	}
	if !supported {
		return newError(ErrModeArgumentInvalid, "argument %s is not supported by %s[%d] (%s)",
			spec.name, list, index, slotModeName(s, list, index))
	}
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || v < spec.min || v > spec.max {
		return newError(ErrParameterValueInvalid, "value %q for %s must be an integer within [%d, %d]",
			value, spec.name, spec.min, spec.max)
	}
	a[argKey{list: list, index: index, name: spec.name}] = v
	return nil
}
