package barcode

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const templateSchemaJSON = `{
  "type": "object",
  "properties": {
    "Version": {"type": "string"},
    "ImageParameter": {"$ref": "#/$defs/imageParameter"},
    "ImageParameterContentArray": {"type": "array", "items": {"$ref": "#/$defs/imageParameter"}}
  },
  "anyOf": [
    {"required": ["ImageParameter"]},
    {"required": ["ImageParameterContentArray"]}
  ],
  "$defs": {
    "imageParameter": {
      "type": "object",
      "required": ["Name"],
      "properties": {
        "Name": {"type": "string", "minLength": 1},
        "BarcodeFormatIds": {"type": "array", "items": {"type": "string"}},
        "BarcodeFormatIds_2": {"type": "array", "items": {"type": "string"}},
        "ExpectedBarcodesCount": {"type": "integer", "minimum": 0},
        "MinResultConfidence": {"type": "integer", "minimum": 0, "maximum": 100},
        "MinBarcodeTextLength": {"type": "integer", "minimum": 0},
        "ScaleDownThreshold": {"type": "integer", "minimum": 512},
        "Timeout": {"type": "integer", "minimum": 0},
        "BinarizationModes": {"$ref": "#/$defs/modeList"},
        "LocalizationModes": {"$ref": "#/$defs/modeList"},
        "DeblurModes": {"$ref": "#/$defs/modeList"}
      }
    },
    "modeList": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["Mode"],
        "properties": {"Mode": {"type": "string"}},
        "additionalProperties": {"type": ["integer", "string"]}
      }
    }
  }
}`

var templateSchema = jsonschema.MustCompileString("template.schema.json", templateSchemaJSON)

// TemplateFormat is the serialization of a parameter template.
type TemplateFormat int

const (
	TemplateAuto TemplateFormat = iota
	TemplateJSON
	TemplateYAML
)

type templateFile struct {
	Version                    string           `json:"Version"`
	ImageParameter             *imageParameter  `json:"ImageParameter"`
	ImageParameterContentArray []imageParameter `json:"ImageParameterContentArray"`
}

type imageParameter struct {
	Name                  string           `json:"Name"`
	BarcodeFormatIDs      []string         `json:"BarcodeFormatIds"`
	BarcodeFormatIDs2     []string         `json:"BarcodeFormatIds_2"`
	ExpectedBarcodesCount *int             `json:"ExpectedBarcodesCount"`
	MinResultConfidence   *int             `json:"MinResultConfidence"`
	MinBarcodeTextLength  *int             `json:"MinBarcodeTextLength"`
	ScaleDownThreshold    *int             `json:"ScaleDownThreshold"`
	Timeout               *int             `json:"Timeout"`
	BinarizationModes     []map[string]any `json:"BinarizationModes"`
	LocalizationModes     []map[string]any `json:"LocalizationModes"`
	DeblurModes           []map[string]any `json:"DeblurModes"`
}

func (t *templateFile) parameters() []imageParameter {
	var out []imageParameter
	if t.ImageParameter != nil {
		out = append(out, *t.ImageParameter)
	}
	return append(out, t.ImageParameterContentArray...)
}

// parseTemplate decodes and validates template data.
func parseTemplate(data []byte, format TemplateFormat) (*templateFile, error) {
	if format == TemplateAuto {
		format = sniffTemplateFormat(data)
	}
	if format == TemplateYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, wrapError(ErrJSONParseFailed, err, "invalid YAML template")
		}
		normalized, err := json.Marshal(doc)
		if err != nil {
			return nil, wrapError(ErrJSONParseFailed, err, "YAML template cannot be represented as JSON")
		}
		data = normalized
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, wrapError(ErrJSONParseFailed, err, "invalid JSON template")
	}
	if err := templateSchema.Validate(raw); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, wrapError(ErrJSONTypeInvalid, err, "template does not match the schema")
		}
		return nil, wrapError(ErrJSONParseFailed, err, "template validation failed")
	}

	var tpl templateFile
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, wrapError(ErrJSONTypeInvalid, err, "template has unexpected value types")
	}
	return &tpl, nil
}

func sniffTemplateFormat(data []byte) TemplateFormat {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return TemplateJSON
	}
	return TemplateYAML
}

func templateFormatForPath(path string) TemplateFormat {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return TemplateYAML
	case strings.HasSuffix(lower, ".json"):
		return TemplateJSON
	default:
		return TemplateAuto
	}
}

// applyParameter merges p into (s, args). With ConflictIgnore a field is
// only taken from the template while the current value still equals the
// default.
func applyParameter(s *RuntimeSettings, args modeArgs, p imageParameter, mode ConflictMode) error {
	def := DefaultRuntimeSettings()
	take := func(isDefault bool) bool { return mode == ConflictOverwrite || isDefault }

	if p.BarcodeFormatIDs != nil && take(s.BarcodeFormatIDs == def.BarcodeFormatIDs) {
		var mask Format
		for _, name := range p.BarcodeFormatIDs {
			f, ok := ParseFormat(name)
			if !ok {
				return newError(ErrParameterValueInvalid, "%s: unknown barcode format %q", p.Name, name)
			}
			mask |= f
		}
		s.BarcodeFormatIDs = mask
	}
	if p.BarcodeFormatIDs2 != nil && take(s.BarcodeFormatIDs2 == def.BarcodeFormatIDs2) {
		var mask Format2
		for _, name := range p.BarcodeFormatIDs2 {
			f, ok := ParseFormat2(name)
			if !ok {
				return newError(ErrParameterValueInvalid, "%s: unknown barcode format %q", p.Name, name)
			}
			mask |= f
		}
		s.BarcodeFormatIDs2 = mask
	}

	ints := []struct {
		src *int
		dst *int
		def int
	}{
		{p.ExpectedBarcodesCount, &s.ExpectedBarcodesCount, def.ExpectedBarcodesCount},
		{p.MinResultConfidence, &s.MinResultConfidence, def.MinResultConfidence},
		{p.MinBarcodeTextLength, &s.MinBarcodeTextLength, def.MinBarcodeTextLength},
		{p.ScaleDownThreshold, &s.ScaleDownThreshold, def.ScaleDownThreshold},
		{p.Timeout, &s.Timeout, def.Timeout},
	}
	for _, f := range ints {
		if f.src != nil && take(*f.dst == f.def) {
			*f.dst = *f.src
		}
	}

	if p.BinarizationModes != nil && take(s.BinarizationModes == def.BinarizationModes) {
		var modes [MaxBinarizationModes]BinarizationMode
		if err := applyModeList(ListBinarizationModes, p.BinarizationModes, MaxBinarizationModes, func(i int, name string) bool {
			m, ok := ParseBinarizationMode(name)
			modes[i] = m
			return ok
		}); err != nil {
			return err
		}
		s.BinarizationModes = modes
		if err := applyModeArgs(s, args, ListBinarizationModes, p.BinarizationModes); err != nil {
			return err
		}
	}
	if p.LocalizationModes != nil && take(s.LocalizationModes == def.LocalizationModes) {
		var modes [MaxLocalizationModes]LocalizationMode
		if err := applyModeList(ListLocalizationModes, p.LocalizationModes, MaxLocalizationModes, func(i int, name string) bool {
			m, ok := ParseLocalizationMode(name)
			modes[i] = m
			return ok
		}); err != nil {
			return err
		}
		s.LocalizationModes = modes
		if err := applyModeArgs(s, args, ListLocalizationModes, p.LocalizationModes); err != nil {
			return err
		}
	}
	if p.DeblurModes != nil && take(s.DeblurModes == def.DeblurModes) {
		var modes [MaxDeblurModes]DeblurMode
		if err := applyModeList(ListDeblurModes, p.DeblurModes, MaxDeblurModes, func(i int, name string) bool {
			m, ok := ParseDeblurMode(name)
			modes[i] = m
			return ok
		}); err != nil {
			return err
		}
		s.DeblurModes = modes
		if err := applyModeArgs(s, args, ListDeblurModes, p.DeblurModes); err != nil {
			return err
		}
	}
	return nil
}

func applyModeList(list string, entries []map[string]any, limit int, set func(i int, name string) bool) error {
	if len(entries) > limit {
		return newError(ErrParameterValueInvalid, "%s holds %d entries, at most %d allowed", list, len(entries), limit)
	}
	for i, e := range entries {
		name, _ := e["Mode"].(string)
		if !set(i, name) {
			return newError(ErrParameterValueInvalid, "%s[%d]: unknown mode %q", list, i, name)
		}
	}
	return nil
}

// applyModeArgs replaces the argument overrides of a list with the extra
// keys of each template entry.
func applyModeArgs(s *RuntimeSettings, args modeArgs, list string, entries []map[string]any) error {
	args.dropList(list)
	for i, e := range entries {
		for key, val := range e {
			if key == "Mode" {
				continue
			}
			if err := args.setArg(*s, list, i, key, argString(val)); err != nil {
				return err
			}
		}
	}
	return nil
}

func argString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
