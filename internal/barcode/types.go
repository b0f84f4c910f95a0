package barcode

import (
	"image"
	"sort"
	"strings"
)

// Format is a bitmask of symbologies from the primary format group.
type Format uint32

const (
	FormatNull       Format = 0
	FormatCode39     Format = 0x1
	FormatCode128    Format = 0x2
	FormatCode93     Format = 0x4
	FormatCodabar    Format = 0x8
	FormatITF        Format = 0x10
	FormatEAN13      Format = 0x20
	FormatEAN8       Format = 0x40
	FormatUPCA       Format = 0x80
	FormatUPCE       Format = 0x100
	FormatPDF417     Format = 0x02000000
	FormatQRCode     Format = 0x04000000
	FormatDataMatrix Format = 0x08000000
	FormatAztec      Format = 0x10000000

	// FormatOneD covers every linear symbology.
	FormatOneD = FormatCode39 | FormatCode128 | FormatCode93 | FormatCodabar |
		FormatITF | FormatEAN13 | FormatEAN8 | FormatUPCA | FormatUPCE

	// FormatAll covers every symbology of the primary group.
	FormatAll = FormatOneD | FormatPDF417 | FormatQRCode | FormatDataMatrix | FormatAztec
)

// Format2 is a bitmask of symbologies from the secondary format group.
type Format2 uint32

const (
	Format2Null       Format2 = 0
	Format2DotCode    Format2 = 0x2
	Format2Pharmacode Format2 = 0xC
	Format2PostalCode Format2 = 0x01F00000
)

var formatNames = map[Format]string{
	FormatCode39:     "CODE_39",
	FormatCode128:    "CODE_128",
	FormatCode93:     "CODE_93",
	FormatCodabar:    "CODABAR",
	FormatITF:        "ITF",
	FormatEAN13:      "EAN_13",
	FormatEAN8:       "EAN_8",
	FormatUPCA:       "UPC_A",
	FormatUPCE:       "UPC_E",
	FormatPDF417:     "PDF417",
	FormatQRCode:     "QR_CODE",
	FormatDataMatrix: "DATAMATRIX",
	FormatAztec:      "AZTEC",
}

var formatGroups = map[string]Format{
	"NULL": FormatNull,
	"ONED": FormatOneD,
	"ALL":  FormatAll,
}

var format2Names = map[Format2]string{
	Format2DotCode:    "DOTCODE",
	Format2Pharmacode: "PHARMACODE",
	Format2PostalCode: "POSTALCODE",
}

// String returns the canonical name of a single format, or a '|' separated
// list for a mask.
func (f Format) String() string {
	if f == FormatNull {
		return "NULL"
	}
	if name, ok := formatNames[f]; ok {
		return name
	}
	if f == FormatOneD {
		return "ONED"
	}
	var parts []string
	for _, bit := range f.Bits() {
		parts = append(parts, formatNames[bit])
	}
	if len(parts) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(parts, "|")
}

// Bits splits a mask into its known single-format bits in ascending order.
func (f Format) Bits() []Format {
	var out []Format
	for bit := range formatNames {
		if f&bit != 0 {
			out = append(out, bit)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether every bit of other is set in f.
func (f Format) Has(other Format) bool { return other != 0 && f&other == other }

// String returns the canonical name of a secondary format.
func (f Format2) String() string {
	if f == Format2Null {
		return "NULL"
	}
	if name, ok := format2Names[f]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseFormat parses a format or format group name. It accepts the
// template spelling ("BF_EAN_13"), the canonical name ("EAN_13") and the
// short CLI spelling ("ean13").
func ParseFormat(s string) (Format, bool) {
	key := normalizeName(s, "BF_")
	if f, ok := formatGroups[key]; ok {
		return f, true
	}
	for f, name := range formatNames {
		if key == name || key == strings.ReplaceAll(name, "_", "") {
			return f, true
		}
	}
	return 0, false
}

// ParseFormat2 parses a secondary format name such as "BF2_NULL".
func ParseFormat2(s string) (Format2, bool) {
	key := normalizeName(s, "BF2_")
	if key == "NULL" {
		return Format2Null, true
	}
	for f, name := range format2Names {
		if key == name {
			return f, true
		}
	}
	return 0, false
}

func normalizeName(s, prefix string) string {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	return strings.TrimPrefix(key, prefix)
}

// Result is a single decoded barcode.
type Result struct {
	Format        Format        `json:"format"`
	FormatString  string        `json:"format_string"`
	Format2       Format2       `json:"format_2"`
	FormatString2 string        `json:"format_string_2"`
	Text          string        `json:"text"`
	Confidence    int           `json:"confidence"`
	Points        []image.Point `json:"points,omitempty"`
	// Page is the 1-based PDF page the barcode was found on; 0 for images.
	Page int `json:"page,omitempty"`
}

// DisplayFormat returns the primary format string, falling back to the
// secondary one when the primary format is unset.
func (r Result) DisplayFormat() string {
	if r.Format == FormatNull {
		return r.FormatString2
	}
	return r.FormatString
}
