package barcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"BF_EAN_13", FormatEAN13, true},
		{"EAN_13", FormatEAN13, true},
		{"ean13", FormatEAN13, true},
		{"qr-code", FormatQRCode, true},
		{"BF_ONED", FormatOneD, true},
		{"BF_ALL", FormatAll, true},
		{"BF_NULL", FormatNull, true},
		{"BF_DOTCODE", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFormat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat2(t *testing.T) {
	f, ok := ParseFormat2("BF2_NULL")
	assert.True(t, ok)
	assert.Equal(t, Format2Null, f)

	f, ok = ParseFormat2("bf2_postalcode")
	assert.True(t, ok)
	assert.Equal(t, Format2PostalCode, f)

	_, ok = ParseFormat2("BF2_QR")
	assert.False(t, ok)
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "EAN_13", FormatEAN13.String())
	assert.Equal(t, "QR_CODE", FormatQRCode.String())
	assert.Equal(t, "NULL", FormatNull.String())
	assert.Equal(t, "ONED", FormatOneD.String())
	assert.Equal(t, "CODE_39|EAN_13", (FormatCode39 | FormatEAN13).String())
	assert.Equal(t, "PHARMACODE", Format2Pharmacode.String())
}

func TestFormatOneDExcludesTwoD(t *testing.T) {
	for _, f := range []Format{FormatQRCode, FormatDataMatrix, FormatAztec, FormatPDF417} {
		assert.False(t, FormatOneD.Has(f), f.String())
		assert.True(t, FormatAll.Has(f), f.String())
	}
	for _, f := range []Format{FormatEAN13, FormatCode128, FormatUPCE, FormatITF} {
		assert.True(t, FormatOneD.Has(f), f.String())
	}
	assert.Len(t, FormatAll.Bits(), 13)
}

func TestResultDisplayFormat(t *testing.T) {
	r := Result{Format: FormatEAN13, FormatString: "EAN_13", FormatString2: "NULL"}
	assert.Equal(t, "EAN_13", r.DisplayFormat())

	r = Result{Format: FormatNull, FormatString: "NULL", FormatString2: "POSTALCODE"}
	assert.Equal(t, "POSTALCODE", r.DisplayFormat())
}

func TestModeNames(t *testing.T) {
	m, ok := ParseLocalizationMode("lm_scan_directly")
	assert.True(t, ok)
	assert.Equal(t, LMScanDirectly, m)
	assert.Equal(t, "LM_SCAN_DIRECTLY", m.String())

	d, ok := ParseDeblurMode("DM_BASED_ON_LOC_BIN")
	assert.True(t, ok)
	assert.Equal(t, DMBasedOnLocBin, d)

	_, ok = ParseBinarizationMode("BM_MAGIC")
	assert.False(t, ok)
	assert.Equal(t, "UNKNOWN", BinarizationMode(42).String())
	assert.False(t, LocalizationMode(-1).Valid())

	c, ok := ParseConflictMode("overwrite")
	assert.True(t, ok)
	assert.Equal(t, ConflictOverwrite, c)
	assert.Equal(t, "CM_IGNORE", ConflictIgnore.String())
}
