package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Payloads with valid check digits.
const (
	EAN13Text   = "4006381333931"
	EAN8Text    = "96385074"
	Code128Text = "BARTUNE-128"
	QRText      = "https://example.com/bartune"
)

// BarcodeSpec describes a synthetic barcode image.
type BarcodeSpec struct {
	Format gozxing.BarcodeFormat
	Text   string
	Width  int
	Height int
	// Margin is white space added around the symbol in pixels.
	Margin int
	// Caption draws the payload below the symbol.
	Caption bool
}

// EAN13Spec returns a decodable EAN-13 fixture.
func EAN13Spec() BarcodeSpec {
	return BarcodeSpec{Format: gozxing.BarcodeFormat_EAN_13, Text: EAN13Text, Width: 380, Height: 160, Margin: 30}
}

// QRSpec returns a decodable QR code fixture.
func QRSpec() BarcodeSpec {
	return BarcodeSpec{Format: gozxing.BarcodeFormat_QR_CODE, Text: QRText, Width: 240, Height: 240, Margin: 20}
}

// Code128Spec returns a decodable Code 128 fixture.
func Code128Spec() BarcodeSpec {
	return BarcodeSpec{Format: gozxing.BarcodeFormat_CODE_128, Text: Code128Text, Width: 420, Height: 140, Margin: 30}
}

func writerFor(f gozxing.BarcodeFormat) (gozxing.Writer, error) {
	switch f {
	case gozxing.BarcodeFormat_EAN_13:
		return oned.NewEAN13Writer(), nil
	case gozxing.BarcodeFormat_EAN_8:
		return oned.NewEAN8Writer(), nil
	case gozxing.BarcodeFormat_UPC_A:
		return oned.NewUPCAWriter(), nil
	case gozxing.BarcodeFormat_CODE_128:
		return oned.NewCode128Writer(), nil
	case gozxing.BarcodeFormat_CODE_39:
		return oned.NewCode39Writer(), nil
	case gozxing.BarcodeFormat_QR_CODE:
		return qrcode.NewQRCodeWriter(), nil
	default:
		return nil, fmt.Errorf("no writer for %v", f)
	}
}

// GenerateBarcodeImage renders spec on a white background.
func GenerateBarcodeImage(spec BarcodeSpec) (*image.NRGBA, error) {
	w, err := writerFor(spec.Format)
	if err != nil {
		return nil, err
	}
	matrix, err := w.Encode(spec.Text, spec.Format, spec.Width, spec.Height, nil)
	if err != nil {
		return nil, fmt.Errorf("encode %v %q: %w", spec.Format, spec.Text, err)
	}

	symbol := imaging.Clone(matrix)
	b := symbol.Bounds()
	captionHeight := 0
	if spec.Caption {
		captionHeight = basicfont.Face7x13.Metrics().Height.Ceil() + 6
	}
	canvas := imaging.New(b.Dx()+2*spec.Margin, b.Dy()+2*spec.Margin+captionHeight, color.White)
	canvas = imaging.Paste(canvas, symbol, image.Pt(spec.Margin, spec.Margin))

	if spec.Caption {
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
		}
		width := d.MeasureString(spec.Text).Ceil()
		d.Dot = fixed.P((canvas.Bounds().Dx()-width)/2, spec.Margin+b.Dy()+captionHeight-3)
		d.DrawString(spec.Text)
	}
	return canvas, nil
}

// SideBySide places images left to right on a white canvas with gap
// pixels between them.
func SideBySide(gap int, imgs ...image.Image) *image.NRGBA {
	width, height := gap, 0
	for _, img := range imgs {
		width += img.Bounds().Dx() + gap
		height = max(height, img.Bounds().Dy())
	}
	canvas := imaging.New(width, height+2*gap, color.White)
	x := gap
	for _, img := range imgs {
		canvas = imaging.Paste(canvas, img, image.Pt(x, gap))
		x += img.Bounds().Dx() + gap
	}
	return canvas
}

// SavePNG encodes img to path.
func SavePNG(img image.Image, path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // G304: test output path
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteBarcodePNG renders spec into dir/name and returns the path.
func WriteBarcodePNG(t *testing.T, dir, name string, spec BarcodeSpec) string {
	t.Helper()

	img, err := GenerateBarcodeImage(spec)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, SavePNG(img, path))
	return path
}

// WriteBlankPNG writes a white image without any symbol.
func WriteBlankPNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, SavePNG(imaging.New(width, height, color.White), path))
	return path
}
