package support

import (
	"fmt"
	"image"
	"image/color"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/bartune/internal/testutil"
)

var imageSpecs = map[string]func() testutil.BarcodeSpec{
	"EAN-13":   testutil.EAN13Spec,
	"QR":       testutil.QRSpec,
	"Code 128": testutil.Code128Spec,
}

// anImageWithBarcode renders a single symbol into the scenario directory.
func (testCtx *TestContext) anImageWithBarcode(name, kind string) error {
	specFn, ok := imageSpecs[kind]
	if !ok {
		return fmt.Errorf("unknown barcode kind %q", kind)
	}
	img, err := testutil.GenerateBarcodeImage(specFn())
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", kind, err)
	}
	return testCtx.saveImage(name, img)
}

// anImageWithBarcodes renders several symbols side by side.
func (testCtx *TestContext) anImageWithBarcodes(name string, kinds *godog.Table) error {
	var imgs []image.Image
	for _, row := range kinds.Rows {
		kind := row.Cells[0].Value
		specFn, ok := imageSpecs[kind]
		if !ok {
			return fmt.Errorf("unknown barcode kind %q", kind)
		}
		img, err := testutil.GenerateBarcodeImage(specFn())
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", kind, err)
		}
		imgs = append(imgs, img)
	}
	return testCtx.saveImage(name, testutil.SideBySide(40, imgs...))
}

// aBlankImage writes an image without any symbol.
func (testCtx *TestContext) aBlankImage(name string) error {
	return testCtx.saveImage(name, imaging.New(320, 200, color.White))
}

func (testCtx *TestContext) saveImage(name string, img image.Image) error {
	path := testCtx.Path(name)
	if err := testutil.SavePNG(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	testCtx.Images[name] = path
	return nil
}

// RegisterImageSteps registers image fixture steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an image "([^"]*)" with an? (EAN-13|QR|Code 128) barcode$`, testCtx.anImageWithBarcode)
	sc.Step(`^an image "([^"]*)" with the barcodes:$`, testCtx.anImageWithBarcodes)
	sc.Step(`^a blank image "([^"]*)"$`, testCtx.aBlankImage)
}
