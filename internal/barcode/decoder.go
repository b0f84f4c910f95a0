package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/text/unicode/norm"
)

// gozxing reports no calibrated confidence, so results are scored by the
// kind of pass that produced them.
const (
	plainPassConfidence  = 100
	deblurPassConfidence = 60
)

type hintMap = map[gozxing.DecodeHintType]interface{}

// transform maps a point of a derived image back to source coordinates.
type transform func(x, y float64) image.Point

type variant struct {
	img  image.Image
	back transform
}

type pass struct {
	binarization  BinarizationMode
	localization  LocalizationMode
	fillVacancy   bool
	scanDirection int
	tryHarder     bool
	confidence    int
}

// decodeJob runs the configured passes over one image.
type decodeJob struct {
	settings RuntimeSettings
	args     modeArgs
	results  []Result
	seen     map[string]bool
	passes   int
}

func newDecodeJob(s RuntimeSettings, args modeArgs) *decodeJob {
	return &decodeJob{settings: s, args: args, seen: make(map[string]bool)}
}

func (j *decodeJob) run(ctx context.Context, src image.Image) []Result {
	img, base := j.prepare(src)

	for bi, bm := range j.settings.BinarizationModes {
		if bm == BMSkip {
			continue
		}
		for li, lm := range j.settings.LocalizationModes {
			if lm == LMSkip {
				continue
			}
			p := j.passFor(bi, li)
			p.confidence = plainPassConfidence
			if j.runPass(ctx, img, base, p) {
				return j.results
			}
		}
	}

	if len(j.results) > 0 {
		return j.results
	}
	for _, dm := range j.settings.DeblurModes {
		if dm == DMSkip {
			continue
		}
		if j.runDeblur(ctx, img, base, dm) {
			break
		}
	}
	return j.results
}

// prepare moves the image to the origin and applies ScaleDownThreshold.
func (j *decodeJob) prepare(src image.Image) (image.Image, transform) {
	b := src.Bounds()
	img := src
	if b.Min != (image.Point{}) {
		img = imaging.Clone(src)
	}
	scale := 1.0
	limit := j.settings.ScaleDownThreshold
	if longest := max(b.Dx(), b.Dy()); limit > 0 && longest > limit {
		img = imaging.Fit(img, limit, limit, imaging.Lanczos)
		fb := img.Bounds()
		scale = float64(longest) / float64(max(fb.Dx(), fb.Dy()))
	}
	return img, func(x, y float64) image.Point {
		return image.Pt(b.Min.X+int(x*scale+0.5), b.Min.Y+int(y*scale+0.5))
	}
}

func (j *decodeJob) passFor(bi, li int) pass {
	lm := j.settings.LocalizationModes[li]
	return pass{
		binarization:  j.settings.BinarizationModes[bi],
		localization:  lm,
		fillVacancy:   j.args.get(ListBinarizationModes, bi, ArgEnableFillBinaryVacancy) == 1,
		scanDirection: j.args.get(ListLocalizationModes, li, ArgScanDirection),
		tryHarder:     lm == LMStatistics || lm == LMLines,
	}
}

// firstPass returns the pass built from the first active binarization and
// localization slots.
func (j *decodeJob) firstPass() pass {
	bi, li := -1, -1
	for i, m := range j.settings.BinarizationModes {
		if m != BMSkip {
			bi = i
			break
		}
	}
	for i, m := range j.settings.LocalizationModes {
		if m != LMSkip {
			li = i
			break
		}
	}
	if bi < 0 || li < 0 {
		return pass{binarization: BMLocalBlock, localization: LMConnectedBlocks}
	}
	return j.passFor(bi, li)
}

func (j *decodeJob) runDeblur(ctx context.Context, img image.Image, base transform, dm DeblurMode) bool {
	p := j.firstPass()
	p.confidence = deblurPassConfidence
	switch dm {
	case DMDirectBinarization:
		p.binarization = BMThreshold
	case DMThresholdBinarization:
		img = imaging.AdjustContrast(imaging.Grayscale(img), 40)
		p.binarization = BMThreshold
	case DMGrayEqualization:
		img = imaging.AdjustContrast(imaging.Grayscale(img), 25)
	case DMSmoothing:
		img = imaging.Blur(img, 1.0)
	case DMMorphing:
		img = imaging.AdjustContrast(imaging.Blur(img, 0.5), 50)
	case DMDeepAnalysis:
		p.localization = LMStatistics
		p.tryHarder = true
	case DMSharpening:
		img = imaging.Sharpen(img, 1.0)
	case DMBasedOnLocBin:
		p.binarization = BMLocalBlock
		p.tryHarder = true
	case DMSharpeningSmoothing:
		img = imaging.Sharpen(imaging.Blur(img, 0.7), 1.5)
	}
	return j.runPass(ctx, img, base, p)
}

func (j *decodeJob) expired(ctx context.Context) bool {
	return j.passes > 0 && ctx.Err() != nil
}

func (j *decodeJob) done() bool {
	if n := j.settings.ExpectedBarcodesCount; n > 0 {
		return len(j.results) >= n
	}
	return len(j.results) > 0
}

// runPass decodes every variant of img for p and reports whether decoding
// should stop.
func (j *decodeJob) runPass(ctx context.Context, img image.Image, base transform, p pass) bool {
	readers := readersFor(j.settings.BarcodeFormatIDs, p.localization)
	if len(readers) == 0 {
		return false
	}
	for _, v := range variantsFor(img, base, p) {
		if j.expired(ctx) {
			return true
		}
		j.passes++
		for _, r := range decodeVariant(v.img, readers, p, j.settings.ExpectedBarcodesCount != 1) {
			j.add(r, v.back, p.confidence)
		}
		if j.done() {
			return true
		}
	}
	return j.expired(ctx)
}

func (j *decodeJob) add(r *gozxing.Result, back transform, confidence int) {
	f := fromZXing(r.GetBarcodeFormat())
	if f == FormatNull || j.settings.BarcodeFormatIDs&f == 0 {
		return
	}
	text := norm.NFC.String(r.GetText())
	if confidence < j.settings.MinResultConfidence || utf8.RuneCountInString(text) < j.settings.MinBarcodeTextLength {
		return
	}
	key := f.String() + "\x00" + text
	if j.seen[key] {
		return
	}
	j.seen[key] = true

	var points []image.Point
	for _, pt := range r.GetResultPoints() {
		points = append(points, back(pt.GetX(), pt.GetY()))
	}
	j.results = append(j.results, Result{
		Format:       f,
		FormatString: f.String(),
		Format2:      Format2Null,
		Text:         text,
		Confidence:   confidence,
		Points:       points,
	})
}

func variantsFor(img image.Image, base transform, p pass) []variant {
	var out []variant
	switch p.localization {
	case LMCentre:
		b := img.Bounds()
		dx, dy := b.Dx()/4, b.Dy()/4
		crop := imaging.Crop(img, image.Rect(dx, dy, b.Dx()-dx, b.Dy()-dy))
		out = []variant{{img: crop, back: func(x, y float64) image.Point {
			return base(x+float64(dx), y+float64(dy))
		}}}
	case LMScanDirectly, LMOneDFastScan:
		identity := variant{img: img, back: base}
		w := float64(img.Bounds().Dx())
		// imaging.Rotate90 turns counter-clockwise: (x, y) -> (y, w-1-x).
		rotated := variant{img: imaging.Rotate90(img), back: func(x, y float64) image.Point {
			return base(w-1-y, x)
		}}
		switch p.scanDirection {
		case ScanHorizontal:
			out = []variant{identity}
		case ScanVertical:
			out = []variant{rotated}
		default:
			out = []variant{identity, rotated}
		}
	default:
		out = []variant{{img: img, back: base}}
	}
	if p.fillVacancy && (p.binarization == BMLocalBlock || p.binarization == BMAuto) {
		for i := range out {
			out[i].img = imaging.Blur(out[i].img, 0.6)
		}
	}
	return out
}

func decodeVariant(img image.Image, readers []formatReader, p pass, wantMulti bool) (results []*gozxing.Result) {
	defer func() {
		if recover() != nil {
			results = nil
		}
	}()

	src := gozxing.NewLuminanceSourceFromImage(img)
	var binarizer gozxing.Binarizer
	if p.binarization == BMThreshold {
		binarizer = gozxing.NewGlobalHistgramBinarizer(src)
	} else {
		binarizer = gozxing.NewHybridBinarizer(src)
	}
	bmp, err := gozxing.NewBinaryBitmap(binarizer)
	if err != nil {
		return nil
	}
	hints := hintMap{}
	if p.tryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	reader := &compositeReader{readers: readers}
	if wantMulti {
		return decodeMultiple(reader, bmp, hints)
	}
	r, err := reader.Decode(bmp, hints)
	if err != nil {
		return nil
	}
	return []*gozxing.Result{r}
}

type formatReader struct {
	format Format
	reader gozxing.Reader
}

var errNoFormatMatched = errors.New("no reader matched")

// compositeReader tries each format reader in order and returns the first hit.
type compositeReader struct {
	readers []formatReader
}

func (c *compositeReader) Decode(bmp *gozxing.BinaryBitmap, hints hintMap) (*gozxing.Result, error) {
	err := errNoFormatMatched
	for _, fr := range c.readers {
		res, derr := safeDecode(fr.reader, bmp, hints)
		if derr == nil {
			return res, nil
		}
		err = derr
	}
	return nil, err
}

// safeDecode turns a reader panic on malformed input into an error.
func safeDecode(r gozxing.Reader, bmp *gozxing.BinaryBitmap, hints hintMap) (res *gozxing.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, fmt.Errorf("reader panic: %v", p)
		}
	}()
	return r.Decode(bmp, hints)
}

func (c *compositeReader) DecodeWithoutHints(bmp *gozxing.BinaryBitmap) (*gozxing.Result, error) {
	return c.Decode(bmp, nil)
}

func (c *compositeReader) Reset() {
	for _, fr := range c.readers {
		fr.reader.Reset()
	}
}

// readerOrder puts EAN-13 ahead of UPC-A so a leading-zero EAN-13 keeps
// its own format. PDF417 has no gozxing reader and is never decoded.
var readerOrder = []Format{
	FormatQRCode, FormatDataMatrix, FormatAztec,
	FormatEAN13, FormatEAN8, FormatUPCE, FormatUPCA,
	FormatCode128, FormatCode39, FormatCode93, FormatITF, FormatCodabar,
}

func readersFor(mask Format, lm LocalizationMode) []formatReader {
	switch lm {
	case LMStatisticsMarks, LMStatisticsPostalCode:
		// postal and mark based symbologies have no gozxing reader
		return nil
	case LMScanDirectly, LMOneDFastScan, LMLines:
		mask &= FormatOneD
	}
	var out []formatReader
	for _, f := range readerOrder {
		if mask&f != 0 {
			out = append(out, formatReader{format: f, reader: newZXingReader(f)})
		}
	}
	return out
}

func newZXingReader(f Format) gozxing.Reader {
	switch f {
	case FormatQRCode:
		return qrcode.NewQRCodeReader()
	case FormatDataMatrix:
		return datamatrix.NewDataMatrixReader()
	case FormatAztec:
		return aztec.NewAztecReader()
	case FormatEAN13:
		return oned.NewEAN13Reader()
	case FormatEAN8:
		return oned.NewEAN8Reader()
	case FormatUPCE:
		return oned.NewUPCEReader()
	case FormatUPCA:
		return oned.NewUPCAReader()
	case FormatCode128:
		return oned.NewCode128Reader()
	case FormatCode39:
		return oned.NewCode39Reader()
	case FormatCode93:
		return oned.NewCode93Reader()
	case FormatITF:
		return oned.NewITFReader()
	default:
		return oned.NewCodaBarReader()
	}
}

func fromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQRCode
	case gozxing.BarcodeFormat_DATA_MATRIX:
		return FormatDataMatrix
	case gozxing.BarcodeFormat_AZTEC:
		return FormatAztec
	case gozxing.BarcodeFormat_CODE_128:
		return FormatCode128
	case gozxing.BarcodeFormat_CODE_39:
		return FormatCode39
	case gozxing.BarcodeFormat_CODE_93:
		return FormatCode93
	case gozxing.BarcodeFormat_EAN_8:
		return FormatEAN8
	case gozxing.BarcodeFormat_EAN_13:
		return FormatEAN13
	case gozxing.BarcodeFormat_UPC_A:
		return FormatUPCA
	case gozxing.BarcodeFormat_UPC_E:
		return FormatUPCE
	case gozxing.BarcodeFormat_ITF:
		return FormatITF
	case gozxing.BarcodeFormat_CODABAR:
		return FormatCodabar
	default:
		return FormatNull
	}
}
