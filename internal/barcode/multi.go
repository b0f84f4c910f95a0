package barcode

import (
	gozxing "github.com/makiuchi-d/gozxing"
)

const (
	minDimensionToRecur = 100
	maxSearchDepth      = 4
)

// multiSearch finds every symbol a delegate reader can see in a bitmap.
// After each hit the regions left, above, right and below the symbol's
// result points are searched again.
type multiSearch struct {
	delegate gozxing.Reader
	hints    hintMap
	results  []*gozxing.Result
}

func decodeMultiple(delegate gozxing.Reader, bmp *gozxing.BinaryBitmap, hints hintMap) []*gozxing.Result {
	s := &multiSearch{delegate: delegate, hints: hints}
	s.search(bmp, 0, 0, 0)
	return s.results
}

func (s *multiSearch) search(bmp *gozxing.BinaryBitmap, xOffset, yOffset, depth int) {
	if depth > maxSearchDepth {
		return
	}
	res, err := s.delegate.Decode(bmp, s.hints)
	if err != nil {
		return
	}
	if !s.seen(res) {
		s.results = append(s.results, translate(res, xOffset, yOffset))
	}

	points := res.GetResultPoints()
	if len(points) == 0 || !bmp.IsCropSupported() {
		return
	}
	width, height := bmp.GetWidth(), bmp.GetHeight()
	minX, minY := float64(width), float64(height)
	maxX, maxY := 0.0, 0.0
	for _, p := range points {
		minX, maxX = min(minX, p.GetX()), max(maxX, p.GetX())
		minY, maxY = min(minY, p.GetY()), max(maxY, p.GetY())
	}
	// points may fall slightly outside the bitmap
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, float64(width)), min(maxY, float64(height))

	if minX > minDimensionToRecur {
		s.crop(bmp, 0, 0, int(minX), height, xOffset, yOffset, depth)
	}
	if minY > minDimensionToRecur {
		s.crop(bmp, 0, 0, width, int(minY), xOffset, yOffset, depth)
	}
	if maxX < float64(width-minDimensionToRecur) {
		s.crop(bmp, int(maxX), 0, width-int(maxX), height, xOffset+int(maxX), yOffset, depth)
	}
	if maxY < float64(height-minDimensionToRecur) {
		s.crop(bmp, 0, int(maxY), width, height-int(maxY), xOffset, yOffset+int(maxY), depth)
	}
}

func (s *multiSearch) crop(bmp *gozxing.BinaryBitmap, left, top, width, height, xOffset, yOffset, depth int) {
	if width <= 0 || height <= 0 {
		return
	}
	sub, err := bmp.Crop(left, top, width, height)
	if err != nil {
		return
	}
	s.search(sub, xOffset, yOffset, depth+1)
}

func (s *multiSearch) seen(res *gozxing.Result) bool {
	for _, r := range s.results {
		if r.GetBarcodeFormat() == res.GetBarcodeFormat() && r.GetText() == res.GetText() {
			return true
		}
	}
	return false
}

// translate moves result points from a cropped bitmap back to the bitmap
// the search started on.
func translate(res *gozxing.Result, xOffset, yOffset int) *gozxing.Result {
	old := res.GetResultPoints()
	if len(old) == 0 || (xOffset == 0 && yOffset == 0) {
		return res
	}
	points := make([]gozxing.ResultPoint, len(old))
	for i, p := range old {
		points[i] = gozxing.NewResultPoint(p.GetX()+float64(xOffset), p.GetY()+float64(yOffset))
	}
	out := gozxing.NewResultWithNumBits(res.GetText(), res.GetRawBytes(), res.GetNumBits(),
		points, res.GetBarcodeFormat(), res.GetTimestamp())
	out.PutAllMetadata(res.GetResultMetadata())
	return out
}
