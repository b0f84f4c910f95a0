package barcode

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/bartune/internal/pdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// SupportedExtensions lists the input file extensions DecodeFile accepts.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".pdf"}

// IsSupportedFile reports whether the path has a supported extension.
func IsSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// page is a decodable image; number is 0 for plain image files.
type page struct {
	number int
	img    image.Image
}

// loadPages opens path and returns the images to decode.
func loadPages(path, pdfPages string) ([]page, error) {
	if path == "" {
		return nil, newError(ErrFileNotFound, "empty file path")
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, wrapError(ErrFileNotFound, err, "file %s not found", path)
		}
		return nil, wrapError(ErrImageReadFailed, err, "cannot access %s", path)
	}
	if info.IsDir() {
		return nil, newError(ErrImageReadFailed, "%s is a directory", path)
	}
	if !IsSupportedFile(path) {
		return nil, newError(ErrImageReadFailed, "unsupported file format: %s", filepath.Ext(path))
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		images, err := pdf.ExtractImages(path, pdfPages)
		if err != nil {
			return nil, wrapError(ErrPDFReadFailed, err, "cannot read %s", path)
		}
		pages := make([]page, 0, len(images))
		for _, pi := range images {
			pages = append(pages, page{number: pi.Page, img: pi.Image})
		}
		return pages, nil
	}

	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}
	return []page{{img: img}}, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: reading a user-provided image path is expected
	if err != nil {
		return nil, wrapError(ErrImageReadFailed, err, "cannot open %s", path)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, wrapError(ErrImageReadFailed, err, "cannot decode %s", path)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, newError(ErrImageReadFailed, "%s has no pixels", path)
	}
	return img, nil
}

// describePage is used in log attributes.
func describePage(path string, p page) string {
	if p.number == 0 {
		return path
	}
	return fmt.Sprintf("%s#page=%d", path, p.number)
}
