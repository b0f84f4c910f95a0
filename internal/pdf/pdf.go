// Package pdf extracts the raster images embedded in PDF pages so they can
// be handed to the barcode engine.
package pdf

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/tiff"
)

// PageImage is one image found on a PDF page.
type PageImage struct {
	Page  int
	Image image.Image
}

// ExtractImages extracts the images of the selected pages of a PDF file.
// An empty pageRange selects every page. Images are returned ordered by page.
func ExtractImages(filename string, pageRange string) ([]PageImage, error) {
	pageNumbers, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "bartune-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pageStrings []string
	if len(pageNumbers) > 0 {
		pageStrings = make([]string, len(pageNumbers))
		for i, pageNum := range pageNumbers {
			pageStrings[i] = strconv.Itoa(pageNum)
		}
	}

	if err := api.ExtractImagesFile(filename, tempDir, pageStrings, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	return collectExtractedImages(tempDir)
}

func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: files come from our own temp directory
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	return img, err
}

// collectExtractedImages loads the files pdfcpu wrote into dir.
func collectExtractedImages(dir string) ([]PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []PageImage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, err := parsePageFromFilename(e.Name())
		if err != nil {
			continue
		}
		img, err := loadImageFile(filepath.Join(dir, e.Name()))
		if err != nil {
			// pdfcpu also writes formats the image package cannot decode
			continue
		}
		out = append(out, PageImage{Page: page, Image: img})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out, nil
}

// parsePageFromFilename reads the page number from a pdfcpu image file
// name, which has the form <stem>_<page>_<id>.<ext>. The stem may itself
// contain underscores, so the name is split from the end.
func parsePageFromFilename(filename string) (int, error) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return 0, errors.New("not a pdfcpu image file")
	}
	page, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil || page < 1 {
		return 0, errors.New("invalid page number")
	}
	return page, nil
}

// ParsePageRange parses a page range string like "1-5" or "1,3,5".
func ParsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start < 1 || start > end {
			return nil, fmt.Errorf("invalid page range %d-%d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil || page < 1 {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}
