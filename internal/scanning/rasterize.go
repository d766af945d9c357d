package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Rasterizer converts document bytes into an ordered sequence of page images
type Rasterizer interface {
	// Pages returns one PNG per page, in page order. ext is the file-type
	// hint derived from the source URL (e.g. ".pdf", ".png").
	Pages(data []byte, ext string) ([][]byte, error)
}

// DocumentRasterizer implements Rasterizer using go-fitz for PDFs and the
// image decoders registered above for single-page image documents.
type DocumentRasterizer struct{}

// NewDocumentRasterizer creates a new DocumentRasterizer
func NewDocumentRasterizer() *DocumentRasterizer {
	return &DocumentRasterizer{}
}

// Pages rasterizes a document into ordered per-page PNGs
func (r *DocumentRasterizer) Pages(data []byte, ext string) ([][]byte, error) {
	if strings.EqualFold(strings.TrimSpace(ext), ".pdf") {
		return pdfToImages(data)
	}

	page, err := imageToPNG(data)
	if err != nil {
		return nil, err
	}
	return [][]byte{page}, nil
}

// pdfToImages converts every page of a PDF to a PNG image, in page order
func pdfToImages(pdfData []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		// go-fitz renders at 300 DPI by default, good enough for OCR
		img, err := doc.Image(n)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page %d: %w", n+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding PNG for page %d: %w", n+1, err)
		}
		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not covered by the registered decoders
	if isHEICData(imageData) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, BMP, TIFF, WebP, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICData checks if the image data is in HEIC/HEIF format by looking for
// an ftyp box with a HEIC-related brand
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}
