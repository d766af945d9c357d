package scanning

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the TextRecognizer interface using the Tesseract OCR
// engine via gosseract. Tesseract must be installed on the system.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a new Tesseract recognizer. Invoice pages are treated
// as a single uniform block of text, which keeps table columns together
// better than Tesseract's automatic layout analysis.
func NewTesseract(lang string) (*Tesseract, error) {
	client := gosseract.NewClient()

	if lang != "" {
		if err := client.SetLanguage(lang); err != nil {
			client.Close()
			return nil, fmt.Errorf("setting OCR language: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting page segmentation mode: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// RecognizeImage performs OCR on a PNG page image
func (t *Tesseract) RecognizeImage(imageData []byte) (string, error) {
	if err := t.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Close releases OCR resources
func (t *Tesseract) Close() error {
	if t.client != nil {
		return t.client.Close()
	}
	return nil
}
