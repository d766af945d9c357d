package scanning

// RawLineItem is one candidate invoice row as returned by the model.
// The numeric fields are untyped because models return them variously as
// numbers, strings with units or currency symbols, or null; the reconciler
// normalizes them downstream.
type RawLineItem struct {
	ItemName     *string `json:"item_name"`
	ItemQuantity any     `json:"item_quantity"`
	ItemRate     any     `json:"item_rate"`
	ItemAmount   any     `json:"item_amount"`
}

// LineItemExtractor defines the interface for LLM-backed line-item extraction
type LineItemExtractor interface {
	// ExtractLineItems converts raw OCR page text into candidate line items
	ExtractLineItems(pageText string) ([]RawLineItem, error)
	// Close closes the extractor and releases resources
	Close() error
}

// TextRecognizer defines the interface for per-page OCR
type TextRecognizer interface {
	// RecognizeImage converts a page image into raw text
	RecognizeImage(imageData []byte) (string, error)
	// Close releases OCR resources
	Close() error
}
