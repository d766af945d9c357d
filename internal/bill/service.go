package bill

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/billscan/billscan/internal/scanning"
)

// IDGenerator generates unique IDs for extractions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service orchestrates the extraction pipeline: fetch the document,
// rasterize it into pages, run OCR and line-item extraction per page, and
// reconcile the document total. Pages are processed strictly one after
// another; all state is request-scoped.
type Service struct {
	db          DB
	storage     Storage
	fetcher     Fetcher
	rasterizer  scanning.Rasterizer
	recognizer  scanning.TextRecognizer
	extractor   scanning.LineItemExtractor
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, storage Storage, fetcher Fetcher, rasterizer scanning.Rasterizer, recognizer scanning.TextRecognizer, extractor scanning.LineItemExtractor) *Service {
	return NewServiceWithDeps(db, storage, fetcher, rasterizer, recognizer, extractor, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, fetcher Fetcher, rasterizer scanning.Rasterizer, recognizer scanning.TextRecognizer, extractor scanning.LineItemExtractor, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		fetcher:     fetcher,
		rasterizer:  rasterizer,
		recognizer:  recognizer,
		extractor:   extractor,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ExtractBillData downloads the document at the given URL, runs the page
// pipeline, and records the finished extraction in history
func (s *Service) ExtractBillData(documentURL string) (*DocumentResult, error) {
	data, contentType, err := s.fetcher.Fetch(documentURL)
	if err != nil {
		return nil, err
	}

	ext := extensionHint(documentURL)
	result, err := s.processDocument(data, ext)
	if err != nil {
		return nil, err
	}

	s.recordExtraction(documentURL, ext, contentType, data, result)

	return result, nil
}

// processDocument rasterizes the document and extracts line items page by page
func (s *Service) processDocument(data []byte, ext string) (*DocumentResult, error) {
	pages, err := s.rasterizer.Pages(data, ext)
	if err != nil {
		return nil, fmt.Errorf("rasterizing document: %w", err)
	}

	results := make([]PageResult, 0, len(pages))
	itemCount := 0
	for i, img := range pages {
		page, err := s.extractPage(i+1, img)
		if err != nil {
			slog.Warn("Page extraction failed, keeping empty page",
				"page_no", i+1,
				"error", err,
			)
		}
		results = append(results, page)
		itemCount += len(page.BillItems)
	}

	return &DocumentResult{
		PagewiseLineItems: results,
		TotalItemCount:    itemCount,
		ReconciledAmount:  reconciledTotal(results),
	}, nil
}

// extractPage runs OCR and structured extraction for a single page. On any
// failure the returned PageResult still carries the page number with zero
// items, so one bad page never aborts the document.
func (s *Service) extractPage(pageNo int, img []byte) (PageResult, error) {
	empty := PageResult{PageNo: pageNo, BillItems: []LineItem{}}

	text, err := s.recognizer.RecognizeImage(img)
	if err != nil {
		return empty, fmt.Errorf("recognizing page text: %w", err)
	}

	rows, err := s.extractor.ExtractLineItems(text)
	if err != nil {
		return empty, fmt.Errorf("extracting line items: %w", err)
	}

	return PageResult{PageNo: pageNo, BillItems: reconcileRows(rows)}, nil
}

// recordExtraction archives the fetched document and saves the finished
// result. History failures are logged, not surfaced: the caller already
// holds a complete response.
func (s *Service) recordExtraction(documentURL, ext, contentType string, data []byte, result *DocumentResult) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	if contentType == "" {
		contentType = contentTypeForExt(ext)
	}

	filename, err := s.storage.Save(id+ext, data)
	if err != nil {
		slog.Warn("Failed to archive document", "url", documentURL, "error", err)
		filename = ""
	}

	extraction := &Extraction{
		ID:          id,
		DocumentURL: documentURL,
		Filename:    filename,
		ContentType: contentType,
		Result:      *result,
		CreatedAt:   now,
	}
	if err := s.db.SaveExtraction(extraction); err != nil {
		slog.Warn("Failed to save extraction history", "url", documentURL, "error", err)
	}
}

// GetExtraction retrieves an extraction record by ID
func (s *Service) GetExtraction(id string) (*Extraction, error) {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return extraction, nil
}

// ListExtractions returns all extraction records
func (s *Service) ListExtractions() ([]*Extraction, error) {
	extractions, err := s.db.ListExtractions()
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	return extractions, nil
}

// DeleteExtraction removes an extraction record and its archived document
func (s *Service) DeleteExtraction(id string) error {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return fmt.Errorf("getting extraction for deletion: %w", err)
	}

	if extraction.Filename != "" {
		if err := s.storage.Delete(extraction.Filename); err != nil {
			slog.Warn("Failed to delete archived document", "filename", extraction.Filename, "error", err)
		}
	}

	if err := s.db.DeleteExtraction(id); err != nil {
		return fmt.Errorf("deleting extraction: %w", err)
	}
	return nil
}

// GetExtractionFile retrieves the archived document for an extraction
func (s *Service) GetExtractionFile(id string) ([]byte, string, error) {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting extraction: %w", err)
	}

	data, err := s.storage.Get(extraction.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting archived document: %w", err)
	}

	return data, extraction.ContentType, nil
}
