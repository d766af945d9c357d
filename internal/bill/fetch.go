package bill

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// ErrDownloadFailed marks a failure to fetch the source document. Handlers
// map it to a client error, unlike internal pipeline failures.
var ErrDownloadFailed = errors.New("document download failed")

// Fetcher downloads the source document by URL
type Fetcher interface {
	// Fetch returns the document bytes and the reported content type
	Fetch(rawURL string) ([]byte, string, error)
}

// HTTPFetcher implements Fetcher with a bounded-timeout HTTP client
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a new HTTPFetcher
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the document, treating any network error or non-2xx
// status as ErrDownloadFailed
func (f *HTTPFetcher) Fetch(rawURL string) ([]byte, string, error) {
	resp, err := f.client.Get(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading body: %v", ErrDownloadFailed, err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// extensionHint derives a file-type hint from the URL path with the query
// string stripped, defaulting to an image extension when none is present
func extensionHint(rawURL string) string {
	trimmed, _, _ := strings.Cut(rawURL, "?")
	if ext := path.Ext(trimmed); ext != "" {
		return ext
	}
	return ".png"
}

// contentTypeForExt maps a file extension to a MIME type for archived
// documents whose download response carried no Content-Type header
func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
