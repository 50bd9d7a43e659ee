package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"patent-ip-platform/internal/logger"
	"patent-ip-platform/models"
)

// Fetcher downloads a source document by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TextExtractor turns raw document bytes into plain text. Implementations
// return an empty string rather than an error when extraction fails; the
// pipeline treats missing text as a degraded but valid result.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) string
}

// ImageExtractor turns raw document bytes into ordered per-page images.
type ImageExtractor interface {
	ExtractImages(ctx context.Context, data []byte) ([]models.PageImage, error)
}

// HTTPFetcher fetches documents over HTTP with a bounded timeout.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// PDFTextExtractor extracts plain text from PDF bytes.
type PDFTextExtractor struct{}

func NewPDFTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{}
}

func (e *PDFTextExtractor) ExtractText(ctx context.Context, data []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.Warn("pdf open failed, treating document as empty", "error", err)
		return ""
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf page extraction failed", "page", pageNum, "error", err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}
