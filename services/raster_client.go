package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"patent-ip-platform/internal/config"
	"patent-ip-platform/models"
)

// RasterClient talks to the page rasterization service that renders PDF
// pages to images for diagram classification.
type RasterClient struct {
	httpClient *http.Client
	baseURL    string
}

// RasterResponse represents the response from the raster service
type RasterResponse struct {
	Success bool         `json:"success"`
	Pages   []RasterPage `json:"pages"`
	Error   string       `json:"error,omitempty"`
}

// RasterPage represents one rendered page
type RasterPage struct {
	Page    int    `json:"page"`
	Locator string `json:"locator"`
}

// NewRasterClient creates a new raster service client
func NewRasterClient(cfg *config.Config) *RasterClient {
	baseURL := cfg.RasterServiceURL
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}

	return &RasterClient{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // rendering large filings can take time
		},
		baseURL: baseURL,
	}
}

// ExtractImages renders the document to ordered per-page images and
// returns their locators.
func (c *RasterClient) ExtractImages(ctx context.Context, data []byte) ([]models.PageImage, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "diagrams.pdf")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("raster service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("raster service returned status %d: %s", resp.StatusCode, string(raw))
	}

	var rendered RasterResponse
	if err := json.Unmarshal(raw, &rendered); err != nil {
		return nil, fmt.Errorf("invalid raster service response: %w", err)
	}
	if !rendered.Success {
		return nil, fmt.Errorf("raster service failed: %s", rendered.Error)
	}

	images := make([]models.PageImage, 0, len(rendered.Pages))
	for _, p := range rendered.Pages {
		images = append(images, models.PageImage{Page: p.Page, Locator: p.Locator})
	}
	return images, nil
}

// FetchImage downloads a rendered page image by locator for classification.
func (c *RasterClient) FetchImage(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/images/"+locator, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
