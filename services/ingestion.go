package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/internal/ai"
	"patent-ip-platform/internal/logger"
	"patent-ip-platform/internal/telemetry"
	"patent-ip-platform/models"
)

// IngestFilingStore is the slice of the filing store the orchestrator needs.
type IngestFilingStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Filing, error)
	UpdateIngestionStatus(ctx context.Context, id primitive.ObjectID, status models.IngestionStatus) error
	SetRawContent(ctx context.Context, id primitive.ObjectID, raw models.RawContent) error
	SetStructuredClaims(ctx context.Context, id primitive.ObjectID, claims []models.Claim, chunks []models.DescriptionChunk) error
	SetDiagrams(ctx context.Context, id primitive.ObjectID, diagrams []models.DiagramRecord) error
}

// DiagramClassifier is the vision collaborator contract. Implementations
// return the unknown/failed shape instead of an error.
type DiagramClassifier interface {
	ClassifyDiagram(ctx context.Context, imageFormat string, imageData []byte) *ai.DiagramAnalysis
}

// ImageFetcher resolves a rendered page locator to image bytes.
type ImageFetcher interface {
	FetchImage(ctx context.Context, locator string) ([]byte, error)
}

// FilingIndexer writes a filing's embeddable units to the vector store.
type FilingIndexer interface {
	IndexFiling(ctx context.Context, filing *models.Filing) error
}

// IngestionOrchestrator drives a filing through the ingestion stages,
// persisting status after every transition so a crash resumes from a
// checkpoint rather than silently losing progress.
type IngestionOrchestrator struct {
	filings    IngestFilingStore
	fetcher    Fetcher
	text       TextExtractor
	images     ImageExtractor
	imageFetch ImageFetcher
	classifier DiagramClassifier
	claims     *ClaimProcessor
	chunker    *DescriptionChunker
	citations  *CitationScanner
	indexer    FilingIndexer
	metrics    *telemetry.Metrics
}

// NewIngestionOrchestrator creates a new ingestion orchestrator
func NewIngestionOrchestrator(
	filings IngestFilingStore,
	fetcher Fetcher,
	text TextExtractor,
	images ImageExtractor,
	imageFetch ImageFetcher,
	classifier DiagramClassifier,
	claims *ClaimProcessor,
	chunker *DescriptionChunker,
	citations *CitationScanner,
	indexer FilingIndexer,
	metrics *telemetry.Metrics,
) *IngestionOrchestrator {
	return &IngestionOrchestrator{
		filings:    filings,
		fetcher:    fetcher,
		text:       text,
		images:     images,
		imageFetch: imageFetch,
		classifier: classifier,
		claims:     claims,
		chunker:    chunker,
		citations:  citations,
		indexer:    indexer,
		metrics:    metrics,
	}
}

// RunIngest executes the full ingestion pipeline for one filing. A filing
// already INDEXED is a no-op, which makes duplicate deliveries harmless.
// Any stage failure marks the filing FAILED and surfaces the error.
func (o *IngestionOrchestrator) RunIngest(ctx context.Context, filingID primitive.ObjectID) error {
	filing, err := o.filings.GetByID(ctx, filingID)
	if err != nil {
		return err
	}

	if filing.Ingestion.Status == models.IngestionIndexed {
		logger.Info("filing already indexed, skipping ingest", "filing_id", filingID.Hex())
		return nil
	}

	if err := o.runStages(ctx, filing); err != nil {
		if failErr := o.filings.UpdateIngestionStatus(ctx, filingID, models.IngestionFailed); failErr != nil {
			logger.Error("failed to mark filing FAILED", "filing_id", filingID.Hex(), "error", failErr)
		}
		return err
	}
	return nil
}

func (o *IngestionOrchestrator) runStages(ctx context.Context, filing *models.Filing) error {
	id := filing.ID

	if err := o.filings.UpdateIngestionStatus(ctx, id, models.IngestionIngesting); err != nil {
		return err
	}

	raw, err := runStage(o, id, "extract_raw", func() (models.RawContent, error) {
		return o.extractRaw(ctx, filing)
	})
	if err != nil {
		return err
	}
	if err := o.filings.SetRawContent(ctx, id, raw); err != nil {
		return err
	}
	if err := o.filings.UpdateIngestionStatus(ctx, id, models.IngestionRawExtracted); err != nil {
		return err
	}
	filing.Ingestion.Raw = raw

	structured, err := runStage(o, id, "process_claims", func() (models.StructuredContent, error) {
		return o.processClaims(raw)
	})
	if err != nil {
		return err
	}
	if err := o.filings.SetStructuredClaims(ctx, id, structured.Claims, structured.DescriptionChunks); err != nil {
		return err
	}
	if err := o.filings.UpdateIngestionStatus(ctx, id, models.IngestionClaimsProcessed); err != nil {
		return err
	}
	filing.Ingestion.Structured.Claims = structured.Claims
	filing.Ingestion.Structured.DescriptionChunks = structured.DescriptionChunks

	diagrams, err := runStage(o, id, "classify_diagrams", func() ([]models.DiagramRecord, error) {
		return o.classifyDiagrams(ctx, raw.DiagramImages)
	})
	if err != nil {
		return err
	}
	if err := o.filings.SetDiagrams(ctx, id, diagrams); err != nil {
		return err
	}
	if err := o.filings.UpdateIngestionStatus(ctx, id, models.IngestionDiagramsProcessed); err != nil {
		return err
	}
	filing.Ingestion.Structured.Diagrams = diagrams

	if _, err := runStage(o, id, "index_vectors", func() (struct{}, error) {
		return struct{}{}, o.indexer.IndexFiling(ctx, filing)
	}); err != nil {
		return err
	}
	return o.filings.UpdateIngestionStatus(ctx, id, models.IngestionIndexed)
}

// runStage wraps one pipeline stage with duration metrics.
func runStage[T any](o *IngestionOrchestrator, id primitive.ObjectID, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := fn()
	if o.metrics != nil {
		o.metrics.RecordStage(name, time.Since(start).Seconds(), err == nil)
	}
	if err != nil {
		logger.Error("ingestion stage failed", "filing_id", id.Hex(), "stage", name, "error", err)
	}
	return result, err
}

type fetchedDocument struct {
	kind string
	data []byte
	err  error
}

// extractRaw fetches the four source documents concurrently and extracts
// text and page images. Missing documents degrade to empty content; fetch
// errors on present documents are fatal.
func (o *IngestionOrchestrator) extractRaw(ctx context.Context, filing *models.Filing) (models.RawContent, error) {
	docs := map[string]string{
		"abstract":    filing.Documents.Abstract.SecureURL,
		"claims":      filing.Documents.Claims.SecureURL,
		"description": filing.Documents.Description.SecureURL,
		"diagrams":    filing.Documents.Diagrams.SecureURL,
	}

	results := make(chan fetchedDocument, len(docs))
	var wg sync.WaitGroup
	for kind, url := range docs {
		if url == "" {
			continue
		}
		wg.Add(1)
		go func(kind, url string) {
			defer wg.Done()
			data, err := o.fetcher.Fetch(ctx, url)
			results <- fetchedDocument{kind: kind, data: data, err: err}
		}(kind, url)
	}
	wg.Wait()
	close(results)

	var raw models.RawContent
	for doc := range results {
		if doc.err != nil {
			return raw, fmt.Errorf("fetching %s document failed: %w", doc.kind, doc.err)
		}
		switch doc.kind {
		case "abstract":
			raw.AbstractText = o.text.ExtractText(ctx, doc.data)
		case "claims":
			raw.ClaimsText = o.text.ExtractText(ctx, doc.data)
		case "description":
			raw.DescriptionText = o.text.ExtractText(ctx, doc.data)
		case "diagrams":
			images, err := o.images.ExtractImages(ctx, doc.data)
			if err != nil {
				return raw, fmt.Errorf("extracting diagram pages failed: %w", err)
			}
			raw.DiagramImages = images
		}
	}

	raw.Citations = o.citations.Scan(raw.ClaimsText + "\n" + raw.DescriptionText)
	return raw, nil
}

func (o *IngestionOrchestrator) processClaims(raw models.RawContent) (models.StructuredContent, error) {
	var structured models.StructuredContent

	if raw.ClaimsText != "" {
		claims, err := o.claims.ProcessClaims(raw.ClaimsText)
		if err != nil {
			return structured, err
		}
		structured.Claims = claims
	}

	chunks, err := o.chunker.ChunkDescription(raw.DescriptionText)
	if err != nil {
		return structured, err
	}
	structured.DescriptionChunks = chunks
	return structured, nil
}

// classifyDiagrams runs the vision classifier concurrently per page and
// barrier-joins before returning. Classifier failures produce unknown
// records; only image retrieval failures are logged and skipped.
func (o *IngestionOrchestrator) classifyDiagrams(ctx context.Context, pages []models.PageImage) ([]models.DiagramRecord, error) {
	if len(pages) == 0 {
		return nil, nil
	}

	records := make([]models.DiagramRecord, len(pages))
	valid := make([]bool, len(pages))
	var wg sync.WaitGroup

	for i, page := range pages {
		wg.Add(1)
		go func(i int, page models.PageImage) {
			defer wg.Done()

			data, err := o.imageFetch.FetchImage(ctx, page.Locator)
			if err != nil {
				logger.Warn("diagram image unavailable", "page", page.Page, "locator", page.Locator, "error", err)
				return
			}

			analysis := o.classifier.ClassifyDiagram(ctx, "png", data)
			records[i] = models.NewDiagramRecord(
				fmt.Sprintf("page-%d", page.Page),
				analysis.Type,
				models.DiagramRepresentation{
					Components:  analysis.Components,
					Connections: analysis.Connections,
					Labels:      analysis.Labels,
				},
				analysis.SemanticSummary,
				analysis.Confidence,
			)
			valid[i] = true
		}(i, page)
	}
	wg.Wait()

	var diagrams []models.DiagramRecord
	for i, record := range records {
		if valid[i] {
			diagrams = append(diagrams, record)
		}
	}
	return diagrams, nil
}
