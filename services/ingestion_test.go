package services

import (
	"context"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/internal/ai"
	"patent-ip-platform/models"
)

type fakeFilingStore struct {
	filing   *models.Filing
	statuses []models.IngestionStatus
}

func (f *fakeFilingStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Filing, error) {
	return f.filing, nil
}

func (f *fakeFilingStore) UpdateIngestionStatus(ctx context.Context, id primitive.ObjectID, status models.IngestionStatus) error {
	f.statuses = append(f.statuses, status)
	f.filing.Ingestion.Status = status
	return nil
}

func (f *fakeFilingStore) SetRawContent(ctx context.Context, id primitive.ObjectID, raw models.RawContent) error {
	f.filing.Ingestion.Raw = raw
	return nil
}

func (f *fakeFilingStore) SetStructuredClaims(ctx context.Context, id primitive.ObjectID, claims []models.Claim, chunks []models.DescriptionChunk) error {
	f.filing.Ingestion.Structured.Claims = claims
	f.filing.Ingestion.Structured.DescriptionChunks = chunks
	return nil
}

func (f *fakeFilingStore) SetDiagrams(ctx context.Context, id primitive.ObjectID, diagrams []models.DiagramRecord) error {
	f.filing.Ingestion.Structured.Diagrams = diagrams
	return nil
}

type fakeFetcher struct {
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(url), nil
}

type fakeTextExtractor struct{}

func (fakeTextExtractor) ExtractText(ctx context.Context, data []byte) string {
	switch string(data) {
	case "claims-url":
		return "1. A widget comprising X.\n2. The widget of claim 1, further comprising Y."
	case "description-url":
		return "A detailed description of the widget and its many embodiments."
	default:
		return "An abstract."
	}
}

type fakeImageExtractor struct{}

func (fakeImageExtractor) ExtractImages(ctx context.Context, data []byte) ([]models.PageImage, error) {
	return []models.PageImage{{Page: 1, Locator: "img-1"}}, nil
}

type fakeImageFetcher struct{}

func (fakeImageFetcher) FetchImage(ctx context.Context, locator string) ([]byte, error) {
	return []byte{0x89}, nil
}

type fakeClassifier struct{}

func (fakeClassifier) ClassifyDiagram(ctx context.Context, imageFormat string, imageData []byte) *ai.DiagramAnalysis {
	return &ai.DiagramAnalysis{Type: "flowchart", SemanticSummary: "A workflow", Confidence: 0.9}
}

type fakeIndexer struct {
	called bool
	err    error
}

func (f *fakeIndexer) IndexFiling(ctx context.Context, filing *models.Filing) error {
	f.called = true
	return f.err
}

func newTestOrchestrator(store *fakeFilingStore, fetcher Fetcher, indexer FilingIndexer) *IngestionOrchestrator {
	return NewIngestionOrchestrator(
		store,
		fetcher,
		fakeTextExtractor{},
		fakeImageExtractor{},
		fakeImageFetcher{},
		fakeClassifier{},
		NewClaimProcessor(),
		NewDescriptionChunker(400, 50),
		NewCitationScanner(),
		indexer,
		nil,
	)
}

func queuedFiling() *models.Filing {
	return &models.Filing{
		ID: primitive.NewObjectID(),
		Documents: models.FilingDocuments{
			Abstract:    models.DocumentRef{SecureURL: "abstract-url"},
			Claims:      models.DocumentRef{SecureURL: "claims-url"},
			Description: models.DocumentRef{SecureURL: "description-url"},
			Diagrams:    models.DocumentRef{SecureURL: "diagrams-url"},
		},
		Ingestion: models.Ingestion{Status: models.IngestionQueued, Version: 1},
	}
}

func TestRunIngestHappyPath(t *testing.T) {
	store := &fakeFilingStore{filing: queuedFiling()}
	indexer := &fakeIndexer{}
	o := newTestOrchestrator(store, &fakeFetcher{}, indexer)

	if err := o.RunIngest(context.Background(), store.filing.ID); err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	want := []models.IngestionStatus{
		models.IngestionIngesting,
		models.IngestionRawExtracted,
		models.IngestionClaimsProcessed,
		models.IngestionDiagramsProcessed,
		models.IngestionIndexed,
	}
	if len(store.statuses) != len(want) {
		t.Fatalf("status sequence %v, want %v", store.statuses, want)
	}
	for i, status := range want {
		if store.statuses[i] != status {
			t.Fatalf("status sequence %v, want %v", store.statuses, want)
		}
	}

	if !indexer.called {
		t.Error("indexer was never invoked")
	}
	if len(store.filing.Ingestion.Structured.Claims) != 2 {
		t.Errorf("expected 2 structured claims, got %d", len(store.filing.Ingestion.Structured.Claims))
	}
	if len(store.filing.Ingestion.Structured.Diagrams) != 1 {
		t.Errorf("expected 1 classified diagram, got %d", len(store.filing.Ingestion.Structured.Diagrams))
	}
}

func TestRunIngestIndexedIsNoOp(t *testing.T) {
	filing := queuedFiling()
	filing.Ingestion.Status = models.IngestionIndexed
	store := &fakeFilingStore{filing: filing}
	indexer := &fakeIndexer{}
	o := newTestOrchestrator(store, &fakeFetcher{}, indexer)

	if err := o.RunIngest(context.Background(), filing.ID); err != nil {
		t.Fatalf("RunIngest on indexed filing should be a no-op, got %v", err)
	}
	if len(store.statuses) != 0 {
		t.Errorf("no status updates expected, got %v", store.statuses)
	}
	if indexer.called {
		t.Error("indexer must not run for an already indexed filing")
	}
}

func TestRunIngestFailureMarksFailed(t *testing.T) {
	store := &fakeFilingStore{filing: queuedFiling()}
	o := newTestOrchestrator(store, &fakeFetcher{err: fmt.Errorf("network down")}, &fakeIndexer{})

	if err := o.RunIngest(context.Background(), store.filing.ID); err == nil {
		t.Fatal("expected fetch failure to surface")
	}

	last := store.statuses[len(store.statuses)-1]
	if last != models.IngestionFailed {
		t.Errorf("expected final status FAILED, got %s", last)
	}
}

func TestRunIngestIndexerFailureMarksFailed(t *testing.T) {
	store := &fakeFilingStore{filing: queuedFiling()}
	o := newTestOrchestrator(store, &fakeFetcher{}, &fakeIndexer{err: ErrEmbeddingCountMismatch})

	if err := o.RunIngest(context.Background(), store.filing.ID); err == nil {
		t.Fatal("expected indexing failure to surface")
	}

	last := store.statuses[len(store.statuses)-1]
	if last != models.IngestionFailed {
		t.Errorf("expected final status FAILED, got %s", last)
	}
}
