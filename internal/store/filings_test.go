package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"patent-ip-platform/models"
)

func TestAllowedCurrentStatuses(t *testing.T) {
	tests := []struct {
		status  models.IngestionStatus
		want    map[models.IngestionStatus]bool
		wantErr bool
	}{
		{
			status: models.IngestionIngesting,
			want: map[models.IngestionStatus]bool{
				models.IngestionPending: true,
				models.IngestionQueued:  true,
			},
		},
		{
			status: models.IngestionIndexed,
			want: map[models.IngestionStatus]bool{
				models.IngestionPending:           true,
				models.IngestionQueued:            true,
				models.IngestionIngesting:         true,
				models.IngestionRawExtracted:      true,
				models.IngestionClaimsProcessed:   true,
				models.IngestionDiagramsProcessed: true,
			},
		},
		{
			// FAILED is reachable from every stage, INDEXED included.
			status: models.IngestionFailed,
			want: map[models.IngestionStatus]bool{
				models.IngestionPending:           true,
				models.IngestionQueued:            true,
				models.IngestionIngesting:         true,
				models.IngestionRawExtracted:      true,
				models.IngestionClaimsProcessed:   true,
				models.IngestionDiagramsProcessed: true,
				models.IngestionIndexed:           true,
			},
		},
		// Nothing transitions into PENDING; only MarkQueued resets a filing.
		{status: models.IngestionPending, wantErr: true},
		{status: models.IngestionStatus("BOGUS"), wantErr: true},
	}

	for _, tt := range tests {
		allowed, err := allowedCurrentStatuses(tt.status)
		if tt.wantErr {
			if err == nil {
				t.Errorf("allowedCurrentStatuses(%s) expected error, got %v", tt.status, allowed)
			}
			continue
		}
		if err != nil {
			t.Errorf("allowedCurrentStatuses(%s) failed: %v", tt.status, err)
			continue
		}
		if len(allowed) != len(tt.want) {
			t.Errorf("allowedCurrentStatuses(%s) = %v, want %v", tt.status, allowed, tt.want)
			continue
		}
		for _, s := range allowed {
			if !tt.want[s] {
				t.Errorf("allowedCurrentStatuses(%s) includes unexpected %s", tt.status, s)
			}
		}
	}
}

// testDatabase connects to a throwaway database for store integration tests.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongo connect failed: %v", err)
	}
	db := client.Database("patent_ip_store_test")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db.Drop(ctx)
		client.Disconnect(ctx)
	})
	return db
}

func TestUpdateIngestionStatusMonotonic(t *testing.T) {
	db := testDatabase(t)
	store := NewFilingStore(db)
	ctx := context.Background()

	filing, err := store.Create(ctx, &models.Filing{Title: "Widget"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, status := range []models.IngestionStatus{
		models.IngestionQueued,
		models.IngestionIngesting,
		models.IngestionIndexed,
	} {
		if err := store.UpdateIngestionStatus(ctx, filing.ID, status); err != nil {
			t.Fatalf("advance to %s failed: %v", status, err)
		}
	}

	// Moving backwards from INDEXED must not match the conditional write.
	err = store.UpdateIngestionStatus(ctx, filing.ID, models.IngestionRawExtracted)
	if !errors.Is(err, ErrStatusRegression) {
		t.Fatalf("expected ErrStatusRegression, got %v", err)
	}
	got, err := store.GetByID(ctx, filing.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Ingestion.Status != models.IngestionIndexed {
		t.Errorf("status changed despite regression: %s", got.Ingestion.Status)
	}

	// FAILED stays reachable from INDEXED, but nothing leaves FAILED
	// except a new job via MarkQueued.
	if err := store.UpdateIngestionStatus(ctx, filing.ID, models.IngestionFailed); err != nil {
		t.Fatalf("transition to FAILED failed: %v", err)
	}
	err = store.UpdateIngestionStatus(ctx, filing.ID, models.IngestionIngesting)
	if !errors.Is(err, ErrStatusRegression) {
		t.Fatalf("expected ErrStatusRegression out of FAILED, got %v", err)
	}
	if err := store.MarkQueued(ctx, filing.ID, false); err != nil {
		t.Fatalf("MarkQueued out of FAILED failed: %v", err)
	}
}

func TestMarkQueuedRevisionBumpsVersion(t *testing.T) {
	db := testDatabase(t)
	store := NewFilingStore(db)
	ctx := context.Background()

	filing, err := store.Create(ctx, &models.Filing{Title: "Widget"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.MarkQueued(ctx, filing.ID, true); err != nil {
		t.Fatalf("MarkQueued failed: %v", err)
	}
	got, err := store.GetByID(ctx, filing.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Ingestion.Version != 2 {
		t.Errorf("revision should bump version to 2, got %d", got.Ingestion.Version)
	}
	if got.Ingestion.Status != models.IngestionQueued {
		t.Errorf("expected QUEUED, got %s", got.Ingestion.Status)
	}
}
