// Package store implements the Mongo record stores for filings, jobs and
// similarity snapshots. The pipeline invariants (monotonic ingestion status,
// write-once snapshots) are enforced here in the service layer, not assumed
// from storage.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"patent-ip-platform/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStatusRegression is returned when an update would move a filing's
	// ingestion status backwards or out of a terminal state.
	ErrStatusRegression = errors.New("ingestion status transition violates monotonic order")
)

type FilingStore struct {
	col *mongo.Collection
}

func NewFilingStore(db *mongo.Database) *FilingStore {
	return &FilingStore{col: db.Collection("filings")}
}

func (s *FilingStore) Create(ctx context.Context, filing *models.Filing) (*models.Filing, error) {
	now := time.Now()
	filing.CreatedAt = now
	filing.UpdatedAt = now
	if filing.CurrentStatus == "" {
		filing.CurrentStatus = models.FilingSubmitted
	}
	if filing.Ingestion.Status == "" {
		filing.Ingestion.Status = models.IngestionPending
	}
	if filing.Ingestion.Version == 0 {
		filing.Ingestion.Version = 1
	}
	filing.StatusTimeline = append(filing.StatusTimeline, models.StatusEvent{
		Status:    filing.CurrentStatus,
		Timestamp: now,
	})

	res, err := s.col.InsertOne(ctx, filing)
	if err != nil {
		return nil, err
	}
	filing.ID = res.InsertedID.(primitive.ObjectID)
	return filing, nil
}

func (s *FilingStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Filing, error) {
	var filing models.Filing
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&filing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &filing, nil
}

// UpdateIngestionStatus advances the ingestion status. The update is a
// conditional write: only filings currently in a strictly earlier stage
// match, so concurrent or repeated transitions cannot move a filing
// backwards. FAILED is reachable from any non-terminal stage.
func (s *FilingStore) UpdateIngestionStatus(ctx context.Context, id primitive.ObjectID, status models.IngestionStatus) error {
	allowedCurrent, err := allowedCurrentStatuses(status)
	if err != nil {
		return err
	}

	now := time.Now()
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "ingestion.status": bson.M{"$in": allowedCurrent}},
		bson.M{
			"$set": bson.M{
				"ingestion.status": status,
				"updated_at":       now,
			},
			"$push": bson.M{
				"status_timeline": models.StatusEvent{
					Status:    "ingestion:" + string(status),
					Timestamp: now,
				},
			},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusRegression
	}
	return nil
}

// allowedCurrentStatuses returns the statuses a filing may currently hold
// for a transition into status to be legal. FAILED is reachable from every
// stage including INDEXED; a stage advance only matches strictly earlier
// stages.
func allowedCurrentStatuses(status models.IngestionStatus) ([]models.IngestionStatus, error) {
	if status == models.IngestionFailed {
		return append(models.StatusesBefore(models.IngestionIndexed), models.IngestionIndexed), nil
	}
	if _, ok := status.Rank(); !ok {
		return nil, fmt.Errorf("unknown ingestion status %q", status)
	}
	allowed := models.StatusesBefore(status)
	if len(allowed) == 0 {
		return nil, fmt.Errorf("no legal transition into %q", status)
	}
	return allowed, nil
}

// MarkQueued resets a filing for a new ingest job. A revision bumps the
// ingestion version so stale comparisons are invalidated. Unlike stage
// advances this deliberately leaves FAILED/INDEXED: starting a new job is
// the only way out of a terminal state.
func (s *FilingStore) MarkQueued(ctx context.Context, id primitive.ObjectID, revision bool) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"ingestion.status": models.IngestionQueued,
			"updated_at":       now,
		},
		"$push": bson.M{
			"status_timeline": models.StatusEvent{
				Status:    "ingestion:" + string(models.IngestionQueued),
				Timestamp: now,
			},
		},
	}
	if revision {
		update["$inc"] = bson.M{"ingestion.version": 1}
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FilingStore) SetRawContent(ctx context.Context, id primitive.ObjectID, raw models.RawContent) error {
	return s.setFields(ctx, id, bson.M{"ingestion.raw": raw})
}

func (s *FilingStore) SetStructuredClaims(ctx context.Context, id primitive.ObjectID, claims []models.Claim, chunks []models.DescriptionChunk) error {
	return s.setFields(ctx, id, bson.M{
		"ingestion.structured.claims":             claims,
		"ingestion.structured.description_chunks": chunks,
	})
}

func (s *FilingStore) SetDiagrams(ctx context.Context, id primitive.ObjectID, diagrams []models.DiagramRecord) error {
	return s.setFields(ctx, id, bson.M{"ingestion.structured.diagrams": diagrams})
}

func (s *FilingStore) AppendAnalysisRef(ctx context.Context, id, snapshotID primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"analysis_refs": snapshotID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FilingStore) SetFinalVerdict(ctx context.Context, id primitive.ObjectID, verdict models.Verdict) error {
	return s.setFields(ctx, id, bson.M{"final_verdict": verdict})
}

func (s *FilingStore) setFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByIngestionStatus returns pipeline stats for the admin dashboard.
func (s *FilingStore) CountByIngestionStatus(ctx context.Context) (map[string]int64, error) {
	cursor, err := s.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$ingestion.status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.ID] = row.Count
	}
	return counts, cursor.Err()
}
