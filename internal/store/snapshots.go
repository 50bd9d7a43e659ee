package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"patent-ip-platform/models"
)

// ErrSnapshotExists is returned when a write targets an existing snapshot
// id. Snapshots are write-once; they are never updated or recomputed.
var ErrSnapshotExists = errors.New("similarity snapshot is immutable once created")

type SnapshotStore struct {
	col *mongo.Collection
}

func NewSnapshotStore(db *mongo.Database) *SnapshotStore {
	return &SnapshotStore{col: db.Collection("similarity_snapshots")}
}

// Create persists a snapshot as an insert-only write. A duplicate id fails
// before any side effect; the store exposes no update operation at all.
func (s *SnapshotStore) Create(ctx context.Context, snap *models.SimilaritySnapshot) (*models.SimilaritySnapshot, error) {
	if snap.ID.IsZero() {
		snap.ID = primitive.NewObjectID()
	}
	snap.CreatedAt = time.Now()

	_, err := s.col.InsertOne(ctx, snap)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrSnapshotExists
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SnapshotStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SimilaritySnapshot, error) {
	var snap models.SimilaritySnapshot
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&snap)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListByTarget returns every snapshot of a target filing, newest first.
func (s *SnapshotStore) ListByTarget(ctx context.Context, targetID primitive.ObjectID) ([]models.SimilaritySnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.col.Find(ctx, bson.M{"target_id": targetID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var snapshots []models.SimilaritySnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}
