package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"patent-ip-platform/models"
)

type JobStore struct {
	col *mongo.Collection
}

func NewJobStore(db *mongo.Database) *JobStore {
	return &JobStore{col: db.Collection("jobs")}
}

// Create inserts a QUEUED job record. The record exists before the queue
// message is published so a lost message still leaves a trace.
func (s *JobStore) Create(ctx context.Context, jobType models.JobType, filingID primitive.ObjectID) (*models.Job, error) {
	now := time.Now()
	job := &models.Job{
		Type:      jobType,
		Status:    models.JobQueued,
		FilingID:  filingID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.col.InsertOne(ctx, job)
	if err != nil {
		return nil, err
	}
	job.ID = res.InsertedID.(primitive.ObjectID)
	return job, nil
}

func (s *JobStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var job models.Job
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) SetStatus(ctx context.Context, id primitive.ObjectID, status models.JobStatus, jobErr string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     status,
			"error":      jobErr,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
