package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobType distinguishes the two pipeline job kinds.
type JobType string

const (
	JobIngest          JobType = "INGEST"
	JobSimilarityCheck JobType = "SIMILARITY_CHECK"
)

// JobStatus is the lifecycle of a durable job record. There is no automatic
// retry; a FAILED job requires a new job instance.
type JobStatus string

const (
	JobQueued    JobStatus = "QUEUED"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// Job is the durable tracking record for one queued pipeline run. It is
// created before the message is published so a lost message still leaves an
// auditable QUEUED record behind.
type Job struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type      JobType            `bson:"type" json:"type"`
	Status    JobStatus          `bson:"status" json:"status"`
	FilingID  primitive.ObjectID `bson:"filing_id" json:"filing_id"`
	Error     string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
