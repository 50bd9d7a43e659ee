package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/internal/logger"
	"patent-ip-platform/internal/queue"
	"patent-ip-platform/models"
)

// ProducerJobStore is the slice of the job store producers need.
type ProducerJobStore interface {
	Create(ctx context.Context, jobType models.JobType, filingID primitive.ObjectID) (*models.Job, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.JobStatus, jobErr string) error
}

// ProducerFilingStore is the slice of the filing store producers need.
type ProducerFilingStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Filing, error)
	MarkQueued(ctx context.Context, id primitive.ObjectID, revision bool) error
}

// JobProducer creates job records and publishes their queue messages. The
// record always exists before the message so a lost message leaves a trace.
type JobProducer struct {
	jobs    ProducerJobStore
	filings ProducerFilingStore
	broker  queue.Broker
}

// NewJobProducer creates a new job producer
func NewJobProducer(jobs ProducerJobStore, filings ProducerFilingStore, broker queue.Broker) *JobProducer {
	return &JobProducer{jobs: jobs, filings: filings, broker: broker}
}

// CreateIngestJob queues an ingest job for a filing. revision bumps the
// ingestion version, invalidating comparisons made against older content.
func (p *JobProducer) CreateIngestJob(ctx context.Context, filingID primitive.ObjectID, revision bool) (*models.Job, error) {
	if _, err := p.filings.GetByID(ctx, filingID); err != nil {
		return nil, err
	}
	if err := p.filings.MarkQueued(ctx, filingID, revision); err != nil {
		return nil, err
	}
	return p.publish(ctx, models.JobIngest, filingID)
}

// CreateSimilarityJob queues a similarity check for an indexed filing.
func (p *JobProducer) CreateSimilarityJob(ctx context.Context, filingID primitive.ObjectID) (*models.Job, error) {
	filing, err := p.filings.GetByID(ctx, filingID)
	if err != nil {
		return nil, err
	}
	if filing.Ingestion.Status != models.IngestionIndexed {
		return nil, fmt.Errorf("filing must be indexed before similarity analysis (status %s)", filing.Ingestion.Status)
	}
	return p.publish(ctx, models.JobSimilarityCheck, filingID)
}

func (p *JobProducer) publish(ctx context.Context, jobType models.JobType, filingID primitive.ObjectID) (*models.Job, error) {
	job, err := p.jobs.Create(ctx, jobType, filingID)
	if err != nil {
		return nil, err
	}

	msg := queue.Message{
		ID:       job.ID.Hex(),
		Type:     jobType,
		FilingID: filingID.Hex(),
	}
	if err := p.broker.Publish(ctx, msg); err != nil {
		if failErr := p.jobs.SetStatus(ctx, job.ID, models.JobFailed, err.Error()); failErr != nil {
			logger.Error("failed to mark unpublished job FAILED", "job_id", job.ID.Hex(), "error", failErr)
		}
		return nil, err
	}

	logger.Info("job queued", "job_id", job.ID.Hex(), "type", jobType, "filing_id", filingID.Hex())
	return job, nil
}
