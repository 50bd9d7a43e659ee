// Package worker runs the queue consumer that dispatches pipeline jobs to
// the ingestion orchestrator and the similarity analyzer.
package worker

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/internal/logger"
	"patent-ip-platform/internal/queue"
	"patent-ip-platform/internal/telemetry"
	"patent-ip-platform/models"
)

// JobStore is the slice of the job store the worker needs.
type JobStore interface {
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.JobStatus, jobErr string) error
}

// Ingester runs the ingestion pipeline for one filing.
type Ingester interface {
	RunIngest(ctx context.Context, filingID primitive.ObjectID) error
}

// SimilarityChecker runs the similarity analysis for one filing.
type SimilarityChecker interface {
	RunSimilarityCheck(ctx context.Context, filingID primitive.ObjectID) error
}

// Worker consumes the job queue and executes pipeline runs. Each message
// moves its job record RUNNING then COMPLETED or FAILED; there is no
// automatic retry.
type Worker struct {
	broker     queue.Broker
	jobs       JobStore
	ingest     Ingester
	similarity SimilarityChecker
	metrics    *telemetry.Metrics
}

// New creates a new worker
func New(broker queue.Broker, jobs JobStore, ingest Ingester, similarity SimilarityChecker, metrics *telemetry.Metrics) *Worker {
	return &Worker{
		broker:     broker,
		jobs:       jobs,
		ingest:     ingest,
		similarity: similarity,
		metrics:    metrics,
	}
}

// Run blocks consuming the queue until the context is canceled.
func (w *Worker) Run(ctx context.Context) error {
	logger.Info("worker consuming job queue")
	return w.broker.Consume(ctx, w.handle)
}

func (w *Worker) handle(ctx context.Context, msg queue.Message) error {
	jobID, err := primitive.ObjectIDFromHex(msg.ID)
	if err != nil {
		// Unrecoverable message; retrying cannot fix a malformed id.
		logger.Error("dropping message with invalid job id", "job_id", msg.ID, "error", err)
		return nil
	}
	filingID, err := primitive.ObjectIDFromHex(msg.FilingID)
	if err != nil {
		logger.Error("dropping message with invalid filing id", "job_id", msg.ID, "filing_id", msg.FilingID, "error", err)
		return w.jobs.SetStatus(ctx, jobID, models.JobFailed, "invalid filing id: "+msg.FilingID)
	}

	if err := w.jobs.SetStatus(ctx, jobID, models.JobRunning, ""); err != nil {
		return err
	}

	logger.Info("job started", "job_id", msg.ID, "type", msg.Type, "filing_id", msg.FilingID)

	var runErr error
	switch msg.Type {
	case models.JobIngest:
		runErr = w.ingest.RunIngest(ctx, filingID)
	case models.JobSimilarityCheck:
		runErr = w.similarity.RunSimilarityCheck(ctx, filingID)
	default:
		runErr = fmt.Errorf("unknown job type %q", msg.Type)
	}

	if runErr != nil {
		if w.metrics != nil {
			w.metrics.RecordJob(string(msg.Type), string(models.JobFailed))
		}
		logger.Error("job failed", "job_id", msg.ID, "type", msg.Type, "error", runErr)
		if err := w.jobs.SetStatus(ctx, jobID, models.JobFailed, runErr.Error()); err != nil {
			return err
		}
		return runErr
	}

	if w.metrics != nil {
		w.metrics.RecordJob(string(msg.Type), string(models.JobCompleted))
	}
	logger.Info("job completed", "job_id", msg.ID, "type", msg.Type)
	return w.jobs.SetStatus(ctx, jobID, models.JobCompleted, "")
}
