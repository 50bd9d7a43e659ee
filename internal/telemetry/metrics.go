package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	JobsProcessed      metric.Int64Counter
	StageDuration      metric.Float64Histogram
	VectorsWritten     metric.Int64Counter
	AnalysisDuration   metric.Float64Histogram
	EmbeddingRequests  metric.Int64Counter
	DatabaseOperations metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("patent-ip-platform")

	jobsProcessed, err := meter.Int64Counter(
		"pipeline.jobs.processed",
		metric.WithDescription("Total pipeline jobs processed"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline.stage.duration",
		metric.WithDescription("Ingestion stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	vectorsWritten, err := meter.Int64Counter(
		"vector.points.written",
		metric.WithDescription("Total vector points upserted"),
	)
	if err != nil {
		return nil, err
	}

	analysisDuration, err := meter.Float64Histogram(
		"similarity.analysis.duration",
		metric.WithDescription("Similarity analysis duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingRequests, err := meter.Int64Counter(
		"gemini.embedding.requests",
		metric.WithDescription("Total embedding batch requests"),
	)
	if err != nil {
		return nil, err
	}

	databaseOperations, err := meter.Int64Counter(
		"database.operations.total",
		metric.WithDescription("Total database operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		JobsProcessed:      jobsProcessed,
		StageDuration:      stageDuration,
		VectorsWritten:     vectorsWritten,
		AnalysisDuration:   analysisDuration,
		EmbeddingRequests:  embeddingRequests,
		DatabaseOperations: databaseOperations,
	}, nil
}

// RecordJob records a completed or failed pipeline job
func (m *Metrics) RecordJob(jobType, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("job.type", jobType),
		attribute.String("job.status", status),
	}

	m.JobsProcessed.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordStage records the duration of one ingestion stage
func (m *Metrics) RecordStage(stage string, duration float64, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("pipeline.stage", stage),
		attribute.Bool("pipeline.success", success),
	}

	m.StageDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordVectorsWritten records vector points written per section
func (m *Metrics) RecordVectorsWritten(section string, count int64) {
	attrs := []attribute.KeyValue{
		attribute.String("vector.section", section),
	}

	m.VectorsWritten.Add(context.Background(), count, metric.WithAttributes(attrs...))
}

// RecordAnalysis records similarity analysis metrics
func (m *Metrics) RecordAnalysis(duration float64, verdict string) {
	attrs := []attribute.KeyValue{
		attribute.String("analysis.verdict", verdict),
	}

	m.AnalysisDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordEmbeddingRequest records an embedding batch call
func (m *Metrics) RecordEmbeddingRequest(model string, count int64) {
	attrs := []attribute.KeyValue{
		attribute.String("gemini.model", model),
	}

	m.EmbeddingRequests.Add(context.Background(), count, metric.WithAttributes(attrs...))
}

// RecordDatabaseOperation records database operation metrics
func (m *Metrics) RecordDatabaseOperation(operation, collection string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
		attribute.Bool("db.success", success),
	}

	m.DatabaseOperations.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
