package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"patent-ip-platform/internal/config"
	"patent-ip-platform/internal/logger"
	"patent-ip-platform/models"
)

const (
	TaskFilingIngest    = "filing:ingest"
	TaskSimilarityCheck = "filing:similarity_check"
)

func taskTypeFor(jobType models.JobType) (string, error) {
	switch jobType {
	case models.JobIngest:
		return TaskFilingIngest, nil
	case models.JobSimilarityCheck:
		return TaskSimilarityCheck, nil
	default:
		return "", fmt.Errorf("unknown job type %q", jobType)
	}
}

// AsynqBroker is the durable transport: Redis-backed, at-least-once.
// Failed jobs are not retried by the transport; recovery is always a new
// job instance.
type AsynqBroker struct {
	client      *asynq.Client
	redisOpt    asynq.RedisClientOpt
	queueName   string
	concurrency int
}

func NewAsynqBroker(cfg *config.Config) *AsynqBroker {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	return &AsynqBroker{
		client:      asynq.NewClient(redisOpt),
		redisOpt:    redisOpt,
		queueName:   cfg.QueueName,
		concurrency: cfg.WorkerConcurrency,
	}
}

func (b *AsynqBroker) Publish(ctx context.Context, msg Message) error {
	taskType, err := taskTypeFor(msg.Type)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		taskType,
		payload,
		asynq.MaxRetry(0), // no automatic retry; a failed job needs a new instance
		asynq.Timeout(30*time.Minute),
		asynq.Queue(b.queueName),
	)

	if _, err := b.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}
	return nil
}

func (b *AsynqBroker) Consume(ctx context.Context, handler Handler) error {
	server := asynq.NewServer(
		b.redisOpt,
		asynq.Config{
			Concurrency: b.concurrency,
			Queues: map[string]int{
				b.queueName: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	decode := func(ctx context.Context, t *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
		}
		return handler(ctx, msg)
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFilingIngest, decode)
	mux.HandleFunc(TaskSimilarityCheck, decode)

	if err := server.Start(mux); err != nil {
		return err
	}
	<-ctx.Done()
	server.Shutdown()
	return ctx.Err()
}

func (b *AsynqBroker) Close() error {
	return b.client.Close()
}
