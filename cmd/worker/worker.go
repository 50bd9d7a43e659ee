package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"patent-ip-platform/internal/ai"
	"patent-ip-platform/internal/config"
	"patent-ip-platform/internal/logger"
	"patent-ip-platform/internal/queue"
	"patent-ip-platform/internal/store"
	"patent-ip-platform/internal/telemetry"
	"patent-ip-platform/internal/vector"
	"patent-ip-platform/internal/worker"
	"patent-ip-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize structured logging
	logger.InitLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(shutdownCtx)
	}()

	// Initialize tracing and metrics
	shutdownTracer, err := telemetry.InitTracer("patent-ip-platform-worker")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer shutdownTracer()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Printf("Metrics disabled: %v", err)
		metrics = nil
	}

	db := mongoClient.Database(cfg.DBName)
	filingStore := store.NewFilingStore(db)
	jobStore := store.NewJobStore(db)
	snapshotStore := store.NewSnapshotStore(db)

	// Initialize vector store and section partitions
	vectorStore, err := vector.NewStore(vector.Config{URL: cfg.QdrantURL, APIKey: cfg.QdrantAPIKey})
	if err != nil {
		log.Fatal("Failed to create Qdrant client:", err)
	}
	defer vectorStore.Close()
	if err := vectorStore.EnsureCollections(ctx, uint64(cfg.VectorDimensions)); err != nil {
		log.Fatal("Failed to ensure Qdrant collections:", err)
	}

	// Initialize Gemini clients
	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiTier, cfg.ReasoningModel, cfg.VisionModel)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	embedder, err := ai.NewEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingsModel)
	if err != nil {
		log.Fatal("Failed to initialize embedder:", err)
	}
	defer embedder.Close()

	// Ingestion pipeline
	fetcher := services.NewHTTPFetcher(time.Duration(cfg.FetchTimeoutSeconds) * time.Second)
	rasterClient := services.NewRasterClient(cfg)
	indexer := services.NewVectorIndexer(embedder, vectorStore, cfg.EmbeddingVersion, cfg.DiagramConfidenceThreshold)
	orchestrator := services.NewIngestionOrchestrator(
		filingStore,
		fetcher,
		services.NewPDFTextExtractor(),
		rasterClient,
		rasterClient,
		geminiClient,
		services.NewClaimProcessor(),
		services.NewDescriptionChunker(cfg.ChunkMaxWords, cfg.ChunkOverlapWords),
		services.NewCitationScanner(),
		indexer,
		metrics,
	)

	// Similarity pipeline
	discovery := services.NewDiscoveryEngine(vectorStore, cfg.EmbeddingVersion, cfg.TopKPerQuery, cfg.MaxCandidates)
	analyzer := services.NewSimilarityAnalyzer(
		filingStore,
		snapshotStore,
		discovery,
		services.NewAdvisoryAdapter(geminiClient),
		services.NewRationaleEnricher(geminiClient),
		cfg.AdvisoryTopK,
		cfg.EmbeddingVersion,
		metrics,
	)

	// Select queue transport and start consuming
	broker := queue.Connect(cfg)
	defer broker.Close()

	w := worker.New(broker, jobStore, orchestrator, analyzer, metrics)

	log.Println("🚀 Starting pipeline worker...")
	log.Printf("   Concurrency: %d", cfg.WorkerConcurrency)
	log.Printf("   Queue: %s", cfg.QueueName)

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal("Worker stopped:", err)
	}
	log.Println("Worker exited")
}
