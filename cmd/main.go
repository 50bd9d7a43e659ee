package main

import (
	"context"
	"log"
	"net/http"
	"os"
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
	"patent-ip-platform/middleware"
	"patent-ip-platform/routes"
	"patent-ip-platform/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize structured logging
	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Initialize tracing
	shutdownTracer, err := telemetry.InitTracer("patent-ip-platform-api")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer shutdownTracer()
	}

	db := mongoClient.Database(cfg.DBName)
	filingStore := store.NewFilingStore(db)
	jobStore := store.NewJobStore(db)
	snapshotStore := store.NewSnapshotStore(db)

	// Select queue transport (durable Redis or in-memory fallback)
	broker := queue.Connect(cfg)
	defer broker.Close()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	// The in-memory broker lives inside this process only, so jobs must be
	// consumed here as well; with the durable transport a separate worker
	// binary consumes the queue.
	if _, inMemory := broker.(*queue.MemoryBroker); inMemory {
		startInlineWorker(workerCtx, cfg, db, broker)
	}

	producer := services.NewJobProducer(jobStore, filingStore, broker)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("patent-ip-platform-api"))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupFilingRoutes(router, filingStore, producer)
	routes.SetupAnalysisRoutes(router, filingStore, snapshotStore, jobStore, producer)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopWorker()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// startInlineWorker wires the full pipeline into this process and consumes
// the in-memory queue. Failures here disable job processing but leave the
// read API up.
func startInlineWorker(ctx context.Context, cfg *config.Config, db *mongo.Database, broker queue.Broker) {
	vectorStore, err := vector.NewStore(vector.Config{URL: cfg.QdrantURL, APIKey: cfg.QdrantAPIKey})
	if err != nil {
		log.Printf("Inline worker disabled, Qdrant unavailable: %v", err)
		return
	}
	if err := vectorStore.EnsureCollections(ctx, uint64(cfg.VectorDimensions)); err != nil {
		log.Printf("Inline worker disabled, Qdrant bootstrap failed: %v", err)
		return
	}

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiTier, cfg.ReasoningModel, cfg.VisionModel)
	if err != nil {
		log.Printf("Inline worker disabled, Gemini unavailable: %v", err)
		return
	}
	embedder, err := ai.NewEmbedder(cfg.GeminiAPIKey, cfg.EmbeddingsModel)
	if err != nil {
		log.Printf("Inline worker disabled, embedder unavailable: %v", err)
		return
	}

	filingStore := store.NewFilingStore(db)
	jobStore := store.NewJobStore(db)
	snapshotStore := store.NewSnapshotStore(db)

	rasterClient := services.NewRasterClient(cfg)
	indexer := services.NewVectorIndexer(embedder, vectorStore, cfg.EmbeddingVersion, cfg.DiagramConfidenceThreshold)
	orchestrator := services.NewIngestionOrchestrator(
		filingStore,
		services.NewHTTPFetcher(time.Duration(cfg.FetchTimeoutSeconds)*time.Second),
		services.NewPDFTextExtractor(),
		rasterClient,
		rasterClient,
		geminiClient,
		services.NewClaimProcessor(),
		services.NewDescriptionChunker(cfg.ChunkMaxWords, cfg.ChunkOverlapWords),
		services.NewCitationScanner(),
		indexer,
		nil,
	)

	discovery := services.NewDiscoveryEngine(vectorStore, cfg.EmbeddingVersion, cfg.TopKPerQuery, cfg.MaxCandidates)
	analyzer := services.NewSimilarityAnalyzer(
		filingStore,
		snapshotStore,
		discovery,
		services.NewAdvisoryAdapter(geminiClient),
		services.NewRationaleEnricher(geminiClient),
		cfg.AdvisoryTopK,
		cfg.EmbeddingVersion,
		nil,
	)

	w := worker.New(broker, jobStore, orchestrator, analyzer, nil)
	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("Inline worker stopped: %v", err)
		}
	}()
	log.Println("Inline worker started on in-memory queue")
}
