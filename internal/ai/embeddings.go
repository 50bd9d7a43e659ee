package ai

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// Embedder produces fixed-dimension vectors via the Google Generative AI
// embedding models. Batch calls return exactly one vector per input; the
// caller treats any count mismatch as fatal.
type Embedder struct {
	client      *genai.Client
	model       string
	rateLimiter *rate.Limiter
}

func NewEmbedder(apiKey, model string) (*Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Embedder{
		client:      client,
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(2), 4),
	}, nil
}

func (e *Embedder) Close() error {
	return e.client.Close()
}

// Embed returns the vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds a batch of texts in one API round trip.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", e.model),
		attribute.Int("gemini.batch_size", len(texts)),
	)

	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(cleanEmbeddingInput(text)))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil {
			vectors = append(vectors, nil)
			continue
		}
		vectors = append(vectors, emb.Values)
	}
	return vectors, nil
}

// cleanEmbeddingInput collapses control whitespace before embedding.
func cleanEmbeddingInput(text string) string {
	replacer := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")
	return strings.TrimSpace(replacer.Replace(text))
}
