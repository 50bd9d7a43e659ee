package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"patent-ip-platform/internal/logger"
	"patent-ip-platform/internal/vector"
	"patent-ip-platform/models"
)

// ErrEmbeddingCountMismatch marks a batch embedding call that returned a
// different number of vectors than texts. This is a stage-fatal error.
var ErrEmbeddingCountMismatch = fmt.Errorf("embedding batch returned wrong vector count")

// BatchEmbedder is the embedding collaborator contract.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorWriter is the slice of the vector store the indexer needs.
type VectorWriter interface {
	UpsertBatch(ctx context.Context, section models.Section, points []vector.Point) error
}

// VectorIndexer turns a filing's structured content into embeddable units
// and writes them into the section partitions.
type VectorIndexer struct {
	embedder          BatchEmbedder
	store             VectorWriter
	embeddingVersion  string
	diagramConfidence float64
}

// NewVectorIndexer creates a new vector indexer
func NewVectorIndexer(embedder BatchEmbedder, store VectorWriter, embeddingVersion string, diagramConfidence float64) *VectorIndexer {
	return &VectorIndexer{
		embedder:          embedder,
		store:             store,
		embeddingVersion:  embeddingVersion,
		diagramConfidence: diagramConfidence,
	}
}

type embeddableUnit struct {
	text      string
	claimNo   int
	chunkID   string
	diagramID string
}

// IndexFiling embeds and writes every unit of the filing: the abstract (if
// present), each expanded claim, each description chunk, and each diagram
// whose confidence clears the gate with a non-empty summary. Writes are one
// batched upsert per section.
func (x *VectorIndexer) IndexFiling(ctx context.Context, filing *models.Filing) error {
	units := map[models.Section][]embeddableUnit{}

	if abstract := filing.Ingestion.Raw.AbstractText; abstract != "" {
		units[models.SectionAbstract] = []embeddableUnit{{text: abstract}}
	}

	for _, claim := range filing.Ingestion.Structured.Claims {
		text := claim.ExpandedText
		if text == "" {
			text = claim.Text
		}
		units[models.SectionClaim] = append(units[models.SectionClaim], embeddableUnit{
			text:    text,
			claimNo: claim.ClaimNo,
		})
	}

	for _, chunk := range filing.Ingestion.Structured.DescriptionChunks {
		units[models.SectionDescription] = append(units[models.SectionDescription], embeddableUnit{
			text:    chunk.Text,
			chunkID: chunk.ChunkID,
		})
	}

	for _, diagram := range filing.Ingestion.Structured.Diagrams {
		// Low-confidence or summaryless diagrams are noise, not signal.
		if diagram.Confidence < x.diagramConfidence || diagram.SemanticSummary == "" {
			continue
		}
		units[models.SectionDiagram] = append(units[models.SectionDiagram], embeddableUnit{
			text:      diagram.SemanticSummary,
			diagramID: diagram.DiagramID,
		})
	}

	for section, sectionUnits := range units {
		if err := x.indexSection(ctx, filing, section, sectionUnits); err != nil {
			return fmt.Errorf("indexing %s failed: %w", section, err)
		}
	}
	return nil
}

func (x *VectorIndexer) indexSection(ctx context.Context, filing *models.Filing, section models.Section, units []embeddableUnit) error {
	texts := make([]string, 0, len(units))
	for _, u := range units {
		texts = append(texts, u.text)
	}

	vectors, err := x.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: %d texts, %d vectors", ErrEmbeddingCountMismatch, len(texts), len(vectors))
	}

	points := make([]vector.Point, 0, len(units))
	for i, u := range units {
		points = append(points, vector.Point{
			ID:     uuid.New().String(),
			Vector: vectors[i],
			Payload: vector.Payload{
				FilingID:         filing.ID.Hex(),
				Section:          section,
				Classification:   filing.Classification.SearchCode(),
				IngestionVersion: filing.Ingestion.Version,
				EmbeddingVersion: x.embeddingVersion,
				Content:          u.text,
				ClaimNo:          u.claimNo,
				ChunkID:          u.chunkID,
				DiagramID:        u.diagramID,
			},
		})
	}

	if err := x.store.UpsertBatch(ctx, section, points); err != nil {
		return err
	}

	logger.Debug("section indexed",
		"filing_id", filing.ID.Hex(),
		"section", section,
		"points", len(points))
	return nil
}
