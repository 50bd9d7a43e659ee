// Package vector provides the section-partitioned Qdrant store used by the
// indexing and discovery pipelines. Each filing section lives in its own
// collection; every payload carries filing id, classification code, content
// version and embedding version so multiple ingestion generations coexist.
package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	qd "github.com/qdrant/go-client/qdrant"

	"patent-ip-platform/models"
)

// sectionCollections is the exhaustive section-to-partition table. Unknown
// sections are rejected at this boundary, not at storage time.
var sectionCollections = map[models.Section]string{
	models.SectionAbstract:    "filing_abstract",
	models.SectionClaim:       "filing_claim",
	models.SectionDescription: "filing_description",
	models.SectionDiagram:     "filing_diagram",
}

// CollectionFor resolves a section to its Qdrant collection name.
func CollectionFor(section models.Section) (string, error) {
	name, ok := sectionCollections[section]
	if !ok {
		return "", fmt.Errorf("unknown section %q", section)
	}
	return name, nil
}

// Payload is the metadata stored alongside every vector.
type Payload struct {
	FilingID         string
	Section          models.Section
	Classification   string
	IngestionVersion int
	EmbeddingVersion string
	Content          string
	ClaimNo          int
	ChunkID          string
	DiagramID        string
}

// Point is one embeddable unit ready for upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Match is one nearest-neighbor hit from a section partition.
type Match struct {
	FilingID  string
	Section   models.Section
	Score     float64
	Content   string
	ClaimNo   int
	ChunkID   string
	DiagramID string
}

// StoredVector is one listed vector with its payload, used to build
// representative queries for a target filing.
type StoredVector struct {
	Vector  []float32
	Payload Payload
}

// SearchOptions tune a partition search.
type SearchOptions struct {
	Limit            int
	EmbeddingVersion string
	// ClassificationBias soft-biases results toward a classification code
	// without excluding other codes.
	ClassificationBias string
}

type Store struct {
	client *qd.Client
}

type Config struct {
	URL    string
	APIKey string
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant URL is required")
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	port := 6334
	if parsedURL.Port() != "" {
		p, err := strconv.ParseInt(parsedURL.Port(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Qdrant port: %w", err)
		}
		port = int(p)
	}

	client, err := qd.NewClient(&qd.Config{
		Host:   parsedURL.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// EnsureCollections creates every section partition that does not exist yet,
// with cosine distance and payload indexes for filtered retrieval.
func (s *Store) EnsureCollections(ctx context.Context, vectorSize uint64) error {
	for _, section := range models.AllSections {
		name := sectionCollections[section]

		exists, err := s.client.CollectionExists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check collection %s: %w", name, err)
		}
		if exists {
			continue
		}

		err = s.client.CreateCollection(ctx, &qd.CreateCollection{
			CollectionName: name,
			VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
				Size:     vectorSize,
				Distance: qd.Distance_Cosine,
			}),
			ShardNumber: qd.PtrOf(uint32(2)),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}

		for _, field := range []string{"filing_id", "classification", "embedding_version"} {
			_, err = s.client.CreateFieldIndex(ctx, &qd.CreateFieldIndexCollection{
				CollectionName: name,
				FieldName:      field,
				FieldType:      qd.FieldType_FieldTypeKeyword.Enum(),
			})
			if err != nil {
				return fmt.Errorf("failed to index %s.%s: %w", name, field, err)
			}
		}
	}
	return nil
}

// UpsertBatch writes a batch of points into the partition of one section in
// a single call.
func (s *Store) UpsertBatch(ctx context.Context, section models.Section, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	collection, err := CollectionFor(section)
	if err != nil {
		return err
	}

	qdPoints := make([]*qd.PointStruct, 0, len(points))
	for _, p := range points {
		qdPoints = append(qdPoints, &qd.PointStruct{
			Id:      &qd.PointId{PointIdOptions: &qd.PointId_Uuid{Uuid: p.ID}},
			Vectors: qd.NewVectors(p.Vector...),
			Payload: buildPayload(p.Payload),
		})
	}

	wait := true
	_, err = s.client.Upsert(ctx, &qd.UpsertPoints{
		CollectionName: collection,
		Points:         qdPoints,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// Search runs a nearest-neighbor query against one section partition,
// filtered by embedding version and soft-biased toward a classification code
// when one is supplied.
func (s *Store) Search(ctx context.Context, section models.Section, vec []float32, opts SearchOptions) ([]Match, error) {
	collection, err := CollectionFor(section)
	if err != nil {
		return nil, err
	}

	filter := &qd.Filter{}
	if opts.EmbeddingVersion != "" {
		filter.Must = append(filter.Must, qd.NewMatch("embedding_version", opts.EmbeddingVersion))
	}
	if opts.ClassificationBias != "" {
		filter.Should = append(filter.Should, qd.NewMatch("classification", opts.ClassificationBias))
	}

	limit := uint64(opts.Limit)
	results, err := s.client.Query(ctx, &qd.QueryPoints{
		CollectionName: collection,
		Query:          qd.NewQuery(vec...),
		Limit:          &limit,
		Filter:         filter,
		WithPayload:    qd.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed on %s: %w", collection, err)
	}

	matches := make([]Match, 0, len(results))
	for _, point := range results {
		payload := parsePayload(point.Payload)
		matches = append(matches, Match{
			FilingID:  payload.FilingID,
			Section:   section,
			Score:     float64(point.Score),
			Content:   payload.Content,
			ClaimNo:   payload.ClaimNo,
			ChunkID:   payload.ChunkID,
			DiagramID: payload.DiagramID,
		})
	}
	return matches, nil
}

// ListByFiling scrolls a section partition for a filing's own vectors at a
// given embedding version, returning vectors with payloads.
func (s *Store) ListByFiling(ctx context.Context, section models.Section, filingID, embeddingVersion string, limit int) ([]StoredVector, error) {
	collection, err := CollectionFor(section)
	if err != nil {
		return nil, err
	}

	filter := &qd.Filter{
		Must: []*qd.Condition{
			qd.NewMatch("filing_id", filingID),
			qd.NewMatch("embedding_version", embeddingVersion),
		},
	}

	points, err := s.client.Scroll(ctx, &qd.ScrollPoints{
		CollectionName: collection,
		Filter:         filter,
		Limit:          qd.PtrOf(uint32(limit)),
		WithPayload:    qd.NewWithPayload(true),
		WithVectors:    qd.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant scroll failed on %s: %w", collection, err)
	}

	vectors := make([]StoredVector, 0, len(points))
	for _, point := range points {
		var vec []float32
		if v := point.GetVectors().GetVector(); v != nil {
			vec = v.GetData()
		}
		if len(vec) == 0 {
			continue
		}
		vectors = append(vectors, StoredVector{
			Vector:  vec,
			Payload: parsePayload(point.Payload),
		})
	}
	return vectors, nil
}

func buildPayload(p Payload) map[string]*qd.Value {
	payload := map[string]*qd.Value{
		"filing_id":         qd.NewValueString(p.FilingID),
		"section":           qd.NewValueString(string(p.Section)),
		"ingestion_version": qd.NewValueInt(int64(p.IngestionVersion)),
		"embedding_version": qd.NewValueString(p.EmbeddingVersion),
		"content":           qd.NewValueString(p.Content),
	}
	if p.Classification != "" {
		payload["classification"] = qd.NewValueString(p.Classification)
	}
	if p.ClaimNo > 0 {
		payload["claim_no"] = qd.NewValueInt(int64(p.ClaimNo))
	}
	if p.ChunkID != "" {
		payload["chunk_id"] = qd.NewValueString(p.ChunkID)
	}
	if p.DiagramID != "" {
		payload["diagram_id"] = qd.NewValueString(p.DiagramID)
	}
	return payload
}

func parsePayload(raw map[string]*qd.Value) Payload {
	p := Payload{}
	if raw == nil {
		return p
	}
	if v, ok := raw["filing_id"]; ok {
		p.FilingID = v.GetStringValue()
	}
	if v, ok := raw["section"]; ok {
		if section, err := models.ParseSection(v.GetStringValue()); err == nil {
			p.Section = section
		}
	}
	if v, ok := raw["classification"]; ok {
		p.Classification = v.GetStringValue()
	}
	if v, ok := raw["ingestion_version"]; ok {
		p.IngestionVersion = int(v.GetIntegerValue())
	}
	if v, ok := raw["embedding_version"]; ok {
		p.EmbeddingVersion = v.GetStringValue()
	}
	if v, ok := raw["content"]; ok {
		p.Content = v.GetStringValue()
	}
	if v, ok := raw["claim_no"]; ok {
		p.ClaimNo = int(v.GetIntegerValue())
	}
	if v, ok := raw["chunk_id"]; ok {
		p.ChunkID = v.GetStringValue()
	}
	if v, ok := raw["diagram_id"]; ok {
		p.DiagramID = v.GetStringValue()
	}
	return p
}
