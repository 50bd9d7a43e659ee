package services

import (
	"context"
	"fmt"
	"sort"

	"patent-ip-platform/internal/logger"
	"patent-ip-platform/internal/vector"
	"patent-ip-platform/models"
)

// sectionWeights rank sections by legal weight when scoring candidates.
// Claims dominate because they define the protected scope.
var sectionWeights = map[models.Section]float64{
	models.SectionClaim:       1.0,
	models.SectionAbstract:    0.6,
	models.SectionDescription: 0.4,
	models.SectionDiagram:     0.3,
}

// representativeQueryLimits caps how many query vectors each section
// contributes for a target filing.
var representativeQueryLimits = map[models.Section]int{
	models.SectionAbstract:    1,
	models.SectionClaim:       3,
	models.SectionDescription: 2,
	models.SectionDiagram:     1,
}

// VectorSearcher is the slice of the vector store the discovery engine needs.
type VectorSearcher interface {
	Search(ctx context.Context, section models.Section, vec []float32, opts vector.SearchOptions) ([]vector.Match, error)
	ListByFiling(ctx context.Context, section models.Section, filingID, embeddingVersion string, limit int) ([]vector.StoredVector, error)
}

// Candidate is one prior-art candidate surfaced by similarity discovery.
type Candidate struct {
	FilingID   string
	Score      float64
	SectionMax map[models.Section]float64
	Evidence   []models.EvidenceMatch
}

// DiscoveryEngine finds prior-art candidates for an indexed target filing
// by nearest-neighbor search over the section partitions.
type DiscoveryEngine struct {
	store            VectorSearcher
	embeddingVersion string
	topKPerQuery     int
	maxCandidates    int
}

// NewDiscoveryEngine creates a new discovery engine
func NewDiscoveryEngine(store VectorSearcher, embeddingVersion string, topKPerQuery, maxCandidates int) *DiscoveryEngine {
	return &DiscoveryEngine{
		store:            store,
		embeddingVersion: embeddingVersion,
		topKPerQuery:     topKPerQuery,
		maxCandidates:    maxCandidates,
	}
}

// DiscoverCandidates selects representative query vectors from the target's
// own indexed sections, searches each matching partition and aggregates hits
// per candidate filing. Per candidate and section the maximum score across
// queries is tracked, not the sum, so a filing hit by many queries is not
// inflated by query count alone.
func (e *DiscoveryEngine) DiscoverCandidates(ctx context.Context, filing *models.Filing) ([]Candidate, error) {
	if filing.Ingestion.Status != models.IngestionIndexed {
		return nil, fmt.Errorf("filing %s is not indexed (status %s)", filing.ID.Hex(), filing.Ingestion.Status)
	}

	queries, err := e.selectRepresentativeQueries(ctx, filing)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("no indexed vectors found for filing %s at version %s", filing.ID.Hex(), e.embeddingVersion)
	}

	targetID := filing.ID.Hex()
	byFiling := make(map[string]*Candidate)

	for _, q := range queries {
		matches, err := e.store.Search(ctx, q.Payload.Section, q.Vector, vector.SearchOptions{
			Limit:              e.topKPerQuery,
			EmbeddingVersion:   e.embeddingVersion,
			ClassificationBias: filing.Classification.SearchCode(),
		})
		if err != nil {
			return nil, err
		}

		for _, m := range matches {
			if m.FilingID == targetID || m.FilingID == "" {
				continue
			}

			cand, ok := byFiling[m.FilingID]
			if !ok {
				cand = &Candidate{
					FilingID:   m.FilingID,
					SectionMax: make(map[models.Section]float64),
				}
				byFiling[m.FilingID] = cand
			}
			if m.Score > cand.SectionMax[m.Section] {
				cand.SectionMax[m.Section] = m.Score
			}
			cand.Evidence = append(cand.Evidence, models.EvidenceMatch{
				Section:       m.Section,
				Score:         m.Score,
				Content:       m.Content,
				TargetClaimNo: q.Payload.ClaimNo,
				SourceClaimNo: m.ClaimNo,
				SourceChunkID: m.ChunkID,
			})
		}
	}

	candidates := make([]Candidate, 0, len(byFiling))
	for _, cand := range byFiling {
		cand.Score = ScoreCandidate(cand.SectionMax)
		candidates = append(candidates, *cand)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > e.maxCandidates {
		candidates = candidates[:e.maxCandidates]
	}

	logger.Info("similarity discovery complete",
		"filing_id", targetID,
		"queries", len(queries),
		"candidates", len(candidates))
	return candidates, nil
}

// ScoreCandidate computes the weighted aggregate of per-section maxima.
func ScoreCandidate(sectionMax map[models.Section]float64) float64 {
	var score float64
	for section, max := range sectionMax {
		score += max * sectionWeights[section]
	}
	return score
}

// selectRepresentativeQueries picks the query vectors for each section: the
// abstract, the top independent claims, leading description chunks and one
// diagram summary.
func (e *DiscoveryEngine) selectRepresentativeQueries(ctx context.Context, filing *models.Filing) ([]vector.StoredVector, error) {
	independent := make(map[int]bool)
	for _, c := range filing.Ingestion.Structured.Claims {
		if len(c.DependsOn) == 0 {
			independent[c.ClaimNo] = true
		}
	}

	var queries []vector.StoredVector
	for _, section := range models.AllSections {
		limit := representativeQueryLimits[section]

		// Over-fetch claims so independent ones can be preferred.
		listLimit := limit
		if section == models.SectionClaim {
			listLimit = limit * 10
		}

		stored, err := e.store.ListByFiling(ctx, section, filing.ID.Hex(), e.embeddingVersion, listLimit)
		if err != nil {
			return nil, err
		}

		if section == models.SectionClaim {
			stored = preferIndependentClaims(stored, independent)
		}
		if len(stored) > limit {
			stored = stored[:limit]
		}
		queries = append(queries, stored...)
	}
	return queries, nil
}

func preferIndependentClaims(stored []vector.StoredVector, independent map[int]bool) []vector.StoredVector {
	sort.SliceStable(stored, func(i, j int) bool {
		ii := independent[stored[i].Payload.ClaimNo]
		ij := independent[stored[j].Payload.ClaimNo]
		if ii != ij {
			return ii
		}
		return stored[i].Payload.ClaimNo < stored[j].Payload.ClaimNo
	})
	return stored
}
