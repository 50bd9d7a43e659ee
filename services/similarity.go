package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/internal/logger"
	"patent-ip-platform/internal/telemetry"
	"patent-ip-platform/models"
)

// LowConfidenceDisclaimer is the mandatory note carried by LOW-confidence
// snapshots.
const LowConfidenceDisclaimer = "Similarity assessment has low confidence due to limited overlap."

// SimilarityFilingStore is the slice of the filing store the analyzer needs.
type SimilarityFilingStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Filing, error)
	AppendAnalysisRef(ctx context.Context, id, snapshotID primitive.ObjectID) error
	SetFinalVerdict(ctx context.Context, id primitive.ObjectID, verdict models.Verdict) error
}

// SnapshotCreator persists immutable comparison snapshots.
type SnapshotCreator interface {
	Create(ctx context.Context, snap *models.SimilaritySnapshot) (*models.SimilaritySnapshot, error)
}

// CandidateDiscoverer surfaces prior-art candidates for a target filing.
type CandidateDiscoverer interface {
	DiscoverCandidates(ctx context.Context, filing *models.Filing) ([]Candidate, error)
}

// AdvisoryAnalyzer produces a sanitized judgment for one candidate.
type AdvisoryAnalyzer interface {
	Analyze(ctx context.Context, target, candidate *models.Filing) models.AdvisoryJudgment
}

// EvidenceEnricher annotates evidence matches with rationales.
type EvidenceEnricher interface {
	Enrich(ctx context.Context, target, candidate *models.Filing, matches []models.EvidenceMatch) []models.EvidenceMatch
}

// SimilarityAnalyzer runs the full similarity check for one target filing:
// discovery, advisory reasoning on the top candidates, snapshot persistence
// and the final deterministic verdict.
type SimilarityAnalyzer struct {
	filings          SimilarityFilingStore
	snapshots        SnapshotCreator
	discovery        CandidateDiscoverer
	advisory         AdvisoryAnalyzer
	enricher         EvidenceEnricher
	advisoryTopK     int
	embeddingVersion string
	metrics          *telemetry.Metrics
}

// NewSimilarityAnalyzer creates a new similarity analyzer
func NewSimilarityAnalyzer(
	filings SimilarityFilingStore,
	snapshots SnapshotCreator,
	discovery CandidateDiscoverer,
	advisory AdvisoryAnalyzer,
	enricher EvidenceEnricher,
	advisoryTopK int,
	embeddingVersion string,
	metrics *telemetry.Metrics,
) *SimilarityAnalyzer {
	return &SimilarityAnalyzer{
		filings:          filings,
		snapshots:        snapshots,
		discovery:        discovery,
		advisory:         advisory,
		enricher:         enricher,
		advisoryTopK:     advisoryTopK,
		embeddingVersion: embeddingVersion,
		metrics:          metrics,
	}
}

// RunSimilarityCheck analyzes one target filing against the indexed corpus.
// The target must be INDEXED. Each analyzed candidate yields exactly one
// immutable snapshot pinning both ingestion versions and the embedding
// version in force at analysis time.
func (a *SimilarityAnalyzer) RunSimilarityCheck(ctx context.Context, filingID primitive.ObjectID) error {
	start := time.Now()

	target, err := a.filings.GetByID(ctx, filingID)
	if err != nil {
		return err
	}
	if target.Ingestion.Status != models.IngestionIndexed {
		return fmt.Errorf("filing %s is not indexed (status %s)", filingID.Hex(), target.Ingestion.Status)
	}

	candidates, err := a.discovery.DiscoverCandidates(ctx, target)
	if err != nil {
		return err
	}

	top := candidates
	if len(top) > a.advisoryTopK {
		top = top[:a.advisoryTopK]
	}

	var judgments []CandidateJudgment
	for _, cand := range top {
		judgment, err := a.analyzeCandidate(ctx, target, cand)
		if err != nil {
			return err
		}
		judgments = append(judgments, *judgment)
	}

	verdict := ComputeFinalVerdict(judgments)
	if err := a.filings.SetFinalVerdict(ctx, filingID, verdict); err != nil {
		return err
	}

	if a.metrics != nil {
		a.metrics.RecordAnalysis(time.Since(start).Seconds(), string(verdict.Status))
	}
	logger.Info("similarity check complete",
		"filing_id", filingID.Hex(),
		"candidates", len(candidates),
		"analyzed", len(judgments),
		"verdict", verdict.Status)
	return nil
}

// analyzeCandidate runs advisory reasoning and enrichment for one candidate
// and persists the snapshot. Snapshot creation is all-or-nothing: a store
// failure aborts the job rather than leaving a partial record.
func (a *SimilarityAnalyzer) analyzeCandidate(ctx context.Context, target *models.Filing, cand Candidate) (*CandidateJudgment, error) {
	candidateID, err := primitive.ObjectIDFromHex(cand.FilingID)
	if err != nil {
		return nil, fmt.Errorf("candidate id %q is not a valid object id: %w", cand.FilingID, err)
	}

	candidate, err := a.filings.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("loading candidate %s failed: %w", cand.FilingID, err)
	}

	evidence := a.enricher.Enrich(ctx, target, candidate, cand.Evidence)
	judgment := a.advisory.Analyze(ctx, target, candidate)

	level := models.BucketConfidence(judgment.Confidence)
	snapshot := &models.SimilaritySnapshot{
		TargetID:                 target.ID,
		ComparedID:               candidate.ID,
		TargetIngestionVersion:   target.Ingestion.Version,
		ComparedIngestionVersion: candidate.Ingestion.Version,
		EmbeddingVersion:         a.embeddingVersion,
		SimilarityScore: models.SimilarityScore{
			Overall:   cand.Score,
			Breakdown: cand.SectionMax,
		},
		ConfidenceLevel:  level,
		ConfidenceSource: "advisory",
		ClaimAnalysis:    judgment.ClaimAnalysis,
		DiagramSupport:   judgment.DiagramSupport,
		AgentTrace: models.AgentTrace{
			RetrievedEvidence: evidence,
			AdvisoryOutput:    judgment,
		},
	}
	if level == models.ConfidenceLow {
		snapshot.LowConfidenceNote = LowConfidenceDisclaimer
	}

	created, err := a.snapshots.Create(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("persisting snapshot for candidate %s failed: %w", cand.FilingID, err)
	}
	if err := a.filings.AppendAnalysisRef(ctx, target.ID, created.ID); err != nil {
		return nil, err
	}

	return &CandidateJudgment{CandidateID: cand.FilingID, Judgment: judgment}, nil
}
