package services

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/models"
)

type fakeSimilarityStore struct {
	filings map[primitive.ObjectID]*models.Filing
	refs    []primitive.ObjectID
	verdict *models.Verdict
}

func (f *fakeSimilarityStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Filing, error) {
	return f.filings[id], nil
}

func (f *fakeSimilarityStore) AppendAnalysisRef(ctx context.Context, id, snapshotID primitive.ObjectID) error {
	f.refs = append(f.refs, snapshotID)
	return nil
}

func (f *fakeSimilarityStore) SetFinalVerdict(ctx context.Context, id primitive.ObjectID, verdict models.Verdict) error {
	f.verdict = &verdict
	return nil
}

type fakeSnapshotStore struct {
	created []*models.SimilaritySnapshot
}

func (f *fakeSnapshotStore) Create(ctx context.Context, snap *models.SimilaritySnapshot) (*models.SimilaritySnapshot, error) {
	snap.ID = primitive.NewObjectID()
	f.created = append(f.created, snap)
	return snap, nil
}

type fakeDiscoverer struct {
	candidates []Candidate
}

func (f *fakeDiscoverer) DiscoverCandidates(ctx context.Context, filing *models.Filing) ([]Candidate, error) {
	return f.candidates, nil
}

type fakeAnalyzer struct {
	judgment models.AdvisoryJudgment
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, target, candidate *models.Filing) models.AdvisoryJudgment {
	return f.judgment
}

type passthroughEnricher struct{}

func (passthroughEnricher) Enrich(ctx context.Context, target, candidate *models.Filing, matches []models.EvidenceMatch) []models.EvidenceMatch {
	return matches
}

func TestRunSimilarityCheckCleanVerdict(t *testing.T) {
	target := indexedFiling(primitive.NewObjectID())
	store := &fakeSimilarityStore{filings: map[primitive.ObjectID]*models.Filing{target.ID: target}}
	snaps := &fakeSnapshotStore{}

	a := NewSimilarityAnalyzer(store, snaps, &fakeDiscoverer{}, &fakeAnalyzer{}, passthroughEnricher{}, 3, "v1", nil)
	if err := a.RunSimilarityCheck(context.Background(), target.ID); err != nil {
		t.Fatalf("RunSimilarityCheck failed: %v", err)
	}

	if store.verdict == nil {
		t.Fatal("verdict was not persisted")
	}
	if store.verdict.Status != models.VerdictClean {
		t.Errorf("expected CLEAN, got %s", store.verdict.Status)
	}
	if len(snaps.created) != 0 {
		t.Errorf("no snapshots expected without candidates, got %d", len(snaps.created))
	}
}

func TestRunSimilarityCheckSnapshotPinsVersions(t *testing.T) {
	target := indexedFiling(primitive.NewObjectID())
	target.Ingestion.Version = 2

	candidate := indexedFiling(primitive.NewObjectID())
	candidate.Ingestion.Version = 3

	store := &fakeSimilarityStore{filings: map[primitive.ObjectID]*models.Filing{
		target.ID:    target,
		candidate.ID: candidate,
	}}
	snaps := &fakeSnapshotStore{}
	disc := &fakeDiscoverer{candidates: []Candidate{{
		FilingID:   candidate.ID.Hex(),
		Score:      1.1,
		SectionMax: map[models.Section]float64{models.SectionClaim: 0.9},
	}}}

	// Confidence 0.2 buckets LOW and must carry the disclaimer.
	analyzer := &fakeAnalyzer{judgment: models.AdvisoryJudgment{Confidence: 0.2}}

	a := NewSimilarityAnalyzer(store, snaps, disc, analyzer, passthroughEnricher{}, 3, "v1", nil)
	if err := a.RunSimilarityCheck(context.Background(), target.ID); err != nil {
		t.Fatalf("RunSimilarityCheck failed: %v", err)
	}

	if len(snaps.created) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snaps.created))
	}
	snap := snaps.created[0]
	if snap.TargetIngestionVersion != 2 || snap.ComparedIngestionVersion != 3 {
		t.Errorf("snapshot versions not pinned: %d/%d", snap.TargetIngestionVersion, snap.ComparedIngestionVersion)
	}
	if snap.EmbeddingVersion != "v1" {
		t.Errorf("snapshot embedding version not pinned: %q", snap.EmbeddingVersion)
	}
	if snap.ConfidenceLevel != models.ConfidenceLow {
		t.Errorf("expected LOW confidence level, got %s", snap.ConfidenceLevel)
	}
	if snap.LowConfidenceNote == "" {
		t.Error("LOW confidence snapshot missing disclaimer")
	}
	if snap.SimilarityScore.Overall != 1.1 {
		t.Errorf("snapshot score wrong: %f", snap.SimilarityScore.Overall)
	}

	if len(store.refs) != 1 || store.refs[0] != snap.ID {
		t.Errorf("analysis ref not appended: %v", store.refs)
	}
	if store.verdict == nil || store.verdict.Status != models.VerdictPotentialInfringe {
		t.Errorf("expected POTENTIAL_INFRINGE verdict, got %+v", store.verdict)
	}
}

func TestRunSimilarityCheckRequiresIndexed(t *testing.T) {
	target := indexedFiling(primitive.NewObjectID())
	target.Ingestion.Status = models.IngestionPending
	store := &fakeSimilarityStore{filings: map[primitive.ObjectID]*models.Filing{target.ID: target}}

	a := NewSimilarityAnalyzer(store, &fakeSnapshotStore{}, &fakeDiscoverer{}, &fakeAnalyzer{}, passthroughEnricher{}, 3, "v1", nil)
	if err := a.RunSimilarityCheck(context.Background(), target.ID); err == nil {
		t.Fatal("expected error for non-indexed filing")
	}
}
