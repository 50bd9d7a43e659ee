package services

import (
	"context"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"patent-ip-platform/internal/ai"
	"patent-ip-platform/models"
)

type fakeAdvisor struct {
	judgment *models.AdvisoryJudgment
	err      error
}

func (f *fakeAdvisor) AnalyzeCandidate(ctx context.Context, targetClaims, candidateClaims []ai.ClaimContext) (*models.AdvisoryJudgment, error) {
	return f.judgment, f.err
}

func filingWithClaims(nums ...int) *models.Filing {
	filing := &models.Filing{ID: primitive.NewObjectID()}
	for _, n := range nums {
		filing.Ingestion.Structured.Claims = append(filing.Ingestion.Structured.Claims, models.Claim{
			ClaimNo: n,
			Text:    fmt.Sprintf("Claim %d text.", n),
		})
	}
	return filing
}

func TestSanitizeClaimAnalysisDropsHallucinatedClaims(t *testing.T) {
	judgment := models.AdvisoryJudgment{
		ClaimAnalysis: []models.ClaimAnalysisEntry{
			{TargetClaim: 1, SourceClaims: []int{1}, MatchType: models.MatchSingle},
			{TargetClaim: 99, SourceClaims: []int{2}, MatchType: models.MatchSingle},
		},
	}
	valid := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}

	sanitized := SanitizeClaimAnalysis(judgment, valid)

	if len(sanitized.ClaimAnalysis) != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", len(sanitized.ClaimAnalysis))
	}
	if sanitized.ClaimAnalysis[0].TargetClaim != 1 {
		t.Errorf("wrong entry survived: %+v", sanitized.ClaimAnalysis[0])
	}
}

func TestAnalyzeFallbackOnError(t *testing.T) {
	adapter := NewAdvisoryAdapter(&fakeAdvisor{err: fmt.Errorf("model unavailable")})

	judgment := adapter.Analyze(context.Background(), filingWithClaims(1, 2), filingWithClaims(1))

	if judgment.SuggestedConflict {
		t.Error("fallback judgment must not suggest conflict")
	}
	if judgment.Confidence != 0 {
		t.Errorf("fallback confidence must be 0, got %f", judgment.Confidence)
	}
	if judgment.Reasoning == "" {
		t.Error("fallback judgment missing reasoning text")
	}
}

func TestAnalyzeSanitizesOutput(t *testing.T) {
	adapter := NewAdvisoryAdapter(&fakeAdvisor{judgment: &models.AdvisoryJudgment{
		SuggestedConflict: true,
		Confidence:        0.8,
		ClaimAnalysis: []models.ClaimAnalysisEntry{
			{TargetClaim: 2, SourceClaims: []int{1}, MatchType: models.MatchSingle},
			{TargetClaim: 42, SourceClaims: []int{1}, MatchType: models.MatchSingle},
		},
	}})

	judgment := adapter.Analyze(context.Background(), filingWithClaims(1, 2), filingWithClaims(1))

	if len(judgment.ClaimAnalysis) != 1 {
		t.Fatalf("expected hallucinated entry dropped, got %d entries", len(judgment.ClaimAnalysis))
	}
	if judgment.ClaimAnalysis[0].TargetClaim != 2 {
		t.Errorf("wrong entry survived: %+v", judgment.ClaimAnalysis[0])
	}
}

func TestBucketConfidence(t *testing.T) {
	tests := []struct {
		confidence float64
		want       models.ConfidenceLevel
	}{
		{0.0, models.ConfidenceLow},
		{0.39, models.ConfidenceLow},
		{0.4, models.ConfidenceMedium},
		{0.69, models.ConfidenceMedium},
		{0.7, models.ConfidenceHigh},
		{1.0, models.ConfidenceHigh},
	}
	for _, tt := range tests {
		if got := models.BucketConfidence(tt.confidence); got != tt.want {
			t.Errorf("BucketConfidence(%f) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}
