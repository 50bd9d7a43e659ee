package services

import (
	"context"

	"patent-ip-platform/internal/ai"
	"patent-ip-platform/internal/logger"
	"patent-ip-platform/models"
)

// Advisor is the external reasoning collaborator contract.
type Advisor interface {
	AnalyzeCandidate(ctx context.Context, targetClaims, candidateClaims []ai.ClaimContext) (*models.AdvisoryJudgment, error)
}

// AdvisoryAdapter wraps the reasoning collaborator with the two guarantees
// the pipeline needs: failures degrade to a fixed fallback judgment, and
// output claim numbers are checked against ground truth before persistence.
type AdvisoryAdapter struct {
	advisor Advisor
}

// NewAdvisoryAdapter creates a new advisory adapter
func NewAdvisoryAdapter(advisor Advisor) *AdvisoryAdapter {
	return &AdvisoryAdapter{advisor: advisor}
}

// Analyze compares the target's expanded claims against a candidate's and
// returns a sanitized judgment. A collaborator failure never propagates;
// the fallback judgment keeps the batch moving.
func (a *AdvisoryAdapter) Analyze(ctx context.Context, target, candidate *models.Filing) models.AdvisoryJudgment {
	judgment, err := a.advisor.AnalyzeCandidate(ctx, claimContexts(target), claimContexts(candidate))
	if err != nil || judgment == nil {
		logger.Warn("advisory analysis failed, using fallback",
			"target_id", target.ID.Hex(),
			"candidate_id", candidate.ID.Hex(),
			"error", err)
		return models.FallbackJudgment()
	}

	sanitized := SanitizeClaimAnalysis(*judgment, target.ClaimNumbers())
	return sanitized
}

// SanitizeClaimAnalysis drops every claim-level finding whose target claim
// number does not exist on the target filing. Reasoning output is untrusted
// and hallucinated claim references must never reach a snapshot.
func SanitizeClaimAnalysis(judgment models.AdvisoryJudgment, validClaims map[int]bool) models.AdvisoryJudgment {
	kept := make([]models.ClaimAnalysisEntry, 0, len(judgment.ClaimAnalysis))
	for _, entry := range judgment.ClaimAnalysis {
		if !validClaims[entry.TargetClaim] {
			logger.Warn("dropping claim analysis for nonexistent target claim",
				"target_claim", entry.TargetClaim)
			continue
		}
		kept = append(kept, entry)
	}
	judgment.ClaimAnalysis = kept
	return judgment
}

func claimContexts(filing *models.Filing) []ai.ClaimContext {
	contexts := make([]ai.ClaimContext, 0, len(filing.Ingestion.Structured.Claims))
	for _, c := range filing.Ingestion.Structured.Claims {
		text := c.ExpandedText
		if text == "" {
			text = c.Text
		}
		contexts = append(contexts, ai.ClaimContext{ClaimNo: c.ClaimNo, Text: text})
	}
	return contexts
}
