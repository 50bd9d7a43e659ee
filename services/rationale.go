package services

import (
	"context"

	"patent-ip-platform/internal/logger"
	"patent-ip-platform/models"
)

// RationaleGenerator is the contrastive judgment collaborator contract.
type RationaleGenerator interface {
	GenerateRationale(ctx context.Context, targetText, candidateText string) (*models.Rationale, error)
}

// RationaleEnricher attaches overlap/distinction rationales to claim-type
// evidence matches. Enrichment is best-effort: a failure leaves the match
// unannotated and never fails the enclosing batch.
type RationaleEnricher struct {
	generator RationaleGenerator
}

// NewRationaleEnricher creates a new rationale enricher
func NewRationaleEnricher(generator RationaleGenerator) *RationaleEnricher {
	return &RationaleEnricher{generator: generator}
}

// Enrich annotates the claim matches whose target and candidate claim texts
// both resolve.
func (r *RationaleEnricher) Enrich(ctx context.Context, target, candidate *models.Filing, matches []models.EvidenceMatch) []models.EvidenceMatch {
	for i := range matches {
		if matches[i].Section != models.SectionClaim {
			continue
		}

		targetClaim := target.ClaimByNumber(matches[i].TargetClaimNo)
		candidateClaim := candidate.ClaimByNumber(matches[i].SourceClaimNo)
		if targetClaim == nil || candidateClaim == nil {
			continue
		}

		rationale, err := r.generator.GenerateRationale(ctx, expandedText(targetClaim), expandedText(candidateClaim))
		if err != nil {
			logger.Warn("rationale enrichment failed, leaving match unannotated",
				"target_claim", matches[i].TargetClaimNo,
				"source_claim", matches[i].SourceClaimNo,
				"error", err)
			continue
		}
		matches[i].Rationale = rationale
	}
	return matches
}

func expandedText(claim *models.Claim) string {
	if claim.ExpandedText != "" {
		return claim.ExpandedText
	}
	return claim.Text
}
