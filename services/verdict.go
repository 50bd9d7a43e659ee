package services

import (
	"fmt"

	"patent-ip-platform/models"
)

// CandidateJudgment pairs one analyzed candidate with its advisory output.
type CandidateJudgment struct {
	CandidateID string
	Judgment    models.AdvisoryJudgment
}

// ComputeFinalVerdict deterministically aggregates all analyzed candidates.
// No candidates means a clean result; a conflicting judgment at or above
// confidence 0.7 escalates to CONFLICT naming the strongest candidate;
// anything else is a potential infringement flagged for human review.
func ComputeFinalVerdict(judgments []CandidateJudgment) models.Verdict {
	if len(judgments) == 0 {
		return models.Verdict{
			Status:     models.VerdictClean,
			Confidence: 0.8,
			Summary:    "No similar prior art detected",
		}
	}

	var strongest *CandidateJudgment
	for i := range judgments {
		j := &judgments[i]
		if !j.Judgment.SuggestedConflict || j.Judgment.Confidence < 0.7 {
			continue
		}
		if strongest == nil || j.Judgment.Confidence > strongest.Judgment.Confidence {
			strongest = j
		}
	}

	if strongest != nil {
		confidence := strongest.Judgment.Confidence
		if confidence > 0.95 {
			confidence = 0.95
		}
		return models.Verdict{
			Status:     models.VerdictConflict,
			Confidence: confidence,
			Summary:    fmt.Sprintf("Potential conflict with filing %s", strongest.CandidateID),
		}
	}

	return models.Verdict{
		Status:     models.VerdictPotentialInfringe,
		Confidence: 0.6,
		Summary:    "Similar prior art found; examiner review recommended",
	}
}
