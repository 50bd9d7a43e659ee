package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConfidenceLevel buckets advisory confidence for snapshots.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// BucketConfidence maps a raw advisory confidence to its level:
// <0.4 LOW, [0.4,0.7) MEDIUM, >=0.7 HIGH.
func BucketConfidence(confidence float64) ConfidenceLevel {
	switch {
	case confidence < 0.4:
		return ConfidenceLow
	case confidence < 0.7:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

// MatchType says whether a target claim is anticipated by a single source
// claim or a combination of them.
type MatchType string

const (
	MatchSingle   MatchType = "SINGLE"
	MatchCombined MatchType = "COMBINED"
)

// ClaimAnalysisEntry is one claim-level advisory finding.
type ClaimAnalysisEntry struct {
	TargetClaim  int       `bson:"target_claim" json:"target_claim"`
	SourceClaims []int     `bson:"source_claims" json:"source_claims"`
	MatchType    MatchType `bson:"match_type" json:"match_type"`
	Rationale    string    `bson:"rationale" json:"rationale"`
}

// DiagramSupport records whether and how diagram evidence informed a
// comparison.
type DiagramSupport struct {
	Used        bool     `bson:"used" json:"used"`
	DiagramIDs  []string `bson:"diagram_ids,omitempty" json:"diagram_ids,omitempty"`
	Explanation string   `bson:"explanation,omitempty" json:"explanation,omitempty"`
}

// AdvisoryJudgment is the structured output of the external reasoning
// collaborator for one target/candidate pair. It is untrusted until
// sanitized against the target's real claim numbers.
type AdvisoryJudgment struct {
	SuggestedConflict bool                 `bson:"suggested_conflict" json:"suggested_conflict"`
	Confidence        float64              `bson:"confidence" json:"confidence"`
	ClaimAnalysis     []ClaimAnalysisEntry `bson:"claim_analysis" json:"claim_analysis"`
	DiagramSupport    DiagramSupport       `bson:"diagram_support" json:"diagram_support"`
	Reasoning         string               `bson:"reasoning" json:"reasoning"`
}

// FallbackJudgment is the fixed degraded result substituted when the
// reasoning collaborator fails; reasoning failures never abort a batch.
func FallbackJudgment() AdvisoryJudgment {
	return AdvisoryJudgment{
		SuggestedConflict: false,
		Confidence:        0,
		ClaimAnalysis:     []ClaimAnalysisEntry{},
		DiagramSupport:    DiagramSupport{Used: false},
		Reasoning:         "Advisory analysis failed or was inconclusive.",
	}
}

// SimilarityScore is the explainable score of one comparison.
type SimilarityScore struct {
	Overall   float64             `bson:"overall" json:"overall"`
	Breakdown map[Section]float64 `bson:"breakdown,omitempty" json:"breakdown,omitempty"`
}

// AgentTrace keeps the audit trail of one comparison: the evidence retrieved
// from the vector store and the raw advisory output. Never free-form
// reasoning chains.
type AgentTrace struct {
	RetrievedEvidence []EvidenceMatch  `bson:"retrieved_evidence,omitempty" json:"retrieved_evidence,omitempty"`
	AdvisoryOutput    AdvisoryJudgment `bson:"advisory_output" json:"advisory_output"`
}

// EvidenceMatch is one vector-store hit that contributed to a candidate,
// optionally annotated with a contrastive rationale.
type EvidenceMatch struct {
	Section       Section    `bson:"section" json:"section"`
	Score         float64    `bson:"score" json:"score"`
	Content       string     `bson:"content,omitempty" json:"content,omitempty"`
	TargetClaimNo int        `bson:"target_claim_no,omitempty" json:"target_claim_no,omitempty"`
	SourceClaimNo int        `bson:"source_claim_no,omitempty" json:"source_claim_no,omitempty"`
	SourceChunkID string     `bson:"source_chunk_id,omitempty" json:"source_chunk_id,omitempty"`
	Rationale     *Rationale `bson:"rationale,omitempty" json:"rationale,omitempty"`
}

// RationaleItem is a single overlap or distinction element.
type RationaleItem struct {
	Element     string `bson:"element" json:"element"`
	Explanation string `bson:"explanation" json:"explanation"`
}

// Rationale is the contrastive overlap/distinction judgment attached to a
// single match by the rationale collaborator.
type Rationale struct {
	Overlaps          []RationaleItem `bson:"overlaps,omitempty" json:"overlaps,omitempty"`
	Distinctions      []RationaleItem `bson:"distinctions,omitempty" json:"distinctions,omitempty"`
	OverallAssessment string          `bson:"overall_assessment" json:"overall_assessment"`
	Summary           string          `bson:"summary" json:"summary"`
}

// SimilaritySnapshot is the immutable audit record of one target/candidate
// comparison. It pins both parties' ingestion versions and the embedding
// version at creation time and is never recomputed or rewritten.
type SimilaritySnapshot struct {
	ID                       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TargetID                 primitive.ObjectID   `bson:"target_id" json:"target_id"`
	ComparedID               primitive.ObjectID   `bson:"compared_id" json:"compared_id"`
	TargetIngestionVersion   int                  `bson:"target_ingestion_version" json:"target_ingestion_version"`
	ComparedIngestionVersion int                  `bson:"compared_ingestion_version" json:"compared_ingestion_version"`
	EmbeddingVersion         string               `bson:"embedding_version" json:"embedding_version"`
	SimilarityScore          SimilarityScore      `bson:"similarity_score" json:"similarity_score"`
	ConfidenceLevel          ConfidenceLevel      `bson:"confidence_level" json:"confidence_level"`
	ConfidenceSource         string               `bson:"confidence_source" json:"confidence_source"`
	LowConfidenceNote        string               `bson:"low_confidence_note,omitempty" json:"low_confidence_note,omitempty"`
	ClaimAnalysis            []ClaimAnalysisEntry `bson:"claim_analysis,omitempty" json:"claim_analysis,omitempty"`
	DiagramSupport           DiagramSupport       `bson:"diagram_support" json:"diagram_support"`
	AgentTrace               AgentTrace           `bson:"agent_trace" json:"agent_trace"`
	CreatedAt                time.Time            `bson:"created_at" json:"created_at"`
}

// VerdictStatus is the final advisory outcome for a filing.
type VerdictStatus string

const (
	VerdictClean             VerdictStatus = "CLEAN"
	VerdictPotentialInfringe VerdictStatus = "POTENTIAL_INFRINGE"
	VerdictConflict          VerdictStatus = "CONFLICT"
)

// Verdict is the deterministic aggregate of all analyzed candidates,
// persisted onto the target filing. Advisory only; never a legal ruling.
type Verdict struct {
	Status     VerdictStatus `bson:"status" json:"status"`
	Confidence float64       `bson:"confidence" json:"confidence"`
	Summary    string        `bson:"summary" json:"summary"`
}
