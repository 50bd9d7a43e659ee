package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IngestionStatus tracks a filing through the ingestion pipeline. Transitions
// are monotonic through the stage sequence; FAILED is terminal and only
// exited by a new job.
type IngestionStatus string

const (
	IngestionPending           IngestionStatus = "PENDING"
	IngestionQueued            IngestionStatus = "QUEUED"
	IngestionIngesting         IngestionStatus = "INGESTING"
	IngestionRawExtracted      IngestionStatus = "RAW_EXTRACTED"
	IngestionClaimsProcessed   IngestionStatus = "CLAIMS_PROCESSED"
	IngestionDiagramsProcessed IngestionStatus = "DIAGRAMS_PROCESSED"
	IngestionIndexed           IngestionStatus = "INDEXED"
	IngestionFailed            IngestionStatus = "FAILED"
)

// ingestionOrder ranks the stage sequence for monotonicity checks.
// FAILED sits outside the ordering and is handled separately.
var ingestionOrder = map[IngestionStatus]int{
	IngestionPending:           0,
	IngestionQueued:            1,
	IngestionIngesting:         2,
	IngestionRawExtracted:      3,
	IngestionClaimsProcessed:   4,
	IngestionDiagramsProcessed: 5,
	IngestionIndexed:           6,
}

// Rank returns the position of a status in the stage sequence and whether
// the status participates in the ordering at all.
func (s IngestionStatus) Rank() (int, bool) {
	r, ok := ingestionOrder[s]
	return r, ok
}

// StatusesBefore returns every pipeline status strictly earlier than s.
// Used to build atomic conditional updates that enforce monotonic advance.
func StatusesBefore(s IngestionStatus) []IngestionStatus {
	rank, ok := ingestionOrder[s]
	if !ok {
		return nil
	}
	var out []IngestionStatus
	for st, r := range ingestionOrder {
		if r < rank {
			out = append(out, st)
		}
	}
	return out
}

// ClassificationSource says who assigned the filing's classification code.
type ClassificationSource string

const (
	ClassificationApplicant ClassificationSource = "APPLICANT"
	ClassificationExaminer  ClassificationSource = "EXAMINER"
	ClassificationAI        ClassificationSource = "AI"
)

// Classification is an IPC-style technology class attached to the filing.
// AI-sourced codes carry a confidence; low-confidence AI codes are ignored
// when biasing similarity search.
type Classification struct {
	Code       string               `bson:"code,omitempty" json:"code,omitempty"`
	Source     ClassificationSource `bson:"source,omitempty" json:"source,omitempty"`
	Confidence float64              `bson:"confidence,omitempty" json:"confidence,omitempty"`
}

// SearchCode returns the classification code usable as a search bias, or ""
// when none should be applied (absent, or AI-sourced below confidence 0.6).
func (c Classification) SearchCode() string {
	if c.Code == "" {
		return ""
	}
	if c.Source == ClassificationAI && c.Confidence < 0.6 {
		return ""
	}
	return c.Code
}

// DocumentRef points at an uploaded source document in object storage.
type DocumentRef struct {
	PublicID  string `bson:"public_id,omitempty" json:"public_id,omitempty"`
	SecureURL string `bson:"secure_url,omitempty" json:"secure_url,omitempty"`
}

// FilingDocuments groups the four uploaded PDFs of a filing.
type FilingDocuments struct {
	Abstract    DocumentRef `bson:"abstract,omitempty" json:"abstract,omitempty"`
	Claims      DocumentRef `bson:"claims,omitempty" json:"claims,omitempty"`
	Description DocumentRef `bson:"description,omitempty" json:"description,omitempty"`
	Diagrams    DocumentRef `bson:"diagrams,omitempty" json:"diagrams,omitempty"`
}

// StatusEvent is one entry of the filing's workflow timeline.
type StatusEvent struct {
	Status    string    `bson:"status" json:"status"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
}

// PageImage locates one extracted diagram page.
type PageImage struct {
	Page    int    `bson:"page" json:"page"`
	Locator string `bson:"locator" json:"locator"`
}

// Citation is a prior patent reference found in the filing text.
type Citation struct {
	Type   string `bson:"type" json:"type"` // US, EP, WO
	Number string `bson:"number" json:"number"`
	Raw    string `bson:"raw" json:"raw"`
	URL    string `bson:"url" json:"url"`
}

// RawContent holds the extraction output of the ingestion pipeline.
type RawContent struct {
	AbstractText    string      `bson:"abstract_text,omitempty" json:"abstract_text,omitempty"`
	ClaimsText      string      `bson:"claims_text,omitempty" json:"claims_text,omitempty"`
	DescriptionText string      `bson:"description_text,omitempty" json:"description_text,omitempty"`
	DiagramImages   []PageImage `bson:"diagram_images,omitempty" json:"diagram_images,omitempty"`
	Citations       []Citation  `bson:"citations,omitempty" json:"citations,omitempty"`
}

// Claim is a parsed patent claim. DependsOn is ascending, deduplicated and
// never contains the claim's own number. ExpandedText is the claim read in
// light of its ancestors: every dependency's limitations inlined into one
// self-contained statement.
type Claim struct {
	ClaimNo      int    `bson:"claim_no" json:"claim_no"`
	Text         string `bson:"text" json:"text"`
	DependsOn    []int  `bson:"depends_on,omitempty" json:"depends_on,omitempty"`
	ExpandedText string `bson:"expanded_text,omitempty" json:"expanded_text,omitempty"`
	IsExpanded   bool   `bson:"is_expanded" json:"is_expanded"`
}

// DescriptionChunk is one overlap-windowed slice of the description text.
type DescriptionChunk struct {
	ChunkID string `bson:"chunk_id" json:"chunk_id"`
	Text    string `bson:"text" json:"text"`
}

// StructuredContent is the processed form of a filing's raw text.
type StructuredContent struct {
	Claims            []Claim            `bson:"claims,omitempty" json:"claims,omitempty"`
	DescriptionChunks []DescriptionChunk `bson:"description_chunks,omitempty" json:"description_chunks,omitempty"`
	Diagrams          []DiagramRecord    `bson:"diagrams,omitempty" json:"diagrams,omitempty"`
}

// Ingestion is the nested pipeline state of a filing. Version increases only
// on deliberate re-ingest (e.g. post-amendment).
type Ingestion struct {
	Status     IngestionStatus   `bson:"status" json:"status"`
	Version    int               `bson:"version" json:"version"`
	Raw        RawContent        `bson:"raw,omitempty" json:"raw,omitempty"`
	Structured StructuredContent `bson:"structured,omitempty" json:"structured,omitempty"`
}

// Filing is the core record of the platform: one submitted patent filing
// with its workflow state, ingestion pipeline state and analysis results.
type Filing struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title          string               `bson:"title" json:"title"`
	Documents      FilingDocuments      `bson:"documents" json:"documents"`
	Classification Classification       `bson:"classification,omitempty" json:"classification,omitempty"`
	CurrentStatus  string               `bson:"current_status" json:"current_status"`
	StatusTimeline []StatusEvent        `bson:"status_timeline,omitempty" json:"status_timeline,omitempty"`
	Ingestion      Ingestion            `bson:"ingestion" json:"ingestion"`
	AnalysisRefs   []primitive.ObjectID `bson:"analysis_refs,omitempty" json:"analysis_refs,omitempty"`
	FinalVerdict   *Verdict             `bson:"final_verdict,omitempty" json:"final_verdict,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// ClaimByNumber returns the structured claim with the given number, or nil.
func (f *Filing) ClaimByNumber(no int) *Claim {
	for i := range f.Ingestion.Structured.Claims {
		if f.Ingestion.Structured.Claims[i].ClaimNo == no {
			return &f.Ingestion.Structured.Claims[i]
		}
	}
	return nil
}

// ClaimNumbers returns the set of real claim numbers of the filing. Used as
// ground truth when sanitizing advisory output.
func (f *Filing) ClaimNumbers() map[int]bool {
	nums := make(map[int]bool, len(f.Ingestion.Structured.Claims))
	for _, c := range f.Ingestion.Structured.Claims {
		nums[c.ClaimNo] = true
	}
	return nums
}

// Workflow status constants for the business-side lifecycle.
const (
	FilingSubmitted        = "submitted"
	FilingUnderReview      = "under_review"
	FilingRevisionRequired = "revision_required"
	FilingApproved         = "approved"
	FilingRejected         = "rejected"
)
