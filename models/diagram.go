package models

// DiagramType classifies a patent diagram page.
type DiagramType string

const (
	DiagramFlowchart    DiagramType = "flowchart"
	DiagramBlockDiagram DiagramType = "block_diagram"
	DiagramMechanical   DiagramType = "mechanical"
	DiagramArchitecture DiagramType = "architecture"
	DiagramUnknown      DiagramType = "unknown"
)

var validDiagramTypes = map[DiagramType]bool{
	DiagramFlowchart:    true,
	DiagramBlockDiagram: true,
	DiagramMechanical:   true,
	DiagramArchitecture: true,
	DiagramUnknown:      true,
}

// DiagramRepresentation is the classifier's structured view of a diagram.
type DiagramRepresentation struct {
	Components  []string `bson:"components,omitempty" json:"components,omitempty"`
	Connections []string `bson:"connections,omitempty" json:"connections,omitempty"`
	Labels      []string `bson:"labels,omitempty" json:"labels,omitempty"`
}

// DiagramRecord is one classified diagram page of a filing.
type DiagramRecord struct {
	DiagramID       string                `bson:"diagram_id" json:"diagram_id"`
	Type            DiagramType           `bson:"type" json:"type"`
	Representation  DiagramRepresentation `bson:"representation,omitempty" json:"representation,omitempty"`
	SemanticSummary string                `bson:"semantic_summary,omitempty" json:"semantic_summary,omitempty"`
	Confidence      float64               `bson:"confidence" json:"confidence"`
}

// NewDiagramRecord builds a validated diagram record. Unrecognized types
// collapse to unknown and confidence is clamped to [0,1]; classifier output
// is untrusted input.
func NewDiagramRecord(id string, typ string, rep DiagramRepresentation, summary string, confidence float64) DiagramRecord {
	dt := DiagramType(typ)
	if !validDiagramTypes[dt] {
		dt = DiagramUnknown
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return DiagramRecord{
		DiagramID:       id,
		Type:            dt,
		Representation:  rep,
		SemanticSummary: summary,
		Confidence:      confidence,
	}
}
