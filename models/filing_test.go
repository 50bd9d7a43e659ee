package models

import "testing"

func TestStatusesBefore(t *testing.T) {
	before := StatusesBefore(IngestionClaimsProcessed)

	want := map[IngestionStatus]bool{
		IngestionPending:      true,
		IngestionQueued:       true,
		IngestionIngesting:    true,
		IngestionRawExtracted: true,
	}
	if len(before) != len(want) {
		t.Fatalf("StatusesBefore returned %v", before)
	}
	for _, s := range before {
		if !want[s] {
			t.Errorf("unexpected status %s", s)
		}
	}

	if StatusesBefore(IngestionFailed) != nil {
		t.Error("FAILED sits outside the stage ordering")
	}
}

func TestClassificationSearchCode(t *testing.T) {
	tests := []struct {
		c    Classification
		want string
	}{
		{Classification{Code: "G06F", Source: ClassificationApplicant}, "G06F"},
		{Classification{Code: "G06F", Source: ClassificationAI, Confidence: 0.9}, "G06F"},
		// Low-confidence AI codes are ignored for search bias.
		{Classification{Code: "G06F", Source: ClassificationAI, Confidence: 0.5}, ""},
		{Classification{}, ""},
	}
	for _, tt := range tests {
		if got := tt.c.SearchCode(); got != tt.want {
			t.Errorf("SearchCode(%+v) = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func TestNewDiagramRecordValidation(t *testing.T) {
	rec := NewDiagramRecord("page-1", "hologram", DiagramRepresentation{}, "summary", 1.7)
	if rec.Type != DiagramUnknown {
		t.Errorf("invalid type should collapse to unknown, got %s", rec.Type)
	}
	if rec.Confidence != 1 {
		t.Errorf("confidence should clamp to 1, got %f", rec.Confidence)
	}

	rec = NewDiagramRecord("page-2", "flowchart", DiagramRepresentation{}, "summary", -0.2)
	if rec.Confidence != 0 {
		t.Errorf("confidence should clamp to 0, got %f", rec.Confidence)
	}
	if rec.Type != DiagramFlowchart {
		t.Errorf("valid type should survive, got %s", rec.Type)
	}
}
