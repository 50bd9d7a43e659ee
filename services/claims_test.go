package services

import (
	"reflect"
	"strings"
	"testing"

	"patent-ip-platform/models"
)

func TestParseClaims(t *testing.T) {
	p := NewClaimProcessor()

	text := "1. A widget comprising X.\n2. The widget of claim 1, further comprising Y."
	claims := p.ParseClaims(text)

	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].ClaimNo != 1 || claims[1].ClaimNo != 2 {
		t.Errorf("wrong claim numbers: %d, %d", claims[0].ClaimNo, claims[1].ClaimNo)
	}
	if claims[0].Text != "A widget comprising X." {
		t.Errorf("claim 1 text boundary wrong: %q", claims[0].Text)
	}
	if !strings.HasPrefix(claims[1].Text, "The widget of claim 1") {
		t.Errorf("claim 2 text boundary wrong: %q", claims[1].Text)
	}
	if !reflect.DeepEqual(claims[1].DependsOn, []int{1}) {
		t.Errorf("claim 2 dependencies wrong: %v", claims[1].DependsOn)
	}
}

func TestExtractDependencies(t *testing.T) {
	p := NewClaimProcessor()

	tests := []struct {
		text  string
		ownNo int
		want  []int
	}{
		{"The device of claims 2-4 and 6, wherein Z.", 5, []int{2, 3, 4, 6}},
		{"The device of claims 2 to 4, wherein Z.", 5, []int{2, 3, 4}},
		{"The device of claim 1, wherein Z.", 2, []int{1}},
		{"The device of claims 1, 2 and 3, wherein Z.", 4, []int{1, 2, 3}},
		{"A standalone apparatus comprising W.", 1, nil},
		// Own number is always excluded.
		{"The device of claims 3-5, wherein Z.", 5, []int{3, 4}},
	}

	for _, tt := range tests {
		got := p.ExtractDependencies(tt.text, tt.ownNo)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExtractDependencies(%q, %d) = %v, want %v", tt.text, tt.ownNo, got, tt.want)
		}
	}
}

func TestExpandClaimNoDependencies(t *testing.T) {
	p := NewClaimProcessor()
	claim := &models.Claim{ClaimNo: 1, Text: "A widget comprising X."}
	byNumber := map[int]*models.Claim{1: claim}

	got := p.ExpandClaim(claim, byNumber, map[int]bool{})
	if got != "A widget comprising X." {
		t.Errorf("independent claim should expand to its own text, got %q", got)
	}
}

func TestExpandClaimChain(t *testing.T) {
	p := NewClaimProcessor()
	c1 := &models.Claim{ClaimNo: 1, Text: "A widget comprising X."}
	c2 := &models.Claim{ClaimNo: 2, Text: "The widget of claim 1, further comprising Y.", DependsOn: []int{1}}
	c3 := &models.Claim{ClaimNo: 3, Text: "The widget of claim 2, further comprising Z.", DependsOn: []int{2}}
	byNumber := map[int]*models.Claim{1: c1, 2: c2, 3: c3}

	got := p.ExpandClaim(c3, byNumber, map[int]bool{})

	// Ancestors inline in ascending order, boilerplate stripped.
	wantOrder := []string{"A widget comprising X.", "further comprising Y.", "further comprising Z."}
	last := -1
	for _, fragment := range wantOrder {
		idx := strings.Index(got, fragment)
		if idx < 0 {
			t.Fatalf("expansion missing fragment %q: %q", fragment, got)
		}
		if idx < last {
			t.Fatalf("expansion out of order: %q", got)
		}
		last = idx
	}
	if strings.Contains(got, "of claim 1") || strings.Contains(got, "of claim 2") {
		t.Errorf("boilerplate not stripped: %q", got)
	}
}

func TestExpandClaimCycleTerminates(t *testing.T) {
	p := NewClaimProcessor()
	a := &models.Claim{ClaimNo: 1, Text: "Claim A.", DependsOn: []int{2}}
	b := &models.Claim{ClaimNo: 2, Text: "Claim B.", DependsOn: []int{1}}
	byNumber := map[int]*models.Claim{1: a, 2: b}

	// Must terminate; the re-entered claim contributes raw text.
	got := p.ExpandClaim(a, byNumber, map[int]bool{})
	if got == "" {
		t.Fatal("cycle expansion returned empty text")
	}
}

func TestProcessClaims(t *testing.T) {
	p := NewClaimProcessor()

	claims, err := p.ProcessClaims("1. A widget comprising X.\n2. The widget of claim 1, further comprising Y.")
	if err != nil {
		t.Fatalf("ProcessClaims failed: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	if claims[0].IsExpanded {
		t.Error("independent claim marked as expanded")
	}
	if !claims[1].IsExpanded {
		t.Error("dependent claim not marked as expanded")
	}
	if !strings.Contains(claims[1].ExpandedText, "A widget comprising X.") {
		t.Errorf("dependent claim expansion missing parent text: %q", claims[1].ExpandedText)
	}

	if _, err := p.ProcessClaims("no numbered claims here"); err == nil {
		t.Error("expected error for text without claim markers")
	}
}
