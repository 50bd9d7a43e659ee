package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"patent-ip-platform/models"
)

// ClaimProcessor parses raw claims text into structured claims, resolves
// dependency references and builds the expanded form of each claim.
type ClaimProcessor struct {
	markerRegex  *regexp.Regexp
	rangeRegex   *regexp.Regexp
	numberRegex  *regexp.Regexp
	depHintRegex *regexp.Regexp
}

// NewClaimProcessor creates a new claim processor
func NewClaimProcessor() *ClaimProcessor {
	return &ClaimProcessor{
		markerRegex:  regexp.MustCompile(`(?:^|\n)\s*(\d+)\.`),
		rangeRegex:   regexp.MustCompile(`(\d+)\s*(?:-|to)\s*(\d+)`),
		numberRegex:  regexp.MustCompile(`\d+`),
		depHintRegex: regexp.MustCompile(`(?i)claims?\s+([\d\s,\-]+(?:(?:and|or|to)\s*[\d\s,\-]*)*)`),
	}
}

// ParseClaims splits raw claims text on numbered markers at line starts.
// Each claim's text runs until the next marker or end of input.
func (p *ClaimProcessor) ParseClaims(text string) []models.Claim {
	matches := p.markerRegex.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	claims := make([]models.Claim, 0, len(matches))
	for i, m := range matches {
		claimNo, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}

		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		body := strings.TrimSpace(text[m[3]+1 : end])
		if body == "" {
			continue
		}

		claims = append(claims, models.Claim{
			ClaimNo:   claimNo,
			Text:      body,
			DependsOn: p.ExtractDependencies(body, claimNo),
		})
	}
	return claims
}

// ExtractDependencies finds claim numbers referenced by a claim's text.
// Ranges ("2-4", "2 to 4") expand to every contained integer; the claim's
// own number is excluded. The result is ascending and deduplicated.
func (p *ClaimProcessor) ExtractDependencies(text string, ownNo int) []int {
	seen := make(map[int]bool)

	for _, hint := range p.depHintRegex.FindAllStringSubmatch(text, -1) {
		ref := hint[1]

		for _, r := range p.rangeRegex.FindAllStringSubmatch(ref, -1) {
			lo, err1 := strconv.Atoi(r[1])
			hi, err2 := strconv.Atoi(r[2])
			if err1 != nil || err2 != nil || lo > hi {
				continue
			}
			for n := lo; n <= hi; n++ {
				seen[n] = true
			}
		}

		// Single numbers and comma/and/or lists. Ranges are already
		// covered above; re-adding their endpoints here is harmless.
		for _, ns := range p.numberRegex.FindAllString(ref, -1) {
			n, err := strconv.Atoi(ns)
			if err != nil {
				continue
			}
			seen[n] = true
		}
	}

	delete(seen, ownNo)
	if len(seen) == 0 {
		return nil
	}

	deps := make([]int, 0, len(seen))
	for n := range seen {
		deps = append(deps, n)
	}
	sort.Ints(deps)
	return deps
}

// ExpandClaim builds the claim read in light of its ancestors: each
// dependency's own expansion substituted in ascending order, prefixed to the
// claim's boilerplate-stripped text. The visited set terminates dependency
// cycles; a re-entered claim contributes its raw text unexpanded.
func (p *ClaimProcessor) ExpandClaim(claim *models.Claim, byNumber map[int]*models.Claim, visited map[int]bool) string {
	if visited[claim.ClaimNo] {
		return claim.Text
	}
	visited[claim.ClaimNo] = true

	own := stripClaimBoilerplate(claim.Text)
	if len(claim.DependsOn) == 0 {
		return own
	}

	var parts []string
	for _, dep := range claim.DependsOn {
		parent, ok := byNumber[dep]
		if !ok {
			continue
		}
		parts = append(parts, p.ExpandClaim(parent, byNumber, visited))
	}
	parts = append(parts, own)
	return strings.Join(parts, " ")
}

// ProcessClaims parses, expands and returns the structured claims of a
// filing's claims text.
func (p *ClaimProcessor) ProcessClaims(text string) ([]models.Claim, error) {
	claims := p.ParseClaims(text)
	if len(claims) == 0 {
		return nil, fmt.Errorf("no numbered claims found in claims text")
	}

	byNumber := make(map[int]*models.Claim, len(claims))
	for i := range claims {
		byNumber[claims[i].ClaimNo] = &claims[i]
	}

	for i := range claims {
		visited := make(map[int]bool)
		claims[i].ExpandedText = p.ExpandClaim(&claims[i], byNumber, visited)
		claims[i].IsExpanded = len(claims[i].DependsOn) > 0
	}
	return claims, nil
}

var boilerplateRegex = regexp.MustCompile(`(?i)^(?:the\s+)?\S+(?:\s+\S+){0,5}?\s+(?:of|according\s+to)\s+(?:any\s+(?:one\s+)?of\s+)?claims?\s+[\d\s,\-]+(?:(?:and|or|to)\s+[\d\s,\-]+)*,?\s*`)

// stripClaimBoilerplate removes the leading dependency phrase ("The widget
// of claim 1, ...") so expansions read as one continuous statement.
func stripClaimBoilerplate(text string) string {
	stripped := boilerplateRegex.ReplaceAllString(text, "")
	stripped = strings.TrimSpace(stripped)
	if stripped == "" {
		return text
	}
	return stripped
}
