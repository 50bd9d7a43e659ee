package services

import (
	"regexp"
	"strings"

	"patent-ip-platform/models"
)

// CitationScanner finds prior patent references (US, EP, WO publication
// numbers) in claims and description text.
type CitationScanner struct {
	order    []string
	patterns map[string]*regexp.Regexp
}

// NewCitationScanner creates a new citation scanner
func NewCitationScanner() *CitationScanner {
	return &CitationScanner{
		// Fixed scan order keeps citation output stable across runs.
		order: []string{"US", "EP", "WO"},
		patterns: map[string]*regexp.Regexp{
			"US": regexp.MustCompile(`(?i)\bUS[\s-]?(\d{1,2}[,./]?\d{3}[,./]?\d{3}|\d{4}/\d{6,7})\s?(?:[AB]\d)?\b`),
			"EP": regexp.MustCompile(`(?i)\bEP[\s-]?(\d{6,8})\s?(?:[AB]\d)?\b`),
			"WO": regexp.MustCompile(`(?i)\bWO[\s-]?(\d{4}/\d{5,6})\s?(?:A\d)?\b`),
		},
	}
}

// Scan extracts the citations from the combined claims and description
// text, deduplicated by normalized number.
func (s *CitationScanner) Scan(text string) []models.Citation {
	seen := make(map[string]bool)
	var citations []models.Citation

	for _, cType := range s.order {
		re := s.patterns[cType]
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			number := normalizeCitationNumber(m[1])
			key := cType + number
			if seen[key] {
				continue
			}
			seen[key] = true

			citations = append(citations, models.Citation{
				Type:   cType,
				Number: number,
				Raw:    strings.TrimSpace(m[0]),
				URL:    "https://patents.google.com/patent/" + cType + number,
			})
		}
	}
	return citations
}

func normalizeCitationNumber(number string) string {
	replacer := strings.NewReplacer(",", "", ".", "", "/", "", " ", "")
	return replacer.Replace(number)
}
