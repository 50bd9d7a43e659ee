package models

import "fmt"

// Section identifies the structural part of a filing a vector or chunk
// originates from. The set is closed; unknown values are rejected at the
// boundary via ParseSection rather than at storage time.
type Section string

const (
	SectionAbstract    Section = "ABSTRACT"
	SectionClaim       Section = "CLAIM"
	SectionDescription Section = "DESCRIPTION"
	SectionDiagram     Section = "DIAGRAM"
)

// AllSections lists every valid section in a stable order.
var AllSections = []Section{
	SectionAbstract,
	SectionClaim,
	SectionDescription,
	SectionDiagram,
}

var validSections = map[Section]bool{
	SectionAbstract:    true,
	SectionClaim:       true,
	SectionDescription: true,
	SectionDiagram:     true,
}

// ParseSection validates a raw string against the closed section set.
func ParseSection(s string) (Section, error) {
	sec := Section(s)
	if !validSections[sec] {
		return "", fmt.Errorf("unknown section %q", s)
	}
	return sec, nil
}

// Valid reports whether the section is a member of the closed set.
func (s Section) Valid() bool {
	return validSections[s]
}
