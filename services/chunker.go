package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"patent-ip-platform/models"
)

// ErrClaimShapedText is returned when description chunking is invoked on
// text that looks like a numbered claims section.
var ErrClaimShapedText = fmt.Errorf("input looks like numbered claims, not description text")

// DescriptionChunker slices description text into overlap-windowed chunks.
type DescriptionChunker struct {
	maxWords       int
	overlapWords   int
	paragraphRegex *regexp.Regexp
	claimRegex     *regexp.Regexp
}

// NewDescriptionChunker creates a chunker. overlapWords must be smaller
// than maxWords; the config layer validates this at load time.
func NewDescriptionChunker(maxWords, overlapWords int) *DescriptionChunker {
	return &DescriptionChunker{
		maxWords:       maxWords,
		overlapWords:   overlapWords,
		paragraphRegex: regexp.MustCompile(`\n\n+`),
		claimRegex:     regexp.MustCompile(`(?m)^\s*\d+\.`),
	}
}

// ChunkDescription splits the text on paragraph boundaries, packing whole
// paragraphs into chunks up to maxWords and carrying the last overlapWords
// words of each chunk into the next so ideas spanning a boundary stay
// retrievable. A chunk closes early rather than swallow the head of a
// paragraph that would overflow it; only a single paragraph larger than
// maxWords is cut mid-paragraph. Claim-shaped input is rejected before any
// work is done.
func (c *DescriptionChunker) ChunkDescription(text string) ([]models.DescriptionChunk, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	if c.claimRegex.MatchString(trimmed) {
		return nil, ErrClaimShapedText
	}

	var chunks []models.DescriptionChunk
	var current []string
	for _, paragraph := range c.paragraphRegex.Split(trimmed, -1) {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}

		// Close the open chunk before a paragraph that would overflow it.
		if len(current) > 0 && len(current)+len(words) > c.maxWords {
			current = c.closeChunk(&chunks, current)
		}
		current = append(current, words...)

		// An oversized paragraph still gets hard cuts at maxWords.
		for len(current) > c.maxWords {
			rest := append([]string(nil), current[c.maxWords:]...)
			current = c.closeChunk(&chunks, current[:c.maxWords])
			current = append(current, rest...)
		}
	}
	if len(current) > 0 {
		c.closeChunk(&chunks, current)
	}
	return chunks, nil
}

// closeChunk emits the accumulated words as a chunk and returns the overlap
// carry for the next one.
func (c *DescriptionChunker) closeChunk(chunks *[]models.DescriptionChunk, words []string) []string {
	*chunks = append(*chunks, models.DescriptionChunk{
		ChunkID: uuid.New().String(),
		Text:    strings.Join(words, " "),
	})
	if c.overlapWords <= 0 || len(words) <= c.overlapWords {
		return nil
	}
	return append([]string(nil), words[len(words)-c.overlapWords:]...)
}
