package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestChunkDescriptionOverlap(t *testing.T) {
	c := NewDescriptionChunker(400, 50)

	words := make([]string, 1000)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	chunks, err := c.ChunkDescription(strings.Join(words, " "))
	if err != nil {
		t.Fatalf("ChunkDescription failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		curr := strings.Fields(chunks[i].Text)
		carried := strings.Join(prev[len(prev)-50:], " ")
		head := strings.Join(curr[:50], " ")
		if carried != head {
			t.Errorf("chunk %d does not start with prior chunk's last 50 words", i)
		}
	}

	for _, chunk := range chunks {
		if chunk.ChunkID == "" {
			t.Error("chunk missing id")
		}
		if n := len(strings.Fields(chunk.Text)); n > 400 {
			t.Errorf("chunk exceeds max words: %d", n)
		}
	}
}

func TestChunkDescriptionKeepsParagraphsAligned(t *testing.T) {
	c := NewDescriptionChunker(10, 2)

	first := make([]string, 8)
	second := make([]string, 8)
	for i := range first {
		first[i] = fmt.Sprintf("p1w%d", i+1)
		second[i] = fmt.Sprintf("p2w%d", i+1)
	}
	text := strings.Join(first, " ") + "\n\n" + strings.Join(second, " ")

	chunks, err := c.ChunkDescription(text)
	if err != nil {
		t.Fatalf("ChunkDescription failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}

	// The first chunk closes at the paragraph boundary even though more
	// words would still fit.
	if chunks[0].Text != strings.Join(first, " ") {
		t.Errorf("chunk 0 crossed the paragraph boundary: %q", chunks[0].Text)
	}
	want := "p1w7 p1w8 " + strings.Join(second, " ")
	if chunks[1].Text != want {
		t.Errorf("chunk 1 = %q, want overlap carry plus second paragraph %q", chunks[1].Text, want)
	}
}

func TestChunkDescriptionCutsOversizedParagraph(t *testing.T) {
	c := NewDescriptionChunker(10, 2)

	words := make([]string, 25)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	chunks, err := c.ChunkDescription(strings.Join(words, " "))
	if err != nil {
		t.Fatalf("ChunkDescription failed: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := len(strings.Fields(chunk.Text)); n > 10 {
			t.Errorf("chunk %d exceeds max words: %d", i, n)
		}
	}
}

func TestChunkDescriptionRejectsClaimShapedText(t *testing.T) {
	c := NewDescriptionChunker(400, 50)

	_, err := c.ChunkDescription("1. A widget comprising X.")
	if !errors.Is(err, ErrClaimShapedText) {
		t.Fatalf("expected ErrClaimShapedText, got %v", err)
	}
}

func TestChunkDescriptionEmpty(t *testing.T) {
	c := NewDescriptionChunker(400, 50)

	chunks, err := c.ChunkDescription("   \n  ")
	if err != nil {
		t.Fatalf("empty input should not error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}
