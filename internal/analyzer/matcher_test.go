package analyzer

import (
	"strings"
	"testing"
)

func benchmarkContent(size int) string {
	sb := strings.Builder{}
	sb.Grow(size)

	paragraphs := []string{
		"A good coffee maker for home use should brew a full carafe in under ten minutes.",
		"Drip coffee makers remain the most popular choice. Pour over setups need more attention!",
		"Is a programmable coffee maker worth it? For most households the answer is yes.",
		"Grind size matters as much as the machine itself. Burr grinders give the most even result.",
	}

	for sb.Len() < size {
		for _, p := range paragraphs {
			sb.WriteString(p)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func TestFindTermMatches(t *testing.T) {
	content := "Coffee makers vary. A drip COFFEE maker is simple! Grinders matter?"
	terms := []string{"coffee", "grinder", "espresso"}

	results := FindTermMatches(content, terms)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Term != "coffee" || results[0].Count != 2 {
		t.Errorf("coffee: expected count 2, got %+v", results[0])
	}
	if len(results[0].Sentences) != 2 || results[0].Sentences[1] != "A drip COFFEE maker is simple!" {
		t.Errorf("coffee: unexpected sentences %q", results[0].Sentences)
	}
	if results[1].Term != "grinder" || results[1].Count != 1 {
		t.Errorf("grinder: expected count 1, got %+v", results[1])
	}
}

func TestFindTermMatches_Empty(t *testing.T) {
	if got := FindTermMatches("", []string{"a"}); got != nil {
		t.Errorf("expected nil for empty content, got %v", got)
	}
	if got := FindTermMatches("text", nil); got != nil {
		t.Errorf("expected nil for no terms, got %v", got)
	}
	if got := FindTermMatches("text", []string{"  "}); len(got) != 0 {
		t.Errorf("expected blank terms to be skipped, got %v", got)
	}
}

func TestSplitIntoSentences(t *testing.T) {
	sentences := splitIntoSentences("First sentence. Second one!  Third? trailing")

	want := []string{"First sentence.", "Second one!", "Third?", "trailing"}
	if len(sentences) != len(want) {
		t.Fatalf("expected %d sentences, got %d", len(want), len(sentences))
	}
	for i, s := range sentences {
		if s.original != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, s.original, want[i])
		}
		if s.lower != strings.ToLower(want[i]) {
			t.Errorf("sentence %d lower = %q", i, s.lower)
		}
	}
}

func BenchmarkFindTermMatches(b *testing.B) {
	content := benchmarkContent(50 * 1024)
	terms := []string{"coffee maker", "drip", "pour over", "programmable", "burr grinder", "carafe"}

	b.ReportAllocs()
	for b.Loop() {
		FindTermMatches(content, terms)
	}
}

func BenchmarkSplitIntoSentences(b *testing.B) {
	content := benchmarkContent(50 * 1024)

	b.ReportAllocs()
	for b.Loop() {
		splitIntoSentences(content)
	}
}
