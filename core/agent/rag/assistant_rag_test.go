package rag

import (
	"context"
	"strings"
	"testing"
)

// axisEmbedder maps known texts onto fixed axes so similarity is predictable.
type axisEmbedder struct {
	vectors map[string][]float32
}

func (e *axisEmbedder) Embedding(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (e *axisEmbedder) EmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestSplitterChunksWithOverlap(t *testing.T) {
	s := NewSplitter(10, 2)
	text := strings.Repeat("a", 15) + strings.Repeat("b", 10)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 10 {
			t.Errorf("chunk %d exceeds chunk size: %d runes", i, len([]rune(c)))
		}
	}
	// Each chunk starts 8 runes after the previous one.
	if chunks[1][:2] != chunks[0][8:10] {
		t.Errorf("expected 2-rune overlap between chunks, got %q vs %q", chunks[0], chunks[1])
	}
}

func TestSplitterEmptyText(t *testing.T) {
	s := NewSplitter(10, 2)
	if chunks := s.Split(""); chunks != nil {
		t.Errorf("expected nil for empty text, got %v", chunks)
	}
}

func TestSplitterRejectsBadOverlap(t *testing.T) {
	s := NewSplitter(10, 10)
	if s.Overlap != 0 {
		t.Errorf("expected overlap >= chunk size to reset to 0, got %d", s.Overlap)
	}
	s = NewSplitter(0, 5)
	if s.ChunkSize != 1000 {
		t.Errorf("expected default chunk size, got %d", s.ChunkSize)
	}
}

func TestIndexSearchRanksBySimilarity(t *testing.T) {
	idx := NewIndex()
	idx.Add(Document{Text: "billing", Source: "a"}, []float32{1, 0, 0})
	idx.Add(Document{Text: "scheduling", Source: "b"}, []float32{0, 1, 0})
	idx.Add(Document{Text: "billing details", Source: "c"}, []float32{0.9, 0.1, 0})

	results := idx.Search([]float32{1, 0, 0}, 2)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "billing" {
		t.Errorf("expected closest match first, got %q", results[0].Text)
	}
	if results[1].Text != "billing details" {
		t.Errorf("expected second-closest match, got %q", results[1].Text)
	}
}

func TestIndexSearchEmpty(t *testing.T) {
	idx := NewIndex()
	if results := idx.Search([]float32{1, 0}, 3); results != nil {
		t.Errorf("expected nil from empty index, got %v", results)
	}
}

func TestBuildRetrieverAndRetrieve(t *testing.T) {
	embedder := &axisEmbedder{vectors: map[string][]float32{
		"refund policy text": {1, 0, 0},
		"shipping rules":     {0, 1, 0},
		"refund policy":      {1, 0, 0},
	}}

	docs := []Document{
		{Text: "refund policy text", Source: "refunds.md"},
		{Text: "shipping rules", Source: "shipping.md"},
	}
	retriever, err := BuildRetriever(context.Background(), embedder, docs, NewSplitter(1000, 0), 1)
	if err != nil {
		t.Fatalf("BuildRetriever failed: %v", err)
	}
	if retriever == nil {
		t.Fatal("expected a retriever")
	}

	results, err := retriever.Retrieve(context.Background(), "refund policy")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Source != "refunds.md" {
		t.Errorf("expected refunds.md, got %s", results[0].Source)
	}
}

func TestBuildRetrieverEmptyCorpus(t *testing.T) {
	retriever, err := BuildRetriever(context.Background(), &axisEmbedder{}, nil, NewSplitter(1000, 0), 3)
	if err != nil {
		t.Fatalf("BuildRetriever failed: %v", err)
	}
	if retriever != nil {
		t.Error("expected nil retriever for an empty corpus")
	}
}

func TestIsTextFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"notes.txt", true},
		{"README.md", true},
		{"data.json", true},
		{"script.py", true},
		{"report.pdf", false},
		{"deck.pptx", false},
		{"archive.zip", false},
	}
	for _, tt := range tests {
		if got := IsTextFile(tt.name); got != tt.want {
			t.Errorf("IsTextFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtractFileTextPlain(t *testing.T) {
	text, err := ExtractFileText("notes.txt", []byte("hello world"))
	if err != nil {
		t.Fatalf("ExtractFileText failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("expected passthrough, got %q", text)
	}
}

func TestExtractFileTextRejectsBinary(t *testing.T) {
	if _, err := ExtractFileText("notes.txt", []byte{0x00, 0x01, 0x02}); err == nil {
		t.Error("expected NUL bytes to be rejected")
	}
}
