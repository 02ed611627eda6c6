package rag

import (
	"context"
	"math"
	"sort"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
	EmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Document is one retrievable chunk with its origin.
type Document struct {
	Text   string
	Source string
}

// Index is an in-memory vector index over a small document set. Brute-force
// cosine search is fine at per-user corpus sizes.
type Index struct {
	docs    []Document
	vectors [][]float32
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Add inserts a document with its embedding.
func (idx *Index) Add(doc Document, vector []float32) {
	idx.docs = append(idx.docs, doc)
	idx.vectors = append(idx.vectors, vector)
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Search returns the topK documents most similar to the query vector.
func (idx *Index) Search(query []float32, topK int) []Document {
	if len(idx.docs) == 0 || topK <= 0 {
		return nil
	}

	type scored struct {
		doc   Document
		score float64
	}
	results := make([]scored, 0, len(idx.docs))
	for i, vec := range idx.vectors {
		results = append(results, scored{doc: idx.docs[i], score: cosineSimilarity(query, vec)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if topK > len(results) {
		topK = len(results)
	}
	docs := make([]Document, topK)
	for i := 0; i < topK; i++ {
		docs[i] = results[i].doc
	}
	return docs
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
