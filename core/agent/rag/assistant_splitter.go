// Package rag implements retrieval-augmented context building: chunking,
// embedding, and nearest-neighbor lookup over small per-user corpora.
package rag

// Splitter chunks text into overlapping windows.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter creates a splitter. Overlap must be smaller than chunk size.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

// Split cuts text into chunks of up to ChunkSize runes, each sharing
// Overlap runes with its predecessor.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
