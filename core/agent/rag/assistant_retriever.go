package rag

import "context"

// Retriever answers similarity queries over an embedded document set.
type Retriever struct {
	embedder Embedder
	index    *Index
	topK     int
}

// NewRetriever wraps an index with query-time embedding.
func NewRetriever(embedder Embedder, index *Index, topK int) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{embedder: embedder, index: index, topK: topK}
}

// Retrieve embeds the query and returns the closest documents.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	vec, err := r.embedder.Embedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.index.Search(vec, r.topK), nil
}

// BuildRetriever chunks the given documents, embeds every chunk in one
// batch, and returns a retriever over them. Returns nil when there is
// nothing to index.
func BuildRetriever(ctx context.Context, embedder Embedder, docs []Document, splitter *Splitter, topK int) (*Retriever, error) {
	var chunks []Document
	for _, doc := range docs {
		for _, piece := range splitter.Split(doc.Text) {
			chunks = append(chunks, Document{Text: piece, Source: doc.Source})
		}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := embedder.EmbeddingBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, nil
	}

	index := NewIndex()
	for i, c := range chunks {
		index.Add(c, vectors[i])
	}
	return NewRetriever(embedder, index, topK), nil
}
