package out

import "context"

// =============================================================================
// Web Search Provider Port (SerpAPI)
// =============================================================================

// SearchProviderPort defines the outbound port for web search.
type SearchProviderPort interface {
	// Search runs a web query and returns organic results.
	Search(ctx context.Context, query string) ([]*SearchResult, error)
}

// SearchResult is one organic web search result.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}
