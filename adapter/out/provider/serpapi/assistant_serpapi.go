// Package serpapi provides the SerpAPI web search adapter.
package serpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"assistant_server/core/port/out"
	"assistant_server/pkg/httputil"
	"assistant_server/pkg/logger"
)

const searchEndpoint = "https://serpapi.com/search.json"

// Provider implements out.SearchProviderPort over SerpAPI, behind a
// circuit breaker so a degraded search backend cannot stall the pipeline.
type Provider struct {
	apiKey string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger
}

// NewProvider creates a SerpAPI search provider.
func NewProvider(apiKey string) *Provider {
	log := logger.Default().WithField("component", "serpapi")

	cbSettings := gobreaker.Settings{
		Name:        "serpapi",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &Provider{
		apiKey: apiKey,
		client: httputil.SearchClient(),
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    log,
	}
}

type searchResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic_results"`
}

// Search runs a Google search through SerpAPI and returns organic results.
func (p *Provider) Search(ctx context.Context, query string) ([]*out.SearchResult, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		return p.search(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return result.([]*out.SearchResult), nil
}

func (p *Provider) search(ctx context.Context, query string) ([]*out.SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]*out.SearchResult, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		results = append(results, &out.SearchResult{
			Title:   r.Title,
			Snippet: r.Snippet,
			Link:    r.Link,
		})
	}
	return results, nil
}

// Ensure Provider implements out.SearchProviderPort
var _ out.SearchProviderPort = (*Provider)(nil)
