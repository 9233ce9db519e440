package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultSerpAPIURL is the SerpAPI JSON endpoint.
const DefaultSerpAPIURL = "https://serpapi.com/search.json"

// SerpAPI implements Searcher against the SerpAPI Google engine.
type SerpAPI struct {
	endpoint   string
	defaultKey string
	numResults int
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Searcher = (*SerpAPI)(nil)

// SerpAPIOption configures SerpAPI.
type SerpAPIOption func(*SerpAPI)

// WithEndpoint overrides the search endpoint.
func WithEndpoint(endpoint string) SerpAPIOption {
	return func(s *SerpAPI) { s.endpoint = endpoint }
}

// WithDefaultKey sets the key used when a call supplies none.
func WithDefaultKey(key string) SerpAPIOption {
	return func(s *SerpAPI) { s.defaultKey = key }
}

// WithNumResults caps the number of results returned.
func WithNumResults(n int) SerpAPIOption {
	return func(s *SerpAPI) { s.numResults = n }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) SerpAPIOption {
	return func(s *SerpAPI) { s.httpClient = hc }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(logger *slog.Logger) SerpAPIOption {
	return func(s *SerpAPI) { s.logger = logger }
}

// NewSerpAPI creates a SerpAPI searcher.
func NewSerpAPI(opts ...SerpAPIOption) *SerpAPI {
	s := &SerpAPI{
		endpoint:   DefaultSerpAPIURL,
		numResults: DefaultNumResults,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search implements Searcher.
func (s *SerpAPI) Search(ctx context.Context, apiKey, query string) []Result {
	if apiKey == "" {
		apiKey = s.defaultKey
	}
	if apiKey == "" || strings.TrimSpace(query) == "" {
		return []Result{}
	}

	results, err := s.fetch(ctx, apiKey, query)
	if err != nil {
		s.logger.Warn("web search failed", slog.String("error", err.Error()))
		return []Result{}
	}
	return results
}

func (s *SerpAPI) fetch(ctx context.Context, apiKey, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	var body serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Error != "" {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body.Error)
	}

	n := len(body.OrganicResults)
	if n > s.numResults {
		n = s.numResults
	}
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		r := body.OrganicResults[i]
		results[i] = Result{Title: r.Title, Link: r.Link, Snippet: r.Snippet}
	}
	return results, nil
}
