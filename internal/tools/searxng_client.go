// internal/tools/searxng_client.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SearXNGClient handles communication with a SearXNG instance
type SearXNGClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSearXNGClient creates a new SearXNG client
func NewSearXNGClient(baseURL string, timeout time.Duration) *SearXNGClient {
	return &SearXNGClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *SearXNGClient) Name() string {
	return ProviderSearxNG
}

// Search performs a search query against SearXNG
func (c *SearXNGClient) Search(ctx context.Context, query, lang string, maxResults int) ([]SearchResult, error) {
	if c.BaseURL == "" {
		return nil, ErrCredentialsMissing
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	if lang != "" {
		q.Set("language", lang)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SearXNG returned status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var searxResults struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &searxResults); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	limit := maxResults
	if limit <= 0 || limit > len(searxResults.Results) {
		limit = len(searxResults.Results)
	}
	results := make([]SearchResult, 0, limit)
	for _, r := range searxResults.Results[:limit] {
		results = append(results, SearchResult{
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
		})
	}
	return results, nil
}

func truncateBody(b []byte) string {
	if len(b) > 200 {
		return string(b[:200])
	}
	return string(b)
}
