// internal/tools/google_client.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultGoogleURL = "https://www.googleapis.com/customsearch/v1"

// GoogleClient queries the Custom Search JSON API.
type GoogleClient struct {
	BaseURL    string
	APIKey     string
	EngineID   string
	HTTPClient *http.Client
}

func NewGoogleClient(baseURL, apiKey, engineID string, timeout time.Duration) *GoogleClient {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	return &GoogleClient{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		EngineID: engineID,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GoogleClient) Name() string {
	return ProviderGoogle
}

// Search asks for maxResults items restricted to lang (lr=lang_xx). The API
// caps num at 10.
func (c *GoogleClient) Search(ctx context.Context, query, lang string, maxResults int) ([]SearchResult, error) {
	if c.APIKey == "" || c.EngineID == "" {
		return nil, ErrCredentialsMissing
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}

	q := u.Query()
	q.Set("key", c.APIKey)
	q.Set("cx", c.EngineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(maxResults))
	if lang != "" {
		q.Set("lr", "lang_"+lang)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// url.Error carries the full URL, key included
		return nil, fmt.Errorf("search request failed: %w", redactKey(err, c.APIKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed struct {
		Items []struct {
			Title       string `json:"title"`
			HTMLTitle   string `json:"htmlTitle"`
			Link        string `json:"link"`
			Snippet     string `json:"snippet"`
			HTMLSnippet string `json:"htmlSnippet"`
		} `json:"items"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			return nil, fmt.Errorf("google search returned status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("google search returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if len(results) == maxResults {
			break
		}
		title, snippet := item.Title, item.Snippet
		if item.HTMLSnippet != "" {
			snippet = item.HTMLSnippet
		}
		if item.HTMLTitle != "" {
			title = item.HTMLTitle
		}
		results = append(results, SearchResult{Title: title, Snippet: snippet, URL: item.Link})
	}
	return results, nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, key) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, key, "REDACTED"), err: err}
}
