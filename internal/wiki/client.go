// internal/wiki/client.go
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Page is what the encyclopedia tells us about one title in one language.
type Page struct {
	Exists  bool
	Title   string
	Summary string
	URL     string
}

// Client talks to the MediaWiki action API of any language edition.
type Client struct {
	APIURL     string // "{lang}" is replaced with the language code
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a new Wikipedia client. A zero timeout leaves the
// request context in charge.
func NewClient(apiURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		APIURL:    apiURL,
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type queryResponse struct {
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
			Missing bool   `json:"missing"`
			Invalid bool   `json:"invalid"`
		} `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

func (c *Client) endpoint(lang string) string {
	return strings.ReplaceAll(c.APIURL, "{lang}", lang)
}

// Page fetches the plain-text lead section of title. A page that does not
// exist, or a title MediaWiki cannot hold, is not an error; Exists is false.
func (c *Client) Page(ctx context.Context, title, lang string) (*Page, error) {
	// "|" separates titles in the API and can never be part of one
	if strings.Contains(title, "|") {
		return &Page{Title: title}, nil
	}
	u, err := url.Parse(c.endpoint(lang))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}

	q := u.Query()
	q.Set("action", "query")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	q.Set("prop", "extracts|info")
	q.Set("exintro", "1")
	q.Set("explaintext", "1")
	q.Set("redirects", "1")
	q.Set("inprop", "url")
	q.Set("titles", title)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}

	var parsed queryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("wikipedia api error %s: %s", parsed.Error.Code, parsed.Error.Info)
	}
	if len(parsed.Query.Pages) == 0 {
		return &Page{Title: title}, nil
	}

	p := parsed.Query.Pages[0]
	if p.Missing || p.Invalid {
		return &Page{Title: p.Title}, nil
	}
	return &Page{
		Exists:  true,
		Title:   p.Title,
		Summary: p.Extract,
		URL:     p.FullURL,
	}, nil
}
