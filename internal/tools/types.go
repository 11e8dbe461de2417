// internal/tools/types.go
package tools

import (
	"context"
	"errors"
)

var (
	// ErrNoResults means the provider answered but had nothing for the query.
	ErrNoResults = errors.New("search returned no results")

	// ErrCredentialsMissing means the provider cannot be called at all
	// because its key, engine id or base URL is unset.
	ErrCredentialsMissing = errors.New("search credentials missing")
)

// Provider names accepted in search.provider.
const (
	ProviderGoogle  = "google"
	ProviderSearxNG = "searxng"
)

// SearchResult is one snippet returned by a provider, in provider order.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Provider is a web search backend.
type Provider interface {
	// Name returns the provider identifier used in config and metrics
	Name() string

	// Search runs one query biased toward lang and returns at most
	// maxResults results.
	Search(ctx context.Context, query, lang string, maxResults int) ([]SearchResult, error)
}
