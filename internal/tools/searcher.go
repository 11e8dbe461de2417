// internal/tools/searcher.go
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"tamilbot/internal/utils"
)

type SearcherOptions struct {
	LanguageBias string
	MaxResults   int
	MaxChars     int
}

func DefaultSearcherOptions() SearcherOptions {
	return SearcherOptions{LanguageBias: "ta", MaxResults: 3, MaxChars: 1500}
}

// Searcher turns a provider's results into the single text block used for
// grounding.
type Searcher struct {
	provider Provider
	breaker  *CircuitBreaker
	opts     SearcherOptions
	logger   *zap.Logger
}

// NewSearcher wraps provider. A nil breaker disables circuit breaking.
func NewSearcher(provider Provider, breaker *CircuitBreaker, opts SearcherOptions, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{provider: provider, breaker: breaker, opts: opts, logger: logger}
}

func (s *Searcher) ProviderName() string {
	return s.provider.Name()
}

func (s *Searcher) Breaker() *CircuitBreaker {
	return s.breaker
}

// Search returns "title\nsnippet" blocks separated by blank lines, capped at
// MaxChars runes.
func (s *Searcher) Search(ctx context.Context, query string) (string, error) {
	var results []SearchResult
	call := func() error {
		var err error
		results, err = s.provider.Search(ctx, query, s.opts.LanguageBias, s.opts.MaxResults)
		if err == nil && len(results) == 0 {
			return ErrNoResults
		}
		return err
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Call(call)
	} else {
		err = call()
	}
	if err != nil {
		return "", fmt.Errorf("%s search: %w", s.provider.Name(), err)
	}

	if s.opts.MaxResults > 0 && len(results) > s.opts.MaxResults {
		results = results[:s.opts.MaxResults]
	}
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		title := PlainText(r.Title)
		snippet := PlainText(r.Snippet)
		if title == "" && snippet == "" {
			continue
		}
		blocks = append(blocks, title+"\n"+snippet)
	}
	if len(blocks) == 0 {
		return "", fmt.Errorf("%s search: %w", s.provider.Name(), ErrNoResults)
	}

	text := utils.Truncate(strings.Join(blocks, "\n\n"), s.opts.MaxChars)
	s.logger.Debug("search results", zap.String("provider", s.provider.Name()), zap.Int("results", len(blocks)))
	return text, nil
}

// PlainText strips markup such as Google's <b> highlights and decodes
// entities.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return utils.CollapseSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return utils.CollapseSpace(fragment)
	}
	return utils.CollapseSpace(doc.Text())
}
