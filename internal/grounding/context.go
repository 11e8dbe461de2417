package grounding

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tamilbot/internal/metrics"
	"tamilbot/internal/tools"
	"tamilbot/internal/utils"
	"tamilbot/internal/wiki"
)

// DefaultSufficiencyThreshold is the rune count at which encyclopedia
// content alone is considered enough.
const DefaultSufficiencyThreshold = 300

// KnowledgeSource is satisfied by *wiki.Lookup.
type KnowledgeSource interface {
	Lookup(ctx context.Context, query string) (*wiki.Record, error)
}

// SearchSource is satisfied by *tools.Searcher.
type SearchSource interface {
	Search(ctx context.Context, query string) (string, error)
}

// Context is what the prompt is grounded on. Search is empty when absent.
type Context struct {
	Knowledge *wiki.Record
	Search    string
}

// Warning records a source that degraded to "no content".
type Warning struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Policy decides which sources to consult for one query.
type Policy struct {
	knowledge KnowledgeSource
	search    SearchSource
	threshold int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewPolicy(knowledge KnowledgeSource, search SearchSource, threshold int, m *metrics.Metrics, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		knowledge: knowledge,
		search:    search,
		threshold: threshold,
		metrics:   m,
		logger:    logger,
	}
}

// BuildContext always asks the encyclopedia first and asks search only
// when the encyclopedia had nothing or fewer runes than the threshold.
// Source failures never escape; they come back as warnings.
func (p *Policy) BuildContext(ctx context.Context, query string) (Context, []Warning) {
	var gc Context
	var warnings []Warning

	rec, err := p.knowledge.Lookup(ctx, query)
	switch {
	case err == nil && rec != nil:
		gc.Knowledge = rec
		p.metrics.ObserveLookup(metrics.SourceWikipedia, metrics.OutcomeHit)
	case errors.Is(err, wiki.ErrNoArticle) || err == nil:
		p.metrics.ObserveLookup(metrics.SourceWikipedia, metrics.OutcomeMiss)
		var le *wiki.LookupError
		if errors.As(err, &le) {
			p.logger.Warn("wikipedia lookup had transport failures", zap.String("query", query), zap.Error(err))
			warnings = append(warnings, Warning{Source: metrics.SourceWikipedia, Reason: err.Error()})
		}
	default:
		p.metrics.ObserveLookup(metrics.SourceWikipedia, metrics.OutcomeError)
		p.logger.Warn("wikipedia lookup failed", zap.String("query", query), zap.Error(err))
		warnings = append(warnings, Warning{Source: metrics.SourceWikipedia, Reason: err.Error()})
	}

	if !p.needsSearch(gc.Knowledge) {
		p.metrics.ObserveLookup(metrics.SourceSearch, metrics.OutcomeSkipped)
		return gc, warnings
	}
	if p.search == nil {
		return gc, warnings
	}

	text, err := p.search.Search(ctx, query)
	switch {
	case err == nil:
		gc.Search = text
		p.metrics.ObserveLookup(metrics.SourceSearch, metrics.OutcomeHit)
	case errors.Is(err, tools.ErrNoResults):
		p.metrics.ObserveLookup(metrics.SourceSearch, metrics.OutcomeMiss)
	default:
		p.metrics.ObserveLookup(metrics.SourceSearch, metrics.OutcomeError)
		p.logger.Warn("web search failed", zap.String("query", query), zap.Error(err))
		warnings = append(warnings, Warning{Source: metrics.SourceSearch, Reason: err.Error()})
	}
	return gc, warnings
}

func (p *Policy) needsSearch(rec *wiki.Record) bool {
	return rec == nil || utils.RuneLen(rec.Content) < p.threshold
}
