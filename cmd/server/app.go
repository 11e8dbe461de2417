package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tamilbot/internal/assistant"
	"tamilbot/internal/config"
	"tamilbot/internal/grounding"
	"tamilbot/internal/llm"
	"tamilbot/internal/metrics"
	"tamilbot/internal/tools"
	"tamilbot/internal/wiki"
)

// app holds the pipeline objects shared by serve and ask.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	searcher  *tools.Searcher
	providers []string
	assistant *assistant.Assistant
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	wc := cfg.Wikipedia
	fetcher := wiki.NewClient(wc.APIURL, wc.UserAgent, wc.Timeout)
	lookup := wiki.NewLookup(fetcher, wiki.Options{
		PrimaryLanguage:   wc.PrimaryLanguage,
		SecondaryLanguage: wc.SecondaryLanguage,
		FallbackEnabled:   wc.FallbackEnabled,
		DomainKeywords:    wc.DomainKeywords,
		MinSummaryLength:  wc.MinSummaryLength,
		PrimaryMaxChars:   wc.PrimaryMaxChars,
		SecondaryMaxChars: wc.SecondaryMaxChars,
	}, logger.Named("wiki"))

	sc := cfg.Search
	registry, err := tools.NewRegistry(
		tools.NewGoogleClient(sc.GoogleURL, sc.GoogleAPIKey, sc.GoogleCX, sc.Timeout),
		tools.NewSearXNGClient(sc.SearxNGURL, sc.Timeout),
	)
	if err != nil {
		return nil, err
	}
	provider, err := registry.Get(sc.Provider)
	if err != nil {
		return nil, err
	}
	var breaker *tools.CircuitBreaker
	if sc.BreakerThreshold > 0 {
		breaker = tools.NewCircuitBreaker(sc.BreakerThreshold, sc.BreakerCooldown, logger.Named("breaker"))
	}
	searcher := tools.NewSearcher(provider, breaker, tools.SearcherOptions{
		LanguageBias: sc.LanguageBias,
		MaxResults:   sc.MaxResults,
		MaxChars:     sc.MaxChars,
	}, logger.Named("search"))

	m := metrics.New()
	policy := grounding.NewPolicy(lookup, searcher, cfg.Grounding.SufficiencyThreshold, m, logger.Named("grounding"))

	gc := cfg.Generation
	gen, err := llm.NewClient(ctx, gc.APIKey, llm.DecodingParams{
		Model:           gc.Model,
		Temperature:     gc.Temperature,
		TopP:            gc.TopP,
		TopK:            gc.TopK,
		MaxOutputTokens: gc.MaxOutputTokens,
	}, llm.SafetyPolicyFromString(gc.SafetyThreshold), gc.MaxConcurrent, logger.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("generation client: %w", err)
	}

	return &app{
		cfg:       cfg,
		metrics:   m,
		searcher:  searcher,
		providers: registry.Names(),
		assistant: assistant.New(policy, gen, cfg.QuickStarts, m, logger.Named("assistant")),
	}, nil
}
