package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tamilbot/internal/chat"
	"tamilbot/internal/grounding"
	"tamilbot/internal/metrics"
)

// Apology is the assistant turn recorded when generation fails.
const Apology = "பதில் உருவாக்குவதில் பிழை ஏற்பட்டது. மீண்டும் முயற்சிக்கவும்."

var (
	// ErrEmptyQuery is returned for blank input; nothing is recorded.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrConfiguration means the generation credential is missing. It is
	// returned before any network call and nothing is recorded.
	ErrConfiguration = errors.New("assistant is not configured")

	// ErrUnknownQuickStart is returned for an out of range quick-start index.
	ErrUnknownQuickStart = errors.New("unknown quick start")
)

// ContextBuilder is satisfied by *grounding.Policy.
type ContextBuilder interface {
	BuildContext(ctx context.Context, query string) (grounding.Context, []grounding.Warning)
}

// Generator is satisfied by *llm.Client.
type Generator interface {
	HasCredentials() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reply is the outcome of one question.
type Reply struct {
	Turn          chat.Turn           `json:"turn"`
	Warnings      []grounding.Warning `json:"warnings,omitempty"`
	UsedKnowledge bool                `json:"used_knowledge"`
	UsedSearch    bool                `json:"used_search"`
	Failed        bool                `json:"failed"`
	Prompt        string              `json:"prompt,omitempty"`
}

// Assistant runs the question pipeline: lookup, prompt, generate, record.
type Assistant struct {
	grounding   ContextBuilder
	generator   Generator
	quickStarts []string
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func New(gb ContextBuilder, gen Generator, quickStarts []string, m *metrics.Metrics, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		grounding:   gb,
		generator:   gen,
		quickStarts: quickStarts,
		metrics:     m,
		logger:      logger,
	}
}

// QuickStarts returns the canned questions offered to new users.
func (a *Assistant) QuickStarts() []string {
	out := make([]string, len(a.quickStarts))
	copy(out, a.quickStarts)
	return out
}

// Configured reports whether Ask can reach the generation service.
func (a *Assistant) Configured() bool {
	return a.generator.HasCredentials()
}

// Ask answers query and appends the user and assistant turns to conv. A
// generation failure is not an error: the reply carries the apology turn.
func (a *Assistant) Ask(ctx context.Context, conv *chat.Conversation, query string) (*Reply, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if !a.generator.HasCredentials() {
		return nil, ErrConfiguration
	}

	start := time.Now()
	defer func() { a.metrics.ObservePipeline(time.Since(start)) }()

	conv.Append(chat.NewUserTurn(query))

	gc, warnings := a.grounding.BuildContext(ctx, query)
	prompt := grounding.BuildPrompt(query, gc)

	reply := &Reply{
		Warnings:      warnings,
		UsedKnowledge: gc.Knowledge != nil,
		UsedSearch:    gc.Search != "",
		Prompt:        prompt,
	}

	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		a.metrics.ObserveGeneration(metrics.OutcomeFailure)
		a.logger.Error("generation failed", zap.String("query", query), zap.Error(err))
		reply.Failed = true
		reply.Turn = chat.NewAssistantTurn(Apology, "", "")
		conv.Append(reply.Turn)
		return reply, nil
	}
	a.metrics.ObserveGeneration(metrics.OutcomeSuccess)

	var url string
	if gc.Knowledge != nil {
		url = gc.Knowledge.URL
	}
	reply.Turn = chat.NewAssistantTurn(text, gc.Label(), url)
	conv.Append(reply.Turn)

	a.logger.Info("answered",
		zap.Bool("knowledge", reply.UsedKnowledge),
		zap.Bool("search", reply.UsedSearch),
		zap.Int("warnings", len(warnings)),
		zap.Duration("took", time.Since(start)))
	return reply, nil
}

// AskQuickStart runs the quick-start question at index exactly like typed
// input.
func (a *Assistant) AskQuickStart(ctx context.Context, conv *chat.Conversation, index int) (*Reply, error) {
	if index < 0 || index >= len(a.quickStarts) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownQuickStart, index)
	}
	return a.Ask(ctx, conv, a.quickStarts[index])
}
