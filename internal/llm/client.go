package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// contentGenerator is the part of *genai.Models we call.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends one prompt per call to Gemini. MaxConcurrent bounds calls
// across sessions; a caller waiting for a slot gives up when its context
// ends.
type Client struct {
	models  contentGenerator
	params  DecodingParams
	safety  SafetyPolicy
	slots   chan struct{}
	logger  *zap.Logger
	hasCred bool
}

// NewClient creates the Gemini client. An empty apiKey yields a client
// whose every call fails with ErrCredentialsMissing, so a deployment
// without the key still starts.
func NewClient(ctx context.Context, apiKey string, params DecodingParams, safety SafetyPolicy, maxConcurrent int, logger *zap.Logger) (*Client, error) {
	c := newClient(nil, params, safety, maxConcurrent, logger)
	if apiKey == "" {
		return c, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.models = gc.Models
	c.hasCred = true
	return c, nil
}

func newClient(models contentGenerator, params DecodingParams, safety SafetyPolicy, maxConcurrent int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Client{
		models:  models,
		params:  params,
		safety:  safety,
		slots:   make(chan struct{}, maxConcurrent),
		logger:  logger,
		hasCred: models != nil,
	}
}

// HasCredentials reports whether an API key was configured.
func (c *Client) HasCredentials() bool {
	return c.hasCred
}

// Generate returns the completion text for prompt, or a *GenerationError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.hasCred {
		return "", &GenerationError{Reason: ReasonCredentials, Err: ErrCredentialsMissing}
	}

	select {
	case c.slots <- struct{}{}:
		defer func() { <-c.slots }()
	case <-ctx.Done():
		return "", &GenerationError{Reason: ReasonService, Err: ctx.Err()}
	}

	resp, err := c.models.GenerateContent(ctx, c.params.Model, genai.Text(prompt), c.params.generateConfig(c.safety))
	if err != nil {
		c.logger.Error("gemini call failed", zap.String("model", c.params.Model), zap.Error(err))
		return "", &GenerationError{Reason: ReasonService, Err: err}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &GenerationError{Reason: ReasonBlocked, Detail: string(resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 {
		return "", &GenerationError{Reason: ReasonNoCandidate}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		cand := resp.Candidates[0]
		if cand.FinishReason == genai.FinishReasonSafety || cand.FinishReason == genai.FinishReasonProhibitedContent {
			return "", &GenerationError{Reason: ReasonBlocked, Detail: string(cand.FinishReason)}
		}
		return "", &GenerationError{Reason: ReasonEmpty, Detail: string(cand.FinishReason)}
	}

	c.logger.Debug("gemini completion",
		zap.String("model", c.params.Model),
		zap.String("finish_reason", string(resp.Candidates[0].FinishReason)),
		zap.Int("chars", len([]rune(text))))
	return text, nil
}
