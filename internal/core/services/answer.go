package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sitesage/internal/core/domain"
	"github.com/custodia-labs/sitesage/internal/core/ports/driven"
	"github.com/custodia-labs/sitesage/internal/core/ports/driving"
	"github.com/custodia-labs/sitesage/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerConfig holds per-turn generation parameters.
type AnswerConfig struct {
	TopK        int
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// AnswerService orchestrates one conversation turn.
type AnswerService struct {
	cfg       AnswerConfig
	retriever driving.Retriever
	router    *Router
	composer  *Composer
	llm       driven.LLMService
	tokens    driven.TokenCounter
}

// NewAnswerService creates an answer service.
// llm may be nil, in which case every turn returns an error answer.
// tokens may be nil, in which case prompt token counts are omitted.
func NewAnswerService(
	cfg AnswerConfig,
	retriever driving.Retriever,
	router *Router,
	composer *Composer,
	llm driven.LLMService,
	tokens driven.TokenCounter,
) *AnswerService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	return &AnswerService{
		cfg:       cfg,
		retriever: retriever,
		router:    router,
		composer:  composer,
		llm:       llm,
		tokens:    tokens,
	}
}

// Answer retrieves, routes, composes and generates a reply for query.
// The session label only advances once a reply has been generated.
func (s *AnswerService) Answer(ctx context.Context, query string, state *domain.SessionState) domain.Answer {
	query = strings.TrimSpace(query)
	if query == "" {
		return errorAnswer(fmt.Errorf("%w: empty question", domain.ErrInvalidInput))
	}

	hits, err := s.retriever.Search(ctx, query, s.cfg.TopK)
	if err != nil {
		return errorAnswer(fmt.Errorf("retrieve: %w", err))
	}

	category := s.router.Route(query, hits)
	prompt := s.composer.Compose(category, hits, query)

	promptTokens := 0
	if s.tokens != nil {
		promptTokens = s.tokens.Count(prompt.System) + s.tokens.Count(prompt.User)
	}
	logger.Debug("Routed %q to %s with %d hits (%d prompt tokens)", query, category, len(hits), promptTokens)

	reply, err := s.generate(ctx, prompt)
	if err != nil {
		return errorAnswer(err)
	}

	return domain.Answer{
		Label:        category.String(),
		Reply:        reply,
		Sources:      s.composer.RenderSources(hits),
		Handoff:      state.Advance(category),
		Hits:         hits,
		PromptTokens: promptTokens,
	}
}

// generate calls the LLM with a bounded timeout. It never retries.
func (s *AnswerService) generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	reply, err := s.llm.Complete(ctx, driven.Completion{
		System:      prompt.System,
		User:        prompt.User,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", domain.ErrEmptyCompletion
	}
	return reply, nil
}

func errorAnswer(err error) domain.Answer {
	logger.Warn("Answer failed: %v", err)
	return domain.Answer{
		Label: domain.LabelError,
		Reply: "Error: " + err.Error(),
	}
}
