// Package ai builds the embedding and generation adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragchat/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// pingTimeout bounds each connectivity check.
const pingTimeout = 5 * time.Second

const fixHint = "run 'ragchat settings' to fix"

var (
	errEmbeddingNotConfigured = errors.New("embedding provider is not configured")
	errLLMNotConfigured       = errors.New("llm provider is not configured")
)

// Services holds the AI adapters built from settings.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases both adapters. Nil fields are skipped.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// Build creates both adapters and pings them. An unconfigured provider
// leaves its field nil; the caller decides whether that is fatal.
func Build(ctx context.Context, settings *domain.AppSettings) (*Services, error) {
	var s Services

	if settings.Embedding.IsConfigured() {
		svc, err := connect(ctx, func() (driven.EmbeddingService, error) {
			return NewEmbedding(&settings.Embedding)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w; %s", domain.ErrEmbeddingUnavailable, err, fixHint)
		}
		s.Embedding = svc
	}

	if settings.LLM.IsConfigured() {
		svc, err := connect(ctx, func() (driven.LLMService, error) {
			return NewLLM(&settings.LLM)
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: %w; %s", domain.ErrGenerationUnavailable, err, fixHint)
		}
		s.LLM = svc
	}

	return &s, nil
}

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// connect builds an adapter and keeps it only if it answers a ping.
func connect[T pinger](ctx context.Context, build func() (T, error)) (T, error) {
	var zero T

	svc, err := build()
	if err != nil {
		return zero, err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return zero, fmt.Errorf("service unreachable: %w", err)
	}
	return svc, nil
}

// NewEmbedding returns the embedding adapter for settings.Provider.
func NewEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, errEmbeddingNotConfigured
	}

	limiter := ratelimit.ForProvider(string(settings.Provider))
	dims := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dims,
			Limiter:    limiter,
		}), nil
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: dims,
			Limiter:    limiter,
		})
	case domain.AIProviderAnthropic:
		return nil, errors.New("anthropic does not support embeddings, use ollama or openai")
	}
	return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
}

// NewLLM returns the generation adapter for settings.Provider.
func NewLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, errLLMNotConfigured
	}

	limiter := ratelimit.ForProvider(string(settings.Provider))

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Limiter: limiter,
		})
	}
	return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
}
