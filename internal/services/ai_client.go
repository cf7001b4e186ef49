package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/refyne-backend/internal/platform/anthropic"
	"github.com/yungbote/refyne-backend/internal/platform/gemini"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/platform/openai"
)

const (
	AIProviderAnthropic = "anthropic"
	AIProviderOpenAI    = "openai"
	AIProviderGemini    = "gemini"
)

// CompletionClient sends one system+user prompt and returns the raw model text.
// Implementations make a single attempt; retries belong to the caller.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

type AIConfig struct {
	Provider  string
	Anthropic anthropic.Config
	OpenAI    openai.Config
	Gemini    gemini.Config
}

func NewCompletionClient(ctx context.Context, log *logger.Logger, cfg AIConfig) (CompletionClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = AIProviderAnthropic
	}
	var (
		client CompletionClient
		err    error
	)
	switch provider {
	case AIProviderAnthropic:
		client, err = anthropic.NewClient(log, cfg.Anthropic)
	case AIProviderOpenAI:
		client, err = openai.NewClient(log, cfg.OpenAI)
	case AIProviderGemini:
		client, err = gemini.NewClient(ctx, log, cfg.Gemini)
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", provider, err)
	}
	log.Info("AI completion client ready", "provider", provider, "model", client.Model())
	return client, nil
}
