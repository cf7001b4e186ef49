package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

const DefaultModel = "gemini-2.5-flash"

type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
}

type Client struct {
	log       *logger.Logger
	client    *genai.Client
	model     string
	maxTokens int
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client, err := genai.NewClient(ctxutil.Default(ctx), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{
		log:       log.With("client", "GeminiClient"),
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (c *Client) Model() string { return c.model }

// Complete asks for a JSON response to one system + user turn.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	ctx = ctxutil.Default(ctx)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.2),
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(c.maxTokens)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: empty completion")
	}
	c.log.Debug("Gemini completion", "model", c.model, "duration_ms", time.Since(start).Milliseconds())
	return text, nil
}
