package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/observability"
	perrors "github.com/yungbote/refyne-backend/internal/pkg/errors"
	"github.com/yungbote/refyne-backend/internal/pkg/httpx"
	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
)

// Chunker turns the raw text of one document into an ordered decomposition.
type Chunker interface {
	Decompose(ctx context.Context, text, filename string) (*types.Decomposition, error)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var defaultRetryDelays = []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

type ChunkerConfig struct {
	Prompt         ChunkingPrompt
	RetryDelays    []time.Duration
	AttemptTimeout time.Duration
	Sleep          Sleeper
}

type chunker struct {
	log            *logger.Logger
	client         CompletionClient
	system         string
	retryDelays    []time.Duration
	attemptTimeout time.Duration
	sleep          Sleeper
}

func NewChunker(log *logger.Logger, client CompletionClient, cfg ChunkerConfig) Chunker {
	if cfg.Prompt.Prompt == "" {
		cfg.Prompt = fallbackChunkingPrompt
	}
	if cfg.RetryDelays == nil {
		cfg.RetryDelays = defaultRetryDelays
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 120 * time.Second
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	return &chunker{
		log:            log.With("service", "Chunker"),
		client:         client,
		system:         cfg.Prompt.SystemPrompt(),
		retryDelays:    cfg.RetryDelays,
		attemptTimeout: cfg.AttemptTimeout,
		sleep:          cfg.Sleep,
	}
}

// Decompose makes one attempt plus one retry per configured delay. Every
// failure is retried; after the last one the error is a ServiceError.
func (c *chunker) Decompose(ctx context.Context, text, filename string) (*types.Decomposition, error) {
	ctx = ctxutil.Default(ctx)
	ctx, span := observability.Tracer().Start(ctx, "chunker.decompose")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.filename", filename),
		attribute.Int("document.chars", len([]rune(text))),
		attribute.String("ai.model", c.client.Model()),
	)

	user := chunkingUserMessage(filename, text)
	maxAttempts := len(c.retryDelays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := c.attempt(ctx, user)
		if err == nil {
			span.SetAttributes(
				attribute.Int("ai.attempts", attempt+1),
				attribute.Int("chunks", len(out.Chunks)),
			)
			return out, nil
		}
		lastErr = err
		c.log.Warn("Decompose attempt failed",
			"filename", filename,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"transient", httpx.IsTransient(err),
			"upstream_status", httpx.StatusCode(err),
			"error", err,
		)
		if ctx.Err() != nil {
			span.RecordError(ctx.Err())
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("decompose %s: %w", filename, ctx.Err())
		}
		if attempt < len(c.retryDelays) {
			delay := c.retryDelays[attempt]
			c.log.Debug("Retrying decompose", "filename", filename, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "cancelled")
				return nil, fmt.Errorf("decompose %s: %w", filename, err)
			}
		}
	}

	svcErr := &perrors.ServiceError{Attempts: maxAttempts, Err: lastErr}
	span.RecordError(svcErr)
	span.SetStatus(codes.Error, svcErr.Error())
	return nil, svcErr
}

func (c *chunker) attempt(ctx context.Context, user string) (*types.Decomposition, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	raw, err := c.client.Complete(attemptCtx, c.system, user)
	if err != nil {
		return nil, err
	}
	return ParseDecomposition(raw)
}

type rawDecomposition struct {
	DocumentType string                `json:"document_type"`
	Chunks       *[]rawDecomposedChunk `json:"chunks"`
}

type rawDecomposedChunk struct {
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Summary  string          `json:"summary"`
	Category string          `json:"category"`
	Tags     json.RawMessage `json:"tags"`
}

// ParseDecomposition decodes and validates a model response. A response is
// accepted only if every chunk carries a title, content, summary and category.
func ParseDecomposition(raw string) (*types.Decomposition, error) {
	payload := stripCodeFence(raw)
	if payload == "" {
		return nil, perrors.NewValidationError("empty response")
	}

	var parsed rawDecomposition
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, perrors.NewValidationError("response is not valid JSON: %s", err.Error())
	}
	if parsed.Chunks == nil || len(*parsed.Chunks) == 0 {
		return nil, perrors.NewValidationError("response missing chunks array")
	}

	out := &types.Decomposition{
		DocumentType: strings.TrimSpace(parsed.DocumentType),
		Chunks:       make([]types.DecomposedChunk, 0, len(*parsed.Chunks)),
	}
	for i, rc := range *parsed.Chunks {
		var missing []string
		if strings.TrimSpace(rc.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(rc.Content) == "" {
			missing = append(missing, "content")
		}
		if strings.TrimSpace(rc.Summary) == "" {
			missing = append(missing, "summary")
		}
		if strings.TrimSpace(rc.Category) == "" {
			missing = append(missing, "category")
		}
		if len(missing) > 0 {
			return nil, perrors.NewValidationError("chunk %d missing required fields: %s", i, strings.Join(missing, ", "))
		}
		out.Chunks = append(out.Chunks, types.DecomposedChunk{
			Title:    rc.Title,
			Content:  rc.Content,
			Summary:  rc.Summary,
			Category: rc.Category,
			Tags:     decodeTags(rc.Tags),
		})
	}
	return out, nil
}

// decodeTags keeps the string entries of a JSON array; anything else yields no tags.
func decodeTags(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, it := range items {
		if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSpace(s)
}

// IsValidationError reports whether err carries a malformed-response failure.
func IsValidationError(err error) bool {
	var v *perrors.ValidationError
	return errors.As(err, &v)
}
