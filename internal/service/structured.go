package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"worldforge/internal/config"
	"worldforge/internal/schemas"
	"worldforge/shared/models"

	"go.uber.org/zap"
)

// StructuredCaller invokes the model for one JSON document bound to a named
// schema. Every failure it returns wraps models.ErrModelUnavailable.
type StructuredCaller struct {
	client  AIClient
	timeout time.Duration
	params  GenerationParams
	logger  *zap.Logger
}

// NewStructuredCaller wraps client with the configured timeout and sampling
// settings.
func NewStructuredCaller(client AIClient, cfg *config.Config, logger *zap.Logger) *StructuredCaller {
	temperature := cfg.AITemperature
	topP := cfg.AITopP
	maxTokens := cfg.AIMaxTokens
	return &StructuredCaller{
		client:  client,
		timeout: cfg.AITimeout,
		params: GenerationParams{
			Temperature: &temperature,
			TopP:        &topP,
			MaxTokens:   &maxTokens,
		},
		logger: logger.Named("StructuredCaller"),
	}
}

// Call sends the prompt pair and returns the extracted JSON object. The
// response is not validated here; callers decode and repair it.
func (s *StructuredCaller) Call(ctx context.Context, tag, schemaName, systemPrompt, userInput string) ([]byte, UsageInfo, error) {
	params := s.params
	params.SchemaName = schemaName
	params.Schema = schemas.SchemaByName(schemaName)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, usage, err := s.client.GenerateText(callCtx, tag, systemPrompt, userInput, params)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("Model call timed out", zap.String("schema", schemaName), zap.Duration("timeout", s.timeout))
		}
		return nil, usage, fmt.Errorf("%s: %w: %v", schemaName, models.ErrModelUnavailable, err)
	}

	doc := ExtractJSON(text)
	if doc == "" {
		s.logger.Warn("Model reply holds no JSON object",
			zap.String("schema", schemaName),
			zap.Int("replyLength", len(text)),
		)
		return nil, usage, fmt.Errorf("%s: %w: reply holds no JSON object", schemaName, models.ErrModelUnavailable)
	}
	if len(doc) != len(text) {
		s.logger.Debug("Extracted JSON from model reply",
			zap.String("schema", schemaName),
			zap.Int("replyLength", len(text)),
			zap.Int("jsonLength", len(doc)),
		)
	}
	return []byte(doc), usage, nil
}
