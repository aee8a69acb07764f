package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worldforge/internal/mocks"
	"worldforge/internal/schemas"
	"worldforge/internal/service"
	"worldforge/shared/models"
)

func TestStructuredCaller_PassesSchemaAndSampling(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	caller := service.NewStructuredCaller(ai, testConfig(), zap.NewNop())

	ai.On("GenerateText", mock.Anything, "tag", "sys", "usr", mock.MatchedBy(func(p service.GenerationParams) bool {
		return p.SchemaName == schemas.SchemaCataclysm && p.Schema != nil &&
			p.Temperature != nil && *p.Temperature == 0.7 &&
			p.MaxTokens != nil && *p.MaxTokens == 1024
	})).Return("```json\n{\"ok\":true}\n```", service.UsageInfo{TotalTokens: 9}, nil).Once()

	raw, usage, err := caller.Call(context.Background(), "tag", schemas.SchemaCataclysm, "sys", "usr")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, 9, usage.TotalTokens)
	ai.AssertExpectations(t)
}

func TestStructuredCaller_AppliesTimeout(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	cfg := testConfig()
	cfg.AITimeout = 20 * time.Millisecond
	caller := service.NewStructuredCaller(ai, cfg, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(ctx context.Context, _, _, _ string, _ service.GenerationParams) string {
			<-ctx.Done()
			return ""
		}, service.UsageInfo{}, func(ctx context.Context, _, _, _ string, _ service.GenerationParams) error {
			return ctx.Err()
		}).Once()

	_, _, err := caller.Call(context.Background(), "tag", schemas.SchemaAdvance, "sys", "usr")
	require.ErrorIs(t, err, models.ErrModelUnavailable)
}

func TestStructuredCaller_Failures(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	caller := service.NewStructuredCaller(ai, testConfig(), zap.NewNop())

	ai.On("GenerateText", mock.Anything, "a", mock.Anything, mock.Anything, mock.Anything).
		Return("", service.UsageInfo{}, errors.New("401 unauthorized")).Once()
	ai.On("GenerateText", mock.Anything, "b", mock.Anything, mock.Anything, mock.Anything).
		Return("no json here", service.UsageInfo{}, nil).Once()

	_, _, err := caller.Call(context.Background(), "a", schemas.SchemaAdvance, "s", "u")
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "401")

	_, _, err = caller.Call(context.Background(), "b", schemas.SchemaAdvance, "s", "u")
	assert.ErrorIs(t, err, models.ErrModelUnavailable)
}
