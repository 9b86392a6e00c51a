package callback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
)

func TestElapsedSeconds(t *testing.T) {
	assert.Zero(t, elapsedSeconds(context.Background()))

	ctx := context.WithValue(context.Background(), startTimeKey{}, time.Now().Add(-time.Second))
	assert.GreaterOrEqual(t, elapsedSeconds(ctx), 1.0)
}

func TestModelName(t *testing.T) {
	assert.Empty(t, modelNameFromInput(nil))
	assert.Equal(t, "text-embedding-3-small", modelNameFromInput(&embedding.CallbackInput{
		Config: &embedding.Config{Model: "text-embedding-3-small"},
	}))
	assert.Empty(t, modelNameFromOutput(&embedding.CallbackOutput{}))
}

func TestHandlerLifecycle(t *testing.T) {
	h := newEmbeddingCallbackHandler()
	ctx := h.OnStart(context.Background(), nil, &embedding.CallbackInput{Texts: []string{"a", "b"}})
	assert.Positive(t, elapsedSeconds(ctx)+1)

	out := &embedding.CallbackOutput{
		Config:     &embedding.Config{Model: "m"},
		TokenUsage: &embedding.TokenUsage{PromptTokens: 12},
	}
	assert.NotPanics(t, func() { h.OnEnd(ctx, nil, out) })
	assert.NotPanics(t, func() { h.OnError(ctx, nil, errors.New("boom")) })
	assert.NotNil(t, NewHandler())
}
