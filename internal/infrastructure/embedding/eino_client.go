package embedding

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/embedding"

	"z-novel-similarity/internal/config"
)

// NewEinoEmbedder 创建基于 Eino OpenAI 适配器的 Embedder
func NewEinoEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	if cfg.APIKey == "" && cfg.Endpoint == "" {
		return nil, fmt.Errorf("embedding api_key or endpoint is required")
	}

	ec := &openai.EmbeddingConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	}
	if cfg.Endpoint != "" {
		ec.BaseURL = cfg.Endpoint
	}
	if cfg.Timeout > 0 {
		ec.Timeout = cfg.Timeout
	}
	if cfg.Dimension > 0 {
		dim := cfg.Dimension
		ec.Dimensions = &dim
	}

	embedder, err := openai.NewEmbedder(ctx, ec)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino embedder: %w", err)
	}
	return embedder, nil
}

// EinoProvider 将 Eino Embedder 适配为 float32 向量的 Provider
type EinoProvider struct {
	embedder embedding.Embedder
	handler  einocb.Handler
	runInfo  *einocb.RunInfo
}

// NewEinoProvider 创建 Eino Provider，handler 可为 nil
func NewEinoProvider(embedder embedding.Embedder, handler einocb.Handler) *EinoProvider {
	return &EinoProvider{
		embedder: embedder,
		handler:  handler,
		runInfo: &einocb.RunInfo{
			Name:      "similarity.embedding",
			Type:      "OpenAI",
			Component: components.ComponentOfEmbedding,
		},
	}
}

func (p *EinoProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if p.handler != nil {
		ctx = einocb.InitCallbacks(ctx, p.runInfo, p.handler)
	}

	vectors, err := p.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("eino embed failed: %w", err)
	}

	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		out[i] = toFloat32(v)
	}
	return out, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
