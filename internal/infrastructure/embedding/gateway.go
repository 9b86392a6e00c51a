package embedding

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"z-novel-similarity/internal/config"
	"z-novel-similarity/pkg/metrics"
)

var tracer = otel.Tracer("embedding")

// Provider 底层向量化实现（HTTP 服务或 Eino OpenAI）
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Gateway 统一的向量化入口：分批、校验数量与维度、记录指标
type Gateway struct {
	provider  Provider
	name      string
	batchSize int
	dimension int
}

// NewGateway 创建 Gateway，dimension 为 0 时不校验维度
func NewGateway(provider Provider, name string, cfg *config.EmbeddingConfig) *Gateway {
	bs := cfg.BatchSize
	if bs <= 0 {
		bs = 32
	}
	return &Gateway{
		provider:  provider,
		name:      name,
		batchSize: bs,
		dimension: cfg.Dimension,
	}
}

// Embed 返回与 texts 一一对应的向量
func (g *Gateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, span := tracer.Start(ctx, "embedding.Gateway.Embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("embedding.provider", g.name),
		attribute.Int("embedding.texts", len(texts)),
	)

	start := time.Now()
	out, err := g.embed(ctx, texts)
	metrics.EmbeddingCallDuration.WithLabelValues(g.name).Observe(time.Since(start).Seconds())
	metrics.EmbeddingTextsTotal.WithLabelValues(g.name).Add(float64(len(texts)))
	if err != nil {
		metrics.EmbeddingCallTotal.WithLabelValues(g.name, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.EmbeddingCallTotal.WithLabelValues(g.name, "success").Inc()
	return out, nil
}

func (g *Gateway) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += g.batchSize {
		end := i + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := g.provider.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-i {
			return nil, fmt.Errorf("embedding provider %s returned %d vectors for %d texts", g.name, len(vectors), end-i)
		}
		for j, v := range vectors {
			if g.dimension > 0 && len(v) != g.dimension {
				return nil, fmt.Errorf("embedding provider %s returned dimension %d at index %d, want %d", g.name, len(v), i+j, g.dimension)
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}
