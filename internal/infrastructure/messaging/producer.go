package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/application/similarity/scoring"
	"z-novel-similarity/pkg/logger"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	attachTraceMetadata(ctx, msg)

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishChapterUpdated 发布章节正文变更
func (p *Producer) PublishChapterUpdated(ctx context.Context, update *ChapterUpdatedMessage) (string, error) {
	msg, err := NewMessage(update.ChapterID, TypeChapterContentUpdated, update.NovelID, update)
	if err != nil {
		return "", err
	}
	msg.SetMetadata("chapter_version", strconv.Itoa(update.ChapterVersion))
	return p.Publish(ctx, StreamChapterUpdated, msg)
}

// PublishScanCompleted 发布扫描完成审计事件
func (p *Producer) PublishScanCompleted(ctx context.Context, novelID string, result *similarity.ScanResult) error {
	event := NewScanCompletedMessage(novelID, result, time.Now())
	msg, err := NewMessage(result.ScanID, TypeSimilarityScanCompleted, novelID, event)
	if err != nil {
		return err
	}
	_, err = p.Publish(ctx, StreamSimilarityAudit, msg)
	return err
}

// NewScanCompletedMessage 汇总扫描结果
func NewScanCompletedMessage(novelID string, result *similarity.ScanResult, scannedAt time.Time) *ScanCompletedMessage {
	event := &ScanCompletedMessage{
		ScanID:             result.ScanID,
		NovelID:            novelID,
		InputContentLength: result.InputContentLength,
		MatchCount:         result.MatchCount,
		MatchedChapterIDs:  make([]string, 0, len(result.Matches)),
		MatchedNovelIDs:    make([]string, 0, len(result.Matches)),
		ScannedAt:          scannedAt,
	}

	seenNovels := make(map[string]struct{})
	for _, m := range result.Matches {
		switch m.Verdict {
		case scoring.VerdictClear:
			event.ClearCount++
		case scoring.VerdictRelated:
			event.RelatedCount++
		}
		event.MatchedChapterIDs = append(event.MatchedChapterIDs, m.ChapterID)
		if _, ok := seenNovels[m.NovelID]; !ok {
			seenNovels[m.NovelID] = struct{}{}
			event.MatchedNovelIDs = append(event.MatchedNovelIDs, m.NovelID)
		}
	}
	return event
}

// attachTraceMetadata 透传请求 ID 与 trace ID，便于消费端关联日志
func attachTraceMetadata(ctx context.Context, msg *Message) {
	if v, ok := ctx.Value(logger.RequestIDKey).(string); ok && v != "" && msg.GetMetadata("request_id") == "" {
		msg.SetMetadata("request_id", v)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() && msg.GetMetadata("trace_id") == "" {
		msg.SetMetadata("trace_id", sc.TraceID().String())
	}
}
