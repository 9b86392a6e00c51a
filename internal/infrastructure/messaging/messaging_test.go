package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/application/similarity/scoring"
	"z-novel-similarity/pkg/logger"
)

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(8))
}

func TestDLQStream(t *testing.T) {
	assert.Equal(t, "dlq:stream:chapter:updated", StreamChapterUpdated.DLQStream())
}

func TestMessagePayloadRoundTrip(t *testing.T) {
	msg, err := NewMessage("ch-1", TypeChapterContentUpdated, "nv-1", &ChapterUpdatedMessage{
		ChapterID:      "ch-1",
		NovelID:        "nv-1",
		ChapterVersion: 3,
	})
	require.NoError(t, err)
	assert.Empty(t, msg.GetMetadata("missing"))

	var payload ChapterUpdatedMessage
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, 3, payload.ChapterVersion)
}

func TestDecodeXMessage(t *testing.T) {
	_, err := decodeXMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
	assert.Error(t, err)

	_, err = decodeXMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{"data": "{"}})
	assert.Error(t, err)

	msg, err := decodeXMessage(redis.XMessage{ID: "1-0", Values: map[string]interface{}{
		"data": `{"id":"s-1","type":"similarity_scan_completed","novel_id":"nv-1","payload":{}}`,
	}})
	require.NoError(t, err)
	assert.Equal(t, TypeSimilarityScanCompleted, msg.Type)
	assert.Equal(t, "nv-1", msg.NovelID)
}

func TestMessageContext(t *testing.T) {
	msg := &Message{NovelID: "nv-1"}
	msg.SetMetadata("request_id", "req-9")

	ctx := messageContext(context.Background(), msg)
	assert.Equal(t, "nv-1", ctx.Value(logger.NovelIDKey))
	assert.Equal(t, "req-9", ctx.Value(logger.RequestIDKey))
	assert.Nil(t, ctx.Value(logger.TraceIDKey))
}

func TestAttachTraceMetadata(t *testing.T) {
	ctx := logger.WithContext(context.Background(), logger.RequestIDKey, "req-1")
	msg := &Message{}
	attachTraceMetadata(ctx, msg)
	assert.Equal(t, "req-1", msg.GetMetadata("request_id"))
	assert.Empty(t, msg.GetMetadata("trace_id"))
}

func TestNewScanCompletedMessage(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	result := &similarity.ScanResult{
		ScanID:             "scan-1",
		InputContentLength: 1200,
		MatchCount:         3,
		Matches: []similarity.Report{
			{ChapterID: "c1", NovelID: "n1", Verdict: scoring.VerdictClear},
			{ChapterID: "c2", NovelID: "n1", Verdict: scoring.VerdictRelated},
			{ChapterID: "c3", NovelID: "n2", Verdict: scoring.VerdictClear},
		},
	}

	event := NewScanCompletedMessage("mine", result, at)
	assert.Equal(t, "scan-1", event.ScanID)
	assert.Equal(t, "mine", event.NovelID)
	assert.Equal(t, 2, event.ClearCount)
	assert.Equal(t, 1, event.RelatedCount)
	assert.Equal(t, []string{"c1", "c2", "c3"}, event.MatchedChapterIDs)
	assert.Equal(t, []string{"n1", "n2"}, event.MatchedNovelIDs)
	assert.Equal(t, at, event.ScannedAt)
}
