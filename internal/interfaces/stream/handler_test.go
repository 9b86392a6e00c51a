package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/infrastructure/messaging"
)

type fakeIndexer struct {
	indexed []string
	removed []string
	err     error
}

func (f *fakeIndexer) IndexChapter(_ context.Context, chapterID string) (*similarity.IndexResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.indexed = append(f.indexed, chapterID)
	return &similarity.IndexResult{ChapterID: chapterID, Status: similarity.IndexStatusIndexed}, nil
}

func (f *fakeIndexer) RemoveChapter(_ context.Context, chapterID string) error {
	f.removed = append(f.removed, chapterID)
	return nil
}

type fakeRecorder struct {
	records []*entity.ScanRecord
}

func (f *fakeRecorder) Create(_ context.Context, record *entity.ScanRecord) error {
	f.records = append(f.records, record)
	return nil
}

func mustMessage(t *testing.T, msgType string, payload interface{}) *messaging.Message {
	t.Helper()
	msg, err := messaging.NewMessage("m-1", msgType, "nv-1", payload)
	require.NoError(t, err)
	return msg
}

func TestHandleChapterUpdatedReindexes(t *testing.T) {
	idx := &fakeIndexer{}
	h := NewHandler(idx, &fakeRecorder{})

	msg := mustMessage(t, messaging.TypeChapterContentUpdated, &messaging.ChapterUpdatedMessage{ChapterID: "ch-1", NovelID: "nv-1", ChapterVersion: 2})
	require.NoError(t, h.HandleChapterUpdated(context.Background(), msg))
	assert.Equal(t, []string{"ch-1"}, idx.indexed)
	assert.Empty(t, idx.removed)
}

func TestHandleChapterUpdatedMissingChapterRemoves(t *testing.T) {
	idx := &fakeIndexer{err: similarity.ErrChapterNotFound}
	h := NewHandler(idx, &fakeRecorder{})

	msg := mustMessage(t, messaging.TypeChapterContentUpdated, &messaging.ChapterUpdatedMessage{ChapterID: "ch-2"})
	require.NoError(t, h.HandleChapterUpdated(context.Background(), msg))
	assert.Equal(t, []string{"ch-2"}, idx.removed)
}

func TestHandleChapterUpdatedPropagatesFailure(t *testing.T) {
	boom := errors.New("embedding down")
	h := NewHandler(&fakeIndexer{err: boom}, &fakeRecorder{})

	msg := mustMessage(t, messaging.TypeChapterContentUpdated, &messaging.ChapterUpdatedMessage{ChapterID: "ch-3"})
	assert.ErrorIs(t, h.HandleChapterUpdated(context.Background(), msg), boom)
}

func TestHandleChapterUpdatedIgnoresEmptyID(t *testing.T) {
	idx := &fakeIndexer{}
	h := NewHandler(idx, &fakeRecorder{})

	msg := mustMessage(t, messaging.TypeChapterContentUpdated, &messaging.ChapterUpdatedMessage{})
	require.NoError(t, h.HandleChapterUpdated(context.Background(), msg))
	assert.Empty(t, idx.indexed)
}

func TestHandleChapterDeleted(t *testing.T) {
	idx := &fakeIndexer{}
	h := NewHandler(idx, &fakeRecorder{})

	msg := mustMessage(t, messaging.TypeChapterDeleted, &messaging.ChapterUpdatedMessage{ChapterID: "ch-4"})
	require.NoError(t, h.HandleChapterDeleted(context.Background(), msg))
	assert.Equal(t, []string{"ch-4"}, idx.removed)
}

func TestHandleScanCompleted(t *testing.T) {
	rec := &fakeRecorder{}
	h := NewHandler(&fakeIndexer{}, rec)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := mustMessage(t, messaging.TypeSimilarityScanCompleted, &messaging.ScanCompletedMessage{
		ScanID:            "scan-1",
		NovelID:           "nv-1",
		MatchCount:        1,
		ClearCount:        1,
		MatchedChapterIDs: []string{"c9"},
		MatchedNovelIDs:   []string{"n9"},
		ScannedAt:         at,
	})
	require.NoError(t, h.HandleScanCompleted(context.Background(), msg))
	require.Len(t, rec.records, 1)
	assert.Equal(t, "scan-1", rec.records[0].ID)
	assert.Equal(t, []string{"c9"}, []string(rec.records[0].MatchedChapterIDs))
	assert.True(t, at.Equal(rec.records[0].ScannedAt))
}
