package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/application/similarity/scoring"
	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/internal/infrastructure/messaging"
	"z-novel-similarity/internal/interfaces/http/dto"
)

type fakeScanner struct {
	result  *similarity.ScanResult
	err     error
	got     similarity.ScanRequest
	hasDead bool
}

func (f *fakeScanner) Scan(ctx context.Context, req similarity.ScanRequest) (*similarity.ScanResult, error) {
	f.got = req
	_, f.hasDead = ctx.Deadline()
	return f.result, f.err
}

type fakeIndexer struct {
	err   error
	calls []string
}

func (f *fakeIndexer) IndexChapter(_ context.Context, chapterID string) (*similarity.IndexResult, error) {
	f.calls = append(f.calls, chapterID)
	if f.err != nil {
		return nil, f.err
	}
	return &similarity.IndexResult{ChapterID: chapterID, Status: similarity.IndexStatusIndexed}, nil
}

type fakeQueue struct {
	published []*messaging.ChapterUpdatedMessage
	err       error
}

func (f *fakeQueue) PublishChapterUpdated(_ context.Context, update *messaging.ChapterUpdatedMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, update)
	return "1-0", nil
}

type fakeHistory struct {
	records   []*entity.ScanRecord
	lastLimit int
}

func (f *fakeHistory) ListByNovel(_ context.Context, _ string, limit int) ([]*entity.ScanRecord, error) {
	f.lastLimit = limit
	return f.records, nil
}

func (f *fakeHistory) ListMatchingChapter(_ context.Context, _ string, limit int) ([]*entity.ScanRecord, error) {
	f.lastLimit = limit
	return f.records, nil
}

func newTestEngine(h *SimilarityHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/similarity/scan", h.Scan)
	r.POST("/v1/similarity/index", h.Index)
	r.GET("/v1/novels/:nid/scans", h.ListNovelScans)
	r.GET("/v1/chapters/:cid/scans", h.ListChapterScans)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScan_Success(t *testing.T) {
	scanner := &fakeScanner{result: &similarity.ScanResult{
		ScanID:             "scan-1",
		InputContentLength: 42,
		MatchCount:         1,
		Matches: []similarity.Report{{
			ChapterID:      "c1",
			ChapterTitle:   "Chapter One",
			NovelID:        "n2",
			NovelTitle:     "Other Novel",
			NovelSlug:      "other-novel",
			FullSimilarity: 0.97,
			Verdict:        scoring.VerdictClear,
			MatchedChunks: []similarity.Evidence{{
				ChunkMatch:    scoring.ChunkMatch{InputIndex: 0, CandidateIndex: 3, Similarity: 0.95},
				InputText:     "in",
				CandidateText: "cand",
			}},
		}},
	}}
	h := NewSimilarityHandler(scanner, &fakeIndexer{}, &fakeHistory{}, time.Minute)

	w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/scan", map[string]string{
		"content":  "<p>hello</p>",
		"novel_id": "n1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response[dto.ScanResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.MatchCount)
	assert.Equal(t, 42, resp.Data.InputContentLength)
	require.Len(t, resp.Data.Matches, 1)
	assert.Equal(t, "clear", resp.Data.Matches[0].Verdict)
	require.Len(t, resp.Data.Matches[0].MatchedChunks, 1)
	assert.Equal(t, 3, resp.Data.Matches[0].MatchedChunks[0].CandidateChunkIndex)

	assert.Equal(t, "n1", scanner.got.NovelID)
	assert.Equal(t, "<p>hello</p>", scanner.got.Content)
	assert.True(t, scanner.hasDead)
}

func TestScan_EmptyContentIsAccepted(t *testing.T) {
	scanner := &fakeScanner{result: &similarity.ScanResult{Matches: []similarity.Report{}}}
	h := NewSimilarityHandler(scanner, &fakeIndexer{}, &fakeHistory{}, 0)

	w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/scan", map[string]string{"novel_id": "n1"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, scanner.hasDead)
}

func TestScan_MissingNovelID(t *testing.T) {
	h := NewSimilarityHandler(&fakeScanner{}, &fakeIndexer{}, &fakeHistory{}, 0)

	w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/scan", map[string]string{"content": "x"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScan_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"provider failure", fmt.Errorf("%w: boom", similarity.ErrProviderFailure), http.StatusBadGateway, "4006"},
		{"snapshot failure", fmt.Errorf("%w: db down", similarity.ErrCandidateSnapshot), http.StatusServiceUnavailable, "1008"},
		{"canceled", fmt.Errorf("scan canceled: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "1009"},
		{"unknown", errors.New("weird"), http.StatusInternalServerError, "4001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSimilarityHandler(&fakeScanner{err: tt.err}, &fakeIndexer{}, &fakeHistory{}, 0)

			w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/scan", map[string]string{
				"content":  "x",
				"novel_id": "n1",
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.ErrorCode)
		})
	}
}

func TestIndex(t *testing.T) {
	t.Run("indexed inline", func(t *testing.T) {
		h := NewSimilarityHandler(&fakeScanner{}, &fakeIndexer{}, &fakeHistory{}, 0)

		w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/index", map[string]string{"chapter_id": "c1"})

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response[dto.IndexResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "c1", resp.Data.ChapterID)
		assert.Equal(t, similarity.IndexStatusIndexed, resp.Data.Status)
	})

	t.Run("queued", func(t *testing.T) {
		queue := &fakeQueue{}
		indexer := &fakeIndexer{}
		h := NewSimilarityHandler(&fakeScanner{}, indexer, &fakeHistory{}, 0).WithIndexQueue(queue)

		body := map[string]any{"chapter_id": "c1", "novel_id": "n1", "async": true}
		w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/index", body)

		require.Equal(t, http.StatusAccepted, w.Code)
		var resp dto.Response[dto.IndexResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, IndexStatusQueued, resp.Data.Status)
		require.Len(t, queue.published, 1)
		assert.Equal(t, "c1", queue.published[0].ChapterID)
		assert.Equal(t, "n1", queue.published[0].NovelID)
		assert.Empty(t, indexer.calls)
	})

	t.Run("async without queue", func(t *testing.T) {
		h := NewSimilarityHandler(&fakeScanner{}, &fakeIndexer{}, &fakeHistory{}, 0)

		body := map[string]any{"chapter_id": "c1", "async": true}
		w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/index", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("queue unavailable", func(t *testing.T) {
		queue := &fakeQueue{err: assert.AnError}
		h := NewSimilarityHandler(&fakeScanner{}, &fakeIndexer{}, &fakeHistory{}, 0).WithIndexQueue(queue)

		body := map[string]any{"chapter_id": "c1", "async": true}
		w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/index", body)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("chapter not found", func(t *testing.T) {
		h := NewSimilarityHandler(&fakeScanner{}, &fakeIndexer{err: similarity.ErrChapterNotFound}, &fakeHistory{}, 0)

		w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/index", map[string]string{"chapter_id": "c1"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing chapter id", func(t *testing.T) {
		h := NewSimilarityHandler(&fakeScanner{}, &fakeIndexer{}, &fakeHistory{}, 0)

		w := doJSON(t, newTestEngine(h), http.MethodPost, "/v1/similarity/index", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListScans(t *testing.T) {
	history := &fakeHistory{records: []*entity.ScanRecord{{
		ID:                "s1",
		NovelID:           "n1",
		MatchCount:        2,
		MatchedChapterIDs: pq.StringArray{"c1", "c2"},
		ScannedAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	h := NewSimilarityHandler(&fakeScanner{}, &fakeIndexer{}, history, 0)
	r := newTestEngine(h)

	w := doJSON(t, r, http.MethodGet, "/v1/novels/n1/scans?limit=500", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, history.lastLimit)

	var resp dto.Response[dto.ScanRecordListResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, []string{"c1", "c2"}, resp.Data.Records[0].MatchedChapterIDs)
	assert.Equal(t, "2026-01-02T03:04:05Z", resp.Data.Records[0].ScannedAt)

	w = doJSON(t, r, http.MethodGet, "/v1/chapters/c1/scans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, history.lastLimit)
}
