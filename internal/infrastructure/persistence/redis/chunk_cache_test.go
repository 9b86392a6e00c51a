package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-novel-similarity/internal/domain/entity"
)

type memChunkRepo struct {
	rows    map[string][]*entity.ChunkEmbedding
	listErr error
}

func newMemChunkRepo() *memChunkRepo {
	return &memChunkRepo{rows: map[string][]*entity.ChunkEmbedding{}}
}

func (m *memChunkRepo) ListByChapter(_ context.Context, chapterID string) ([]*entity.ChunkEmbedding, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rows[chapterID], nil
}

func (m *memChunkRepo) ReplaceForChapter(_ context.Context, chapterID string, chunks []*entity.ChunkEmbedding) error {
	m.rows[chapterID] = chunks
	return nil
}

func (m *memChunkRepo) DeleteByChapter(_ context.Context, chapterID string) error {
	delete(m.rows, chapterID)
	return nil
}

// ttl 为 0 时不访问 Redis，可以只用内存仓储验证持久层逻辑
func TestChunkCacheWithoutRedis(t *testing.T) {
	repo := newMemChunkRepo()
	c := NewChunkCache(nil, repo, 0)
	ctx := context.Background()

	rows, err := c.GetChunks(ctx, "ch-1")
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = c.SaveChunks(ctx, "ch-1", "nv-1", "hash", []string{"a b", "c d"}, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	rows, err = c.GetChunks(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[1].ChunkIndex)
	assert.Equal(t, "c d", rows[1].ChunkText)
	assert.Equal(t, "hash", rows[1].ContentHash)
	assert.NotEmpty(t, rows[0].ID)
	assert.Equal(t, []float32{0, 1}, rows[1].Embedding())

	require.NoError(t, c.InvalidateChunks(ctx, "ch-1"))
	rows, err = c.GetChunks(ctx, "ch-1")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestChunkCacheSaveRejectsMismatch(t *testing.T) {
	c := NewChunkCache(nil, newMemChunkRepo(), 0)
	err := c.SaveChunks(context.Background(), "ch-1", "nv-1", "h", []string{"a"}, nil)
	assert.Error(t, err)
}

func TestChunkCachePropagatesRepoError(t *testing.T) {
	repo := newMemChunkRepo()
	repo.listErr = errors.New("connection refused")
	_, err := NewChunkCache(nil, repo, 0).GetChunks(context.Background(), "ch-1")
	assert.ErrorIs(t, err, repo.listErr)
}

func TestChunkCodecRoundTrip(t *testing.T) {
	rows := []*entity.ChunkEmbedding{
		{ChapterID: "ch-9", ChunkIndex: 0, ChunkText: "first", Vector: pgvector.NewVector([]float32{0.25, 0.5}), ContentHash: "h1"},
		{ChapterID: "ch-9", ChunkIndex: 1, ChunkText: "second", Vector: pgvector.NewVector([]float32{1, 0}), ContentHash: "h1"},
	}

	raw, err := json.Marshal(encodeChunks(rows))
	require.NoError(t, err)

	decoded, err := decodeChunks("ch-9", raw)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "second", decoded[1].ChunkText)
	assert.Equal(t, []float32{0.25, 0.5}, decoded[0].Embedding())
	assert.Equal(t, "ch-9", decoded[0].ChapterID)

	_, err = decodeChunks("ch-9", []byte("{broken"))
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "similarity:chunks:abc", chunkKey("abc"))
	assert.Equal(t, "similarity:novel:n1", novelKey("n1"))
	assert.Equal(t, "ratelimit:10.0.0.1:/v1/similarity/scan", BuildRateLimitKey("10.0.0.1", "/v1/similarity/scan"))
}
