package similarity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-novel-similarity/internal/application/similarity/textproc"
	"z-novel-similarity/internal/domain/entity"
)

type fakeChapters map[string]*entity.Chapter

func (f fakeChapters) GetByID(_ context.Context, id string) (*entity.Chapter, error) {
	return f[id], nil
}

type fakeEmbeddingStore struct {
	records map[string]*entity.ChapterEmbedding
	upserts int
}

func (s *fakeEmbeddingStore) GetByChapterID(_ context.Context, chapterID string) (*entity.ChapterEmbedding, error) {
	return s.records[chapterID], nil
}

func (s *fakeEmbeddingStore) Upsert(_ context.Context, e *entity.ChapterEmbedding) error {
	s.upserts++
	s.records[e.ChapterID] = e
	return nil
}

func (s *fakeEmbeddingStore) Delete(_ context.Context, chapterID string) error {
	delete(s.records, chapterID)
	return nil
}

func newIndexerFixture() (*Indexer, fakeChapters, *fakeEmbeddingStore, *fakeChunkStore, *fakeEmbedder) {
	chapters := fakeChapters{}
	store := &fakeEmbeddingStore{records: map[string]*entity.ChapterEmbedding{}}
	chunks := newFakeChunkStore()
	embedder := &fakeEmbedder{}
	return NewIndexer(embedder, chapters, store, chunks, "fake-model"), chapters, store, chunks, embedder
}

func TestIndexChapter(t *testing.T) {
	idx, chapters, store, chunks, embedder := newIndexerFixture()
	chapters["c1"] = &entity.Chapter{ID: "c1", NovelID: "n1", ContentText: "<p>" + dragonText + "</p>"}

	res, err := idx.IndexChapter(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, IndexStatusIndexed, res.Status)

	rec := store.records["c1"]
	require.NotNil(t, rec)
	assert.Equal(t, "n1", rec.NovelID)
	assert.Equal(t, "fake-model", rec.Model)
	assert.Equal(t, textproc.ContentHash(dragonText), rec.ContentHash)
	assert.Equal(t, topicVector(dragonText), rec.Embedding())
	assert.Equal(t, []string{"c1"}, chunks.invalidated)

	// 正文未变化时不重复向量化
	res, err = idx.IndexChapter(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, IndexStatusUnchanged, res.Status)
	assert.Equal(t, 1, embedder.callCount())
	assert.Equal(t, 1, store.upserts)
}

func TestIndexChapterEmptyContentRemoves(t *testing.T) {
	idx, chapters, store, chunks, _ := newIndexerFixture()
	store.records["c1"] = &entity.ChapterEmbedding{ChapterID: "c1"}
	chapters["c1"] = &entity.Chapter{ID: "c1", NovelID: "n1", ContentText: "  <br/> "}

	res, err := idx.IndexChapter(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, IndexStatusRemoved, res.Status)
	assert.NotContains(t, store.records, "c1")
	assert.Equal(t, []string{"c1"}, chunks.invalidated)
}

func TestIndexChapterNotFound(t *testing.T) {
	idx, _, _, _, _ := newIndexerFixture()

	_, err := idx.IndexChapter(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChapterNotFound)

	_, err = idx.IndexChapter(context.Background(), " ")
	assert.Error(t, err)
}

func TestIndexChapterEmbeddingFailure(t *testing.T) {
	idx, chapters, store, _, embedder := newIndexerFixture()
	chapters["c1"] = &entity.Chapter{ID: "c1", NovelID: "n1", ContentText: dragonText}
	embedder.err = errors.New("timeout")

	_, err := idx.IndexChapter(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.Zero(t, store.upserts)
}

type recordingTx struct {
	calls int
	err   error
}

func (r *recordingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return r.err
}

func TestRemoveChapterUsesTransactor(t *testing.T) {
	idx, _, store, _, _ := newIndexerFixture()
	tx := &recordingTx{}
	idx.WithTransactor(tx)
	store.records["c1"] = &entity.ChapterEmbedding{ChapterID: "c1"}

	require.NoError(t, idx.RemoveChapter(context.Background(), "c1"))
	assert.Equal(t, 1, tx.calls)
	assert.NotContains(t, store.records, "c1")

	tx.err = errors.New("commit failed")
	assert.EqualError(t, idx.RemoveChapter(context.Background(), "c1"), "commit failed")
}
