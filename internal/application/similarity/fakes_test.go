package similarity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pgvector/pgvector-go"

	"z-novel-similarity/internal/application/similarity/textproc"
	"z-novel-similarity/internal/domain/entity"
)

var topicWords = []string{"dragon", "ocean", "garden"}

// topicVector 按主题词是否出现生成向量，相同主题的文本余弦为 1
func topicVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(topicWords)+1)
	for i, w := range topicWords {
		if strings.Contains(lower, w) {
			v[i] = 1
		}
	}
	v[len(topicWords)] = 0.05
	return v
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
	drop  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, topicVector(t))
	}
	return out[:len(out)-f.drop], nil
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeCorpus struct {
	records  []*entity.ChapterEmbedding
	contents map[string]string
	novels   map[string]*entity.Novel
	listErr  error

	onContent func(ctx context.Context, chapterID string) error
}

func newFakeCorpus() *fakeCorpus {
	return &fakeCorpus{
		contents: map[string]string{},
		novels:   map[string]*entity.Novel{},
	}
}

// addChapter 以正文的主题向量作为章节整体向量入库
func (c *fakeCorpus) addChapter(chapterID, novelID, title, content string) {
	normalized := textproc.Normalize(content)
	rec := entity.NewChapterEmbedding(chapterID, novelID, topicVector(normalized), textproc.ContentHash(normalized), "fake")
	rec.Title = title
	rec.Slug = strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	c.records = append(c.records, rec)
	c.contents[chapterID] = content
	if _, ok := c.novels[novelID]; !ok {
		c.novels[novelID] = &entity.Novel{ID: novelID, Title: "Novel " + novelID, Slug: "novel-" + novelID}
	}
}

func (c *fakeCorpus) ListChapterEmbeddings(context.Context) ([]*entity.ChapterEmbedding, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.records, nil
}

func (c *fakeCorpus) GetChapterRawContent(ctx context.Context, chapterID string) (string, error) {
	if c.onContent != nil {
		if err := c.onContent(ctx, chapterID); err != nil {
			return "", err
		}
	}
	return c.contents[chapterID], nil
}

func (c *fakeCorpus) GetNovelMetadata(_ context.Context, novelID string) (*entity.Novel, error) {
	return c.novels[novelID], nil
}

type fakeChunkStore struct {
	mu          sync.Mutex
	rows        map[string][]*entity.ChunkEmbedding
	saves       int
	saveErr     error
	invalidated []string
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{rows: map[string][]*entity.ChunkEmbedding{}}
}

func (s *fakeChunkStore) GetChunks(_ context.Context, chapterID string) ([]*entity.ChunkEmbedding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[chapterID], nil
}

func (s *fakeChunkStore) SaveChunks(_ context.Context, chapterID, novelID, hash string, texts []string, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	if len(texts) != len(vectors) {
		return errors.New("length mismatch")
	}
	rows := make([]*entity.ChunkEmbedding, len(texts))
	for i := range texts {
		rows[i] = &entity.ChunkEmbedding{
			ID:          fmt.Sprintf("%s-%d", chapterID, i),
			ChapterID:   chapterID,
			NovelID:     novelID,
			ChunkIndex:  i,
			ChunkText:   texts[i],
			Vector:      pgvector.NewVector(vectors[i]),
			ContentHash: hash,
		}
	}
	s.rows[chapterID] = rows
	return nil
}

func (s *fakeChunkStore) InvalidateChunks(_ context.Context, chapterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, chapterID)
	s.invalidated = append(s.invalidated, chapterID)
	return nil
}

func (s *fakeChunkStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakePublisher struct {
	mu      sync.Mutex
	results []*ScanResult
}

func (p *fakePublisher) PublishScanCompleted(_ context.Context, _ string, result *ScanResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
	return nil
}

// repeatSentences 生成 count 句、每句 10 个词的正文
func repeatSentences(template string, count int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf(template, i))
	}
	return b.String()
}
