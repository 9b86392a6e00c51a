package similarity

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-novel-similarity/internal/application/similarity/scoring"
	"z-novel-similarity/internal/application/similarity/textproc"
	"z-novel-similarity/internal/domain/entity"
)

var (
	dragonText = repeatSentences("the dragon number %d breathed fire over the quiet valley", 45)
	oceanText  = repeatSentences("waves rolled across the ocean while sailor %d slept below", 45)
)

type detectorFixture struct {
	embedder  *fakeEmbedder
	corpus    *fakeCorpus
	chunks    *fakeChunkStore
	publisher *fakePublisher
	detector  *Detector
}

func newFixture(t *testing.T) *detectorFixture {
	t.Helper()
	f := &detectorFixture{
		embedder:  &fakeEmbedder{},
		corpus:    newFakeCorpus(),
		chunks:    newFakeChunkStore(),
		publisher: &fakePublisher{},
	}
	f.detector = NewDetector(f.embedder, f.corpus, f.corpus, f.corpus, f.chunks, f.publisher, DefaultConfig())
	return f
}

func TestScanEmptyInput(t *testing.T) {
	for _, content := range []string{"", "   ", "<p> </p>&nbsp;"} {
		f := newFixture(t)
		f.corpus.addChapter("c1", "n2", "Chapter One", dragonText)

		res, err := f.detector.Scan(context.Background(), ScanRequest{Content: content, NovelID: "n1"})
		require.NoError(t, err)
		assert.Zero(t, res.MatchCount)
		assert.Zero(t, res.InputContentLength)
		assert.NotNil(t, res.Matches)
		assert.Zero(t, f.embedder.callCount())
	}
}

func TestScanVerbatimCopyIsClear(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n2", "Chapter One", dragonText)

	res, err := f.detector.Scan(context.Background(), ScanRequest{Content: "<p>" + dragonText + "</p>", NovelID: "n1"})
	require.NoError(t, err)
	require.Equal(t, 1, res.MatchCount)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, utf8.RuneCountInString(dragonText), res.InputContentLength)

	m := res.Matches[0]
	assert.Equal(t, "c1", m.ChapterID)
	assert.Equal(t, "Chapter One", m.ChapterTitle)
	assert.Equal(t, "n2", m.NovelID)
	assert.Equal(t, "Novel n2", m.NovelTitle)
	assert.Equal(t, "novel-n2", m.NovelSlug)
	assert.Equal(t, scoring.VerdictClear, m.Verdict)
	assert.InDelta(t, 1.0, m.FullSimilarity, 1e-6)
	assert.InDelta(t, 1.0, m.LiteralWeightedRate, 1e-9)
	assert.InDelta(t, 1.0, m.SemanticCoverage, 1e-9)
	require.NotEmpty(t, m.MatchedChunks)
	assert.InDelta(t, 1.0, m.MatchedChunks[0].Similarity, 1e-6)
	assert.NotEmpty(t, m.MatchedChunks[0].InputText)
	assert.NotEmpty(t, m.MatchedChunks[0].CandidateText)

	// 输入只向量化一次：整篇 + 3 个分块
	require.GreaterOrEqual(t, len(f.embedder.calls), 1)
	assert.Len(t, f.embedder.calls[0], 4)
	assert.Equal(t, textproc.Normalize(dragonText), f.embedder.calls[0][0])

	require.Len(t, f.publisher.results, 1)
	assert.Equal(t, res.ScanID, f.publisher.results[0].ScanID)
}

func TestScanUnrelatedInputIsEarlyRejected(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n2", "Chapter One", dragonText)

	res, err := f.detector.Scan(context.Background(), ScanRequest{Content: oceanText, NovelID: "n1"})
	require.NoError(t, err)
	assert.Zero(t, res.MatchCount)
	assert.Empty(t, res.Matches)
	// 早筛后不会读取候选分块
	assert.Equal(t, 1, f.embedder.callCount())
	assert.Zero(t, f.chunks.saveCount())
	assert.Empty(t, f.publisher.results)
}

func TestScanExcludesOwnNovel(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n1", "Chapter One", dragonText)

	res, err := f.detector.Scan(context.Background(), ScanRequest{Content: dragonText, NovelID: "n1"})
	require.NoError(t, err)
	assert.Zero(t, res.MatchCount)
	assert.Equal(t, 1, f.embedder.callCount())
}

func TestScanComputesAndReusesChunkCache(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n2", "Chapter One", dragonText)
	req := ScanRequest{Content: dragonText, NovelID: "n1"}

	_, err := f.detector.Scan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, f.chunks.saveCount())
	assert.Equal(t, 2, f.embedder.callCount())

	rows := f.chunks.rows["c1"]
	require.Len(t, rows, 3)
	assert.Equal(t, textproc.ContentHash(textproc.Normalize(dragonText)), rows[0].ContentHash)
	assert.Equal(t, "n2", rows[0].NovelID)

	res, err := f.detector.Scan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.MatchCount)
	assert.Equal(t, 1, f.chunks.saveCount())
	assert.Equal(t, 3, f.embedder.callCount())
}

func TestScanRebuildsStaleChunks(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n2", "Chapter One", dragonText)
	require.NoError(t, f.chunks.SaveChunks(context.Background(), "c1", "n2", "outdated",
		[]string{"old text"}, [][]float32{topicVector("ocean")}))

	res, err := f.detector.Scan(context.Background(), ScanRequest{Content: dragonText, NovelID: "n1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.MatchCount)
	assert.Equal(t, 2, f.chunks.saveCount())
	assert.Len(t, f.chunks.rows["c1"], 3)
}

func TestScanSkipsCandidateOnChunkPersistFailure(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n2", "Chapter One", dragonText)
	f.chunks.saveErr = errors.New("unique violation")

	res, err := f.detector.Scan(context.Background(), ScanRequest{Content: dragonText, NovelID: "n1"})
	require.NoError(t, err)
	assert.Zero(t, res.MatchCount)
}

func TestScanSkipsCandidatesWithMissingData(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n2", "Empty", dragonText)
	f.corpus.addChapter("c2", "n3", "Orphan", dragonText)
	f.corpus.addChapter("c3", "n4", "Complete", dragonText)
	f.corpus.contents["c1"] = "<p></p>"
	delete(f.corpus.novels, "n3")

	res, err := f.detector.Scan(context.Background(), ScanRequest{Content: dragonText, NovelID: "n1"})
	require.NoError(t, err)
	require.Equal(t, 1, res.MatchCount)
	assert.Equal(t, "c3", res.Matches[0].ChapterID)
}

func TestScanKeepsSnapshotOrder(t *testing.T) {
	f := newFixture(t)
	ids := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
	for _, id := range ids {
		f.corpus.addChapter(id, "novel-"+id, "Chapter", dragonText)
	}

	res, err := f.detector.Scan(context.Background(), ScanRequest{Content: dragonText, NovelID: "n1"})
	require.NoError(t, err)
	require.Equal(t, len(ids), res.MatchCount)
	for i, id := range ids {
		assert.Equal(t, id, res.Matches[i].ChapterID)
	}
}

func TestScanInputEmbeddingFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n2", "Chapter One", dragonText)
	f.embedder.err = errors.New("rate limited")

	res, err := f.detector.Scan(context.Background(), ScanRequest{Content: dragonText, NovelID: "n1"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrProviderFailure)
}

func TestScanInputEmbeddingCountMismatch(t *testing.T) {
	f := newFixture(t)
	f.embedder.drop = 1

	_, err := f.detector.Scan(context.Background(), ScanRequest{Content: dragonText, NovelID: "n1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.ErrorIs(t, err, ErrEmbeddingMismatch)
}

func TestScanSnapshotFailure(t *testing.T) {
	f := newFixture(t)
	f.corpus.listErr = errors.New("connection refused")

	_, err := f.detector.Scan(context.Background(), ScanRequest{Content: dragonText, NovelID: "n1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCandidateSnapshot)
}

func TestScanCancellationReturnsNoPartialResult(t *testing.T) {
	f := newFixture(t)
	f.corpus.addChapter("c1", "n2", "Chapter One", dragonText)
	f.corpus.addChapter("c2", "n3", "Chapter Two", dragonText)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.corpus.onContent = func(ctx context.Context, chapterID string) error {
		cancel()
		return ctx.Err()
	}

	res, err := f.detector.Scan(ctx, ScanRequest{Content: dragonText, NovelID: "n1"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecideSuppressesContextOnlyMatch(t *testing.T) {
	in, cand, matches := decideFixture()
	s := scoring.Signals{FullSimilarity: 0.80, Coverage: 0.2, LiteralRate: 0, ContentWordOverlap: 0.1, PhraseMatches: 0}

	out := decide(s, matches, in, cand, scoring.DefaultConfig())
	assert.Nil(t, out.report)
	assert.Equal(t, skipContextOnly, out.skip)
}

func TestDecideKeepsRenamedParaphrase(t *testing.T) {
	in, cand, matches := decideFixture()
	s := scoring.Signals{FullSimilarity: 0.96, Coverage: 0.60, LiteralRate: 0.01}

	out := decide(s, matches, in, cand, scoring.DefaultConfig())
	require.NotNil(t, out.report)
	assert.Contains(t, []scoring.Verdict{scoring.VerdictRelated, scoring.VerdictClear}, out.report.Verdict)
	assert.Equal(t, 0.60, out.report.SemanticCoverage)
	require.Len(t, out.report.MatchedChunks, 1)
	assert.Equal(t, "first input chunk", out.report.MatchedChunks[0].InputText)
	assert.Equal(t, "first candidate chunk", out.report.MatchedChunks[0].CandidateText)
}

func TestDecideRequiresEvidence(t *testing.T) {
	in, cand, _ := decideFixture()
	s := scoring.Signals{FullSimilarity: 0.99, LiteralRate: 0.5}

	below := []scoring.ChunkMatch{{InputIndex: 0, CandidateIndex: 0, Similarity: 0.74}}
	out := decide(s, below, in, cand, scoring.DefaultConfig())
	assert.Equal(t, skipNoEvidence, out.skip)

	cand.chunkTexts[1] = ""
	emptyText := []scoring.ChunkMatch{{InputIndex: 1, CandidateIndex: 1, Similarity: 0.99}}
	out = decide(s, emptyText, in, cand, scoring.DefaultConfig())
	assert.Equal(t, skipNoEvidence, out.skip)
}

func TestDecideDropsVerdictNone(t *testing.T) {
	in, cand, matches := decideFixture()
	s := scoring.Signals{FullSimilarity: 0.80, Coverage: 0.9, ContentWordOverlap: 0.29, PhraseMatches: 1, LiteralRate: 0.03}

	out := decide(s, matches, in, cand, scoring.DefaultConfig())
	assert.Equal(t, skipVerdictNone, out.skip)
}

func decideFixture() (*inputProfile, *candidateProfile, []scoring.ChunkMatch) {
	in := &inputProfile{chunks: []textproc.Chunk{
		{Index: 0, Text: "first input chunk"},
		{Index: 1, Text: "second input chunk"},
	}}
	cand := &candidateProfile{
		record:     &entity.ChapterEmbedding{ChapterID: "c9", NovelID: "n9", Title: "Stolen"},
		novel:      &entity.Novel{ID: "n9", Title: "Other", Slug: "other"},
		chunkTexts: []string{"first candidate chunk", "second candidate chunk"},
	}
	matches := []scoring.ChunkMatch{
		{InputIndex: 0, CandidateIndex: 0, Similarity: 0.91},
		{InputIndex: 1, CandidateIndex: 1, Similarity: 0.40},
	}
	return in, cand, matches
}
