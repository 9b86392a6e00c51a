// Package similarity 实现跨作品章节相似度（抄袭）检测
package similarity

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"z-novel-similarity/internal/application/similarity/scoring"
	"z-novel-similarity/internal/application/similarity/textproc"
	"z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/pkg/logger"
	"z-novel-similarity/pkg/metrics"
	"z-novel-similarity/pkg/tracer"
)

// Detector 扫描编排器
type Detector struct {
	embedder   Embedder
	candidates CandidateSource
	contents   ContentSource
	novels     NovelSource
	chunks     ChunkStore
	publisher  ScanPublisher

	cfg Config

	// 同一进程内对同一章节的分块计算只执行一次
	chunkFlight singleflight.Group
}

// NewDetector 创建扫描编排器，publisher 可为 nil
func NewDetector(
	embedder Embedder,
	candidates CandidateSource,
	contents ContentSource,
	novels NovelSource,
	chunks ChunkStore,
	publisher ScanPublisher,
	cfg Config,
) *Detector {
	return &Detector{
		embedder:   embedder,
		candidates: candidates,
		contents:   contents,
		novels:     novels,
		chunks:     chunks,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Scan 对提交的正文执行一次全库扫描
// 仅输入向量化失败、候选快照读取失败或请求取消时返回错误，单个候选的问题只会使其被跳过
func (d *Detector) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	start := time.Now()
	scanID := uuid.NewString()
	ctx = logger.WithContext(ctx, logger.ScanIDKey, scanID)
	ctx = logger.WithContext(ctx, logger.NovelIDKey, req.NovelID)

	ctx, span := tracer.Start(ctx, "similarity.Detector.Scan")
	defer span.End()
	span.SetAttributes(attribute.String("scan.id", scanID), attribute.String("novel.id", req.NovelID))

	result, err := d.scan(ctx, scanID, req)
	metrics.SimilarityScanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		tracer.RecordError(span, err)
		metrics.SimilarityScanTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.SimilarityScanTotal.WithLabelValues("succeeded").Inc()
	span.SetAttributes(attribute.Int("scan.match_count", result.MatchCount))
	logger.Info(ctx, "similarity scan finished",
		"input_length", result.InputContentLength,
		"match_count", result.MatchCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if d.publisher != nil && result.MatchCount > 0 {
		if err := d.publisher.PublishScanCompleted(ctx, req.NovelID, result); err != nil {
			logger.Error(ctx, "failed to publish scan completed event", err)
		}
	}
	return result, nil
}

func (d *Detector) scan(ctx context.Context, scanID string, req ScanRequest) (*ScanResult, error) {
	normalized := textproc.Normalize(req.Content)
	if normalized == "" {
		return &ScanResult{ScanID: scanID, Matches: []Report{}}, nil
	}

	in, err := d.prepareInput(ctx, normalized)
	if err != nil {
		return nil, err
	}

	snapshot, err := d.candidates.ListChapterEmbeddings(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scan canceled: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrCandidateSnapshot, err)
	}

	outcomes := make([]candidateOutcome, len(snapshot))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.workers())
	for i, cand := range snapshot {
		if cand == nil {
			outcomes[i] = skipped(skipMissingData)
			continue
		}
		if cand.NovelID == req.NovelID {
			outcomes[i] = skipped(skipOwnNovel)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = d.evaluateCandidate(gctx, in, cand)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan canceled: %w", err)
	}
	// 评估过程中的取消会表现为候选被跳过，这里统一判定，避免返回不完整的结果
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan canceled: %w", err)
	}

	matches := make([]Report, 0)
	for _, o := range outcomes {
		metrics.SimilarityCandidatesTotal.WithLabelValues(o.label()).Inc()
		if o.report == nil {
			continue
		}
		metrics.SimilarityVerdictTotal.WithLabelValues(string(o.report.Verdict)).Inc()
		matches = append(matches, *o.report)
	}

	return &ScanResult{
		ScanID:             scanID,
		InputContentLength: utf8.RuneCountInString(normalized),
		MatchCount:         len(matches),
		Matches:            matches,
	}, nil
}

// prepareInput 分块并以一次调用完成整篇与全部分块的向量化
func (d *Detector) prepareInput(ctx context.Context, normalized string) (*inputProfile, error) {
	chunks := textproc.ChunkWords(normalized, d.cfg.ChunkSizeWords)
	metrics.SimilarityInputChunks.Observe(float64(len(chunks)))

	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, normalized)
	texts = append(texts, textproc.Texts(chunks)...)

	vectors, err := d.embedder.Embed(ctx, texts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("scan canceled: %w", ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: %w: got %d vectors for %d texts", ErrProviderFailure, ErrEmbeddingMismatch, len(vectors), len(texts))
	}

	tokens := textproc.LiteralTokens(normalized)
	return &inputProfile{
		normalized:   normalized,
		fullVector:   vectors[0],
		chunks:       chunks,
		chunkVectors: vectors[1:],
		tokens:       tokens,
		small:        d.cfg.Scoring.IsSmallInput(len(tokens)),
	}, nil
}

// evaluateCandidate 早筛、加载候选数据、解析分块向量后交由 scoreCandidate 评分
func (d *Detector) evaluateCandidate(ctx context.Context, in *inputProfile, rec *entity.ChapterEmbedding) candidateOutcome {
	full := scoring.Cosine(in.fullVector, rec.Embedding())
	if full < d.cfg.EarlyRejectThreshold {
		return skipped(skipEarlyReject)
	}

	ctx = logger.WithContext(ctx, logger.ChapterIDKey, rec.ChapterID)
	ctx, span := tracer.Start(ctx, "similarity.Detector.evaluateCandidate")
	defer span.End()
	span.SetAttributes(attribute.String("chapter.id", rec.ChapterID), attribute.Float64("similarity.full", full))

	raw, err := d.contents.GetChapterRawContent(ctx, rec.ChapterID)
	if err != nil {
		logger.Warn(ctx, "skip candidate: failed to load content", "error", err.Error())
		return skipped(skipMissingData)
	}
	normalized := textproc.Normalize(raw)
	if normalized == "" {
		logger.Debug(ctx, "skip candidate: empty content")
		return skipped(skipMissingData)
	}

	novel, err := d.novels.GetNovelMetadata(ctx, rec.NovelID)
	if err != nil || novel == nil {
		if err != nil {
			logger.Warn(ctx, "skip candidate: failed to load novel metadata", "error", err.Error())
		}
		return skipped(skipMissingData)
	}

	texts, vectors, err := d.resolveChunks(ctx, rec, normalized)
	if err != nil {
		tracer.RecordError(span, err)
		logger.Warn(ctx, "skip candidate: chunk embeddings unavailable", "error", err.Error())
		return skipped(skipChunkFailure)
	}

	outcome := scoreCandidate(in, &candidateProfile{
		record:         rec,
		novel:          novel,
		fullSimilarity: full,
		tokens:         textproc.LiteralTokens(normalized),
		chunkTexts:     texts,
		chunkVectors:   vectors,
	}, d.cfg.Scoring)
	span.SetAttributes(attribute.String("similarity.outcome", outcome.label()))
	return outcome
}

type resolvedChunks struct {
	texts   []string
	vectors [][]float32
}

// resolveChunks 读取分块缓存；缓存缺失或与当前正文不一致时重新分块、向量化并写回
func (d *Detector) resolveChunks(ctx context.Context, rec *entity.ChapterEmbedding, normalized string) ([]string, [][]float32, error) {
	hash := textproc.ContentHash(normalized)

	// 共享计算不受单个请求取消影响，调用方仍可随请求取消提前返回
	ch := d.chunkFlight.DoChan(rec.ChapterID+":"+hash, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		rows, err := d.chunks.GetChunks(ctx, rec.ChapterID)
		if err != nil {
			return nil, fmt.Errorf("failed to get chunks: %w", err)
		}
		if chunksFresh(rows, hash) {
			metrics.ChunkCacheRequests.WithLabelValues("detector", "hit").Inc()
			out := &resolvedChunks{
				texts:   make([]string, len(rows)),
				vectors: make([][]float32, len(rows)),
			}
			for i, row := range rows {
				out.texts[i] = row.ChunkText
				out.vectors[i] = row.Embedding()
			}
			return out, nil
		}
		if len(rows) == 0 {
			metrics.ChunkCacheRequests.WithLabelValues("detector", "miss").Inc()
		} else {
			metrics.ChunkCacheRequests.WithLabelValues("detector", "stale").Inc()
		}

		chunks := textproc.ChunkWords(normalized, d.cfg.ChunkSizeWords)
		texts := textproc.Texts(chunks)
		vectors, err := d.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingMismatch, len(vectors), len(texts))
		}
		if err := d.chunks.SaveChunks(ctx, rec.ChapterID, rec.NovelID, hash, texts, vectors); err != nil {
			return nil, fmt.Errorf("failed to save chunks: %w", err)
		}
		return &resolvedChunks{texts: texts, vectors: vectors}, nil
	})

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, nil, res.Err
		}
		r := res.Val.(*resolvedChunks)
		return r.texts, r.vectors, nil
	}
}

// chunksFresh 分块非空、索引连续且均由当前正文生成；旧数据未记录哈希时视为有效
func chunksFresh(rows []*entity.ChunkEmbedding, hash string) bool {
	if len(rows) == 0 {
		return false
	}
	for i, row := range rows {
		if row.ChunkIndex != i {
			return false
		}
		if row.ContentHash != "" && row.ContentHash != hash {
			return false
		}
	}
	return true
}
