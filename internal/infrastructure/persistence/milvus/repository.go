package milvus

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domain "z-novel-similarity/internal/domain/entity"
	"z-novel-similarity/pkg/metrics"
)

const defaultQueryBatch = 1000

// ChapterTitleSource 为 Milvus 中的向量补充章节标题与 slug
type ChapterTitleSource interface {
	GetTitles(ctx context.Context, chapterIDs []string) (map[string]*domain.Chapter, error)
}

// Repository 章节向量存储（Milvus 后端）
type Repository struct {
	client    *Client
	titles    ChapterTitleSource
	dimension int
}

// NewRepository 创建章节向量存储
func NewRepository(client *Client, titles ChapterTitleSource, dimension int) *Repository {
	return &Repository{client: client, titles: titles, dimension: dimension}
}

// EnsureCollection 确保集合与索引可用，不存在则创建，不做破坏性操作
func (r *Repository) EnsureCollection(ctx context.Context) error {
	exists, err := r.client.HasCollection(ctx, CollectionChapterEmbeddings)
	if err != nil {
		return err
	}
	if !exists {
		if err := r.createCollection(ctx); err != nil {
			return err
		}
		if err := r.createIndex(ctx); err != nil {
			return err
		}
	}
	return r.client.LoadCollection(ctx, CollectionChapterEmbeddings)
}

func (r *Repository) createCollection(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection")
	defer span.End()

	schema := ChapterEmbeddingsSchema(r.dimension)
	schema.CollectionName = r.client.CollectionName(CollectionChapterEmbeddings)

	if err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (r *Repository) createIndex(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex")
	defer span.End()

	idx, err := entity.NewIndexHNSW(entity.COSINE, r.client.config.HNSWM, r.client.config.HNSWEfConstruction)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to build index params: %w", err)
	}

	collName := r.client.CollectionName(CollectionChapterEmbeddings)
	if err := r.client.milvus.CreateIndex(ctx, collName, fieldVector, idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// ListChapterEmbeddings 按主键分页读取全部章节向量，并补齐章节标题
// 结果按 (novel_id, seq_num, chapter_id) 排序，与 Postgres 后端的快照顺序一致
func (r *Repository) ListChapterEmbeddings(ctx context.Context) ([]*domain.ChapterEmbedding, error) {
	ctx, span := tracer.Start(ctx, "milvus.ListChapterEmbeddings")
	defer span.End()

	batch := r.client.config.QueryBatchSize
	if batch <= 0 {
		batch = defaultQueryBatch
	}

	collName := r.client.CollectionName(CollectionChapterEmbeddings)
	var rows []*domain.ChapterEmbedding
	cursor := ""
	for {
		page, err := r.query(ctx, collName, fmt.Sprintf("%s > %s", fieldChapterID, strconv.Quote(cursor)), batch)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		rows = append(rows, page...)
		if len(page) < batch {
			break
		}
		cursor = maxChapterID(page)
	}

	if err := r.attachTitles(ctx, rows); err != nil {
		span.RecordError(err)
		return nil, err
	}

	sortSnapshot(rows)

	span.SetAttributes(attribute.Int("result_count", len(rows)))
	return rows, nil
}

// GetByChapterID 获取单个章节向量，不存在时返回 nil, nil
func (r *Repository) GetByChapterID(ctx context.Context, chapterID string) (*domain.ChapterEmbedding, error) {
	ctx, span := tracer.Start(ctx, "milvus.GetByChapterID",
		trace.WithAttributes(attribute.String("chapter_id", chapterID)))
	defer span.End()

	collName := r.client.CollectionName(CollectionChapterEmbeddings)
	rows, err := r.query(ctx, collName, fmt.Sprintf("%s == %s", fieldChapterID, strconv.Quote(chapterID)), 1)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Upsert 写入或覆盖章节向量
func (r *Repository) Upsert(ctx context.Context, e *domain.ChapterEmbedding) error {
	ctx, span := tracer.Start(ctx, "milvus.Upsert",
		trace.WithAttributes(attribute.String("chapter_id", e.ChapterID)))
	defer span.End()

	vector := e.Embedding()
	if r.dimension > 0 && len(vector) != r.dimension {
		return fmt.Errorf("embedding dimension %d does not match collection dimension %d", len(vector), r.dimension)
	}

	collName := r.client.CollectionName(CollectionChapterEmbeddings)
	start := time.Now()
	_, err := r.client.milvus.Upsert(ctx, collName, "",
		entity.NewColumnVarChar(fieldChapterID, []string{e.ChapterID}),
		entity.NewColumnVarChar(fieldNovelID, []string{e.NovelID}),
		entity.NewColumnVarChar(fieldContentHash, []string{e.ContentHash}),
		entity.NewColumnVarChar(fieldModel, []string{e.Model}),
		entity.NewColumnFloatVector(fieldVector, len(vector), [][]float32{vector}),
	)
	observe(collName, "upsert", start, err)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert chapter embedding: %w", err)
	}
	return nil
}

// Delete 删除章节向量
func (r *Repository) Delete(ctx context.Context, chapterID string) error {
	ctx, span := tracer.Start(ctx, "milvus.Delete",
		trace.WithAttributes(attribute.String("chapter_id", chapterID)))
	defer span.End()

	collName := r.client.CollectionName(CollectionChapterEmbeddings)
	start := time.Now()
	err := r.client.milvus.Delete(ctx, collName, "", fmt.Sprintf("%s == %s", fieldChapterID, strconv.Quote(chapterID)))
	observe(collName, "delete", start, err)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chapter embedding: %w", err)
	}
	return nil
}

func (r *Repository) query(ctx context.Context, collName, expr string, limit int) ([]*domain.ChapterEmbedding, error) {
	start := time.Now()
	rs, err := r.client.milvus.Query(ctx, collName, nil, expr, outputFields, client.WithLimit(int64(limit)))
	observe(collName, "query", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapter embeddings: %w", err)
	}
	return decodeResultSet(rs)
}

func (r *Repository) attachTitles(ctx context.Context, rows []*domain.ChapterEmbedding) error {
	if r.titles == nil || len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ChapterID
	}
	chapters, err := r.titles.GetTitles(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load chapter titles: %w", err)
	}
	for _, row := range rows {
		if ch, ok := chapters[row.ChapterID]; ok {
			row.Title = ch.Title
			row.Slug = ch.Slug
			row.SeqNum = ch.SeqNum
		}
	}
	return nil
}

func sortSnapshot(rows []*domain.ChapterEmbedding) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].NovelID != rows[j].NovelID {
			return rows[i].NovelID < rows[j].NovelID
		}
		if rows[i].SeqNum != rows[j].SeqNum {
			return rows[i].SeqNum < rows[j].SeqNum
		}
		return rows[i].ChapterID < rows[j].ChapterID
	})
}

func decodeResultSet(rs client.ResultSet) ([]*domain.ChapterEmbedding, error) {
	ids, ok := rs.GetColumn(fieldChapterID).(*entity.ColumnVarChar)
	if !ok {
		if rs.Len() == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("milvus result missing %s column", fieldChapterID)
	}
	vectors, ok := rs.GetColumn(fieldVector).(*entity.ColumnFloatVector)
	if !ok {
		return nil, fmt.Errorf("milvus result missing %s column", fieldVector)
	}
	novels, _ := rs.GetColumn(fieldNovelID).(*entity.ColumnVarChar)
	hashes, _ := rs.GetColumn(fieldContentHash).(*entity.ColumnVarChar)
	models, _ := rs.GetColumn(fieldModel).(*entity.ColumnVarChar)

	out := make([]*domain.ChapterEmbedding, 0, ids.Len())
	for i, id := range ids.Data() {
		e := domain.NewChapterEmbedding(id, valueAt(novels, i), vectors.Data()[i], valueAt(hashes, i), valueAt(models, i))
		out = append(out, e)
	}
	return out, nil
}

func valueAt(col *entity.ColumnVarChar, i int) string {
	if col == nil || i >= col.Len() {
		return ""
	}
	return col.Data()[i]
}

func maxChapterID(rows []*domain.ChapterEmbedding) string {
	max := ""
	for _, row := range rows {
		if row.ChapterID > max {
			max = row.ChapterID
		}
	}
	return max
}

func observe(collection, op string, start time.Time, err error) {
	metrics.MilvusQueryDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.MilvusQueryTotal.WithLabelValues(collection, op, status).Inc()
}
