package dto

import (
	"time"

	"z-novel-similarity/internal/application/similarity"
	"z-novel-similarity/internal/domain/entity"
)

// ScanRequest 相似度扫描请求
type ScanRequest struct {
	Content string `json:"content"`
	NovelID string `json:"novel_id" binding:"required"`
}

// ScanResponse 相似度扫描响应
type ScanResponse struct {
	ScanID             string           `json:"scan_id"`
	InputContentLength int              `json:"input_content_length"`
	MatchCount         int              `json:"match_count"`
	Matches            []*MatchResponse `json:"matches"`
}

// MatchResponse 单个命中章节
type MatchResponse struct {
	ChapterID           string                   `json:"chapter_id"`
	ChapterTitle        string                   `json:"chapter_title"`
	ChapterSlug         string                   `json:"chapter_slug,omitempty"`
	NovelID             string                   `json:"novel_id"`
	NovelTitle          string                   `json:"novel_title"`
	NovelSlug           string                   `json:"novel_slug"`
	Verdict             string                   `json:"verdict"`
	FullSimilarity      float64                  `json:"full_similarity"`
	LiteralWeightedRate float64                  `json:"literal_weighted_rate"`
	ContentWordOverlap  float64                  `json:"content_word_overlap"`
	PhraseMatchCount    int                      `json:"phrase_match_count"`
	SemanticCoverage    float64                  `json:"semantic_coverage"`
	MatchedChunks       []*ChunkEvidenceResponse `json:"matched_chunks"`
}

// ChunkEvidenceResponse 分块证据
type ChunkEvidenceResponse struct {
	InputChunkIndex     int     `json:"input_chunk_index"`
	CandidateChunkIndex int     `json:"candidate_chunk_index"`
	Similarity          float64 `json:"similarity"`
	InputText           string  `json:"input_text"`
	CandidateText       string  `json:"candidate_text"`
}

// ToScanResponse 转换扫描结果
func ToScanResponse(r *similarity.ScanResult) *ScanResponse {
	if r == nil {
		return nil
	}
	resp := &ScanResponse{
		ScanID:             r.ScanID,
		InputContentLength: r.InputContentLength,
		MatchCount:         r.MatchCount,
		Matches:            make([]*MatchResponse, 0, len(r.Matches)),
	}
	for i := range r.Matches {
		resp.Matches = append(resp.Matches, toMatchResponse(&r.Matches[i]))
	}
	return resp
}

func toMatchResponse(m *similarity.Report) *MatchResponse {
	chunks := make([]*ChunkEvidenceResponse, 0, len(m.MatchedChunks))
	for _, ev := range m.MatchedChunks {
		chunks = append(chunks, &ChunkEvidenceResponse{
			InputChunkIndex:     ev.InputIndex,
			CandidateChunkIndex: ev.CandidateIndex,
			Similarity:          ev.Similarity,
			InputText:           ev.InputText,
			CandidateText:       ev.CandidateText,
		})
	}
	return &MatchResponse{
		ChapterID:           m.ChapterID,
		ChapterTitle:        m.ChapterTitle,
		ChapterSlug:         m.ChapterSlug,
		NovelID:             m.NovelID,
		NovelTitle:          m.NovelTitle,
		NovelSlug:           m.NovelSlug,
		Verdict:             string(m.Verdict),
		FullSimilarity:      m.FullSimilarity,
		LiteralWeightedRate: m.LiteralWeightedRate,
		ContentWordOverlap:  m.ContentWordOverlap,
		PhraseMatchCount:    m.PhraseMatchCount,
		SemanticCoverage:    m.SemanticCoverage,
		MatchedChunks:       chunks,
	}
}

// IndexRequest 章节索引请求
type IndexRequest struct {
	ChapterID string `json:"chapter_id" binding:"required"`
	NovelID   string `json:"novel_id"`
	// Async 为 true 时仅入队，由 worker 建立索引
	Async bool `json:"async"`
}

// IndexResponse 章节索引响应
type IndexResponse struct {
	ChapterID string `json:"chapter_id"`
	Status    string `json:"status"`
}

// ToIndexResponse 转换索引结果
func ToIndexResponse(r *similarity.IndexResult) *IndexResponse {
	if r == nil {
		return nil
	}
	return &IndexResponse{ChapterID: r.ChapterID, Status: r.Status}
}

// ScanRecordResponse 扫描审计记录
type ScanRecordResponse struct {
	ID                 string   `json:"id"`
	NovelID            string   `json:"novel_id"`
	InputContentLength int      `json:"input_content_length"`
	MatchCount         int      `json:"match_count"`
	ClearCount         int      `json:"clear_count"`
	RelatedCount       int      `json:"related_count"`
	MatchedChapterIDs  []string `json:"matched_chapter_ids"`
	MatchedNovelIDs    []string `json:"matched_novel_ids"`
	ScannedAt          string   `json:"scanned_at"`
}

// ScanRecordListResponse 扫描审计记录列表
type ScanRecordListResponse struct {
	Records []*ScanRecordResponse `json:"records"`
}

// ToScanRecordListResponse 转换审计记录列表
func ToScanRecordListResponse(records []*entity.ScanRecord) *ScanRecordListResponse {
	out := make([]*ScanRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, &ScanRecordResponse{
			ID:                 r.ID,
			NovelID:            r.NovelID,
			InputContentLength: r.InputContentLength,
			MatchCount:         r.MatchCount,
			ClearCount:         r.ClearCount,
			RelatedCount:       r.RelatedCount,
			MatchedChapterIDs:  []string(r.MatchedChapterIDs),
			MatchedNovelIDs:    []string(r.MatchedNovelIDs),
			ScannedAt:          r.ScannedAt.UTC().Format(time.RFC3339),
		})
	}
	return &ScanRecordListResponse{Records: out}
}
