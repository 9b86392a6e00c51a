package similarity

import (
	"z-novel-similarity/internal/application/similarity/scoring"
)

// ScanRequest 扫描请求，Content 允许包含 HTML 标记
type ScanRequest struct {
	Content string
	NovelID string
}

// ScanResult 扫描结果，Matches 按候选快照顺序排列
type ScanResult struct {
	ScanID             string   `json:"scan_id"`
	InputContentLength int      `json:"input_content_length"`
	MatchCount         int      `json:"match_count"`
	Matches            []Report `json:"matches"`
}

// Report 单个候选章节的相似度报告
type Report struct {
	ChapterID           string          `json:"chapter_id"`
	ChapterTitle        string          `json:"chapter_title"`
	ChapterSlug         string          `json:"chapter_slug,omitempty"`
	NovelID             string          `json:"novel_id"`
	NovelTitle          string          `json:"novel_title"`
	NovelSlug           string          `json:"novel_slug"`
	FullSimilarity      float64         `json:"full_similarity"`
	Verdict             scoring.Verdict `json:"verdict"`
	LiteralWeightedRate float64         `json:"literal_weighted_rate"`
	ContentWordOverlap  float64         `json:"content_word_overlap"`
	PhraseMatchCount    int             `json:"phrase_match_count"`
	SemanticCoverage    float64         `json:"semantic_coverage"`
	MatchedChunks       []Evidence      `json:"matched_chunks"`
}

// Evidence 作为证据的分块匹配
type Evidence struct {
	scoring.ChunkMatch
	InputText     string `json:"input_text"`
	CandidateText string `json:"candidate_text"`
}
