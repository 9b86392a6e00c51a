package similarity

import (
	"z-novel-similarity/internal/application/similarity/scoring"
	"z-novel-similarity/internal/application/similarity/textproc"
	"z-novel-similarity/internal/domain/entity"
)

// skipReason 候选被跳过的原因，同时作为指标标签
type skipReason string

const (
	skipNone         skipReason = ""
	skipOwnNovel     skipReason = "own_novel"
	skipEarlyReject  skipReason = "early_reject"
	skipMissingData  skipReason = "missing_data"
	skipChunkFailure skipReason = "chunk_failure"
	skipContextOnly  skipReason = "context_only"
	skipVerdictNone  skipReason = "verdict_none"
	skipNoEvidence   skipReason = "no_evidence"
)

// outcomeMatched 命中的候选在指标中的标签
const outcomeMatched = "matched"

// candidateOutcome 单个候选的评估结果：report 与 skip 二者恰有其一
type candidateOutcome struct {
	report *Report
	skip   skipReason
}

func skipped(reason skipReason) candidateOutcome {
	return candidateOutcome{skip: reason}
}

func (o candidateOutcome) label() string {
	if o.report != nil {
		return outcomeMatched
	}
	return string(o.skip)
}

// inputProfile 输入文本在扫描期间只读的派生数据
type inputProfile struct {
	normalized   string
	fullVector   []float32
	chunks       []textproc.Chunk
	chunkVectors [][]float32
	tokens       []string
	small        bool
}

// candidateProfile 通过早筛并完成数据加载的候选
type candidateProfile struct {
	record         *entity.ChapterEmbedding
	novel          *entity.Novel
	fullSimilarity float64
	tokens         []string
	chunkTexts     []string
	chunkVectors   [][]float32
}

// scoreCandidate 计算信号并给出结论，不做任何 I/O
func scoreCandidate(in *inputProfile, cand *candidateProfile, cfg scoring.Config) candidateOutcome {
	coverage := scoring.Coverage(in.chunkVectors, cand.chunkVectors, cfg.ChunkThreshold)
	literal := scoring.AnalyzeLiteral(in.tokens, cand.tokens, cfg.Literal)

	signals := scoring.Signals{
		FullSimilarity:     cand.fullSimilarity,
		Coverage:           coverage.Coverage,
		LiteralRate:        literal.WeightedRate,
		ContentWordOverlap: literal.ContentWordOverlap,
		PhraseMatches:      literal.PhraseMatches,
		SmallInput:         in.small,
	}
	return decide(signals, coverage.Matches, in, cand, cfg)
}

// decide 依次执行语境过滤、分级与证据筛选
func decide(s scoring.Signals, matches []scoring.ChunkMatch, in *inputProfile, cand *candidateProfile, cfg scoring.Config) candidateOutcome {
	if scoring.IsContextOnly(s, cfg.Guard) {
		return skipped(skipContextOnly)
	}

	verdict := scoring.Classify(s, cfg.Classifier)
	if verdict == scoring.VerdictNone {
		return skipped(skipVerdictNone)
	}

	evidence := collectEvidence(matches, in, cand, cfg.ChunkThreshold)
	if len(evidence) == 0 {
		return skipped(skipNoEvidence)
	}

	return candidateOutcome{report: &Report{
		ChapterID:           cand.record.ChapterID,
		ChapterTitle:        cand.record.Title,
		ChapterSlug:         cand.record.Slug,
		NovelID:             cand.record.NovelID,
		NovelTitle:          cand.novel.Title,
		NovelSlug:           cand.novel.Slug,
		FullSimilarity:      s.FullSimilarity,
		Verdict:             verdict,
		LiteralWeightedRate: s.LiteralRate,
		ContentWordOverlap:  s.ContentWordOverlap,
		PhraseMatchCount:    s.PhraseMatches,
		SemanticCoverage:    s.Coverage,
		MatchedChunks:       evidence,
	}}
}

// collectEvidence 保留达到阈值且两侧文本均非空的分块匹配，顺序与输入分块一致
func collectEvidence(matches []scoring.ChunkMatch, in *inputProfile, cand *candidateProfile, threshold float64) []Evidence {
	var evidence []Evidence
	for _, m := range matches {
		if m.CandidateIndex < 0 || m.Similarity < threshold {
			continue
		}
		if m.InputIndex >= len(in.chunks) || m.CandidateIndex >= len(cand.chunkTexts) {
			continue
		}
		inputText := in.chunks[m.InputIndex].Text
		candidateText := cand.chunkTexts[m.CandidateIndex]
		if inputText == "" || candidateText == "" {
			continue
		}
		evidence = append(evidence, Evidence{
			ChunkMatch:    m,
			InputText:     inputText,
			CandidateText: candidateText,
		})
	}
	return evidence
}
