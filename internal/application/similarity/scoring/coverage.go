package scoring

// ChunkMatch 单个输入分块与候选章节中最相近分块的匹配
// CandidateIndex 为 -1 表示候选章节没有分块
type ChunkMatch struct {
	InputIndex     int     `json:"input_chunk_index"`
	CandidateIndex int     `json:"candidate_chunk_index"`
	Similarity     float64 `json:"similarity"`
}

// CoverageResult 分块覆盖分析结果，Matches 按输入分块顺序排列
type CoverageResult struct {
	Matches  []ChunkMatch
	Hits     int
	Coverage float64
}

// Coverage 为每个输入分块找到最相近的候选分块（并列时取最先出现者），
// 相似度不低于 threshold 记为命中，覆盖率 = 命中数 / 输入分块数
func Coverage(input, candidate [][]float32, threshold float64) CoverageResult {
	res := CoverageResult{Matches: make([]ChunkMatch, len(input))}
	if len(input) == 0 {
		return res
	}

	for i, in := range input {
		best := ChunkMatch{InputIndex: i, CandidateIndex: -1}
		for j, cand := range candidate {
			score := Cosine(in, cand)
			if best.CandidateIndex < 0 || score > best.Similarity {
				best.CandidateIndex = j
				best.Similarity = score
			}
		}
		res.Matches[i] = best
		if best.CandidateIndex >= 0 && best.Similarity >= threshold {
			res.Hits++
		}
	}
	res.Coverage = float64(res.Hits) / float64(len(input))
	return res
}
