package scoring

import (
	"strings"
	"unicode/utf8"
)

// LiteralConfig 字面重合度参数
type LiteralConfig struct {
	PrimaryN          int
	SecondaryN        int
	SecondaryWeight   float64
	PhraseN           int
	ContentWordMinLen int
}

// LiteralResult 字面重合度分析结果
type LiteralResult struct {
	PrimaryRate        float64
	SecondaryRate      float64
	WeightedRate       float64
	ContentWordOverlap float64
	PhraseMatches      int
}

// AnalyzeLiteral 对两段已遮蔽、已分词的文本计算字面重合度
func AnalyzeLiteral(input, candidate []string, cfg LiteralConfig) LiteralResult {
	primary := ngramRate(input, candidate, cfg.PrimaryN)
	secondary := ngramRate(input, candidate, cfg.SecondaryN)

	return LiteralResult{
		PrimaryRate:        primary,
		SecondaryRate:      secondary,
		WeightedRate:       clamp01(primary + cfg.SecondaryWeight*secondary),
		ContentWordOverlap: contentWordOverlap(input, candidate, cfg.ContentWordMinLen),
		PhraseMatches:      phraseMatches(input, candidate, cfg.PhraseN),
	}
}

// ngramRate 输入中出现在候选 n-gram 集合里的 n-gram 占比，任一方不足 n 个词时为 0
func ngramRate(input, candidate []string, n int) float64 {
	if n <= 0 || len(input) < n || len(candidate) < n {
		return 0
	}
	set := ngramSet(candidate, n)
	total := len(input) - n + 1
	matched := 0
	for i := 0; i < total; i++ {
		if _, ok := set[ngramKey(input[i:i+n])]; ok {
			matched++
		}
	}
	return float64(matched) / float64(total)
}

// phraseMatches 输入侧按出现次数计数的共有 n-gram 数
func phraseMatches(input, candidate []string, n int) int {
	if n <= 0 || len(input) < n || len(candidate) < n {
		return 0
	}
	set := ngramSet(candidate, n)
	count := 0
	for i := 0; i+n <= len(input); i++ {
		if _, ok := set[ngramKey(input[i:i+n])]; ok {
			count++
		}
	}
	return count
}

// contentWordOverlap |A∩B| / max(1, min(|A|,|B|))，A、B 为长度不小于 minLen 的去重词集
func contentWordOverlap(input, candidate []string, minLen int) float64 {
	a := contentWords(input, minLen)
	b := contentWords(candidate, minLen)
	if len(a) > len(b) {
		a, b = b, a
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	denom := len(a)
	if denom < 1 {
		denom = 1
	}
	return float64(shared) / float64(denom)
}

func contentWords(tokens []string, minLen int) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range tokens {
		if utf8.RuneCountInString(t) >= minLen {
			set[t] = struct{}{}
		}
	}
	return set
}

func ngramSet(tokens []string, n int) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for i := 0; i+n <= len(tokens); i++ {
		set[ngramKey(tokens[i:i+n])] = struct{}{}
	}
	return set
}

// 分词结果只含字母数字，空格分隔不会产生歧义
func ngramKey(gram []string) string {
	return strings.Join(gram, " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
