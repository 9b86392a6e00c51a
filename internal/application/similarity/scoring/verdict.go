package scoring

// Verdict 候选章节的相似度分级
type Verdict string

const (
	VerdictNone    Verdict = "none"
	VerdictRelated Verdict = "related"
	VerdictClear   Verdict = "clear"
)

// Signals 分级所需的全部信号
type Signals struct {
	FullSimilarity     float64
	Coverage           float64
	LiteralRate        float64
	ContentWordOverlap float64
	PhraseMatches      int
	// SmallInput 输入（遮蔽后）词数低于阈值
	SmallInput bool
}

// GuardThresholds 语境误报过滤阈值
type GuardThresholds struct {
	LiteralMax     float64
	ContentMax     float64
	PhraseMin      int
	BypassFull     float64
	BypassCoverage float64
}

// ClassifierThresholds 分级阈值，按规则顺序求值，首个命中的规则生效
type ClassifierThresholds struct {
	SmallClearLiteral   float64
	SmallClearPhrases   int
	SmallClearContent   float64
	SmallRelatedLiteral float64
	SmallRelatedContent float64

	ClearLiteral         float64
	ClearPhrases         int
	ClearPhraseFull      float64
	ClearPhraseContent   float64
	ClearSemanticFull    float64
	ClearSemanticCover   float64
	ClearSemanticLiteral float64
	ClearSemanticContent float64
	RelatedFull          float64
	RelatedCoverage      float64
	RelatedContent       float64
}

// IsContextOnly 仅有语义相似、缺乏字面证据的候选视为同题材误报；
// 非短输入且整体与分块语义都极高时（改写/换名抄袭）不过滤
func IsContextOnly(s Signals, g GuardThresholds) bool {
	if !s.SmallInput && s.FullSimilarity >= g.BypassFull && s.Coverage >= g.BypassCoverage {
		return false
	}
	return s.LiteralRate <= g.LiteralMax &&
		s.ContentWordOverlap < g.ContentMax &&
		s.PhraseMatches < g.PhraseMin
}

// Classify 计算分级
func Classify(s Signals, t ClassifierThresholds) Verdict {
	if s.SmallInput {
		switch {
		case s.LiteralRate >= t.SmallClearLiteral,
			s.PhraseMatches >= t.SmallClearPhrases,
			s.ContentWordOverlap >= t.SmallClearContent:
			return VerdictClear
		case s.LiteralRate >= t.SmallRelatedLiteral,
			s.ContentWordOverlap >= t.SmallRelatedContent:
			return VerdictRelated
		default:
			return VerdictNone
		}
	}

	switch {
	case s.LiteralRate >= t.ClearLiteral:
		return VerdictClear
	case s.PhraseMatches >= t.ClearPhrases &&
		(s.FullSimilarity >= t.ClearPhraseFull || s.ContentWordOverlap >= t.ClearPhraseContent):
		return VerdictClear
	case s.FullSimilarity >= t.ClearSemanticFull && s.Coverage >= t.ClearSemanticCover &&
		(s.LiteralRate >= t.ClearSemanticLiteral || s.ContentWordOverlap >= t.ClearSemanticContent):
		return VerdictClear
	case s.FullSimilarity >= t.RelatedFull &&
		(s.Coverage >= t.RelatedCoverage || s.ContentWordOverlap >= t.RelatedContent):
		return VerdictRelated
	default:
		return VerdictNone
	}
}
