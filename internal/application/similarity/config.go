package similarity

import (
	"z-novel-similarity/internal/application/similarity/scoring"
	"z-novel-similarity/internal/config"
)

// Config 检测器配置，所有阈值集中于此并在构造时注入
type Config struct {
	ChunkSizeWords       int
	EarlyRejectThreshold float64
	Workers              int
	Scoring              scoring.Config
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ChunkSizeWords:       200,
		EarlyRejectThreshold: 0.75,
		Workers:              4,
		Scoring:              scoring.DefaultConfig(),
	}
}

// ConfigFromSettings 由应用配置构造检测器配置
func ConfigFromSettings(s *config.SimilarityConfig) Config {
	c := s.Classifier
	g := s.Guard
	return Config{
		ChunkSizeWords:       s.ChunkSizeWords,
		EarlyRejectThreshold: s.EarlyRejectThreshold,
		Workers:              s.Workers,
		Scoring: scoring.Config{
			ChunkThreshold:   s.ChunkSimilarityThreshold,
			SmallInputTokens: s.SmallInputTokens,
			Literal: scoring.LiteralConfig{
				PrimaryN:          s.PrimaryNGram,
				SecondaryN:        s.SecondaryNGram,
				SecondaryWeight:   s.SecondaryWeight,
				PhraseN:           s.PhraseNGram,
				ContentWordMinLen: s.ContentWordMinLen,
			},
			Guard: scoring.GuardThresholds{
				LiteralMax:     g.LiteralMax,
				ContentMax:     g.ContentMax,
				PhraseMin:      g.PhraseMin,
				BypassFull:     g.BypassFull,
				BypassCoverage: g.BypassCoverage,
			},
			Classifier: scoring.ClassifierThresholds{
				SmallClearLiteral:    c.SmallClearLiteral,
				SmallClearPhrases:    c.SmallClearPhrases,
				SmallClearContent:    c.SmallClearContent,
				SmallRelatedLiteral:  c.SmallRelatedLiteral,
				SmallRelatedContent:  c.SmallRelatedContent,
				ClearLiteral:         c.ClearLiteral,
				ClearPhrases:         c.ClearPhrases,
				ClearPhraseFull:      c.ClearPhraseFull,
				ClearPhraseContent:   c.ClearPhraseContent,
				ClearSemanticFull:    c.ClearSemanticFull,
				ClearSemanticCover:   c.ClearSemanticCover,
				ClearSemanticLiteral: c.ClearSemanticLiteral,
				ClearSemanticContent: c.ClearSemanticContent,
				RelatedFull:          c.RelatedFull,
				RelatedCoverage:      c.RelatedCoverage,
				RelatedContent:       c.RelatedContent,
			},
		},
	}
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return 1
	}
	return c.Workers
}
