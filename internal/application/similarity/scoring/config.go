package scoring

// Config 评分阶段的全部阈值
type Config struct {
	ChunkThreshold   float64
	SmallInputTokens int
	Literal          LiteralConfig
	Guard            GuardThresholds
	Classifier       ClassifierThresholds
}

// DefaultConfig 返回默认阈值
func DefaultConfig() Config {
	return Config{
		ChunkThreshold:   0.75,
		SmallInputTokens: 400,
		Literal: LiteralConfig{
			PrimaryN:          8,
			SecondaryN:        6,
			SecondaryWeight:   0.5,
			PhraseN:           5,
			ContentWordMinLen: 5,
		},
		Guard: GuardThresholds{
			LiteralMax:     0.02,
			ContentMax:     0.30,
			PhraseMin:      2,
			BypassFull:     0.95,
			BypassCoverage: 0.55,
		},
		Classifier: ClassifierThresholds{
			SmallClearLiteral:    0.08,
			SmallClearPhrases:    2,
			SmallClearContent:    0.35,
			SmallRelatedLiteral:  0.04,
			SmallRelatedContent:  0.30,
			ClearLiteral:         0.15,
			ClearPhrases:         2,
			ClearPhraseFull:      0.75,
			ClearPhraseContent:   0.30,
			ClearSemanticFull:    0.93,
			ClearSemanticCover:   0.50,
			ClearSemanticLiteral: 0.08,
			ClearSemanticContent: 0.30,
			RelatedFull:          0.88,
			RelatedCoverage:      0.35,
			RelatedContent:       0.30,
		},
	}
}

// IsSmallInput 判断输入是否属于短文本
func (c Config) IsSmallInput(tokenCount int) bool {
	return tokenCount < c.SmallInputTokens
}
