package textproc

import (
	"strings"
	"unicode"
)

// Tokenize 按空白切分，转小写并剔除非字母数字字符，丢弃空词
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))

	var b strings.Builder
	for _, f := range fields {
		b.Reset()
		for _, r := range f {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToLower(r))
			}
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
		}
	}
	return tokens
}

// LiteralTokens 遮蔽专有名词后分词，字面比对统一使用该入口
func LiteralTokens(normalized string) []string {
	return Tokenize(MaskProperNouns(normalized))
}
