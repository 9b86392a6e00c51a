package textproc

import (
	"strings"
	"unicode"
)

// ProperNounPlaceholder 替换专有名词串的占位词
const ProperNounPlaceholder = "PROPERNOUN"

// MaskProperNouns 将连续两个及以上首字母大写的词替换为单个占位词
// 仅供字面重合度计算使用，分块与向量化使用未遮蔽文本
func MaskProperNouns(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		j := i
		for j < len(words) && isCapitalized(words[j]) {
			j++
		}
		if j-i >= 2 {
			out = append(out, ProperNounPlaceholder)
			i = j
			continue
		}
		out = append(out, words[i])
		i++
	}
	return strings.Join(out, " ")
}

// isCapitalized 跳过开头的引号、括号等符号后，首个字母为大写
func isCapitalized(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r) || unicode.IsTitle(r)
		}
		if unicode.IsDigit(r) {
			return false
		}
	}
	return false
}
