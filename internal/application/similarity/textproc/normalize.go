// Package textproc 提供正文清洗、专有名词遮蔽、分词与分块
package textproc

import (
	"html"
	"regexp"
	"strings"
)

var (
	blockPattern = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)\s*>`)
	tagPattern   = regexp.MustCompile(`(?s)<!--.*?-->|</?[a-zA-Z][^>]*>|<[!?][^>]*>`)
)

// Normalize 去除标记、解码实体、合并空白
// 结果满足 Normalize(Normalize(x)) == Normalize(x)，空白输入返回 ""
// 每轮有变化时都会消去实体或标签，或只规整空白，迭代到不动点为止
func Normalize(raw string) string {
	s := raw
	for {
		next := normalizePass(s)
		if next == s {
			return next
		}
		s = next
	}
}

func normalizePass(s string) string {
	s = blockPattern.ReplaceAllString(s, " ")
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return collapseWhitespace(s)
}

// collapseWhitespace 将任意空白（含 U+00A0）合并为单个空格并去除首尾空白
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
