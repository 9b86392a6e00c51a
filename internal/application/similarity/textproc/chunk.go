package textproc

import "strings"

// DefaultChunkWords 默认分块词数
const DefaultChunkWords = 200

// Chunk 正文分块，Index 即在章节内的顺序
type Chunk struct {
	Index int
	Text  string
}

// ChunkWords 将文本切分为互不重叠、每块至多 size 个词的分块
func ChunkWords(text string, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkWords
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  strings.Join(words[start:end], " "),
		})
	}
	return chunks
}

// Texts 返回分块文本，顺序与 Index 一致
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
