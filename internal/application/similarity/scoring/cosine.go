// Package scoring 提供相似度评分的纯函数：余弦、分块覆盖、字面重合、语境过滤与分级
package scoring

import "math"

// Cosine 计算余弦相似度，长度不一致或零向量返回 0
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
