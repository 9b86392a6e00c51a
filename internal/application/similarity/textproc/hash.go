package textproc

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash 计算规范化正文的 SHA-256，用于判定分块缓存是否过期
func ContentHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
