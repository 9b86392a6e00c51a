// Package config 提供配置加载功能
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// envPattern 匹配 ${VAR} 或 ${VAR:default}
// g1: 变量名, g2: 默认值部分（含冒号）, g3: 默认值内容
var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 从 configs 目录加载配置
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	return LoadFromDir("configs")
}

// LoadFromDir 从指定目录加载 config.yaml 与 config.<APP_ENV>.yaml
func LoadFromDir(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 加载默认配置
	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), false); err != nil {
		return nil, err
	}

	// 2. 加载环境特定配置
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	// 3. 绑定环境变量 (直接覆盖)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值 (兜底)
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		// 手动标记已加载文件，防止后续 ReadInConfig 报错
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符，未定义且无默认值的变量保留原样
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPattern.FindStringSubmatch(match)
		key := submatch[1]
		hasDefault := submatch[2] != ""
		defVal := submatch[3]

		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		if hasDefault {
			return defVal
		}
		return match
	})
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	switch c.Vector.Backend {
	case "postgres", "milvus":
	default:
		return fmt.Errorf("invalid vector.backend %q: want postgres or milvus", c.Vector.Backend)
	}
	switch c.Embedding.Provider {
	case "openai", "http":
	default:
		return fmt.Errorf("invalid embedding.provider %q: want openai or http", c.Embedding.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive")
	}
	s := c.Similarity
	if s.ChunkSizeWords <= 0 || s.Workers <= 0 {
		return fmt.Errorf("similarity.chunk_size_words and similarity.workers must be positive")
	}
	if s.PrimaryNGram <= 0 || s.SecondaryNGram <= 0 || s.PhraseNGram <= 0 {
		return fmt.Errorf("similarity n-gram sizes must be positive")
	}
	return nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	// 应用默认值
	v.SetDefault("app.name", "z-novel-similarity")
	v.SetDefault("app.version", "v0.0.0")
	v.SetDefault("app.env", "development")

	// HTTP 服务器默认值
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "120s")
	v.SetDefault("server.http.idle_timeout", "120s")
	v.SetDefault("server.http.scan_timeout", "90s")
	v.SetDefault("server.http.max_body_bytes", 4<<20)

	// 数据库默认值
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "z_novel")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 50)
	v.SetDefault("database.postgres.max_idle_conns", 10)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")
	v.SetDefault("database.postgres.slow_threshold", "500ms")

	// Redis 默认值
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 100)
	v.SetDefault("cache.redis.min_idle_conns", 10)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")
	v.SetDefault("cache.chunk_ttl", "24h")
	v.SetDefault("cache.novel_ttl", "10m")

	// 向量存储默认值
	v.SetDefault("vector.backend", "postgres")
	v.SetDefault("vector.milvus.host", "localhost")
	v.SetDefault("vector.milvus.port", 19530)
	v.SetDefault("vector.milvus.user", "")
	v.SetDefault("vector.milvus.password", "")
	v.SetDefault("vector.milvus.collection_prefix", "z_novel")
	v.SetDefault("vector.milvus.hnsw_m", 16)
	v.SetDefault("vector.milvus.hnsw_ef_construction", 200)
	v.SetDefault("vector.milvus.query_batch_size", 1000)

	// Embedding 默认值
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimension", 1536)
	v.SetDefault("embedding.batch_size", 64)
	v.SetDefault("embedding.endpoint", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.timeout", "60s")

	// 相似度默认值
	v.SetDefault("similarity.chunk_size_words", 200)
	v.SetDefault("similarity.chunk_similarity_threshold", 0.75)
	v.SetDefault("similarity.early_reject_threshold", 0.75)
	v.SetDefault("similarity.primary_ngram", 8)
	v.SetDefault("similarity.secondary_ngram", 6)
	v.SetDefault("similarity.secondary_weight", 0.5)
	v.SetDefault("similarity.phrase_ngram", 5)
	v.SetDefault("similarity.content_word_min_len", 5)
	v.SetDefault("similarity.small_input_tokens", 400)
	v.SetDefault("similarity.workers", 4)

	v.SetDefault("similarity.guard.literal_max", 0.02)
	v.SetDefault("similarity.guard.content_max", 0.30)
	v.SetDefault("similarity.guard.phrase_min", 2)
	v.SetDefault("similarity.guard.bypass_full", 0.95)
	v.SetDefault("similarity.guard.bypass_coverage", 0.55)

	v.SetDefault("similarity.classifier.small_clear_literal", 0.08)
	v.SetDefault("similarity.classifier.small_clear_phrases", 2)
	v.SetDefault("similarity.classifier.small_clear_content", 0.35)
	v.SetDefault("similarity.classifier.small_related_literal", 0.04)
	v.SetDefault("similarity.classifier.small_related_content", 0.30)
	v.SetDefault("similarity.classifier.clear_literal", 0.15)
	v.SetDefault("similarity.classifier.clear_phrases", 2)
	v.SetDefault("similarity.classifier.clear_phrase_full", 0.75)
	v.SetDefault("similarity.classifier.clear_phrase_content", 0.30)
	v.SetDefault("similarity.classifier.clear_semantic_full", 0.93)
	v.SetDefault("similarity.classifier.clear_semantic_coverage", 0.50)
	v.SetDefault("similarity.classifier.clear_semantic_literal", 0.08)
	v.SetDefault("similarity.classifier.clear_semantic_content", 0.30)
	v.SetDefault("similarity.classifier.related_full", 0.88)
	v.SetDefault("similarity.classifier.related_coverage", 0.35)
	v.SetDefault("similarity.classifier.related_content", 0.30)

	// 消息队列默认值
	v.SetDefault("messaging.redis_stream.max_len", 100000)
	v.SetDefault("messaging.redis_stream.consumer_group_prefix", "z-novel-similarity")
	v.SetDefault("messaging.redis_stream.block_timeout", "5s")
	v.SetDefault("messaging.redis_stream.claim_interval", "30s")
	v.SetDefault("messaging.redis_stream.retry_limit", 3)
	v.SetDefault("messaging.redis_stream.retry_backoff.initial", "1s")
	v.SetDefault("messaging.redis_stream.retry_backoff.max", "30s")
	v.SetDefault("messaging.redis_stream.retry_backoff.multiplier", 2.0)
	v.SetDefault("messaging.redis_stream.publish_audit", true)

	// 可观测性默认值
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.tracing.insecure", true)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	// 安全默认值
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.limit", 60)
	v.SetDefault("security.rate_limit.window", "1m")
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})
}
