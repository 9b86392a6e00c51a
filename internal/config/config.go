// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Vector        VectorConfig        `yaml:"vector" mapstructure:"vector"`
	Embedding     EmbeddingConfig     `yaml:"embedding" mapstructure:"embedding"`
	Similarity    SimilarityConfig    `yaml:"similarity" mapstructure:"similarity"`
	Messaging     MessagingConfig     `yaml:"messaging" mapstructure:"messaging"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// ScanTimeout 单次扫描请求的最长处理时间
	ScanTimeout time.Duration `yaml:"scan_timeout" mapstructure:"scan_timeout"`
	// MaxBodyBytes 请求体上限
	MaxBodyBytes int64 `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" mapstructure:"slow_threshold"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
	// ChunkTTL 分块向量在 Redis 中的缓存时间，0 表示不启用 Redis 分块缓存
	ChunkTTL time.Duration `yaml:"chunk_ttl" mapstructure:"chunk_ttl"`
	// NovelTTL 小说元数据缓存时间
	NovelTTL time.Duration `yaml:"novel_ttl" mapstructure:"novel_ttl"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// VectorConfig 向量存储配置
type VectorConfig struct {
	// Backend 章节向量读取后端: postgres / milvus
	Backend string       `yaml:"backend" mapstructure:"backend"`
	Milvus  MilvusConfig `yaml:"milvus" mapstructure:"milvus"`
}

// MilvusConfig Milvus 配置
type MilvusConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	CollectionPrefix   string `yaml:"collection_prefix" mapstructure:"collection_prefix"`
	HNSWM              int    `yaml:"hnsw_m" mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `yaml:"hnsw_ef_construction" mapstructure:"hnsw_ef_construction"`
	QueryBatchSize     int    `yaml:"query_batch_size" mapstructure:"query_batch_size"`
}

// EmbeddingConfig Embedding 配置
type EmbeddingConfig struct {
	// Provider: openai (eino) / http
	Provider  string        `yaml:"provider" mapstructure:"provider"`
	Model     string        `yaml:"model" mapstructure:"model"`
	Dimension int           `yaml:"dimension" mapstructure:"dimension"`
	BatchSize int           `yaml:"batch_size" mapstructure:"batch_size"`
	Endpoint  string        `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey    string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SimilarityConfig 相似度检测阈值与调度配置
type SimilarityConfig struct {
	ChunkSizeWords           int     `yaml:"chunk_size_words" mapstructure:"chunk_size_words"`
	ChunkSimilarityThreshold float64 `yaml:"chunk_similarity_threshold" mapstructure:"chunk_similarity_threshold"`
	EarlyRejectThreshold     float64 `yaml:"early_reject_threshold" mapstructure:"early_reject_threshold"`

	PrimaryNGram      int     `yaml:"primary_ngram" mapstructure:"primary_ngram"`
	SecondaryNGram    int     `yaml:"secondary_ngram" mapstructure:"secondary_ngram"`
	SecondaryWeight   float64 `yaml:"secondary_weight" mapstructure:"secondary_weight"`
	PhraseNGram       int     `yaml:"phrase_ngram" mapstructure:"phrase_ngram"`
	ContentWordMinLen int     `yaml:"content_word_min_len" mapstructure:"content_word_min_len"`
	SmallInputTokens  int     `yaml:"small_input_tokens" mapstructure:"small_input_tokens"`

	Guard      GuardConfig      `yaml:"guard" mapstructure:"guard"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`

	// Workers 并发评估候选章节的 worker 数
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// GuardConfig 语境误报过滤阈值
type GuardConfig struct {
	LiteralMax     float64 `yaml:"literal_max" mapstructure:"literal_max"`
	ContentMax     float64 `yaml:"content_max" mapstructure:"content_max"`
	PhraseMin      int     `yaml:"phrase_min" mapstructure:"phrase_min"`
	BypassFull     float64 `yaml:"bypass_full" mapstructure:"bypass_full"`
	BypassCoverage float64 `yaml:"bypass_coverage" mapstructure:"bypass_coverage"`
}

// ClassifierConfig 判定分级阈值
type ClassifierConfig struct {
	SmallClearLiteral   float64 `yaml:"small_clear_literal" mapstructure:"small_clear_literal"`
	SmallClearPhrases   int     `yaml:"small_clear_phrases" mapstructure:"small_clear_phrases"`
	SmallClearContent   float64 `yaml:"small_clear_content" mapstructure:"small_clear_content"`
	SmallRelatedLiteral float64 `yaml:"small_related_literal" mapstructure:"small_related_literal"`
	SmallRelatedContent float64 `yaml:"small_related_content" mapstructure:"small_related_content"`

	ClearLiteral         float64 `yaml:"clear_literal" mapstructure:"clear_literal"`
	ClearPhrases         int     `yaml:"clear_phrases" mapstructure:"clear_phrases"`
	ClearPhraseFull      float64 `yaml:"clear_phrase_full" mapstructure:"clear_phrase_full"`
	ClearPhraseContent   float64 `yaml:"clear_phrase_content" mapstructure:"clear_phrase_content"`
	ClearSemanticFull    float64 `yaml:"clear_semantic_full" mapstructure:"clear_semantic_full"`
	ClearSemanticCover   float64 `yaml:"clear_semantic_coverage" mapstructure:"clear_semantic_coverage"`
	ClearSemanticLiteral float64 `yaml:"clear_semantic_literal" mapstructure:"clear_semantic_literal"`
	ClearSemanticContent float64 `yaml:"clear_semantic_content" mapstructure:"clear_semantic_content"`
	RelatedFull          float64 `yaml:"related_full" mapstructure:"related_full"`
	RelatedCoverage      float64 `yaml:"related_coverage" mapstructure:"related_coverage"`
	RelatedContent       float64 `yaml:"related_content" mapstructure:"related_content"`
}

// MessagingConfig 消息队列配置
type MessagingConfig struct {
	RedisStream RedisStreamConfig `yaml:"redis_stream" mapstructure:"redis_stream"`
}

// RedisStreamConfig Redis Stream 配置
type RedisStreamConfig struct {
	MaxLen              int           `yaml:"max_len" mapstructure:"max_len"`
	ConsumerGroupPrefix string        `yaml:"consumer_group_prefix" mapstructure:"consumer_group_prefix"`
	BlockTimeout        time.Duration `yaml:"block_timeout" mapstructure:"block_timeout"`
	ClaimInterval       time.Duration `yaml:"claim_interval" mapstructure:"claim_interval"`
	RetryLimit          int           `yaml:"retry_limit" mapstructure:"retry_limit"`
	RetryBackoff        BackoffConfig `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	// PublishAudit 扫描命中后是否投递审计事件
	PublishAudit bool `yaml:"publish_audit" mapstructure:"publish_audit"`
}

// BackoffConfig 退避配置
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial" mapstructure:"initial"`
	Max        time.Duration `yaml:"max" mapstructure:"max"`
	Multiplier float64       `yaml:"multiplier" mapstructure:"multiplier"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Limit   int           `yaml:"limit" mapstructure:"limit"`
	Window  time.Duration `yaml:"window" mapstructure:"window"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
