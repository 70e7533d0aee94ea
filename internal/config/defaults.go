// Package config provides configuration loading, defaults, and validation for
// the tender-intel platform.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultHTTPHost          = "0.0.0.0"
	DefaultHTTPPort          = 8080
	DefaultHTTPReadTimeout   = 15 * time.Second
	DefaultHTTPWriteTimeout  = 15 * time.Second
	DefaultHTTPMaxHeaderBytes = 1 << 20

	DefaultGRPCPort           = 9090
	DefaultGRPCMaxRecvMsgSize = 16 << 20
	DefaultGRPCMaxSendMsgSize = 16 << 20

	DefaultPostgresPort           = 5432
	DefaultPostgresSSLMode        = "disable"
	DefaultPostgresMaxOpenConns   = 25
	DefaultPostgresMaxIdleConns   = 5
	DefaultPostgresConnMaxLifetime = 30 * time.Minute

	DefaultNeo4jMaxPoolSize        = 50
	DefaultNeo4jAcquisitionTimeout = 60 * time.Second

	DefaultRedisPoolSize     = 10
	DefaultRedisMinIdleConns = 2
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second

	DefaultOpenSearchMaxRetries = 3
	DefaultMilvusPort           = 19530

	DefaultKafkaAutoOffsetReset = "earliest"
	DefaultKafkaMaxBytes        = 10 << 20
	DefaultKafkaSessionTimeout  = 10 * time.Second

	DefaultMinIOPartSize = 64 << 20

	DefaultJWTExpiry        = time.Hour
	DefaultJWTRefreshExpiry = 24 * time.Hour
	DefaultJWTSigningMethod = "HS256"

	DefaultEmbeddingMaxBatchSize     = 64
	DefaultEmbeddingTimeout          = 30 * time.Second
	DefaultEmbeddingCircuitThreshold = 5
	DefaultEmbeddingCircuitReset     = 60 * time.Second
	DefaultRagTopK                  = 8
	DefaultClassificationAlpha      = 0.4
	DefaultClassifierBatchSize      = 32
	DefaultClassifierTimeout        = 10 * time.Second

	DefaultRiskScorerThreshold        = 0.7
	DefaultRiskScorerSimilarityMetric = "cosine"
	DefaultRiskScorerBatchSize        = 32
	DefaultRiskScorerTimeout          = 15 * time.Second

	DefaultNarrativeMaxTokens   = 1024
	DefaultNarrativeTemperature = 0.2
	DefaultNarrativeTopP        = 0.9
	DefaultNarrativeTimeout     = 30 * time.Second
	DefaultNarrativeRetryCount  = 2
	DefaultNarrativeRetryDelay  = 2 * time.Second

	DefaultDocExtractorTimeout = 20 * time.Second

	DefaultChunkWindowTokens   = 512
	DefaultChunkOverlapTokens  = 64
	DefaultChunkMinTokens      = 32

	DefaultStageExtractTimeout  = 30 * time.Second
	DefaultStageClassifyTimeout = 20 * time.Second
	DefaultStageValidateTimeout = 20 * time.Second
	DefaultStageRiskTimeout     = 20 * time.Second
	DefaultStageRUCTimeout      = 15 * time.Second
	DefaultStageCompareTimeout  = 30 * time.Second
	DefaultStageReportTimeout   = 15 * time.Second

	DefaultWorkerConcurrency = 10

	DefaultPrometheusEnabled   = true
	DefaultPrometheusPort      = 9091
	DefaultPrometheusPath      = "/metrics"
	DefaultPrometheusNamespace = "tender_intel"

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultLogOutput     = "stdout"
	DefaultLogMaxSize    = 100
	DefaultLogMaxBackups = 5
	DefaultLogMaxAge     = 30
	DefaultLogCompress   = true

	DefaultTracingSampleRate  = 0.1
	DefaultTracingServiceName = "tender-intel"

	DefaultEmailSMTPPort = 587
	DefaultEmailTimeout  = 10 * time.Second
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.HTTP.Host == "" {
		cfg.Server.HTTP.Host = DefaultHTTPHost
	}
	if cfg.Server.HTTP.Port == 0 {
		cfg.Server.HTTP.Port = DefaultHTTPPort
	}
	if cfg.Server.HTTP.ReadTimeout == 0 {
		cfg.Server.HTTP.ReadTimeout = DefaultHTTPReadTimeout
	}
	if cfg.Server.HTTP.WriteTimeout == 0 {
		cfg.Server.HTTP.WriteTimeout = DefaultHTTPWriteTimeout
	}
	if cfg.Server.HTTP.MaxHeaderBytes == 0 {
		cfg.Server.HTTP.MaxHeaderBytes = DefaultHTTPMaxHeaderBytes
	}
	if cfg.Server.GRPC.Port == 0 {
		cfg.Server.GRPC.Port = DefaultGRPCPort
	}
	if cfg.Server.GRPC.MaxRecvMsgSize == 0 {
		cfg.Server.GRPC.MaxRecvMsgSize = DefaultGRPCMaxRecvMsgSize
	}
	if cfg.Server.GRPC.MaxSendMsgSize == 0 {
		cfg.Server.GRPC.MaxSendMsgSize = DefaultGRPCMaxSendMsgSize
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Database.Postgres.MaxOpenConns == 0 {
		cfg.Database.Postgres.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if cfg.Database.Postgres.MaxIdleConns == 0 {
		cfg.Database.Postgres.MaxIdleConns = DefaultPostgresMaxIdleConns
	}
	if cfg.Database.Postgres.ConnMaxLifetime == 0 {
		cfg.Database.Postgres.ConnMaxLifetime = DefaultPostgresConnMaxLifetime
	}

	if cfg.Database.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Database.Neo4j.MaxConnectionPoolSize = DefaultNeo4jMaxPoolSize
	}
	if cfg.Database.Neo4j.ConnectionAcquisitionTimeout == 0 {
		cfg.Database.Neo4j.ConnectionAcquisitionTimeout = DefaultNeo4jAcquisitionTimeout
	}

	if cfg.Cache.Redis.PoolSize == 0 {
		cfg.Cache.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Cache.Redis.MinIdleConns == 0 {
		cfg.Cache.Redis.MinIdleConns = DefaultRedisMinIdleConns
	}
	if cfg.Cache.Redis.DialTimeout == 0 {
		cfg.Cache.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Cache.Redis.ReadTimeout == 0 {
		cfg.Cache.Redis.ReadTimeout = DefaultRedisReadTimeout
	}
	if cfg.Cache.Redis.WriteTimeout == 0 {
		cfg.Cache.Redis.WriteTimeout = DefaultRedisWriteTimeout
	}

	if cfg.Search.OpenSearch.MaxRetries == 0 {
		cfg.Search.OpenSearch.MaxRetries = DefaultOpenSearchMaxRetries
	}
	if cfg.Search.Milvus.Port == 0 {
		cfg.Search.Milvus.Port = DefaultMilvusPort
	}

	if cfg.Messaging.Kafka.AutoOffsetReset == "" {
		cfg.Messaging.Kafka.AutoOffsetReset = DefaultKafkaAutoOffsetReset
	}
	if cfg.Messaging.Kafka.MaxBytes == 0 {
		cfg.Messaging.Kafka.MaxBytes = DefaultKafkaMaxBytes
	}
	if cfg.Messaging.Kafka.SessionTimeout == 0 {
		cfg.Messaging.Kafka.SessionTimeout = DefaultKafkaSessionTimeout
	}

	if cfg.Storage.MinIO.PartSize == 0 {
		cfg.Storage.MinIO.PartSize = int64(DefaultMinIOPartSize)
	}

	if cfg.Auth.JWT.Expiry == 0 {
		cfg.Auth.JWT.Expiry = DefaultJWTExpiry
	}
	if cfg.Auth.JWT.RefreshExpiry == 0 {
		cfg.Auth.JWT.RefreshExpiry = DefaultJWTRefreshExpiry
	}
	if cfg.Auth.JWT.SigningMethod == "" {
		cfg.Auth.JWT.SigningMethod = DefaultJWTSigningMethod
	}

	if cfg.Intelligence.MaxBatchSize == 0 {
		cfg.Intelligence.MaxBatchSize = DefaultEmbeddingMaxBatchSize
	}
	if cfg.Intelligence.CircuitThreshold == 0 {
		cfg.Intelligence.CircuitThreshold = DefaultEmbeddingCircuitThreshold
	}
	if cfg.Intelligence.CircuitResetAfter == 0 {
		cfg.Intelligence.CircuitResetAfter = DefaultEmbeddingCircuitReset
	}
	if cfg.Intelligence.RagTopK == 0 {
		cfg.Intelligence.RagTopK = DefaultRagTopK
	}
	for i := range cfg.Intelligence.Providers {
		if cfg.Intelligence.Providers[i].Timeout == 0 {
			cfg.Intelligence.Providers[i].Timeout = DefaultEmbeddingTimeout
		}
	}
	if cfg.Intelligence.Classifier.ClassificationAlpha == 0 {
		cfg.Intelligence.Classifier.ClassificationAlpha = DefaultClassificationAlpha
	}
	if cfg.Intelligence.Classifier.BatchSize == 0 {
		cfg.Intelligence.Classifier.BatchSize = DefaultClassifierBatchSize
	}
	if cfg.Intelligence.Classifier.Timeout == 0 {
		cfg.Intelligence.Classifier.Timeout = DefaultClassifierTimeout
	}

	if cfg.Intelligence.RiskScorer.Threshold == 0 {
		cfg.Intelligence.RiskScorer.Threshold = DefaultRiskScorerThreshold
	}
	if cfg.Intelligence.RiskScorer.SimilarityMetric == "" {
		cfg.Intelligence.RiskScorer.SimilarityMetric = DefaultRiskScorerSimilarityMetric
	}
	if cfg.Intelligence.RiskScorer.BatchSize == 0 {
		cfg.Intelligence.RiskScorer.BatchSize = DefaultRiskScorerBatchSize
	}
	if cfg.Intelligence.RiskScorer.Timeout == 0 {
		cfg.Intelligence.RiskScorer.Timeout = DefaultRiskScorerTimeout
	}

	if cfg.Intelligence.Narrative.MaxTokens == 0 {
		cfg.Intelligence.Narrative.MaxTokens = DefaultNarrativeMaxTokens
	}
	if cfg.Intelligence.Narrative.Temperature == 0 {
		cfg.Intelligence.Narrative.Temperature = DefaultNarrativeTemperature
	}
	if cfg.Intelligence.Narrative.TopP == 0 {
		cfg.Intelligence.Narrative.TopP = DefaultNarrativeTopP
	}
	if cfg.Intelligence.Narrative.Timeout == 0 {
		cfg.Intelligence.Narrative.Timeout = DefaultNarrativeTimeout
	}
	if cfg.Intelligence.Narrative.RetryCount == 0 {
		cfg.Intelligence.Narrative.RetryCount = DefaultNarrativeRetryCount
	}
	if cfg.Intelligence.Narrative.RetryDelay == 0 {
		cfg.Intelligence.Narrative.RetryDelay = DefaultNarrativeRetryDelay
	}

	if cfg.Intelligence.DocExtractor.Timeout == 0 {
		cfg.Intelligence.DocExtractor.Timeout = DefaultDocExtractorTimeout
	}

	if cfg.Pipeline.Chunk.WindowTokens == 0 {
		cfg.Pipeline.Chunk.WindowTokens = DefaultChunkWindowTokens
	}
	if cfg.Pipeline.Chunk.OverlapTokens == 0 {
		cfg.Pipeline.Chunk.OverlapTokens = DefaultChunkOverlapTokens
	}
	if cfg.Pipeline.Chunk.MinChunkTokens == 0 {
		cfg.Pipeline.Chunk.MinChunkTokens = DefaultChunkMinTokens
	}

	if cfg.Pipeline.Stage.ExtractTimeout == 0 {
		cfg.Pipeline.Stage.ExtractTimeout = DefaultStageExtractTimeout
	}
	if cfg.Pipeline.Stage.ClassifyTimeout == 0 {
		cfg.Pipeline.Stage.ClassifyTimeout = DefaultStageClassifyTimeout
	}
	if cfg.Pipeline.Stage.ValidateTimeout == 0 {
		cfg.Pipeline.Stage.ValidateTimeout = DefaultStageValidateTimeout
	}
	if cfg.Pipeline.Stage.RiskTimeout == 0 {
		cfg.Pipeline.Stage.RiskTimeout = DefaultStageRiskTimeout
	}
	if cfg.Pipeline.Stage.RUCTimeout == 0 {
		cfg.Pipeline.Stage.RUCTimeout = DefaultStageRUCTimeout
	}
	if cfg.Pipeline.Stage.CompareTimeout == 0 {
		cfg.Pipeline.Stage.CompareTimeout = DefaultStageCompareTimeout
	}
	if cfg.Pipeline.Stage.ReportTimeout == 0 {
		cfg.Pipeline.Stage.ReportTimeout = DefaultStageReportTimeout
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.Mode == "" {
		cfg.Worker.Mode = "local"
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.DataDir == "" {
		cfg.Worker.DataDir = "./worker-data"
	}

	if !cfg.Monitoring.Prometheus.Enabled {
		cfg.Monitoring.Prometheus.Enabled = DefaultPrometheusEnabled
	}
	if cfg.Monitoring.Prometheus.Port == 0 {
		cfg.Monitoring.Prometheus.Port = DefaultPrometheusPort
	}
	if cfg.Monitoring.Prometheus.Path == "" {
		cfg.Monitoring.Prometheus.Path = DefaultPrometheusPath
	}
	if cfg.Monitoring.Prometheus.Namespace == "" {
		cfg.Monitoring.Prometheus.Namespace = DefaultPrometheusNamespace
	}

	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = DefaultLogLevel
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = DefaultLogFormat
	}
	if cfg.Monitoring.Logging.Output == "" {
		cfg.Monitoring.Logging.Output = DefaultLogOutput
	}
	if cfg.Monitoring.Logging.MaxSize == 0 {
		cfg.Monitoring.Logging.MaxSize = DefaultLogMaxSize
	}
	if cfg.Monitoring.Logging.MaxBackups == 0 {
		cfg.Monitoring.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if cfg.Monitoring.Logging.MaxAge == 0 {
		cfg.Monitoring.Logging.MaxAge = DefaultLogMaxAge
	}
	if !cfg.Monitoring.Logging.Compress {
		cfg.Monitoring.Logging.Compress = DefaultLogCompress
	}

	if cfg.Monitoring.Tracing.SampleRate == 0 {
		cfg.Monitoring.Tracing.SampleRate = DefaultTracingSampleRate
	}
	if cfg.Monitoring.Tracing.ServiceName == "" {
		cfg.Monitoring.Tracing.ServiceName = DefaultTracingServiceName
	}

	if cfg.Notification.Email.SMTPPort == 0 {
		cfg.Notification.Email.SMTPPort = DefaultEmailSMTPPort
	}
	if cfg.Notification.Email.Timeout == 0 {
		cfg.Notification.Email.Timeout = DefaultEmailTimeout
	}
}

// NewDefaultConfig returns a Config populated entirely from platform
// defaults. Fields with no sensible default (hosts, credentials, model
// paths) are left zero-valued; callers must fill them before Validate().
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
