// Package config defines all configuration structures for the tender-intel
// platform.  No I/O or parsing logic lives here — only plain data types,
// defaults wiring, and validation. See loader.go for how these structs are
// populated from YAML + environment variables.
package config

import (
	"fmt"
	"sync"
	"time"
)

// Version is the build-time platform version string, overridable via
// -ldflags "-X .../config.Version=..." at release build time.
var Version = "dev"

// ─────────────────────────────────────────────────────────────────────────────
// Server
// ─────────────────────────────────────────────────────────────────────────────

type HTTPConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type GRPCConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	MaxRecvMsgSize int    `mapstructure:"max_recv_msg_size"`
	MaxSendMsgSize int    `mapstructure:"max_send_msg_size"`
	Debug          bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Database
// ─────────────────────────────────────────────────────────────────────────────

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

type Neo4jConfig struct {
	URI                          string        `mapstructure:"uri"`
	User                         string        `mapstructure:"user"`
	Password                     string        `mapstructure:"password"`
	Database                     string        `mapstructure:"database"`
	MaxConnectionPoolSize        int           `mapstructure:"max_connection_pool_size"`
	ConnectionAcquisitionTimeout time.Duration `mapstructure:"connection_acquisition_timeout"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Cache
// ─────────────────────────────────────────────────────────────────────────────

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

type CacheConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Search
// ─────────────────────────────────────────────────────────────────────────────

type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	MaxRetries         int      `mapstructure:"max_retries"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	IndexPrefix        string   `mapstructure:"index_prefix"`
}

type MilvusConfig struct {
	Address            string `mapstructure:"address"`
	Port               int    `mapstructure:"port"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	DBName             string `mapstructure:"db_name"`
	CollectionPrefix   string `mapstructure:"collection_prefix"`
	IndexType          string `mapstructure:"index_type"`
	HNSWM              int    `mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `mapstructure:"hnsw_ef_construction"`
	DefaultTopK        int    `mapstructure:"default_top_k"`
}

type SearchConfig struct {
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Milvus     MilvusConfig     `mapstructure:"milvus"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Messaging
// ─────────────────────────────────────────────────────────────────────────────

type KafkaConfig struct {
	Brokers           []string      `mapstructure:"brokers"`
	ConsumerGroup     string        `mapstructure:"consumer_group"`
	AutoOffsetReset   string        `mapstructure:"auto_offset_reset"`
	MaxBytes          int           `mapstructure:"max_bytes"`
	SessionTimeout    time.Duration `mapstructure:"session_timeout"`
	ProducerRetries   int           `mapstructure:"producer_retries"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
	NumPartitions     int           `mapstructure:"num_partitions"`
	AutoCreateTopics  bool          `mapstructure:"auto_create_topics"`
}

type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Storage
// ─────────────────────────────────────────────────────────────────────────────

type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	BucketName    string        `mapstructure:"bucket_name"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PartSize      int64         `mapstructure:"part_size"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Auth
// ─────────────────────────────────────────────────────────────────────────────

type KeycloakConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Realm        string        `mapstructure:"realm"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	JWKSCacheTTL time.Duration `mapstructure:"jwks_cache_ttl"`
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	Issuer        string        `mapstructure:"issuer"`
	Expiry        time.Duration `mapstructure:"expiry"`
	RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
	SigningMethod string        `mapstructure:"signing_method"`
}

type AuthConfig struct {
	Keycloak KeycloakConfig `mapstructure:"keycloak"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Intelligence (embedding + pipeline model wiring)
// ─────────────────────────────────────────────────────────────────────────────

// EmbeddingProviderConfig describes one entry in the embedding fallback chain.
// Providers are attempted in the order they appear under Providers; the
// first provider whose circuit breaker is closed serves the request.
type EmbeddingProviderConfig struct {
	Name    string        `mapstructure:"name"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Dim     int           `mapstructure:"dim"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ClassifierConfig struct {
	ModelPath           string  `mapstructure:"model_path"`
	Device              string  `mapstructure:"device"`
	ClassificationAlpha float64 `mapstructure:"classification_alpha"` // weight of rule-based vs semantic score
	BatchSize           int     `mapstructure:"batch_size"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

type RiskScorerConfig struct {
	ModelPath        string        `mapstructure:"model_path"`
	Threshold        float64       `mapstructure:"threshold"`
	SimilarityMetric string        `mapstructure:"similarity_metric"`
	BatchSize        int           `mapstructure:"batch_size"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type NarrativeConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	ModelName   string        `mapstructure:"model_name"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	TopP        float64       `mapstructure:"top_p"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryCount  int           `mapstructure:"retry_count"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type DocExtractorConfig struct {
	OCREndpoint  string        `mapstructure:"ocr_endpoint"`
	NERModelPath string        `mapstructure:"ner_model_path"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type IntelligenceConfig struct {
	ModelsDir     string                    `mapstructure:"models_dir"`
	Providers     []EmbeddingProviderConfig `mapstructure:"providers"`
	MaxBatchSize  int                       `mapstructure:"max_batch_size"`
	CircuitThreshold  int                   `mapstructure:"circuit_threshold"`
	CircuitResetAfter time.Duration         `mapstructure:"circuit_reset_after"`
	RagTopK       int                       `mapstructure:"rag_top_k"`
	Classifier    ClassifierConfig          `mapstructure:"classifier"`
	RiskScorer    RiskScorerConfig          `mapstructure:"risk_scorer"`
	Narrative     NarrativeConfig           `mapstructure:"narrative"`
	DocExtractor  DocExtractorConfig        `mapstructure:"doc_extractor"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline (chunking, taxonomy, rules, indicators, stage timeouts)
// ─────────────────────────────────────────────────────────────────────────────

type ChunkConfig struct {
	WindowTokens   int `mapstructure:"window_tokens"`
	OverlapTokens  int `mapstructure:"overlap_tokens"`
	MinChunkTokens int `mapstructure:"min_chunk_tokens"`
}

type TaxonomyConfig struct {
	Path string `mapstructure:"path"`
}

type RulesConfig struct {
	Path string `mapstructure:"path"`
}

type IndicatorsConfig struct {
	Path string `mapstructure:"path"`
}

type StageConfig struct {
	ExtractTimeout  time.Duration `mapstructure:"extract_timeout"`
	ClassifyTimeout time.Duration `mapstructure:"classify_timeout"`
	ValidateTimeout time.Duration `mapstructure:"validate_timeout"`
	RiskTimeout     time.Duration `mapstructure:"risk_timeout"`
	RUCTimeout      time.Duration `mapstructure:"ruc_timeout"`
	CompareTimeout  time.Duration `mapstructure:"compare_timeout"`
	ReportTimeout   time.Duration `mapstructure:"report_timeout"`
}

type PipelineConfig struct {
	Chunk      ChunkConfig      `mapstructure:"chunk"`
	Taxonomy   TaxonomyConfig   `mapstructure:"taxonomy"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Indicators IndicatorsConfig `mapstructure:"indicators"`
	Stage      StageConfig      `mapstructure:"stage"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Worker
// ─────────────────────────────────────────────────────────────────────────────

type WorkerConfig struct {
	Mode              string        `mapstructure:"mode"` // "local" | "distributed"
	Concurrency       int           `mapstructure:"concurrency"`
	QueueDepth        int           `mapstructure:"queue_depth"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	// DataDir is the local JSON artifact repository root used by the
	// distributed worker (mirrors tenderctl's --data-dir), shared across all
	// worker replicas via a common volume/mount in "distributed" mode.
	DataDir string `mapstructure:"data_dir"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Monitoring
// ─────────────────────────────────────────────────────────────────────────────

type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Port      int    `mapstructure:"port"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
}

type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Notification
// ─────────────────────────────────────────────────────────────────────────────

type EmailConfig struct {
	SMTPHost string        `mapstructure:"smtp_host"`
	SMTPPort int           `mapstructure:"smtp_port"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type NotificationConfig struct {
	Email EmailConfig `mapstructure:"email"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire platform.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Search       SearchConfig       `mapstructure:"search"`
	Messaging    MessagingConfig    `mapstructure:"messaging"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Intelligence IntelligenceConfig `mapstructure:"intelligence"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Worker       WorkerConfig       `mapstructure:"worker"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Notification NotificationConfig `mapstructure:"notification"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience accessors
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDSN renders the libpq-style DSN used by pgx to open a connection.
func (c *Config) PostgresDSN() string {
	p := c.Database.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Neo4jURI returns the bolt connection URI for the graph database.
func (c *Config) Neo4jURI() string {
	return c.Database.Neo4j.URI
}

// RedisAddr returns the host:port address of the cache.
func (c *Config) RedisAddr() string {
	return c.Cache.Redis.Addr
}

// KafkaBrokers returns the broker address list for producers and consumers.
func (c *Config) KafkaBrokers() []string {
	return c.Messaging.Kafka.Brokers
}

// IsProduction reports whether the configured log level implies a
// production deployment (anything other than "debug").
func (c *Config) IsProduction() bool {
	return c.Monitoring.Logging.Level != "debug"
}

// ─────────────────────────────────────────────────────────────────────────────
// Process-wide singleton
// ─────────────────────────────────────────────────────────────────────────────

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Set installs cfg as the process-wide configuration singleton.
func Set(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// Get returns the process-wide configuration singleton set by Set.
// It returns nil if no configuration has been installed yet.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	if c.Server.HTTP.Port < 1 || c.Server.HTTP.Port > 65535 {
		return fmt.Errorf("config: server.http.port %d is out of range [1, 65535]", c.Server.HTTP.Port)
	}

	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("config: database.postgres.host is required")
	}
	if c.Database.Postgres.Port < 1 || c.Database.Postgres.Port > 65535 {
		return fmt.Errorf("config: database.postgres.port %d is out of range [1, 65535]", c.Database.Postgres.Port)
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("config: database.postgres.user is required")
	}
	if c.Database.Postgres.DBName == "" {
		return fmt.Errorf("config: database.postgres.db_name is required")
	}

	if c.Database.Neo4j.URI == "" {
		return fmt.Errorf("config: database.neo4j.uri is required")
	}

	if c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr is required")
	}

	if len(c.Search.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: search.opensearch.addresses must contain at least one address")
	}
	if c.Search.Milvus.Address == "" {
		return fmt.Errorf("config: search.milvus.address is required")
	}

	if len(c.Messaging.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: messaging.kafka.brokers must contain at least one broker address")
	}
	if c.Messaging.Kafka.ConsumerGroup == "" {
		return fmt.Errorf("config: messaging.kafka.consumer_group is required")
	}

	if c.Storage.MinIO.Endpoint == "" {
		return fmt.Errorf("config: storage.minio.endpoint is required")
	}
	if c.Storage.MinIO.AccessKey == "" || c.Storage.MinIO.SecretKey == "" {
		return fmt.Errorf("config: storage.minio access_key and secret_key are required")
	}
	if c.Storage.MinIO.BucketName == "" {
		return fmt.Errorf("config: storage.minio.bucket_name is required")
	}

	if c.Auth.Keycloak.BaseURL == "" {
		return fmt.Errorf("config: auth.keycloak.base_url is required")
	}
	if c.Auth.Keycloak.Realm == "" {
		return fmt.Errorf("config: auth.keycloak.realm is required")
	}
	if c.Auth.Keycloak.ClientID == "" {
		return fmt.Errorf("config: auth.keycloak.client_id is required")
	}
	if c.Auth.JWT.Secret == "" {
		return fmt.Errorf("config: auth.jwt.secret is required")
	}
	if c.Auth.JWT.Issuer == "" {
		return fmt.Errorf("config: auth.jwt.issuer is required")
	}

	if c.Intelligence.ModelsDir == "" {
		return fmt.Errorf("config: intelligence.models_dir is required")
	}
	if len(c.Intelligence.Providers) == 0 {
		return fmt.Errorf("config: intelligence.providers must contain at least one embedding provider")
	}
	for _, p := range c.Intelligence.Providers {
		if p.Name == "" {
			return fmt.Errorf("config: intelligence embedding provider entries require a name")
		}
		if p.Dim <= 0 {
			return fmt.Errorf("config: intelligence embedding provider %q must declare dim > 0", p.Name)
		}
	}
	if c.Intelligence.Classifier.ModelPath == "" {
		return fmt.Errorf("config: intelligence.classifier.model_path is required")
	}
	if c.Intelligence.Narrative.Endpoint == "" {
		return fmt.Errorf("config: intelligence.narrative.endpoint is required")
	}
	if c.Intelligence.Narrative.APIKey == "" {
		return fmt.Errorf("config: intelligence.narrative.api_key is required")
	}
	if c.Intelligence.Narrative.ModelName == "" {
		return fmt.Errorf("config: intelligence.narrative.model_name is required")
	}
	if c.Intelligence.DocExtractor.OCREndpoint == "" {
		return fmt.Errorf("config: intelligence.doc_extractor.ocr_endpoint is required")
	}
	if c.Intelligence.DocExtractor.NERModelPath == "" {
		return fmt.Errorf("config: intelligence.doc_extractor.ner_model_path is required")
	}
	if c.Intelligence.RiskScorer.ModelPath == "" {
		return fmt.Errorf("config: intelligence.risk_scorer.model_path is required")
	}

	if c.Intelligence.Classifier.ClassificationAlpha < 0 || c.Intelligence.Classifier.ClassificationAlpha > 1 {
		return fmt.Errorf("config: intelligence.classifier.classification_alpha %f must be in [0, 1]", c.Intelligence.Classifier.ClassificationAlpha)
	}
	if c.Pipeline.Taxonomy.Path == "" {
		return fmt.Errorf("config: pipeline.taxonomy.path is required")
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	switch c.Monitoring.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: monitoring.logging.level %q is invalid; expected debug|info|warn|error", c.Monitoring.Logging.Level)
	}
	switch c.Monitoring.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: monitoring.logging.format %q is invalid; expected json|text", c.Monitoring.Logging.Format)
	}

	return nil
}
