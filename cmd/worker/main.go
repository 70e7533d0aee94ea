// cmd/worker/main.go is the background worker process entry point. It
// consumes async analysis jobs from Kafka — document extraction, chunking
// and classification, validation, risk scoring, RUC verification, report
// assembly, and comparison-graph construction — and dispatches each topic to
// the same StageRunner the CLI and HTTP surfaces drive inline, so a stage
// behaves identically whether it runs synchronously or off a queue.
//
// Failed messages retry with exponential backoff inside the Kafka consumer
// itself (see kafka.Consumer.processMessage) up to its configured retry
// budget before being routed to the topic's .dlq companion; this process
// does not duplicate that logic.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/tender-intel/internal/application/analysis"
	"github.com/turtacn/tender-intel/internal/config"
	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/tender-intel/internal/infrastructure/storage/localfs"
	"github.com/turtacn/tender-intel/internal/intelligence/embedding"
	"github.com/turtacn/tender-intel/internal/intelligence/vectorstore"
	"github.com/turtacn/tender-intel/internal/pipeline/chunker"
	"github.com/turtacn/tender-intel/internal/pipeline/classifier"
	"github.com/turtacn/tender-intel/internal/pipeline/comparison"
	"github.com/turtacn/tender-intel/internal/pipeline/extractor"
	"github.com/turtacn/tender-intel/internal/pipeline/report"
	"github.com/turtacn/tender-intel/internal/pipeline/risk"
	"github.com/turtacn/tender-intel/internal/pipeline/ruc"
	"github.com/turtacn/tender-intel/internal/pipeline/taxonomy"
	"github.com/turtacn/tender-intel/internal/pipeline/validator"

	pgconn "github.com/turtacn/tender-intel/internal/infrastructure/database/postgres"
	neo4jdriver "github.com/turtacn/tender-intel/internal/infrastructure/database/neo4j"
	redisclient "github.com/turtacn/tender-intel/internal/infrastructure/database/redis"
	kafkaclient "github.com/turtacn/tender-intel/internal/infrastructure/messaging/kafka"
	milvusclient "github.com/turtacn/tender-intel/internal/infrastructure/search/milvus"
	opensearchclient "github.com/turtacn/tender-intel/internal/infrastructure/search/opensearch"
	minioclient "github.com/turtacn/tender-intel/internal/infrastructure/storage/minio"

	intelligencecommon "github.com/turtacn/tender-intel/internal/intelligence/common"
	wiretypes "github.com/turtacn/tender-intel/pkg/types/common"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultHealthPort       = 8081
	reportIndexName         = "tender-reports"
)

// Well-known Kafka topics for async processing.
var allTopics = []string{
	kafkaclient.TopicDocumentExtract,
	kafkaclient.TopicDocumentClassify,
	kafkaclient.TopicDocumentValidate,
	kafkaclient.TopicRiskAssess,
	kafkaclient.TopicRUCVerify,
	kafkaclient.TopicReportGenerate,
	kafkaclient.TopicComparisonGraphBuild,
	kafkaclient.TopicVectorIndexUpdate,
}

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	topicFilter := flag.String("topics", "", "comma-separated list of topics to consume (default: all)")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.LogConfig{
		Level:            logging.LevelInfo,
		Format:           cfg.Monitoring.Logging.Format,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EnableCaller:     true,
		ServiceName:      "tender-intel-worker",
	}
	if cfg.Monitoring.Logging.Output == "file" && cfg.Monitoring.Logging.FilePath != "" {
		logCfg.OutputPaths = append(logCfg.OutputPaths, cfg.Monitoring.Logging.FilePath)
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	topics := allTopics
	if *topicFilter != "" {
		topics = strings.Split(*topicFilter, ",")
		for i := range topics {
			topics[i] = strings.TrimSpace(topics[i])
		}
	}

	logger.Info("starting tender-intel worker",
		logging.String("topics", strings.Join(topics, ",")),
		logging.String("data_dir", cfg.Worker.DataDir),
	)

	promCfg := prometheus.CollectorConfig{
		Namespace:            cfg.Monitoring.Prometheus.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}
	metricsCollector, err := prometheus.NewMetricsCollector(promCfg, logger)
	if err != nil {
		logger.Error("failed to initialize metrics collector", logging.Err(err))
		os.Exit(1)
	}

	infra, err := initWorkerInfrastructure(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize infrastructure", logging.Err(err))
		os.Exit(1)
	}
	defer infra.Close()

	modelRegistry, err := initWorkerIntelligence(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize intelligence layer", logging.Err(err))
		os.Exit(1)
	}
	defer modelRegistry.Close()

	pipeline, err := buildWorkerPipeline(cfg, infra, logger)
	if err != nil {
		logger.Error("failed to build analysis pipeline", logging.Err(err))
		os.Exit(1)
	}

	consumerCfg := kafkaclient.ConsumerConfig{
		Brokers:           cfg.Messaging.Kafka.Brokers,
		GroupID:           cfg.Messaging.Kafka.ConsumerGroup,
		Topics:            topics,
		AutoOffsetReset:   cfg.Messaging.Kafka.AutoOffsetReset,
		SessionTimeout:    cfg.Messaging.Kafka.SessionTimeout,
		HeartbeatInterval: cfg.Messaging.Kafka.HeartbeatInterval,
	}
	consumer, err := kafkaclient.NewConsumer(consumerCfg, logger)
	if err != nil {
		logger.Error("failed to create Kafka consumer", logging.Err(err))
		os.Exit(1)
	}
	defer consumer.Close()

	producerCfg := kafkaclient.ProducerConfig{
		Brokers:    cfg.Messaging.Kafka.Brokers,
		Acks:       "all",
		MaxRetries: 3,
	}
	producer, err := kafkaclient.NewProducer(producerCfg, logger)
	if err != nil {
		logger.Error("failed to create Kafka producer", logging.Err(err))
		os.Exit(1)
	}
	defer producer.Close()

	deps := &handlerDeps{
		pipeline: pipeline,
		infra:    infra,
		producer: producer,
		logger:   logger,
	}
	if err := registerHandlers(consumer, deps, topics); err != nil {
		logger.Error("failed to register stage handlers", logging.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthSrv := startHealthServer(logger, metricsCollector)

	consumerErrCh := make(chan error, 1)
	go func() {
		consumerErrCh <- consumer.Start(ctx)
	}()

	logger.Info("worker consuming", logging.String("topics", strings.Join(topics, ",")))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	case err := <-consumerErrCh:
		if err != nil {
			logger.Error("consumer stopped with error", logging.Err(err))
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	logger.Info("tender-intel worker stopped")
}

// workerInfrastructure holds infrastructure clients for the worker process.
type workerInfrastructure struct {
	pg         *pgxpool.Pool
	neo4j      *neo4jdriver.Driver
	redis      *redisclient.Client
	minio      *minioclient.MinIOClient
	opensearch *opensearchclient.Client
	milvus     *milvusclient.Client
}

func (w *workerInfrastructure) Close() {
	if w.milvus != nil {
		w.milvus.Close()
	}
	if w.opensearch != nil {
		w.opensearch.Close()
	}
	if w.redis != nil {
		w.redis.Close()
	}
	if w.neo4j != nil {
		w.neo4j.Close()
	}
	if w.pg != nil {
		pgconn.Close(w.pg)
	}
	if w.minio != nil {
		w.minio.Close()
	}
}

func initWorkerInfrastructure(cfg *config.Config, logger logging.Logger) (*workerInfrastructure, error) {
	infra := &workerInfrastructure{}

	pg, err := pgconn.NewConnectionPool(cfg.Database.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	infra.pg = pg

	neo4jCfg := neo4jdriver.Neo4jConfig{
		URI:                          cfg.Database.Neo4j.URI,
		Username:                     cfg.Database.Neo4j.User,
		Password:                     cfg.Database.Neo4j.Password,
		MaxConnectionPoolSize:        cfg.Database.Neo4j.MaxConnectionPoolSize,
		ConnectionAcquisitionTimeout: cfg.Database.Neo4j.ConnectionAcquisitionTimeout,
	}
	neo4jDrv, err := neo4jdriver.NewDriver(neo4jCfg, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("neo4j: %w", err)
	}
	infra.neo4j = neo4jDrv

	redisCfg := &redisclient.RedisConfig{
		Addr:         cfg.Cache.Redis.Addr,
		Password:     cfg.Cache.Redis.Password,
		DB:           cfg.Cache.Redis.DB,
		PoolSize:     cfg.Cache.Redis.PoolSize,
		MinIdleConns: cfg.Cache.Redis.MinIdleConns,
		DialTimeout:  cfg.Cache.Redis.DialTimeout,
		ReadTimeout:  cfg.Cache.Redis.ReadTimeout,
		WriteTimeout: cfg.Cache.Redis.WriteTimeout,
	}
	redisCli, err := redisclient.NewClient(redisCfg, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	infra.redis = redisCli

	minioCfg := &minioclient.MinIOConfig{
		Endpoint:        cfg.Storage.MinIO.Endpoint,
		AccessKeyID:     cfg.Storage.MinIO.AccessKey,
		SecretAccessKey: cfg.Storage.MinIO.SecretKey,
		UseSSL:          cfg.Storage.MinIO.UseSSL,
		DefaultBucket:   cfg.Storage.MinIO.BucketName,
		Region:          cfg.Storage.MinIO.Region,
	}
	minioCli, err := minioclient.NewMinIOClient(minioCfg, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("minio: %w", err)
	}
	infra.minio = minioCli

	osCfg := opensearchclient.ClientConfig{
		Addresses: cfg.Search.OpenSearch.Addresses,
		Username:  cfg.Search.OpenSearch.User,
		Password:  cfg.Search.OpenSearch.Password,
	}
	osCli, err := opensearchclient.NewClient(osCfg, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("opensearch: %w", err)
	}
	infra.opensearch = osCli

	milvusCfg := milvusclient.ClientConfig{
		Address:  cfg.Search.Milvus.Address,
		Username: cfg.Search.Milvus.Username,
		Password: cfg.Search.Milvus.Password,
	}
	milvusCli, err := milvusclient.NewClient(milvusCfg, logger)
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("milvus: %w", err)
	}
	infra.milvus = milvusCli

	logger.Info("worker infrastructure initialized")
	return infra, nil
}

func initWorkerIntelligence(cfg *config.Config, logger logging.Logger) (intelligencecommon.ModelRegistry, error) {
	loader := intelligencecommon.NewNoopModelLoader()
	metrics := intelligencecommon.NewNoopIntelligenceMetrics()
	logAdapter := intelligencecommon.NewNoopLogger()

	registry, err := intelligencecommon.NewModelRegistry(loader, metrics, logAdapter)
	if err != nil {
		return nil, fmt.Errorf("model registry: %w", err)
	}
	logger.Info("worker intelligence models initialized")
	return registry, nil
}

// workerPipeline bundles the orchestrator, its StageRunner, and the
// artifact repository the worker's Kafka handlers share with each other and
// with the document-by-document stage dispatch below.
type workerPipeline struct {
	repo   document.Repository
	stages *analysis.StageRunner
}

// buildWorkerPipeline wires the same agent stack cli.buildOrchestrator uses
// for tenderctl, substituting a JSON repository rooted at cfg.Worker.DataDir
// (shared across worker replicas via a common volume) and, when configured,
// Milvus- and Neo4j-backed corpora/verification in place of the in-memory
// and offline defaults tenderctl uses when running standalone.
func buildWorkerPipeline(cfg *config.Config, infra *workerInfrastructure, logger logging.Logger) (*workerPipeline, error) {
	repo, err := localfs.New(cfg.Worker.DataDir)
	if err != nil {
		return nil, fmt.Errorf("artifact repository: %w", err)
	}

	dim := 32
	if len(cfg.Intelligence.Providers) > 0 && cfg.Intelligence.Providers[0].Dim > 0 {
		dim = cfg.Intelligence.Providers[0].Dim
	}
	embedder := embedding.NewHashProvider("tender-intel-worker", dim)

	var classifyStore, riskStore vectorstore.Store
	if cfg.Search.Milvus.Address != "" && infra.milvus != nil {
		classifyStore = milvusclient.NewStoreFromClient(infra.milvus, logger)
		riskStore = milvusclient.NewStoreFromClient(infra.milvus, logger)
		logger.Info("worker pipeline using Milvus-backed vector corpora")
	} else {
		classifyStore = vectorstore.NewInMemoryStore()
		riskStore = vectorstore.NewInMemoryStore()
	}

	ctx := context.Background()

	classifyAgent := classifier.New(taxonomy.Default(), embedder, classifyStore)
	if err := classifyAgent.SeedCorpus(ctx); err != nil {
		return nil, fmt.Errorf("seed classifier corpus: %w", err)
	}

	riskAgent := risk.New(taxonomy.DefaultRiskCategories(), embedder, riskStore)
	if err := riskAgent.SeedCorpus(ctx); err != nil {
		return nil, fmt.Errorf("seed risk corpus: %w", err)
	}

	validatorAgent := validator.New(taxonomy.DefaultRules(), taxonomy.Default())

	var verifier ruc.VerificationAdapter
	if infra.neo4j != nil {
		verifier = neo4jdriver.NewRUCVerifier(infra.neo4j, logger)
		logger.Info("worker pipeline using Neo4j-backed RUC verification")
	}
	rucAgent := ruc.New(verifier, "")

	workerCount := cfg.Worker.Concurrency
	if workerCount <= 0 || workerCount > 3 {
		workerCount = 3
	}

	orch := analysis.New(
		repo,
		extractor.New(nil, 0.1),
		chunker.New(chunker.DefaultConfig()),
		classifyAgent,
		validatorAgent,
		riskAgent,
		rucAgent,
		logger,
		cfg.Pipeline.Stage,
		workerCount,
	)

	return &workerPipeline{repo: repo, stages: analysis.NewStageRunner(orch)}, nil
}

// workItem is the payload carried through every pipeline topic's
// EventEnvelope. Unlike topics.go's DocumentExtractedPayload/
// DocumentClassifiedPayload, which announce that a stage already happened to
// other bounded contexts, workItem carries what a handler needs to actually
// perform its stage; everything else is reloaded from the artifact the
// previous stage persisted.
type workItem struct {
	DocID         string                `json:"doc_id"`
	DeclaredType  string                `json:"declared_type"`
	AnalysisLevel document.AnalysisLevel `json:"analysis_level"`
	// ObjectPath is a "bucket/key" MinIO path, populated only for
	// document.extract, where the worker has nothing in the repository yet
	// to reload raw bytes from.
	ObjectPath string `json:"object_path,omitempty"`
	// ComparisonID/DocIDs are populated only for comparison.graph.build.
	ComparisonID string   `json:"comparison_id,omitempty"`
	DocIDs       []string `json:"doc_ids,omitempty"`
}

// handlerDeps bundles what every per-topic handler closure needs.
type handlerDeps struct {
	pipeline *workerPipeline
	infra    *workerInfrastructure
	producer *kafkaclient.Producer
	logger   logging.Logger
}

func (d *handlerDeps) decodeWorkItem(msg *wiretypes.Message) (workItem, error) {
	var item workItem
	env, err := kafkaclient.MessageToEventEnvelope(msg)
	if err != nil {
		return item, err
	}
	if err := env.DecodePayload(&item); err != nil {
		return item, err
	}
	return item, nil
}

func (d *handlerDeps) publish(ctx context.Context, topic, eventType string, payload interface{}) error {
	env, err := kafkaclient.NewEventEnvelope(eventType, "tender-intel-worker", payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(topic)
	if err != nil {
		return err
	}
	return d.producer.Publish(ctx, msg)
}

// registerHandlers subscribes one MessageHandler per requested topic on
// consumer. Consumer.Start then drives its own consumeLoop/retry/DLQ
// machinery against these handlers; this function never reads a Kafka
// message directly.
func registerHandlers(consumer *kafkaclient.Consumer, deps *handlerDeps, topics []string) error {
	registry := map[string]wiretypes.MessageHandler{
		kafkaclient.TopicDocumentExtract:      deps.handleExtract,
		kafkaclient.TopicDocumentClassify:     deps.handleClassify,
		kafkaclient.TopicDocumentValidate:     deps.handleValidate,
		kafkaclient.TopicRiskAssess:           deps.handleRisk,
		kafkaclient.TopicRUCVerify:            deps.handleRUC,
		kafkaclient.TopicReportGenerate:       deps.handleReportGenerate,
		kafkaclient.TopicComparisonGraphBuild: deps.handleComparisonGraphBuild,
		kafkaclient.TopicVectorIndexUpdate:    deps.handleVectorIndexUpdate,
	}

	for _, topic := range topics {
		handler, ok := registry[topic]
		if !ok {
			deps.logger.Warn("no handler registered for requested topic", logging.String("topic", topic))
			continue
		}
		if err := consumer.Subscribe(topic, handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	deps.logger.Info("handler registry built", logging.Int("handlers", len(topics)))
	return nil
}

// handleExtract fetches the document's raw bytes from MinIO, runs
// extraction, and fans out to document.classify.
func (d *handlerDeps) handleExtract(ctx context.Context, msg *wiretypes.Message) error {
	item, err := d.decodeWorkItem(msg)
	if err != nil {
		return err
	}

	objectRepo := minioclient.NewMinIORepository(d.infra.minio, d.logger)
	raw, err := objectRepo.Get(ctx, item.ObjectPath)
	if err != nil {
		return fmt.Errorf("fetch object %s: %w", item.ObjectPath, err)
	}

	doc := &document.Document{
		DocID:        item.DocID,
		Path:         item.ObjectPath,
		DeclaredType: item.DeclaredType,
		CreatedAt:    time.Now(),
	}
	if err := d.pipeline.repo.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	if err := d.pipeline.stages.RunExtract(ctx, doc, raw, artifactTypeFor(item.DeclaredType), item.AnalysisLevel); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	return d.publish(ctx, kafkaclient.TopicDocumentClassify, "document.classify.requested", item)
}

// handleClassify chunks and classifies, then fans out to the three
// independent post-classification stages.
func (d *handlerDeps) handleClassify(ctx context.Context, msg *wiretypes.Message) error {
	item, err := d.decodeWorkItem(msg)
	if err != nil {
		return err
	}
	if err := d.pipeline.stages.RunChunkAndClassify(ctx, item.DocID, item.AnalysisLevel); err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	for _, topic := range []string{kafkaclient.TopicDocumentValidate, kafkaclient.TopicRiskAssess, kafkaclient.TopicRUCVerify} {
		if err := d.publish(ctx, topic, topic+".requested", item); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}
	return nil
}

func (d *handlerDeps) handleValidate(ctx context.Context, msg *wiretypes.Message) error {
	item, err := d.decodeWorkItem(msg)
	if err != nil {
		return err
	}
	doc, err := d.pipeline.repo.GetDocument(ctx, item.DocID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = &document.Document{DocID: item.DocID, DeclaredType: item.DeclaredType}
	}
	if err := d.pipeline.stages.RunValidate(ctx, doc, doc.DeclaredType, item.AnalysisLevel); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

func (d *handlerDeps) handleRisk(ctx context.Context, msg *wiretypes.Message) error {
	item, err := d.decodeWorkItem(msg)
	if err != nil {
		return err
	}
	doc, err := d.pipeline.repo.GetDocument(ctx, item.DocID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = &document.Document{DocID: item.DocID, DeclaredType: item.DeclaredType}
	}
	if err := d.pipeline.stages.RunRisk(ctx, doc, item.AnalysisLevel); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	return nil
}

func (d *handlerDeps) handleRUC(ctx context.Context, msg *wiretypes.Message) error {
	item, err := d.decodeWorkItem(msg)
	if err != nil {
		return err
	}
	doc, err := d.pipeline.repo.GetDocument(ctx, item.DocID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = &document.Document{DocID: item.DocID, DeclaredType: item.DeclaredType}
	}
	if err := d.pipeline.stages.RunRUC(ctx, doc, item.AnalysisLevel); err != nil {
		return fmt.Errorf("ruc: %w", err)
	}
	return nil
}

// handleReportGenerate assembles a report bundle from the persisted artifact
// and indexes it into OpenSearch for downstream querying.
func (d *handlerDeps) handleReportGenerate(ctx context.Context, msg *wiretypes.Message) error {
	item, err := d.decodeWorkItem(msg)
	if err != nil {
		return err
	}
	runID := document.RunID(item.DocID, item.AnalysisLevel)
	artifact, err := d.pipeline.repo.GetArtifact(ctx, runID)
	if err != nil {
		return err
	}
	if artifact == nil {
		return fmt.Errorf("report.generate: no artifact for %s", runID)
	}

	bundle := report.New().AssembleArtifact(artifact)
	indexer := opensearchclient.NewIndexer(d.infra.opensearch, opensearchclient.IndexerConfig{}, d.logger)
	if err := indexer.IndexDocument(ctx, reportIndexName, runID, bundle); err != nil {
		return fmt.Errorf("index report bundle: %w", err)
	}
	return nil
}

// handleComparisonGraphBuild rebuilds each participant's DocumentView,
// computes the comparison, and persists it both to the JSON repository and
// to the tender graph.
func (d *handlerDeps) handleComparisonGraphBuild(ctx context.Context, msg *wiretypes.Message) error {
	item, err := d.decodeWorkItem(msg)
	if err != nil {
		return err
	}
	if len(item.DocIDs) < 2 {
		return fmt.Errorf("comparison.graph.build: need at least two doc_ids, got %d", len(item.DocIDs))
	}

	views := make([]comparison.DocumentView, 0, len(item.DocIDs))
	for _, docID := range item.DocIDs {
		view, err := comparison.BuildView(ctx, d.pipeline.repo, docID, item.AnalysisLevel)
		if err != nil {
			return fmt.Errorf("build view for %s: %w", docID, err)
		}
		views = append(views, view)
	}

	cmp, err := comparison.New().Compare(item.ComparisonID, item.AnalysisLevel, views)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	if err := d.pipeline.repo.SaveComparison(ctx, cmp); err != nil {
		return fmt.Errorf("save comparison: %w", err)
	}

	if d.infra.neo4j != nil {
		persister := neo4jdriver.NewComparisonGraphPersister(d.infra.neo4j, d.logger)
		if err := persister.PersistComparison(ctx, cmp); err != nil {
			return fmt.Errorf("persist comparison graph: %w", err)
		}
	}
	return nil
}

// handleVectorIndexUpdate is an acknowledged no-op: this repository's
// Milvus usage is the classifier/risk agents' internal semantic corpora
// (seeded once at startup, keyed by taxonomy/category, not by document), not
// a separate per-document vector index a downstream system can request a
// refresh of. Acking rather than erroring avoids flooding the dead-letter
// topic with messages this deployment has nothing wrong to retry.
func (d *handlerDeps) handleVectorIndexUpdate(ctx context.Context, msg *wiretypes.Message) error {
	d.logger.Info("vector.index.update acknowledged; no per-document vector index is maintained by this worker")
	return nil
}

// artifactTypeFor maps a document's declared type to the extractor's
// ArtifactType, defaulting to plain text for anything unrecognized (mirrors
// the HTTP and CLI ingest surfaces, which extract everything as text today).
func artifactTypeFor(declaredType string) extractor.ArtifactType {
	switch t := extractor.ArtifactType(strings.ToLower(declaredType)); t {
	case extractor.TypePDF, extractor.TypeDOCX, extractor.TypeXLS, extractor.TypeXLSX:
		return t
	default:
		return extractor.TypeTXT
	}
}

func startHealthServer(logger logging.Logger, metrics prometheus.MetricsCollector) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", defaultHealthPort),
		Handler: mux,
	}

	go func() {
		logger.Info("health server listening", logging.Int("port", defaultHealthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	return srv
}
