// API server entry point for tender-intel: serves the HTTP analysis,
// comparison, and report API plus a gRPC listener, wiring the same agent
// stack tenderctl and the Kafka worker drive so a document analyzed
// synchronously over HTTP reaches an identical artifact to one processed
// off a queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/tender-intel/internal/application/analysis"
	"github.com/turtacn/tender-intel/internal/config"
	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/internal/infrastructure/storage/localfs"
	grpcserver "github.com/turtacn/tender-intel/internal/interfaces/grpc"
	httpserver "github.com/turtacn/tender-intel/internal/interfaces/http"
	"github.com/turtacn/tender-intel/internal/interfaces/http/handlers"
	"github.com/turtacn/tender-intel/internal/interfaces/http/middleware"
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

	neo4jdriver "github.com/turtacn/tender-intel/internal/infrastructure/database/neo4j"
	pgconn "github.com/turtacn/tender-intel/internal/infrastructure/database/postgres"
	redisclient "github.com/turtacn/tender-intel/internal/infrastructure/database/redis"
	milvusclient "github.com/turtacn/tender-intel/internal/infrastructure/search/milvus"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultHTTPPort   = 8080
	defaultGRPCPort   = 9090
	shutdownTimeout   = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using default configuration: %v\n", err)
		cfg = config.NewDefaultConfig()
	}

	actualHTTPPort := cfg.Server.HTTP.Port
	if *httpPort > 0 {
		actualHTTPPort = *httpPort
	}
	if actualHTTPPort == 0 {
		actualHTTPPort = defaultHTTPPort
	}

	actualGRPCPort := cfg.Server.GRPC.Port
	if *grpcPort > 0 {
		actualGRPCPort = *grpcPort
	}
	if actualGRPCPort == 0 {
		actualGRPCPort = defaultGRPCPort
	}

	logCfg := logging.LogConfig{
		Level:            logging.LevelInfo,
		Format:           cfg.Monitoring.Logging.Format,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EnableCaller:     true,
		ServiceName:      "tender-intel-apiserver",
	}
	if cfg.Monitoring.Logging.Output == "file" && cfg.Monitoring.Logging.FilePath != "" {
		logCfg.OutputPaths = append(logCfg.OutputPaths, cfg.Monitoring.Logging.FilePath)
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting tender-intel API server",
		logging.String("version", config.Version),
		logging.Int("http_port", actualHTTPPort),
		logging.Int("grpc_port", actualGRPCPort),
	)

	infra, err := initAPIServerInfrastructure(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize infrastructure", logging.Err(err))
		os.Exit(1)
	}
	defer infra.Close()

	pipeline, err := buildAPIServerPipeline(cfg, infra, logger)
	if err != nil {
		logger.Error("failed to build analysis pipeline", logging.Err(err))
		os.Exit(1)
	}

	routerCfg := httpserver.RouterConfig{
		AnalysisHandler:   handlers.NewAnalysisHandler(pipeline.orchestrator, pipeline.repo, logger),
		ComparisonHandler: handlers.NewComparisonHandler(pipeline.repo, comparison.New(), logger),
		ReportHandler:     handlers.NewReportHandler(pipeline.repo, report.New(), logger),
		HealthHandler:     buildHealthHandler(infra),

		// AuthMiddleware is intentionally left nil: no concrete
		// middleware.TokenValidator/APIKeyValidator backend exists yet, and
		// NewAuthMiddleware requires one of each. NewRouter treats a nil
		// AuthMiddleware as "no auth configured" rather than panicking, so
		// the API runs unauthenticated until a validator is wired in.
		CORSMiddleware:      middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()),
		LoggingMiddleware:   middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()),
		RateLimitMiddleware: middleware.RateLimit(middleware.NewTokenBucketLimiter(10, 20, 5*time.Minute), middleware.DefaultRateLimitConfig()),
		TenantMiddleware:    middleware.NewTenantMiddleware(middleware.DefaultTenantConfig(), logger),

		Logger: logger,
	}
	httpRouter := httpserver.NewRouter(routerCfg)

	httpSrv := httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Server.HTTP.Host,
		Port:            actualHTTPPort,
		ReadTimeout:     cfg.Server.HTTP.ReadTimeout,
		WriteTimeout:    cfg.Server.HTTP.WriteTimeout,
		MaxHeaderBytes:  cfg.Server.HTTP.MaxHeaderBytes,
		ShutdownTimeout: shutdownTimeout,
	}, httpRouter, logger)

	grpcCfg := cfg.Server.GRPC
	grpcCfg.Port = actualGRPCPort
	grpcSrv, err := grpcserver.NewServer(&grpcCfg, grpcserver.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize gRPC server", logging.Err(err))
		os.Exit(1)
	}
	// No .proto-generated service implementation exists anywhere in this
	// module for the analysis API, so nothing is registered via
	// grpcSrv.RegisterService; the listener still serves grpc_health_v1,
	// which is real and load-balancer-consumable on its own.

	serveCtx, cancelServe := context.WithCancel(context.Background())
	defer cancelServe()

	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- httpSrv.Start(serveCtx)
	}()

	go func() {
		logger.Info("gRPC server listening", logging.String("addr", grpcSrv.Addr()))
		if err := grpcSrv.Start(); err != nil {
			logger.Error("gRPC server error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down servers...")
	cancelServe()
	if err := <-httpErrCh; err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}

	grpcShutdownCtx, grpcCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer grpcCancel()
	if err := grpcSrv.Stop(grpcShutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", logging.Err(err))
	}

	logger.Info("servers stopped")
}

// loadConfig attempts to load configuration from file, returns error if not found.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.LoadFromFile(path)
}

// apiServerInfrastructure holds the infrastructure clients the API server
// keeps open for its lifetime: Postgres for health checks and future
// relational lookups, Redis for health checks, Neo4j for RUC verification,
// and (when configured) Milvus for semantic corpora.
type apiServerInfrastructure struct {
	pg     *pgxpool.Pool
	neo4j  *neo4jdriver.Driver
	redis  *redisclient.Client
	milvus *milvusclient.Client
}

func (a *apiServerInfrastructure) Close() {
	if a.milvus != nil {
		a.milvus.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.neo4j != nil {
		a.neo4j.Close()
	}
	if a.pg != nil {
		pgconn.Close(a.pg)
	}
}

func initAPIServerInfrastructure(cfg *config.Config, logger logging.Logger) (*apiServerInfrastructure, error) {
	infra := &apiServerInfrastructure{}

	pg, err := pgconn.NewConnectionPool(cfg.Database.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	infra.pg = pg

	if cfg.Database.Postgres.MigrationPath != "" {
		if err := pgconn.RunMigrations(pgconn.ConnString(cfg.Database.Postgres), cfg.Database.Postgres.MigrationPath); err != nil {
			infra.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		logger.Info("database migrations applied", logging.String("path", cfg.Database.Postgres.MigrationPath))
	}

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

	if cfg.Search.Milvus.Address != "" {
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
	}

	logger.Info("apiserver infrastructure initialized")
	return infra, nil
}

// apiServerPipeline bundles the repository and orchestrator the HTTP
// handlers share.
type apiServerPipeline struct {
	repo         document.Repository
	orchestrator *analysis.Orchestrator
}

// buildAPIServerPipeline wires the same agent stack cli.buildOrchestrator
// and the worker's buildWorkerPipeline use, sharing cfg.Worker.DataDir's
// JSON artifact repository so a document analyzed inline over HTTP and one
// processed off a Kafka topic land in the same store and resolve to the
// same run. Milvus- and Neo4j-backed corpora/verification are substituted
// in place of the in-memory/offline defaults when configured, exactly as
// the worker does.
func buildAPIServerPipeline(cfg *config.Config, infra *apiServerInfrastructure, logger logging.Logger) (*apiServerPipeline, error) {
	repo, err := localfs.New(cfg.Worker.DataDir)
	if err != nil {
		return nil, fmt.Errorf("artifact repository: %w", err)
	}

	dim := 32
	if len(cfg.Intelligence.Providers) > 0 && cfg.Intelligence.Providers[0].Dim > 0 {
		dim = cfg.Intelligence.Providers[0].Dim
	}
	embedder := embedding.NewHashProvider("tender-intel-apiserver", dim)

	var classifyStore, riskStore vectorstore.Store
	if infra.milvus != nil {
		classifyStore = milvusclient.NewStoreFromClient(infra.milvus, logger)
		riskStore = milvusclient.NewStoreFromClient(infra.milvus, logger)
		logger.Info("apiserver pipeline using Milvus-backed vector corpora")
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
		logger.Info("apiserver pipeline using Neo4j-backed RUC verification")
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

	return &apiServerPipeline{repo: repo, orchestrator: orch}, nil
}

// buildHealthHandler wires one HealthChecker per infrastructure dependency
// the API server keeps a live connection to.
func buildHealthHandler(infra *apiServerInfrastructure) *handlers.HealthHandler {
	checkers := []handlers.HealthChecker{
		&postgresHealthAdapter{pool: infra.pg},
		&redisHealthAdapter{client: infra.redis},
	}
	if infra.neo4j != nil {
		checkers = append(checkers, &neo4jHealthAdapter{driver: infra.neo4j})
	}
	return handlers.NewHealthHandler(config.Version, checkers...)
}
