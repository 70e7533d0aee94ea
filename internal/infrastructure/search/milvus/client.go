package milvus

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// MilvusClientFactory defines the signature for creating a Milvus client
type MilvusClientFactory func(ctx context.Context, conf client.Config) (client.Client, error)

// milvusNewClient is a variable to allow mocking in tests
var milvusNewClient MilvusClientFactory = client.NewClient

var (
	ErrInvalidConfig    = errors.New(errors.CodeInvalidParam, "invalid configuration")
	ErrConnectionFailed = errors.New(errors.CodeInternal, "connection failed")
	ErrUnhealthy        = errors.New(errors.CodeSearchError, "service unhealthy")
)

// ClientConfig holds the configuration for the Milvus client.
type ClientConfig struct {
	Address             string
	Username            string
	Password            string
	DBName              string
	TLSEnabled          bool
	TLSCertPath         string
	TLSServerName       string
	ConnectTimeout      time.Duration
	RequestTimeout      time.Duration
	MaxRetries          int
	RetryBackoff        time.Duration
	HealthCheckInterval time.Duration
	KeepAliveTime       time.Duration
	KeepAliveTimeout    time.Duration
}

// Client manages the Milvus client connection.
type Client struct {
	milvusClient client.Client
	config       ClientConfig
	logger       logging.Logger
	healthy      atomic.Bool
	cancel       context.CancelFunc
	mu           sync.RWMutex
}

// NewClient creates a new Milvus client.
func NewClient(cfg ClientConfig, logger logging.Logger) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	// Fill defaults
	if cfg.DBName == "" {
		cfg.DBName = "default"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
	if cfg.KeepAliveTime == 0 {
		cfg.KeepAliveTime = 60 * time.Second
	}
	if cfg.KeepAliveTimeout == 0 {
		cfg.KeepAliveTimeout = 20 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	// Connect immediately
	mc, err := connect(ctx, cfg)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create milvus client")
	}

	c := &Client{
		milvusClient: mc,
		config:       cfg,
		logger:       logger,
		cancel:       cancel,
	}

	// Verify connectivity
	if err := c.CheckHealth(ctx); err != nil {
		c.Close() // cleanup
		return nil, ErrConnectionFailed
	}

	go c.startHealthCheck(ctx)

	logger.Info("Milvus client connected", logging.String("address", cfg.Address))
	return c, nil
}

func connect(ctx context.Context, cfg ClientConfig) (client.Client, error) {
	// Build Milvus config
	milvusCfg := client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.DBName,
	}

	var dialOpts []grpc.DialOption

	// TLS Configuration
	if cfg.TLSEnabled {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: true, // Default to insecure if no cert provided? Or strict?
			ServerName:         cfg.TLSServerName,
		}
		if cfg.TLSCertPath != "" {
			caCert, err := os.ReadFile(cfg.TLSCertPath)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeInvalidParam, "failed to read TLS cert")
			}
			caCertPool := x509.NewCertPool()
			if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
				return nil, errors.New(errors.CodeInvalidParam, "failed to parse TLS cert")
			}
			tlsConfig.RootCAs = caCertPool
			tlsConfig.InsecureSkipVerify = false
		}
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
		milvusCfg.EnableTLSAuth = true
	} else {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	// KeepAlive Configuration
	kp := keepalive.ClientParameters{
		Time:                cfg.KeepAliveTime,
		Timeout:             cfg.KeepAliveTimeout,
		PermitWithoutStream: true,
	}
	dialOpts = append(dialOpts, grpc.WithKeepaliveParams(kp))

	// Assign DialOptions to config
	milvusCfg.DialOptions = dialOpts

	// Apply ConnectTimeout via context
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	return milvusNewClient(connectCtx, milvusCfg)
}

// CheckHealth checks the connection to Milvus.
func (c *Client) CheckHealth(ctx context.Context) error {
	c.mu.RLock()
	mc := c.milvusClient
	c.mu.RUnlock()

	if mc == nil {
		return ErrConnectionFailed
	}

	_, err := mc.CheckHealth(ctx)
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("Milvus health check failed", logging.Error(err))
		return ErrUnhealthy
	}

	c.healthy.Store(true)
	return nil
}

// IsHealthy returns the current health status of the client.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// GetMilvusClient returns the underlying Milvus client.
func (c *Client) GetMilvusClient() client.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.milvusClient
}

// GetServerVersion returns the server version.
func (c *Client) GetServerVersion(ctx context.Context) (string, error) {
	c.mu.RLock()
	mc := c.milvusClient
	c.mu.RUnlock()
	return mc.GetVersion(ctx)
}

// Close closes the client.
func (c *Client) Close() error {
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.milvusClient != nil {
		c.milvusClient.Close()
	}
	c.logger.Info("Milvus client closed")
	return nil
}

func (c *Client) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	failures := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.CheckHealth(ctx)
			curr := c.healthy.Load()

			if prev && !curr {
				failures++
				c.logger.Error("Milvus cluster became unhealthy", logging.Error(err))
			} else if !prev && curr {
				failures = 0
				c.logger.Info("Milvus cluster recovered")
			} else if !prev && !curr {
				failures++
			} else {
				failures = 0
			}

			if failures >= 3 {
				c.logger.Warn("Milvus consecutive failures, attempting reconnect")
				if err := c.reconnect(ctx); err != nil {
					c.logger.Error("Milvus reconnect failed", logging.Error(err))
				} else {
					failures = 0
				}
			}
		}
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Close old client
	if c.milvusClient != nil {
		c.milvusClient.Close()
	}

	// Create new client
	mc, err := connect(ctx, c.config)
	if err != nil {
		return err
	}

	c.milvusClient = mc
	c.logger.Warn("Milvus client reconnected")
	return nil
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg ClientConfig) error {
	if cfg.Address == "" {
		return errors.New(errors.CodeInvalidParam, "Address is required")
	}
	if cfg.ConnectTimeout < 0 {
		return errors.New(errors.CodeInvalidParam, "ConnectTimeout must be >= 0")
	}
	if cfg.RequestTimeout < 0 {
		return errors.New(errors.CodeInvalidParam, "RequestTimeout must be >= 0")
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.CodeInvalidParam, "MaxRetries must be >= 0")
	}
	if cfg.TLSEnabled && cfg.TLSCertPath == "" {
		return errors.New(errors.CodeInvalidParam, "TLSCertPath required when TLSEnabled is true")
	}
	return nil
}

