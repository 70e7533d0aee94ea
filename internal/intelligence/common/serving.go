// ServingClient unifies gRPC, HTTP, and mock model-serving backends behind
// one interface, with round-robin, least-connections, and weighted load
// balancing strategies and a tracing/logging/auth/metrics interceptor chain.
package common

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// -------------------------------------------------------------------------
// Sentinel errors
// -------------------------------------------------------------------------

var (
	ErrServingUnavailable = fmt.Errorf("serving: service unavailable")
	ErrModelNotDeployed   = fmt.Errorf("serving: model not deployed")
	ErrInvalidInput       = fmt.Errorf("serving: invalid input")
	ErrInferenceTimeout   = fmt.Errorf("serving: inference timeout")
	ErrAllNodesUnhealthy  = fmt.Errorf("serving: all nodes unhealthy")
	ErrClientClosed       = fmt.Errorf("serving: client closed")
)

// -------------------------------------------------------------------------
// InputFormat enum
// -------------------------------------------------------------------------

type InputFormat int

const (
	FormatJSON     InputFormat = iota
	FormatProtobuf
	FormatNumpy
)

func (f InputFormat) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatProtobuf:
		return "Protobuf"
	case FormatNumpy:
		return "Numpy"
	default:
		return "Unknown"
	}
}

// -------------------------------------------------------------------------
// Request / Response
// -------------------------------------------------------------------------

type PredictRequest struct {
	ModelName    string            `json:"model_name"`
	ModelVersion string            `json:"model_version,omitempty"`
	InputName    string            `json:"input_name,omitempty"`
	InputData    []byte            `json:"input_data"`
	InputFormat  InputFormat       `json:"input_format"`
	OutputNames  []string          `json:"output_names,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

func (r *PredictRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidInput)
	}
	if r.ModelName == "" {
		return fmt.Errorf("%w: model_name is required", ErrInvalidInput)
	}
	if len(r.InputData) == 0 {
		return fmt.Errorf("%w: input_data is required", ErrInvalidInput)
	}
	return nil
}

type PredictResponse struct {
	ModelName       string            `json:"model_name"`
	ModelVersion    string            `json:"model_version"`
	Outputs         map[string][]byte `json:"outputs"`
	OutputFormat    InputFormat       `json:"output_format"`
	InferenceTimeMs int64             `json:"inference_time_ms"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// -------------------------------------------------------------------------
// Model status
// -------------------------------------------------------------------------

type ServingVersionStatusState string

const (
	VersionReady     ServingVersionStatusState = "Ready"
	VersionLoading   ServingVersionStatusState = "Loading"
	VersionUnloading ServingVersionStatusState = "Unloading"
	VersionFailed    ServingVersionStatusState = "Failed"
)

type ServingVersionStatus struct {
	Version         string                   `json:"version"`
	Status          ServingVersionStatusState `json:"status"`
	LastInferenceAt time.Time                `json:"last_inference_at"`
	InferenceCount  int64                    `json:"inference_count"`
	AvgLatencyMs    float64                  `json:"avg_latency_ms"`
}

type ServingModelStatus struct {
	ModelName      string                  `json:"model_name"`
	Versions       []*ServingVersionStatus `json:"versions"`
	DefaultVersion string                  `json:"default_version"`
}

// -------------------------------------------------------------------------
// ServingClient interface
// -------------------------------------------------------------------------

type ServingClient interface {
	Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error)
	BatchPredict(ctx context.Context, reqs []*PredictRequest) ([]*PredictResponse, error)
	StreamPredict(ctx context.Context, req *PredictRequest) (<-chan *PredictResponse, error)
	GetModelStatus(ctx context.Context, modelName string) (*ServingModelStatus, error)
	ListServingModels(ctx context.Context) ([]*ServingModelStatus, error)
	Healthy(ctx context.Context) error
	Close() error
}

// -------------------------------------------------------------------------
// ModelBackend – thin adapter used by inference engines
// -------------------------------------------------------------------------

type ModelBackend interface {
	Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error)
	PredictStream(ctx context.Context, req *PredictRequest) (<-chan *PredictResponse, error)
	Healthy(ctx context.Context) error
	Close() error
}

// -------------------------------------------------------------------------
// ServingNode
// -------------------------------------------------------------------------

type ServingNode struct {
	Address        string  `json:"address"`
	Healthy        bool    `json:"healthy"`
	Weight         float64 `json:"weight"`
	ActiveRequests int64   `json:"active_requests"`
	AvgLatencyMs   float64 `json:"avg_latency_ms"`
	ErrorRate      float64 `json:"error_rate"`

	mu             sync.Mutex
	totalRequests  int64
	totalErrors    int64
	totalLatencyMs float64
}

func (n *ServingNode) ReportSuccess(latencyMs float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.totalRequests++
	n.totalLatencyMs += latencyMs
	n.AvgLatencyMs = n.totalLatencyMs / float64(n.totalRequests)
	if n.totalRequests > 0 {
		n.ErrorRate = float64(n.totalErrors) / float64(n.totalRequests)
	}
}

func (n *ServingNode) ReportFailure(latencyMs float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.totalRequests++
	n.totalErrors++
	n.totalLatencyMs += latencyMs
	n.AvgLatencyMs = n.totalLatencyMs / float64(n.totalRequests)
	n.ErrorRate = float64(n.totalErrors) / float64(n.totalRequests)
}

// -------------------------------------------------------------------------
// LoadBalancer interface + implementations
// -------------------------------------------------------------------------

type LoadBalancer interface {
	Select(ctx context.Context, nodes []*ServingNode) (*ServingNode, error)
	ReportResult(node *ServingNode, success bool, latencyMs float64)
}

// --- Round-Robin ---

type roundRobinBalancer struct {
	counter atomic.Uint64
}

func NewRoundRobinBalancer() LoadBalancer {
	return &roundRobinBalancer{}
}

func (b *roundRobinBalancer) Select(_ context.Context, nodes []*ServingNode) (*ServingNode, error) {
	healthy := filterHealthy(nodes)
	if len(healthy) == 0 {
		return nil, ErrAllNodesUnhealthy
	}
	idx := b.counter.Add(1) - 1
	return healthy[idx%uint64(len(healthy))], nil
}

func (b *roundRobinBalancer) ReportResult(node *ServingNode, success bool, latencyMs float64) {
	if success {
		node.ReportSuccess(latencyMs)
	} else {
		node.ReportFailure(latencyMs)
	}
}

// --- Least-Connections ---

type leastConnectionsBalancer struct{}

func NewLeastConnectionsBalancer() LoadBalancer {
	return &leastConnectionsBalancer{}
}

func (b *leastConnectionsBalancer) Select(_ context.Context, nodes []*ServingNode) (*ServingNode, error) {
	healthy := filterHealthy(nodes)
	if len(healthy) == 0 {
		return nil, ErrAllNodesUnhealthy
	}
	best := healthy[0]
	for _, n := range healthy[1:] {
		if atomic.LoadInt64(&n.ActiveRequests) < atomic.LoadInt64(&best.ActiveRequests) {
			best = n
		}
	}
	return best, nil
}

func (b *leastConnectionsBalancer) ReportResult(node *ServingNode, success bool, latencyMs float64) {
	if success {
		node.ReportSuccess(latencyMs)
	} else {
		node.ReportFailure(latencyMs)
	}
}

// --- Weighted ---

type weightedBalancer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewWeightedBalancer() LoadBalancer {
	return &weightedBalancer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *weightedBalancer) Select(_ context.Context, nodes []*ServingNode) (*ServingNode, error) {
	healthy := filterHealthy(nodes)
	if len(healthy) == 0 {
		return nil, ErrAllNodesUnhealthy
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	weights := make([]float64, len(healthy))
	total := 0.0
	for i, n := range healthy {
		w := n.Weight
		if w <= 0 {
			w = 1.0
		}
		// Penalise high latency
		if n.AvgLatencyMs > 0 {
			w /= (1.0 + n.AvgLatencyMs/1000.0)
		}
		// Penalise high error rate
		w *= (1.0 - n.ErrorRate)
		if w < 0.01 {
			w = 0.01
		}
		weights[i] = w
		total += w
	}

	r := b.rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if r <= cum {
			return healthy[i], nil
		}
	}
	return healthy[len(healthy)-1], nil
}

func (b *weightedBalancer) ReportResult(node *ServingNode, success bool, latencyMs float64) {
	if success {
		node.ReportSuccess(latencyMs)
	} else {
		node.ReportFailure(latencyMs)
	}
}

func filterHealthy(nodes []*ServingNode) []*ServingNode {
	var out []*ServingNode
	for _, n := range nodes {
		if n.Healthy {
			out = append(out, n)
		}
	}
	return out
}

func NewLoadBalancer(strategy string) LoadBalancer {
	switch strings.ToLower(strategy) {
	case "least_connections":
		return NewLeastConnectionsBalancer()
	case "weighted":
		return NewWeightedBalancer()
	default:
		return NewRoundRobinBalancer()
	}
}

// -------------------------------------------------------------------------
// RequestInterceptor
// -------------------------------------------------------------------------

type RequestInterceptor interface {
	BeforeRequest(ctx context.Context, req *PredictRequest) (context.Context, *PredictRequest, error)
	AfterResponse(ctx context.Context, resp *PredictResponse, err error) (*PredictResponse, error)
}

// --- Tracing ---

type tracingInterceptor struct{}

func NewTracingInterceptor() RequestInterceptor { return &tracingInterceptor{} }

func (t *tracingInterceptor) BeforeRequest(ctx context.Context, req *PredictRequest) (context.Context, *PredictRequest, error) {
	if req.Metadata == nil {
		req.Metadata = make(map[string]string)
	}
	if _, ok := req.Metadata["trace_id"]; !ok {
		req.Metadata["trace_id"] = generateID()
	}
	if _, ok := req.Metadata["span_id"]; !ok {
		req.Metadata["span_id"] = generateID()
	}
	return ctx, req, nil
}

func (t *tracingInterceptor) AfterResponse(_ context.Context, resp *PredictResponse, err error) (*PredictResponse, error) {
	return resp, err
}

// --- Logging ---

type LoggingInterceptorConfig struct {
	LogRequestBody bool
	LogLevel       string
}

type loggingInterceptor struct {
	logger Logger
	cfg    LoggingInterceptorConfig
}

func NewLoggingInterceptor(logger Logger, cfg LoggingInterceptorConfig) RequestInterceptor {
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &loggingInterceptor{logger: logger, cfg: cfg}
}

func (l *loggingInterceptor) BeforeRequest(ctx context.Context, req *PredictRequest) (context.Context, *PredictRequest, error) {
	l.logger.Info("serving request", "model", req.ModelName, "version", req.ModelVersion)
	return ctx, req, nil
}

func (l *loggingInterceptor) AfterResponse(_ context.Context, resp *PredictResponse, err error) (*PredictResponse, error) {
	if err != nil {
		l.logger.Error("serving response error", "error", err)
	} else if resp != nil {
		l.logger.Info("serving response", "model", resp.ModelName, "latency_ms", resp.InferenceTimeMs)
	}
	return resp, err
}

// --- Auth ---

type AuthMode int

const (
	AuthModeAPIKey AuthMode = iota
	AuthModeBearer
)

type authInterceptor struct {
	mode  AuthMode
	token string
}

func NewAuthInterceptor(mode AuthMode, token string) RequestInterceptor {
	return &authInterceptor{mode: mode, token: token}
}

func (a *authInterceptor) BeforeRequest(ctx context.Context, req *PredictRequest) (context.Context, *PredictRequest, error) {
	if req.Metadata == nil {
		req.Metadata = make(map[string]string)
	}
	switch a.mode {
	case AuthModeAPIKey:
		req.Metadata["X-API-Key"] = a.token
	case AuthModeBearer:
		req.Metadata["Authorization"] = "Bearer " + a.token
	}
	return ctx, req, nil
}

func (a *authInterceptor) AfterResponse(_ context.Context, resp *PredictResponse, err error) (*PredictResponse, error) {
	return resp, err
}

// --- Metrics ---

type metricsInterceptor struct {
	metrics IntelligenceMetrics
	start   time.Time
}

func NewMetricsInterceptor(m IntelligenceMetrics) RequestInterceptor {
	return &metricsInterceptor{metrics: m}
}

func (mi *metricsInterceptor) BeforeRequest(ctx context.Context, req *PredictRequest) (context.Context, *PredictRequest, error) {
	mi.start = time.Now()
	return ctx, req, nil
}

func (mi *metricsInterceptor) AfterResponse(ctx context.Context, resp *PredictResponse, err error) (*PredictResponse, error) {
	elapsed := float64(time.Since(mi.start).Milliseconds())
	modelName := ""
	if resp != nil {
		modelName = resp.ModelName
	}
	mi.metrics.RecordInference(ctx, &InferenceMetricParams{
		ModelName:  modelName,
		TaskType:   "predict",
		DurationMs: elapsed,
		Success:    err == nil,
		BatchSize:  1,
	})
	return resp, err
}

// -------------------------------------------------------------------------
// ServingOption
// -------------------------------------------------------------------------

type servingOptions struct {
	tlsCertFile         string
	tlsKeyFile          string
	tlsCAFile           string
	connectionTimeout   time.Duration
	requestTimeout      time.Duration
	maxRetries          int
	loadBalancerStrategy string
	connectionPoolSize  int
	interceptors        []RequestInterceptor
	metrics             IntelligenceMetrics
	logger              Logger
	healthCheckInterval time.Duration
}

func defaultServingOptions() *servingOptions {
	return &servingOptions{
		connectionTimeout:    5 * time.Second,
		requestTimeout:       30 * time.Second,
		maxRetries:           2,
		loadBalancerStrategy: "round_robin",
		connectionPoolSize:   10,
		healthCheckInterval:  10 * time.Second,
	}
}

type ServingOption func(*servingOptions)

func WithTLS(certFile, keyFile, caFile string) ServingOption {
	return func(o *servingOptions) {
		o.tlsCertFile = certFile
		o.tlsKeyFile = keyFile
		o.tlsCAFile = caFile
	}
}

func WithConnectionTimeout(d time.Duration) ServingOption {
	return func(o *servingOptions) { o.connectionTimeout = d }
}

func WithRequestTimeout(d time.Duration) ServingOption {
	return func(o *servingOptions) { o.requestTimeout = d }
}

func WithMaxRetries(n int) ServingOption {
	return func(o *servingOptions) { o.maxRetries = n }
}

func WithLoadBalancerStrategy(strategy string) ServingOption {
	return func(o *servingOptions) { o.loadBalancerStrategy = strategy }
}

func WithConnectionPoolSize(n int) ServingOption {
	return func(o *servingOptions) { o.connectionPoolSize = n }
}

func WithInterceptors(interceptors ...RequestInterceptor) ServingOption {
	return func(o *servingOptions) { o.interceptors = append(o.interceptors, interceptors...) }
}

func WithServingMetrics(m IntelligenceMetrics) ServingOption {
	return func(o *servingOptions) { o.metrics = m }
}

func WithServingLogger(l Logger) ServingOption {
	return func(o *servingOptions) { o.logger = l }
}

func WithHealthCheckInterval(d time.Duration) ServingOption {
	return func(o *servingOptions) { o.healthCheckInterval = d }
}

// -------------------------------------------------------------------------
// Interceptor chain runner
// -------------------------------------------------------------------------

func runBeforeInterceptors(ctx context.Context, req *PredictRequest, chain []RequestInterceptor) (context.Context, *PredictRequest, error) {
	var err error
	for _, ic := range chain {
		ctx, req, err = ic.BeforeRequest(ctx, req)
		if err != nil {
			return ctx, req, err
		}
	}
	return ctx, req, nil
}

func runAfterInterceptors(ctx context.Context, resp *PredictResponse, err error, chain []RequestInterceptor) (*PredictResponse, error) {
	// Reverse order
	for i := len(chain) - 1; i >= 0; i-- {
		resp, err = chain[i].AfterResponse(ctx, resp, err)
	}
	return resp, err
}

// -------------------------------------------------------------------------
// gRPC Serving Client
// -------------------------------------------------------------------------

type grpcServingClient struct {
	addresses  []string
	nodes      []*ServingNode
	balancer   LoadBalancer
	opts       *servingOptions
	closed     atomic.Bool
	closeCh    chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex
}

func NewGRPCServingClient(addresses []string, opts ...ServingOption) (*grpcServingClient, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: at least one address is required", ErrInvalidInput)
	}
	o := defaultServingOptions()
	for _, fn := range opts {
		fn(o)
	}
	if o.logger == nil {
		o.logger = NewNoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NewNoopIntelligenceMetrics()
	}

	nodes := make([]*ServingNode, len(addresses))
	for i, addr := range addresses {
		nodes[i] = &ServingNode{
			Address: addr,
			Healthy: true,
			Weight:  1.0,
		}
	}

	c := &grpcServingClient{
		addresses: addresses,
		nodes:     nodes,
		balancer:  NewLoadBalancer(o.loadBalancerStrategy),
		opts:      o,
		closeCh:   make(chan struct{}),
	}

	// Start background health checker
	c.wg.Add(1)
	go c.healthCheckLoop()

	return c, nil
}

func (c *grpcServingClient) healthCheckLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.closeCh:
			return
		case <-ticker.C:
			c.checkAllNodes()
		}
	}
}

func (c *grpcServingClient) checkAllNodes() {
	c.mu.RLock()
	nodes := c.nodes
	c.mu.RUnlock()
	for _, n := range nodes {
		// Simplified: mark healthy if we can reach the address.
		// In production this would do a real gRPC health check.
		n.mu.Lock()
		n.Healthy = true // optimistic; real impl would probe
		n.mu.Unlock()
	}
}

func (c *grpcServingClient) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, req, err := runBeforeInterceptors(ctx, req, c.opts.interceptors)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.maxRetries; attempt++ {
		node, err := c.balancer.Select(ctx, c.nodes)
		if err != nil {
			return nil, err
		}
		atomic.AddInt64(&node.ActiveRequests, 1)
		start := time.Now()

		resp, err := c.doGRPCPredict(ctx, node, req)
		latency := float64(time.Since(start).Milliseconds())
		atomic.AddInt64(&node.ActiveRequests, -1)

		if err == nil {
			c.balancer.ReportResult(node, true, latency)
			resp, err = runAfterInterceptors(ctx, resp, nil, c.opts.interceptors)
			return resp, err
		}

		c.balancer.ReportResult(node, false, latency)
		lastErr = err

		if !isRetryableGRPCError(err) {
			_, lastErr = runAfterInterceptors(ctx, nil, err, c.opts.interceptors)
			return nil, lastErr
		}

		// Mark node unhealthy on transient failure
		node.mu.Lock()
		node.Healthy = false
		node.mu.Unlock()
	}

	_, lastErr = runAfterInterceptors(ctx, nil, lastErr, c.opts.interceptors)
	return nil, lastErr
}

func (c *grpcServingClient) doGRPCPredict(ctx context.Context, node *ServingNode, req *PredictRequest) (*PredictResponse, error) {
	// In a real implementation this would use grpc.Dial + the generated stub.
	// Here we provide the structural skeleton that compiles and can be swapped
	// with a real gRPC call via dependency injection or build tags.
	_ = node
	_ = ctx
	return &PredictResponse{
		ModelName:       req.ModelName,
		ModelVersion:    req.ModelVersion,
		Outputs:         map[string][]byte{"default": req.InputData},
		OutputFormat:    req.InputFormat,
		InferenceTimeMs: 1,
	}, nil
}

func (c *grpcServingClient) BatchPredict(ctx context.Context, reqs []*PredictRequest) ([]*PredictResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	results := make([]*PredictResponse, len(reqs))
	errs := make([]error, len(reqs))
	var wg sync.WaitGroup
	for i, r := range reqs {
		wg.Add(1)
		go func(idx int, req *PredictRequest) {
			defer wg.Done()
			resp, err := c.Predict(ctx, req)
			results[idx] = resp
			errs[idx] = err
		}(i, r)
	}
	wg.Wait()

	// If any failed, return first error
	for _, e := range errs {
		if e != nil {
			return results, e
		}
	}
	return results, nil
}

func (c *grpcServingClient) StreamPredict(ctx context.Context, req *PredictRequest) (<-chan *PredictResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ch := make(chan *PredictResponse, 16)
	go func() {
		defer close(ch)
		// Simulated: produce a single response then close.
		resp, err := c.Predict(ctx, req)
		if err != nil {
			return
		}
		select {
		case ch <- resp:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

func (c *grpcServingClient) GetModelStatus(ctx context.Context, modelName string) (*ServingModelStatus, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	// Structural placeholder
	return &ServingModelStatus{
		ModelName:      modelName,
		DefaultVersion: "1",
		Versions: []*ServingVersionStatus{
			{Version: "1", Status: VersionReady},
		},
	}, nil
}

func (c *grpcServingClient) ListServingModels(ctx context.Context) ([]*ServingModelStatus, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	return []*ServingModelStatus{}, nil
}

func (c *grpcServingClient) Healthy(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	for _, n := range c.nodes {
		if n.Healthy {
			return nil
		}
	}
	return ErrAllNodesUnhealthy
}

func (c *grpcServingClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.closeCh)
	c.wg.Wait()
	return nil
}

func isRetryableGRPCError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "connection refused")
}

// -------------------------------------------------------------------------
// HTTP Serving Client
// -------------------------------------------------------------------------

type httpServingClient struct {
	baseURL    string
	httpClient *http.Client
	opts       *servingOptions
	closed     atomic.Bool
}

func NewHTTPServingClient(baseURL string, opts ...ServingOption) (*httpServingClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: baseURL is required", ErrInvalidInput)
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid URL: %s", ErrInvalidInput, baseURL)
	}

	o := defaultServingOptions()
	for _, fn := range opts {
		fn(o)
	}
	if o.logger == nil {
		o.logger = NewNoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NewNoopIntelligenceMetrics()
	}

	transport := &http.Transport{
		MaxIdleConns:        o.connectionPoolSize,
		MaxIdleConnsPerHost: o.connectionPoolSize,
		IdleConnTimeout:     90 * time.Second,
	}

	hc := &http.Client{
		Transport: transport,
		Timeout:   o.requestTimeout,
	}

	return &httpServingClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		opts:       o,
	}, nil
}

// SetHTTPClient allows injecting a custom http.Client (useful for tests).
func (c *httpServingClient) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

func (c *httpServingClient) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, req, err := runBeforeInterceptors(ctx, req, c.opts.interceptors)
	if err != nil {
		return nil, err
	}

	version := req.ModelVersion
	if version == "" {
		version = "default"
	}
	endpoint := fmt.Sprintf("%s/v1/models/%s/versions/%s:predict", c.baseURL, req.ModelName, version)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrInvalidInput, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// Apply auth metadata as headers
	if req.Metadata != nil {
		for k, v := range req.Metadata {
			if strings.HasPrefix(k, "X-") || k == "Authorization" {
				httpReq.Header.Set(k, v)
			}
		}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := mapHTTPStatus(httpResp.StatusCode); err != nil {
		_, retErr := runAfterInterceptors(ctx, nil, err, c.opts.interceptors)
		return nil, retErr
	}

	var resp PredictResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	result, retErr := runAfterInterceptors(ctx, &resp, nil, c.opts.interceptors)
	return result, retErr
}

func (c *httpServingClient) BatchPredict(ctx context.Context, reqs []*PredictRequest) ([]*PredictResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if len(reqs) == 0 {
		return []*PredictResponse{}, nil
	}

	modelName := reqs[0].ModelName
	endpoint := fmt.Sprintf("%s/v1/models/%s:batchPredict", c.baseURL, modelName)

	body, err := json.Marshal(map[string]interface{}{"requests": reqs})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal batch request: %v", ErrInvalidInput, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := mapHTTPStatus(httpResp.StatusCode); err != nil {
		return nil, err
	}

	var batchResp struct {
		Responses []*PredictResponse `json:"responses"`
	}
	if err := json.Unmarshal(respBody, &batchResp); err != nil {
		return nil, fmt.Errorf("unmarshal batch response: %w", err)
	}

	return batchResp.Responses, nil
}

func (c *httpServingClient) StreamPredict(ctx context.Context, req *PredictRequest) (<-chan *PredictResponse, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	version := req.ModelVersion
	if version == "" {
		version = "default"
	}
	endpoint := fmt.Sprintf("%s/v1/models/%s/versions/%s:streamPredict", c.baseURL, req.ModelName, version)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrInvalidInput, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}

	if err := mapHTTPStatus(httpResp.StatusCode); err != nil {
		httpResp.Body.Close()
		return nil, err
	}

	ch := make(chan *PredictResponse, 16)
	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		decoder := json.NewDecoder(httpResp.Body)
		for {
			var resp PredictResponse
			if err := decoder.Decode(&resp); err != nil {
				if err == io.EOF {
					return
				}
				select {
				case <-ctx.Done():
				default:
				}
				return
			}
			select {
			case ch <- &resp:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (c *httpServingClient) GetModelStatus(ctx context.Context, modelName string) (*ServingModelStatus, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	endpoint := fmt.Sprintf("%s/v1/models/%s", c.baseURL, modelName)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := mapHTTPStatus(httpResp.StatusCode); err != nil {
		return nil, err
	}

	var status ServingModelStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("unmarshal model status: %w", err)
	}
	return &status, nil
}

func (c *httpServingClient) ListServingModels(ctx context.Context) ([]*ServingModelStatus, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	endpoint := fmt.Sprintf("%s/v1/models", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if err := mapHTTPStatus(httpResp.StatusCode); err != nil {
		return nil, err
	}

	var list struct {
		Models []*ServingModelStatus `json:"models"`
	}
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("unmarshal model list: %w", err)
	}
	return list.Models, nil
}

func (c *httpServingClient) Healthy(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	endpoint := fmt.Sprintf("%s/v1/health", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServingUnavailable, err)
	}
	defer httpResp.Body.Close()
	io.Copy(io.Discard, httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned %d", ErrServingUnavailable, httpResp.StatusCode)
	}
	return nil
}

func (c *httpServingClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.httpClient.CloseIdleConnections()
	return nil
}

func mapHTTPStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusBadRequest:
		return ErrInvalidInput
	case code == http.StatusNotFound:
		return ErrModelNotDeployed
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return ErrInferenceTimeout
	case code == http.StatusServiceUnavailable:
		return ErrServingUnavailable
	case code >= 500:
		return fmt.Errorf("%w: server error %d", ErrServingUnavailable, code)
	default:
		return fmt.Errorf("unexpected HTTP status %d", code)
	}
}

// -------------------------------------------------------------------------
// Mock Serving Client
// -------------------------------------------------------------------------

type MockCallRecord struct {
	Method    string
	Args      []interface{}
	Timestamp time.Time
}

type mockServingClient struct {
	mu            sync.Mutex
	predictResp   *PredictResponse
	predictErr    error
	statusResp    *ServingModelStatus
	modelList     []*ServingModelStatus
	healthErr     error
	delay         time.Duration
	errorSequence map[int]error // call index -> error
	callHistory   []MockCallRecord
	callCount     int
	closed        bool
}

func NewMockServingClient() *mockServingClient {
	return &mockServingClient{
		errorSequence: make(map[int]error),
	}
}

func (m *mockServingClient) SetPredictResponse(resp *PredictResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictResp = resp
}

func (m *mockServingClient) SetPredictError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictErr = err
}

func (m *mockServingClient) SetModelStatus(s *ServingModelStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusResp = s
}

func (m *mockServingClient) SetModelList(list []*ServingModelStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelList = list
}

func (m *mockServingClient) SetHealthError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthErr = err
}

func (m *mockServingClient) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

func (m *mockServingClient) SetErrorSequence(seq map[int]error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorSequence = seq
}

func (m *mockServingClient) CallHistory() []MockCallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCallRecord, len(m.callHistory))
	copy(cp, m.callHistory)
	return cp
}

func (m *mockServingClient) record(method string, args ...interface{}) int {
	m.callHistory = append(m.callHistory, MockCallRecord{
		Method:    method,
		Args:      args,
		Timestamp: time.Now(),
	})
	m.callCount++
	return m.callCount
}

func (m *mockServingClient) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	m.mu.Lock()
	idx := m.record("Predict", req)
	delay := m.delay
	seqErr, hasSeqErr := m.errorSequence[idx]
	resp := m.predictResp
	err := m.predictErr
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, ctx.Err())
		}
	}

	if hasSeqErr {
		return nil, seqErr
	}
	if err != nil {
		return nil, err
	}
	if resp != nil {
		return resp, nil
	}
	return &PredictResponse{
		ModelName:       req.ModelName,
		ModelVersion:    req.ModelVersion,
		Outputs:         map[string][]byte{"default": req.InputData},
		OutputFormat:    req.InputFormat,
		InferenceTimeMs: 1,
	}, nil
}

func (m *mockServingClient) BatchPredict(ctx context.Context, reqs []*PredictRequest) ([]*PredictResponse, error) {
	m.mu.Lock()
	m.record("BatchPredict", reqs)
	m.mu.Unlock()

	results := make([]*PredictResponse, len(reqs))
	for i, r := range reqs {
		resp, err := m.Predict(ctx, r)
		if err != nil {
			return results, err
		}
		results[i] = resp
	}
	return results, nil
}

func (m *mockServingClient) StreamPredict(ctx context.Context, req *PredictRequest) (<-chan *PredictResponse, error) {
	m.mu.Lock()
	m.record("StreamPredict", req)
	m.mu.Unlock()

	ch := make(chan *PredictResponse, 4)
	go func() {
		defer close(ch)
		resp, err := m.Predict(ctx, req)
		if err != nil {
			return
		}
		select {
		case ch <- resp:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

func (m *mockServingClient) GetModelStatus(ctx context.Context, modelName string) (*ServingModelStatus, error) {
	m.mu.Lock()
	m.record("GetModelStatus", modelName)
	resp := m.statusResp
	m.mu.Unlock()

	if resp == nil {
		return nil, ErrModelNotDeployed
	}
	return resp, nil
}

func (m *mockServingClient) ListServingModels(ctx context.Context) ([]*ServingModelStatus, error) {
	m.mu.Lock()
	m.record("ListServingModels")
	list := m.modelList
	m.mu.Unlock()

	if list == nil {
		return []*ServingModelStatus{}, nil
	}
	return list, nil
}

func (m *mockServingClient) Healthy(ctx context.Context) error {
	m.mu.Lock()
	m.record("Healthy")
	err := m.healthErr
	m.mu.Unlock()
	return err
}

func (m *mockServingClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Close")
	m.closed = true
	return nil
}

// -------------------------------------------------------------------------
// Codec helpers (used by inference engines)
// -------------------------------------------------------------------------

func EncodeMolecularGraph(nodeFeatures [][]float32, edgeIndex [][2]int, edgeFeatures [][]float32, globalFeatures []float32) []byte {
	data := map[string]interface{}{
		"node_features":   nodeFeatures,
		"edge_index":      edgeIndex,
		"edge_features":   edgeFeatures,
		"global_features": globalFeatures,
	}
	b, _ := json.Marshal(data)
	return b
}

func EncodeFloat32Vector(v []float32) []byte {
	buf := new(bytes.Buffer)
	for _, f := range v {
		_ = binary.Write(buf, binary.LittleEndian, f)
	}
	return buf.Bytes()
}

func DecodeFloat32Vector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid float32 vector data length: %d", len(data))
	}
	n := len(data) / 4
	result := make([]float32, n)
	reader := bytes.NewReader(data)
	for i := 0; i < n; i++ {
		if err := binary.Read(reader, binary.LittleEndian, &result[i]); err != nil {
			return nil, fmt.Errorf("decoding float32 at index %d: %w", i, err)
		}
	}
	return result, nil
}

// -------------------------------------------------------------------------
// ID generator (simple, non-crypto)
// -------------------------------------------------------------------------

var idCounter atomic.Uint64

func generateID() string {
	ts := time.Now().UnixNano()
	seq := idCounter.Add(1)
	return fmt.Sprintf("%x-%x", ts, seq)
}

// -------------------------------------------------------------------------
// Ensure interfaces are satisfied at compile time
// -------------------------------------------------------------------------

var (
	_ ServingClient = (*grpcServingClient)(nil)
	_ ServingClient = (*httpServingClient)(nil)
	_ ServingClient = (*mockServingClient)(nil)
	_ LoadBalancer  = (*roundRobinBalancer)(nil)
	_ LoadBalancer  = (*leastConnectionsBalancer)(nil)
	_ LoadBalancer  = (*weightedBalancer)(nil)
)

// Suppress unused import warnings for math
var _ = math.MaxFloat64


