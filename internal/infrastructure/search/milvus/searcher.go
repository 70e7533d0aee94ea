package milvus

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/tender-intel/pkg/errors"
	"github.com/turtacn/tender-intel/pkg/types/common"
	"golang.org/x/sync/errgroup"
)

// InsertRequest carries one batch of rows to insert into a collection. Data
// is row-major: one map per entity, keyed by field name. Kept local to this
// package (rather than pkg/types/common) because the row shape is
// Milvus-specific — callers outside this adapter go through vectorstore.Item
// instead, see store.go.
type InsertRequest struct {
	CollectionName string
	Data           []map[string]interface{}
}

// InsertResult reports the primary keys Milvus assigned to an insert batch.
type InsertResult struct {
	IDs           []int64
	InsertedCount int64
}

// VectorSearchRequest describes one nearest-neighbour query (or a batch of
// queries sharing the same collection/field/params, one per entry in
// Vectors).
type VectorSearchRequest struct {
	CollectionName      string
	VectorFieldName     string
	Vectors             [][]float32
	TopK                int
	Filters             string
	OutputFields        []string
	MetricType          string
	SearchParams        map[string]interface{}
	GuaranteeTimestamp  uint64
}

// VectorSearchResult holds one result set per query vector in the request.
type VectorSearchResult struct {
	Results [][]common.VectorHit
	TookMs  int64
}

// SearcherConfig holds configuration for the Searcher.
type SearcherConfig struct {
	DefaultTopK      int
	MaxTopK          int
	DefaultNProbe    int
	DefaultEf        int
	SearchTimeout    time.Duration
	InsertBatchSize  int
	InsertTimeout    time.Duration
	ConsistencyLevel entity.ConsistencyLevel
}

// Reranker interface for fusing search results.
type Reranker interface {
	Rerank(results [][]common.VectorHit, topK int) []common.VectorHit
}

// RRFReranker implements Reciprocal Rank Fusion.
type RRFReranker struct {
	K int
}

func (r *RRFReranker) Rerank(results [][]common.VectorHit, topK int) []common.VectorHit {
	if r.K <= 0 {
		r.K = 60
	}
	scores := make(map[int64]float32)
	fields := make(map[int64]map[string]interface{})

	for _, resultList := range results {
		for rank, hit := range resultList {
			score := 1.0 / float32(r.K+rank+1)
			scores[hit.ID] += score
			if fields[hit.ID] == nil {
				fields[hit.ID] = hit.Fields
			}
		}
	}

	hits := make([]common.VectorHit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, common.VectorHit{
			ID:     id,
			Score:  score,
			Fields: fields[id],
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// WeightedReranker implements weighted fusion.
type WeightedReranker struct {
	Weights []float32
}

func (r *WeightedReranker) Rerank(results [][]common.VectorHit, topK int) []common.VectorHit {
	if len(results) != len(r.Weights) {
		return nil
	}

	scores := make(map[int64]float32)
	fields := make(map[int64]map[string]interface{})

	for i, resultList := range results {
		w := r.Weights[i]
		for _, hit := range resultList {
			scores[hit.ID] += hit.Score * w
			if fields[hit.ID] == nil {
				fields[hit.ID] = hit.Fields
			}
		}
	}

	hits := make([]common.VectorHit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, common.VectorHit{
			ID:     id,
			Score:  score,
			Fields: fields[id],
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Searcher performs vector operations.
type Searcher struct {
	client        *Client
	collectionMgr *CollectionManager
	config        SearcherConfig
	logger        logging.Logger
}

// NewSearcher creates a new Searcher.
func NewSearcher(client *Client, collMgr *CollectionManager, cfg SearcherConfig, logger logging.Logger) *Searcher {
	if cfg.DefaultTopK == 0 {
		cfg.DefaultTopK = 10
	}
	if cfg.MaxTopK == 0 {
		cfg.MaxTopK = 16384
	}
	if cfg.DefaultNProbe == 0 {
		cfg.DefaultNProbe = 16
	}
	if cfg.DefaultEf == 0 {
		cfg.DefaultEf = 64
	}
	if cfg.SearchTimeout == 0 {
		cfg.SearchTimeout = 10 * time.Second
	}
	if cfg.InsertBatchSize == 0 {
		cfg.InsertBatchSize = 1000
	}
	if cfg.InsertTimeout == 0 {
		cfg.InsertTimeout = 60 * time.Second
	}
	if cfg.ConsistencyLevel == 0 {
		cfg.ConsistencyLevel = entity.ClBounded
	}

	return &Searcher{
		client:        client,
		collectionMgr: collMgr,
		config:        cfg,
		logger:        logger,
	}
}

// Insert inserts vectors into Milvus.
func (s *Searcher) Insert(ctx context.Context, req InsertRequest) (*InsertResult, error) {
	if req.CollectionName == "" {
		return nil, errors.New(errors.CodeInvalidParam, "CollectionName is required")
	}
	if len(req.Data) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "Data is empty")
	}

	total := len(req.Data)
	batchSize := s.config.InsertBatchSize
	result := &InsertResult{}

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}

		batchData := req.Data[start:end]
		columns, err := s.convertToColumns(ctx, req.CollectionName, batchData)
		if err != nil {
			return nil, err
		}

		idCol, err := s.client.GetMilvusClient().Insert(ctx, req.CollectionName, "", columns...)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "failed to insert vectors")
		}

		if idCol != nil && idCol.Name() == "id" {
			if col, ok := idCol.(*entity.ColumnInt64); ok {
				result.IDs = append(result.IDs, col.Data()...)
			}
		}
		result.InsertedCount += int64(len(batchData))
	}

	s.logger.Info("Inserted entities", logging.String("collection", req.CollectionName), logging.Int64("count", result.InsertedCount))
	return result, nil
}

// Upsert updates or inserts vectors.
func (s *Searcher) Upsert(ctx context.Context, req InsertRequest) (*InsertResult, error) {
	if req.CollectionName == "" {
		return nil, errors.New(errors.CodeInvalidParam, "CollectionName is required")
	}

	columns, err := s.convertToColumns(ctx, req.CollectionName, req.Data)
	if err != nil {
		return nil, err
	}

	idCol, err := s.client.GetMilvusClient().Upsert(ctx, req.CollectionName, "", columns...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to upsert vectors")
	}

	result := &InsertResult{InsertedCount: int64(len(req.Data))}
	if idCol != nil && idCol.Name() == "id" {
		if col, ok := idCol.(*entity.ColumnInt64); ok {
			result.IDs = append(result.IDs, col.Data()...)
		}
	}

	return result, nil
}

// Delete deletes vectors by ID.
func (s *Searcher) Delete(ctx context.Context, collectionName string, ids []int64) error {
	if len(ids) == 0 {
		return errors.New(errors.CodeInvalidParam, "IDs cannot be empty")
	}

	expr := fmt.Sprintf("id in [%s]", getJoinedIDs(ids))

	err := s.client.GetMilvusClient().Delete(ctx, collectionName, "", expr)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to delete vectors")
	}

	s.logger.Info("Deleted entities", logging.String("collection", collectionName), logging.Int("count", len(ids)))
	return nil
}

func getJoinedIDs(ids []int64) string {
	var b []byte
	for i, id := range ids {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, fmt.Sprint(id)...)
	}
	return string(b)
}

// Search executes a vector search.
func (s *Searcher) Search(ctx context.Context, req VectorSearchRequest) (*VectorSearchResult, error) {
	if req.CollectionName == "" || req.VectorFieldName == "" {
		return nil, errors.New(errors.CodeInvalidParam, "CollectionName and VectorFieldName required")
	}
	if len(req.Vectors) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "Vectors cannot be empty")
	}
	if req.TopK <= 0 {
		return nil, errors.New(errors.CodeInvalidParam, "TopK must be > 0")
	}
	if req.TopK > s.config.MaxTopK {
		req.TopK = s.config.MaxTopK
	}

	sp, err := s.buildSearchParam(entity.IvfFlat, req.SearchParams)
	if err != nil {
		return nil, err
	}

	vectors := make([]entity.Vector, len(req.Vectors))
	for i, v := range req.Vectors {
		vectors[i] = entity.FloatVector(v)
	}

	start := time.Now()
	var opts []client.SearchQueryOptionFunc

	opts = append(opts, client.WithSearchQueryConsistencyLevel(s.config.ConsistencyLevel))

	if req.GuaranteeTimestamp > 0 {
		opts = append(opts, client.WithGuaranteeTimestamp(req.GuaranteeTimestamp))
	}

	metricType := entity.MetricType(req.MetricType)
	if metricType == "" {
		metricType = entity.COSINE
	}

	results, err := s.client.GetMilvusClient().Search(ctx, req.CollectionName, []string{}, req.Filters, req.OutputFields, vectors, req.VectorFieldName, metricType, req.TopK, sp, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSearchError, "search failed")
	}

	result := &VectorSearchResult{
		TookMs:  time.Since(start).Milliseconds(),
		Results: s.convertSearchResults(results),
	}

	s.logger.Debug("Vector search executed",
		logging.String("collection", req.CollectionName),
		logging.Int("hits", len(result.Results[0])))

	return result, nil
}

// HybridSearch performs multi-vector search with fusion.
func (s *Searcher) HybridSearch(ctx context.Context, collectionName string, requests []VectorSearchRequest, reranker Reranker, topK int) (*VectorSearchResult, error) {
	batchSize := len(requests[0].Vectors)
	for _, req := range requests {
		if len(req.Vectors) != batchSize {
			return nil, errors.New(errors.CodeInvalidParam, "batch size mismatch in hybrid search")
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	resultsPerRequest := make([][][]common.VectorHit, len(requests))

	for i, req := range requests {
		i, req := i, req
		req.CollectionName = collectionName
		req.TopK = topK * 2

		g.Go(func() error {
			res, err := s.Search(ctx, req)
			if err != nil {
				return err
			}
			resultsPerRequest[i] = res.Results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	fusedResults := make([][]common.VectorHit, batchSize)
	for i := 0; i < batchSize; i++ {
		queryResults := make([][]common.VectorHit, len(requests))
		for j := 0; j < len(requests); j++ {
			queryResults[j] = resultsPerRequest[j][i]
		}

		fusedResults[i] = reranker.Rerank(queryResults, topK)
	}

	return &VectorSearchResult{
		Results: fusedResults,
	}, nil
}

// SearchByID finds entities similar to an already-indexed entity, by its ID.
func (s *Searcher) SearchByID(ctx context.Context, collectionName string, vectorFieldName string, id int64, topK int, filters string, outputFields []string) ([]common.VectorHit, error) {
	res, err := s.client.GetMilvusClient().QueryByPks(ctx, collectionName, []string{}, entity.NewColumnInt64("id", []int64{id}), []string{vectorFieldName})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to query source entity")
	}

	if res.Len() == 0 {
		return nil, errors.New(errors.CodeNotFound, "entity not found")
	}

	col := res.GetColumn(vectorFieldName)
	if col == nil {
		return nil, errors.New(errors.CodeInternal, "vector field missing")
	}

	var vec []float32
	if fvc, ok := col.(*entity.ColumnFloatVector); ok {
		if fvc.Len() > 0 {
			vec = fvc.Data()[0]
		}
	} else {
		return nil, errors.New(errors.CodeInternal, "unsupported vector column type")
	}

	if len(vec) == 0 {
		return nil, errors.New(errors.CodeInternal, "vector data empty")
	}

	// 2. Search
	req := VectorSearchRequest{
		CollectionName:  collectionName,
		VectorFieldName: vectorFieldName,
		Vectors:         [][]float32{vec},
		TopK:            topK,
		Filters:         filters,
		OutputFields:    outputFields,
	}

	searchRes, err := s.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	return searchRes.Results[0], nil
}

// BatchSearch performs multiple searches concurrently.
func (s *Searcher) BatchSearch(ctx context.Context, requests []VectorSearchRequest) ([]*VectorSearchResult, error) {
	results := make([]*VectorSearchResult, len(requests))
	g, ctx := errgroup.WithContext(ctx)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			res, err := s.Search(ctx, req)
			if err != nil {
				s.logger.Warn("Batch search sub-request failed", logging.Err(err))
				results[i] = nil
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetEntityByIDs retrieves entities by IDs.
func (s *Searcher) GetEntityByIDs(ctx context.Context, collectionName string, ids []int64, outputFields []string) ([]map[string]interface{}, error) {
	idCol := entity.NewColumnInt64("id", ids)
	res, err := s.client.GetMilvusClient().QueryByPks(ctx, collectionName, []string{}, idCol, outputFields)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to query entities")
	}

	count := res.Len()
	rows := make([]map[string]interface{}, count)

	for i := 0; i < count; i++ {
		rows[i] = make(map[string]interface{})
	}

	for _, col := range res {
		name := col.Name()
		for i := 0; i < count; i++ {
			val, _ := col.Get(i)
			rows[i][name] = val
		}
	}

	return rows, nil
}

func (s *Searcher) GetEntityCount(ctx context.Context, collectionName string) (int64, error) {
	stats, err := s.client.GetMilvusClient().GetCollectionStatistics(ctx, collectionName)
	if err != nil {
		return 0, err
	}
	if val, ok := stats["row_count"]; ok {
		var count int64
		if _, err := fmt.Sscan(val, &count); err == nil {
			return count, nil
		}
	}
	return 0, nil
}

func (s *Searcher) convertToColumns(ctx context.Context, collectionName string, data []map[string]interface{}) ([]entity.Column, error) {
	info, err := s.collectionMgr.DescribeCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	columns := make([]entity.Column, 0, len(info.Fields))

	fieldData := make(map[string][]interface{})
	for _, row := range data {
		for k, v := range row {
			fieldData[k] = append(fieldData[k], v)
		}
	}

	for _, field := range info.Fields {
		name := field.Name
		values, ok := fieldData[name]
		if !ok {
			if field.AutoID {
				continue
			}
			return nil, fmt.Errorf("missing required field: %s", name)
		}

		var col entity.Column
		switch field.DataType {
		case entity.FieldTypeInt64:
			intValues := make([]int64, len(values))
			for i, v := range values {
				switch n := v.(type) {
				case float64:
					intValues[i] = int64(n)
				case int64:
					intValues[i] = n
				case int:
					intValues[i] = int64(n)
				}
			}
			col = entity.NewColumnInt64(name, intValues)
		case entity.FieldTypeVarChar:
			strValues := make([]string, len(values))
			for i, v := range values {
				strValues[i] = fmt.Sprint(v)
			}
			col = entity.NewColumnVarChar(name, strValues)
		case entity.FieldTypeFloat:
			floatValues := make([]float32, len(values))
			for i, v := range values {
				switch f := v.(type) {
				case float64:
					floatValues[i] = float32(f)
				case float32:
					floatValues[i] = f
				}
			}
			col = entity.NewColumnFloat(name, floatValues)
		case entity.FieldTypeFloatVector:
			vecValues := make([][]float32, len(values))
			var dim int
			for i, v := range values {
				switch vv := v.(type) {
				case []float32:
					vecValues[i] = vv
					if dim == 0 {
						dim = len(vv)
					}
				case []interface{}:
					vec := make([]float32, len(vv))
					for j, item := range vv {
						if f, ok := item.(float64); ok {
							vec[j] = float32(f)
						}
					}
					vecValues[i] = vec
					if dim == 0 {
						dim = len(vec)
					}
				}
			}
			col = entity.NewColumnFloatVector(name, dim, vecValues)
		}

		if col != nil {
			columns = append(columns, col)
		}
	}
	return columns, nil
}

func (s *Searcher) convertSearchResults(results []client.SearchResult) [][]common.VectorHit {
	hits := make([][]common.VectorHit, len(results))
	for i, res := range results {
		count := res.ResultCount
		hits[i] = make([]common.VectorHit, count)
		for j := 0; j < count; j++ {
			id, _ := res.IDs.GetAsInt64(j)
			score := res.Scores[j]

			fields := make(map[string]interface{})
			for _, col := range res.Fields {
				name := col.Name()
				if j < col.Len() {
					val, _ := col.Get(j)
					fields[name] = val
				}
			}

			hits[i][j] = common.VectorHit{
				ID:     id,
				Score:  score,
				Fields: fields,
			}
		}
	}
	return hits
}

func (s *Searcher) buildSearchParam(indexType entity.IndexType, params map[string]interface{}) (entity.SearchParam, error) {
	nprobe := s.config.DefaultNProbe
	if v, ok := params["nprobe"]; ok {
		if n, ok := v.(int); ok {
			nprobe = n
		}
	}

	return entity.NewIndexIvfFlatSearchParam(nprobe)
}
