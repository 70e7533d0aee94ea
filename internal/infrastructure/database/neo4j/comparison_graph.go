package neo4j

import (
	"context"

	"github.com/turtacn/tender-intel/internal/domain/document"
	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
)

// ComparisonGraphPersister mirrors a Comparison into the tender graph: one
// (:Comparison) node, one (:Tender {doc_id}) node per participant, and one
// (:Tender)-[:COMPARED_IN]->(:Comparison) edge per participant carrying a
// dimension_<dim>_numeric / dimension_<dim>_category property pair for each
// dimension available for that tender, so downstream graph queries don't need
// to replay DiffMatrix in application code. No rank is stored.
type ComparisonGraphPersister struct {
	driver *Driver
	logger logging.Logger
}

// NewComparisonGraphPersister constructs a ComparisonGraphPersister over an
// already-connected Driver.
func NewComparisonGraphPersister(driver *Driver, logger logging.Logger) *ComparisonGraphPersister {
	return &ComparisonGraphPersister{driver: driver, logger: logger}
}

// PersistComparison upserts cmp's documents, the comparison node itself, and
// one relationship per document, with one property pair per available
// dimension set on that relationship.
func (p *ComparisonGraphPersister) PersistComparison(ctx context.Context, cmp *document.Comparison) error {
	_, err := p.driver.ExecuteWrite(ctx, func(tx Transaction) (interface{}, error) {
		if _, err := tx.Run(ctx, `
			MERGE (c:Comparison {id: $comparisonID})
			SET c.analysis_level = $level, c.created_at = $createdAt
		`, map[string]any{
			"comparisonID": cmp.ComparisonID,
			"level":        string(cmp.AnalysisLevel),
			"createdAt":    cmp.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}); err != nil {
			return nil, err
		}

		for docID, runID := range cmp.PerDoc {
			if _, err := tx.Run(ctx, `
				MERGE (t:Tender {doc_id: $docID})
				SET t.run_id = $runID
				WITH t
				MATCH (c:Comparison {id: $comparisonID})
				MERGE (t)-[:COMPARED_IN]->(c)
			`, map[string]any{"docID": docID, "runID": runID, "comparisonID": cmp.ComparisonID}); err != nil {
				return nil, err
			}
		}

		for dim, diff := range cmp.DiffMatrix {
			for _, pd := range diff.PerDoc {
				if !pd.Available {
					continue
				}
				if _, err := tx.Run(ctx, `
					MATCH (t:Tender {doc_id: $docID})-[r:COMPARED_IN]->(c:Comparison {id: $comparisonID})
					SET r.dimension_`+sanitizeDimensionKey(dim)+`_numeric = $numeric,
					    r.dimension_`+sanitizeDimensionKey(dim)+`_category = $category
				`, map[string]any{
					"docID":        pd.DocID,
					"comparisonID": cmp.ComparisonID,
					"numeric":      pd.Numeric,
					"category":     pd.Category,
				}); err != nil {
					return nil, err
				}
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}
	p.logger.Info("comparison persisted to graph",
		logging.String("comparison_id", cmp.ComparisonID),
		logging.Int("documents", len(cmp.PerDoc)))
	return nil
}

// sanitizeDimensionKey maps a dimension name to a Cypher-safe property
// fragment. Dimension names are drawn from the comparison package's fixed
// numericDimensions/categoricalDimensions lists plus section keys, all of
// which are already identifier-safe, but this guards against a future
// dimension containing characters Cypher property names can't.
func sanitizeDimensionKey(dim string) string {
	out := make([]byte, 0, len(dim))
	for i := 0; i < len(dim); i++ {
		c := dim[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
