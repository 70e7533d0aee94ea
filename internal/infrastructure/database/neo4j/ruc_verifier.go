package neo4j

import (
	"context"

	"github.com/turtacn/tender-intel/internal/infrastructure/monitoring/logging"
)

// RUCVerifier confirms a normalized RUC against the (:Taxpayer) registry
// mirrored into the graph from the tax authority feed, implementing
// ruc.VerificationAdapter without the pipeline/ruc package needing to know
// about Neo4j.
type RUCVerifier struct {
	driver *Driver
	logger logging.Logger
}

// NewRUCVerifier constructs a RUCVerifier over an already-connected Driver.
func NewRUCVerifier(driver *Driver, logger logging.Logger) *RUCVerifier {
	return &RUCVerifier{driver: driver, logger: logger}
}

// Verify reports whether a (:Taxpayer {ruc: normalizedRUC}) node exists and
// is not flagged inactive.
func (v *RUCVerifier) Verify(ctx context.Context, normalizedRUC string) (bool, error) {
	result, err := v.driver.ExecuteRead(ctx, func(tx Transaction) (interface{}, error) {
		res, err := tx.Run(ctx, `
			MATCH (t:Taxpayer {ruc: $ruc})
			RETURN coalesce(t.active, true) AS active
			LIMIT 1
		`, map[string]any{"ruc": normalizedRUC})
		if err != nil {
			return false, err
		}
		if !res.Next(ctx) {
			return false, res.Err()
		}
		rec := res.Record()
		active, _ := rec.Values[0].(bool)
		return active, res.Err()
	})
	if err != nil {
		v.logger.Warn("RUC verification query failed, treating as unverified",
			logging.String("ruc", normalizedRUC), logging.Err(err))
		return false, nil
	}
	verified, _ := result.(bool)
	return verified, nil
}
