package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/tender-intel/internal/infrastructure/database/neo4j"
	"github.com/turtacn/tender-intel/internal/infrastructure/database/postgres"
	"github.com/turtacn/tender-intel/internal/infrastructure/database/redis"
)

// postgresHealthAdapter adapts the shared connection pool to HealthHandler's
// HealthChecker interface.
type postgresHealthAdapter struct {
	pool *pgxpool.Pool
}

func (a *postgresHealthAdapter) Name() string {
	return "postgres"
}

func (a *postgresHealthAdapter) Check(ctx context.Context) error {
	return postgres.HealthCheck(ctx, a.pool)
}

// redisHealthAdapter adapts the cache client to HealthHandler's
// HealthChecker interface.
type redisHealthAdapter struct {
	client *redis.Client
}

func (a *redisHealthAdapter) Name() string {
	return "redis"
}

func (a *redisHealthAdapter) Check(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// neo4jHealthAdapter adapts the graph driver to HealthHandler's
// HealthChecker interface.
type neo4jHealthAdapter struct {
	driver *neo4j.Driver
}

func (a *neo4jHealthAdapter) Name() string {
	return "neo4j"
}

func (a *neo4jHealthAdapter) Check(ctx context.Context) error {
	return a.driver.HealthCheck(ctx)
}
