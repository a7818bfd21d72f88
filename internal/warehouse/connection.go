// Package warehouse loads and merges entity batches into PostgreSQL.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-boxoffice/internal/logging"
	"github.com/pgEdge/pgedge-boxoffice/pkg/version"
)

// DB is an interface that both *pgxpool.Pool and *pgx.Conn satisfy.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PoolLimits bounds the warehouse connection pool. Each table has a single
// writer, so a handful of connections serve a run.
type PoolLimits struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolLimits returns the limits used by Connect.
func DefaultPoolLimits() PoolLimits {
	return PoolLimits{
		MaxConns:          10,
		MinConns:          1,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

func (l PoolLimits) apply(config *pgxpool.Config) {
	config.MaxConns = l.MaxConns
	config.MinConns = l.MinConns
	config.MaxConnLifetime = l.MaxConnLifetime
	config.MaxConnIdleTime = l.MaxConnIdleTime
	config.HealthCheckPeriod = l.HealthCheckPeriod
}

// Connect opens a pool to the warehouse database. Sessions identify
// themselves as pgedge-boxoffice in pg_stat_activity unless the connection
// string names an application.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	DefaultPoolLimits().apply(config)

	params := config.ConnConfig.RuntimeParams
	if params["application_name"] == "" {
		params["application_name"] = version.UserAgent()
	}

	logging.Debug().
		Str("host", config.ConnConfig.Host).
		Uint16("port", config.ConnConfig.Port).
		Str("database", config.ConnConfig.Database).
		Int32("max_conns", config.MaxConns).
		Msg("Connecting to warehouse")

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach warehouse %s: %w", config.ConnConfig.Database, err)
	}

	logging.Info().
		Str("host", config.ConnConfig.Host).
		Str("database", config.ConnConfig.Database).
		Msg("Connected to warehouse")

	return pool, nil
}
