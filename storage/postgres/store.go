// Package postgres implements storage.CollectionStore on PostgreSQL with the
// pgvector extension. Each collection is its own table, registered in a
// metadata table that records its dimension and metric.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
)

const metadataTable = "pitwall_collections"

// Store implements storage.CollectionStore on a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ storage.CollectionStore = (*Store)(nil)

// NewStore connects to dsn, ensures the vector extension and metadata table
// exist, and returns a store.
func NewStore(ctx context.Context, dsn string) (storage.CollectionStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{
		pool:   pool,
		logger: slog.Default().With("component", "postgres-store"),
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS ` + metadataTable + ` (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			metric TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

// CreateCollection registers the collection and creates its table and HNSW index
// in one transaction.
func (s *Store) CreateCollection(ctx context.Context, spec core.CollectionSpec) error {
	if err := core.ValidateCollectionSpec(spec); err != nil {
		return err
	}
	if spec.Metric == "" {
		spec.Metric = core.DefaultMetric
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO `+metadataTable+` (name, dimension, metric) VALUES ($1, $2, $3) ON CONFLICT (name) DO NOTHING`,
			spec.Name, spec.Dimension, string(spec.Metric))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", storage.ErrCollectionExists, spec.Name)
		}

		table := tableName(spec.Name)
		ddl := []string{
			fmt.Sprintf(`CREATE TABLE %s (
				id TEXT PRIMARY KEY,
				text TEXT NOT NULL,
				embedding vector(%d) NOT NULL,
				inserted_at TIMESTAMPTZ NOT NULL
			)`, table, spec.Dimension),
			fmt.Sprintf(`CREATE INDEX ON %s USING hnsw (embedding %s)`, table, indexOps(spec.Metric)),
		}
		for _, stmt := range ddl {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError(err)
	}

	s.logger.Info("collection created", "collection", spec.Name, "dimension", spec.Dimension, "metric", spec.Metric)
	return nil
}

// Collection looks the collection up in the metadata table.
func (s *Store) Collection(ctx context.Context, name string) (storage.Collection, error) {
	var (
		spec   = core.CollectionSpec{Name: name}
		metric string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT dimension, metric FROM `+metadataTable+` WHERE name = $1`, name,
	).Scan(&spec.Dimension, &metric)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: collection %s", storage.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	spec.Metric, err = core.ParseSimilarityMetric(metric)
	if err != nil {
		return nil, err
	}
	return &collection{store: s, spec: spec, table: tableName(name)}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// tableName maps a collection name to a quoted table identifier.
func tableName(collection string) string {
	return pgx.Identifier{"pitwall_docs_" + collection}.Sanitize()
}

func indexOps(metric core.SimilarityMetric) string {
	switch metric {
	case core.MetricCosine:
		return "vector_cosine_ops"
	case core.MetricEuclidean:
		return "vector_l2_ops"
	default:
		return "vector_ip_ops"
	}
}

// distanceOperator returns the pgvector operator ordering rows nearest first.
func distanceOperator(metric core.SimilarityMetric) string {
	switch metric {
	case core.MetricCosine:
		return "<=>"
	case core.MetricEuclidean:
		return "<->"
	default:
		return "<#>"
	}
}

// scoreExpr converts the operator's distance (bound to d) into the same
// larger-is-closer score core.Similarity produces.
func scoreExpr(metric core.SimilarityMetric) string {
	switch metric {
	case core.MetricCosine:
		return "1 - d / 2"
	case core.MetricEuclidean:
		return "1 / (1 + d * d)"
	default:
		return "(1 - d) / 2"
	}
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P07", "23505":
			return fmt.Errorf("%w: %s", storage.ErrCollectionExists, pgErr.Message)
		case "22000":
			return fmt.Errorf("%w: %s", storage.ErrDimensionMismatch, pgErr.Message)
		}
	}
	return err
}
