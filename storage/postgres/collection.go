package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
)

type collection struct {
	store *Store
	spec  core.CollectionSpec
	table string
}

func (c *collection) Spec() core.CollectionSpec {
	return c.spec
}

func (c *collection) Insert(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := storage.CheckDocument(c.spec, doc); err != nil {
		return nil, err
	}

	stored := *doc
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.InsertedAt.IsZero() {
		stored.InsertedAt = time.Now().UTC()
	}

	tag, err := c.store.pool.Exec(ctx,
		`INSERT INTO `+c.table+` (id, text, embedding, inserted_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
		stored.ID, stored.Text, pgvector.NewVector(stored.Vector), stored.InsertedAt)
	if err != nil {
		return nil, translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrDuplicateKey, stored.ID)
	}
	return &stored, nil
}

func (c *collection) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	if err := storage.CheckQuery(c.spec, vector, limit); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, text, inserted_at, %s AS score
		FROM (
			SELECT id, text, inserted_at, embedding %s $1 AS d
			FROM %s
			ORDER BY embedding %s $1
			LIMIT $2
		) nearest
		ORDER BY d`,
		scoreExpr(c.spec.Metric), distanceOperator(c.spec.Metric), c.table, distanceOperator(c.spec.Metric))

	rows, err := c.store.pool.Query(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var results []*core.SearchResult
	for rows.Next() {
		var (
			doc   core.Document
			score float64
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &doc.InsertedAt, &score); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, &core.SearchResult{Document: &doc, Score: float32(score)})
	}
	return results, rows.Err()
}
