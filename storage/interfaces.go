package storage

import (
	"context"

	"github.com/poiesic/pitwall/core"
)

// CollectionStore manages named vector collections.
// Implementations must be thread-safe and support concurrent access.
type CollectionStore interface {
	// CreateCollection creates a collection with the given name, dimension, and metric.
	// Returns ErrCollectionExists if a collection with that name already exists,
	// regardless of whether its settings match.
	CreateCollection(ctx context.Context, spec core.CollectionSpec) error

	// Collection returns a handle to an existing collection.
	// Returns ErrNotFound if the collection does not exist.
	Collection(ctx context.Context, name string) (Collection, error)

	// Close releases resources held by the store.
	Close() error
}

// Collection stores documents and answers nearest-neighbour queries.
type Collection interface {
	// Spec returns the collection's definition.
	Spec() core.CollectionSpec

	// Insert stores one document. An empty ID is assigned by the store.
	// InsertedAt is set if not already set.
	// Returns ErrDimensionMismatch if the vector length differs from the
	// collection dimension and ErrDuplicateKey if a caller-supplied ID exists.
	Insert(ctx context.Context, doc *core.Document) (*core.Document, error)

	// FindSimilar returns up to limit documents ordered by similarity to vector,
	// most similar first.
	FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error)
}
