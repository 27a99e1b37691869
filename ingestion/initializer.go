package ingestion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
)

// EnsureCollection creates the collection described by spec. An existing
// collection of the same name counts as success; any other error is returned.
func EnsureCollection(ctx context.Context, store storage.CollectionStore, spec core.CollectionSpec, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	err := store.CreateCollection(ctx, spec)
	switch {
	case err == nil:
		logger.Info("collection created", "collection", spec.Name)
		return nil
	case errors.Is(err, storage.ErrCollectionExists):
		logger.Info("collection already exists, continuing", "collection", spec.Name)
		return nil
	default:
		logger.Error("failed to create collection", "collection", spec.Name, "err", err)
		return err
	}
}
