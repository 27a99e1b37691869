package storage

import (
	"errors"
	"fmt"

	"github.com/poiesic/pitwall/core"
)

// CheckDocument validates doc for insertion into a collection with the given spec.
// Dimension problems are reported as ErrDimensionMismatch.
func CheckDocument(spec core.CollectionSpec, doc *core.Document) error {
	if err := core.ValidateDocument(doc, spec.Dimension); err != nil {
		if errors.Is(err, core.ErrInvalidDimension) {
			return fmt.Errorf("%w: collection %q: %w", ErrDimensionMismatch, spec.Name, err)
		}
		return err
	}
	return nil
}

// CheckQuery validates nearest-neighbour query parameters.
func CheckQuery(spec core.CollectionSpec, vector []float32, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidQuery, limit)
	}
	if len(vector) != spec.Dimension {
		return fmt.Errorf("%w: collection %q expects %d, got %d", ErrDimensionMismatch, spec.Name, spec.Dimension, len(vector))
	}
	return nil
}
