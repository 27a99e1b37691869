package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
)

type collection struct {
	store *Store
	spec  core.CollectionSpec
}

func (c *collection) Spec() core.CollectionSpec {
	return c.spec
}

func (c *collection) Insert(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if c.store.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if err := storage.CheckDocument(c.spec, doc); err != nil {
		return nil, err
	}

	stored := *doc
	if stored.ID == "" {
		id, err := c.store.nextID(c.spec.Name)
		if err != nil {
			return nil, err
		}
		stored.ID = id
	}
	if stored.InsertedAt.IsZero() {
		stored.InsertedAt = time.Now().UTC()
	}

	data, err := storage.MarshalDocument(&stored)
	if err != nil {
		return nil, err
	}

	err = c.store.backend.Update(func(tx *badger.Txn) error {
		key := makeDocumentKey(c.spec.Name, stored.ID)
		_, err := tx.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, stored.ID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return tx.Set(key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		// a concurrent insert wrote the same key first
		return nil, fmt.Errorf("%w: %s", storage.ErrDuplicateKey, stored.ID)
	}
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// FindSimilar scans every document in the collection and keeps the best limit.
func (c *collection) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	if c.store.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if err := storage.CheckQuery(c.spec, vector, limit); err != nil {
		return nil, err
	}

	var results []*core.SearchResult

	err := c.store.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(c.spec.Name)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(doc.Vector) == 0 {
				continue
			}

			results = append(results, &core.SearchResult{
				Document: doc,
				Score:    core.Similarity(c.spec.Metric, vector, doc.Vector),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
