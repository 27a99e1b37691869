package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
)

// Store implements storage.CollectionStore on an embedded BadgerDB.
type Store struct {
	backend *Backend
	logger  *slog.Logger

	mu   sync.Mutex
	seqs map[string]*badger.Sequence
}

var _ storage.CollectionStore = (*Store)(nil)

// NewStore opens (creating if necessary) a BadgerDB-backed store at path.
func NewStore(path string, opts ...Option) (storage.CollectionStore, error) {
	backend, err := OpenBackend(path, opts...)
	if err != nil {
		return nil, err
	}
	return newStore(backend), nil
}

func newStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  backend.logger,
		seqs:    make(map[string]*badger.Sequence),
	}
}

// CreateCollection records a new collection definition.
func (s *Store) CreateCollection(ctx context.Context, spec core.CollectionSpec) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := core.ValidateCollectionSpec(spec); err != nil {
		return err
	}
	if spec.Metric == "" {
		spec.Metric = core.DefaultMetric
	}

	data, err := storage.MarshalCollectionSpec(spec)
	if err != nil {
		return err
	}

	err = s.backend.Update(func(tx *badger.Txn) error {
		key := makeCollectionKey(spec.Name)
		_, err := tx.Get(key)
		if err == nil {
			return fmt.Errorf("%w: %s", storage.ErrCollectionExists, spec.Name)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return tx.Set(key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %s", storage.ErrCollectionExists, spec.Name)
	}
	if err != nil {
		return err
	}

	s.logger.Info("collection created", "collection", spec.Name, "dimension", spec.Dimension, "metric", spec.Metric)
	return nil
}

// Collection returns a handle to an existing collection.
func (s *Store) Collection(ctx context.Context, name string) (storage.Collection, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var spec core.CollectionSpec
	err := s.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCollectionKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: collection %s", storage.ErrNotFound, name)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			spec, err = storage.UnmarshalCollectionSpec(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return &collection{store: s, spec: spec}, nil
}

// Close releases ID sequences and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, seq := range s.seqs {
		if err := seq.Release(); err != nil {
			s.logger.Warn("failed to release sequence", "collection", name, "err", err)
		}
	}
	s.seqs = make(map[string]*badger.Sequence)

	if s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}

// nextID returns the next store-assigned document ID for a collection.
func (s *Store) nextID(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.seqs[name]
	if !ok {
		var err error
		seq, err = s.backend.Sequence(makeSequenceKey(name))
		if err != nil {
			return "", err
		}
		s.seqs[name] = seq
	}

	n, err := seq.Next()
	if err != nil {
		return "", err
	}
	return core.ID(n + 1).String(), nil
}
