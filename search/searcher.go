package search

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
)

// DefaultTopK is the number of documents retrieved per question.
const DefaultTopK = 10

// Result is the context retrieved for one question.
type Result struct {
	// Texts holds the document texts, most similar first.
	Texts []string
	// Hits holds the documents and their scores in the same order.
	Hits []*core.SearchResult
}

// Empty returns a result with no documents.
func Empty() *Result {
	return &Result{Texts: []string{}}
}

// Searcher queries one collection of a store.
type Searcher struct {
	store      storage.CollectionStore
	collection string
	topK       int
	logger     *slog.Logger

	mu     sync.Mutex
	handle storage.Collection
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithTopK sets how many documents are retrieved.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k < 1 {
			return errors.New("top k must be at least 1")
		}
		s.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// NewSearcher creates a searcher over the named collection. The collection
// does not need to exist yet; it is resolved on first use.
func NewSearcher(store storage.CollectionStore, collection string, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if collection == "" {
		return nil, ErrCollectionRequired
	}

	s := &Searcher{
		store:      store,
		collection: collection,
		topK:       DefaultTopK,
		logger:     slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Retrieve returns the texts of the documents nearest to vector.
func (s *Searcher) Retrieve(ctx context.Context, vector []float32) (*Result, error) {
	coll, err := s.collectionHandle(ctx)
	if err != nil {
		return nil, err
	}

	hits, err := coll.FindSimilar(ctx, vector, s.topK)
	if err != nil {
		return nil, err
	}

	result := &Result{Texts: make([]string, 0, len(hits)), Hits: hits}
	for _, hit := range hits {
		result.Texts = append(result.Texts, hit.Document.Text)
	}

	if len(hits) > 0 {
		s.logger.Debug("retrieved context",
			"documents", len(hits), "top_score", hits[0].Score, "bottom_score", hits[len(hits)-1].Score)
	} else {
		s.logger.Debug("retrieved context", "documents", 0)
	}
	return result, nil
}

// collectionHandle resolves the collection once and caches the handle.
// Failures are not cached so a collection created later is picked up.
func (s *Searcher) collectionHandle(ctx context.Context) (storage.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		return s.handle, nil
	}
	coll, err := s.store.Collection(ctx, s.collection)
	if err != nil {
		return nil, err
	}
	s.handle = coll
	return coll, nil
}
