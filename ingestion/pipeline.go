// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/pitwall/ai"
	"github.com/poiesic/pitwall/chunking"
	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
)

// DefaultSourceTimeout bounds the fetch, embedding, and inserts of one source.
const DefaultSourceTimeout = 5 * time.Minute

// Fetcher returns the visible text of a page, or "" if it cannot be fetched.
type Fetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Pipeline loads sources into a single collection.
type Pipeline struct {
	store         storage.CollectionStore
	spec          core.CollectionSpec
	fetcher       Fetcher
	embedder      ai.Embedder
	chunker       *chunking.Chunker
	pool          *ants.Pool
	dedup         bool
	sourceTimeout time.Duration
	onSource      func(url string)
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets how many sources are processed at once.
// Default is 1, which processes sources sequentially without a pool.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		if p.pool != nil {
			p.pool.Release()
			p.pool = nil
		}
		if n <= 1 {
			return nil
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithDedup gives each document a content-hash ID so repeated runs skip
// chunks that are already stored instead of inserting them again.
func WithDedup(enabled bool) Option {
	return func(p *Pipeline) error {
		p.dedup = enabled
		return nil
	}
}

// WithSourceTimeout bounds the time spent on one source.
func WithSourceTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d <= 0 {
			return errors.New("source timeout must be positive")
		}
		p.sourceTimeout = d
		return nil
	}
}

// WithChunker replaces the default 512/100 chunker.
func WithChunker(c *chunking.Chunker) Option {
	return func(p *Pipeline) error {
		if c == nil {
			return errors.New("chunker cannot be nil")
		}
		p.chunker = c
		return nil
	}
}

// WithSourceCallback registers fn to be called after each source finishes.
// Calls may come from multiple goroutines when WithWorkers is above 1.
func WithSourceCallback(fn func(url string)) Option {
	return func(p *Pipeline) error {
		p.onSource = fn
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates an ingestion pipeline writing to the collection
// described by spec.
func NewPipeline(
	store storage.CollectionStore,
	spec core.CollectionSpec,
	fetcher Fetcher,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if err := core.ValidateCollectionSpec(spec); err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:         store,
		spec:          spec,
		fetcher:       fetcher,
		embedder:      embedder,
		chunker:       chunking.New(),
		sourceTimeout: DefaultSourceTimeout,
		logger:        slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	return p, nil
}

// Run ensures the collection exists and ingests every source.
// It returns an error only when the collection cannot be prepared or ctx ends;
// per-source and per-chunk failures are counted in the report.
func (p *Pipeline) Run(ctx context.Context, sources []string) (*Report, error) {
	b := &reportBuilder{report: Report{RunID: uuid.NewString(), Started: time.Now()}}
	logger := p.logger.With("run_id", b.report.RunID)

	if err := EnsureCollection(ctx, p.store, p.spec, logger); err != nil {
		return b.finish(), fmt.Errorf("ensure collection: %w", err)
	}
	coll, err := p.store.Collection(ctx, p.spec.Name)
	if err != nil {
		return b.finish(), fmt.Errorf("open collection: %w", err)
	}

	logger.Info("ingestion started", "sources", len(sources), "collection", p.spec.Name, "dedup", p.dedup)

	if p.pool == nil {
		for _, url := range sources {
			if ctx.Err() != nil {
				break
			}
			b.add(p.ingestSource(ctx, coll, url, logger))
			p.sourceDone(url)
		}
	} else {
		var wg sync.WaitGroup
		for _, url := range sources {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			err := p.pool.Submit(func() {
				defer wg.Done()
				b.add(p.ingestSource(ctx, coll, url, logger))
				p.sourceDone(url)
			})
			if err != nil {
				wg.Done()
				logger.Error("failed to schedule source", "url", url, "err", err)
			}
		}
		wg.Wait()
	}

	report := b.finish()
	logger.Info("ingestion finished", "report", report)
	return report, ctx.Err()
}

func (p *Pipeline) sourceDone(url string) {
	if p.onSource != nil {
		p.onSource(url)
	}
}

func (p *Pipeline) ingestSource(ctx context.Context, coll storage.Collection, url string, logger *slog.Logger) sourceReport {
	ctx, cancel := context.WithTimeout(ctx, p.sourceTimeout)
	defer cancel()

	logger = logger.With("url", url)
	var r sourceReport

	text := p.fetcher.Fetch(ctx, url)
	if text == "" {
		logger.Warn("source returned no content, skipping")
		r.skipped = true
		return r
	}

	for chunk := range p.chunker.Split(text) {
		if ctx.Err() != nil {
			logger.Warn("source timed out, abandoning remaining chunks", "err", ctx.Err())
			break
		}
		r.chunks++
		if !p.chunker.Keep(chunk) {
			r.discarded++
			continue
		}

		vector, err := p.embedder.EmbedText(ctx, chunk)
		if err != nil {
			logger.Error("failed to embed chunk", "chunk", r.chunks, "err", err)
			r.failed++
			continue
		}

		doc := &core.Document{Text: chunk, Vector: vector}
		if p.dedup {
			doc.ID = core.IDFromContent(chunk).String()
		}

		_, err = coll.Insert(ctx, doc)
		switch {
		case err == nil:
			r.inserted++
		case p.dedup && errors.Is(err, storage.ErrDuplicateKey):
			r.duplicates++
		default:
			logger.Error("failed to insert chunk", "chunk", r.chunks, "err", err)
			r.failed++
		}
	}

	logger.Debug("source ingested",
		"chunks", r.chunks, "inserted", r.inserted, "duplicates", r.duplicates, "failed", r.failed)
	return r
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
