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


package pitwall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/pitwall/ai"
	"github.com/poiesic/pitwall/ai/googleai"
	"github.com/poiesic/pitwall/chat"
	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/fetch"
	"github.com/poiesic/pitwall/ingestion"
	"github.com/poiesic/pitwall/search"
	"github.com/poiesic/pitwall/storage"
	"github.com/poiesic/pitwall/storage/astra"
	"github.com/poiesic/pitwall/storage/badger"
	"github.com/poiesic/pitwall/storage/postgres"
)

// App owns the collection store and AI provider and hands out the
// ingestion pipeline and chat service built on them.
type App struct {
	config   *Config
	store    storage.CollectionStore
	provider ai.AIProvider
	fetcher  ingestion.Fetcher
	logger   *slog.Logger
}

// Option configures an App.
type Option func(*App) error

// WithCollectionStore uses store instead of opening the configured backend.
func WithCollectionStore(store storage.CollectionStore) Option {
	return func(a *App) error {
		if store == nil {
			return errors.New("collection store cannot be nil")
		}
		a.store = store
		return nil
	}
}

// WithProvider uses provider instead of connecting to Gemini.
func WithProvider(provider ai.AIProvider) Option {
	return func(a *App) error {
		if provider == nil {
			return errors.New("AI provider cannot be nil")
		}
		a.provider = provider
		return nil
	}
}

// WithFetcher replaces the HTTP source fetcher used for ingestion.
func WithFetcher(fetcher ingestion.Fetcher) Option {
	return func(a *App) error {
		if fetcher == nil {
			return errors.New("fetcher cannot be nil")
		}
		a.fetcher = fetcher
		return nil
	}
}

// WithLogger sets the logger passed down to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// Open validates cfg and connects the pieces it names. Settings for a
// store or provider supplied through options are not required.
func Open(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Normalize()

	a := &App{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if err := cfg.validateCollection(); err != nil {
		return nil, err
	}
	if a.store == nil {
		if err := cfg.validateStore(); err != nil {
			return nil, err
		}
	}
	if a.provider == nil {
		if err := cfg.AI.Validate(); err != nil {
			return nil, err
		}
	}

	if a.store == nil {
		store, err := openStore(ctx, cfg, a.logger)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	if a.provider == nil {
		provider, err := googleai.NewProvider(ctx, cfg.AI)
		if err != nil {
			a.store.Close()
			return nil, err
		}
		a.provider = provider
	}

	if a.fetcher == nil {
		fetcher, err := fetch.NewHTTPFetcher(fetch.WithLogger(a.logger))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.fetcher = fetcher
	}

	a.logger.Debug("app opened",
		"store", cfg.Store,
		"collection", cfg.Collection,
		"metric", cfg.Metric,
		"dimension", cfg.AI.Dimensions)
	return a, nil
}

func openStore(ctx context.Context, cfg *Config, logger *slog.Logger) (storage.CollectionStore, error) {
	switch cfg.Store {
	case StoreAstra:
		return astra.NewStore(cfg.Astra, astra.WithLogger(logger))
	case StoreBadger:
		return badger.NewStore(cfg.BadgerPath, badger.WithLogger(logger))
	case StorePostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}

// Close releases the provider and the store.
func (a *App) Close() error {
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing collection store", "err", err)
		return err
	}
	return nil
}

// Config returns the normalized configuration.
func (a *App) Config() *Config {
	return a.config
}

// CollectionSpec describes the configured collection.
func (a *App) CollectionSpec() core.CollectionSpec {
	return a.config.CollectionSpec()
}

func (a *App) Store() storage.CollectionStore {
	return a.store
}

func (a *App) Provider() ai.AIProvider {
	return a.provider
}

// NewIngestionPipeline builds a pipeline that loads sources into the
// configured collection.
func (a *App) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(a.logger)}, opts...)
	return ingestion.NewPipeline(a.store, a.CollectionSpec(), a.fetcher, a.provider.Embedder(), opts...)
}

// NewSearcher builds a retriever over the configured collection.
func (a *App) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(a.logger)}, opts...)
	return search.NewSearcher(a.store, a.config.Collection, opts...)
}

// NewChatService builds the query pipeline over the configured collection.
func (a *App) NewChatService(opts ...chat.Option) (*chat.Service, error) {
	searcher, err := a.NewSearcher()
	if err != nil {
		return nil, err
	}
	opts = append([]chat.Option{chat.WithLogger(a.logger)}, opts...)
	return chat.NewService(a.provider.Embedder(), searcher, a.provider.Generator(), opts...)
}
