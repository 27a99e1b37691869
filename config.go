package pitwall

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/pitwall/ai"
	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage/astra"
)

// StoreType selects the collection store backend.
type StoreType string

const (
	StoreAstra    StoreType = "astra"
	StoreBadger   StoreType = "badger"
	StorePostgres StoreType = "postgres"
)

// DefaultBadgerPath is where the embedded store lives when no path is given.
const DefaultBadgerPath = "./pitwall-data"

var (
	ErrCollectionRequired  = errors.New("collection name is required")
	ErrUnknownStore        = errors.New("unknown store type")
	ErrBadgerPathRequired  = errors.New("badger path is required")
	ErrPostgresDSNRequired = errors.New("postgres DSN is required")
)

// Config holds everything needed to open an App.
type Config struct {
	// Store selects the backend. Defaults to StoreAstra.
	Store StoreType

	// Collection names the vector collection used by ingestion and chat.
	Collection string

	// Metric is the similarity metric used when the collection is created.
	Metric core.SimilarityMetric

	// Astra holds the Data API connection settings.
	Astra astra.Config

	// BadgerPath is the directory of the embedded store.
	BadgerPath string

	// PostgresDSN is the connection string of the pgvector database.
	PostgresDSN string

	// AI configures the embedding and generation models.
	AI *ai.Config
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

func WithStore(store StoreType) ConfigOption {
	return func(c *Config) {
		c.Store = store
	}
}

func WithCollection(name string) ConfigOption {
	return func(c *Config) {
		c.Collection = name
	}
}

func WithMetric(metric core.SimilarityMetric) ConfigOption {
	return func(c *Config) {
		c.Metric = metric
	}
}

func WithAstra(cfg astra.Config) ConfigOption {
	return func(c *Config) {
		c.Astra = cfg
	}
}

func WithBadgerPath(path string) ConfigOption {
	return func(c *Config) {
		c.BadgerPath = path
	}
}

func WithPostgresDSN(dsn string) ConfigOption {
	return func(c *Config) {
		c.PostgresDSN = dsn
	}
}

func WithAIConfig(cfg *ai.Config) ConfigOption {
	return func(c *Config) {
		c.AI = cfg
	}
}

// DefaultConfig returns a configuration for the Astra backend with the
// default Gemini models. The collection name and credentials must still be set.
func DefaultConfig() *Config {
	return &Config{
		Store:      StoreAstra,
		Metric:     core.DefaultMetric,
		BadgerPath: DefaultBadgerPath,
		Astra:      astra.Config{Keyspace: astra.DefaultKeyspace},
		AI:         ai.DefaultConfig(),
	}
}

// NewConfig applies opts on top of DefaultConfig.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize trims whitespace and fills in defaults for empty fields.
func (c *Config) Normalize() {
	c.Store = StoreType(strings.ToLower(strings.TrimSpace(string(c.Store))))
	if c.Store == "" {
		c.Store = StoreAstra
	}
	c.Collection = strings.TrimSpace(c.Collection)
	c.Metric = core.SimilarityMetric(strings.TrimSpace(string(c.Metric)))
	if c.Metric == "" {
		c.Metric = core.DefaultMetric
	}
	c.Astra.Endpoint = strings.TrimSpace(c.Astra.Endpoint)
	c.Astra.Token = strings.TrimSpace(c.Astra.Token)
	c.Astra.Keyspace = strings.TrimSpace(c.Astra.Keyspace)
	if c.Astra.Keyspace == "" {
		c.Astra.Keyspace = astra.DefaultKeyspace
	}
	c.BadgerPath = strings.TrimSpace(c.BadgerPath)
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)
	if c.AI == nil {
		c.AI = ai.DefaultConfig()
	}
	c.AI.Normalize()
}

// Validate reports the first missing or invalid setting.
func (c *Config) Validate() error {
	if err := c.validateCollection(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.AI == nil {
		return errors.New("AI configuration is required")
	}
	return c.AI.Validate()
}

// CollectionSpec describes the collection this configuration targets.
func (c *Config) CollectionSpec() core.CollectionSpec {
	spec := core.CollectionSpec{
		Name:   c.Collection,
		Metric: c.Metric,
	}
	if c.AI != nil {
		spec.Dimension = c.AI.Dimensions
	}
	return spec
}

func (c *Config) validateCollection() error {
	if c.Collection == "" {
		return ErrCollectionRequired
	}
	if _, err := core.ParseSimilarityMetric(string(c.Metric)); err != nil {
		return err
	}
	return core.ValidateCollectionSpec(c.CollectionSpec())
}

func (c *Config) validateStore() error {
	switch c.Store {
	case StoreAstra:
		if c.Astra.Endpoint == "" {
			return astra.ErrEndpointRequired
		}
		if c.Astra.Token == "" {
			return astra.ErrTokenRequired
		}
	case StoreBadger:
		if c.BadgerPath == "" {
			return ErrBadgerPathRequired
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return ErrPostgresDSNRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
	}
	return nil
}
