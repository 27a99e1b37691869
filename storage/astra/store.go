package astra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/httpclient"
	"github.com/poiesic/pitwall/storage"
)

// DefaultKeyspace is used when Config.Keyspace is empty.
const DefaultKeyspace = "default_keyspace"

// Backoff bounds of the default client. Queries run under a caller deadline
// of a few seconds, so retries wait far less than the shared client default.
const (
	retryMinWait = 250 * time.Millisecond
	retryMaxWait = 2 * time.Second
)

const apiPath = "/api/json/v1"

var (
	// ErrEndpointRequired is returned when no API endpoint is configured.
	ErrEndpointRequired = errors.New("astra: API endpoint is required")

	// ErrTokenRequired is returned when no application token is configured.
	ErrTokenRequired = errors.New("astra: application token is required")
)

// Config holds connection settings for an Astra database.
type Config struct {
	// Endpoint is the database API endpoint, e.g.
	// https://<id>-<region>.apps.astra.datastax.com
	Endpoint string
	// Keyspace is the namespace that holds the collections.
	Keyspace string
	// Token is the application token (AstraCS:...).
	Token string
}

// Option configures a Store.
type Option func(*Store) error

// WithHTTPClient replaces the default retrying client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		s.client = client
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "astra-store")
		return nil
	}
}

// Store implements storage.CollectionStore against the Astra Data API.
type Store struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

var _ storage.CollectionStore = (*Store)(nil)

// NewStore validates cfg and returns a store. No request is made until the
// first operation.
func NewStore(cfg Config, opts ...Option) (storage.CollectionStore, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("astra: invalid endpoint %q: %w", endpoint, err)
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, ErrTokenRequired
	}
	keyspace := strings.TrimSpace(cfg.Keyspace)
	if keyspace == "" {
		keyspace = DefaultKeyspace
	}

	s := &Store{
		baseURL: endpoint + apiPath + "/" + url.PathEscape(keyspace),
		token:   token,
		logger:  slog.Default().With("component", "astra-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("keyspace", keyspace)
	if s.client == nil {
		s.client = httpclient.New(
			httpclient.WithLogger(s.logger),
			httpclient.WithWaitBounds(retryMinWait, retryMaxWait),
		)
	}
	return s, nil
}

// CreateCollection creates a vector-enabled collection.
// The Data API treats an identical re-create as a no-op, so existence is
// checked first to report ErrCollectionExists consistently.
func (s *Store) CreateCollection(ctx context.Context, spec core.CollectionSpec) error {
	if err := core.ValidateCollectionSpec(spec); err != nil {
		return err
	}
	if spec.Metric == "" {
		spec.Metric = core.DefaultMetric
	}

	if _, err := s.describe(ctx, spec.Name); err == nil {
		return fmt.Errorf("%w: %s", storage.ErrCollectionExists, spec.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	var cmd createCollectionCommand
	cmd.CreateCollection = collectionDescriptor{
		Name: spec.Name,
		Options: collectionOptions{Vector: &vectorOptions{
			Dimension: spec.Dimension,
			Metric:    string(spec.Metric),
		}},
	}
	if _, err := s.do(ctx, s.baseURL, cmd); err != nil {
		return err
	}

	s.logger.Info("collection created", "collection", spec.Name, "dimension", spec.Dimension, "metric", spec.Metric)
	return nil
}

// Collection returns a handle to an existing vector-enabled collection.
func (s *Store) Collection(ctx context.Context, name string) (storage.Collection, error) {
	spec, err := s.describe(ctx, name)
	if err != nil {
		return nil, err
	}
	return &collection{
		store: s,
		spec:  spec,
		url:   s.baseURL + "/" + url.PathEscape(name),
	}, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) describe(ctx context.Context, name string) (core.CollectionSpec, error) {
	var cmd findCollectionsCommand
	cmd.FindCollections.Options.Explain = true

	resp, err := s.do(ctx, s.baseURL, cmd)
	if err != nil {
		return core.CollectionSpec{}, err
	}

	for _, c := range resp.Status.Collections {
		if c.Name != name {
			continue
		}
		if c.Options.Vector == nil || c.Options.Vector.Dimension <= 0 {
			return core.CollectionSpec{}, fmt.Errorf("%w: collection %s is not vector-enabled", core.ErrInvalidCollection, name)
		}
		metric, err := core.ParseSimilarityMetric(c.Options.Vector.Metric)
		if err != nil {
			return core.CollectionSpec{}, err
		}
		return core.CollectionSpec{Name: name, Dimension: c.Options.Vector.Dimension, Metric: metric}, nil
	}
	return core.CollectionSpec{}, fmt.Errorf("%w: collection %s", storage.ErrNotFound, name)
}

// do posts a JSON command and decodes the response envelope. Command-level
// errors reported in the body are translated to storage sentinels.
func (s *Store) do(ctx context.Context, target string, cmd any) (*response, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Token", s.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("astra request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("astra response read failed: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("astra returned %s: %s", httpResp.Status, truncate(string(raw), 200))
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if len(resp.Errors) > 0 {
		return nil, translateError(resp.Errors[0])
	}
	return &resp, nil
}

func translateError(e apiError) error {
	msg := e.Message
	if e.ErrorCode != "" {
		msg = e.ErrorCode + ": " + msg
	}
	switch {
	case e.ErrorCode == "EXISTING_COLLECTION_DIFFERENT_SETTINGS",
		e.ErrorCode == "COLLECTION_ALREADY_EXISTS",
		strings.Contains(strings.ToLower(e.Message), "already exists") && !strings.HasPrefix(e.ErrorCode, "DOCUMENT"):
		return fmt.Errorf("%w: %s", storage.ErrCollectionExists, msg)
	case e.ErrorCode == "DOCUMENT_ALREADY_EXISTS":
		return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, msg)
	case e.ErrorCode == "COLLECTION_NOT_EXIST":
		return fmt.Errorf("%w: %s", storage.ErrNotFound, msg)
	case strings.Contains(e.ErrorCode, "VECTOR") && strings.Contains(strings.ToLower(e.Message), "dimension"):
		return fmt.Errorf("%w: %s", storage.ErrDimensionMismatch, msg)
	default:
		return fmt.Errorf("astra: %s", msg)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
