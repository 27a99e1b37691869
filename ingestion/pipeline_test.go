package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/pitwall/ai/mock"
	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
	"github.com/poiesic/pitwall/storage/badger"
)

const testDim = 8

var testSpec = core.CollectionSpec{Name: "f1gpt", Dimension: testDim, Metric: core.MetricDotProduct}

// testFetcher serves canned page text and records which URLs were requested.
type testFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
	delay time.Duration
}

func (f *testFetcher) Fetch(ctx context.Context, url string) string {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ""
		}
	}
	return f.pages[url]
}

// failingStore wraps a store and fails selected operations.
type failingStore struct {
	storage.CollectionStore
	createErr  error
	insertFail func(doc *core.Document) bool
	creates    int
}

func (s *failingStore) CreateCollection(ctx context.Context, spec core.CollectionSpec) error {
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	return s.CollectionStore.CreateCollection(ctx, spec)
}

func (s *failingStore) Collection(ctx context.Context, name string) (storage.Collection, error) {
	c, err := s.CollectionStore.Collection(ctx, name)
	if err != nil {
		return nil, err
	}
	return &failingCollection{Collection: c, fail: s.insertFail}, nil
}

type failingCollection struct {
	storage.Collection
	fail func(doc *core.Document) bool
}

func (c *failingCollection) Insert(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if c.fail != nil && c.fail(doc) {
		return nil, errors.New("insert rejected")
	}
	return c.Collection.Insert(ctx, doc)
}

func paragraph(topic string, n int) string {
	var sb strings.Builder
	for i := range n {
		sb.WriteString(topic)
		sb.WriteString(" is one of the most storied names in Formula One history, paragraph ")
		sb.WriteString(strings.Repeat("x", i+1))
		sb.WriteString(".\n\n")
	}
	return sb.String()
}

func newTestStore(t *testing.T) storage.CollectionStore {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func countDocuments(t *testing.T, store storage.CollectionStore) int {
	t.Helper()
	coll, err := store.Collection(context.Background(), testSpec.Name)
	require.NoError(t, err)
	results, err := coll.FindSimilar(context.Background(), make([]float32, testDim), 10000)
	require.NoError(t, err)
	return len(results)
}

func newTestPipeline(t *testing.T, store storage.CollectionStore, fetcher Fetcher, embedder *mock.MockEmbedder, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(store, testSpec, fetcher, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipeline_Validation(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{}
	embedder := mock.NewMockEmbedder()

	_, err := NewPipeline(nil, testSpec, fetcher, embedder)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewPipeline(store, testSpec, nil, embedder)
	assert.ErrorIs(t, err, ErrFetcherRequired)

	_, err = NewPipeline(store, testSpec, fetcher, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(store, core.CollectionSpec{Name: "", Dimension: 8}, fetcher, embedder)
	assert.ErrorIs(t, err, core.ErrInvalidCollection)

	_, err = NewPipeline(store, testSpec, fetcher, embedder, WithSourceTimeout(0))
	assert.Error(t, err)
}

func TestEnsureCollection_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, EnsureCollection(ctx, store, testSpec, slog.Default()))
	require.NoError(t, EnsureCollection(ctx, store, testSpec, nil))

	coll, err := store.Collection(ctx, testSpec.Name)
	require.NoError(t, err)
	assert.Equal(t, testSpec, coll.Spec())
}

func TestEnsureCollection_PropagatesOtherErrors(t *testing.T) {
	boom := errors.New("unauthorized")
	store := &failingStore{CollectionStore: newTestStore(t), createErr: boom}

	err := EnsureCollection(context.Background(), store, testSpec, nil)
	assert.ErrorIs(t, err, boom)
}

func TestRun_AbortsWhenCollectionCannotBeCreated(t *testing.T) {
	boom := errors.New("quota exceeded")
	store := &failingStore{CollectionStore: newTestStore(t), createErr: boom}
	fetcher := &testFetcher{pages: map[string]string{"a": paragraph("Ferrari", 3)}}

	p := newTestPipeline(t, store, fetcher, mock.NewMockEmbedder().WithDimensions(testDim))
	_, err := p.Run(context.Background(), []string{"a"})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, fetcher.calls)
}

func TestRun_EmptySourceIsSkipped(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{pages: map[string]string{
		"https://a.example": paragraph("Ferrari", 4),
		"https://b.example": "",
		"https://c.example": paragraph("McLaren", 4),
	}}
	embedder := mock.NewMockEmbedder().WithDimensions(testDim)

	p := newTestPipeline(t, store, fetcher, embedder)
	report, err := p.Run(context.Background(), []string{"https://a.example", "https://b.example", "https://c.example"})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, fetcher.calls)
	assert.Equal(t, 3, report.Sources)
	assert.Equal(t, 1, report.SourcesSkipped)
	assert.Zero(t, report.Failed)
	assert.Positive(t, report.Inserted)
	assert.NotEmpty(t, report.RunID)

	for _, text := range embedder.Texts() {
		assert.True(t, strings.Contains(text, "Ferrari") || strings.Contains(text, "McLaren"))
	}
	assert.Equal(t, report.Inserted, countDocuments(t, store))
	assert.Equal(t, report.Inserted, embedder.CallCount())
}

func TestRun_DiscardsShortChunks(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{pages: map[string]string{"a": "Too short.\n\n" + strings.Repeat("Lap ", 200)}}
	embedder := mock.NewMockEmbedder().WithDimensions(testDim)

	p := newTestPipeline(t, store, fetcher, embedder)
	report, err := p.Run(context.Background(), []string{"a"})
	require.NoError(t, err)

	for _, text := range embedder.Texts() {
		assert.GreaterOrEqual(t, len(strings.TrimSpace(text)), 50)
	}
	assert.Equal(t, report.Chunks, report.ChunksDiscarded+report.Inserted)
}

func TestRun_ChunkFailuresAreIsolated(t *testing.T) {
	base := newTestStore(t)
	var rejected int
	store := &failingStore{
		CollectionStore: base,
		insertFail: func(doc *core.Document) bool {
			if strings.Contains(doc.Text, "Williams") && rejected == 0 {
				rejected++
				return true
			}
			return false
		},
	}
	embedder := mock.NewMockEmbedder().WithDimensions(testDim).
		WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
			if strings.Contains(text, "Lotus") {
				return nil, errors.New("embedding quota exceeded")
			}
			return mock.Vector(text, testDim), nil
		})
	fetcher := &testFetcher{pages: map[string]string{
		"a": paragraph("Williams", 6),
		"b": paragraph("Lotus", 2),
		"c": paragraph("Brabham", 6),
	}}

	p := newTestPipeline(t, store, fetcher, embedder)
	report, err := p.Run(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Positive(t, report.Failed)
	assert.Equal(t, 1, rejected)
	assert.Zero(t, report.SourcesSkipped)
	assert.Equal(t, report.Inserted, countDocuments(t, base))
	assert.Equal(t, report.Chunks, report.ChunksDiscarded+report.Inserted+report.Failed)
	assert.Positive(t, report.Inserted)
}

func TestRun_DuplicatesWithoutDedup(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{pages: map[string]string{"a": paragraph("Mercedes", 4)}}
	embedder := mock.NewMockEmbedder().WithDimensions(testDim)
	p := newTestPipeline(t, store, fetcher, embedder)

	first, err := p.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	second, err := p.Run(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Equal(t, first.Inserted, second.Inserted)
	assert.Zero(t, second.Duplicates)
	assert.Equal(t, 2*first.Inserted, countDocuments(t, store))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_Dedup(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{pages: map[string]string{"a": paragraph("Red Bull", 4)}}
	embedder := mock.NewMockEmbedder().WithDimensions(testDim)
	p := newTestPipeline(t, store, fetcher, embedder, WithDedup(true))

	first, err := p.Run(context.Background(), []string{"a"})
	require.NoError(t, err)
	second, err := p.Run(context.Background(), []string{"a"})
	require.NoError(t, err)

	assert.Zero(t, second.Inserted)
	assert.Equal(t, first.Inserted, second.Duplicates)
	assert.Zero(t, second.Failed)
	assert.Equal(t, first.Inserted, countDocuments(t, store))
}

func TestRun_Workers(t *testing.T) {
	store := newTestStore(t)
	pages := map[string]string{}
	var sources []string
	for _, team := range []string{"Alpine", "Aston Martin", "Haas", "Sauber", "Racing Bulls"} {
		pages[team] = paragraph(team, 3)
		sources = append(sources, team)
	}
	fetcher := &testFetcher{pages: pages, delay: 10 * time.Millisecond}
	embedder := mock.NewMockEmbedder().WithDimensions(testDim)

	var mu sync.Mutex
	var done []string
	p := newTestPipeline(t, store, fetcher, embedder,
		WithWorkers(3),
		WithSourceCallback(func(url string) {
			mu.Lock()
			done = append(done, url)
			mu.Unlock()
		}),
	)

	report, err := p.Run(context.Background(), sources)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Sources)
	assert.ElementsMatch(t, sources, done)
	assert.Equal(t, report.Inserted, countDocuments(t, store))
}

func TestRun_SourceTimeout(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{
		pages: map[string]string{"slow": paragraph("Minardi", 2), "fast": paragraph("Jordan", 2)},
		delay: 200 * time.Millisecond,
	}
	embedder := mock.NewMockEmbedder().WithDimensions(testDim)
	p := newTestPipeline(t, store, fetcher, embedder, WithSourceTimeout(20*time.Millisecond))

	report, err := p.Run(context.Background(), []string{"slow", "fast"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.SourcesSkipped)
	assert.Equal(t, []string{"slow", "fast"}, fetcher.calls)
}

func TestRun_ContextCancelled(t *testing.T) {
	store := newTestStore(t)
	fetcher := &testFetcher{pages: map[string]string{"a": paragraph("Benetton", 2)}}
	p := newTestPipeline(t, store, fetcher, mock.NewMockEmbedder().WithDimensions(testDim))

	require.NoError(t, EnsureCollection(context.Background(), store, testSpec, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.calls)
}

func TestDefaultSources(t *testing.T) {
	assert.Len(t, DefaultSources, 15)
	seen := map[string]bool{}
	for _, s := range DefaultSources {
		assert.True(t, strings.HasPrefix(s, "https://"), s)
		assert.False(t, seen[s], "duplicate source %s", s)
		seen[s] = true
	}
}
