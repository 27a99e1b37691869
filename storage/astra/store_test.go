package astra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/httpclient"
	"github.com/poiesic/pitwall/storage"
)

const testToken = "AstraCS:test"

// fakeAstra is an in-memory stand-in for the Data API commands the store uses.
type fakeAstra struct {
	mu          sync.Mutex
	collections map[string]collectionDescriptor
	documents   map[string][]wireDocument
	requests    []map[string]json.RawMessage
	nextID      int
}

func newFakeAstra() *fakeAstra {
	return &fakeAstra{
		collections: make(map[string]collectionDescriptor),
		documents:   make(map[string][]wireDocument),
	}
}

func (f *fakeAstra) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Token") != testToken {
		http.Error(w, `{"errors":[{"message":"unauthorized"}]}`, http.StatusUnauthorized)
		return
	}
	rest, ok := strings.CutPrefix(r.URL.Path, apiPath+"/ks")
	if !ok {
		http.NotFound(w, r)
		return
	}
	collName := strings.TrimPrefix(rest, "/")

	var cmd map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, cmd)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case cmd["findCollections"] != nil:
		var list []collectionDescriptor
		for _, c := range f.collections {
			list = append(list, c)
		}
		writeJSON(w, map[string]any{"status": map[string]any{"collections": list}})

	case cmd["createCollection"] != nil:
		var desc collectionDescriptor
		_ = json.Unmarshal(cmd["createCollection"], &desc)
		if existing, ok := f.collections[desc.Name]; ok {
			if existing.Options.Vector.Dimension != desc.Options.Vector.Dimension {
				writeJSON(w, map[string]any{"errors": []apiError{{
					Message:   "Collection already exists with different settings",
					ErrorCode: "EXISTING_COLLECTION_DIFFERENT_SETTINGS",
				}}})
				return
			}
		}
		f.collections[desc.Name] = desc
		writeJSON(w, map[string]any{"status": map[string]any{"ok": 1}})

	case cmd["insertOne"] != nil:
		var body struct {
			Document wireDocument `json:"document"`
		}
		_ = json.Unmarshal(cmd["insertOne"], &body)
		doc := body.Document
		if doc.ID == "" {
			f.nextID++
			doc.ID = fmt.Sprintf("uuid-%d", f.nextID)
		}
		for _, d := range f.documents[collName] {
			if d.ID == doc.ID {
				writeJSON(w, map[string]any{"errors": []apiError{{
					Message:   "Document already exists with the given _id",
					ErrorCode: "DOCUMENT_ALREADY_EXISTS",
				}}})
				return
			}
		}
		f.documents[collName] = append(f.documents[collName], doc)
		writeJSON(w, map[string]any{"status": map[string]any{"insertedIds": []string{doc.ID}}})

	case cmd["find"] != nil:
		var body struct {
			Sort    map[string][]float32 `json:"sort"`
			Options findOptions          `json:"options"`
		}
		_ = json.Unmarshal(cmd["find"], &body)
		desc := f.collections[collName]
		metric, _ := core.ParseSimilarityMetric(desc.Options.Vector.Metric)

		type scored struct {
			doc   wireDocument
			score float32
		}
		var all []scored
		for _, d := range f.documents[collName] {
			all = append(all, scored{d, core.Similarity(metric, body.Sort["$vector"], d.Vector)})
		}
		for i := 1; i < len(all); i++ {
			for j := i; j > 0 && all[j].score > all[j-1].score; j-- {
				all[j], all[j-1] = all[j-1], all[j]
			}
		}
		if len(all) > body.Options.Limit {
			all = all[:body.Options.Limit]
		}
		docs := make([]map[string]any, 0, len(all))
		for _, s := range all {
			docs = append(docs, map[string]any{"_id": s.doc.ID, "text": s.doc.Text, "$similarity": s.score})
		}
		writeJSON(w, map[string]any{"data": map[string]any{"documents": docs}})

	default:
		writeJSON(w, map[string]any{"errors": []apiError{{Message: "unknown command", ErrorCode: "NO_COMMAND_MATCHED"}}})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T, fake http.Handler) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewStore(
		Config{Endpoint: srv.URL + "/", Keyspace: "ks", Token: testToken},
		WithHTTPClient(httpclient.New(httpclient.WithRetryMax(0))),
	)
	require.NoError(t, err)
	return store.(*Store)
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(Config{Token: testToken})
	assert.ErrorIs(t, err, ErrEndpointRequired)

	_, err = NewStore(Config{Endpoint: "https://db.example.com"})
	assert.ErrorIs(t, err, ErrTokenRequired)

	s, err := NewStore(Config{Endpoint: "https://db.example.com/", Token: testToken})
	require.NoError(t, err)
	assert.Equal(t, "https://db.example.com/api/json/v1/"+DefaultKeyspace, s.(*Store).baseURL)
}

func TestCreateCollection(t *testing.T) {
	fake := newFakeAstra()
	store := newTestStore(t, fake)
	ctx := context.Background()
	spec := core.CollectionSpec{Name: "f1gpt", Dimension: 768, Metric: core.MetricDotProduct}

	require.NoError(t, store.CreateCollection(ctx, spec))
	assert.Equal(t, 768, fake.collections["f1gpt"].Options.Vector.Dimension)
	assert.Equal(t, "dot_product", fake.collections["f1gpt"].Options.Vector.Metric)

	err := store.CreateCollection(ctx, spec)
	assert.ErrorIs(t, err, storage.ErrCollectionExists)

	coll, err := store.Collection(ctx, "f1gpt")
	require.NoError(t, err)
	assert.Equal(t, spec, coll.Spec())
}

func TestCollection_NotFound(t *testing.T) {
	store := newTestStore(t, newFakeAstra())

	_, err := store.Collection(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInsertAndFind(t *testing.T) {
	fake := newFakeAstra()
	store := newTestStore(t, fake)
	ctx := context.Background()

	require.NoError(t, store.CreateCollection(ctx, core.CollectionSpec{Name: "f1gpt", Dimension: 2, Metric: core.MetricCosine}))
	coll, err := store.Collection(ctx, "f1gpt")
	require.NoError(t, err)

	first, err := coll.Insert(ctx, &core.Document{Text: "Hamilton has seven titles.", Vector: []float32{1, 0}})
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", first.ID)
	assert.False(t, first.InsertedAt.IsZero())

	_, err = coll.Insert(ctx, &core.Document{Text: "Monaco is a street circuit.", Vector: []float32{0, 1}})
	require.NoError(t, err)

	_, err = coll.Insert(ctx, &core.Document{Text: "bad", Vector: []float32{1}})
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)

	results, err := coll.FindSimilar(ctx, []float32{0.9, 0.1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Hamilton has seven titles.", results[0].Document.Text)
	assert.Equal(t, "uuid-1", results[0].Document.ID)
	assert.Greater(t, results[0].Score, results[1].Score)

	last := fake.requests[len(fake.requests)-1]
	var find map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(last["find"], &find))
	assert.JSONEq(t, `{"text":1}`, string(find["projection"]))
	assert.JSONEq(t, `{"limit":10,"includeSimilarity":true}`, string(find["options"]))
}

func TestInsert_DuplicateID(t *testing.T) {
	store := newTestStore(t, newFakeAstra())
	ctx := context.Background()

	require.NoError(t, store.CreateCollection(ctx, core.CollectionSpec{Name: "f1gpt", Dimension: 1}))
	coll, err := store.Collection(ctx, "f1gpt")
	require.NoError(t, err)

	_, err = coll.Insert(ctx, &core.Document{ID: "abc", Text: "x", Vector: []float32{1}})
	require.NoError(t, err)
	_, err = coll.Insert(ctx, &core.Document{ID: "abc", Text: "x", Vector: []float32{1}})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(newFakeAstra())
	defer srv.Close()

	store, err := NewStore(
		Config{Endpoint: srv.URL, Keyspace: "ks", Token: "wrong"},
		WithHTTPClient(httpclient.New(httpclient.WithRetryMax(0))),
	)
	require.NoError(t, err)

	err = store.CreateCollection(context.Background(), core.CollectionSpec{Name: "f1gpt", Dimension: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   apiError
		want error
	}{
		{"different settings", apiError{Message: "x", ErrorCode: "EXISTING_COLLECTION_DIFFERENT_SETTINGS"}, storage.ErrCollectionExists},
		{"already exists message", apiError{Message: "Collection 'f1gpt' already exists"}, storage.ErrCollectionExists},
		{"duplicate document", apiError{Message: "Document already exists", ErrorCode: "DOCUMENT_ALREADY_EXISTS"}, storage.ErrDuplicateKey},
		{"missing collection", apiError{Message: "no such collection", ErrorCode: "COLLECTION_NOT_EXIST"}, storage.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.in), tt.want)
		})
	}

	err := translateError(apiError{Message: "boom", ErrorCode: "SERVER_FAILURE"})
	assert.EqualError(t, err, "astra: SERVER_FAILURE: boom")
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "abc", idString(json.RawMessage(`"abc"`)))
	assert.Equal(t, "0190-uuid", idString(json.RawMessage(`{"$uuid":"0190-uuid"}`)))
	assert.Equal(t, "42", idString(json.RawMessage(`42`)))
}
