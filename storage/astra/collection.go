package astra

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/storage"
)

type collection struct {
	store *Store
	spec  core.CollectionSpec
	url   string
}

func (c *collection) Spec() core.CollectionSpec {
	return c.spec
}

func (c *collection) Insert(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := storage.CheckDocument(c.spec, doc); err != nil {
		return nil, err
	}

	var cmd insertOneCommand
	cmd.InsertOne.Document = wireDocument{ID: doc.ID, Text: doc.Text, Vector: doc.Vector}

	resp, err := c.store.do(ctx, c.url, cmd)
	if err != nil {
		return nil, err
	}

	stored := *doc
	if stored.ID == "" {
		if len(resp.Status.InsertedIDs) == 0 {
			return nil, fmt.Errorf("astra: insertOne returned no id")
		}
		stored.ID = idString(resp.Status.InsertedIDs[0])
	}
	if stored.InsertedAt.IsZero() {
		stored.InsertedAt = time.Now().UTC()
	}
	return &stored, nil
}

// FindSimilar runs a vector-sorted find. Only the text field is projected, so
// result documents carry no vector.
func (c *collection) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	if err := storage.CheckQuery(c.spec, vector, limit); err != nil {
		return nil, err
	}

	var cmd findCommand
	cmd.Find.Sort = map[string][]float32{"$vector": vector}
	cmd.Find.Options = findOptions{Limit: limit, IncludeSimilarity: true}
	cmd.Find.Projection = map[string]int{"text": 1}

	resp, err := c.store.do(ctx, c.url, cmd)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(resp.Data.Documents))
	for _, d := range resp.Data.Documents {
		results = append(results, &core.SearchResult{
			Document: &core.Document{ID: idString(d.ID), Text: d.Text},
			Score:    d.Similarity,
		})
	}
	return results, nil
}
