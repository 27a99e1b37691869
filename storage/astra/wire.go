package astra

import (
	"encoding/json"
	"strings"
)

type vectorOptions struct {
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric,omitempty"`
}

type collectionOptions struct {
	Vector *vectorOptions `json:"vector,omitempty"`
}

type collectionDescriptor struct {
	Name    string            `json:"name"`
	Options collectionOptions `json:"options"`
}

type createCollectionCommand struct {
	CreateCollection collectionDescriptor `json:"createCollection"`
}

type findCollectionsCommand struct {
	FindCollections struct {
		Options struct {
			Explain bool `json:"explain"`
		} `json:"options"`
	} `json:"findCollections"`
}

type wireDocument struct {
	ID     string    `json:"_id,omitempty"`
	Text   string    `json:"text"`
	Vector []float32 `json:"$vector"`
}

type insertOneCommand struct {
	InsertOne struct {
		Document wireDocument `json:"document"`
	} `json:"insertOne"`
}

type findOptions struct {
	Limit             int  `json:"limit"`
	IncludeSimilarity bool `json:"includeSimilarity"`
}

type findCommand struct {
	Find struct {
		Sort       map[string][]float32 `json:"sort"`
		Options    findOptions          `json:"options"`
		Projection map[string]int       `json:"projection"`
	} `json:"find"`
}

type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

type foundDocument struct {
	ID         json.RawMessage `json:"_id"`
	Text       string          `json:"text"`
	Similarity float32         `json:"$similarity"`
}

type response struct {
	Status struct {
		OK          int                    `json:"ok"`
		InsertedIDs []json.RawMessage      `json:"insertedIds"`
		Collections []collectionDescriptor `json:"collections"`
	} `json:"status"`
	Data struct {
		Documents []foundDocument `json:"documents"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

// idString renders a document _id, which Astra returns either as a JSON
// string or as a typed object such as {"$uuid": "..."}.
func idString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var typed map[string]string
	if err := json.Unmarshal(raw, &typed); err == nil {
		for _, v := range typed {
			return v
		}
	}
	return strings.TrimSpace(string(raw))
}
