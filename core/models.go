package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DefaultDimension is the vector length produced by the Gemini embedding-001 model.
const DefaultDimension = 768

// ID is a content-derived identifier used when documents are deduplicated.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// String renders the ID as fixed-width hex so it can be used as a storage key.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single turn of a conversation. The caller owns the history
// and resends it in full on every request.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SimilarityMetric is the vector comparison used by a collection.
// It is fixed when the collection is created.
type SimilarityMetric string

const (
	MetricCosine     SimilarityMetric = "cosine"
	MetricEuclidean  SimilarityMetric = "euclidean"
	MetricDotProduct SimilarityMetric = "dot_product"
)

// DefaultMetric is used when a collection is created without an explicit metric.
const DefaultMetric = MetricDotProduct

// ParseSimilarityMetric converts a metric name into a SimilarityMetric.
// An empty name yields DefaultMetric.
func ParseSimilarityMetric(name string) (SimilarityMetric, error) {
	switch SimilarityMetric(name) {
	case "":
		return DefaultMetric, nil
	case MetricCosine, MetricEuclidean, MetricDotProduct:
		return SimilarityMetric(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMetric, name)
	}
}

// CollectionSpec describes a named collection of documents.
type CollectionSpec struct {
	Name      string
	Dimension int
	Metric    SimilarityMetric
}

// Document is one retrievable unit: a chunk of source text and its embedding.
// ID is assigned by the storage layer unless the caller supplies one.
type Document struct {
	ID         string
	Text       string
	Vector     []float32
	InsertedAt time.Time
}

// SearchResult is a document returned from a nearest-neighbor query.
// Higher scores are more similar regardless of the collection metric.
type SearchResult struct {
	Document *Document
	Score    float32
}
