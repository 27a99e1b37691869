package ai

import (
	"context"

	"github.com/poiesic/pitwall/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// The same embedder must be used for document chunks and for queries.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error rather than a placeholder vector if the service fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a single text completion for an ordered conversation.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate sends the messages, in order, to the language model and returns
	// the text of its first candidate.
	Generate(ctx context.Context, messages []core.ChatMessage) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider is constructed once at process start and shared read-only afterwards.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the chat completion service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
