package chat

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrEmbedding wraps a failure to embed the question.
	ErrEmbedding = errors.New("failed to embed question")

	// ErrGeneration wraps a failure to generate the answer.
	ErrGeneration = errors.New("failed to generate answer")
)
