// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// the Gemini API and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	mockGenerator := mock.NewMockGenerator().
//	    WithReply("Lewis Hamilton has seven titles.")
//	answer, err := mockGenerator.Generate(ctx, messages)
//	last := mockGenerator.LastMessages()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Echoes the content of the final message
//   - MockProvider: Aggregates mock embedder and generator
//
// All mocks are safe for concurrent use so they can back worker pools.
package mock
