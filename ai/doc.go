// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the AI services used by Pitwall.
//
// This package defines interfaces for text embeddings and chat completion.
// Ingestion, retrieval, and answering depend on these abstractions rather
// than on a concrete model vendor.
//
// The package is designed around three interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces an answer for an ordered conversation
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/googleai: Production implementation backed by the Gemini API
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in implementation packages return interface types.
// Test utility constructors return concrete types so tests can inject
// behavior and inspect calls.
//
// # Configuration
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
//	provider, err := googleai.NewProvider(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
// The same embedding model must be used at ingestion time and at query time,
// otherwise similarity scores are meaningless.
package ai
