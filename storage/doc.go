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


// Package storage provides the vector storage abstraction layer for Pitwall.
//
// This package defines the CollectionStore and Collection interfaces that
// decouple the ingestion and retrieval code from the database in use.
// Three backends are provided:
//
//   - storage/astra: DataStax Astra DB over its JSON Data API (production default)
//   - storage/postgres: PostgreSQL with the pgvector extension
//   - storage/badger: embedded BadgerDB with brute-force search, for local use and tests
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types:
//
//	store, err := badger.NewStore(path)  // returns storage.CollectionStore
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Usage
//
//	spec := core.CollectionSpec{Name: "f1gpt", Dimension: 768, Metric: core.MetricDotProduct}
//	if err := store.CreateCollection(ctx, spec); err != nil && !errors.Is(err, storage.ErrCollectionExists) {
//	    return err
//	}
//	coll, err := store.Collection(ctx, spec.Name)
//	results, err := coll.FindSimilar(ctx, queryVector, 10)
//
// # Scores
//
// Every backend reports scores where larger means more similar, normalised
// the same way core.Similarity does.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
