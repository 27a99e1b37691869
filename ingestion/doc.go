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


// Package ingestion loads source pages into a vector collection.
//
// A run ensures the collection exists, then for every source URL fetches the
// page text, splits it into chunks, embeds each chunk, and inserts the
// vector and text as one document. Failures are isolated: a source that
// cannot be fetched is skipped, and a chunk that cannot be embedded or
// inserted is counted and skipped without affecting its neighbours. Only a
// collection creation failure other than "already exists" aborts the run.
//
// Sources are processed one at a time by default. WithWorkers spreads them
// over a bounded ants pool; every source still gets its own timeout.
package ingestion
