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


// Package search retrieves grounding context for a question.
//
// A Searcher runs one nearest-neighbour query against the configured
// collection and returns the text of the top k documents (10 by default) in
// the collection's similarity order. Retrieval errors are returned to the
// caller, which decides how to degrade; the chat service treats any error as
// an empty context.
package search
