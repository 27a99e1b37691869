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


package chat

import (
	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/search"
)

// Monitor provides hooks to observe a reply as it moves through the pipeline.
// Implement this interface to trace intermediate steps, for example to show
// the retrieved context in the CLI.
type Monitor interface {
	Start(question string)
	AfterEmbedding(vector []float32)
	// AfterRetrieval receives the context used for the prompt. When retrieval
	// failed, err is non-nil and result is empty.
	AfterRetrieval(result *search.Result, err error)
	AfterCompose(system core.ChatMessage)
	Finish(answer string, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterEmbedding(_ []float32)               {}
func (n *noopMonitor) AfterRetrieval(_ *search.Result, _ error) {}
func (n *noopMonitor) AfterCompose(_ core.ChatMessage)          {}
func (n *noopMonitor) Finish(_ string, _ error)                 {}
