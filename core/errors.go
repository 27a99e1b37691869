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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidMessage indicates a chat history failed validation.
	ErrInvalidMessage = errors.New("invalid chat message")

	// ErrEmptyHistory indicates that no messages were supplied.
	ErrEmptyHistory = errors.New("messages must not be empty")

	// ErrNoUserMessage indicates the history has no message from the user.
	ErrNoUserMessage = errors.New("messages must contain a user message")

	// ErrInvalidRole indicates a message role other than user or assistant.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrEmptyContent indicates a message with no content.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyText indicates a document with blank text.
	ErrEmptyText = errors.New("document text cannot be empty")

	// ErrInvalidDimension indicates a non-positive or mismatched vector length.
	ErrInvalidDimension = errors.New("invalid vector dimension")

	// ErrInvalidMetric indicates an unknown similarity metric.
	ErrInvalidMetric = errors.New("invalid similarity metric")

	// ErrInvalidCollection indicates a CollectionSpec failed validation.
	ErrInvalidCollection = errors.New("invalid collection")
)
