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

import (
	"fmt"
	"strings"
)

// ValidateHistory validates a conversation submitted by a caller.
//
// Validation rules:
//   - At least one message
//   - Every role is user or assistant (the system message is composed server-side)
//   - Every message has non-blank content
//   - At least one message comes from the user
func ValidateHistory(messages []ChatMessage) error {
	if len(messages) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyHistory)
	}

	hasUser := false
	for i, msg := range messages {
		if err := ValidateRole(msg.Role); err != nil {
			return fmt.Errorf("%w: message %d: %w", ErrInvalidMessage, i, err)
		}
		if strings.TrimSpace(msg.Content) == "" {
			return fmt.Errorf("%w: message %d: %w", ErrInvalidMessage, i, ErrEmptyContent)
		}
		if msg.Role == RoleUser {
			hasUser = true
		}
	}

	if !hasUser {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrNoUserMessage)
	}
	return nil
}

// ValidateRole accepts the roles a caller may send.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return nil
}

// LatestUserMessage returns the content of the last message authored by the user.
func LatestUserMessage(messages []ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyHistory)
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content, nil
		}
	}
	return "", fmt.Errorf("%w: %w", ErrInvalidMessage, ErrNoUserMessage)
}

// ValidateCollectionSpec validates a collection definition.
func ValidateCollectionSpec(spec CollectionSpec) error {
	if strings.TrimSpace(spec.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCollection)
	}
	if spec.Dimension <= 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidCollection, ErrInvalidDimension, spec.Dimension)
	}
	if _, err := ParseSimilarityMetric(string(spec.Metric)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCollection, err)
	}
	return nil
}

// ValidateDocument validates a document before insertion into a collection
// of the given dimension.
//
// NOT validated:
//   - ID (empty means the store assigns one)
func ValidateDocument(doc *Document, dimension int) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}
	if len(doc.Vector) != dimension {
		return fmt.Errorf("%w: %w: got %d, want %d", ErrInvalidDocument, ErrInvalidDimension, len(doc.Vector), dimension)
	}
	return nil
}
