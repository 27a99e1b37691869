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


package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/pitwall/core"
)

var (
	// ErrAPIKeyRequired is returned when no generation-service API key is configured.
	ErrAPIKeyRequired = errors.New("ai config: APIKey is required")

	// ErrEmptyResponse is returned when the model produces no candidates.
	ErrEmptyResponse = errors.New("model returned no content")
)

// Config holds configuration for AI service providers.
type Config struct {
	// APIKey authenticates both embedding and generation calls.
	APIKey string

	// ChatModel is the model identifier used for answer generation.
	// Example: "gemini-1.5-flash"
	ChatModel string

	// EmbeddingModel is the model identifier used for text embeddings.
	// Example: "embedding-001"
	EmbeddingModel string

	// Dimensions is the length of vectors produced by EmbeddingModel.
	// It must match the dimension of the collection being queried.
	Dimensions int

	// Temperature controls sampling. Zero leaves the model default in place.
	Temperature float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAPIKey sets the generation-service API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDimensions sets the expected embedding length.
func WithDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dim
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// DefaultConfig returns a Config with the Gemini models the assistant was built around.
// The API key has no default.
func DefaultConfig() *Config {
	return &Config{
		ChatModel:      "gemini-1.5-flash",
		EmbeddingModel: "embedding-001",
		Dimensions:     core.DefaultDimension,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    WithChatModel("gemini-1.5-pro"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize trims whitespace and strips the "models/" resource prefix that the
// Gemini console shows in front of model names.
func (c *Config) Normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.ChatModel = strings.TrimPrefix(strings.TrimSpace(c.ChatModel), "models/")
	c.EmbeddingModel = strings.TrimPrefix(strings.TrimSpace(c.EmbeddingModel), "models/")
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.APIKey == "" {
		return ErrAPIKeyRequired
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("ai config: Dimensions must be positive, got %d", c.Dimensions)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("ai config: Temperature must be between 0 and 2, got %v", c.Temperature)
	}
	return nil
}
