// Package chunking splits page text into overlapping chunks for embedding.
package chunking

import (
	"iter"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 100

	// MinChunkLength is the shortest trimmed chunk worth embedding.
	MinChunkLength = 50
)

// DefaultSeparators are tried in order: paragraph, line, sentence, word, character.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits text with a recursive character splitter.
// It is stateless after construction and safe for concurrent use.
type Chunker struct {
	splitter  textsplitter.TextSplitter
	minLength int
	logger    *slog.Logger
}

// Option configures a Chunker.
type Option func(*config)

type config struct {
	size, overlap, minLength int
	separators               []string
}

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(n int) Option {
	return func(c *config) { c.size = n }
}

// WithChunkOverlap sets the overlap between consecutive chunks.
func WithChunkOverlap(n int) Option {
	return func(c *config) { c.overlap = n }
}

// WithMinLength sets the shortest chunk Keep accepts.
func WithMinLength(n int) Option {
	return func(c *config) { c.minLength = n }
}

// WithSeparators replaces the separator hierarchy.
func WithSeparators(seps []string) Option {
	return func(c *config) { c.separators = seps }
}

// New creates a Chunker with 512-character chunks overlapping by 100.
func New(opts ...Option) *Chunker {
	cfg := config{
		size:       DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		minLength:  MinChunkLength,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.size),
			textsplitter.WithChunkOverlap(cfg.overlap),
			textsplitter.WithSeparators(cfg.separators),
		),
		minLength: cfg.minLength,
		logger:    slog.Default().With("component", "chunker"),
	}
}

// Split yields the chunks of text in order. Identical input always yields the
// identical sequence. Short chunks are included; filter them with Keep.
func (c *Chunker) Split(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		chunks, err := c.splitter.SplitText(text)
		if err != nil {
			c.logger.Warn("failed to split text", "chars", len(text), "err", err)
			return
		}
		for _, chunk := range chunks {
			if !yield(chunk) {
				return
			}
		}
	}
}

// Keep reports whether chunk is long enough to embed.
func (c *Chunker) Keep(chunk string) bool {
	return len([]rune(strings.TrimSpace(chunk))) >= c.minLength
}

// Chunks yields only the chunks of text that pass Keep.
func (c *Chunker) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for chunk := range c.Split(text) {
			if c.Keep(chunk) && !yield(chunk) {
				return
			}
		}
	}
}
