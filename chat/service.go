// Package chat answers a conversation turn with retrieval-augmented generation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/pitwall/ai"
	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/prompt"
	"github.com/poiesic/pitwall/search"
)

const (
	// DefaultTimeout bounds one reply: embedding, retrieval, and generation.
	DefaultTimeout = 60 * time.Second
	// DefaultRetrievalTimeout bounds the retrieval step of one reply.
	DefaultRetrievalTimeout = 10 * time.Second
)

// Retriever finds grounding context for a query vector.
type Retriever interface {
	Retrieve(ctx context.Context, vector []float32) (*search.Result, error)
}

// Service drives the query pipeline for one request at a time. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	embedder  ai.Embedder
	retriever Retriever
	generator ai.Generator
	timeout   time.Duration
	retrieval time.Duration
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithTimeout sets the per-reply deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		s.timeout = d
		return nil
	}
}

// WithRetrievalTimeout sets the deadline for the retrieval step. Retrieval
// never gets more than half of the reply timeout, leaving the rest for
// generation. Zero means half of the reply timeout.
func WithRetrievalTimeout(d time.Duration) Option {
	return func(s *Service) error {
		if d < 0 {
			return errors.New("retrieval timeout cannot be negative")
		}
		s.retrieval = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "chat")
		return nil
	}
}

// NewService creates a chat service.
func NewService(embedder ai.Embedder, retriever Retriever, generator ai.Generator, opts ...Option) (*Service, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	s := &Service{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		timeout:   DefaultTimeout,
		retrieval: DefaultRetrievalTimeout,
		logger:    slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Reply answers the latest user message in messages.
//
// Invalid histories return an error wrapping core.ErrInvalidMessage.
// Embedding and generation failures wrap ErrEmbedding and ErrGeneration.
// Retrieval failures never fail the reply; the answer is generated with an
// empty context instead.
func (s *Service) Reply(ctx context.Context, messages []core.ChatMessage) (string, error) {
	return s.ReplyWithMonitor(ctx, messages, nil)
}

// ReplyWithMonitor is Reply with callbacks at each stage.
func (s *Service) ReplyWithMonitor(ctx context.Context, messages []core.ChatMessage, monitor Monitor) (answer string, err error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := core.ValidateHistory(messages); err != nil {
		return "", err
	}
	question, err := core.LatestUserMessage(messages)
	if err != nil {
		return "", err
	}

	monitor.Start(question)
	defer func() { monitor.Finish(answer, err) }()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	vector, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		s.logger.Error("error generating embedding for question", "err", err)
		return "", fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	monitor.AfterEmbedding(vector)

	result, retrieveErr := s.retrieve(ctx, vector)
	if retrieveErr != nil {
		s.logger.Warn("retrieval failed, answering without context", "err", retrieveErr)
		result = search.Empty()
	}
	monitor.AfterRetrieval(result, retrieveErr)

	system := prompt.Compose(result.Texts, question)
	monitor.AfterCompose(system)

	conversation := make([]core.ChatMessage, 0, len(messages)+1)
	conversation = append(conversation, system)
	conversation = append(conversation, messages...)

	answer, err = s.generator.Generate(ctx, conversation)
	if err != nil {
		s.logger.Error("error generating answer", "err", err)
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	s.logger.Debug("answered question", "context_documents", len(result.Texts), "answer_len", len(answer))
	return answer, nil
}

// retrieveTimeout is the deadline for the retrieval step, or zero for none.
func (s *Service) retrieveTimeout() time.Duration {
	d := s.retrieval
	if s.timeout > 0 && (d == 0 || d > s.timeout/2) {
		d = s.timeout / 2
	}
	return d
}

// retrieve runs the retriever under its own deadline so a stalled vector
// store cannot consume the time reserved for generation.
func (s *Service) retrieve(ctx context.Context, vector []float32) (*search.Result, error) {
	if d := s.retrieveTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	result, err := s.retriever.Retrieve(ctx, vector)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return search.Empty(), nil
	}
	return result, nil
}
