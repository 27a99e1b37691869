package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/pitwall/core"
	"github.com/poiesic/pitwall/search"
)

// loggingMonitor reports each stage of a reply and, when out is set, prints
// the retrieved context.
type loggingMonitor struct {
	logger  *slog.Logger
	out     io.Writer
	started time.Time
}

func newLoggingMonitor(logger *slog.Logger) *loggingMonitor {
	return &loggingMonitor{logger: logger.With("component", "ask")}
}

func (m *loggingMonitor) Start(question string) {
	m.started = time.Now()
	m.logger.Debug("question received", "question", question)
}

func (m *loggingMonitor) AfterEmbedding(vector []float32) {
	m.logger.Debug("question embedded", "dimension", len(vector), "elapsed", time.Since(m.started))
}

func (m *loggingMonitor) AfterRetrieval(result *search.Result, err error) {
	if err != nil {
		m.logger.Warn("retrieval failed, answering without context", "err", err)
		return
	}
	m.logger.Debug("context retrieved", "documents", len(result.Texts), "elapsed", time.Since(m.started))
	for i, hit := range result.Hits {
		m.logger.Debug("hit", "rank", i+1, "id", hit.Document.ID, "score", hit.Score)
	}
	if m.out != nil {
		for i, text := range result.Texts {
			fmt.Fprintf(m.out, "[%d] %s\n\n", i+1, text)
		}
	}
}

func (m *loggingMonitor) AfterCompose(system core.ChatMessage) {
	m.logger.Debug("prompt composed", "system_len", len(system.Content))
}

func (m *loggingMonitor) Finish(answer string, err error) {
	if err != nil {
		m.logger.Debug("reply failed", "err", err, "elapsed", time.Since(m.started))
		return
	}
	m.logger.Debug("reply generated", "answer_len", len(answer), "elapsed", time.Since(m.started))
}
