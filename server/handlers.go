package server

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/poiesic/pitwall/core"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []Message `json:"messages" validate:"dive"`
}

// Message is one turn of the conversation as sent by the caller.
type Message struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// ChatResponse carries the generated answer.
type ChatResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.renderError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.renderError(w, r, err)
		return
	}

	answer, err := s.replier.Reply(r.Context(), req.history())
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.logger.Debug("chat answered",
		"request_id", middleware.GetReqID(r.Context()),
		"messages", len(req.Messages),
		"answer_len", len(answer))
	encodeJSON(w, http.StatusOK, ChatResponse{Message: answer})
}

func (req *ChatRequest) history() []core.ChatMessage {
	history := make([]core.ChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = core.ChatMessage{Role: core.Role(m.Role), Content: m.Content}
	}
	return history
}
